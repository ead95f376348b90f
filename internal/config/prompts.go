package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prompts is the fixed text the interview is driven by.
// The image and report phrases in SystemPrompt are what the conversation
// engine listens for, so edits here must keep "palm" + "upload"/"image" and
// "generate" + "report" + "would you like" in the closing lines.
type Prompts struct {
	SystemPrompt     string `yaml:"system_prompt"`
	Welcome          string `yaml:"welcome"`
	WelcomeReturn    string `yaml:"welcome_return"`
	RetakeAck        string `yaml:"retake_ack"`
	Apology          string `yaml:"apology"`
	ReportSystem     string `yaml:"report_system"`
	ImageInstruction string `yaml:"image_instruction"`
}

// DefaultPrompts returns the built-in interview script
func DefaultPrompts() *Prompts {
	return &Prompts{
		SystemPrompt:     defaultSystemPrompt,
		Welcome:          "Welcome to Eternal! I am your spiritual guide, here to help discover your cognitive identity and unveil your spiritual aura. I will ask you a series of questions to understand your energy better. Ready to begin?",
		WelcomeReturn:    "Welcome back! You already have a spiritual wellness report. Would you like to view your existing report, or retake the assessment for a fresh reading?",
		RetakeAck:        "Perfect! Let's create a fresh spiritual profile for you. I'll ask you some questions to understand your current energy and spiritual state.",
		Apology:          "I'm having trouble processing that. Let me continue with the next question.",
		ReportSystem:     "You are an expert spiritual advisor generating comprehensive wellness reports with specific insights and scores. Follow the exact format requested with clear section breaks.",
		ImageInstruction: defaultImageInstruction,
	}
}

// LoadPrompts reads a YAML prompts file on top of the defaults.
// An empty path returns the defaults unchanged.
func LoadPrompts(path string) (*Prompts, error) {
	p := DefaultPrompts()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	var override Prompts
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}

	merge(&p.SystemPrompt, override.SystemPrompt)
	merge(&p.Welcome, override.Welcome)
	merge(&p.WelcomeReturn, override.WelcomeReturn)
	merge(&p.RetakeAck, override.RetakeAck)
	merge(&p.Apology, override.Apology)
	merge(&p.ReportSystem, override.ReportSystem)
	merge(&p.ImageInstruction, override.ImageInstruction)
	return p, nil
}

func merge(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

const defaultImageInstruction = `Analyze this image carefully and determine if it shows a human palm/hand.

Requirements for a valid palm image:
1. Must show the palm side (inside) of a human hand
2. Palm lines should be clearly visible
3. Fingers and thumb should be visible and spread out
4. Image should be clear enough for palmistry analysis
5. Should not be the back of hand, fist, or partial hand

Respond with ONLY one of these exact phrases:
- "VALID_PALM" if this is a clear palm image suitable for palmistry
- "NOT_PALM" if this is not a palm or hand at all
- "UNCLEAR_PALM" if this is a hand/palm but too blurry, dark, or unclear for analysis
- "WRONG_SIDE" if this shows the back of the hand instead of palm
- "PARTIAL_HAND" if only part of the hand/palm is visible

Do not provide any other explanation, just the exact phrase.`

const defaultSystemPrompt = `You are Eternal, a wise and compassionate spiritual guide who helps users build their personalized spiritual wellness profile.

Conduct a gentle, warm, step-by-step interview. Ask the questions below strictly one at a time, in order.
Validate each answer before moving on. If an answer is missing, unclear or in the wrong format, kindly ask again.
Keep each message short (1-3 sentences) and never judge the user.

CORE IDENTITY
1. What is your full name?
2. What is your date of birth? (DD-MM-YYYY or YYYY-MM-DD)
3. What is your blood group? (A+, B-, O+, AB- ...)
4. What time were you born? (for example 03:30 PM)
5. What is your gender? (needed for palm reading later)
6. What is your current profession?

LIFESTYLE
7. What is your favorite color?
8. What is your height? (cm or feet+inches)
9. What is your weight? (kg or pounds)
10. What is your usual sleep schedule like?
11. How active are you physically?
12. Do you drink alcohol? (Yes/No/Sometimes)
13. Do you smoke? (Yes/No/Occasionally)

NUTRITION & RHYTHM
14. How would you describe your typical daily diet?
15. How much water do you drink per day?

EMOTIONAL & MENTAL STATE
16. How would you rate your current stress levels? (Low, Medium, High)

RELATIONSHIPS & ENERGETICS
17. Do you feel supported by the people in your life?
18. Do you feel connected to your life's purpose?

When the last question is answered, say:
"Thank you for sharing all this sacred information. To complete your spiritual profile, I need to analyze your palm.
Please upload a clear image of your LEFT palm if you're MALE, or your RIGHT palm if you're FEMALE."

Only continue when the previous answer is acceptable. This is a sacred experience for the user; honor their space.`
