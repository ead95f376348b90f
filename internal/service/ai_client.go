package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"eternal/internal/config"
	"eternal/internal/model"
)

// ErrAIDisabled is returned when no API key is configured and there is no local stand-in
var ErrAIDisabled = errors.New("ai capability is not configured")

// AIClient talks to an OpenAI-compatible chat completions endpoint.
// It serves as TextGenerator and ImageClassifier.
type AIClient struct {
	config       *config.AIConfig
	reportSystem string
	client       *http.Client
}

// NewAIClient creates a client for the configured endpoint
func NewAIClient(cfg *config.AIConfig, prompts *config.Prompts) *AIClient {
	if prompts == nil {
		prompts = config.DefaultPrompts()
	}
	return &AIClient{
		config:       cfg,
		reportSystem: prompts.ReportSystem,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

// chatMessage content is either a string or a list of typed parts
type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// Generate continues the interview. Without an API key the scripted
// interviewer answers instead.
func (c *AIClient) Generate(ctx context.Context, systemPrompt string, history []model.Message) (string, error) {
	if !c.config.IsEnabled() {
		return mockInterviewReply(history), nil
	}

	messages := make([]chatMessage, 0, len(history)+1)
	messages = append(messages, chatMessage{Role: string(model.RoleSystem), Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	return c.callChat(ctx, c.config.Models.Chat, messages, c.config.ChatMaxTokens)
}

// SynthesizeReport asks for the nine-section report text
func (c *AIClient) SynthesizeReport(ctx context.Context, answers []string, imageValidated bool, gender model.Gender) (string, error) {
	if !c.config.IsEnabled() {
		return "", ErrAIDisabled
	}
	messages := []chatMessage{
		{Role: string(model.RoleSystem), Content: c.reportSystem},
		{Role: string(model.RoleUser), Content: buildReportPrompt(answers, imageValidated, gender)},
	}
	return c.callChat(ctx, c.config.Models.Report, messages, c.config.ReportMaxTokens)
}

// Classify sends the image with the instruction to the vision model.
// Without an API key only the content type is checked.
func (c *AIClient) Classify(ctx context.Context, image []byte, contentType, instruction string) (string, error) {
	if !c.config.IsEnabled() {
		return mockClassify(image, contentType), nil
	}
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(image))
	messages := []chatMessage{{
		Role: string(model.RoleUser),
		Content: []contentPart{
			{Type: "text", Text: instruction},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
		},
	}}
	return c.callChat(ctx, c.config.Models.Vision, messages, 20)
}

// callChat makes a request to the chat completions API
func (c *AIClient) callChat(ctx context.Context, modelName string, messages []chatMessage, maxTokens int) (string, error) {
	reqBody := map[string]interface{}{
		"model":       modelName,
		"messages":    messages,
		"temperature": c.config.Temperature,
		"max_tokens":  maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.Endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[AI] %s returned %d", modelName, resp.StatusCode)
		return "", fmt.Errorf("chat completions returned status %d", resp.StatusCode)
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", err
	}

	if len(chatResp.Choices) > 0 {
		return chatResp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("empty response from chat completions")
}

func buildReportPrompt(answers []string, imageValidated bool, gender model.Gender) string {
	palmInstruction := "[Explain that a detailed palm reading requires an uploaded palm image and describe what the life, heart, head and fate lines and the mounts would reveal. Mention the correct hand: left for males, right for females. Use Score: 0/100]"
	if imageValidated {
		palmInstruction = "[Provide a detailed palm reading of the uploaded palm: life line, heart line, head line, fate line and mounts, with their meanings]"
	}
	if side, ok := PalmSide(gender); ok && !imageValidated {
		palmInstruction = fmt.Sprintf("[Explain that a detailed palm reading requires an uploaded image of the %s palm and describe what the life, heart, head and fate lines and the mounts would reveal. Use Score: 0/100]", side)
	}
	imageProvided := "No"
	if imageValidated {
		imageProvided = "Yes"
	}

	return fmt.Sprintf(`You are an expert spiritual advisor and wellness coach. Based on the following answers from a spiritual assessment, write a report with exactly these 9 sections. Each section has 2-3 specific sentences and a score from 60-100.

User responses: %s
Palm image provided: %s

Use this EXACT format:

NUMEROLOGY WITH DATE OF BIRTH
[Life Path, Expression and Soul Urge numbers from any dates in the answers]
Score: [X]/100

ETERNAL ARCHETYPE PROFILE
[Spiritual personality type such as Healer, Mystic, Teacher, Guardian or Seeker, with gifts]
Score: [X]/100

VIBRATIONAL FREQUENCY DASHBOARD
[Current energetic frequency, with Hz values such as 432Hz or 528Hz]
Score: [X]/100

AURA AND CHAKRA HEALTH
[Aura colors and chakra balance or blockages]
Score: [X]/100

RELATIONSHIP RESONANCE MAP
[How they connect with others and exchange energy]
Score: [X]/100

MENTAL EMOTIONAL HEALTH
[Emotional patterns, mental clarity and stress]
Score: [X]/100

SPIRITUAL ALIGNMENT SCORE
[Connection to higher self, practices and life purpose]
Score: [X]/100

PALM READINGS
%s
Score: [X]/100

HEALTH INSIGHTS
[Holistic physical, mental, emotional and spiritual guidance]
Score: [X]/100

Be specific and personal while staying practical. Use the user's actual answers.`,
		strings.Join(answers, " | "), imageProvided, palmInstruction)
}

// mockClassify accepts anything that sniffs as an image
func mockClassify(image []byte, contentType string) string {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(image)
	}
	if strings.HasPrefix(contentType, "image/") {
		return model.TokenValidPalm
	}
	return model.TokenNotPalm
}
