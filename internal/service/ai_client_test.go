package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eternal/internal/config"
	"eternal/internal/model"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	MaxTokens int `json:"max_tokens"`
}

func newChatServer(t *testing.T, status int, reply string, seen *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testAIConfig(endpoint string) *config.AIConfig {
	return &config.AIConfig{
		APIKey:          "test-key",
		Endpoint:        endpoint,
		Models:          config.AIModels{Chat: "chat-model", Report: "report-model", Vision: "vision-model"},
		TimeoutMS:       2000,
		ChatMaxTokens:   500,
		ReportMaxTokens: 3000,
		Temperature:     0.7,
	}
}

func TestAIClient_Generate(t *testing.T) {
	var seen capturedRequest
	srv := newChatServer(t, http.StatusOK, "What is your full name?", &seen)
	client := NewAIClient(testAIConfig(srv.URL), nil)

	history := []model.Message{
		{Role: model.RoleAssistant, Content: "Welcome"},
		{Role: model.RoleUser, Content: "ready"},
	}
	reply, err := client.Generate(context.Background(), "system prompt", history)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reply != "What is your full name?" {
		t.Errorf("reply = %q", reply)
	}
	if seen.Model != "chat-model" || seen.MaxTokens != 500 {
		t.Errorf("request = %+v", seen)
	}
	if len(seen.Messages) != 3 || seen.Messages[0].Role != "system" || seen.Messages[2].Role != "user" {
		t.Errorf("messages = %+v", seen.Messages)
	}
}

func TestAIClient_HTTPErrorSurfaces(t *testing.T) {
	srv := newChatServer(t, http.StatusTooManyRequests, "", nil)
	client := NewAIClient(testAIConfig(srv.URL), nil)

	if _, err := client.Generate(context.Background(), "p", nil); err == nil {
		t.Error("expected an error for a 429 response")
	}
}

func TestAIClient_SynthesizeReportPrompt(t *testing.T) {
	var seen capturedRequest
	srv := newChatServer(t, http.StatusOK, fullGeneratedReport, &seen)
	client := NewAIClient(testAIConfig(srv.URL), nil)

	text, err := client.SynthesizeReport(context.Background(), []string{"I am male", "born 24/03/2003"}, false, model.GenderMale)
	if err != nil {
		t.Fatalf("SynthesizeReport: %v", err)
	}
	if text != fullGeneratedReport {
		t.Error("report text not returned verbatim")
	}
	if seen.Model != "report-model" || seen.MaxTokens != 3000 {
		t.Errorf("request = %+v", seen)
	}
	var prompt string
	json.Unmarshal(seen.Messages[1].Content, &prompt)
	for _, want := range []string{"I am male | born 24/03/2003", "left palm", "Score: 0/100", string(model.SectionHealth)} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAIClient_ClassifySendsDataURI(t *testing.T) {
	var seen capturedRequest
	srv := newChatServer(t, http.StatusOK, "VALID_PALM", &seen)
	client := NewAIClient(testAIConfig(srv.URL), nil)

	token, err := client.Classify(context.Background(), testImage, "image/jpeg", "instruction")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if token != "VALID_PALM" || seen.Model != "vision-model" {
		t.Errorf("token = %q, model = %q", token, seen.Model)
	}
	var parts []contentPart
	if err := json.Unmarshal(seen.Messages[0].Content, &parts); err != nil {
		t.Fatalf("content is not a part list: %v", err)
	}
	if len(parts) != 2 || parts[1].ImageURL == nil || !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/jpeg;base64,") {
		t.Errorf("parts = %+v", parts)
	}
}

func TestAIClient_Disabled(t *testing.T) {
	client := NewAIClient(&config.AIConfig{TimeoutMS: 1000}, nil)

	if _, err := client.SynthesizeReport(context.Background(), nil, false, model.GenderUnknown); !errors.Is(err, ErrAIDisabled) {
		t.Errorf("SynthesizeReport err = %v, want ErrAIDisabled", err)
	}
	reply, err := client.Generate(context.Background(), "p", []model.Message{{Role: model.RoleUser, Content: "ready"}})
	if err != nil || !strings.Contains(reply, interviewQuestions[0]) {
		t.Errorf("Generate = %q, %v", reply, err)
	}

	png := []byte("\x89PNG\r\n\x1a\n0000")
	if got, _ := client.Classify(context.Background(), png, "", "i"); got != model.TokenValidPalm {
		t.Errorf("png classified as %q", got)
	}
	if got, _ := client.Classify(context.Background(), []byte("plain text"), "text/plain", "i"); got != model.TokenNotPalm {
		t.Errorf("text classified as %q", got)
	}
}

func TestMockInterviewReply(t *testing.T) {
	var history []model.Message
	for i := 0; i < len(interviewQuestions); i++ {
		history = append(history, model.Message{Role: model.RoleUser, Content: "answer"})
		reply := mockInterviewReply(history)
		if !strings.Contains(reply, interviewQuestions[i]) {
			t.Fatalf("reply %d = %q, want question %q", i, reply, interviewQuestions[i])
		}
		if RequestsImage(reply) || OffersReport(reply) {
			t.Fatalf("question %d triggers a phase change: %q", i, reply)
		}
	}

	history = append(history, model.Message{Role: model.RoleUser, Content: "I am a woman"})
	final := mockInterviewReply(history)
	if !RequestsImage(final) || !strings.Contains(final, "right palm") {
		t.Errorf("final reply = %q", final)
	}
}
