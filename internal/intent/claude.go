package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// ClaudeExtractor implements Extractor against the Claude Messages API.
type ClaudeExtractor struct {
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// NewClaudeExtractor creates an extractor with the given configuration.
func NewClaudeExtractor(apiKey, modelName string, maxTokens int) *ClaudeExtractor {
	if modelName == "" {
		modelName = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &ClaudeExtractor{
		apiKey:    apiKey,
		model:     modelName,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Extract sends one message with its context to the API and decodes
// the constrained JSON reply. A transport failure is returned as an
// error; a malformed or off-script reply decodes to IntentNone.
func (e *ClaudeExtractor) Extract(ctx context.Context, req Request) (*Result, error) {
	resp, err := e.callAPI(ctx, req)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return ParseResult(text.String()), nil
}

// callAPI makes a single request to the Claude Messages API.
func (e *ClaudeExtractor) callAPI(ctx context.Context, req Request) (*apiResponse, error) {
	reqBody := apiRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System:    buildSystemPrompt(req),
		Messages:  buildAPIMessages(req),
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, apiURL, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", e.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// buildAPIMessages converts the bounded history plus the new message
// into the Claude API message format.
func buildAPIMessages(req Request) []apiMessage {
	history := req.History
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	messages := make([]apiMessage, 0, len(history)+1)
	for _, turn := range history {
		role := turn.Role
		if role != "assistant" {
			role = "user"
		}
		messages = append(messages, apiMessage{
			Role:    role,
			Content: []apiContentBlock{{Type: "text", Text: turn.Content}},
		})
	}
	messages = append(messages, apiMessage{
		Role:    "user",
		Content: []apiContentBlock{{Type: "text", Text: req.Message}},
	})
	return messages
}

// ParseResult decodes the model's reply into a typed Result. This is a
// strict decode-or-fail step: any output that is not a single valid
// JSON object with recognized values collapses to IntentNone.
func ParseResult(text string) *Result {
	trimmed := strings.TrimSpace(text)

	// Tolerate a fenced code block around the object, nothing more.
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if !strings.HasPrefix(trimmed, "{") {
		return None()
	}

	var r Result
	dec := json.NewDecoder(strings.NewReader(trimmed))
	if err := dec.Decode(&r); err != nil {
		return None()
	}

	switch r.Intent {
	case IntentTask, IntentProject, IntentRoutine:
	default:
		return None()
	}

	switch r.Action {
	case "create", "update", "delete", "complete", "apply_routine", "bulk_delete":
	default:
		return None()
	}

	return &r
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
