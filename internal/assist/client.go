// Package assist is the client for the external chat-completion endpoint. It
// builds the StudyAI prompt from group context and degrades every failure
// into a readable fallback message; callers never see an error.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/domain"
)

// ContextMessages caps how many recent messages feed the prompt.
const ContextMessages = 20

type Client struct {
	url    string
	model  string
	apiKey string
	httpc  *http.Client
}

func NewClient(url, model, apiKey string) *Client {
	return &Client{
		url:    url,
		model:  model,
		apiKey: apiKey,
		httpc:  &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SystemPrompt renders the instruction block: role, recent messages and the
// shared file listing, ending with the user's request.
func SystemPrompt(prompt, requestType string, msgs []domain.Message, files []domain.FileAsset) string {
	if requestType == "" {
		requestType = "helpful information"
	}
	if len(msgs) > ContextMessages {
		msgs = msgs[:ContextMessages]
	}

	var history []string
	for _, m := range msgs {
		history = append(history, fmt.Sprintf("%s: %s", m.SenderID, m.Content))
	}
	historyBlock := "No messages yet."
	if len(history) > 0 {
		historyBlock = "---\n" + strings.Join(history, "\n") + "\n---"
	}

	var fileLines []string
	for _, f := range files {
		kind := f.MimeType
		if kind == "" {
			kind = "unknown type"
		}
		fileLines = append(fileLines, fmt.Sprintf("File: %s (%s)", f.Name, kind))
	}
	filesBlock := "No files shared yet."
	if len(fileLines) > 0 {
		filesBlock = strings.Join(fileLines, "\n")
	}

	return fmt.Sprintf(`You are StudyAI, an AI assistant for a study group.
Your task is to help students learn by providing %s.

CONTEXT:
The study group has the following recent messages:
%s

The study group has shared these files:
%s

Based on this context, %s`, requestType, historyBlock, filesBlock, prompt)
}

// GenerateResponse asks the completion endpoint and returns the answer, or a
// fallback string embedding the underlying error.
func (c *Client) GenerateResponse(ctx context.Context, prompt, requestType string, msgs []domain.Message, files []domain.FileAsset) string {
	reqBody := completionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(prompt, requestType, msgs, files)},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   1024,
	}

	answer, err := c.complete(ctx, reqBody)
	if err != nil {
		log.Error().Err(err).Str("module", "assist").Msg("completion failed")
		return fmt.Sprintf("Sorry, I couldn't generate a response. %s", err.Error())
	}
	return answer
}

func (c *Client) complete(ctx context.Context, body completionRequest) (string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "failed to generate AI response"
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("%w: %s", domain.ErrUpstream, msg)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", domain.ErrUpstream)
	}
	return out.Choices[0].Message.Content, nil
}
