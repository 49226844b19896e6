// Package ai wraps the Anthropic messages API for transcript analysis.
package ai

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
	anthropicBaseURL = "https://api.anthropic.com/v1/messages"
	anthropicModel   = "claude-3-5-sonnet-20241022"
	anthropicVersion = "2023-06-01"
)

// TranscriptMessage is one turn of an assistant conversation
type TranscriptMessage struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// ExtractedPaymentInfo holds structured payment details found in a transcript.
// Fields are nil when the conversation did not mention them.
type ExtractedPaymentInfo struct {
	Amount        *string `json:"amount"`
	CustomerEmail *string `json:"customerEmail"`
	CustomerName  *string `json:"customerName"`
}

// Client calls the Anthropic messages API
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates an Anthropic client
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: anthropicBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type messagesRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	Messages  []requestMessage `json:"messages"`
}

type requestMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractPaymentInfo asks the model for payment amount, customer email and
// customer name mentioned in the transcript. Missing fields come back nil.
func (c *Client) ExtractPaymentInfo(ctx context.Context, transcript []TranscriptMessage) (*ExtractedPaymentInfo, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is not configured")
	}

	var conversation strings.Builder
	for i, msg := range transcript {
		if i > 0 {
			conversation.WriteString("\n\n")
		}
		speaker := "Customer"
		if msg.Role == "agent" {
			speaker = "Agent"
		}
		conversation.WriteString(speaker + ": " + msg.Message)
	}

	prompt := `Analyze the following conversation transcript and extract payment information if mentioned.

Extract:
1. Payment amount - any dollar amount or payment figure mentioned (convert to numeric string format, e.g., "500.00" for $500)
2. Customer email - any email address mentioned by the customer
3. Customer name - the customer's full name if mentioned

Respond with a JSON object only, no other text, with keys "amount", "customerEmail" and "customerName". Use null for any field not mentioned in the conversation.

Conversation transcript:
` + conversation.String()

	reqBody, err := json.Marshal(messagesRequest{
		Model:     anthropicModel,
		MaxTokens: 256,
		Messages:  []requestMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse anthropic response: %w", err)
	}
	if resp.StatusCode >= 400 {
		msg := "unknown error"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, fmt.Errorf("anthropic request failed: status=%d message=%s", resp.StatusCode, msg)
	}
	if len(parsed.Content) == 0 {
		return nil, fmt.Errorf("anthropic response has no content")
	}

	return parseExtraction(parsed.Content[0].Text)
}

// parseExtraction decodes the model's JSON answer, tolerating surrounding
// prose or markdown fences.
func parseExtraction(text string) (*ExtractedPaymentInfo, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var info ExtractedPaymentInfo
	if err := json.Unmarshal([]byte(text[start:end+1]), &info); err != nil {
		return nil, fmt.Errorf("failed to decode extraction: %w", err)
	}
	return &info, nil
}
