// Package gemini generates ledger insights with the Google Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"wealthwise/internal/core"
	"wealthwise/internal/insight"
)

const (
	DefaultModel      = "gemini-1.5-flash"
	systemInstruction = "You are a helpful and concise financial advisor who provides personalized insights based on spending data."
	temperature       = 0.7
)

var _ insight.Service = (*Client)(nil)

type Client struct {
	client *genai.Client
	model  string
}

// New opens a Gemini client. Call Close when done.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, insight.ErrNotConfigured
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Generate asks the model for three short bullet points about txs.
func (c *Client) Generate(ctx context.Context, txs []core.Transaction) (string, error) {
	prompt, err := BuildPrompt(txs)
	if err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(temperature)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return ResponseText(resp), nil
}

type promptEntry struct {
	Type     core.TransactionType `json:"type"`
	Amount   json.Number          `json:"amount"`
	Category core.Category        `json:"category"`
	Date     string               `json:"date"`
}

// BuildPrompt serialises the generator inputs of every transaction.
func BuildPrompt(txs []core.Transaction) (string, error) {
	if len(txs) == 0 {
		return "", errors.New("no transactions to analyse")
	}
	entries := make([]promptEntry, len(txs))
	for i, tx := range txs {
		entries[i] = promptEntry{
			Type:     tx.Type,
			Amount:   json.Number(tx.Amount.String()),
			Category: tx.Category,
			Date:     tx.Date.Format(time.DateOnly),
		}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode prompt data: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Act as a professional financial advisor. Analyze the following user transaction data:\n")
	sb.Write(data)
	sb.WriteString("\n\nProvide 3 concise, actionable bullet points of financial advice or insights.\n")
	sb.WriteString("Focus on spending habits, potential savings, or category-specific observations.\n")
	sb.WriteString("Keep it encouraging and brief (max 100 words total).\n")
	sb.WriteString("Do not use complex formatting, just bullet points.\n")
	return sb.String(), nil
}

// ResponseText joins the text parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}
