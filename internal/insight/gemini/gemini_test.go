package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"

	"wealthwise/internal/core"
	"wealthwise/internal/insight"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), "", ""); !errors.Is(err, insight.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	txs := []core.Transaction{{
		ID:          "secret-id",
		Amount:      decimal.RequireFromString("12.5"),
		Category:    core.DiningOut,
		Type:        core.Expense,
		Description: "private note",
		Date:        time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC),
	}}
	prompt, err := BuildPrompt(txs)
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"type":"expense","amount":12.5,"category":"Dining Out","date":"2025-03-14"}]`
	if !strings.Contains(prompt, want) {
		t.Fatalf("prompt missing data %s:\n%s", want, prompt)
	}
	for _, leaked := range []string{"secret-id", "private note"} {
		if strings.Contains(prompt, leaked) {
			t.Fatalf("prompt leaks %q", leaked)
		}
	}
	if _, err := BuildPrompt(nil); err == nil {
		t.Fatal("expected error for empty snapshot")
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{"nil", nil, ""},
		{"no candidates", &genai.GenerateContentResponse{}, ""},
		{"nil content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}, ""},
		{
			"joined parts",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text("- Save more\n"), genai.Text("- Cook at home ")}},
			}}},
			"- Save more\n- Cook at home",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResponseText(tt.resp); got != tt.want {
				t.Errorf("ResponseText() = %q, want %q", got, tt.want)
			}
		})
	}
}
