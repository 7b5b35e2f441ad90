package report

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/sashabaranov/go-openai"
)

// Narrator produces a short written assessment of a finished run.
type Narrator struct {
	client *openai.Client
	model  string
}

// NewNarrator builds a Narrator from OPENAI_API_KEY / OPENAI_MODEL.
// Returns nil (not an error) when no key is configured; reports then simply
// omit the commentary section.
func NewNarrator() *Narrator {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	log.Printf("[Report] Narrator enabled (model=%s)", model)
	return &Narrator{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Commentary asks the model for a few paragraphs on the run. The prompt only
// contains aggregates, never raw account data.
func (n *Narrator) Commentary(ctx context.Context, r RunReport) (string, error) {
	if n == nil {
		return "", nil
	}

	prompt := fmt.Sprintf(
		"Write a brief, factual assessment (at most three short paragraphs) of this backtest.\n"+
			"Symbol: %s\nStrategy: %s\nPeriod: %s to %s\n"+
			"Total return: %.2f%%\nCAGR: %.2f%%\nAnnualized vol: %.2f%%\nSharpe: %.2f\n"+
			"Max drawdown: %.2f%%\nTrades: %d\nHit rate: %s\n"+
			"Comment on risk-adjusted performance and drawdown behavior. Do not give investment advice.",
		r.Symbol, r.Strategy,
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"),
		r.Summary.TotalReturn*100, r.Summary.CAGR*100, r.Summary.AnnVol*100, r.Summary.Sharpe,
		r.Summary.MaxDrawdown*100, r.Summary.NumTrades, r.Summary.HitRate,
	)

	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: n.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a quantitative analyst reviewing backtest results."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		log.Printf("[Report] Commentary request failed: %v", err)
		return "", fmt.Errorf("commentary request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("commentary response had no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
