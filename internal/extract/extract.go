// Package extract turns unstructured fund factsheet text into holdings with
// the help of an LLM.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/llm"
)

// maxInputChars bounds the page text sent to the model
const maxInputChars = 24000

const systemPrompt = `You extract fund portfolio holdings from web page text.
Return JSON: {"as_of_date": "YYYY-MM-DD or empty", "total_holdings": integer or 0,
"holdings": [{"name": string, "symbol": string, "isin": string, "weight": number}]}.
weight is a percentage of net assets between 0 and 100. Only include holdings that
appear in the text. If the text contains no holdings return an empty list.`

// Extractor asks an LLM to read holdings out of text
type Extractor struct {
	provider llm.Provider
}

// New creates an extractor backed by provider
func New(provider llm.Provider) *Extractor {
	return &Extractor{provider: provider}
}

// Result is the structured output of an extraction
type Result struct {
	AsOfDate      string
	TotalHoldings int
	Holdings      []core.Holding
}

type response struct {
	AsOfDate      string `json:"as_of_date"`
	TotalHoldings int    `json:"total_holdings"`
	Holdings      []struct {
		Name   string  `json:"name"`
		Symbol string  `json:"symbol"`
		ISIN   string  `json:"isin"`
		Weight float64 `json:"weight"`
	} `json:"holdings"`
}

// Holdings extracts the holdings of fund from page text
func (e *Extractor) Holdings(ctx context.Context, fund core.FundMetadata, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &Result{}, nil
	}
	text = truncate(text, maxInputChars)

	prompt := fmt.Sprintf("Fund: %s (%s)\n\nPage text:\n%s", fund.Name, fund.Symbol, text)
	resp, err := e.provider.Complete(ctx, llm.Request{
		System: systemPrompt,
		Prompt: prompt,
		JSON:   true,
	})
	if err != nil {
		return nil, core.WrapError(core.ErrLLMFailed, err)
	}

	return parse(resp.Text)
}

func parse(text string) (*Result, error) {
	text = stripFence(text)

	var r response
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, core.WrapError(core.ErrLLMFailed, fmt.Errorf("decoding extraction: %w", err))
	}

	out := &Result{
		AsOfDate:      r.AsOfDate,
		TotalHoldings: r.TotalHoldings,
		Holdings:      make([]core.Holding, 0, len(r.Holdings)),
	}
	for _, h := range r.Holdings {
		name := strings.TrimSpace(h.Name)
		if name == "" || h.Weight < 0 || h.Weight > 100 {
			continue
		}
		out.Holdings = append(out.Holdings, core.Holding{
			Name:   name,
			Symbol: strings.TrimSpace(h.Symbol),
			ISIN:   strings.TrimSpace(h.ISIN),
			Weight: h.Weight,
		})
	}
	return out, nil
}

// stripFence removes a surrounding ``` code fence if the model added one
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
