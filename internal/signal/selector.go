// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package signal turns a rendered environment scan into sellable Signals via
// the language model, with a deterministic fallback when the model is
// unavailable.
package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

// Completer abstracts the language-model backend so tests can supply a mock.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const systemPrompt = `You are SealForge, an autonomous crypto intelligence agent operating on Sui blockchain. You analyze raw market data to identify actionable trading/DeFi signals worth paying for.`

// identifyPromptTmpl asks the model for the two most valuable opportunities
// in strict JSON.
var identifyPromptTmpl = template.Must(template.New("identify").Parse(`Here is your environment scan from {{.Now}}:

{{.Scan}}

{{if .Topic}}FOCUS HINT: The operator wants you to focus on "{{.Topic}}".

{{end}}Your task: Identify the TWO most valuable intelligence opportunities from this data.
- One should be Sui/DeFi ecosystem focused.
- One should be about a broader crypto/market trending topic.

For EACH opportunity, provide:
1. title: A specific, compelling title (not generic like "Sui DeFi Report")
2. description: One sentence value proposition — WHY someone would pay for this
3. theme: One of "blue-data", "red-alert", "green-money", "purple-deep", "orange-hot"
4. confidence: 50-95 (how confident you are this will attract buyers)
5. category: "DeFi" | "Market Structure" | "Protocol Update" | "Risk Alert" | "Alpha" | "Technical"
6. price_sui: {{.MinPrice}} to {{.MaxPrice}} SUI (based on urgency and uniqueness)
7. hunt_queries: 3-5 specific data URLs or search terms to go deeper

IMPORTANT: Return ONLY valid JSON, no markdown code blocks. Format:
{"opportunities": [{"title": "...", "description": "...", "theme": "green-money", "confidence": 82, "category": "DeFi", "price_sui": 0.5, "hunt_queries": ["https://api.llama.fi/protocol/cetus", "sui defi tvl rotation"]}, {...}]}`))

// Selector picks 1-2 Signals from a rendered scan.
type Selector struct {
	LLM      Completer
	Cfg      types.SelectorConfig
	Progress io.Writer
}

// New builds a Selector writing progress to w.
func New(llm Completer, cfg types.SelectorConfig, w io.Writer) *Selector {
	if w == nil {
		w = io.Discard
	}
	return &Selector{LLM: llm, Cfg: cfg, Progress: w}
}

// rawSignal is the loosely-typed model response before validation.
type rawSignal struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Theme       string   `json:"theme"`
	Confidence  float64  `json:"confidence"`
	Category    string   `json:"category"`
	PriceSUI    float64  `json:"price_sui"`
	HuntQueries []string `json:"hunt_queries"`
}

// Identify asks the model for signals and validates every field, falling
// back to the deterministic templates on any failure. It never returns an
// empty slice; usedFallback reports which path produced the result.
func (s *Selector) Identify(ctx context.Context, scanText, topicHint string, now time.Time) (signals []types.Signal, usedFallback bool) {
	raw, err := s.identify(ctx, scanText, topicHint, now)
	if err != nil || len(raw) == 0 {
		if err == nil {
			err = fmt.Errorf("model returned no opportunities")
		}
		fmt.Fprintf(s.Progress, "warning: signal selection failed, using fallback: %v\n", err)
		return Fallback(scanText), true
	}

	for _, r := range raw {
		signals = append(signals, s.validate(r))
	}
	for _, sig := range signals {
		fmt.Fprintf(s.Progress, "signal: %q | %s | confidence %d%% | %.2f SUI\n",
			sig.Title, sig.Theme, sig.Confidence, sig.PriceSUI)
	}
	return signals, false
}

func (s *Selector) identify(ctx context.Context, scanText, topicHint string, now time.Time) ([]rawSignal, error) {
	var buf bytes.Buffer
	err := identifyPromptTmpl.Execute(&buf, struct {
		Now, Scan, Topic   string
		MinPrice, MaxPrice float64
	}{
		Now:      types.Timestamp(now),
		Scan:     scanText,
		Topic:    topicHint,
		MinPrice: s.minPrice(),
		MaxPrice: s.maxPrice(),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	resp, err := s.LLM.Complete(ctx, systemPrompt, buf.String())
	if err != nil {
		return nil, err
	}

	obj, err := ExtractJSONObject(resp)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Opportunities []rawSignal `json:"opportunities"`
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return nil, fmt.Errorf("parsing model response: %w", err)
	}
	return parsed.Opportunities, nil
}

// validate clamps and defaults every model-supplied field.
func (s *Selector) validate(r rawSignal) types.Signal {
	sig := types.Signal{
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		Theme:       types.ParseTheme(r.Theme),
		Confidence:  clampInt(int(r.Confidence), 50, 95, 70),
		Category:    strings.TrimSpace(r.Category),
		PriceSUI:    clampFloat(r.PriceSUI, s.minPrice(), s.maxPrice(), 0.25),
		HuntQueries: r.HuntQueries,
	}
	if sig.Title == "" {
		sig.Title = "Untitled Signal"
	}
	if sig.Description == "" {
		sig.Description = "AI-generated intelligence report."
	}
	if sig.Category == "" {
		sig.Category = "DeFi"
	}
	max := s.Cfg.MaxHuntQueries
	if max <= 0 {
		max = 5
	}
	if len(sig.HuntQueries) > max {
		sig.HuntQueries = sig.HuntQueries[:max]
	}
	return sig
}

func (s *Selector) minPrice() float64 {
	if s.Cfg.MinPriceSUI > 0 {
		return s.Cfg.MinPriceSUI
	}
	return 0.1
}

func (s *Selector) maxPrice() float64 {
	if s.Cfg.MaxPriceSUI > 0 {
		return s.Cfg.MaxPriceSUI
	}
	return 2.0
}

// Fallback derives two template signals from simple heuristics over the scan
// text. It is the pipeline's last line of defense and always succeeds.
func Fallback(scanText string) []types.Signal {
	tvlDrop := strings.Contains(scanText, "TVL") && strings.Contains(scanText, "-")

	first := types.Signal{
		Title:       "Sui DeFi Ecosystem — State of Play",
		Description: "Comprehensive analysis of the top Sui DeFi protocols, yield opportunities, and market position.",
		Theme:       types.ThemeBlueData,
		Confidence:  75,
		Category:    "DeFi",
		PriceSUI:    0.25,
		HuntQueries: []string{
			"https://api.llama.fi/protocol/cetus",
			"https://api.llama.fi/protocol/navi-protocol",
		},
	}
	if tvlDrop {
		first.Title = "Sui DeFi Capital Rotation Alert"
		first.Description = "Capital movement detected across Sui protocols. Where the money is flowing and what to do."
		first.Theme = types.ThemeRedAlert
	}

	second := types.Signal{
		Title:       "Trending Crypto Momentum Scanner — What the Market Is Watching",
		Description: "The coins gaining attention right now, why they matter, and how to position.",
		Theme:       types.ThemeOrangeHot,
		Confidence:  70,
		Category:    "Market Structure",
		PriceSUI:    0.15,
		HuntQueries: []string{"crypto trending coins analysis", "bitcoin market sentiment"},
	}

	return []types.Signal{first, second}
}

func clampInt(v, min, max, def int) int {
	if v == 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat(v, min, max, def float64) float64 {
	if v == 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
