// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model and per-stage configuration
// for the SealForge pipeline.
package types

import "time"

// PayloadVersion is the current IntelligencePayload schema version.
const PayloadVersion = "1.0"

// VisualTheme selects the buyer-facing presentation theme for a listing.
type VisualTheme string

const (
	ThemeBlueData   VisualTheme = "blue-data"
	ThemeRedAlert   VisualTheme = "red-alert"
	ThemeGreenMoney VisualTheme = "green-money"
	ThemePurpleDeep VisualTheme = "purple-deep"
	ThemeOrangeHot  VisualTheme = "orange-hot"
)

// DefaultTheme is used when a model returns an unknown theme value.
const DefaultTheme = ThemeBlueData

// ParseTheme returns s as a VisualTheme if it is one of the five known
// values, or DefaultTheme otherwise.
func ParseTheme(s string) VisualTheme {
	switch VisualTheme(s) {
	case ThemeBlueData, ThemeRedAlert, ThemeGreenMoney, ThemePurpleDeep, ThemeOrangeHot:
		return VisualTheme(s)
	}
	return DefaultTheme
}

// Signal is one intelligence opportunity identified from a scan. A Signal is
// immutable once created; each Signal yields exactly one listing.
type Signal struct {
	// Title is a specific, compelling listing title.
	Title string `json:"title"`

	// Description is a one-sentence value proposition.
	Description string `json:"description"`

	// Theme is the presentation theme, one of the five VisualTheme values.
	Theme VisualTheme `json:"theme"`

	// Confidence is in [50,95] after clamping.
	Confidence int `json:"confidence"`

	// Category labels the signal (e.g. "DeFi", "Market Structure").
	Category string `json:"category"`

	// PriceSUI is the listing price in SUI, clamped to the configured range.
	PriceSUI float64 `json:"price_sui"`

	// HuntQueries are follow-up URLs or search topics, at most five.
	HuntQueries []string `json:"hunt_queries"`
}

// SourceKind classifies a hunted source.
type SourceKind string

const (
	SourceAPI SourceKind = "api"
	SourceRSS SourceKind = "rss"
	SourceWeb SourceKind = "web"
)

// HuntedSource is one piece of supporting material collected by the Hunter.
// Title, URL and Kind are carried verbatim into the payload for buyer-facing
// provenance; Content is a truncated snippet used only during reasoning.
type HuntedSource struct {
	Title   string     `json:"title"`
	URL     string     `json:"url"`
	Content string     `json:"content"`
	Kind    SourceKind `json:"type"`
}

// ActionType classifies a suggested-action button in the payload.
type ActionType string

const (
	ActionDeFi     ActionType = "defi"
	ActionResearch ActionType = "research"
	ActionTrade    ActionType = "trade"
	ActionTrack    ActionType = "track"
	ActionExternal ActionType = "external"
)

// ParseActionType returns s as an ActionType if known, ActionExternal otherwise.
func ParseActionType(s string) ActionType {
	switch ActionType(s) {
	case ActionDeFi, ActionResearch, ActionTrade, ActionTrack, ActionExternal:
		return ActionType(s)
	}
	return ActionExternal
}

// ReasoningStep is one step in the reasoning chain. Confidence is expected
// to be non-decreasing across steps by convention, but this is not enforced.
type ReasoningStep struct {
	Label      string `json:"label"`
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
	Source     string `json:"source,omitempty"`
}

// SignalSummary is the payload's header block describing the signal.
type SignalSummary struct {
	Title      string      `json:"title"`
	Theme      VisualTheme `json:"theme"`
	Confidence int         `json:"confidence"`
	Category   string      `json:"category"`
	Timestamp  string      `json:"timestamp"`
}

// Conclusion is the payload's bottom line.
type Conclusion struct {
	Summary   string `json:"summary"`
	Play      string `json:"play"`
	Timeframe string `json:"timeframe"`
}

// Action is a buyer-facing suggested action.
type Action struct {
	Label string     `json:"label"`
	URL   string     `json:"url"`
	Type  ActionType `json:"type"`
}

// SourceRef is the provenance entry carried into the payload for one source.
type SourceRef struct {
	Title string     `json:"title"`
	URL   string     `json:"url"`
	Kind  SourceKind `json:"type"`
}

// Metadata records how the payload was generated.
type Metadata struct {
	Agent              string `json:"agent"`
	Model              string `json:"model"`
	GeneratedAt        string `json:"generated_at"`
	DataSourcesScanned int    `json:"data_sources_scanned"`
	SignalsFound       int    `json:"signals_found"`
}

// IntelligencePayload is the plaintext that gets serialized, encrypted and
// sold. Its JSON encoding is the canonical byte form: the exact bytes that go
// into the envelope come back out on decryption.
type IntelligencePayload struct {
	Version    string        `json:"version"`
	Signal     SignalSummary `json:"signal"`
	Reasoning  Reasoning     `json:"reasoning"`
	Conclusion Conclusion    `json:"conclusion"`
	Actions    []Action      `json:"actions"`
	Sources    []SourceRef   `json:"sources"`
	Metadata   Metadata      `json:"metadata"`
}

// Reasoning wraps the ordered step list.
type Reasoning struct {
	Steps []ReasoningStep `json:"steps"`
}

// SourceRefs converts hunted sources to payload provenance entries.
func SourceRefs(sources []HuntedSource) []SourceRef {
	refs := make([]SourceRef, 0, len(sources))
	for _, s := range sources {
		refs = append(refs, SourceRef{Title: s.Title, URL: s.URL, Kind: s.Kind})
	}
	return refs
}

// Timestamp formats t the way payload timestamps are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
