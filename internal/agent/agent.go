// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent orchestrates the publish pipeline: scan the environment,
// identify signals, hunt supporting sources, reason into a payload, then
// list, encrypt, upload and attach. Each selected signal is processed in
// isolation so one bad item never aborts the run.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/activity"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/hunt"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/reason"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/scan"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/seal"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/signal"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/sui"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

// BlobStore is the storage surface the agent depends on.
type BlobStore interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, blobID string) ([]byte, error)
}

// PublishedItem records one listing that made it all the way through.
type PublishedItem struct {
	Signal    types.Signal
	ListingID string
	CapID     string
	BlobID    string
}

// RunSummary is what one pipeline run produced.
type RunSummary struct {
	SourcesScanned int
	SignalsFound   int
	UsedFallback   bool
	Published      []PublishedItem
	Failed         int
}

// Agent wires the pipeline stages together.
type Agent struct {
	Cfg       types.PipelineConfig
	HTTP      *http.Client
	LLM       signal.Completer
	Ledger    sui.Ledger
	Blobs     BlobStore
	Encryptor *seal.Encryptor
	Log       *activity.Log
	Store     *activity.Store
	Progress  io.Writer
}

func (a *Agent) progress() io.Writer {
	if a.Progress != nil {
		return a.Progress
	}
	return io.Discard
}

func (a *Agent) record(phase, format string, args ...any) {
	a.Log.Record(phase, format, args...)
	if a.Store != nil {
		entries := a.Log.Entries()
		_ = a.Store.RecordEntry(entries[len(entries)-1])
	}
}

// Run executes one full pipeline pass. topicHint optionally steers signal
// selection toward a theme the operator cares about.
func (a *Agent) Run(ctx context.Context, topicHint string) (*RunSummary, error) {
	now := time.Now().UTC()

	result := scan.ScanAll(ctx, a.HTTP, a.Cfg.Scan, a.progress())
	scanned := 5 + len(a.Cfg.Scan.Feeds) - len(result.SourceErrors)
	a.record(activity.PhaseScan, "scanned %d sources (%d failed)", scanned, len(result.SourceErrors))
	scanText := scan.RenderForLLM(result)

	selector := signal.New(a.LLM, a.Cfg.Selector, a.progress())
	signals, usedFallback := selector.Identify(ctx, scanText, topicHint, now)
	a.record(activity.PhaseIdentify, "identified %d signals (fallback=%t)", len(signals), usedFallback)

	summary := &RunSummary{
		SourcesScanned: scanned,
		SignalsFound:   len(signals),
		UsedFallback:   usedFallback,
	}

	for i, sig := range signals {
		if i > 0 && a.Cfg.InterItemDelay > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(a.Cfg.InterItemDelay):
			}
		}

		item, err := a.publishItem(ctx, sig, scanText, now, usedFallback)
		if err != nil {
			summary.Failed++
			a.Log.RecordError(activity.PhasePublish, fmt.Errorf("signal %q: %w", sig.Title, err))
			continue
		}
		summary.Published = append(summary.Published, item)
	}

	if a.Cfg.Activity.JSONPath != "" {
		if err := a.Log.SaveJSON(a.Cfg.Activity.JSONPath); err != nil {
			fmt.Fprintf(a.progress(), "Warning: %v\n", err)
		}
	}
	return summary, nil
}

// publishItem carries one signal through hunt, reasoning, listing creation,
// encryption, upload and blob attachment. The listing exists on chain
// before the payload is encrypted because the encryption identifier must
// embed the listing id.
func (a *Agent) publishItem(ctx context.Context, sig types.Signal, scanText string, now time.Time, usedFallback bool) (PublishedItem, error) {
	sources := hunt.Hunt(ctx, a.HTTP, sig, scanText, a.Cfg.Hunt, a.progress())
	a.record(activity.PhaseHunt, "hunted %d sources for %q", len(sources), sig.Title)

	modelLabel := a.Cfg.LLM.PrimaryModel
	if usedFallback {
		modelLabel = reason.FallbackModelLabel
	}
	reasoner := reason.New(a.LLM, a.agentName(), modelLabel, a.progress())
	payload := reasoner.Reason(ctx, sig, sources, scanText, now)
	a.record(activity.PhaseReason, "reasoned %d steps, confidence %d", len(payload.Reasoning.Steps), payload.Signal.Confidence)

	created, err := a.Ledger.CreateListing(ctx, sig.Title, sig.Description, string(sig.Theme), types.SUIToMist(sig.PriceSUI))
	if err != nil {
		return PublishedItem{}, fmt.Errorf("creating listing: %w", err)
	}
	a.record(activity.PhasePublish, "created listing %s (tx %s)", created.ListingID, created.Digest)
	if a.Store != nil {
		_ = a.Store.RecordListing(activity.PublishedListing{
			ListingID:   created.ListingID,
			CapID:       created.CapID,
			Title:       sig.Title,
			Theme:       string(sig.Theme),
			PriceMist:   types.SUIToMist(sig.PriceSUI),
			PublishedAt: now,
		})
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return PublishedItem{}, fmt.Errorf("encoding payload: %w", err)
	}
	env, err := a.Encryptor.Encrypt(created.ListingID, plaintext)
	if err != nil {
		return PublishedItem{}, fmt.Errorf("sealing payload: %w", err)
	}
	sealed, err := env.Encode()
	if err != nil {
		return PublishedItem{}, fmt.Errorf("sealing payload: %w", err)
	}
	a.record(activity.PhasePackage, "sealed %d bytes under %d-of-%d custodians",
		len(sealed), env.Threshold, len(env.Shares))

	blobID, err := a.Blobs.Put(ctx, sealed)
	if err != nil {
		return PublishedItem{}, fmt.Errorf("storing blob: %w", err)
	}
	a.record(activity.PhasePackage, "stored blob %s", blobID)

	if err := a.Ledger.UpdateBlobID(ctx, created.ListingID, created.CapID, blobID); err != nil {
		return PublishedItem{}, fmt.Errorf("attaching blob: %w", err)
	}
	a.record(activity.PhasePublish, "attached blob %s to listing %s", blobID, created.ListingID)
	if a.Store != nil {
		_ = a.Store.SetListingBlob(created.ListingID, blobID)
	}

	return PublishedItem{
		Signal:    sig,
		ListingID: created.ListingID,
		CapID:     created.CapID,
		BlobID:    blobID,
	}, nil
}

func (a *Agent) agentName() string {
	if a.Cfg.AgentName != "" {
		return a.Cfg.AgentName
	}
	return "SealForge Agent v2.0"
}

// NewEncryptor builds the threshold encryptor from seal config.
func NewEncryptor(programID string, cfg types.SealConfig) (*seal.Encryptor, error) {
	if len(cfg.Custodians) == 0 {
		return nil, fmt.Errorf("no custodians configured")
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 2
	}

	custodians := make([]seal.Custodian, 0, len(cfg.Custodians))
	for _, c := range cfg.Custodians {
		pub, err := seal.ParsePublicKey(c.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("custodian %s: %w", c.ObjectID, err)
		}
		custodians = append(custodians, seal.Custodian{
			ObjectID:  c.ObjectID,
			URL:       c.URL,
			PublicKey: pub,
		})
	}
	return &seal.Encryptor{ProgramID: programID, Threshold: threshold, Custodians: custodians}, nil
}
