// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package activity

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRecordsAndEchoes(t *testing.T) {
	var buf bytes.Buffer
	log := NewLog(&buf)

	log.Record(PhaseScan, "scanned %d sources", 6)
	log.RecordError(PhasePublish, errors.New("rpc unreachable"))

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, PhaseScan, entries[0].Phase)
	assert.Equal(t, "scanned 6 sources", entries[0].Message)
	assert.Equal(t, "rpc unreachable", entries[1].Err)

	assert.Contains(t, buf.String(), "[SCAN] scanned 6 sources")
	assert.Contains(t, buf.String(), "[PUBLISH] failed: rpc unreachable")
}

func TestLogSaveJSON(t *testing.T) {
	log := NewLog(bytes.NewBuffer(nil))
	log.Record(PhaseHunt, "hunted 3 sources")

	path := filepath.Join(t.TempDir(), "logs", "run.json")
	require.NoError(t, log.SaveJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []Entry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "hunted 3 sources", entries[0].Message)
}

func TestStoreListingLifecycle(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "ledger", "agent.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RecordListing(PublishedListing{
		ListingID:   "0xlisting",
		CapID:       "0xcap",
		Title:       "Sui Yield Rotation",
		Theme:       "gold-alpha",
		PriceMist:   250_000_000,
		PublishedAt: time.Now(),
	}))
	require.NoError(t, store.SetListingBlob("0xlisting", "blob-abc"))

	listings, err := store.Listings()
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "0xlisting", listings[0].ListingID)
	assert.Equal(t, "blob-abc", listings[0].BlobID)
	assert.Equal(t, uint64(250_000_000), listings[0].PriceMist)
}

func TestSetListingBlobUnknownListing(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	defer store.Close()

	err = store.SetListingBlob("0xmissing", "blob-abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in the ledger")
}

func TestStoreRecordEntry(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RecordEntry(Entry{
		Time:    time.Now().UTC(),
		Phase:   PhaseScan,
		Message: "scanned 6 sources",
	}))
}
