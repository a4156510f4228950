// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package activity

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// PublishedListing is one row of the listings ledger.
type PublishedListing struct {
	ListingID   string
	CapID       string
	Title       string
	Theme       string
	PriceMist   uint64
	BlobID      string
	PublishedAt time.Time
}

// Store is the SQLite accounting ledger.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the ledger database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS activity (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			time TEXT NOT NULL,
			phase TEXT NOT NULL,
			message TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS listings (
			listing_id TEXT PRIMARY KEY,
			cap_id TEXT NOT NULL,
			title TEXT NOT NULL,
			theme TEXT,
			price_mist INTEGER NOT NULL,
			blob_id TEXT,
			published_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_phase ON activity(phase)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordEntry appends one activity event to the ledger.
func (s *Store) RecordEntry(e Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO activity (time, phase, message, error) VALUES (?, ?, ?, ?)`,
		e.Time.Format(time.RFC3339Nano), e.Phase, e.Message, e.Err,
	)
	if err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}

// RecordListing registers a freshly created listing. The blob id is empty
// until SetListingBlob is called after upload.
func (s *Store) RecordListing(l PublishedListing) error {
	_, err := s.db.Exec(
		`INSERT INTO listings (listing_id, cap_id, title, theme, price_mist, blob_id, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ListingID, l.CapID, l.Title, l.Theme, l.PriceMist, l.BlobID,
		l.PublishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording listing %s: %w", l.ListingID, err)
	}
	return nil
}

// SetListingBlob attaches the uploaded blob id to a recorded listing.
func (s *Store) SetListingBlob(listingID, blobID string) error {
	res, err := s.db.Exec(`UPDATE listings SET blob_id = ? WHERE listing_id = ?`, blobID, listingID)
	if err != nil {
		return fmt.Errorf("updating listing %s: %w", listingID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("listing %s is not in the ledger", listingID)
	}
	return nil
}

// Listings returns every recorded listing, newest first.
func (s *Store) Listings() ([]PublishedListing, error) {
	rows, err := s.db.Query(
		`SELECT listing_id, cap_id, title, theme, price_mist, blob_id, published_at
		 FROM listings ORDER BY published_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	var out []PublishedListing
	for rows.Next() {
		var l PublishedListing
		var blobID sql.NullString
		var published string
		if err := rows.Scan(&l.ListingID, &l.CapID, &l.Title, &l.Theme, &l.PriceMist, &blobID, &published); err != nil {
			return nil, fmt.Errorf("scanning listing row: %w", err)
		}
		l.BlobID = blobID.String
		l.PublishedAt, _ = time.Parse(time.RFC3339, published)
		out = append(out, l)
	}
	return out, rows.Err()
}
