package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/marqant/internal/resolver"
)

// CachedDictionary is one row of the dictionaries table.
type CachedDictionary struct {
	QName     string `json:"qname"`
	DictID    string `json:"dict_id"`
	Entries   int    `json:"entries"`
	FetchedAt int64  `json:"fetched_at"`
}

// LoadMapping returns the cached mapping for qname. A row whose record no
// longer parses is reported as an error, not a miss.
func (s *Store) LoadMapping(ctx context.Context, qname string) (resolver.Mapping, bool, error) {
	var record string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM dictionaries WHERE qname = ?`, qname,
	).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load mapping %q: %w", qname, err)
	}

	m, err := resolver.ParseRecords([]string{record})
	if err != nil {
		return nil, false, fmt.Errorf("load mapping %q: corrupt record: %w", qname, err)
	}
	return m, true, nil
}

// SaveMapping upserts the mapping for qname.
func (s *Store) SaveMapping(ctx context.Context, qname string, m resolver.Mapping) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dictionaries (qname, record, dict_id, entries, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(qname) DO UPDATE SET
			record = excluded.record,
			dict_id = excluded.dict_id,
			entries = excluded.entries,
			fetched_at = excluded.fetched_at
	`,
		qname,
		m.Record(),
		mappingID(m),
		len(m),
		s.clock.Now(),
	)
	if err != nil {
		return fmt.Errorf("save mapping %q: %w", qname, err)
	}
	return nil
}

// DeleteMapping removes qname from the cache. Deleting a missing row is
// not an error.
func (s *Store) DeleteMapping(ctx context.Context, qname string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM dictionaries WHERE qname = ?`, qname); err != nil {
		return fmt.Errorf("delete mapping %q: %w", qname, err)
	}
	return nil
}

// ListDictionaries returns every cached dictionary ordered by query name.
func (s *Store) ListDictionaries(ctx context.Context) ([]CachedDictionary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT qname, dict_id, entries, fetched_at
		FROM dictionaries
		ORDER BY qname ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list dictionaries: %w", err)
	}
	defer rows.Close()

	var out []CachedDictionary
	for rows.Next() {
		var d CachedDictionary
		if err := rows.Scan(&d.QName, &d.DictID, &d.Entries, &d.FetchedAt); err != nil {
			return nil, fmt.Errorf("list dictionaries: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// mappingID fingerprints m when it forms a valid dictionary. Mappings with
// multi-byte or reserved tokens have no dictionary fingerprint.
func mappingID(m resolver.Mapping) string {
	d, err := m.Dictionary()
	if err != nil {
		return ""
	}
	return d.Fingerprint()
}
