package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Outcome is the recorded result of one resolve call.
type Outcome string

const (
	OutcomePresent   Outcome = "present"
	OutcomeAbsent    Outcome = "absent"
	OutcomeMalformed Outcome = "malformed"
	OutcomeFailed    Outcome = "failed"
	OutcomeInvalid   Outcome = "invalid"
)

// Resolution is one row of the resolutions log.
type Resolution struct {
	ID         string  `json:"id"`
	Seq        int64   `json:"seq"`
	Name       string  `json:"name"`
	QName      string  `json:"qname"`
	Outcome    Outcome `json:"outcome"`
	DictID     string  `json:"dict_id,omitempty"`
	Detail     string  `json:"detail,omitempty"`
	ResolvedAt int64   `json:"resolved_at"`
}

// newResolutionID returns a time-ordered UUIDv7.
func newResolutionID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// LogResolution appends r to the log. ID, Seq and ResolvedAt are assigned
// by the store; the stored row is returned.
func (s *Store) LogResolution(ctx context.Context, r Resolution) (Resolution, error) {
	r.ID = newResolutionID()
	r.ResolvedAt = s.clock.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Resolution{}, fmt.Errorf("log resolution: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM resolutions`,
	).Scan(&r.Seq); err != nil {
		return Resolution{}, fmt.Errorf("log resolution: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO resolutions (id, seq, name, qname, outcome, dict_id, detail, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.Seq,
		r.Name,
		r.QName,
		string(r.Outcome),
		r.DictID,
		r.Detail,
		r.ResolvedAt,
	)
	if err != nil {
		return Resolution{}, fmt.Errorf("log resolution: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Resolution{}, fmt.Errorf("log resolution: commit: %w", err)
	}
	return r, nil
}

// ListResolutions returns logged outcomes for qname ("" = all), oldest
// first. limit <= 0 returns every row.
func (s *Store) ListResolutions(ctx context.Context, qname string, limit int) ([]Resolution, error) {
	query := `
		SELECT id, seq, name, qname, outcome, dict_id, detail, resolved_at
		FROM resolutions
		WHERE (? = '' OR qname = ?)
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`
	args := []any{qname, qname}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list resolutions: %w", err)
	}
	defer rows.Close()

	var out []Resolution
	for rows.Next() {
		var r Resolution
		var outcome string
		if err := rows.Scan(&r.ID, &r.Seq, &r.Name, &r.QName, &outcome, &r.DictID, &r.Detail, &r.ResolvedAt); err != nil {
			return nil, fmt.Errorf("list resolutions: %w", err)
		}
		r.Outcome = Outcome(outcome)
		out = append(out, r)
	}
	return out, rows.Err()
}
