package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Resolution is one cached name lookup.
type Resolution struct {
	Fragment   string
	MaxResults int
	AccountIDs []string
	ResolvedAt time.Time
}

// WriteResolution inserts or replaces the cached result for
// (r.Fragment, r.MaxResults).
func (s *Store) WriteResolution(ctx context.Context, r Resolution) error {
	idsJSON, err := marshalIDs(r.AccountIDs)
	if err != nil {
		return fmt.Errorf("write resolution: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resolutions (fragment, max_results, account_ids, resolved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fragment, max_results) DO UPDATE SET
			account_ids = excluded.account_ids,
			resolved_at = excluded.resolved_at
	`,
		r.Fragment,
		r.MaxResults,
		idsJSON,
		r.ResolvedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write resolution: %w", err)
	}
	return nil
}

// ReadResolution returns the cached result for (fragment, maxResults).
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadResolution(ctx context.Context, fragment string, maxResults int) (Resolution, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT fragment, max_results, account_ids, resolved_at
		FROM resolutions
		WHERE fragment = ? AND max_results = ?
	`, fragment, maxResults)
	return scanResolution(row)
}

// ReadAllResolutions returns every cached resolution.
// Ordered by fragment, then max_results.
func (s *Store) ReadAllResolutions(ctx context.Context) ([]Resolution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fragment, max_results, account_ids, resolved_at
		FROM resolutions
		ORDER BY fragment COLLATE BINARY ASC, max_results ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read resolutions: %w", err)
	}
	defer rows.Close()

	out := []Resolution{}
	for rows.Next() {
		r, err := scanResolution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read resolutions: %w", err)
	}
	return out, nil
}

// DeleteResolution removes one cached entry. Missing entries are ignored.
func (s *Store) DeleteResolution(ctx context.Context, fragment string, maxResults int) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM resolutions WHERE fragment = ? AND max_results = ?",
		fragment, maxResults,
	)
	if err != nil {
		return fmt.Errorf("delete resolution: %w", err)
	}
	return nil
}

// Purge deletes entries resolved before cutoff and returns how many were
// removed.
func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM resolutions WHERE resolved_at < ?",
		cutoff.UTC().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge resolutions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge resolutions: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResolution(row scanner) (Resolution, error) {
	var (
		r          Resolution
		idsJSON    string
		resolvedAt int64
	)
	if err := row.Scan(&r.Fragment, &r.MaxResults, &idsJSON, &resolvedAt); err != nil {
		if err == sql.ErrNoRows {
			return Resolution{}, err
		}
		return Resolution{}, fmt.Errorf("scan resolution: %w", err)
	}
	ids, err := unmarshalIDs(idsJSON)
	if err != nil {
		return Resolution{}, err
	}
	r.AccountIDs = ids
	r.ResolvedAt = time.UnixMilli(resolvedAt).UTC()
	return r, nil
}
