// Package history records completed search episodes so past queries can be
// listed. Selections are deliberately not persisted.
package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"
)

// Entry is one recorded search episode.
type Entry struct {
	ID          int64     `json:"id"`
	Mode        string    `json:"mode"`
	Query       string    `json:"query"`
	Language    string    `json:"language"`
	ResultCount int       `json:"resultCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListOptions control history listing pagination.
type ListOptions struct {
	Page     int
	PageSize int
}

// ListResponse is a paginated history listing.
type ListResponse struct {
	Entries    []*Entry `json:"entries"`
	TotalCount int64    `json:"totalCount"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
}

// Service provides search-history recording and listing.
type Service struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewService creates a new history service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// RecordSearch stores one completed search episode.
func (s *Service) RecordSearch(ctx context.Context, mode, query, language string, resultCount int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_history (mode, query, language, result_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		mode, query, language, resultCount, time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	s.logger.Debug().
		Str("mode", mode).
		Str("query", query).
		Int("results", resultCount).
		Msg("Recorded search")
	return nil
}

// List returns history entries, newest first, with pagination.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = 50
	}
	if opts.PageSize > 100 {
		opts.PageSize = 100
	}

	offset := (opts.Page - 1) * opts.PageSize

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, query, language, result_count, created_at
		 FROM search_history
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		opts.PageSize, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*Entry, 0, opts.PageSize)
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.Mode, &e.Query, &e.Language, &e.ResultCount, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_history`).Scan(&total); err != nil {
		return nil, err
	}

	return &ListResponse{
		Entries:    entries,
		TotalCount: total,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
	}, nil
}

// Prune deletes entries older than the cutoff and returns how many were
// removed.
func (s *Service) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM search_history WHERE created_at < ?`, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
