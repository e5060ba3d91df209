package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iamrahulroyy/ats-checker/internal/domain/resume"
)

// ResumeStore persists resume metadata. Every call runs inside its own
// scoped session acquired from the manager, so each request gets the
// full breaker/retry protection.
type ResumeStore struct {
	m *Manager
}

// NewResumeStore creates a store backed by the manager's pool.
func NewResumeStore(m *Manager) *ResumeStore {
	return &ResumeStore{m: m}
}

// Save inserts the resume and fills in its generated id.
func (st *ResumeStore) Save(ctx context.Context, r *resume.Resume) error {
	return st.m.WithSession(ctx, func(ctx context.Context, s *Session) error {
		return s.QueryRowContext(ctx,
			`INSERT INTO resumes (filename, file_size, file_url) VALUES ($1, $2, $3) RETURNING id`,
			r.Filename, r.FileSize, r.FileURL,
		).Scan(&r.ID)
	})
}

// Get fetches one resume by id, returning resume.ErrNotFound when absent.
func (st *ResumeStore) Get(ctx context.Context, id int64) (*resume.Resume, error) {
	var rec resume.Resume
	err := st.m.WithSession(ctx, func(ctx context.Context, s *Session) error {
		err := s.QueryRowContext(ctx,
			`SELECT id, filename, file_size, file_url FROM resumes WHERE id = $1`,
			id,
		).Scan(&rec.ID, &rec.Filename, &rec.FileSize, &rec.FileURL)
		if errors.Is(err, sql.ErrNoRows) {
			return resume.ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns all resumes ordered by id.
func (st *ResumeStore) List(ctx context.Context) ([]resume.Resume, error) {
	var out []resume.Resume
	err := st.m.WithSession(ctx, func(ctx context.Context, s *Session) error {
		rows, err := s.QueryContext(ctx,
			`SELECT id, filename, file_size, file_url FROM resumes ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec resume.Resume
			if err := rows.Scan(&rec.ID, &rec.Filename, &rec.FileSize, &rec.FileURL); err != nil {
				return fmt.Errorf("scan resume: %w", err)
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
