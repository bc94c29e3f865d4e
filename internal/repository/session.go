package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gritto/gritto/internal/model"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrGoalPreviewNotFound = errors.New("goal preview not found")
)

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	ByID(ctx context.Context, sessionID string) (*model.Session, error)
	// LatestActive returns the most recently updated active session of a user.
	LatestActive(ctx context.Context, userID string) (*model.Session, error)
	Update(ctx context.Context, session *model.Session) error
}

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, s *model.Session) error {
	query := `INSERT INTO sessions (id, user_id, chat_id, state, iteration, goal_preview_id, session_active, context, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.ChatID,
		string(s.State),
		s.Iteration,
		s.GoalPreviewID,
		s.SessionActive,
		s.Context,
		s.CreatedAt,
		s.UpdatedAt,
	)

	return err
}

func (r *sessionRepository) ByID(ctx context.Context, sessionID string) (*model.Session, error) {
	s := &model.Session{}
	query := `SELECT * FROM sessions WHERE id = $1`

	err := r.db.GetContext(ctx, s, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (r *sessionRepository) LatestActive(ctx context.Context, userID string) (*model.Session, error) {
	s := &model.Session{}
	query := `SELECT * FROM sessions
	          WHERE user_id = $1 AND session_active = $2
	          ORDER BY updated_at DESC, id DESC
	          LIMIT 1`

	err := r.db.GetContext(ctx, s, query, userID, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (r *sessionRepository) Update(ctx context.Context, s *model.Session) error {
	s.UpdatedAt = time.Now().UTC()
	query := `UPDATE sessions
	          SET state = $1, iteration = $2, goal_preview_id = $3, session_active = $4, context = $5, updated_at = $6
	          WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		string(s.State),
		s.Iteration,
		s.GoalPreviewID,
		s.SessionActive,
		s.Context,
		s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		return err
	}

	return expectRow(result, ErrSessionNotFound)
}

type GoalPreviewRepository interface {
	// Upsert overwrites the preview stored under preview.ID.
	Upsert(ctx context.Context, preview *model.GoalPreview) error
	ByID(ctx context.Context, previewID string) (*model.GoalPreview, error)
}

type goalPreviewRepository struct {
	db *sqlx.DB
}

func NewGoalPreviewRepository(db *sqlx.DB) GoalPreviewRepository {
	return &goalPreviewRepository{db: db}
}

func (r *goalPreviewRepository) Upsert(ctx context.Context, p *model.GoalPreview) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query := `INSERT INTO goal_previews (id, user_id, session_id, iteration, payload, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (id) DO UPDATE SET
	              session_id = excluded.session_id,
	              iteration = excluded.iteration,
	              payload = excluded.payload,
	              updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.SessionID, p.Iteration, p.Payload, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *goalPreviewRepository) ByID(ctx context.Context, previewID string) (*model.GoalPreview, error) {
	p := &model.GoalPreview{}
	query := `SELECT * FROM goal_previews WHERE id = $1`

	err := r.db.GetContext(ctx, p, query, previewID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalPreviewNotFound
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}
