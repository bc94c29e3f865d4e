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
	ErrMilestoneNotFound = errors.New("milestone not found")
)

type MilestoneRepository interface {
	Create(ctx context.Context, milestone *model.Milestone) error
	ByID(ctx context.Context, milestoneID string) (*model.Milestone, error)
	ByGoal(ctx context.Context, goalID string) ([]*model.Milestone, error)
	Update(ctx context.Context, milestone *model.Milestone) error
}

type milestoneRepository struct {
	db *sqlx.DB
}

func NewMilestoneRepository(db *sqlx.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

func (r *milestoneRepository) Create(ctx context.Context, m *model.Milestone) error {
	query := `INSERT INTO milestones (id, user_id, goal_id, parent_id, title, description, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.UserID,
		m.GoalID,
		m.ParentID,
		m.Title,
		m.Description,
		m.Status,
		m.CreatedAt,
		m.UpdatedAt,
	)

	return err
}

func (r *milestoneRepository) ByID(ctx context.Context, milestoneID string) (*model.Milestone, error) {
	m := &model.Milestone{}
	query := `SELECT * FROM milestones WHERE id = $1`

	err := r.db.GetContext(ctx, m, query, milestoneID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMilestoneNotFound
	}
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (r *milestoneRepository) ByGoal(ctx context.Context, goalID string) ([]*model.Milestone, error) {
	var milestones []*model.Milestone
	query := `SELECT * FROM milestones WHERE goal_id = $1 ORDER BY created_at ASC, id ASC`

	err := r.db.SelectContext(ctx, &milestones, query, goalID)
	if err != nil {
		return nil, err
	}

	return milestones, nil
}

func (r *milestoneRepository) Update(ctx context.Context, m *model.Milestone) error {
	m.UpdatedAt = time.Now().UTC()
	query := `UPDATE milestones
	          SET title = $1, description = $2, status = $3, parent_id = $4, updated_at = $5
	          WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query, m.Title, m.Description, m.Status, m.ParentID, m.UpdatedAt, m.ID)
	if err != nil {
		return err
	}

	return expectRow(result, ErrMilestoneNotFound)
}
