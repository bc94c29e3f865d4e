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
	ErrTaskNotFound = errors.New("task not found")
)

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	ByID(ctx context.Context, taskID string) (*model.Task, error)
	ByMilestone(ctx context.Context, milestoneID string) ([]*model.Task, error)
	// Incomplete lists a user's open tasks in creation order.
	Incomplete(ctx context.Context, userID string) ([]*model.Task, error)
	// SameDay returns ids of the user's tasks under milestoneID dated date.
	SameDay(ctx context.Context, milestoneID, userID, date, excludeTaskID string) ([]string, error)
	Update(ctx context.Context, task *model.Task) error
	SetDone(ctx context.Context, taskID string, done bool) error
	Delete(ctx context.Context, taskID string) error
}

type taskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, t *model.Task) error {
	query := `INSERT INTO tasks (id, user_id, goal_id, milestone_id, title, description, date, estimated_hours, done, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.UserID,
		t.GoalID,
		t.MilestoneID,
		t.Title,
		t.Description,
		t.Date,
		t.EstimatedHours,
		t.Done,
		t.CreatedAt,
		t.UpdatedAt,
	)

	return err
}

func (r *taskRepository) ByID(ctx context.Context, taskID string) (*model.Task, error) {
	t := &model.Task{}
	query := `SELECT * FROM tasks WHERE id = $1`

	err := r.db.GetContext(ctx, t, query, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (r *taskRepository) ByMilestone(ctx context.Context, milestoneID string) ([]*model.Task, error) {
	var tasks []*model.Task
	query := `SELECT * FROM tasks WHERE milestone_id = $1 ORDER BY date ASC, created_at ASC`

	err := r.db.SelectContext(ctx, &tasks, query, milestoneID)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *taskRepository) Incomplete(ctx context.Context, userID string) ([]*model.Task, error) {
	var tasks []*model.Task
	query := `SELECT * FROM tasks WHERE user_id = $1 AND done = $2 ORDER BY created_at ASC, id ASC`

	err := r.db.SelectContext(ctx, &tasks, query, userID, false)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *taskRepository) SameDay(ctx context.Context, milestoneID, userID, date, excludeTaskID string) ([]string, error) {
	ids := []string{}
	query := `SELECT id FROM tasks WHERE milestone_id = $1 AND user_id = $2 AND date = $3 AND id <> $4 ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &ids, query, milestoneID, userID, date, excludeTaskID)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *taskRepository) Update(ctx context.Context, t *model.Task) error {
	t.UpdatedAt = time.Now().UTC()
	query := `UPDATE tasks
	          SET title = $1, description = $2, date = $3, estimated_hours = $4, done = $5, updated_at = $6
	          WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query, t.Title, t.Description, t.Date, t.EstimatedHours, t.Done, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}

	return expectRow(result, ErrTaskNotFound)
}

func (r *taskRepository) SetDone(ctx context.Context, taskID string, done bool) error {
	query := `UPDATE tasks SET done = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, done, time.Now().UTC(), taskID)
	if err != nil {
		return err
	}

	return expectRow(result, ErrTaskNotFound)
}

func (r *taskRepository) Delete(ctx context.Context, taskID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return err
	}

	return expectRow(result, ErrTaskNotFound)
}
