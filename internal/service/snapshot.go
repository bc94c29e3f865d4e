package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/gritto/gritto/internal/model"
	"github.com/gritto/gritto/internal/repository"
)

// SnapshotBuilder computes the planning context handed to the reasoning engine.
type SnapshotBuilder struct {
	ledger *CapacityLedger
	tasks  repository.TaskRepository
}

func NewSnapshotBuilder(ledger *CapacityLedger, tasks repository.TaskRepository) *SnapshotBuilder {
	return &SnapshotBuilder{ledger: ledger, tasks: tasks}
}

// Build returns remaining weekly hours and the user's incomplete tasks
// ordered by date. Tasks sharing a date keep their creation order.
func (b *SnapshotBuilder) Build(ctx context.Context, user *model.User) (model.PlanningContext, error) {
	remaining, err := b.ledger.RemainingHours(ctx, user, "")
	if err != nil {
		return model.PlanningContext{}, err
	}

	tasks, err := b.tasks.Incomplete(ctx, user.ID)
	if err != nil {
		return model.PlanningContext{}, fmt.Errorf("load upcoming tasks: %w", err)
	}

	upcoming := make([]model.UpcomingTask, 0, len(tasks))
	for _, t := range tasks {
		upcoming = append(upcoming, model.UpcomingTask{
			ID:             t.ID,
			Title:          t.Title,
			GoalID:         t.GoalID,
			MilestoneID:    t.MilestoneID,
			Date:           t.Date,
			EstimatedHours: t.EstimatedHours,
			Done:           t.Done,
		})
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Date < upcoming[j].Date
	})

	return model.PlanningContext{AvailableHoursLeft: remaining, UpcomingTasks: upcoming}, nil
}
