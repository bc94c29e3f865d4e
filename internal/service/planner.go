package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/gritto/gritto/internal/agent"
	"github.com/gritto/gritto/internal/apperror"
	"github.com/gritto/gritto/internal/metrics"
	"github.com/gritto/gritto/internal/model"
	"github.com/gritto/gritto/internal/repository"
)

const maxMessageLength = 8000

// MessageInput is one user turn in a planning session.
type MessageInput struct {
	UserID    string
	SessionID string
	Message   string
	// GoalPreview overrides the session's stored preview for this turn.
	GoalPreview map[string]any
}

// MessageResult is the engine reply plus the session after the action ran.
type MessageResult struct {
	Reply   string
	Action  agent.Action
	Session *model.Session
}

// PlannerService relays user messages to the reasoning engine and carries
// out the action the engine decides on.
type PlannerService struct {
	sessions  *SessionService
	snapshots *SnapshotBuilder
	committer *FinalizationCommitter
	users     repository.UserRepository
	previews  repository.GoalPreviewRepository
	chats     repository.ChatRepository
	engine    agent.Engine
	locks     *sessionLocks
}

func NewPlannerService(
	sessions *SessionService,
	snapshots *SnapshotBuilder,
	committer *FinalizationCommitter,
	users repository.UserRepository,
	previews repository.GoalPreviewRepository,
	chats repository.ChatRepository,
	engine agent.Engine,
) *PlannerService {
	return &PlannerService{
		sessions:  sessions,
		snapshots: snapshots,
		committer: committer,
		users:     users,
		previews:  previews,
		chats:     chats,
		engine:    engine,
		locks:     newSessionLocks(),
	}
}

// SendMessage runs one conversational turn. Messages for the same session
// are handled one at a time. The user's message is stored before the engine
// is called and stays stored if the turn fails.
func (s *PlannerService) SendMessage(ctx context.Context, in MessageInput) (*MessageResult, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, apperror.Validation("message is required")
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		return nil, apperror.Validationf("message is too long (max %d characters)", maxMessageLength)
	}

	release, err := s.locks.acquire(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("wait for session: %w", err)
	}
	defer release()

	session, err := s.sessions.Authorize(ctx, in.UserID, in.SessionID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.ByID(ctx, in.UserID)
	if err != nil {
		return nil, lookupErr(err, repository.ErrUserNotFound, "user")
	}

	snapshot, err := s.snapshots.Build(ctx, user)
	if err != nil {
		return nil, err
	}

	previewDoc, previewID := s.previewContext(ctx, session, in.GoalPreview)

	err = s.chats.Append(ctx, &model.ChatMessage{
		ChatID:  session.ChatID,
		UserID:  user.ID,
		Sender:  model.SenderUser,
		Message: message,
	})
	if err != nil {
		return nil, apperror.Internal("failed to store message", err)
	}

	if session.Iteration == 0 {
		if err := s.engine.Bootstrap(ctx, user.ID, session.ID); err != nil {
			return nil, err
		}
	}

	decision, err := s.engine.Run(ctx, agent.RunInput{
		UserID:      user.ID,
		SessionID:   session.ID,
		Message:     message,
		GoalPreview: previewDoc,
		Context:     snapshot,
	})
	if err != nil {
		return nil, err
	}

	if decision.Reply != "" {
		err = s.chats.Append(ctx, &model.ChatMessage{
			ChatID:  session.ChatID,
			UserID:  user.ID,
			Sender:  model.SenderAgent,
			Message: decision.Reply,
		})
		if err != nil {
			return nil, apperror.Internal("failed to store reply", err)
		}
	}

	action := agent.Action{Type: decision.Action.Type, Payload: model.JSONMap(decision.Action.Payload).Clone()}
	if action.Payload == nil {
		action.Payload = map[string]any{}
	}

	var savedPreviewID string
	finalized := false

	if !action.Type.Known() {
		slog.Warn("engine requested unknown action, ignoring", "session_id", session.ID, "action", action.Type)
		action.Type = agent.ActionNone
	}

	switch action.Type {
	case agent.ActionSavePreview:
		savedPreviewID, err = s.savePreview(ctx, session, decision, action.Payload)
		if err != nil {
			return nil, err
		}
		action.Payload["goalPreviewId"] = savedPreviewID

	case agent.ActionFinalizeGoal:
		result, err := s.committer.Commit(ctx, user, action.Payload, previewID)
		if err != nil {
			if appErr, ok := apperror.As(err); ok && appErr.Kind == apperror.KindConflict {
				metrics.Rejections.WithLabelValues(appErr.Code).Inc()
			}
			return nil, err
		}
		action.Payload["goalId"] = result.Goal.ID
		action.Payload["milestoneIds"] = result.MilestoneIDs
		action.Payload["taskIds"] = result.TaskIDs
		if result.GoalPreviewID != "" {
			action.Payload["goalPreviewId"] = result.GoalPreviewID
		}
		finalized = true

		// The committed goal changes remaining hours and upcoming tasks.
		snapshot, err = s.snapshots.Build(ctx, user)
		if err != nil {
			return nil, err
		}

	case agent.ActionNone:
	}
	metrics.Actions.WithLabelValues(string(action.Type)).Inc()

	advanceSession(session, decision.State)
	if savedPreviewID != "" {
		session.GoalPreviewID = &savedPreviewID
	}
	if finalized {
		closeSession(session, decision.State)
	}
	session.Context = snapshot

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	return &MessageResult{Reply: decision.Reply, Action: action, Session: session}, nil
}

// previewContext picks the preview sent to the engine: the caller's override
// or the session's stored preview. A dangling preview id is ignored.
func (s *PlannerService) previewContext(ctx context.Context, session *model.Session, override map[string]any) (map[string]any, string) {
	var previewID string
	if session.GoalPreviewID != nil {
		previewID = *session.GoalPreviewID
	}

	if len(override) > 0 {
		if id, ok := override["id"].(string); ok && id != "" {
			previewID = id
		}
		return override, previewID
	}

	if previewID == "" {
		return nil, ""
	}

	preview, err := s.previews.ByID(ctx, previewID)
	if err != nil {
		if !errors.Is(err, repository.ErrGoalPreviewNotFound) {
			slog.Error("failed to load goal preview", "error", err, "goal_preview_id", previewID)
		} else {
			slog.Warn("session references missing goal preview", "session_id", session.ID, "goal_preview_id", previewID)
		}
		return nil, previewID
	}
	if preview.UserID != session.UserID {
		slog.Warn("session references foreign goal preview", "session_id", session.ID, "goal_preview_id", previewID)
		return nil, ""
	}
	return preview.Payload, previewID
}

// savePreview upserts the draft plan carried by a save_preview action and
// returns its id.
func (s *PlannerService) savePreview(ctx context.Context, session *model.Session, decision *agent.Decision, payload map[string]any) (string, error) {
	doc, ok := payload["goalPreview"].(map[string]any)
	if !ok {
		doc = payload
	}
	doc = model.JSONMap(doc).Clone()

	id := firstString(payload["goalPreviewId"], doc["id"])
	if id != "" {
		existing, err := s.previews.ByID(ctx, id)
		switch {
		case err == nil && existing.UserID != session.UserID:
			slog.Warn("engine reused a foreign goal preview id", "session_id", session.ID, "goal_preview_id", id)
			id = ""
		case err != nil && !errors.Is(err, repository.ErrGoalPreviewNotFound):
			return "", fmt.Errorf("load goal preview: %w", err)
		}
	}
	if id == "" {
		id = uuid.New().String()
	}
	doc["id"] = id

	iteration := session.Iteration + 1
	if n, ok := lookupNumber(payload, "iteration"); ok {
		iteration = int(n)
	} else if decision.State.Iteration != nil {
		iteration = *decision.State.Iteration
	}
	doc["iteration"] = iteration

	now := time.Now().UTC()
	preview := &model.GoalPreview{
		ID:        id,
		UserID:    session.UserID,
		SessionID: session.ID,
		Iteration: iteration,
		Payload:   doc,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.previews.Upsert(ctx, preview); err != nil {
		return "", fmt.Errorf("failed to save goal preview: %w", err)
	}

	slog.Info("goal preview saved", "session_id", session.ID, "goal_preview_id", id, "iteration", iteration)
	return id, nil
}

func firstString(values ...any) string {
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Preview returns a stored goal preview the user owns.
func (s *PlannerService) Preview(ctx context.Context, userID, previewID string) (*model.GoalPreview, error) {
	preview, err := s.previews.ByID(ctx, previewID)
	if err != nil {
		return nil, lookupErr(err, repository.ErrGoalPreviewNotFound, "goal preview")
	}
	if err := ensureOwner("goal preview", preview.UserID, userID); err != nil {
		return nil, err
	}
	return preview, nil
}
