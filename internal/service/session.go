package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gritto/gritto/internal/agent"
	"github.com/gritto/gritto/internal/apperror"
	"github.com/gritto/gritto/internal/model"
	"github.com/gritto/gritto/internal/repository"
)

type SessionService struct {
	sessions  repository.SessionRepository
	users     repository.UserRepository
	snapshots *SnapshotBuilder
}

func NewSessionService(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	snapshots *SnapshotBuilder,
) *SessionService {
	return &SessionService{
		sessions:  sessions,
		users:     users,
		snapshots: snapshots,
	}
}

// GetOrCreate returns the user's most recently updated active session,
// opening a fresh one when none exists. created reports which happened.
func (s *SessionService) GetOrCreate(ctx context.Context, userID string) (session *model.Session, created bool, err error) {
	latest, err := s.sessions.LatestActive(ctx, userID)
	if err == nil {
		return latest, false, nil
	}
	if !errors.Is(err, repository.ErrSessionNotFound) {
		return nil, false, fmt.Errorf("load latest session: %w", err)
	}

	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, false, lookupErr(err, repository.ErrUserNotFound, "user")
	}

	snapshot, err := s.snapshots.Build(ctx, user)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	session = &model.Session{
		ID:            uuid.New().String(),
		UserID:        userID,
		ChatID:        uuid.New().String(),
		State:         model.SessionStatePlanGenerated,
		Iteration:     0,
		SessionActive: true,
		Context:       snapshot,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("planning session opened", "session_id", session.ID, "user_id", userID)
	return session, true, nil
}

// Get loads a session the user owns, active or not.
func (s *SessionService) Get(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	session, err := s.sessions.ByID(ctx, sessionID)
	if err != nil {
		return nil, lookupErr(err, repository.ErrSessionNotFound, "session")
	}
	if err := ensureOwner("session", session.UserID, userID); err != nil {
		return nil, err
	}
	return session, nil
}

// Authorize loads a session that may still receive messages.
func (s *SessionService) Authorize(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.SessionActive || session.State.IsTerminal() {
		return nil, apperror.SessionInactive(session.ID)
	}
	return session, nil
}

func (s *SessionService) Save(ctx context.Context, session *model.Session) error {
	if err := s.sessions.Update(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// advanceSession applies the engine's state update to session. Supplied
// fields win and a closed session stays closed. A missing iteration counts
// up from the current one. A lower engine iteration is logged and the
// counter does not advance on that turn.
func advanceSession(session *model.Session, update agent.StateUpdate) {
	if update.State != nil {
		tag := model.SessionStateTag(*update.State)
		if !tag.Known() {
			slog.Debug("engine returned unrecognised session state", "session_id", session.ID, "state", tag)
		}
		session.State = tag
	}

	switch {
	case update.Iteration == nil:
		session.Iteration++
	case *update.Iteration >= session.Iteration:
		session.Iteration = *update.Iteration
	default:
		slog.Warn("engine iteration went backwards, keeping current",
			"session_id", session.ID, "current", session.Iteration, "engine", *update.Iteration)
	}

	if update.SessionActive != nil && !*update.SessionActive {
		session.SessionActive = false
	}

	if update.GoalPreviewID != nil {
		id := *update.GoalPreviewID
		session.GoalPreviewID = &id
	}
}

// closeSession marks a session terminal after a successful finalization.
func closeSession(session *model.Session, update agent.StateUpdate) {
	session.SessionActive = false
	if update.State == nil {
		session.State = model.SessionStateFinalized
	}
}
