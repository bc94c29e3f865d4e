package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gritto/gritto/internal/repository"
)

// planRequest is what a finalize action hands to the plan source strategies.
type planRequest struct {
	userID    string
	payload   map[string]any
	previewID string
}

// planSource resolves the plan document to commit. ok is false when the
// strategy has nothing to offer.
type planSource struct {
	name    string
	resolve func(ctx context.Context, req planRequest) (doc map[string]any, ok bool, err error)
}

// planSources returns the resolution strategies in priority order. The first
// one yielding a document that carries plan content wins.
func (c *FinalizationCommitter) planSources() []planSource {
	return []planSource{
		{name: "embedded_goal_preview", resolve: embeddedDoc("goalPreview")},
		{name: "embedded_plan", resolve: embeddedDoc("plan")},
		{name: "stored_preview", resolve: c.storedPreview},
		{name: "raw_payload", resolve: rawPayload},
	}
}

// resolvePlan walks the strategies and reports which one produced the plan.
func (c *FinalizationCommitter) resolvePlan(ctx context.Context, req planRequest) (map[string]any, string, error) {
	for _, src := range c.planSources() {
		doc, ok, err := src.resolve(ctx, req)
		if err != nil {
			return nil, "", err
		}
		if ok {
			return doc, src.name, nil
		}
	}
	return map[string]any{}, "raw_payload", nil
}

func embeddedDoc(key string) func(context.Context, planRequest) (map[string]any, bool, error) {
	return func(_ context.Context, req planRequest) (map[string]any, bool, error) {
		doc, ok := req.payload[key].(map[string]any)
		if !ok || !hasPlanContent(doc) {
			return nil, false, nil
		}
		return doc, true, nil
	}
}

func (c *FinalizationCommitter) storedPreview(ctx context.Context, req planRequest) (map[string]any, bool, error) {
	for _, id := range previewIDCandidates(req) {
		preview, err := c.previews.ByID(ctx, id)
		if errors.Is(err, repository.ErrGoalPreviewNotFound) {
			slog.Warn("finalize references missing goal preview", "goal_preview_id", id)
			continue
		}
		if err != nil {
			return nil, false, lookupErr(err, repository.ErrGoalPreviewNotFound, "goal preview")
		}
		if preview.UserID != req.userID {
			slog.Warn("finalize references foreign goal preview", "goal_preview_id", id, "user_id", req.userID)
			continue
		}
		if hasPlanContent(preview.Payload) {
			return preview.Payload.Clone(), true, nil
		}
	}
	return nil, false, nil
}

func rawPayload(_ context.Context, req planRequest) (map[string]any, bool, error) {
	if req.payload == nil {
		return nil, false, nil
	}
	return req.payload, true, nil
}

// previewIDCandidates lists preview ids referenced by the payload, then the
// session's current preview.
func previewIDCandidates(req planRequest) []string {
	var ids []string
	seen := map[string]bool{}
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if id, ok := req.payload["goalPreviewId"].(string); ok {
		add(id)
	}
	if embedded, ok := req.payload["goalPreview"].(map[string]any); ok {
		if id, ok := embedded["id"].(string); ok {
			add(id)
		}
	}
	add(req.previewID)
	return ids
}

// hasPlanContent reports whether doc describes a goal rather than just
// referencing one.
func hasPlanContent(doc map[string]any) bool {
	for _, key := range []string{"goal", "milestones", "title"} {
		if v, ok := doc[key]; ok && v != nil {
			return true
		}
	}
	return false
}

