package service

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/gritto/gritto/internal/model"
	"github.com/gritto/gritto/internal/validation"
)

// fieldDefault is applied when an engine-supplied plan field is missing
// (absent or null) or invalid (wrong type, blank, out of range).
type fieldDefault struct {
	missing any
	invalid any
}

// sumOfTaskHours marks the goal hours default: the total of its task estimates.
type sumOfTaskHours struct{}

// today marks the task date default: the current UTC calendar date.
type today struct{}

var planDefaults = map[string]fieldDefault{
	"goal.title":           {missing: "Untitled Goal", invalid: "Untitled Goal"},
	"goal.description":     {missing: "", invalid: ""},
	"goal.minHoursPerWeek": {missing: sumOfTaskHours{}, invalid: sumOfTaskHours{}},
	"goal.priority":        {missing: 0.0, invalid: 0.0},
	"goal.color":           {missing: "", invalid: ""},
	"milestone.title":      {missing: "Milestone", invalid: "Milestone"},
	"milestone.desc":       {missing: "", invalid: ""},
	"milestone.status":     {missing: model.MilestoneStatusInProgress, invalid: model.MilestoneStatusInProgress},
	"task.title":           {missing: "Task", invalid: "Task"},
	"task.description":     {missing: "", invalid: ""},
	"task.date":            {missing: today{}, invalid: today{}},
	"task.estimatedHours":  {missing: 0.0, invalid: 0.0},
	"task.done":            {missing: false, invalid: false},
}

type planGoal struct {
	Title       string
	Description string
	Hours       float64
	Priority    int
	Color       string
}

type planMilestone struct {
	Title       string
	Description string
	Status      string
	Tasks       []planTask
}

type planTask struct {
	Title          string
	Description    string
	Date           string
	EstimatedHours float64
	Done           bool
}

type plan struct {
	Goal       planGoal
	Milestones []planMilestone
}

// coercePlan turns a loosely-typed engine plan into a persistable one. The
// goal may sit under "goal" or at the top level of doc.
func coercePlan(doc map[string]any, now time.Time) plan {
	goalDoc, ok := doc["goal"].(map[string]any)
	if !ok {
		goalDoc = doc
	}

	var p plan
	for _, raw := range asList(doc["milestones"]) {
		m, ok := raw.(map[string]any)
		if !ok {
			slog.Debug("skipping malformed milestone in plan", "value", raw)
			continue
		}
		p.Milestones = append(p.Milestones, coerceMilestone(m, now))
	}

	p.Goal = planGoal{
		Title:       coerceString(goalDoc, "title", "goal.title"),
		Description: coerceString(goalDoc, "description", "goal.description"),
		Priority:    int(coerceNumber(goalDoc, "priority", "goal.priority", 0)),
		Color:       coerceString(goalDoc, "color", "goal.color"),
	}

	// goal.minHoursPerWeek falls back to sumOfTaskHours.
	hours, explicit := lookupNumber(goalDoc, "minHoursPerWeek")
	if !explicit || hours < 0 || hours > model.MaxHoursPerWeek {
		hours = p.taskHours()
	}
	p.Goal.Hours = hours

	return p
}

func coerceMilestone(doc map[string]any, now time.Time) planMilestone {
	m := planMilestone{
		Title:       coerceString(doc, "title", "milestone.title"),
		Description: coerceString(doc, "description", "milestone.desc"),
		Status:      coerceString(doc, "status", "milestone.status"),
	}
	if !model.IsValidMilestoneStatus(m.Status) {
		m.Status = planDefaults["milestone.status"].invalid.(string)
	}

	for _, raw := range asList(doc["tasks"]) {
		t, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		m.Tasks = append(m.Tasks, planTask{
			Title:          coerceString(t, "title", "task.title"),
			Description:    coerceString(t, "description", "task.description"),
			Date:           coerceDate(t, "date", "task.date", now),
			EstimatedHours: coerceNumber(t, "estimatedHours", "task.estimatedHours", 0),
			Done:           coerceBool(t, "done", "task.done"),
		})
	}
	return m
}

func (p plan) taskHours() float64 {
	var total float64
	for _, m := range p.Milestones {
		for _, t := range m.Tasks {
			total += t.EstimatedHours
		}
	}
	return total
}

func coerceString(doc map[string]any, key, field string) string {
	v, ok := doc[key]
	if !ok || v == nil {
		return planDefaults[field].missing.(string)
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return planDefaults[field].invalid.(string)
	}
	return strings.TrimSpace(s)
}

// coerceNumber reads a finite number no smaller than floor.
func coerceNumber(doc map[string]any, key, field string, floor float64) float64 {
	v, ok := doc[key]
	if !ok || v == nil {
		return planDefaults[field].missing.(float64)
	}
	n, ok := v.(float64)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) || n < floor {
		return planDefaults[field].invalid.(float64)
	}
	return n
}

func lookupNumber(doc map[string]any, key string) (float64, bool) {
	n, ok := doc[key].(float64)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func coerceBool(doc map[string]any, key, field string) bool {
	v, ok := doc[key]
	if !ok || v == nil {
		return planDefaults[field].missing.(bool)
	}
	b, ok := v.(bool)
	if !ok {
		return planDefaults[field].invalid.(bool)
	}
	return b
}

func coerceDate(doc map[string]any, key, field string, now time.Time) string {
	v, ok := doc[key]
	if !ok || v == nil {
		return dateDefault(planDefaults[field].missing, now)
	}
	s, ok := v.(string)
	if !ok {
		return dateDefault(planDefaults[field].invalid, now)
	}
	date, err := validation.NormalizeDate(s)
	if err != nil {
		slog.Debug("invalid task date in plan", "field", field, "value", s)
		return dateDefault(planDefaults[field].invalid, now)
	}
	return date
}

func dateDefault(d any, now time.Time) string {
	if s, ok := d.(string); ok {
		return s
	}
	return now.UTC().Format(model.DateLayout)
}

func asList(v any) []any {
	list, _ := v.([]any)
	return list
}
