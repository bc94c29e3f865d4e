package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStateTag_Known(t *testing.T) {
	assert.True(t, SessionStatePlanIteration.Known())
	assert.True(t, SessionStateFinalized.IsTerminal())
	assert.False(t, SessionStateTag("awaiting_review").Known())
	assert.False(t, SessionStateTag("awaiting_review").IsTerminal())
}

func TestPlanningContext_ScanRoundTrip(t *testing.T) {
	in := PlanningContext{
		AvailableHoursLeft: 4.5,
		UpcomingTasks:      []UpcomingTask{{ID: "t1", Title: "Read", Date: "2025-11-10", EstimatedHours: 1}},
	}
	v, err := in.Value()
	require.NoError(t, err)

	var out PlanningContext
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)
}

func TestPlanningContext_ValueNeverNullTasks(t *testing.T) {
	v, err := PlanningContext{AvailableHoursLeft: 3}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"availableHoursLeft":3,"upcomingTasks":[]}`, v.(string))
}

func TestJSONMap_CloneIsDeep(t *testing.T) {
	m := JSONMap{"goal": map[string]any{"title": "Learn Go"}}
	c := m.Clone()
	c["goal"].(map[string]any)["title"] = "changed"
	assert.Equal(t, "Learn Go", m["goal"].(map[string]any)["title"])
}

func TestJSONMap_ScanNil(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)
}
