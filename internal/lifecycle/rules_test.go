package lifecycle

import (
	"testing"
	"time"

	"crelo/internal/models"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func milestone(info string) Transition {
	return Transition{Action: models.ActivityMilestone, Info: info}
}

func TestEvaluate_Milestones(t *testing.T) {
	far := now.Add(30 * 24 * time.Hour)

	tests := []struct {
		name        string
		state       State
		wantLast    int
		wantEmit    []Transition
		wantRetract []Transition
	}{
		{
			name:     "first quarter crossed",
			state:    State{DueDate: far, Percentage: 26},
			wantLast: 25,
			wantEmit: []Transition{milestone("25")},
		},
		{
			name:     "several milestones in one evaluation",
			state:    State{DueDate: far, Percentage: 78, LastMilestone: 25},
			wantLast: 75,
			wantEmit: []Transition{milestone("50"), milestone("75")},
		},
		{
			name:     "jump from ten to ninety percent",
			state:    State{DueDate: far, Percentage: 90},
			wantLast: 75,
			wantEmit: []Transition{milestone("25"), milestone("50"), milestone("75")},
		},
		{
			name:     "exact boundary does not cross",
			state:    State{DueDate: far, Percentage: 25},
			wantLast: 0,
		},
		{
			name:     "over-funded reaches the final milestone",
			state:    State{DueDate: far, Percentage: 120.5, LastMilestone: 75},
			wantLast: 100,
			wantEmit: []Transition{milestone("100")},
		},
		{
			name:        "drop retracts passed milestones",
			state:       State{DueDate: far, Percentage: 40, LastMilestone: 75},
			wantLast:    25,
			wantRetract: []Transition{milestone("75"), milestone("50")},
		},
		{
			name:        "all pledges removed",
			state:       State{DueDate: far, Percentage: 0, LastMilestone: 50},
			wantLast:    0,
			wantRetract: []Transition{milestone("50"), milestone("25")},
		},
		{
			name:     "final milestone is frozen",
			state:    State{DueDate: far, Percentage: 10, LastMilestone: 100},
			wantLast: 100,
		},
		{
			name:     "closed project is a no-op",
			state:    State{DueDate: now.Add(-time.Hour), Percentage: 80, LastMilestone: 25},
			wantLast: 25,
		},
		{
			name:     "stable state",
			state:    State{DueDate: far, Percentage: 60, LastMilestone: 50},
			wantLast: 50,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			plan := Evaluate(tt.state, now)
			assert.Equal(t, tt.wantLast, plan.LastMilestone)
			assert.Equal(t, tt.wantEmit, plan.Emit)
			assert.Equal(t, tt.wantRetract, plan.Retract)
		})
	}
}

func TestEvaluate_LastChance(t *testing.T) {
	t.Run("posts once inside the window", func(t *testing.T) {
		state := State{Title: "Community Garden", DueDate: now.Add(3 * 24 * time.Hour)}

		plan := Evaluate(state, now)
		assert.True(t, plan.LastChanceTriggered)
		assert.Equal(t, []Transition{{
			Action: models.ActivityLastChance,
			Info:   "Community Garden closes in 3 days",
		}}, plan.Emit)
		assert.True(t, plan.Changed(state))

		state.LastChanceTriggered = plan.LastChanceTriggered
		again := Evaluate(state, now)
		assert.Empty(t, again.Emit)
		assert.Empty(t, again.Retract)
		assert.False(t, again.Changed(state))
	})

	t.Run("outside the window does nothing", func(t *testing.T) {
		plan := Evaluate(State{DueDate: now.Add(6 * 24 * time.Hour)}, now)
		assert.False(t, plan.LastChanceTriggered)
		assert.Empty(t, plan.Emit)
	})

	t.Run("moving the due date later retracts", func(t *testing.T) {
		state := State{DueDate: now.Add(20 * 24 * time.Hour), LastChanceTriggered: true}
		plan := Evaluate(state, now)
		assert.False(t, plan.LastChanceTriggered)
		assert.Equal(t, []Transition{{Action: models.ActivityLastChance}}, plan.Retract)
	})

	t.Run("closed project never posts", func(t *testing.T) {
		plan := Evaluate(State{DueDate: now.Add(-time.Minute)}, now)
		assert.False(t, plan.LastChanceTriggered)
		assert.Empty(t, plan.Emit)
	})

	t.Run("closed project keeps an earlier post", func(t *testing.T) {
		state := State{DueDate: now.Add(-time.Minute), LastChanceTriggered: true}
		plan := Evaluate(state, now)
		assert.True(t, plan.LastChanceTriggered)
		assert.False(t, plan.Changed(state))
	})
}

func TestEvaluate_MilestoneAndLastChanceTogether(t *testing.T) {
	state := State{Title: "Bridge", DueDate: now.Add(24 * time.Hour), Percentage: 55}
	plan := Evaluate(state, now)

	assert.Equal(t, 50, plan.LastMilestone)
	assert.Equal(t, []Transition{
		milestone("25"),
		milestone("50"),
		{Action: models.ActivityLastChance, Info: "Bridge closes in 1 day"},
	}, plan.Emit)
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name   string
		totals models.PledgeTotals
		goal   int64
		want   float64
	}{
		{"no pledges", models.PledgeTotals{}, 1000, 0},
		{"zero amount pledges still count", models.PledgeTotals{Amount: 0, Count: 1}, 1000, 0},
		{"quarter plus", models.PledgeTotals{Amount: 260, Count: 2}, 1000, 26},
		{"rounded to one decimal", models.PledgeTotals{Amount: 1, Count: 1}, 3, 33.3},
		{"rounds up", models.PledgeTotals{Amount: 2, Count: 1}, 3, 66.7},
		{"over goal", models.PledgeTotals{Amount: 1500, Count: 3}, 1000, 150},
		{"invalid goal", models.PledgeTotals{Amount: 10, Count: 1}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.totals, tt.goal))
		})
	}
}

func TestStateOf(t *testing.T) {
	p := &models.Project{
		Title:               "Library",
		GoalAmount:          1000,
		DueDate:             now,
		LastMilestone:       25,
		LastChanceTriggered: true,
	}
	s := StateOf(p, models.PledgeTotals{Amount: 780, Count: 4})
	assert.Equal(t, 78.0, s.Percentage)
	assert.Equal(t, 25, s.LastMilestone)
	assert.True(t, s.LastChanceTriggered)
	assert.Equal(t, "Library", s.Title)
}

func TestLastChanceInfo(t *testing.T) {
	assert.Equal(t, "Fair closes in 1 day", LastChanceInfo("Fair", now.Add(2*time.Hour), now))
	assert.Equal(t, "Fair closes in 5 days", LastChanceInfo("Fair", now.Add(4*24*time.Hour+time.Hour), now))
}
