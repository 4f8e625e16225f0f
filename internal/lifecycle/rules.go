// Package lifecycle derives the milestone and last-chance transitions of a
// project from its pledged percentage and due date.
//
// Evaluate is pure: it never touches storage. Callers persist the returned
// Plan (counter updates plus activities to create and delete) in the same
// transaction as the mutation that triggered the evaluation.
package lifecycle

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"crelo/internal/models"
)

const (
	// MilestoneStep is the percentage distance between milestones.
	MilestoneStep = 25
	// MaxMilestone is the final milestone; projects at it are frozen.
	MaxMilestone = 100
	// LastChanceWindow is how long before the due date the last-chance
	// activity is posted.
	LastChanceWindow = 5 * 24 * time.Hour
)

// State is the slice of a project the rules read.
type State struct {
	Title               string
	DueDate             time.Time
	Percentage          float64
	LastMilestone       int
	LastChanceTriggered bool
}

// Transition is one activity to post or retract.
type Transition struct {
	Action models.ActivityAction
	// Info identifies the activity. Empty on a retraction matches any info.
	Info string
}

// Plan is the outcome of an evaluation.
type Plan struct {
	LastMilestone       int
	LastChanceTriggered bool
	Emit                []Transition
	Retract             []Transition
}

// Changed reports whether applying the plan would modify anything.
func (p Plan) Changed(s State) bool {
	return p.LastMilestone != s.LastMilestone ||
		p.LastChanceTriggered != s.LastChanceTriggered ||
		len(p.Emit) > 0 ||
		len(p.Retract) > 0
}

// StateOf builds the rule input for a project with the given pledge totals.
func StateOf(p *models.Project, totals models.PledgeTotals) State {
	return State{
		Title:               p.Title,
		DueDate:             p.DueDate,
		Percentage:          Percentage(totals, p.GoalAmount),
		LastMilestone:       p.LastMilestone,
		LastChanceTriggered: p.LastChanceTriggered,
	}
}

// Evaluate applies the milestone and last-chance rules to s at now.
// A single evaluation may cross several milestones in either direction.
func Evaluate(s State, now time.Time) Plan {
	plan := Plan{
		LastMilestone:       s.LastMilestone,
		LastChanceTriggered: s.LastChanceTriggered,
	}
	open := s.DueDate.After(now)

	if open && plan.LastMilestone < MaxMilestone {
		for plan.LastMilestone < MaxMilestone && s.Percentage > float64(plan.LastMilestone+MilestoneStep) {
			plan.LastMilestone += MilestoneStep
			plan.Emit = append(plan.Emit, Transition{
				Action: models.ActivityMilestone,
				Info:   strconv.Itoa(plan.LastMilestone),
			})
		}
		for plan.LastMilestone > 0 && s.Percentage < float64(plan.LastMilestone) {
			plan.Retract = append(plan.Retract, Transition{
				Action: models.ActivityMilestone,
				Info:   strconv.Itoa(plan.LastMilestone),
			})
			plan.LastMilestone -= MilestoneStep
		}
	}

	windowOpens := s.DueDate.Add(-LastChanceWindow)
	switch {
	case open && !plan.LastChanceTriggered && windowOpens.Before(now):
		plan.LastChanceTriggered = true
		plan.Emit = append(plan.Emit, Transition{
			Action: models.ActivityLastChance,
			Info:   LastChanceInfo(s.Title, s.DueDate, now),
		})
	case plan.LastChanceTriggered && !windowOpens.Before(now):
		plan.LastChanceTriggered = false
		plan.Retract = append(plan.Retract, Transition{Action: models.ActivityLastChance})
	}

	return plan
}

// LastChanceInfo renders the feed text for a last-chance activity.
func LastChanceInfo(title string, due, now time.Time) string {
	days := int(math.Ceil(due.Sub(now).Hours() / 24))
	if days <= 1 {
		return fmt.Sprintf("%s closes in 1 day", title)
	}
	return fmt.Sprintf("%s closes in %d days", title, days)
}

// Percentage returns the pledged share of goal, rounded to one decimal.
// It is 0 when there are no pledges.
func Percentage(totals models.PledgeTotals, goal int64) float64 {
	if totals.Count == 0 || goal <= 0 {
		return 0
	}
	return Round(float64(totals.Amount)/float64(goal)*100, 1)
}

// Round rounds x half away from zero to the given number of decimals.
func Round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
