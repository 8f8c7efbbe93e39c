package rollup

import (
	"context"
	"fmt"
	"log"
	"time"

	"taskhub/app/models"
)

// AggregateResult holds the recomputed temporal and financial fields of a
// parent task after a rollup. Dates use models.DateLayout; empty means
// unset.
type AggregateResult struct {
	PlannedStart string  `json:"planned_start"`
	PlannedEnd   string  `json:"planned_end"`
	ActualStart  string  `json:"actual_start"`
	ActualEnd    string  `json:"actual_end"`
	PlannedHours float64 `json:"planned_hours"`
	ActualHours  float64 `json:"actual_hours"`
	Budget       float64 `json:"budget"`
	ActualCost   float64 `json:"actual_cost"`
}

// BudgetVariance is budget minus actual cost, recomputed on demand.
func (r *AggregateResult) BudgetVariance() float64 {
	return r.Budget - r.ActualCost
}

// RollupTemporalAndFinancial recomputes a task's planned/actual window,
// time and money fields from its subtasks and persists every changed field
// in one write.
//
// Dates widen or get adopted, never narrowed: planned start only moves
// earlier, planned end only later. A subtask contributes to the actual
// window only when both its actual start and actual end are set. Hours,
// budget and cost are sums over the subtasks and replace the task's own
// values, since the subtasks are the full decomposition of the effort.
//
// Returns nil when the task has no subtasks or nothing changed. A subtask
// with a malformed date loses that field's contribution but never aborts
// the rollup for its siblings.
func (e *Engine) RollupTemporalAndFinancial(ctx context.Context, taskID, actor string) (*AggregateResult, error) {
	unlock := e.locks.lock(taskID)
	defer unlock()

	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("rollup aggregates for task %s: %w", taskID, err)
	}

	subs, err := e.store.ListSubtasks(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("rollup aggregates for task %s: %w", taskID, err)
	}
	if len(subs) == 0 {
		return nil, nil
	}

	agg := &AggregateResult{
		PlannedStart: validDate(task.PlannedStart),
		PlannedEnd:   validDate(task.PlannedEnd),
		ActualStart:  validDate(task.ActualStart),
		ActualEnd:    validDate(task.ActualEnd),
	}

	for _, sub := range subs {
		if d, ok := subDate(sub.ID, "planned_start", sub.PlannedStart); ok {
			agg.PlannedStart = minDate(agg.PlannedStart, d)
		}
		if d, ok := subDate(sub.ID, "planned_end", sub.PlannedEnd); ok {
			agg.PlannedEnd = maxDate(agg.PlannedEnd, d)
		}

		// The actual window needs both ends of the pair.
		start, okStart := subDate(sub.ID, "actual_start", sub.ActualStart)
		end, okEnd := subDate(sub.ID, "actual_end", sub.ActualEnd)
		if okStart && okEnd {
			agg.ActualStart = minDate(agg.ActualStart, start)
			agg.ActualEnd = maxDate(agg.ActualEnd, end)
		}

		agg.PlannedHours += sub.PlannedHours
		agg.ActualHours += sub.ActualHours
		agg.Budget += sub.Budget
		agg.ActualCost += sub.ActualCost
	}

	fields := changedFields(task, agg)
	if len(fields) == 0 {
		return nil, nil
	}
	if actor != "" {
		fields["updated_by"] = actor
	}
	if err := e.store.UpdateTask(ctx, taskID, fields); err != nil {
		return nil, fmt.Errorf("rollup aggregates for task %s: %w", taskID, err)
	}
	return agg, nil
}

// changedFields diffs the recomputed values against the stored row. Date
// fields are only ever written with a concrete value; the rollup widens or
// adopts dates, it never blanks one.
func changedFields(task *models.Task, agg *AggregateResult) map[string]any {
	fields := make(map[string]any)
	if agg.PlannedStart != "" && agg.PlannedStart != task.PlannedStart {
		fields["planned_start"] = agg.PlannedStart
	}
	if agg.PlannedEnd != "" && agg.PlannedEnd != task.PlannedEnd {
		fields["planned_end"] = agg.PlannedEnd
	}
	if agg.ActualStart != "" && agg.ActualStart != task.ActualStart {
		fields["actual_start"] = agg.ActualStart
	}
	if agg.ActualEnd != "" && agg.ActualEnd != task.ActualEnd {
		fields["actual_end"] = agg.ActualEnd
	}
	if agg.PlannedHours != task.PlannedHours {
		fields["planned_hours"] = agg.PlannedHours
	}
	if agg.ActualHours != task.ActualHours {
		fields["actual_hours"] = agg.ActualHours
	}
	if agg.Budget != task.Budget {
		fields["budget"] = agg.Budget
	}
	if agg.ActualCost != task.ActualCost {
		fields["actual_cost"] = agg.ActualCost
	}
	return fields
}

// subDate parses a subtask date field, logging and skipping malformed
// values so one corrupt subtask cannot poison the rollup.
func subDate(subID, field, value string) (string, bool) {
	if value == "" {
		return "", false
	}
	if _, err := time.Parse(models.DateLayout, value); err != nil {
		log.Printf("[rollup] subtask %s: skipping malformed %s %q", subID, field, value)
		return "", false
	}
	return value, true
}

// validDate returns the value when it parses, empty otherwise. A task's own
// malformed date is treated as unset so the subtasks can adopt the field.
func validDate(value string) string {
	if value == "" {
		return ""
	}
	if _, err := time.Parse(models.DateLayout, value); err != nil {
		return ""
	}
	return value
}

// minDate and maxDate compare YYYY-MM-DD strings; the layout makes
// lexicographic order equal to chronological order. Empty means unset and
// always loses.
func minDate(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" || a <= b {
		return a
	}
	return b
}

func maxDate(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" || a >= b {
		return a
	}
	return b
}
