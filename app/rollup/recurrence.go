package rollup

import (
	"context"
	"fmt"
	"time"

	"taskhub/app/models"
)

// recurrenceDays maps a rule to its deadline shift. Monthly is a fixed 30
// days, not calendar-month aware.
var recurrenceDays = map[models.Recurrence]int{
	models.RecurrenceDaily:   1,
	models.RecurrenceWeekly:  7,
	models.RecurrenceMonthly: 30,
}

// SpawnNextOccurrence creates the next occurrence of a recurring task that
// has just been completed: same project, title, description, priority,
// assignee and recurrence, status reset to pending, deadline shifted by the
// rule's interval. Subtasks, attachments and dependencies are not copied;
// the new occurrence starts bare.
//
// Returns (nil, nil) for a task without a recurrence rule. An unrecognized
// rule or an unparseable deadline is a validation error and nothing is
// created.
func (e *Engine) SpawnNextOccurrence(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task.Recurrence == models.RecurrenceNone {
		return nil, nil
	}

	days, ok := recurrenceDays[task.Recurrence]
	if !ok {
		return nil, &models.ValidationError{Field: "recurrence", Reason: fmt.Sprintf("unrecognized rule %q", task.Recurrence)}
	}

	deadline, err := time.Parse(models.DateLayout, task.PlannedEnd)
	if err != nil {
		return nil, &models.ValidationError{Field: "planned_end", Reason: "recurring task has no parseable deadline"}
	}

	next := &models.Task{
		ProjectID:   task.ProjectID,
		Title:       task.Title,
		Description: task.Description,
		Status:      models.StatusPending,
		Priority:    task.Priority,
		PlannedEnd:  deadline.AddDate(0, 0, days).Format(models.DateLayout),
		AssigneeID:  task.AssigneeID,
		Recurrence:  task.Recurrence,
	}

	if _, err := e.store.CreateTask(ctx, next); err != nil {
		return nil, fmt.Errorf("spawn next occurrence of task %s: %w", task.ID, err)
	}
	return next, nil
}
