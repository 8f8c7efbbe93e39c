package rollup

import (
	"context"
	"fmt"

	"taskhub/app/models"
)

// RollupStatus derives a task's status from its subtasks and persists it
// when it differs from the stored value. The returned bool reports whether
// a write happened; callers use it to decide whether downstream actions
// (recurrence spawning, notifications) should fire.
//
// A task with no subtasks is left untouched.
func (e *Engine) RollupStatus(ctx context.Context, taskID, actor string) (models.Status, bool, error) {
	unlock := e.locks.lock(taskID)
	defer unlock()

	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return "", false, fmt.Errorf("rollup status for task %s: %w", taskID, err)
	}

	subs, err := e.store.ListSubtasks(ctx, taskID)
	if err != nil {
		return "", false, fmt.Errorf("rollup status for task %s: %w", taskID, err)
	}
	if len(subs) == 0 {
		return task.Status, false, nil
	}

	derived := deriveStatus(subs)
	if derived == task.Status {
		return derived, false, nil
	}

	fields := map[string]any{"status": string(derived)}
	if actor != "" {
		fields["updated_by"] = actor
	}
	if err := e.store.UpdateTask(ctx, taskID, fields); err != nil {
		return "", false, fmt.Errorf("rollup status for task %s: %w", taskID, err)
	}
	return derived, true, nil
}

// deriveStatus maps a non-empty subtask set to the parent status: completed
// when every subtask is completed, in_progress when any subtask is, pending
// otherwise (pending and on_hold subtasks both land here).
func deriveStatus(subs []models.Subtask) models.Status {
	allCompleted := true
	anyInProgress := false
	for _, sub := range subs {
		if sub.Status != models.StatusCompleted {
			allCompleted = false
		}
		if sub.Status == models.StatusInProgress {
			anyInProgress = true
		}
	}
	switch {
	case allCompleted:
		return models.StatusCompleted
	case anyInProgress:
		return models.StatusInProgress
	default:
		return models.StatusPending
	}
}
