package rollup

import (
	"context"
	"errors"
	"fmt"

	"taskhub/app/models"
)

// CanComplete reports whether every task the given task depends on is
// completed. A task with no dependencies can always complete. This is a
// pure read; the caller is responsible for invoking it before persisting a
// completed status.
//
// A dependency edge pointing at a task that no longer exists counts as
// unsatisfied rather than failing the call.
func (e *Engine) CanComplete(ctx context.Context, taskID string) (bool, error) {
	deps, err := e.store.ListDependencies(ctx, taskID)
	if err != nil {
		return false, fmt.Errorf("resolve dependencies for task %s: %w", taskID, err)
	}

	for _, depID := range deps {
		status, err := e.store.GetTaskStatus(ctx, depID)
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("resolve dependency %s of task %s: %w", depID, taskID, err)
		}
		if status != models.StatusCompleted {
			return false, nil
		}
	}
	return true, nil
}

// AddDependency records that taskID may not complete before dependsOnID,
// rejecting self-references and edges that would close a cycle. Without the
// cycle check every task on the loop would silently become impossible to
// complete.
func (e *Engine) AddDependency(ctx context.Context, taskID, dependsOnID string) error {
	if taskID == dependsOnID {
		return &models.ValidationError{Field: "depends_on_id", Reason: "task cannot depend on itself"}
	}

	reachable, err := e.dependsTransitively(ctx, dependsOnID, taskID, make(map[string]bool))
	if err != nil {
		return fmt.Errorf("validate dependency %s -> %s: %w", taskID, dependsOnID, err)
	}
	if reachable {
		return &models.ValidationError{Field: "depends_on_id", Reason: "dependency would create a cycle"}
	}

	return e.store.AddDependency(ctx, taskID, dependsOnID)
}

// dependsTransitively walks DEPENDS_ON edges depth-first from src and
// reports whether dst is reachable.
func (e *Engine) dependsTransitively(ctx context.Context, src, dst string, visited map[string]bool) (bool, error) {
	if src == dst {
		return true, nil
	}
	if visited[src] {
		return false, nil
	}
	visited[src] = true

	deps, err := e.store.ListDependencies(ctx, src)
	if err != nil {
		return false, err
	}
	for _, depID := range deps {
		found, err := e.dependsTransitively(ctx, depID, dst, visited)
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}
