package store

import (
	"context"

	"taskhub/app/models"
)

// TaskStore persists tasks, subtasks and dependency edges. The rollup engine
// and the controllers both talk to this interface; the neo4j implementation
// below is the production store.
type TaskStore interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, projectID string) ([]models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) (string, error)
	UpdateTask(ctx context.Context, id string, fields map[string]any) error
	DeleteTask(ctx context.Context, id string) error

	GetSubtask(ctx context.Context, id string) (*models.Subtask, error)
	ListSubtasks(ctx context.Context, taskID string) ([]models.Subtask, error)
	CreateSubtask(ctx context.Context, sub *models.Subtask) (string, error)
	UpdateSubtask(ctx context.Context, id string, fields map[string]any) error
	DeleteSubtask(ctx context.Context, id string) error

	// ListDependencies returns the ids of the tasks the given task depends
	// on. Edges pointing at since-deleted tasks may be returned by store
	// implementations that do not cascade edge deletion.
	ListDependencies(ctx context.Context, taskID string) ([]string, error)
	AddDependency(ctx context.Context, taskID, dependsOnID string) error
	RemoveDependency(ctx context.Context, taskID, dependsOnID string) error

	// GetTaskStatus returns models.ErrNotFound for unknown ids.
	GetTaskStatus(ctx context.Context, taskID string) (models.Status, error)

	// ListOverdueTasks returns non-completed tasks whose planned end date is
	// strictly before the given date (YYYY-MM-DD).
	ListOverdueTasks(ctx context.Context, date string) ([]models.Task, error)
}

// taskFields and subtaskFields whitelist the property names UpdateTask and
// UpdateSubtask accept. Anything else in the fields map is rejected before a
// query is built from it.
var taskFields = map[string]bool{
	"project_id":    true,
	"title":         true,
	"description":   true,
	"status":        true,
	"priority":      true,
	"planned_start": true,
	"planned_end":   true,
	"actual_start":  true,
	"actual_end":    true,
	"planned_hours": true,
	"actual_hours":  true,
	"budget":        true,
	"actual_cost":   true,
	"assignee_id":   true,
	"recurrence":    true,
	"updated_by":    true,
}

var subtaskFields = map[string]bool{
	"title":         true,
	"status":        true,
	"priority":      true,
	"planned_start": true,
	"planned_end":   true,
	"actual_start":  true,
	"actual_end":    true,
	"planned_hours": true,
	"actual_hours":  true,
	"budget":        true,
	"actual_cost":   true,
	"assignee_id":   true,
	"updated_by":    true,
}
