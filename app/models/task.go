package models

// Status of a task or subtask. A task with subtasks never holds an
// independent status: the rollup derives it from the subtasks.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusOnHold     Status = "on_hold"
)

// Priority of a task or subtask.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recurrence rule. Completing a task with a non-empty rule spawns the next
// occurrence with a shifted due date.
type Recurrence string

const (
	RecurrenceNone    Recurrence = ""
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// DateLayout is the wire format for all task dates. An empty string means
// the date is unset.
const DateLayout = "2006-01-02"

// Task represents a top-level unit of work within a project.
type Task struct {
	ID           string     `json:"id"`
	ProjectID    string     `json:"project_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       Status     `json:"status"`
	Priority     Priority   `json:"priority"`
	PlannedStart string     `json:"planned_start"`
	PlannedEnd   string     `json:"planned_end"`
	ActualStart  string     `json:"actual_start"`
	ActualEnd    string     `json:"actual_end"`
	PlannedHours float64    `json:"planned_hours"`
	ActualHours  float64    `json:"actual_hours"`
	Budget       float64    `json:"budget"`
	ActualCost   float64    `json:"actual_cost"`
	AssigneeID   string     `json:"assignee_id"`
	Recurrence   Recurrence `json:"recurrence"`
}

// BudgetVariance is budget minus actual cost; positive means under budget.
// It is always recomputed, never stored.
func (t *Task) BudgetVariance() float64 {
	return t.Budget - t.ActualCost
}

// Subtask is a decomposition unit of a Task. It contributes to, but never
// independently overrides, its parent's rolled-up status, dates and budget.
type Subtask struct {
	ID           string   `json:"id"`
	TaskID       string   `json:"task_id"`
	Title        string   `json:"title"`
	Status       Status   `json:"status"`
	Priority     Priority `json:"priority"`
	PlannedStart string   `json:"planned_start"`
	PlannedEnd   string   `json:"planned_end"`
	ActualStart  string   `json:"actual_start"`
	ActualEnd    string   `json:"actual_end"`
	PlannedHours float64  `json:"planned_hours"`
	ActualHours  float64  `json:"actual_hours"`
	Budget       float64  `json:"budget"`
	ActualCost   float64  `json:"actual_cost"`
	AssigneeID   string   `json:"assignee_id"`
}

// Dependency is a directed edge: TaskID may not be marked completed until
// DependsOnID is completed.
type Dependency struct {
	TaskID      string `json:"task_id"`
	DependsOnID string `json:"depends_on_id"`
}

// ValidStatus reports whether s is one of the known status values.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

// ValidRecurrence reports whether r is empty or one of the known rules.
func ValidRecurrence(r Recurrence) bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}
