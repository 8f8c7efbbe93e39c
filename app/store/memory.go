package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"taskhub/app/models"
)

// MemoryStore is an in-process TaskStore used by tests and local tooling.
// Unlike the graph store it does not cascade dependency-edge deletion, so
// edges can legitimately dangle at deleted tasks; the resolver is expected
// to treat those as unsatisfied.
type MemoryStore struct {
	mu        sync.RWMutex
	tasks     map[string]models.Task
	subtasks  map[string]models.Subtask
	deps      map[string][]string
	updatedBy map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:     make(map[string]models.Task),
		subtasks:  make(map[string]models.Subtask),
		deps:      make(map[string][]string),
		updatedBy: make(map[string]string),
	}
}

// LastUpdatedBy returns the actor recorded by the most recent write to the
// given task or subtask id.
func (s *MemoryStore) LastUpdatedBy(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedBy[id]
}

func (s *MemoryStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &task, nil
}

func (s *MemoryStore) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tasks []models.Task
	for _, task := range s.tasks {
		if projectID == "" || task.ProjectID == projectID {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Title < tasks[j].Title })
	return tasks, nil
}

func (s *MemoryStore) CreateTask(ctx context.Context, task *models.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = *task
	return task.ID, nil
}

func (s *MemoryStore) UpdateTask(ctx context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return models.ErrNotFound
	}
	for key, value := range fields {
		if !taskFields[key] {
			return &models.ValidationError{Field: key, Reason: "unknown field"}
		}
		switch key {
		case "project_id":
			task.ProjectID = asString(value)
		case "title":
			task.Title = asString(value)
		case "description":
			task.Description = asString(value)
		case "status":
			task.Status = models.Status(asString(value))
		case "priority":
			task.Priority = models.Priority(asString(value))
		case "planned_start":
			task.PlannedStart = asString(value)
		case "planned_end":
			task.PlannedEnd = asString(value)
		case "actual_start":
			task.ActualStart = asString(value)
		case "actual_end":
			task.ActualEnd = asString(value)
		case "planned_hours":
			task.PlannedHours = asFloat(value)
		case "actual_hours":
			task.ActualHours = asFloat(value)
		case "budget":
			task.Budget = asFloat(value)
		case "actual_cost":
			task.ActualCost = asFloat(value)
		case "assignee_id":
			task.AssigneeID = asString(value)
		case "recurrence":
			task.Recurrence = models.Recurrence(asString(value))
		case "updated_by":
			s.updatedBy[id] = asString(value)
		}
	}
	s.tasks[id] = task
	return nil
}

// DeleteTask removes the task and its subtasks. Its own outgoing edges go
// too; edges other tasks hold towards it stay behind and dangle.
func (s *MemoryStore) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	delete(s.deps, id)
	for subID, sub := range s.subtasks {
		if sub.TaskID == id {
			delete(s.subtasks, subID)
		}
	}
	return nil
}

func (s *MemoryStore) GetSubtask(ctx context.Context, id string) (*models.Subtask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subtasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &sub, nil
}

func (s *MemoryStore) ListSubtasks(ctx context.Context, taskID string) ([]models.Subtask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var subs []models.Subtask
	for _, sub := range s.subtasks {
		if sub.TaskID == taskID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Title < subs[j].Title })
	return subs, nil
}

func (s *MemoryStore) CreateSubtask(ctx context.Context, sub *models.Subtask) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[sub.TaskID]; !ok {
		return "", models.ErrNotFound
	}
	s.subtasks[sub.ID] = *sub
	return sub.ID, nil
}

func (s *MemoryStore) UpdateSubtask(ctx context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subtasks[id]
	if !ok {
		return models.ErrNotFound
	}
	for key, value := range fields {
		if !subtaskFields[key] {
			return &models.ValidationError{Field: key, Reason: "unknown field"}
		}
		switch key {
		case "title":
			sub.Title = asString(value)
		case "status":
			sub.Status = models.Status(asString(value))
		case "priority":
			sub.Priority = models.Priority(asString(value))
		case "planned_start":
			sub.PlannedStart = asString(value)
		case "planned_end":
			sub.PlannedEnd = asString(value)
		case "actual_start":
			sub.ActualStart = asString(value)
		case "actual_end":
			sub.ActualEnd = asString(value)
		case "planned_hours":
			sub.PlannedHours = asFloat(value)
		case "actual_hours":
			sub.ActualHours = asFloat(value)
		case "budget":
			sub.Budget = asFloat(value)
		case "actual_cost":
			sub.ActualCost = asFloat(value)
		case "assignee_id":
			sub.AssigneeID = asString(value)
		case "updated_by":
			s.updatedBy[id] = asString(value)
		}
	}
	s.subtasks[id] = sub
	return nil
}

func (s *MemoryStore) DeleteSubtask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subtasks, id)
	return nil
}

func (s *MemoryStore) ListDependencies(ctx context.Context, taskID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deps := make([]string, len(s.deps[taskID]))
	copy(deps, s.deps[taskID])
	return deps, nil
}

func (s *MemoryStore) AddDependency(ctx context.Context, taskID, dependsOnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[taskID]; !ok {
		return models.ErrNotFound
	}
	if _, ok := s.tasks[dependsOnID]; !ok {
		return models.ErrNotFound
	}
	for _, existing := range s.deps[taskID] {
		if existing == dependsOnID {
			return nil
		}
	}
	s.deps[taskID] = append(s.deps[taskID], dependsOnID)
	return nil
}

func (s *MemoryStore) RemoveDependency(ctx context.Context, taskID, dependsOnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	deps := s.deps[taskID]
	for i, existing := range deps {
		if existing == dependsOnID {
			s.deps[taskID] = append(deps[:i], deps[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) GetTaskStatus(ctx context.Context, taskID string) (models.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return "", models.ErrNotFound
	}
	return task.Status, nil
}

func (s *MemoryStore) ListOverdueTasks(ctx context.Context, date string) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tasks []models.Task
	for _, task := range s.tasks {
		if task.PlannedEnd != "" && task.PlannedEnd < date && task.Status != models.StatusCompleted {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].PlannedEnd < tasks[j].PlannedEnd })
	return tasks, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
