package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"taskhub/app/models"
)

// Neo4jStore implements TaskStore on top of a neo4j graph. Tasks and
// subtasks are nodes; subtask ownership and dependency constraints are
// relationships:
//
//	(:Subtask)-[:SUBTASK_OF]->(:Task)
//	(:Task)-[:DEPENDS_ON]->(:Task)
type Neo4jStore struct {
	driver neo4j.DriverWithContext
}

// NewNeo4jStore creates a store backed by the given driver.
func NewNeo4jStore(driver neo4j.DriverWithContext) *Neo4jStore {
	return &Neo4jStore{driver: driver}
}

// EnsureConstraints creates the uniqueness constraints the store relies on.
// Safe to run repeatedly.
func (s *Neo4jStore) EnsureConstraints(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, q := range []string{
			"CREATE CONSTRAINT task_id IF NOT EXISTS FOR (t:Task) REQUIRE t.id IS UNIQUE",
			"CREATE CONSTRAINT subtask_id IF NOT EXISTS FOR (s:Subtask) REQUIRE s.id IS UNIQUE",
		} {
			if _, err := tx.Run(ctx, q, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// GetTask retrieves a single task by id.
func (s *Neo4jStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id}) RETURN t",
			map[string]any{"id": id},
		)
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			node, err := nodeValue(res.Record(), "t")
			if err != nil {
				return nil, err
			}
			return taskFromNode(node), nil
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return nil, models.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Task), nil
}

// ListTasks retrieves all tasks, optionally filtered by project.
func (s *Neo4jStore) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := "MATCH (t:Task) RETURN t ORDER BY t.title"
	params := map[string]any{}
	if projectID != "" {
		query = "MATCH (t:Task {project_id: $project_id}) RETURN t ORDER BY t.title"
		params["project_id"] = projectID
	}

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		var tasks []models.Task
		for res.Next(ctx) {
			node, err := nodeValue(res.Record(), "t")
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, *taskFromNode(node))
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Task), nil
}

// CreateTask adds a new task node, generating an id when none is set.
func (s *Neo4jStore) CreateTask(ctx context.Context, task *models.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"CREATE (t:Task $props)",
			map[string]any{"props": taskProps(task)},
		)
		return nil, err
	})
	if err != nil {
		return "", err
	}
	return task.ID, nil
}

// UpdateTask sets the given properties on an existing task in one write.
func (s *Neo4jStore) UpdateTask(ctx context.Context, id string, fields map[string]any) error {
	return s.updateNode(ctx, "Task", taskFields, id, fields)
}

// DeleteTask deletes a task together with its subtasks and every dependency
// edge touching it.
func (s *Neo4jStore) DeleteTask(ctx context.Context, id string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id}) "+
				"OPTIONAL MATCH (sub:Subtask)-[:SUBTASK_OF]->(t) "+
				"DETACH DELETE sub, t",
			map[string]any{"id": id},
		)
		return nil, err
	})
	return err
}

// GetSubtask retrieves a single subtask by id.
func (s *Neo4jStore) GetSubtask(ctx context.Context, id string) (*models.Subtask, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (sub:Subtask {id: $id})-[:SUBTASK_OF]->(t:Task) "+
				"RETURN sub, t.id AS task_id",
			map[string]any{"id": id},
		)
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			node, err := nodeValue(res.Record(), "sub")
			if err != nil {
				return nil, err
			}
			taskID, _ := res.Record().Get("task_id")
			sub := subtaskFromNode(node)
			sub.TaskID, _ = taskID.(string)
			return sub, nil
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return nil, models.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Subtask), nil
}

// ListSubtasks retrieves all subtasks of a task.
func (s *Neo4jStore) ListSubtasks(ctx context.Context, taskID string) ([]models.Subtask, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (sub:Subtask)-[:SUBTASK_OF]->(t:Task {id: $task_id}) "+
				"RETURN sub ORDER BY sub.title",
			map[string]any{"task_id": taskID},
		)
		if err != nil {
			return nil, err
		}
		var subs []models.Subtask
		for res.Next(ctx) {
			node, err := nodeValue(res.Record(), "sub")
			if err != nil {
				return nil, err
			}
			sub := subtaskFromNode(node)
			sub.TaskID = taskID
			subs = append(subs, *sub)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return subs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Subtask), nil
}

// CreateSubtask adds a subtask node under its parent task. Fails with
// models.ErrNotFound if the parent does not exist.
func (s *Neo4jStore) CreateSubtask(ctx context.Context, sub *models.Subtask) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {id: $task_id}) "+
				"CREATE (sub:Subtask $props)-[:SUBTASK_OF]->(t) "+
				"RETURN sub.id",
			map[string]any{"task_id": sub.TaskID, "props": subtaskProps(sub)},
		)
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			if err := res.Err(); err != nil {
				return nil, err
			}
			return nil, models.ErrNotFound
		}
		return nil, nil
	})
	if err != nil {
		return "", err
	}
	return sub.ID, nil
}

// UpdateSubtask sets the given properties on an existing subtask.
func (s *Neo4jStore) UpdateSubtask(ctx context.Context, id string, fields map[string]any) error {
	return s.updateNode(ctx, "Subtask", subtaskFields, id, fields)
}

// DeleteSubtask deletes a single subtask.
func (s *Neo4jStore) DeleteSubtask(ctx context.Context, id string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"MATCH (sub:Subtask {id: $id}) DETACH DELETE sub",
			map[string]any{"id": id},
		)
		return nil, err
	})
	return err
}

// ListDependencies returns the ids of the tasks the given task depends on.
func (s *Neo4jStore) ListDependencies(ctx context.Context, taskID string) ([]string, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id})-[:DEPENDS_ON]->(d:Task) "+
				"RETURN d.id AS id ORDER BY id",
			map[string]any{"id": taskID},
		)
		if err != nil {
			return nil, err
		}
		var ids []string
		for res.Next(ctx) {
			v, _ := res.Record().Get("id")
			if id, ok := v.(string); ok {
				ids = append(ids, id)
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// AddDependency creates a DEPENDS_ON edge between two existing tasks.
// MERGE keeps the edge set free of duplicates.
func (s *Neo4jStore) AddDependency(ctx context.Context, taskID, dependsOnID string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {id: $task_id}), (d:Task {id: $depends_on_id}) "+
				"MERGE (t)-[:DEPENDS_ON]->(d) "+
				"RETURN t.id",
			map[string]any{"task_id": taskID, "depends_on_id": dependsOnID},
		)
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			if err := res.Err(); err != nil {
				return nil, err
			}
			return nil, models.ErrNotFound
		}
		return nil, nil
	})
	return err
}

// RemoveDependency deletes the DEPENDS_ON edge between two tasks, if any.
func (s *Neo4jStore) RemoveDependency(ctx context.Context, taskID, dependsOnID string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"MATCH (t:Task {id: $task_id})-[r:DEPENDS_ON]->(d:Task {id: $depends_on_id}) "+
				"DELETE r",
			map[string]any{"task_id": taskID, "depends_on_id": dependsOnID},
		)
		return nil, err
	})
	return err
}

// GetTaskStatus retrieves just the status of a task.
func (s *Neo4jStore) GetTaskStatus(ctx context.Context, taskID string) (models.Status, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id}) RETURN t.status AS status",
			map[string]any{"id": taskID},
		)
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			v, _ := res.Record().Get("status")
			status, _ := v.(string)
			return models.Status(status), nil
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return nil, models.ErrNotFound
	})
	if err != nil {
		return "", err
	}
	return result.(models.Status), nil
}

// ListOverdueTasks returns non-completed tasks whose planned end is before
// the given date.
func (s *Neo4jStore) ListOverdueTasks(ctx context.Context, date string) ([]models.Task, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task) "+
				"WHERE t.planned_end <> '' AND t.planned_end < $date AND t.status <> $completed "+
				"RETURN t ORDER BY t.planned_end",
			map[string]any{"date": date, "completed": string(models.StatusCompleted)},
		)
		if err != nil {
			return nil, err
		}
		var tasks []models.Task
		for res.Next(ctx) {
			node, err := nodeValue(res.Record(), "t")
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, *taskFromNode(node))
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Task), nil
}

// updateNode builds a single SET write from a whitelisted fields map.
// Property names outside the whitelist never reach the query text.
func (s *Neo4jStore) updateNode(ctx context.Context, label string, allowed map[string]bool, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !allowed[k] {
			return &models.ValidationError{Field: k, Reason: "unknown field"}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	assignments := make([]string, 0, len(keys))
	params := map[string]any{"id": id}
	for _, k := range keys {
		assignments = append(assignments, fmt.Sprintf("n.%s = $%s", k, k))
		params[k] = fields[k]
	}

	query := fmt.Sprintf(
		"MATCH (n:%s {id: $id}) SET %s RETURN n.id",
		label, strings.Join(assignments, ", "),
	)

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			if err := res.Err(); err != nil {
				return nil, err
			}
			return nil, models.ErrNotFound
		}
		return nil, nil
	})
	return err
}

func nodeValue(record *neo4j.Record, key string) (dbtype.Node, error) {
	v, ok := record.Get(key)
	if !ok {
		return dbtype.Node{}, fmt.Errorf("record has no %q column", key)
	}
	node, ok := v.(dbtype.Node)
	if !ok {
		return dbtype.Node{}, fmt.Errorf("column %q is not a node", key)
	}
	return node, nil
}

func taskProps(t *models.Task) map[string]any {
	return map[string]any{
		"id":            t.ID,
		"project_id":    t.ProjectID,
		"title":         t.Title,
		"description":   t.Description,
		"status":        string(t.Status),
		"priority":      string(t.Priority),
		"planned_start": t.PlannedStart,
		"planned_end":   t.PlannedEnd,
		"actual_start":  t.ActualStart,
		"actual_end":    t.ActualEnd,
		"planned_hours": t.PlannedHours,
		"actual_hours":  t.ActualHours,
		"budget":        t.Budget,
		"actual_cost":   t.ActualCost,
		"assignee_id":   t.AssigneeID,
		"recurrence":    string(t.Recurrence),
	}
}

func subtaskProps(sub *models.Subtask) map[string]any {
	return map[string]any{
		"id":            sub.ID,
		"title":         sub.Title,
		"status":        string(sub.Status),
		"priority":      string(sub.Priority),
		"planned_start": sub.PlannedStart,
		"planned_end":   sub.PlannedEnd,
		"actual_start":  sub.ActualStart,
		"actual_end":    sub.ActualEnd,
		"planned_hours": sub.PlannedHours,
		"actual_hours":  sub.ActualHours,
		"budget":        sub.Budget,
		"actual_cost":   sub.ActualCost,
		"assignee_id":   sub.AssigneeID,
	}
}

// taskFromNode decodes a Task node by property name. Numeric properties come
// back as float64 or int64 depending on how they were written, so both are
// accepted.
func taskFromNode(node dbtype.Node) *models.Task {
	return &models.Task{
		ID:           stringProp(node, "id"),
		ProjectID:    stringProp(node, "project_id"),
		Title:        stringProp(node, "title"),
		Description:  stringProp(node, "description"),
		Status:       models.Status(stringProp(node, "status")),
		Priority:     models.Priority(stringProp(node, "priority")),
		PlannedStart: stringProp(node, "planned_start"),
		PlannedEnd:   stringProp(node, "planned_end"),
		ActualStart:  stringProp(node, "actual_start"),
		ActualEnd:    stringProp(node, "actual_end"),
		PlannedHours: floatProp(node, "planned_hours"),
		ActualHours:  floatProp(node, "actual_hours"),
		Budget:       floatProp(node, "budget"),
		ActualCost:   floatProp(node, "actual_cost"),
		AssigneeID:   stringProp(node, "assignee_id"),
		Recurrence:   models.Recurrence(stringProp(node, "recurrence")),
	}
}

func subtaskFromNode(node dbtype.Node) *models.Subtask {
	return &models.Subtask{
		ID:           stringProp(node, "id"),
		Title:        stringProp(node, "title"),
		Status:       models.Status(stringProp(node, "status")),
		Priority:     models.Priority(stringProp(node, "priority")),
		PlannedStart: stringProp(node, "planned_start"),
		PlannedEnd:   stringProp(node, "planned_end"),
		ActualStart:  stringProp(node, "actual_start"),
		ActualEnd:    stringProp(node, "actual_end"),
		PlannedHours: floatProp(node, "planned_hours"),
		ActualHours:  floatProp(node, "actual_hours"),
		Budget:       floatProp(node, "budget"),
		ActualCost:   floatProp(node, "actual_cost"),
		AssigneeID:   stringProp(node, "assignee_id"),
	}
}

func stringProp(node dbtype.Node, key string) string {
	s, _ := node.Props[key].(string)
	return s
}

func floatProp(node dbtype.Node, key string) float64 {
	switch v := node.Props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}
