package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"taskhub/app/models"
	"taskhub/app/rollup"
	"taskhub/app/store"
)

// TaskController handles HTTP requests for tasks.
type TaskController struct {
	Store  store.TaskStore
	Engine *rollup.Engine
}

// NewTaskController creates a new TaskController.
func NewTaskController(st store.TaskStore, engine *rollup.Engine) *TaskController {
	return &TaskController{Store: st, Engine: engine}
}

// GetTasks handles GET /tasks, optionally filtered by ?project_id=.
func (c *TaskController) GetTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := c.Store.ListTasks(r.Context(), r.URL.Query().Get("project_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateTask handles POST /tasks.
func (c *TaskController) CreateTask(w http.ResponseWriter, r *http.Request) {
	var task models.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if err := validateTask(&task); err != nil {
		writeError(w, err)
		return
	}

	if _, err := c.Store.CreateTask(r.Context(), &task); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// GetTaskByID handles GET /tasks/{taskID}.
func (c *TaskController) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	task, err := c.Store.GetTask(r.Context(), mux.Vars(r)["taskID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// UpdateTask handles PUT /tasks/{taskID}. The body is a partial fields map
// using the JSON field names; only sent fields are written.
func (c *TaskController) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	// A body of JSON null decodes into a nil map without error; reject it
	// before anything writes into the map.
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil || fields == nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := c.Store.GetTask(r.Context(), taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := validateTaskFields(task, fields); err != nil {
		writeError(w, err)
		return
	}
	if actor := actorID(r); actor != "" {
		fields["updated_by"] = actor
	}

	if err := c.Store.UpdateTask(r.Context(), taskID, fields); err != nil {
		writeError(w, err)
		return
	}

	updated, err := c.Store.GetTask(r.Context(), taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTask handles DELETE /tasks/{taskID}. Subtasks and dependency edges
// go with the task.
func (c *TaskController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := c.Store.DeleteTask(r.Context(), mux.Vars(r)["taskID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask handles POST /tasks/{taskID}/complete. Completion is gated
// on every upstream dependency being completed; on success a recurring task
// spawns its next occurrence, returned alongside the completed task.
func (c *TaskController) CompleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	ctx := r.Context()

	task, err := c.Store.GetTask(ctx, taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	// Re-posting complete on a completed task must not rewrite the status
	// or spawn another occurrence.
	if task.Status == models.StatusCompleted {
		writeJSON(w, http.StatusOK, map[string]any{
			"task": task,
			"next": nil,
		})
		return
	}

	// A task with subtasks takes its status from them; it cannot be
	// completed over their heads.
	subs, err := c.Store.ListSubtasks(ctx, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, sub := range subs {
		if sub.Status != models.StatusCompleted {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": "task has incomplete subtasks",
			})
			return
		}
	}

	ok, err := c.Engine.CanComplete(ctx, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "task has incomplete dependencies",
		})
		return
	}

	fields := map[string]any{"status": string(models.StatusCompleted)}
	if actor := actorID(r); actor != "" {
		fields["updated_by"] = actor
	}
	if err := c.Store.UpdateTask(ctx, taskID, fields); err != nil {
		writeError(w, err)
		return
	}
	task.Status = models.StatusCompleted

	next, err := c.Engine.SpawnNextOccurrence(ctx, task)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"task": task,
		"next": next,
	})
}

func validateTask(task *models.Task) error {
	if task.Title == "" {
		return &models.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !models.ValidStatus(task.Status) {
		return &models.ValidationError{Field: "status", Reason: "unrecognized value"}
	}
	if !models.ValidRecurrence(task.Recurrence) {
		return &models.ValidationError{Field: "recurrence", Reason: "unrecognized value"}
	}
	return checkWindow(task.PlannedStart, task.PlannedEnd)
}

// validateTaskFields checks a partial update against the merged record, so
// setting just the deadline still catches it landing before the start.
func validateTaskFields(task *models.Task, fields map[string]any) error {
	if v, ok := fields["status"]; ok {
		s, _ := v.(string)
		if !models.ValidStatus(models.Status(s)) {
			return &models.ValidationError{Field: "status", Reason: "unrecognized value"}
		}
	}
	if v, ok := fields["recurrence"]; ok {
		s, _ := v.(string)
		if !models.ValidRecurrence(models.Recurrence(s)) {
			return &models.ValidationError{Field: "recurrence", Reason: "unrecognized value"}
		}
	}

	start := task.PlannedStart
	if v, ok := fields["planned_start"]; ok {
		start, _ = v.(string)
	}
	end := task.PlannedEnd
	if v, ok := fields["planned_end"]; ok {
		end, _ = v.(string)
	}
	return checkWindow(start, end)
}

// checkWindow rejects a deadline before its start. Either side missing or
// unparseable is left for the aggregator's skip handling.
func checkWindow(start, end string) error {
	if start == "" || end == "" {
		return nil
	}
	s, errS := time.Parse(models.DateLayout, start)
	e, errE := time.Parse(models.DateLayout, end)
	if errS != nil || errE != nil {
		return nil
	}
	if e.Before(s) {
		return &models.ValidationError{Field: "planned_end", Reason: "deadline precedes start"}
	}
	return nil
}
