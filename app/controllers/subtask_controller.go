package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"taskhub/app/models"
	"taskhub/app/rollup"
	"taskhub/app/store"
)

// SubtaskController handles HTTP requests for subtasks. Every mutation
// triggers the status and temporal/financial rollups on the parent task, so
// the parent never drifts from its decomposition.
type SubtaskController struct {
	Store  store.TaskStore
	Engine *rollup.Engine
}

// NewSubtaskController creates a new SubtaskController.
func NewSubtaskController(st store.TaskStore, engine *rollup.Engine) *SubtaskController {
	return &SubtaskController{Store: st, Engine: engine}
}

// GetSubtasks handles GET /tasks/{taskID}/subtasks.
func (c *SubtaskController) GetSubtasks(w http.ResponseWriter, r *http.Request) {
	subs, err := c.Store.ListSubtasks(r.Context(), mux.Vars(r)["taskID"])
	if err != nil {
		writeError(w, err)
		return
	}
	if subs == nil {
		subs = []models.Subtask{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// CreateSubtask handles POST /tasks/{taskID}/subtasks.
func (c *SubtaskController) CreateSubtask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	var sub models.Subtask
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	sub.TaskID = taskID
	if sub.Status == "" {
		sub.Status = models.StatusPending
	}
	if sub.Priority == "" {
		sub.Priority = models.PriorityMedium
	}
	if err := validateSubtask(&sub); err != nil {
		writeError(w, err)
		return
	}

	if _, err := c.Store.CreateSubtask(r.Context(), &sub); err != nil {
		writeError(w, err)
		return
	}
	if err := c.recalcParent(r, taskID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// UpdateSubtask handles PUT /tasks/{taskID}/subtasks/{subtaskID}. The body
// is a partial fields map like the task update.
func (c *SubtaskController) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	taskID, subID := vars["taskID"], vars["subtaskID"]

	// JSON null decodes into a nil map without error; reject it before
	// anything writes into the map.
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil || fields == nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if v, ok := fields["status"]; ok {
		s, _ := v.(string)
		if !models.ValidStatus(models.Status(s)) {
			writeError(w, &models.ValidationError{Field: "status", Reason: "unrecognized value"})
			return
		}
	}
	if actor := actorID(r); actor != "" {
		fields["updated_by"] = actor
	}

	if err := c.Store.UpdateSubtask(r.Context(), subID, fields); err != nil {
		writeError(w, err)
		return
	}
	if err := c.recalcParent(r, taskID); err != nil {
		writeError(w, err)
		return
	}

	sub, err := c.Store.GetSubtask(r.Context(), subID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// DeleteSubtask handles DELETE /tasks/{taskID}/subtasks/{subtaskID}.
func (c *SubtaskController) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := c.Store.DeleteSubtask(r.Context(), vars["subtaskID"]); err != nil {
		writeError(w, err)
		return
	}
	if err := c.recalcParent(r, vars["taskID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recalcParent runs both rollups against the parent. When the status
// rollup just completed a recurring task, the next occurrence is spawned
// here; the changed flag is what keeps a re-save of an already-completed
// parent from spawning twice.
func (c *SubtaskController) recalcParent(r *http.Request, taskID string) error {
	ctx := r.Context()
	actor := actorID(r)

	status, changed, err := c.Engine.RollupStatus(ctx, taskID, actor)
	if err != nil {
		return err
	}
	if _, err := c.Engine.RollupTemporalAndFinancial(ctx, taskID, actor); err != nil {
		return err
	}

	if changed && status == models.StatusCompleted {
		task, err := c.Store.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Recurrence != models.RecurrenceNone {
			if _, err := c.Engine.SpawnNextOccurrence(ctx, task); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateSubtask(sub *models.Subtask) error {
	if sub.Title == "" {
		return &models.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !models.ValidStatus(sub.Status) {
		return &models.ValidationError{Field: "status", Reason: "unrecognized value"}
	}
	return checkWindow(sub.PlannedStart, sub.PlannedEnd)
}
