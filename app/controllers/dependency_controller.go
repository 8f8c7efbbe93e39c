package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"taskhub/app/models"
	"taskhub/app/rollup"
	"taskhub/app/store"
)

// DependencyController handles HTTP requests for dependency edges.
type DependencyController struct {
	Store  store.TaskStore
	Engine *rollup.Engine
}

// NewDependencyController creates a new DependencyController.
func NewDependencyController(st store.TaskStore, engine *rollup.Engine) *DependencyController {
	return &DependencyController{Store: st, Engine: engine}
}

// GetDependencies handles GET /tasks/{taskID}/dependencies. The response
// lists prerequisite task ids and whether the task could complete now.
func (c *DependencyController) GetDependencies(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	deps, err := c.Store.ListDependencies(r.Context(), taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	if deps == nil {
		deps = []string{}
	}

	canComplete, err := c.Engine.CanComplete(r.Context(), taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"depends_on":   deps,
		"can_complete": canComplete,
	})
}

// AddDependency handles POST /tasks/{taskID}/dependencies. Edges that
// would close a cycle are rejected before anything is written.
func (c *DependencyController) AddDependency(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	var body models.Dependency
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DependsOnID == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := c.Engine.AddDependency(r.Context(), taskID, body.DependsOnID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// RemoveDependency handles DELETE /tasks/{taskID}/dependencies/{dependsOnID}.
func (c *DependencyController) RemoveDependency(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := c.Store.RemoveDependency(r.Context(), vars["taskID"], vars["dependsOnID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
