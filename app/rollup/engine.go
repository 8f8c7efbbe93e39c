// Package rollup keeps a parent task's status, dates, time and budget
// consistent with its subtasks, and gates task completion on upstream
// dependency state. It is the single place these rules live; every caller
// (HTTP layer, reminder sweep, CLI) goes through it.
package rollup

import (
	"sync"

	"taskhub/app/store"
)

// Engine recomputes derived task fields from the task store. All methods
// are safe for concurrent use; writes to the same parent task are
// serialized by a per-task-id mutex so two rollups cannot race on one row.
type Engine struct {
	store store.TaskStore
	locks taskLocks
}

// NewEngine creates an engine over the given store.
func NewEngine(st store.TaskStore) *Engine {
	return &Engine{store: st}
}

// taskLocks hands out one mutex per task id. Entries are never evicted;
// the map grows with the number of distinct tasks rolled up in-process.
type taskLocks struct {
	m sync.Map
}

func (l *taskLocks) lock(taskID string) (unlock func()) {
	v, _ := l.m.LoadOrStore(taskID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
