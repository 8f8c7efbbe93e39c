package rollup

import (
	"context"
	"errors"
	"testing"

	"taskhub/app/models"
	"taskhub/app/store"
)

func newFixture() (*Engine, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return NewEngine(st), st
}

func mustCreateTask(t *testing.T, st *store.MemoryStore, task models.Task) string {
	t.Helper()
	id, err := st.CreateTask(context.Background(), &task)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return id
}

func mustCreateSubtask(t *testing.T, st *store.MemoryStore, sub models.Subtask) string {
	t.Helper()
	id, err := st.CreateSubtask(context.Background(), &sub)
	if err != nil {
		t.Fatalf("create subtask: %v", err)
	}
	return id
}

func TestRollupStatusDerivation(t *testing.T) {
	cases := []struct {
		name        string
		current     models.Status
		subStatuses []models.Status
		want        models.Status
		wantChanged bool
	}{
		{
			name:        "all completed",
			current:     models.StatusInProgress,
			subStatuses: []models.Status{models.StatusCompleted, models.StatusCompleted},
			want:        models.StatusCompleted,
			wantChanged: true,
		},
		{
			name:        "any in progress wins over pending",
			current:     models.StatusPending,
			subStatuses: []models.Status{models.StatusCompleted, models.StatusInProgress, models.StatusPending},
			want:        models.StatusInProgress,
			wantChanged: true,
		},
		{
			name:        "pending and on hold fall back to pending",
			current:     models.StatusInProgress,
			subStatuses: []models.Status{models.StatusPending, models.StatusOnHold},
			want:        models.StatusPending,
			wantChanged: true,
		},
		{
			name:        "completed plus pending is pending",
			current:     models.StatusInProgress,
			subStatuses: []models.Status{models.StatusCompleted, models.StatusPending},
			want:        models.StatusPending,
			wantChanged: true,
		},
		{
			name:        "matching status writes nothing",
			current:     models.StatusInProgress,
			subStatuses: []models.Status{models.StatusInProgress},
			want:        models.StatusInProgress,
			wantChanged: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, st := newFixture()
			taskID := mustCreateTask(t, st, models.Task{Title: "parent", Status: tc.current})
			for _, status := range tc.subStatuses {
				mustCreateSubtask(t, st, models.Subtask{TaskID: taskID, Title: "sub", Status: status})
			}

			got, changed, err := engine.RollupStatus(context.Background(), taskID, "tester")
			if err != nil {
				t.Fatalf("RollupStatus: %v", err)
			}
			if got != tc.want || changed != tc.wantChanged {
				t.Fatalf("got (%s, %v), want (%s, %v)", got, changed, tc.want, tc.wantChanged)
			}

			task, err := st.GetTask(context.Background(), taskID)
			if err != nil {
				t.Fatalf("GetTask: %v", err)
			}
			if task.Status != tc.want {
				t.Fatalf("stored status = %s, want %s", task.Status, tc.want)
			}
		})
	}
}

func TestRollupStatusNoSubtasksLeavesTaskAlone(t *testing.T) {
	engine, st := newFixture()
	taskID := mustCreateTask(t, st, models.Task{Title: "solo", Status: models.StatusOnHold})

	got, changed, err := engine.RollupStatus(context.Background(), taskID, "")
	if err != nil {
		t.Fatalf("RollupStatus: %v", err)
	}
	if changed {
		t.Fatal("expected no change for a task without subtasks")
	}
	if got != models.StatusOnHold {
		t.Fatalf("status = %s, want on_hold", got)
	}
}

func TestRollupStatusIdempotent(t *testing.T) {
	engine, st := newFixture()
	taskID := mustCreateTask(t, st, models.Task{Title: "parent", Status: models.StatusPending})
	mustCreateSubtask(t, st, models.Subtask{TaskID: taskID, Title: "sub", Status: models.StatusCompleted})

	_, changed, err := engine.RollupStatus(context.Background(), taskID, "")
	if err != nil {
		t.Fatalf("first rollup: %v", err)
	}
	if !changed {
		t.Fatal("first rollup should report a change")
	}

	_, changed, err = engine.RollupStatus(context.Background(), taskID, "")
	if err != nil {
		t.Fatalf("second rollup: %v", err)
	}
	if changed {
		t.Fatal("second rollup with no intervening change should be a no-op")
	}
}

func TestRollupStatusMissingTask(t *testing.T) {
	engine, _ := newFixture()

	_, _, err := engine.RollupStatus(context.Background(), "nope", "")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRollupStatusStampsActor(t *testing.T) {
	engine, st := newFixture()
	taskID := mustCreateTask(t, st, models.Task{Title: "parent", Status: models.StatusPending})
	mustCreateSubtask(t, st, models.Subtask{TaskID: taskID, Title: "sub", Status: models.StatusInProgress})

	if _, _, err := engine.RollupStatus(context.Background(), taskID, "alice"); err != nil {
		t.Fatalf("RollupStatus: %v", err)
	}
	if got := st.LastUpdatedBy(taskID); got != "alice" {
		t.Fatalf("updated_by = %q, want alice", got)
	}
}
