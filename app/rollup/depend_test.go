package rollup

import (
	"context"
	"testing"

	"taskhub/app/models"
)

func TestCanCompleteNoDependencies(t *testing.T) {
	engine, st := newFixture()
	taskID := mustCreateTask(t, st, models.Task{Title: "free", Status: models.StatusPending})

	ok, err := engine.CanComplete(context.Background(), taskID)
	if err != nil {
		t.Fatalf("CanComplete: %v", err)
	}
	if !ok {
		t.Fatal("a task with no dependencies must always be completable")
	}
}

func TestCanCompleteGatesOnDependencyStatus(t *testing.T) {
	engine, st := newFixture()
	a := mustCreateTask(t, st, models.Task{Title: "a", Status: models.StatusPending})
	b := mustCreateTask(t, st, models.Task{Title: "b", Status: models.StatusInProgress})
	if err := engine.AddDependency(context.Background(), a, b); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}

	ok, err := engine.CanComplete(context.Background(), a)
	if err != nil {
		t.Fatalf("CanComplete: %v", err)
	}
	if ok {
		t.Fatal("a must not complete while b is in progress")
	}

	if err := st.UpdateTask(context.Background(), b, map[string]any{"status": string(models.StatusCompleted)}); err != nil {
		t.Fatalf("complete b: %v", err)
	}

	ok, err = engine.CanComplete(context.Background(), a)
	if err != nil {
		t.Fatalf("CanComplete: %v", err)
	}
	if !ok {
		t.Fatal("a should complete once b is completed")
	}
}

func TestCanCompleteDanglingDependencyUnsatisfied(t *testing.T) {
	engine, st := newFixture()
	a := mustCreateTask(t, st, models.Task{Title: "a", Status: models.StatusPending})
	x := mustCreateTask(t, st, models.Task{Title: "x", Status: models.StatusCompleted})
	if err := engine.AddDependency(context.Background(), a, x); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if err := st.DeleteTask(context.Background(), x); err != nil {
		t.Fatalf("delete x: %v", err)
	}

	ok, err := engine.CanComplete(context.Background(), a)
	if err != nil {
		t.Fatalf("CanComplete must not fail on a dangling edge: %v", err)
	}
	if ok {
		t.Fatal("an edge to a deleted task must count as unsatisfied")
	}
}

func TestAddDependencyRejectsSelf(t *testing.T) {
	engine, st := newFixture()
	a := mustCreateTask(t, st, models.Task{Title: "a"})

	err := engine.AddDependency(context.Background(), a, a)
	if !models.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestAddDependencyRejectsCycle(t *testing.T) {
	engine, st := newFixture()
	ctx := context.Background()
	a := mustCreateTask(t, st, models.Task{Title: "a"})
	b := mustCreateTask(t, st, models.Task{Title: "b"})
	c := mustCreateTask(t, st, models.Task{Title: "c"})

	// a -> b -> c is fine; c -> a would close the loop.
	if err := engine.AddDependency(ctx, a, b); err != nil {
		t.Fatalf("a->b: %v", err)
	}
	if err := engine.AddDependency(ctx, b, c); err != nil {
		t.Fatalf("b->c: %v", err)
	}

	err := engine.AddDependency(ctx, c, a)
	if !models.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}

	// The rejected edge must not have been written.
	deps, _ := st.ListDependencies(ctx, c)
	if len(deps) != 0 {
		t.Fatalf("c has dependencies %v after rejected insert", deps)
	}
}

func TestAddDependencyDiamondIsNotACycle(t *testing.T) {
	engine, st := newFixture()
	ctx := context.Background()
	a := mustCreateTask(t, st, models.Task{Title: "a"})
	b := mustCreateTask(t, st, models.Task{Title: "b"})
	c := mustCreateTask(t, st, models.Task{Title: "c"})
	d := mustCreateTask(t, st, models.Task{Title: "d"})

	for _, edge := range [][2]string{{a, b}, {a, c}, {b, d}, {c, d}} {
		if err := engine.AddDependency(ctx, edge[0], edge[1]); err != nil {
			t.Fatalf("%s->%s: %v", edge[0], edge[1], err)
		}
	}
}
