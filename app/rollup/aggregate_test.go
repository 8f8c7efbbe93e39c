package rollup

import (
	"context"
	"errors"
	"testing"

	"taskhub/app/models"
)

func TestAggregateNoSubtasksIsNoop(t *testing.T) {
	engine, st := newFixture()
	taskID := mustCreateTask(t, st, models.Task{Title: "solo", Budget: 500})

	agg, err := engine.RollupTemporalAndFinancial(context.Background(), taskID, "")
	if err != nil {
		t.Fatalf("rollup: %v", err)
	}
	if agg != nil {
		t.Fatalf("expected nil result, got %+v", agg)
	}
}

func TestAggregateAdoptsEarliestPlannedStart(t *testing.T) {
	engine, st := newFixture()
	taskID := mustCreateTask(t, st, models.Task{Title: "parent"})
	mustCreateSubtask(t, st, models.Subtask{TaskID: taskID, Title: "a", PlannedStart: "2024-01-10"})
	mustCreateSubtask(t, st, models.Subtask{TaskID: taskID, Title: "b", PlannedStart: "2024-01-05"})

	agg, err := engine.RollupTemporalAndFinancial(context.Background(), taskID, "")
	if err != nil {
		t.Fatalf("rollup: %v", err)
	}
	if agg == nil {
		t.Fatal("expected a result")
	}
	if agg.PlannedStart != "2024-01-05" {
		t.Fatalf("planned start = %q, want 2024-01-05", agg.PlannedStart)
	}

	task, _ := st.GetTask(context.Background(), taskID)
	if task.PlannedStart != "2024-01-05" {
		t.Fatalf("stored planned start = %q, want 2024-01-05", task.PlannedStart)
	}
}

func TestAggregateOnlyWidensWindow(t *testing.T) {
	engine, st := newFixture()
	taskID := mustCreateTask(t, st, models.Task{
		Title:        "parent",
		PlannedStart: "2024-01-01",
		PlannedEnd:   "2024-12-31",
	})
	mustCreateSubtask(t, st, models.Subtask{
		TaskID:       taskID,
		Title:        "inside",
		PlannedStart: "2024-03-01",
		PlannedEnd:   "2024-04-01",
		Budget:       10,
	})

	if _, err := engine.RollupTemporalAndFinancial(context.Background(), taskID, ""); err != nil {
		t.Fatalf("rollup: %v", err)
	}

	task, _ := st.GetTask(context.Background(), taskID)
	if task.PlannedStart != "2024-01-01" || task.PlannedEnd != "2024-12-31" {
		t.Fatalf("window narrowed to [%s, %s]", task.PlannedStart, task.PlannedEnd)
	}
}

func TestAggregateActualWindowNeedsBothEnds(t *testing.T) {
	engine, st := newFixture()
	taskID := mustCreateTask(t, st, models.Task{Title: "parent"})
	// Only an actual start: contributes nothing to the actual window.
	mustCreateSubtask(t, st, models.Subtask{TaskID: taskID, Title: "half", ActualStart: "2024-02-01"})
	mustCreateSubtask(t, st, models.Subtask{
		TaskID:      taskID,
		Title:       "full",
		ActualStart: "2024-02-10",
		ActualEnd:   "2024-02-20",
	})

	agg, err := engine.RollupTemporalAndFinancial(context.Background(), taskID, "")
	if err != nil {
		t.Fatalf("rollup: %v", err)
	}
	if agg.ActualStart != "2024-02-10" || agg.ActualEnd != "2024-02-20" {
		t.Fatalf("actual window = [%s, %s], want [2024-02-10, 2024-02-20]", agg.ActualStart, agg.ActualEnd)
	}
}

func TestAggregateMalformedDateSkippedNotFatal(t *testing.T) {
	engine, st := newFixture()
	taskID := mustCreateTask(t, st, models.Task{Title: "parent"})
	mustCreateSubtask(t, st, models.Subtask{
		TaskID:       taskID,
		Title:        "corrupt",
		PlannedStart: "01/05/2024",
		Budget:       25,
	})
	mustCreateSubtask(t, st, models.Subtask{
		TaskID:       taskID,
		Title:        "good",
		PlannedStart: "2024-06-01",
		Budget:       75,
	})

	agg, err := engine.RollupTemporalAndFinancial(context.Background(), taskID, "")
	if err != nil {
		t.Fatalf("rollup: %v", err)
	}
	if agg.PlannedStart != "2024-06-01" {
		t.Fatalf("planned start = %q, want 2024-06-01", agg.PlannedStart)
	}
	// The corrupt date costs that field only; the money still counts.
	if agg.Budget != 100 {
		t.Fatalf("budget = %v, want 100", agg.Budget)
	}
}

func TestAggregateSumsReplaceTaskValues(t *testing.T) {
	engine, st := newFixture()
	taskID := mustCreateTask(t, st, models.Task{
		Title:        "parent",
		PlannedHours: 99,
		ActualHours:  42,
		Budget:       1000,
		ActualCost:   800,
	})
	mustCreateSubtask(t, st, models.Subtask{TaskID: taskID, Title: "a", PlannedHours: 4, ActualHours: 2, Budget: 100, ActualCost: 90})
	mustCreateSubtask(t, st, models.Subtask{TaskID: taskID, Title: "b", PlannedHours: 6, ActualHours: 1, Budget: 50})

	agg, err := engine.RollupTemporalAndFinancial(context.Background(), taskID, "")
	if err != nil {
		t.Fatalf("rollup: %v", err)
	}
	if agg.PlannedHours != 10 || agg.ActualHours != 3 {
		t.Fatalf("hours = (%v, %v), want (10, 3)", agg.PlannedHours, agg.ActualHours)
	}
	if agg.Budget != 150 || agg.ActualCost != 90 {
		t.Fatalf("money = (%v, %v), want (150, 90)", agg.Budget, agg.ActualCost)
	}
	if agg.BudgetVariance() != 60 {
		t.Fatalf("variance = %v, want 60", agg.BudgetVariance())
	}

	task, _ := st.GetTask(context.Background(), taskID)
	if task.Budget != 150 || task.ActualCost != 90 || task.BudgetVariance() != 60 {
		t.Fatalf("stored money = (%v, %v, %v), want (150, 90, 60)", task.Budget, task.ActualCost, task.BudgetVariance())
	}
}

func TestAggregateSecondRunIsNoop(t *testing.T) {
	engine, st := newFixture()
	taskID := mustCreateTask(t, st, models.Task{Title: "parent"})
	mustCreateSubtask(t, st, models.Subtask{TaskID: taskID, Title: "a", PlannedStart: "2024-01-05", Budget: 10})

	if agg, err := engine.RollupTemporalAndFinancial(context.Background(), taskID, ""); err != nil || agg == nil {
		t.Fatalf("first rollup = (%+v, %v), want a result", agg, err)
	}
	agg, err := engine.RollupTemporalAndFinancial(context.Background(), taskID, "")
	if err != nil {
		t.Fatalf("second rollup: %v", err)
	}
	if agg != nil {
		t.Fatalf("second rollup should be nil, got %+v", agg)
	}
}

func TestAggregateScenario(t *testing.T) {
	// Task with S1(completed, budget 100, cost 90) and S2(pending, budget
	// 50): status pending, budget 150, cost 90, variance 60.
	engine, st := newFixture()
	taskID := mustCreateTask(t, st, models.Task{Title: "parent", Status: models.StatusInProgress})
	mustCreateSubtask(t, st, models.Subtask{TaskID: taskID, Title: "s1", Status: models.StatusCompleted, Budget: 100, ActualCost: 90})
	mustCreateSubtask(t, st, models.Subtask{TaskID: taskID, Title: "s2", Status: models.StatusPending, Budget: 50})

	status, _, err := engine.RollupStatus(context.Background(), taskID, "")
	if err != nil {
		t.Fatalf("status rollup: %v", err)
	}
	if status != models.StatusPending {
		t.Fatalf("status = %s, want pending", status)
	}

	if _, err := engine.RollupTemporalAndFinancial(context.Background(), taskID, ""); err != nil {
		t.Fatalf("aggregate rollup: %v", err)
	}

	task, _ := st.GetTask(context.Background(), taskID)
	if task.Budget != 150 || task.ActualCost != 90 || task.BudgetVariance() != 60 {
		t.Fatalf("got (budget=%v cost=%v variance=%v), want (150, 90, 60)", task.Budget, task.ActualCost, task.BudgetVariance())
	}
}

func TestAggregateMissingTask(t *testing.T) {
	engine, _ := newFixture()

	_, err := engine.RollupTemporalAndFinancial(context.Background(), "nope", "")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
