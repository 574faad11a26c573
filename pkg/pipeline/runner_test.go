package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunner_Run_CountsOutcomes(t *testing.T) {
	r := NewRunner(RunnerConfig{})
	ctx := context.Background()

	boom := errors.New("boom")

	if err := r.Run(ctx, "first", 0, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("first section failed: %v", err)
	}

	err := r.Run(ctx, "second", 0, func(context.Context) error { return boom })
	if err != boom {
		t.Fatalf("error was not propagated unchanged: got %v, want %v", err, boom)
	}

	// Fail-fast caller: the third section never starts.
	s := r.Summary()
	if s.Total != 2 || s.OK != 1 || s.Failed != 1 {
		t.Errorf("summary = %+v, want {Total:2 OK:1 Failed:1}", s)
	}
}

func TestRunner_Run_ContinuingCallerCountsAll(t *testing.T) {
	r := NewRunner(RunnerConfig{})
	ctx := context.Background()

	boom := errors.New("boom")
	outcomes := []error{nil, boom, nil}
	for i, want := range outcomes {
		got := r.Run(ctx, "section", 0, func(context.Context) error { return want })
		if !errors.Is(got, want) && got != want {
			t.Fatalf("section %d: error = %v, want %v", i, got, want)
		}
	}

	s := r.Summary()
	if s.Total != 3 || s.OK != 2 || s.Failed != 1 {
		t.Errorf("summary = %+v, want {Total:3 OK:2 Failed:1}", s)
	}
}

func TestRunner_Run_PanicPropagates(t *testing.T) {
	r := NewRunner(RunnerConfig{})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic to propagate")
		}
		s := r.Summary()
		if s.Failed != 1 {
			t.Errorf("panicking section not counted as failed: %+v", s)
		}
	}()

	_ = r.Run(context.Background(), "explode", 0, func(context.Context) error {
		panic("kaboom")
	})
}

func TestRunner_BeginEnd_Lifecycle(t *testing.T) {
	r := NewRunner(RunnerConfig{})

	ctx, s := r.Begin(context.Background(), "timed", 2*time.Second)
	if s.Ordinal != 1 {
		t.Errorf("ordinal = %d, want 1", s.Ordinal)
	}
	if s.Status != SectionStatusRunning {
		t.Errorf("status after begin = %s, want running", s.Status)
	}

	time.Sleep(10 * time.Millisecond)
	r.End(ctx, s, nil)

	if s.Status != SectionStatusSucceeded {
		t.Errorf("status after end = %s, want succeeded", s.Status)
	}
	if s.Duration <= 0 {
		t.Error("duration was not measured")
	}
	if s.Delta() >= 0 {
		t.Errorf("delta = %v, want negative for a fast section", s.Delta())
	}
}

func TestRunner_End_ExactlyOnce(t *testing.T) {
	r := NewRunner(RunnerConfig{})

	ctx, s := r.Begin(context.Background(), "once", 0)
	r.End(ctx, s, nil)
	r.End(ctx, s, errors.New("late"))

	s2 := r.Summary()
	if s2.Total != 1 || s2.OK != 1 || s2.Failed != 0 {
		t.Errorf("second End mutated counters: %+v", s2)
	}
	if s.Status != SectionStatusSucceeded {
		t.Errorf("second End mutated status: %s", s.Status)
	}
}

func TestSectionStatus_Validate(t *testing.T) {
	for _, valid := range []SectionStatus{SectionStatusPending, SectionStatusRunning, SectionStatusSucceeded, SectionStatusFailed} {
		if err := valid.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v, want nil", valid, err)
		}
	}
	if err := SectionStatus("bogus").Validate(); err == nil {
		t.Error("Validate(bogus) = nil, want error")
	}
	if SectionStatusRunning.IsTerminal() {
		t.Error("running must not be terminal")
	}
	if !SectionStatusFailed.IsTerminal() {
		t.Error("failed must be terminal")
	}
}

func TestGroup_Sequential_SkipsAfterFailure(t *testing.T) {
	r := NewRunner(RunnerConfig{})
	boom := errors.New("boom")

	var thirdStarted bool
	g := r.NewGroup(1)
	g.Go("one", 0, func(context.Context) error { return nil })
	g.Go("two", 0, func(context.Context) error { return boom })
	g.Go("three", 0, func(context.Context) error { thirdStarted = true; return nil })

	err := g.Wait(context.Background())
	if err != boom {
		t.Fatalf("Wait error = %v, want %v", err, boom)
	}
	if thirdStarted {
		t.Error("pending task started after failure")
	}

	s := r.Summary()
	if s.Total != 2 || s.OK != 1 || s.Failed != 1 {
		t.Errorf("summary = %+v, want {Total:2 OK:1 Failed:1}", s)
	}
}

func TestGroup_Parallel_AllSucceed(t *testing.T) {
	r := NewRunner(RunnerConfig{})

	g := r.NewGroup(2)
	for i := 0; i < 4; i++ {
		g.Go("work", 0, func(context.Context) error {
			time.Sleep(5 * time.Millisecond)
			return nil
		})
	}

	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	s := r.Summary()
	if s.Total != 4 || s.OK != 4 || s.Failed != 0 {
		t.Errorf("summary = %+v, want {Total:4 OK:4 Failed:0}", s)
	}
}

func TestGroup_InFlightRunsToCompletion(t *testing.T) {
	r := NewRunner(RunnerConfig{})
	boom := errors.New("boom")

	slowStarted := make(chan struct{})
	g := r.NewGroup(2)
	g.Go("slow", 0, func(context.Context) error {
		close(slowStarted)
		time.Sleep(30 * time.Millisecond)
		return nil
	})
	g.Go("failing", 0, func(context.Context) error {
		<-slowStarted
		return boom
	})
	g.Go("pending", 0, func(context.Context) error { return nil })

	err := g.Wait(context.Background())
	if err != boom {
		t.Fatalf("Wait error = %v, want %v", err, boom)
	}

	// The in-flight slow section finished; only the pending one was skipped.
	s := r.Summary()
	if s.Total != 2 || s.OK != 1 || s.Failed != 1 {
		t.Errorf("summary = %+v, want {Total:2 OK:1 Failed:1}", s)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"interrupt", context.Canceled, 130},
		{"wrapped interrupt", errors.Join(errors.New("section failed"), context.Canceled), 130},
		{"failure", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
