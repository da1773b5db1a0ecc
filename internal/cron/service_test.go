package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/module-swap/pkg/logger"
	"github.com/angelmondragon/module-swap/pkg/metrics"
)

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type recordedRun struct {
	job     string
	outcome string
}

type recorderStub struct {
	runs []recordedRun
}

func (r *recorderStub) ObserveJob(job, outcome string, _ time.Duration) {
	r.runs = append(r.runs, recordedRun{job: job, outcome: outcome})
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestServiceRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	registry, err := NewRegistry(failure, success)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	recorder := &recorderStub{}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: registry,
		Metrics:  recorder,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	err = service.RunOnce(context.Background())
	if err == nil || !errors.Is(err, failure.err) {
		t.Fatalf("expected joined failure, got %v", err)
	}
	if success.runs != 1 || failure.runs != 1 {
		t.Fatalf("expected each job to run once, got success=%d fail=%d", success.runs, failure.runs)
	}
	want := []recordedRun{
		{job: "fail", outcome: metrics.OutcomeFailure},
		{job: "success", outcome: metrics.OutcomeSuccess},
	}
	if len(recorder.runs) != len(want) {
		t.Fatalf("expected %d recorded runs, got %d", len(want), len(recorder.runs))
	}
	for i := range want {
		if recorder.runs[i] != want[i] {
			t.Fatalf("run %d: expected %+v, got %+v", i, want[i], recorder.runs[i])
		}
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "tick"}
	registry, err := NewRegistry(job)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	service, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Interval: time.Hour})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected the initial cycle to run once, got %d", job.runs)
	}
}

func TestNewServiceValidatesParams(t *testing.T) {
	registry, _ := NewRegistry()
	if _, err := NewService(ServiceParams{Registry: registry}); err == nil {
		t.Fatalf("expected logger error")
	}
	if _, err := NewService(ServiceParams{Logger: testLogger()}); err == nil {
		t.Fatalf("expected registry error")
	}
	service, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if service.interval != defaultInterval {
		t.Fatalf("expected default interval, got %v", service.interval)
	}
}
