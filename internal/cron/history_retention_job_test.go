package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type prunerStub struct {
	cutoff  time.Time
	deleted int64
	err     error
	calls   int
}

func (p *prunerStub) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.calls++
	p.cutoff = cutoff
	return p.deleted, p.err
}

func TestHistoryRetentionJobUsesCutoff(t *testing.T) {
	pruner := &prunerStub{deleted: 4}
	job, err := NewHistoryRetentionJob(HistoryRetentionJobParams{
		Logger:    testLogger(),
		History:   pruner,
		Retention: 30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	job.(*historyRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if pruner.calls != 1 {
		t.Fatalf("expected one delete call, got %d", pruner.calls)
	}
	if want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC); !pruner.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, pruner.cutoff)
	}
}

func TestHistoryRetentionJobDefaultsAndErrors(t *testing.T) {
	pruner := &prunerStub{err: errors.New("db down")}
	job, err := NewHistoryRetentionJob(HistoryRetentionJobParams{Logger: testLogger(), History: pruner})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if got := job.(*historyRetentionJob).retention; got != defaultHistoryRetention {
		t.Fatalf("expected default retention, got %v", got)
	}
	if err := job.Run(context.Background()); !errors.Is(err, pruner.err) {
		t.Fatalf("expected wrapped delete error, got %v", err)
	}

	if _, err := NewHistoryRetentionJob(HistoryRetentionJobParams{History: pruner}); err == nil {
		t.Fatalf("expected logger error")
	}
	if _, err := NewHistoryRetentionJob(HistoryRetentionJobParams{Logger: testLogger()}); err == nil {
		t.Fatalf("expected history error")
	}
}
