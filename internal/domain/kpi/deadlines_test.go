package kpi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpitrack/internal/platform/events"
)

func TestScanDeadlinesMarksOverdue(t *testing.T) {
	f := newFixture(t)
	in := f.assignInput()
	in.Period = "2026-07"
	in.StartDate = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	in.EndDate = time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC) // already past
	rec, err := f.svc.Assign(context.Background(), in)
	require.NoError(t, err)

	summary, err := f.svc.ScanDeadlines(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scanned)
	assert.Equal(t, 1, summary.Overdue)
	assert.Equal(t, 0, summary.Approaching)

	updated, err := f.svc.GetRecord(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, updated.Status)
	assert.Contains(t, f.kinds(), events.KindOverdue)

	// Overdue records leave the open set; the next scan sees nothing.
	summary, err = f.svc.ScanDeadlines(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Scanned)
}

func TestScanDeadlinesWarnsOncePerDay(t *testing.T) {
	f := newFixture(t)
	in := f.assignInput()
	in.EndDate = time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC) // two days out
	_, err := f.svc.Assign(context.Background(), in)
	require.NoError(t, err)

	summary, err := f.svc.ScanDeadlines(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Approaching)

	var warn *events.Event
	for i := range *f.events {
		if (*f.events)[i].Kind == events.KindDeadlineApproaching {
			warn = &(*f.events)[i]
		}
	}
	require.NotNil(t, warn)
	assert.Equal(t, 2, warn.DaysLeft)

	// Same day, no duplicate reminder.
	summary, err = f.svc.ScanDeadlines(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Approaching)

	// Next day it fires again.
	f.svc.now = func() time.Time { return time.Date(2026, 8, 16, 10, 0, 0, 0, time.UTC) }
	summary, err = f.svc.ScanDeadlines(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Approaching)
}

func TestScanDeadlinesIgnoresDistantRecords(t *testing.T) {
	f := newFixture(t)
	in := f.assignInput()
	in.EndDate = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC) // 16 days out
	_, err := f.svc.Assign(context.Background(), in)
	require.NoError(t, err)

	summary, err := f.svc.ScanDeadlines(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scanned)
	assert.Equal(t, 0, summary.Approaching)
	assert.Equal(t, 0, summary.Overdue)
}

func TestScanDeadlinesRecordDueTodayIsNotOverdue(t *testing.T) {
	f := newFixture(t)
	in := f.assignInput()
	in.EndDate = time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC) // due today
	_, err := f.svc.Assign(context.Background(), in)
	require.NoError(t, err)

	summary, err := f.svc.ScanDeadlines(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Overdue)
	assert.Equal(t, 1, summary.Approaching)
}
