package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlwatch/hemicycle/pkg/models"
)

type fakeRunner struct {
	calls int
	errs  []error
}

func (f *fakeRunner) Run(ctx context.Context, runType string) (*models.SyncRun, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &models.SyncRun{Status: models.SyncStatusCompleted}, nil
}

func TestNewScheduler_ValidatesConfig(t *testing.T) {
	_, err := NewScheduler(&fakeRunner{}, SchedulerConfig{TriggerAt: "25:99", Timezone: "UTC"}, testLogger())
	assert.Error(t, err)

	_, err = NewScheduler(&fakeRunner{}, SchedulerConfig{TriggerAt: "03:00", Timezone: "Mars/Olympus"}, testLogger())
	assert.Error(t, err)

	_, err = NewScheduler(&fakeRunner{}, SchedulerConfig{TriggerAt: "03:00", Timezone: "Europe/Brussels"}, testLogger())
	assert.NoError(t, err)
}

func TestNextTrigger(t *testing.T) {
	scheduler, err := NewScheduler(&fakeRunner{}, SchedulerConfig{TriggerAt: "03:00", Timezone: "UTC"}, testLogger())
	require.NoError(t, err)

	// Before today's trigger: fires today
	now := time.Date(2026, 8, 26, 1, 30, 0, 0, time.UTC)
	next := scheduler.nextTrigger(now)
	assert.Equal(t, time.Date(2026, 8, 26, 3, 0, 0, 0, time.UTC), next)

	// After today's trigger: fires tomorrow
	now = time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	next = scheduler.nextTrigger(now)
	assert.Equal(t, time.Date(2026, 8, 27, 3, 0, 0, 0, time.UTC), next)

	// Exactly at the trigger: fires tomorrow, never twice the same day
	now = time.Date(2026, 8, 26, 3, 0, 0, 0, time.UTC)
	next = scheduler.nextTrigger(now)
	assert.Equal(t, time.Date(2026, 8, 27, 3, 0, 0, 0, time.UTC), next)
}

func TestNextTrigger_RespectsTimezone(t *testing.T) {
	scheduler, err := NewScheduler(&fakeRunner{}, SchedulerConfig{TriggerAt: "03:00", Timezone: "Europe/Brussels"}, testLogger())
	require.NoError(t, err)

	now := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC) // 02:00 in Brussels (CEST)
	next := scheduler.nextTrigger(now)

	brussels, _ := time.LoadLocation("Europe/Brussels")
	assert.Equal(t, time.Date(2026, 8, 26, 3, 0, 0, 0, brussels), next)
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler, err := NewScheduler(&fakeRunner{}, SchedulerConfig{TriggerAt: "03:00", Timezone: "UTC"}, testLogger())
	require.NoError(t, err)

	assert.False(t, scheduler.Running())
	assert.Nil(t, scheduler.NextRunAt())

	scheduler.Start()
	assert.True(t, scheduler.Running())
	require.NotNil(t, scheduler.NextRunAt())
	assert.True(t, scheduler.NextRunAt().After(time.Now()))

	// Idempotent start
	scheduler.Start()
	assert.True(t, scheduler.Running())

	scheduler.Stop()
	assert.False(t, scheduler.Running())

	// Idempotent stop
	scheduler.Stop()
}
