package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFillProgress(t *testing.T) {
	start := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		snap        Snapshot
		now         time.Time
		wantPercent float64
		wantETA     time.Duration
	}{
		{
			name:        "nothing processed",
			snap:        Snapshot{Total: 10, StartedAt: start},
			now:         start.Add(5 * time.Second),
			wantPercent: 0,
			wantETA:     0,
		},
		{
			name:        "one third rounded",
			snap:        Snapshot{Total: 3, Sent: 1, StartedAt: start},
			now:         start.Add(10 * time.Second),
			wantPercent: 33.33,
			wantETA:     20 * time.Second,
		},
		{
			name:        "failures count as processed",
			snap:        Snapshot{Total: 200, Sent: 50, Failed: 50, StartedAt: start},
			now:         start.Add(30 * time.Second),
			wantPercent: 50,
			wantETA:     30 * time.Second,
		},
		{
			name:        "zero total",
			snap:        Snapshot{StartedAt: start},
			now:         start,
			wantPercent: 0,
			wantETA:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := tt.snap
			fillProgress(&snap, tt.now)
			assert.Equal(t, tt.wantPercent, snap.Percent)
			assert.Equal(t, tt.wantETA, snap.ETA)
			assert.Equal(t, tt.now.Sub(start), snap.Elapsed)
		})
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{percent: 0, want: "[□□□□□□□□□□□□□□□□□□□□]"},
		{percent: 4.99, want: "[□□□□□□□□□□□□□□□□□□□□]"},
		{percent: 5, want: "[■□□□□□□□□□□□□□□□□□□□]"},
		{percent: 52.5, want: "[■■■■■■■■■■□□□□□□□□□□]"},
		{percent: 100, want: "[■■■■■■■■■■■■■■■■■■■■]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ProgressBar(tt.percent), "percent=%v", tt.percent)
	}
}

func TestPartition(t *testing.T) {
	endpoints := classify(idRange(1, 5), idRange(-5, 2))

	batches := partition(endpoints, 3)
	assert.Len(t, batches, 3)
	assert.Len(t, batches[0], 3)
	assert.Len(t, batches[1], 3)
	assert.Len(t, batches[2], 1)

	var flat []Endpoint
	for _, b := range batches {
		flat = append(flat, b...)
	}
	assert.Equal(t, endpoints, flat)
	assert.Equal(t, KindUser, flat[4].Kind)
	assert.Equal(t, KindChat, flat[5].Kind)

	assert.Empty(t, partition(nil, 3))
	assert.Equal(t, 3, batchCount(250, 100))
	assert.Equal(t, 0, batchCount(0, 100))
}

func TestEffectiveWait(t *testing.T) {
	assert.Equal(t, 60*time.Second, effectiveWait(90*time.Second, DefaultMaxFloodWait))
	assert.Equal(t, 12*time.Second, effectiveWait(12*time.Second, DefaultMaxFloodWait))
	assert.Equal(t, time.Duration(0), effectiveWait(-time.Second, DefaultMaxFloodWait))
}

func TestRateLimitWait(t *testing.T) {
	wait, ok := RateLimitWait(&RateLimitedError{Wait: 3 * time.Second})
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, wait)

	_, ok = RateLimitWait(assert.AnError)
	assert.False(t, ok)

	_, ok = RateLimitWait(nil)
	assert.False(t, ok)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}
