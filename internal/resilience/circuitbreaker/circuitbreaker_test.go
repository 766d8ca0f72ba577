package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker(timeout time.Duration) *CircuitBreaker {
	cfg := DefaultConfig("test-circuit")
	cfg.MaxRequests = 2
	cfg.Interval = 10 * time.Second
	cfg.Timeout = timeout
	return New(cfg)
}

func fail(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_, _ = Run(cb, func() (string, error) { return "", errors.New("provider down") })
	}
}

func TestRun(t *testing.T) {
	cb := testBreaker(time.Second)
	assert.Equal(t, "test-circuit", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())

	vec, err := Run(cb, func() ([]float32, error) { return []float32{1, 2}, nil })
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vec)

	boom := errors.New("nope")
	vec, err = Run(cb, func() ([]float32, error) { return []float32{9}, boom })
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, vec, "result is discarded on error")
	assert.False(t, cb.IsOpen())
}

func TestRun_TripsOpen(t *testing.T) {
	cb := testBreaker(time.Second)

	fail(cb, 4)
	assert.False(t, cb.IsOpen(), "below MinRequests")

	fail(cb, 1)
	require.True(t, cb.IsOpen())

	_, err := Run(cb, func() (int, error) {
		t.Error("fn called while open")
		return 0, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestRun_HalfOpenRecovers(t *testing.T) {
	cb := testBreaker(50 * time.Millisecond)
	fail(cb, 6)
	require.True(t, cb.IsOpen())

	time.Sleep(80 * time.Millisecond)
	got, err := Run(cb, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.NotEqual(t, gobreaker.StateOpen, cb.State())
}

func TestConfig_ReadyToTrip(t *testing.T) {
	cfg := FeedFetchConfig()
	tests := []struct {
		name   string
		counts gobreaker.Counts
		want   bool
	}{
		{name: "too few requests", counts: gobreaker.Counts{Requests: 9, TotalFailures: 9}},
		{name: "below ratio", counts: gobreaker.Counts{Requests: 10, TotalFailures: 6}},
		{name: "at ratio", counts: gobreaker.Counts{Requests: 10, TotalFailures: 7}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.readyToTrip(tt.counts))
		})
	}
}

func TestConfigs(t *testing.T) {
	tests := []struct {
		cfg      Config
		wantName string
	}{
		{cfg: DefaultConfig("x"), wantName: "x"},
		{cfg: TextAnalysisConfig("openai"), wantName: "text-analysis-openai"},
		{cfg: FeedFetchConfig(), wantName: "feed-fetch"},
		{cfg: PageFetchConfig(), wantName: "page-fetch"},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			assert.Equal(t, tt.wantName, tt.cfg.Name)
			assert.Positive(t, tt.cfg.MinRequests)
			assert.Positive(t, tt.cfg.Timeout)
			assert.InDelta(t, 0.75, tt.cfg.FailureThreshold, 0.25)
		})
	}
}
