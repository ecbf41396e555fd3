package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puja-service/internal/models"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, factType string, day time.Time) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := factType + "/" + day.Format(time.DateOnly)
	f.calls = append(f.calls, key)
	if err, ok := f.fail[key]; ok {
		return nil, err
	}
	if factType == models.FactMuhurat {
		return json.RawMessage(`{"abhijit_data":{"starts_at":"12:01","ends_at":"12:46"},"rahu_kaal_data":{"starts_at":"12:30","ends_at":"13:54"}}`), nil
	}
	return json.RawMessage(fmt.Sprintf(`{"name":"%s-%s","number":1}`, factType, day.Format(time.DateOnly))), nil
}

func newPanchangamService(t *testing.T, fetcher AstroFetcher) (*PanchangamService, *[]time.Duration) {
	svc := NewPanchangamService(newTestDB(t), fetcher, time.Second, time.UTC)
	var pauses []time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return ctx.Err()
	}
	return svc, &pauses
}

func TestSyncDailyFetchesTodayAndTomorrowOnce(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc, pauses := newPanchangamService(t, fetcher)
	now := time.Date(2025, time.January, 15, 0, 5, 0, 0, time.UTC)

	report, err := svc.SyncDaily(context.Background(), now)
	require.NoError(t, err)
	assert.Len(t, report.Fetched, len(FactTypes)*2)
	assert.Empty(t, report.Skipped)
	assert.Empty(t, report.Errors)
	assert.Len(t, *pauses, len(FactTypes)*2-1)
	assert.Contains(t, fetcher.calls, "tithi/2025-01-16")

	var count int64
	svc.DB.Model(&models.PanchangamEntry{}).Count(&count)
	// muhurat yields two rows per day
	assert.Equal(t, int64((len(FactTypes)+1)*2), count)

	report, err = svc.SyncDaily(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, report.Fetched)
	assert.Len(t, report.Skipped, len(FactTypes)*2)
	assert.Len(t, fetcher.calls, len(FactTypes)*2)

	var again int64
	svc.DB.Model(&models.PanchangamEntry{}).Count(&again)
	assert.Equal(t, count, again)

	// the next day only tomorrow is new
	report, err = svc.SyncDaily(context.Background(), now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, report.Fetched, len(FactTypes))
	assert.Len(t, report.Skipped, len(FactTypes))
}

func TestSyncDailyCollectsErrors(t *testing.T) {
	fetcher := &fakeFetcher{fail: map[string]error{
		"yoga/2025-01-15":   wrap(ErrUpstream, "status 500"),
		"karana/2025-01-16": wrap(ErrMalformedPayload, "bad output"),
	}}
	svc, _ := newPanchangamService(t, fetcher)

	report, err := svc.SyncDaily(context.Background(), time.Date(2025, time.January, 15, 0, 5, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, SyncError{FactType: "yoga", Date: "2025-01-15", Error: "status 500"}, report.Errors[0])
	assert.Equal(t, "karana", report.Errors[1].FactType)
	assert.Len(t, report.Fetched, len(FactTypes)*2-2)

	// failed days are retried on the next run
	fetcher.fail = nil
	report, err = svc.SyncDaily(context.Background(), time.Date(2025, time.January, 15, 0, 5, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"yoga/2025-01-15", "karana/2025-01-16"}, report.Fetched)
}

func TestSyncDailyStopsOnCancel(t *testing.T) {
	svc, _ := newPanchangamService(t, &fakeFetcher{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.SyncDaily(ctx, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPanchangamGet(t *testing.T) {
	svc, _ := newPanchangamService(t, &fakeFetcher{})
	_, err := svc.SyncDaily(context.Background(), time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	all, err := svc.Get("2025-01-15", "")
	require.NoError(t, err)
	assert.Len(t, all, len(FactTypes)+1)

	muhurat, err := svc.Get("2025-01-15", models.FactMuhurat)
	require.NoError(t, err)
	require.Len(t, muhurat, 2)
	assert.Equal(t, 0, muhurat[0].Seq)
	assert.Equal(t, 1, muhurat[1].Seq)

	_, err = svc.Get("2025-03-01", "")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = svc.Get("15/01/2025", "")
	assert.True(t, errors.Is(err, ErrValidation))
	_, err = svc.Get("2025-01-15", "horoscope")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestPanchangamPrune(t *testing.T) {
	svc, _ := newPanchangamService(t, &fakeFetcher{})
	_, err := svc.SyncDaily(context.Background(), time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	n, err := svc.Prune(time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(len(FactTypes)+1), n)

	_, err = svc.Get("2025-01-16", models.FactTithi)
	assert.NoError(t, err)
}

func TestStartSchedulerRejectsBadSpec(t *testing.T) {
	svc, _ := newPanchangamService(t, &fakeFetcher{})
	_, err := svc.StartScheduler("every day", 0)
	assert.Error(t, err)

	c, err := svc.StartScheduler("5 0 * * *", 24*time.Hour)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2)
	c.Stop()
}
