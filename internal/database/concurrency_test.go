package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentAdmission(t *testing.T) {
	logger := zerolog.New(zerolog.NewConsoleWriter())
	dbPath := filepath.Join(t.TempDir(), "concurrency.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.EnsureSeeded(ctx, 1, "PC-%02d"))

	const numGoroutines = 10
	users := make([]int64, numGoroutines)
	for i := range users {
		users[i] = createApprovedUser(t, db, "user-"+string(rune('a'+i))).ID
	}

	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(userID int64) {
			defer wg.Done()
			_, admitErr := db.AdmitBooking(ctx, 1, userID, start, end)
			results <- admitErr
		}(users[i])
	}

	wg.Wait()
	close(results)

	successCount := 0
	refusedCount := 0
	for err := range results {
		switch {
		case err == nil:
			successCount++
		case assert.ErrorIs(t, err, ErrNotAvailable):
			refusedCount++
		}
	}

	// Exactly one admission wins the interval, every other one is refused.
	assert.Equal(t, 1, successCount, "only one admission should win the interval")
	assert.Equal(t, numGoroutines-1, refusedCount, "all others should be refused")

	bookings, err := db.GetAllBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestConcurrentAdmissionDistinctResources(t *testing.T) {
	logger := zerolog.New(zerolog.NewConsoleWriter())
	dbPath := filepath.Join(t.TempDir(), "concurrency_multi.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	const numResources = 5
	require.NoError(t, db.EnsureSeeded(ctx, numResources, "PC-%02d"))
	userID := createApprovedUser(t, db, "alice").ID

	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	var wg sync.WaitGroup
	wg.Add(numResources)
	results := make(chan error, numResources)

	for i := 1; i <= numResources; i++ {
		go func(resourceID int64) {
			defer wg.Done()
			_, admitErr := db.AdmitBooking(ctx, resourceID, userID, start, end)
			results <- admitErr
		}(int64(i))
	}

	wg.Wait()
	close(results)

	// Distinct resources never contend; every admission succeeds.
	for err := range results {
		assert.NoError(t, err)
	}

	bookings, err := db.GetAllBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, bookings, numResources)
}
