package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"brincafacil/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUpsertIsIdempotent(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	first, err := store.UpsertAccess(ctx, &entity.UserAccessRecord{Email: "a@b.com", AccessGranted: true, Source: entity.SourceKirvano, LastStatus: "compra_aprovada"})
	require.NoError(t, err)

	second, err := store.UpsertAccess(ctx, &entity.UserAccessRecord{Email: "a@b.com", AccessGranted: true, Source: entity.SourceStripe, LastStatus: "paid"})
	require.NoError(t, err)

	assert.Equal(t, 1, store.Count())
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, entity.SourceKirvano, second.Source)
	assert.Equal(t, "paid", second.LastStatus)
	assert.True(t, second.AccessGranted)
}

func TestMemoryConcurrentUpserts(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.UpsertAccess(ctx, &entity.UserAccessRecord{Email: "same@b.com", AccessGranted: true})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, store.Count())
}

func TestMemoryGetAccessNotFound(t *testing.T) {
	_, err := NewMemory().GetAccess(context.Background(), "none@b.com")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestMemoryPaymentLogs(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendPaymentLog(ctx, &entity.PaymentLogRecord{
			Id:        string(rune('a' + i)),
			Email:     "a@b.com",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.AppendPaymentLog(ctx, &entity.PaymentLogRecord{Id: "x", Email: "other@b.com"}))

	logs, err := store.PaymentLogs(ctx, "a@b.com", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "c", logs[0].Id)
	assert.Equal(t, "b", logs[1].Id)
}
