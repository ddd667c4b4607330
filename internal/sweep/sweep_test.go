package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/swapstyle-api/internal/models"
	"github.com/rajivgeraev/swapstyle-api/internal/store"
	"github.com/rajivgeraev/swapstyle-api/internal/timeslot"
)

var baseTime = time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

func newTestService(st *store.MemStore) *Service {
	s := NewService(st)
	s.now = func() time.Time { return baseTime }
	return s
}

func pastSlot() string {
	return timeslot.Format(baseTime.Add(-24 * time.Hour))
}

func futureSlot() string {
	return timeslot.Format(baseTime.Add(24 * time.Hour))
}

func seedItem(t *testing.T, st *store.MemStore, id, userID string, status models.ItemStatus, slots ...string) {
	t.Helper()
	item := &models.ClothingItem{
		ID:        id,
		UserID:    userID,
		Title:     "Вещь " + id,
		Status:    status,
		TimeSlots: slots,
	}
	require.NoError(t, st.Set(context.Background(), store.CollectionItems, id, item.ToDoc()))
}

func seedUser(t *testing.T, st *store.MemStore, id string, swapCount int64) {
	t.Helper()
	require.NoError(t, st.Set(context.Background(), store.CollectionUsers, id, map[string]any{
		"username":  id,
		"swapCount": swapCount,
	}))
}

// seedAcceptedSwap записывает принятое предложение в обе копии
func seedAcceptedSwap(t *testing.T, st *store.MemStore, swapID, ownerID, senderID, itemID, offeredItemID, slot string) {
	t.Helper()
	offer := &models.SwapOffer{
		SwapID:           swapID,
		ItemID:           itemID,
		ItemOwnerID:      ownerID,
		InterestedUserID: senderID,
		OfferedItemID:    offeredItemID,
		SelectedTimeSlot: slot,
		Status:           models.SwapStatusAccepted,
	}
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, store.UserOffersPath(ownerID), swapID, offer.ToDoc()))
	require.NoError(t, st.Set(ctx, store.SentOffersPath(senderID), swapID, offer.ToDoc()))
}

func seedPendingSwap(t *testing.T, st *store.MemStore, swapID, ownerID, senderID, itemID, slot string) {
	t.Helper()
	offer := &models.SwapOffer{
		SwapID:           swapID,
		ItemID:           itemID,
		ItemOwnerID:      ownerID,
		InterestedUserID: senderID,
		SelectedTimeSlot: slot,
		Status:           models.SwapStatusPending,
	}
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, store.UserOffersPath(ownerID), swapID, offer.ToDoc()))
	require.NoError(t, st.Set(ctx, store.SentOffersPath(senderID), swapID, offer.ToDoc()))
}

func itemStatus(t *testing.T, st *store.MemStore, itemID string) string {
	t.Helper()
	doc, err := st.Get(context.Background(), store.CollectionItems, itemID)
	require.NoError(t, err)
	return doc.Data["status"].(string)
}

func swapCount(t *testing.T, st *store.MemStore, userID string) int64 {
	t.Helper()
	doc, err := st.Get(context.Background(), store.CollectionUsers, userID)
	require.NoError(t, err)
	return models.UserFromDoc(doc).SwapCount
}

func TestSweep_DemotesFullyExpiredItems(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	svc := newTestService(st)

	seedItem(t, st, "expired", "u1", models.ItemStatusAvailable, pastSlot())
	seedItem(t, st, "partial", "u1", models.ItemStatusAvailable, pastSlot(), futureSlot())
	seedItem(t, st, "fresh", "u1", models.ItemStatusAvailable, futureSlot())

	require.NoError(t, svc.CheckAndUpdateExpiredItems(ctx))

	assert.Equal(t, string(models.ItemStatusUnavailable), itemStatus(t, st, "expired"))

	// Хотя бы один будущий слот оставляет вещь доступной
	assert.Equal(t, string(models.ItemStatusAvailable), itemStatus(t, st, "partial"))
	assert.Equal(t, string(models.ItemStatusAvailable), itemStatus(t, st, "fresh"))
}

func TestSweep_KeepsItemWithUnparseableSlot(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	svc := newTestService(st)

	// Испорченный слот не должен снимать вещь с обмена
	seedItem(t, st, "broken", "u1", models.ItemStatusAvailable, "15.01.2020 10:00")

	require.NoError(t, svc.CheckAndUpdateExpiredItems(ctx))

	assert.Equal(t, string(models.ItemStatusAvailable), itemStatus(t, st, "broken"))
}

func TestSweep_FinalizesExpiredSwap(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	svc := newTestService(st)

	seedUser(t, st, "owner", 2)
	seedUser(t, st, "sender", 4)
	seedItem(t, st, "target", "owner", models.ItemStatusInProcess, pastSlot())
	seedItem(t, st, "counter", "sender", models.ItemStatusInProcess, pastSlot())
	seedAcceptedSwap(t, st, "swap1", "owner", "sender", "target", "counter", pastSlot())

	require.NoError(t, svc.CheckAndUpdateExpiredItems(ctx))

	// Обе вещи завершены, обмен зачтен обоим участникам
	assert.Equal(t, string(models.ItemStatusSwapped), itemStatus(t, st, "target"))
	assert.Equal(t, string(models.ItemStatusSwapped), itemStatus(t, st, "counter"))
	assert.EqualValues(t, 3, swapCount(t, st, "owner"))
	assert.EqualValues(t, 5, swapCount(t, st, "sender"))

	// Флаг зачета выставлен на обеих копиях предложения
	inbox, err := st.Get(ctx, store.UserOffersPath("owner"), "swap1")
	require.NoError(t, err)
	assert.Equal(t, true, inbox.Data["finalized"])

	sent, err := st.Get(ctx, store.SentOffersPath("sender"), "swap1")
	require.NoError(t, err)
	assert.Equal(t, true, sent.Data["finalized"])
}

func TestSweep_FinalizeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	svc := newTestService(st)

	seedUser(t, st, "owner", 0)
	seedUser(t, st, "sender", 0)
	seedItem(t, st, "target", "owner", models.ItemStatusInProcess, pastSlot())
	seedAcceptedSwap(t, st, "swap1", "owner", "sender", "target", "", pastSlot())

	require.NoError(t, svc.CheckAndUpdateExpiredItems(ctx))
	require.NoError(t, svc.CheckAndUpdateExpiredItems(ctx))

	// Повторный свип из другого процесса тоже не зачтет обмен дважды
	other := newTestService(st)
	require.NoError(t, other.CheckAndUpdateExpiredItems(ctx))

	assert.EqualValues(t, 1, swapCount(t, st, "owner"))
	assert.EqualValues(t, 1, swapCount(t, st, "sender"))
}

func TestSweep_FinalizeSurvivesSessionReset(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	svc := newTestService(st)

	seedUser(t, st, "owner", 0)
	seedUser(t, st, "sender", 0)
	seedItem(t, st, "target", "owner", models.ItemStatusInProcess, pastSlot())
	seedAcceptedSwap(t, st, "swap1", "owner", "sender", "target", "", pastSlot())

	require.NoError(t, svc.CheckAndUpdateExpiredItems(ctx))

	// Сброс сессионного набора не ломает идемпотентность: работает
	// персистентный флаг finalized
	svc.ClearProcessedSwaps()
	require.NoError(t, svc.CheckAndUpdateExpiredItems(ctx))

	assert.EqualValues(t, 1, swapCount(t, st, "owner"))
	assert.EqualValues(t, 1, swapCount(t, st, "sender"))
}

func TestSweep_SkipsSwapWithFutureSlot(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	svc := newTestService(st)

	seedUser(t, st, "owner", 0)
	seedUser(t, st, "sender", 0)
	seedItem(t, st, "target", "owner", models.ItemStatusInProcess, futureSlot())
	seedAcceptedSwap(t, st, "swap1", "owner", "sender", "target", "", futureSlot())

	require.NoError(t, svc.CheckAndUpdateExpiredItems(ctx))

	// Время встречи еще не прошло — ничего не меняется
	assert.Equal(t, string(models.ItemStatusInProcess), itemStatus(t, st, "target"))
	assert.EqualValues(t, 0, swapCount(t, st, "owner"))
}

func TestSweep_RejectsExpiredPendingOffers(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	svc := newTestService(st)

	seedItem(t, st, "target", "owner", models.ItemStatusAvailable, futureSlot())
	seedPendingSwap(t, st, "stale", "owner", "sender", "target", pastSlot())
	seedPendingSwap(t, st, "live", "owner", "sender2", "target", futureSlot())

	require.NoError(t, svc.CheckAndUpdateExpiredItems(ctx))

	inbox, err := st.Get(ctx, store.UserOffersPath("owner"), "stale")
	require.NoError(t, err)
	assert.Equal(t, string(models.SwapStatusRejected), inbox.Data["status"])

	sent, err := st.Get(ctx, store.SentOffersPath("sender"), "stale")
	require.NoError(t, err)
	assert.Equal(t, string(models.SwapStatusRejected), sent.Data["status"])

	// Предложение с будущим временем встречи не тронуто
	live, err := st.Get(ctx, store.UserOffersPath("owner"), "live")
	require.NoError(t, err)
	assert.Equal(t, string(models.SwapStatusPending), live.Data["status"])
}
