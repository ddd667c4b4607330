package swaps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/swapstyle-api/internal/models"
	"github.com/rajivgeraev/swapstyle-api/internal/notifications"
	"github.com/rajivgeraev/swapstyle-api/internal/store"
	"github.com/rajivgeraev/swapstyle-api/internal/timeslot"
)

var baseTime = time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

func newTestRepo() (*Repository, *store.MemStore) {
	st := store.NewMemStore()
	repo := NewRepository(st, notifications.NewRepository(st))
	repo.now = func() time.Time { return baseTime }
	return repo, st
}

func futureSlot() string {
	return timeslot.Format(baseTime.Add(24 * time.Hour))
}

func pastSlot() string {
	return timeslot.Format(baseTime.Add(-24 * time.Hour))
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

func makeOffer(itemID, offeredItemID, slot string) *models.SwapOffer {
	return &models.SwapOffer{
		ItemID:           itemID,
		OfferedItemID:    offeredItemID,
		SelectedTimeSlot: slot,
		SelectedLocation: models.SwapLocation{Name: "Парк Горького", Address: "Крымский Вал, 9"},
	}
}

func offerStatus(t *testing.T, st *store.MemStore, path, swapID string) string {
	t.Helper()
	doc, err := st.Get(context.Background(), path, swapID)
	require.NoError(t, err)
	return doc.Data["status"].(string)
}

func itemStatus(t *testing.T, st *store.MemStore, itemID string) string {
	t.Helper()
	doc, err := st.Get(context.Background(), store.CollectionItems, itemID)
	require.NoError(t, err)
	return doc.Data["status"].(string)
}

func TestCreateSwapOffer_WritesBothCopies(t *testing.T) {
	ctx := context.Background()
	repo, st := newTestRepo()

	seedItem(t, st, "target", "owner", models.ItemStatusAvailable, futureSlot())
	seedItem(t, st, "counter", "sender", models.ItemStatusAvailable, futureSlot())

	swapID, err := repo.CreateSwapOffer(ctx, "sender", makeOffer("target", "counter", futureSlot()))
	require.NoError(t, err)
	require.NotEmpty(t, swapID)

	// Обе копии существуют и в статусе PENDING
	sent, err := st.Get(ctx, store.SentOffersPath("sender"), swapID)
	require.NoError(t, err)
	inbox, err := st.Get(ctx, store.UserOffersPath("owner"), swapID)
	require.NoError(t, err)

	assert.Equal(t, string(models.SwapStatusPending), sent.Data["status"])
	assert.Equal(t, string(models.SwapStatusPending), inbox.Data["status"])

	// Денормализованные поля заполнены из вещей
	assert.Equal(t, "Вещь target", sent.Data["itemTitle"])
	assert.Equal(t, "owner", sent.Data["itemOwnerId"])
	assert.Equal(t, "sender", inbox.Data["interestedUserId"])
	assert.Equal(t, "Вещь counter", inbox.Data["offeredItemTitle"])

	// Владелец вещи получил уведомление о предложении
	notifs, err := st.Query(ctx, store.NotificationsPath("owner"), nil, nil)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, string(models.NotificationSwapOffer), notifs[0].Data["type"])
}

func TestCreateSwapOffer_Validation(t *testing.T) {
	ctx := context.Background()
	repo, st := newTestRepo()

	seedItem(t, st, "target", "owner", models.ItemStatusAvailable, futureSlot())

	// Не заполнены обязательные поля
	_, err := repo.CreateSwapOffer(ctx, "sender", &models.SwapOffer{ItemID: "target"})
	assert.ErrorIs(t, err, ErrValidation)

	// Целевая вещь не существует
	_, err = repo.CreateSwapOffer(ctx, "sender", makeOffer("missing", "", futureSlot()))
	assert.ErrorIs(t, err, ErrItemNotFound)

	// Нельзя предложить обмен на собственную вещь
	_, err = repo.CreateSwapOffer(ctx, "owner", makeOffer("target", "", futureSlot()))
	assert.ErrorIs(t, err, ErrValidation)

	// Слот не из списка вещи
	_, err = repo.CreateSwapOffer(ctx, "sender",
		makeOffer("target", "", timeslot.Format(baseTime.Add(48*time.Hour))))
	assert.ErrorIs(t, err, ErrInvalidTimeSlot)
}

func TestCreateSwapOffer_PastSlot(t *testing.T) {
	ctx := context.Background()
	repo, st := newTestRepo()

	seedItem(t, st, "target", "owner", models.ItemStatusAvailable, pastSlot())

	_, err := repo.CreateSwapOffer(ctx, "sender", makeOffer("target", "", pastSlot()))
	assert.ErrorIs(t, err, ErrInvalidTimeSlot)
}

func TestCreateSwapOffer_ItemNotAvailable(t *testing.T) {
	ctx := context.Background()
	repo, st := newTestRepo()

	seedItem(t, st, "target", "owner", models.ItemStatusInProcess, futureSlot())

	_, err := repo.CreateSwapOffer(ctx, "sender", makeOffer("target", "", futureSlot()))
	assert.ErrorIs(t, err, ErrItemNotAvailable)
}

func TestCreateSwapOffer_OfferedItemChecks(t *testing.T) {
	ctx := context.Background()
	repo, st := newTestRepo()

	seedItem(t, st, "target", "owner", models.ItemStatusAvailable, futureSlot())
	seedItem(t, st, "target2", "owner2", models.ItemStatusAvailable, futureSlot())
	seedItem(t, st, "foreign", "someone", models.ItemStatusAvailable, futureSlot())
	seedItem(t, st, "counter", "sender", models.ItemStatusAvailable, futureSlot())

	// Встречная вещь принадлежит другому пользователю
	_, err := repo.CreateSwapOffer(ctx, "sender", makeOffer("target", "foreign", futureSlot()))
	assert.ErrorIs(t, err, ErrNotOfferedOwner)

	// Одна вещь не может ждать одобрения в двух предложениях сразу
	_, err = repo.CreateSwapOffer(ctx, "sender", makeOffer("target", "counter", futureSlot()))
	require.NoError(t, err)

	_, err = repo.CreateSwapOffer(ctx, "sender", makeOffer("target2", "counter", futureSlot()))
	assert.ErrorIs(t, err, ErrDuplicateOffer)
}

func TestAcceptOffer_RejectsCompetingOffers(t *testing.T) {
	ctx := context.Background()
	repo, st := newTestRepo()

	seedItem(t, st, "target", "owner", models.ItemStatusAvailable, futureSlot())
	seedItem(t, st, "counter1", "s1", models.ItemStatusAvailable, futureSlot())
	seedItem(t, st, "counter2", "s2", models.ItemStatusAvailable, futureSlot())

	swap1, err := repo.CreateSwapOffer(ctx, "s1", makeOffer("target", "counter1", futureSlot()))
	require.NoError(t, err)
	swap2, err := repo.CreateSwapOffer(ctx, "s2", makeOffer("target", "counter2", futureSlot()))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateSwapOfferStatus(ctx, "owner", swap1, models.SwapStatusAccepted))

	// Принятое предложение — ACCEPTED в обеих копиях
	assert.Equal(t, string(models.SwapStatusAccepted), offerStatus(t, st, store.UserOffersPath("owner"), swap1))
	assert.Equal(t, string(models.SwapStatusAccepted), offerStatus(t, st, store.SentOffersPath("s1"), swap1))

	// Конкурирующее — REJECTED в обеих копиях
	assert.Equal(t, string(models.SwapStatusRejected), offerStatus(t, st, store.UserOffersPath("owner"), swap2))
	assert.Equal(t, string(models.SwapStatusRejected), offerStatus(t, st, store.SentOffersPath("s2"), swap2))

	// Обе вещи обмена уходят в IN_PROCESS, вещь проигравшего остается доступной
	assert.Equal(t, string(models.ItemStatusInProcess), itemStatus(t, st, "target"))
	assert.Equal(t, string(models.ItemStatusInProcess), itemStatus(t, st, "counter1"))
	assert.Equal(t, string(models.ItemStatusAvailable), itemStatus(t, st, "counter2"))

	// Проигравший уведомлен об автоматическом отклонении; время
	// уведомления берется из часов репозитория
	notifs, err := st.Query(ctx, store.NotificationsPath("s2"), []store.Predicate{
		store.Eq("type", string(models.NotificationSwapRejected)),
	}, nil)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.EqualValues(t, baseTime.UnixMilli(), notifs[0].Data["timestamp"])

	// Победитель уведомлен о принятии
	notifs, err = st.Query(ctx, store.NotificationsPath("s1"), []store.Predicate{
		store.Eq("type", string(models.NotificationSwapAccepted)),
	}, nil)
	require.NoError(t, err)
	assert.Len(t, notifs, 1)
}

func TestAcceptOffer_RejectsOffersOnCounterItem(t *testing.T) {
	ctx := context.Background()
	repo, st := newTestRepo()

	// s1 предлагает counter за target; s3 в это время претендует на counter
	seedItem(t, st, "target", "owner", models.ItemStatusAvailable, futureSlot())
	seedItem(t, st, "counter", "s1", models.ItemStatusAvailable, futureSlot())

	swap1, err := repo.CreateSwapOffer(ctx, "s1", makeOffer("target", "counter", futureSlot()))
	require.NoError(t, err)
	swap2, err := repo.CreateSwapOffer(ctx, "s3", makeOffer("counter", "", futureSlot()))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateSwapOfferStatus(ctx, "owner", swap1, models.SwapStatusAccepted))

	// Предложение s3 на встречную вещь отклонено в обеих копиях
	assert.Equal(t, string(models.SwapStatusRejected), offerStatus(t, st, store.UserOffersPath("s1"), swap2))
	assert.Equal(t, string(models.SwapStatusRejected), offerStatus(t, st, store.SentOffersPath("s3"), swap2))
}

// flakyStore проваливает Commit следующего батча ровно один раз
type flakyStore struct {
	store.Store
	failNextCommit bool
}

func (f *flakyStore) Batch() store.Batch {
	if f.failNextCommit {
		f.failNextCommit = false
		return failingBatch{}
	}
	return f.Store.Batch()
}

type failingBatch struct{}

func (failingBatch) Set(string, string, map[string]any)                       {}
func (failingBatch) Update(string, string, map[string]any)                    {}
func (failingBatch) UpdateIf(string, string, store.Predicate, map[string]any) {}
func (failingBatch) Increment(string, string, string, int64)                  {}
func (failingBatch) Delete(string, string)                                    {}

func (failingBatch) Commit(context.Context) error {
	return errors.New("временный сбой хранилища")
}

func TestAcceptOffer_RetryAfterCommitFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	flaky := &flakyStore{Store: mem}
	repo := NewRepository(flaky, notifications.NewRepository(mem))
	repo.now = func() time.Time { return baseTime }

	seedItem(t, mem, "target", "owner", models.ItemStatusAvailable, futureSlot())

	swapID, err := repo.CreateSwapOffer(ctx, "sender", makeOffer("target", "", futureSlot()))
	require.NoError(t, err)

	// Батч принятия проваливается на Commit
	flaky.failNextCommit = true
	err = repo.UpdateSwapOfferStatus(ctx, "owner", swapID, models.SwapStatusAccepted)
	require.Error(t, err)

	// Ни одна запись не применилась: вещь доступна, предложение ожидает
	assert.Equal(t, string(models.ItemStatusAvailable), itemStatus(t, mem, "target"))
	assert.Equal(t, string(models.SwapStatusPending), offerStatus(t, mem, store.UserOffersPath("owner"), swapID))
	assert.Equal(t, string(models.SwapStatusPending), offerStatus(t, mem, store.SentOffersPath("sender"), swapID))

	// Повторное принятие доводит обмен до конца
	require.NoError(t, repo.UpdateSwapOfferStatus(ctx, "owner", swapID, models.SwapStatusAccepted))
	assert.Equal(t, string(models.ItemStatusInProcess), itemStatus(t, mem, "target"))
	assert.Equal(t, string(models.SwapStatusAccepted), offerStatus(t, mem, store.UserOffersPath("owner"), swapID))
	assert.Equal(t, string(models.SwapStatusAccepted), offerStatus(t, mem, store.SentOffersPath("sender"), swapID))
}

func TestAcceptOffer_ItemAlreadyTaken(t *testing.T) {
	ctx := context.Background()
	repo, st := newTestRepo()

	seedItem(t, st, "target", "owner", models.ItemStatusAvailable, futureSlot())

	swapID, err := repo.CreateSwapOffer(ctx, "sender", makeOffer("target", "", futureSlot()))
	require.NoError(t, err)

	// Вещь успела уйти в другой обмен
	require.NoError(t, st.Update(ctx, store.CollectionItems, "target",
		map[string]any{"status": string(models.ItemStatusInProcess)}))

	err = repo.UpdateSwapOfferStatus(ctx, "owner", swapID, models.SwapStatusAccepted)
	assert.ErrorIs(t, err, ErrItemNotAvailable)

	// Предложение не тронуто
	assert.Equal(t, string(models.SwapStatusPending), offerStatus(t, st, store.UserOffersPath("owner"), swapID))
	assert.Equal(t, string(models.SwapStatusPending), offerStatus(t, st, store.SentOffersPath("sender"), swapID))
}

func TestRejectOffer(t *testing.T) {
	ctx := context.Background()
	repo, st := newTestRepo()

	seedItem(t, st, "target", "owner", models.ItemStatusAvailable, futureSlot())

	swapID, err := repo.CreateSwapOffer(ctx, "sender", makeOffer("target", "", futureSlot()))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateSwapOfferStatus(ctx, "owner", swapID, models.SwapStatusRejected))

	assert.Equal(t, string(models.SwapStatusRejected), offerStatus(t, st, store.UserOffersPath("owner"), swapID))
	assert.Equal(t, string(models.SwapStatusRejected), offerStatus(t, st, store.SentOffersPath("sender"), swapID))

	// Вещь остается доступной для других предложений
	assert.Equal(t, string(models.ItemStatusAvailable), itemStatus(t, st, "target"))
}

func TestUpdateSwapOfferStatus_Terminal(t *testing.T) {
	ctx := context.Background()
	repo, st := newTestRepo()

	seedItem(t, st, "target", "owner", models.ItemStatusAvailable, futureSlot())

	swapID, err := repo.CreateSwapOffer(ctx, "sender", makeOffer("target", "", futureSlot()))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateSwapOfferStatus(ctx, "owner", swapID, models.SwapStatusRejected))

	// Решение по предложению принимается один раз
	err = repo.UpdateSwapOfferStatus(ctx, "owner", swapID, models.SwapStatusAccepted)
	assert.ErrorIs(t, err, ErrOfferNotPending)

	err = repo.UpdateSwapOfferStatus(ctx, "owner", swapID, models.SwapStatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	err = repo.UpdateSwapOfferStatus(ctx, "owner", "missing", models.SwapStatusRejected)
	assert.ErrorIs(t, err, ErrOfferNotFound)
}

func TestGetUserSentOffers_SkipsDeletedItems(t *testing.T) {
	ctx := context.Background()
	repo, st := newTestRepo()

	seedItem(t, st, "t1", "owner", models.ItemStatusAvailable, futureSlot())
	seedItem(t, st, "t2", "owner", models.ItemStatusAvailable, futureSlot())

	_, err := repo.CreateSwapOffer(ctx, "sender", makeOffer("t1", "", futureSlot()))
	require.NoError(t, err)
	_, err = repo.CreateSwapOffer(ctx, "sender", makeOffer("t2", "", futureSlot()))
	require.NoError(t, err)

	// Вещь t1 удалили — предложение по ней не показывается
	require.NoError(t, st.Delete(ctx, store.CollectionItems, "t1"))

	offers, err := repo.GetUserSentOffers(ctx, "sender")
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "t2", offers[0].ItemID)
}

func TestGetItemSwapOffers_DefaultPendingFilter(t *testing.T) {
	ctx := context.Background()
	repo, st := newTestRepo()

	seedItem(t, st, "target", "owner", models.ItemStatusAvailable, futureSlot())

	swapID, err := repo.CreateSwapOffer(ctx, "sender", makeOffer("target", "", futureSlot()))
	require.NoError(t, err)

	offers, err := repo.GetItemSwapOffers(ctx, "owner", "target", nil)
	require.NoError(t, err)
	assert.Len(t, offers, 1)

	require.NoError(t, repo.UpdateSwapOfferStatus(ctx, "owner", swapID, models.SwapStatusRejected))

	// По умолчанию видны только ожидающие
	offers, err = repo.GetItemSwapOffers(ctx, "owner", "target", nil)
	require.NoError(t, err)
	assert.Empty(t, offers)

	rejected := models.SwapStatusRejected
	offers, err = repo.GetItemSwapOffers(ctx, "owner", "target", &rejected)
	require.NoError(t, err)
	assert.Len(t, offers, 1)
}

func TestGetSwapOfferByID(t *testing.T) {
	ctx := context.Background()
	repo, st := newTestRepo()

	seedItem(t, st, "target", "owner", models.ItemStatusAvailable, futureSlot())

	swapID, err := repo.CreateSwapOffer(ctx, "sender", makeOffer("target", "", futureSlot()))
	require.NoError(t, err)

	// Видно и отправителю, и владельцу
	offer, err := repo.GetSwapOfferByID(ctx, "sender", swapID)
	require.NoError(t, err)
	assert.Equal(t, swapID, offer.SwapID)

	offer, err = repo.GetSwapOfferByID(ctx, "owner", swapID)
	require.NoError(t, err)
	assert.Equal(t, swapID, offer.SwapID)

	_, err = repo.GetSwapOfferByID(ctx, "stranger", swapID)
	assert.ErrorIs(t, err, ErrOfferNotFound)
}
