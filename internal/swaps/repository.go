package swaps

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapstyle-api/internal/models"
	"github.com/rajivgeraev/swapstyle-api/internal/notifications"
	"github.com/rajivgeraev/swapstyle-api/internal/store"
	"github.com/rajivgeraev/swapstyle-api/internal/timeslot"
)

// Repository отвечает за жизненный цикл предложений обмена: создание
// с двойной записью, принятие с отклонением конкурирующих предложений
// и запросы входящих/исходящих предложений.
type Repository struct {
	store         store.Store
	notifications *notifications.Repository
	now           func() time.Time
}

// NewRepository создает новый экземпляр Repository
func NewRepository(st store.Store, notif *notifications.Repository) *Repository {
	return &Repository{
		store:         st,
		notifications: notif,
		now:           time.Now,
	}
}

// CreateSwapOffer создает предложение обмена. Обе копии (исходящая у
// отправителя и входящая у владельца вещи) записываются одним батчем,
// чтобы представления не разошлись. Уведомление владельцу создается
// по возможности и не влияет на результат операции.
func (r *Repository) CreateSwapOffer(ctx context.Context, senderID string, offer *models.SwapOffer) (string, error) {
	if offer.ItemID == "" || offer.SelectedTimeSlot == "" ||
		offer.SelectedLocation.Name == "" || offer.SelectedLocation.Address == "" {
		return "", ErrValidation
	}

	// Проверяем целевую вещь до любой записи
	itemDoc, err := r.store.Get(ctx, store.CollectionItems, offer.ItemID)
	if err != nil {
		if err == store.ErrNotFound {
			return "", ErrItemNotFound
		}
		return "", fmt.Errorf("ошибка чтения вещи: %w", err)
	}
	item := models.ItemFromDoc(itemDoc)

	if item.UserID == senderID {
		return "", fmt.Errorf("%w: нельзя предложить обмен на собственную вещь", ErrValidation)
	}
	if item.Status != models.ItemStatusAvailable {
		return "", ErrItemNotAvailable
	}

	// Слот должен быть одним из слотов вещи и в будущем
	if !containsSlot(item.TimeSlots, offer.SelectedTimeSlot) {
		return "", ErrInvalidTimeSlot
	}
	slotTime, err := timeslot.Parse(offer.SelectedTimeSlot)
	if err != nil || !slotTime.After(r.now()) {
		return "", ErrInvalidTimeSlot
	}

	// Проверяем встречную вещь, если она есть
	if offer.OfferedItemID != "" {
		offeredDoc, err := r.store.Get(ctx, store.CollectionItems, offer.OfferedItemID)
		if err != nil {
			if err == store.ErrNotFound {
				return "", ErrItemNotFound
			}
			return "", fmt.Errorf("ошибка чтения встречной вещи: %w", err)
		}
		offered := models.ItemFromDoc(offeredDoc)
		if offered.UserID != senderID {
			return "", ErrNotOfferedOwner
		}

		// Одна вещь не может ждать одобрения в двух предложениях сразу
		existing, err := r.store.Query(ctx, store.SentOffersPath(senderID), []store.Predicate{
			store.Eq("offeredItemId", offer.OfferedItemID),
			store.Eq("status", string(models.SwapStatusPending)),
		}, nil)
		if err != nil {
			return "", fmt.Errorf("ошибка проверки существующих предложений: %w", err)
		}
		if len(existing) > 0 {
			return "", ErrDuplicateOffer
		}

		if offer.OfferedItemTitle == "" {
			offer.OfferedItemTitle = offered.Title
		}
		if len(offer.OfferedItemPhotoURLs) == 0 {
			offer.OfferedItemPhotoURLs = offered.Photos
		}
	}

	swapID := uuid.New().String()

	offer.SwapID = swapID
	offer.InterestedUserID = senderID
	offer.ItemOwnerID = item.UserID
	offer.ItemTitle = item.Title
	offer.ItemPhotoURLs = item.Photos
	offer.Status = models.SwapStatusPending
	offer.Finalized = false
	offer.CreatedAt = r.now().UnixMilli()

	data := offer.ToDoc()

	// Обе копии пишутся атомарно: однобокое предложение хуже, чем никакое
	batch := r.store.Batch()
	batch.Set(store.SentOffersPath(senderID), swapID, data)
	batch.Set(store.UserOffersPath(item.UserID), swapID, data)
	if err := batch.Commit(ctx); err != nil {
		return "", fmt.Errorf("ошибка сохранения предложения обмена: %w", err)
	}

	r.notifyOfferCreated(ctx, senderID, offer)

	return swapID, nil
}

// UpdateSwapOfferStatus принимает или отклоняет предложение обмена от имени
// владельца вещи. При принятии все конкурирующие ожидающие предложения,
// ссылающиеся на любую из двух вещей, отклоняются в обеих копиях тем же
// батчем, которым принимается само предложение.
func (r *Repository) UpdateSwapOfferStatus(ctx context.Context, ownerID, swapID string, newStatus models.SwapOfferStatus) error {
	if newStatus != models.SwapStatusAccepted && newStatus != models.SwapStatusRejected {
		return ErrInvalidStatus
	}

	doc, err := r.store.Get(ctx, store.UserOffersPath(ownerID), swapID)
	if err != nil {
		if err == store.ErrNotFound {
			return ErrOfferNotFound
		}
		return fmt.Errorf("ошибка чтения предложения обмена: %w", err)
	}
	offer := models.SwapOfferFromDoc(doc)

	if offer.Status != models.SwapStatusPending {
		return ErrOfferNotPending
	}

	if newStatus == models.SwapStatusAccepted {
		if err := r.acceptOffer(ctx, ownerID, offer); err != nil {
			return err
		}
	} else {
		batch := r.store.Batch()
		batch.Update(store.UserOffersPath(ownerID), swapID,
			map[string]any{"status": string(models.SwapStatusRejected)})
		batch.Update(store.SentOffersPath(offer.InterestedUserID), swapID,
			map[string]any{"status": string(models.SwapStatusRejected)})
		if err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("ошибка отклонения предложения: %w", err)
		}
	}

	r.notifyOfferDecision(ctx, ownerID, offer, newStatus)

	return nil
}

// acceptOffer выполняет принятие предложения. Переход вещи
// AVAILABLE -> IN_PROCESS — условная операция в том же батче, что
// отклонение конкурирующих предложений и статусы обеих копий самого
// предложения: при одновременном принятии двух предложений на одну
// вещь проигравший проваливает условие, и ни одна из его записей не
// применяется; при сбое батча вещь остается AVAILABLE, а предложение
// PENDING, так что принятие можно просто повторить.
func (r *Repository) acceptOffer(ctx context.Context, ownerID string, offer *models.SwapOffer) error {
	competing, err := r.collectCompetingOffers(ctx, offer)
	if err != nil {
		return err
	}

	batch := r.store.Batch()

	batch.UpdateIf(store.CollectionItems, offer.ItemID,
		store.Eq("status", string(models.ItemStatusAvailable)),
		map[string]any{"status": string(models.ItemStatusInProcess)})

	for _, other := range competing {
		batch.Update(store.UserOffersPath(other.ItemOwnerID), other.SwapID,
			map[string]any{"status": string(models.SwapStatusRejected)})
		batch.Update(store.SentOffersPath(other.InterestedUserID), other.SwapID,
			map[string]any{"status": string(models.SwapStatusRejected)})

		// Уведомление отправителю отклоненного предложения — в том же батче
		n := r.rejectionNotification(other)
		batch.Set(store.NotificationsPath(other.InterestedUserID), n.ID, n.ToDoc())
	}

	batch.Update(store.UserOffersPath(ownerID), offer.SwapID,
		map[string]any{"status": string(models.SwapStatusAccepted)})
	batch.Update(store.SentOffersPath(offer.InterestedUserID), offer.SwapID,
		map[string]any{"status": string(models.SwapStatusAccepted)})

	if err := batch.Commit(ctx); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return ErrItemNotAvailable
		case errors.Is(err, store.ErrNotFound):
			return ErrItemNotFound
		}
		return fmt.Errorf("ошибка принятия предложения: %w", err)
	}

	// Встречная вещь тоже уходит в обмен
	if offer.OfferedItemID != "" {
		err := r.store.Update(ctx, store.CollectionItems, offer.OfferedItemID,
			map[string]any{"status": string(models.ItemStatusInProcess)})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPartialUpdate, err)
		}
	}

	return nil
}

// collectCompetingOffers находит все другие ожидающие предложения,
// ссылающиеся на целевую вещь или на встречную вещь (в любой роли),
// без дублей по swapId
func (r *Repository) collectCompetingOffers(ctx context.Context, offer *models.SwapOffer) ([]*models.SwapOffer, error) {
	queries := [][]store.Predicate{
		{
			store.Eq("itemId", offer.ItemID),
			store.Eq("status", string(models.SwapStatusPending)),
		},
	}
	if offer.OfferedItemID != "" {
		queries = append(queries,
			[]store.Predicate{
				store.Eq("offeredItemId", offer.OfferedItemID),
				store.Eq("status", string(models.SwapStatusPending)),
			},
			[]store.Predicate{
				store.Eq("itemId", offer.OfferedItemID),
				store.Eq("status", string(models.SwapStatusPending)),
			},
		)
	}

	seen := make(map[string]struct{})
	var competing []*models.SwapOffer

	for _, preds := range queries {
		docs, err := r.store.QueryGroup(ctx, store.GroupUserOffers, preds)
		if err != nil {
			return nil, fmt.Errorf("ошибка поиска конкурирующих предложений: %w", err)
		}
		for i := range docs {
			other := models.SwapOfferFromDoc(&docs[i])
			if other.SwapID == offer.SwapID {
				continue
			}
			if _, ok := seen[other.SwapID]; ok {
				continue
			}
			seen[other.SwapID] = struct{}{}
			competing = append(competing, other)
		}
	}

	return competing, nil
}

// GetSwapOfferByID возвращает предложение обмена из входящих или исходящих
// предложений пользователя
func (r *Repository) GetSwapOfferByID(ctx context.Context, userID, swapID string) (*models.SwapOffer, error) {
	doc, err := r.store.Get(ctx, store.UserOffersPath(userID), swapID)
	if err == store.ErrNotFound {
		doc, err = r.store.Get(ctx, store.SentOffersPath(userID), swapID)
	}
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("ошибка чтения предложения обмена: %w", err)
	}

	return models.SwapOfferFromDoc(doc), nil
}

// GetUserSentOffers возвращает исходящие предложения пользователя, новые
// первыми. Предложения на уже удаленные вещи пропускаются.
func (r *Repository) GetUserSentOffers(ctx context.Context, userID string) ([]models.SwapOffer, error) {
	docs, err := r.store.Query(ctx, store.SentOffersPath(userID), nil,
		&store.OrderBy{Field: "createdAt", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса исходящих предложений: %w", err)
	}

	var offers []models.SwapOffer
	for i := range docs {
		offer := models.SwapOfferFromDoc(&docs[i])

		_, err := r.store.Get(ctx, store.CollectionItems, offer.ItemID)
		if err == store.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка проверки вещи: %w", err)
		}

		offers = append(offers, *offer)
	}

	return offers, nil
}

// GetItemSwapOffers возвращает входящие предложения по вещи, новые первыми.
// Без фильтра возвращаются только ожидающие предложения.
func (r *Repository) GetItemSwapOffers(ctx context.Context, ownerID, itemID string, status *models.SwapOfferStatus) ([]models.SwapOffer, error) {
	filter := models.SwapStatusPending
	if status != nil {
		filter = *status
	}

	docs, err := r.store.Query(ctx, store.UserOffersPath(ownerID), []store.Predicate{
		store.Eq("itemId", itemID),
		store.Eq("status", string(filter)),
	}, &store.OrderBy{Field: "createdAt", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса предложений по вещи: %w", err)
	}

	var offers []models.SwapOffer
	for i := range docs {
		offers = append(offers, *models.SwapOfferFromDoc(&docs[i]))
	}
	return offers, nil
}

// FindSwapsByOfferedItem возвращает исходящие предложения пользователя,
// в которых данная вещь выступает встречной
func (r *Repository) FindSwapsByOfferedItem(ctx context.Context, userID, offeredItemID string, status *models.SwapOfferStatus) ([]models.SwapOffer, error) {
	preds := []store.Predicate{
		store.Eq("offeredItemId", offeredItemID),
	}
	if status != nil {
		preds = append(preds, store.Eq("status", string(*status)))
	}

	docs, err := r.store.Query(ctx, store.SentOffersPath(userID), preds,
		&store.OrderBy{Field: "createdAt", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса предложений по встречной вещи: %w", err)
	}

	var offers []models.SwapOffer
	for i := range docs {
		offers = append(offers, *models.SwapOfferFromDoc(&docs[i]))
	}
	return offers, nil
}

// notifyOfferCreated создает уведомление владельцу вещи о новом предложении.
// Ошибка не влияет на результат создания предложения.
func (r *Repository) notifyOfferCreated(ctx context.Context, senderID string, offer *models.SwapOffer) {
	senderName := "Кто-то"
	if senderDoc, err := r.store.Get(ctx, store.CollectionUsers, senderID); err == nil {
		if name := models.UserFromDoc(senderDoc).Username; name != "" {
			senderName = name
		}
	}

	n := &models.Notification{
		ID:          uuid.New().String(),
		UserID:      offer.ItemOwnerID,
		Title:       "Новое предложение обмена",
		Message:     fmt.Sprintf("%s предлагает обмен на вашу вещь «%s». Подробности в профиле.", senderName, offer.ItemTitle),
		SenderName:  senderName,
		ItemID:      offer.ItemID,
		ItemTitle:   offer.ItemTitle,
		SwapOfferID: offer.SwapID,
		Type:        models.NotificationSwapOffer,
		IsRead:      false,
		Timestamp:   r.now().UnixMilli(),
	}

	if err := r.notifications.Create(ctx, n); err != nil {
		log.Printf("Ошибка создания уведомления о предложении: %v", err)
	}
}

// notifyOfferDecision создает уведомление отправителю о принятии или
// отклонении его предложения. Ошибка не влияет на результат операции.
func (r *Repository) notifyOfferDecision(ctx context.Context, ownerID string, offer *models.SwapOffer, newStatus models.SwapOfferStatus) {
	ownerName := "Владелец"
	if ownerDoc, err := r.store.Get(ctx, store.CollectionUsers, ownerID); err == nil {
		if name := models.UserFromDoc(ownerDoc).Username; name != "" {
			ownerName = name
		}
	}

	n := &models.Notification{
		ID:          uuid.New().String(),
		UserID:      offer.InterestedUserID,
		SenderName:  ownerName,
		ItemID:      offer.ItemID,
		ItemTitle:   offer.ItemTitle,
		SwapOfferID: offer.SwapID,
		IsRead:      false,
		Timestamp:   r.now().UnixMilli(),
	}

	if newStatus == models.SwapStatusAccepted {
		n.Title = "Предложение обмена принято"
		n.Message = fmt.Sprintf("%s принял ваше предложение по вещи «%s». Можно договариваться о встрече.", ownerName, offer.ItemTitle)
		n.Type = models.NotificationSwapAccepted
	} else {
		n.Title = "Предложение обмена отклонено"
		n.Message = fmt.Sprintf("%s отклонил ваше предложение по вещи «%s».", ownerName, offer.ItemTitle)
		n.Type = models.NotificationSwapRejected
	}

	if err := r.notifications.Create(ctx, n); err != nil {
		log.Printf("Ошибка создания уведомления о решении: %v", err)
	}
}

// rejectionNotification строит уведомление об автоматическом отклонении
// конкурирующего предложения
func (r *Repository) rejectionNotification(other *models.SwapOffer) *models.Notification {
	return &models.Notification{
		ID:          uuid.New().String(),
		UserID:      other.InterestedUserID,
		Title:       "Предложение обмена отклонено",
		Message:     fmt.Sprintf("Ваше предложение по вещи «%s» отклонено автоматически: вещь уже участвует в другом обмене.", other.ItemTitle),
		ItemID:      other.ItemID,
		ItemTitle:   other.ItemTitle,
		SwapOfferID: other.SwapID,
		Type:        models.NotificationSwapRejected,
		IsRead:      false,
		Timestamp:   r.now().UnixMilli(),
	}
}

func containsSlot(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}
