package items

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapstyle-api/internal/models"
	"github.com/rajivgeraev/swapstyle-api/internal/store"
)

// MaxTimeSlots — максимальное число слотов времени у вещи
const MaxTimeSlots = 4

// Repository отвечает за работу с вещами и избранным
type Repository struct {
	store store.Store
}

// NewRepository создает новый экземпляр Repository
func NewRepository(st store.Store) *Repository {
	return &Repository{store: st}
}

// CreateItem создает новую вещь со статусом AVAILABLE
func (r *Repository) CreateItem(ctx context.Context, userID string, item *models.ClothingItem) (string, error) {
	if item.Title == "" {
		return "", fmt.Errorf("%w: не указано название", ErrValidation)
	}
	if len(item.TimeSlots) == 0 || len(item.TimeSlots) > MaxTimeSlots {
		return "", fmt.Errorf("%w: требуется от 1 до %d слотов времени", ErrValidation, MaxTimeSlots)
	}

	itemID := uuid.New().String()

	item.ID = itemID
	item.UserID = userID
	item.Status = models.ItemStatusAvailable
	item.CreatedAt = time.Now().UnixMilli()

	if err := r.store.Set(ctx, store.CollectionItems, itemID, item.ToDoc()); err != nil {
		return "", fmt.Errorf("ошибка сохранения вещи: %w", err)
	}

	return itemID, nil
}

// GetItemByID возвращает вещь с вычисленными флагами избранного и владения
func (r *Repository) GetItemByID(ctx context.Context, itemID, currentUserID string) (*models.ClothingItem, error) {
	doc, err := r.store.Get(ctx, store.CollectionItems, itemID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("ошибка чтения вещи: %w", err)
	}

	item := models.ItemFromDoc(doc)
	item.IsOwnItem = item.UserID == currentUserID

	if currentUserID != "" {
		_, err := r.store.Get(ctx, store.FavoritesPath(currentUserID), itemID)
		item.IsFavorite = err == nil
	}

	return item, nil
}

// GetItems возвращает доступные вещи других пользователей.
// Вещи, уже предложенные кем-то в ожидающем предложении обмена, скрываются,
// чтобы одна вещь не участвовала в двух обменах одновременно.
func (r *Repository) GetItems(ctx context.Context, currentUserID, category string) ([]models.ClothingItem, error) {
	preds := []store.Predicate{
		store.Neq("userId", currentUserID),
		store.Eq("status", string(models.ItemStatusAvailable)),
	}
	if category != "" && category != "See All" {
		if category == "Accessories" {
			category = "Accessory"
		}
		preds = append(preds, store.Eq("category", category))
	}

	docs, err := r.store.Query(ctx, store.CollectionItems, preds,
		&store.OrderBy{Field: "createdAt", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса вещей: %w", err)
	}

	favoriteIDs, err := r.GetFavoriteItemIDs(ctx, currentUserID)
	if err != nil {
		return nil, err
	}

	offeredIDs, err := r.pendingOfferedItemIDs(ctx)
	if err != nil {
		return nil, err
	}

	var items []models.ClothingItem
	for i := range docs {
		if _, offered := offeredIDs[docs[i].ID]; offered {
			continue
		}
		item := models.ItemFromDoc(&docs[i])
		_, item.IsFavorite = favoriteIDs[item.ID]
		items = append(items, *item)
	}

	return items, nil
}

// SearchItems ищет доступные вещи других пользователей по названию,
// бренду, категории или размеру
func (r *Repository) SearchItems(ctx context.Context, currentUserID, query string) ([]models.ClothingItem, error) {
	docs, err := r.store.Query(ctx, store.CollectionItems, []store.Predicate{
		store.Neq("userId", currentUserID),
		store.Eq("status", string(models.ItemStatusAvailable)),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса вещей: %w", err)
	}

	favoriteIDs, err := r.GetFavoriteItemIDs(ctx, currentUserID)
	if err != nil {
		return nil, err
	}

	var items []models.ClothingItem
	for i := range docs {
		item := models.ItemFromDoc(&docs[i])
		if !containsFold(item.Title, query) &&
			!containsFold(item.Brand, query) &&
			!containsFold(item.Category, query) &&
			!containsFold(item.Size, query) {
			continue
		}
		_, item.IsFavorite = favoriteIDs[item.ID]
		items = append(items, *item)
	}

	return items, nil
}

// GetUserItemsByStatus возвращает вещи пользователя с данным статусом
func (r *Repository) GetUserItemsByStatus(ctx context.Context, userID string, status models.ItemStatus) ([]models.ClothingItem, error) {
	docs, err := r.store.Query(ctx, store.CollectionItems, []store.Predicate{
		store.Eq("userId", userID),
		store.Eq("status", string(status)),
	}, &store.OrderBy{Field: "createdAt", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса вещей: %w", err)
	}

	var items []models.ClothingItem
	for i := range docs {
		item := models.ItemFromDoc(&docs[i])
		item.IsOwnItem = true
		items = append(items, *item)
	}

	return items, nil
}

// GetItemTimeSlots возвращает слоты времени вещи
func (r *Repository) GetItemTimeSlots(ctx context.Context, itemID string) ([]string, error) {
	item, err := r.GetItemByID(ctx, itemID, "")
	if err != nil {
		return nil, err
	}
	return item.TimeSlots, nil
}

// UpdateItemStatus обновляет статус вещи без дополнительных проверок
func (r *Repository) UpdateItemStatus(ctx context.Context, itemID string, status models.ItemStatus) error {
	err := r.store.Update(ctx, store.CollectionItems, itemID, map[string]any{
		"status": string(status),
	})
	if err == store.ErrNotFound {
		return ErrItemNotFound
	}
	return err
}

// IsItemAvailableForSwap перечитывает вещь и проверяет статус AVAILABLE.
// Используется перед выбором вещи в предложение, чтобы закрыть гонку между
// отрисовкой списка и действием пользователя.
func (r *Repository) IsItemAvailableForSwap(ctx context.Context, itemID string) (bool, error) {
	item, err := r.GetItemByID(ctx, itemID, "")
	if err != nil {
		return false, err
	}
	return item.Status == models.ItemStatusAvailable, nil
}

// FilterItemsNotOffered убирает из списка вещи, уже предложенные
// пользователем в ожидающих предложениях обмена
func (r *Repository) FilterItemsNotOffered(ctx context.Context, userID string, items []models.ClothingItem) ([]models.ClothingItem, error) {
	docs, err := r.store.Query(ctx, store.SentOffersPath(userID), []store.Predicate{
		store.Eq("status", string(models.SwapStatusPending)),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса исходящих предложений: %w", err)
	}

	offered := make(map[string]struct{})
	for i := range docs {
		if id, ok := docs[i].Data["offeredItemId"].(string); ok && id != "" {
			offered[id] = struct{}{}
		}
	}

	var filtered []models.ClothingItem
	for _, item := range items {
		if _, ok := offered[item.ID]; !ok {
			filtered = append(filtered, item)
		}
	}

	return filtered, nil
}

// DeleteItem удаляет вещь вместе со всеми ссылающимися на нее предложениями
// обмена (в обеих копиях) и записями избранного. Удалять можно только
// вещь в статусе AVAILABLE.
func (r *Repository) DeleteItem(ctx context.Context, userID, itemID string) error {
	item, err := r.GetItemByID(ctx, itemID, userID)
	if err != nil {
		return err
	}
	if item.UserID != userID {
		return ErrNotOwner
	}
	if item.Status != models.ItemStatusAvailable {
		return ErrItemNotAvailable
	}

	batch := r.store.Batch()

	// Предложения, где вещь является целью или встречной вещью,
	// в обоих представлениях
	for _, group := range []string{store.GroupUserOffers, store.GroupSentOffers} {
		for _, field := range []string{"itemId", "offeredItemId"} {
			docs, err := r.store.QueryGroup(ctx, group, []store.Predicate{
				store.Eq(field, itemID),
			})
			if err != nil {
				return fmt.Errorf("ошибка поиска предложений для удаления: %w", err)
			}
			for i := range docs {
				batch.Delete(docs[i].Path, docs[i].ID)
			}
		}
	}

	// Записи избранного у всех пользователей
	favDocs, err := r.store.QueryGroup(ctx, store.GroupFavorites, []store.Predicate{
		store.Eq("itemId", itemID),
	})
	if err != nil {
		return fmt.Errorf("ошибка поиска избранного для удаления: %w", err)
	}
	for i := range favDocs {
		batch.Delete(favDocs[i].Path, favDocs[i].ID)
	}

	batch.Delete(store.CollectionItems, itemID)

	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка удаления вещи: %w", err)
	}
	return nil
}

// AddToFavorites добавляет вещь в избранное пользователя
func (r *Repository) AddToFavorites(ctx context.Context, userID, itemID string) error {
	return r.store.Set(ctx, store.FavoritesPath(userID), itemID, map[string]any{
		"itemId":    itemID,
		"timestamp": time.Now().UnixMilli(),
	})
}

// RemoveFromFavorites удаляет вещь из избранного пользователя
func (r *Repository) RemoveFromFavorites(ctx context.Context, userID, itemID string) error {
	return r.store.Delete(ctx, store.FavoritesPath(userID), itemID)
}

// GetFavoriteItemIDs возвращает идентификаторы избранных вещей пользователя
func (r *Repository) GetFavoriteItemIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	docs, err := r.store.Query(ctx, store.FavoritesPath(userID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса избранного: %w", err)
	}

	ids := make(map[string]struct{}, len(docs))
	for i := range docs {
		ids[docs[i].ID] = struct{}{}
	}
	return ids, nil
}

// GetFavoriteItems возвращает избранные вещи пользователя; записи на
// уже удаленные вещи пропускаются
func (r *Repository) GetFavoriteItems(ctx context.Context, userID string) ([]models.ClothingItem, error) {
	docs, err := r.store.Query(ctx, store.FavoritesPath(userID), nil,
		&store.OrderBy{Field: "timestamp", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса избранного: %w", err)
	}

	var items []models.ClothingItem
	for i := range docs {
		item, err := r.GetItemByID(ctx, docs[i].ID, userID)
		if err != nil {
			if err == ErrItemNotFound {
				continue
			}
			return nil, err
		}
		items = append(items, *item)
	}

	return items, nil
}

// pendingOfferedItemIDs возвращает вещи, фигурирующие как встречные
// в ожидающих предложениях обмена любых пользователей
func (r *Repository) pendingOfferedItemIDs(ctx context.Context) (map[string]struct{}, error) {
	docs, err := r.store.QueryGroup(ctx, store.GroupSentOffers, []store.Predicate{
		store.Eq("status", string(models.SwapStatusPending)),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса ожидающих предложений: %w", err)
	}

	ids := make(map[string]struct{})
	for i := range docs {
		if id, ok := docs[i].Data["offeredItemId"].(string); ok && id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
