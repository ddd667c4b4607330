package notifications

import (
	"context"
	"fmt"

	"github.com/rajivgeraev/swapstyle-api/internal/models"
	"github.com/rajivgeraev/swapstyle-api/internal/store"
)

// Repository отвечает за внутренние уведомления пользователей
type Repository struct {
	store store.Store
}

// NewRepository создает новый экземпляр Repository
func NewRepository(st store.Store) *Repository {
	return &Repository{store: st}
}

// Create сохраняет уведомление для получателя
func (r *Repository) Create(ctx context.Context, n *models.Notification) error {
	return r.store.Set(ctx, store.NotificationsPath(n.UserID), n.ID, n.ToDoc())
}

// GetUserNotifications возвращает уведомления пользователя, новые первыми
func (r *Repository) GetUserNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	docs, err := r.store.Query(ctx, store.NotificationsPath(userID), nil,
		&store.OrderBy{Field: "timestamp", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса уведомлений: %w", err)
	}

	var list []models.Notification
	for i := range docs {
		list = append(list, *models.NotificationFromDoc(&docs[i]))
	}
	return list, nil
}

// GetUnreadCount возвращает число непрочитанных уведомлений
func (r *Repository) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	docs, err := r.store.Query(ctx, store.NotificationsPath(userID), []store.Predicate{
		store.Eq("isRead", false),
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("ошибка запроса уведомлений: %w", err)
	}
	return len(docs), nil
}

// MarkAllAsRead помечает все непрочитанные уведомления прочитанными одним батчем
func (r *Repository) MarkAllAsRead(ctx context.Context, userID string) error {
	docs, err := r.store.Query(ctx, store.NotificationsPath(userID), []store.Predicate{
		store.Eq("isRead", false),
	}, nil)
	if err != nil {
		return fmt.Errorf("ошибка запроса уведомлений: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}

	batch := r.store.Batch()
	for i := range docs {
		batch.Update(docs[i].Path, docs[i].ID, map[string]any{"isRead": true})
	}
	return batch.Commit(ctx)
}
