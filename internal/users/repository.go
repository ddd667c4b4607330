package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/rajivgeraev/swapstyle-api/internal/models"
	"github.com/rajivgeraev/swapstyle-api/internal/store"
)

// ErrUserNotFound — профиль пользователя отсутствует
var ErrUserNotFound = errors.New("пользователь не найден")

// Repository отвечает за профили пользователей
type Repository struct {
	store store.Store
}

// NewRepository создает новый экземпляр Repository
func NewRepository(st store.Store) *Repository {
	return &Repository{store: st}
}

// GetUserProfile возвращает профиль пользователя
func (r *Repository) GetUserProfile(ctx context.Context, userID string) (*models.User, error) {
	doc, err := r.store.Get(ctx, store.CollectionUsers, userID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения профиля: %w", err)
	}

	return models.UserFromDoc(doc), nil
}

// CreateUserProfile сохраняет профиль пользователя. Счетчик обменов
// только растет и меняется исключительно свипом.
func (r *Repository) CreateUserProfile(ctx context.Context, user *models.User) error {
	return r.store.Set(ctx, store.CollectionUsers, user.ID, map[string]any{
		"username":        user.Username,
		"profileImageUrl": user.ProfileImageURL,
		"swapCount":       user.SwapCount,
	})
}

// UpdateProfileImage обновляет аватар пользователя
func (r *Repository) UpdateProfileImage(ctx context.Context, userID, imageURL string) error {
	err := r.store.Update(ctx, store.CollectionUsers, userID, map[string]any{
		"profileImageUrl": imageURL,
	})
	if err == store.ErrNotFound {
		return ErrUserNotFound
	}
	return err
}
