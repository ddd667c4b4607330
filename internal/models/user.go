package models

import "github.com/rajivgeraev/swapstyle-api/internal/store"

// User представляет профиль пользователя
type User struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	SwapCount       int64  `json:"swap_count"`
}

// UserLevel возвращает уровень пользователя по числу завершенных обменов
func (u *User) UserLevel() string {
	switch {
	case u.SwapCount >= 5:
		return "VIP"
	case u.SwapCount >= 3:
		return "Experienced"
	default:
		return "Beginner"
	}
}

// UserFromDoc восстанавливает профиль пользователя из документа хранилища
func UserFromDoc(doc *store.Document) *User {
	return &User{
		ID:              doc.ID,
		Username:        docString(doc.Data, "username"),
		ProfileImageURL: docString(doc.Data, "profileImageUrl"),
		SwapCount:       docInt64(doc.Data, "swapCount"),
	}
}
