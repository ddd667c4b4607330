package models

import "github.com/rajivgeraev/swapstyle-api/internal/store"

// ItemStatus представляет статус вещи.
// Допустимые переходы: AVAILABLE -> IN_PROCESS -> SWAPPED
// и AVAILABLE -> UNAVAILABLE; оба конечных статуса терминальны,
// возврата из IN_PROCESS в AVAILABLE нет.
type ItemStatus string

const (
	ItemStatusAvailable   ItemStatus = "AVAILABLE"
	ItemStatusInProcess   ItemStatus = "IN_PROCESS"
	ItemStatusSwapped     ItemStatus = "SWAPPED"
	ItemStatusUnavailable ItemStatus = "UNAVAILABLE"
)

// ClothingItem представляет вещь, выставленную на обмен
type ClothingItem struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Brand       string     `json:"brand"`
	Size        string     `json:"size"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Photos      []string   `json:"photos"`
	TimeSlots   []string   `json:"time_slots"`
	Status      ItemStatus `json:"status"`
	IsFavorite  bool       `json:"is_favorite"`
	IsOwnItem   bool       `json:"is_own_item"`
	CreatedAt   int64      `json:"created_at"` // миллисекунды Unix
}

// ToDoc сериализует вещь в данные документа.
// Флаги is_favorite и is_own_item вычисляются при чтении и не сохраняются.
func (i *ClothingItem) ToDoc() map[string]any {
	return map[string]any{
		"userId":      i.UserID,
		"title":       i.Title,
		"brand":       i.Brand,
		"size":        i.Size,
		"category":    i.Category,
		"description": i.Description,
		"photos":      i.Photos,
		"timeSlots":   i.TimeSlots,
		"status":      string(i.Status),
		"createdAt":   i.CreatedAt,
	}
}

// ItemFromDoc восстанавливает вещь из документа хранилища
func ItemFromDoc(doc *store.Document) *ClothingItem {
	status := ItemStatus(docString(doc.Data, "status"))
	if status == "" {
		status = ItemStatusAvailable
	}

	return &ClothingItem{
		ID:          doc.ID,
		UserID:      docString(doc.Data, "userId"),
		Title:       docString(doc.Data, "title"),
		Brand:       docString(doc.Data, "brand"),
		Size:        docString(doc.Data, "size"),
		Category:    docString(doc.Data, "category"),
		Description: docString(doc.Data, "description"),
		Photos:      docStringSlice(doc.Data, "photos"),
		TimeSlots:   docStringSlice(doc.Data, "timeSlots"),
		Status:      status,
		CreatedAt:   docInt64(doc.Data, "createdAt"),
	}
}
