package models

import "github.com/rajivgeraev/swapstyle-api/internal/store"

// NotificationType представляет тип уведомления
type NotificationType string

const (
	NotificationSwapOffer    NotificationType = "SWAP_OFFER"
	NotificationSwapAccepted NotificationType = "SWAP_ACCEPTED"
	NotificationSwapRejected NotificationType = "SWAP_REJECTED"
)

// Notification представляет внутреннее уведомление пользователя
type Notification struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	SenderName  string           `json:"sender_name"`
	ItemID      string           `json:"item_id"`
	ItemTitle   string           `json:"item_title"`
	SwapOfferID string           `json:"swap_offer_id"`
	Type        NotificationType `json:"type"`
	IsRead      bool             `json:"is_read"`
	Timestamp   int64            `json:"timestamp"`
}

// ToDoc сериализует уведомление в данные документа
func (n *Notification) ToDoc() map[string]any {
	return map[string]any{
		"id":          n.ID,
		"userId":      n.UserID,
		"title":       n.Title,
		"message":     n.Message,
		"senderName":  n.SenderName,
		"itemId":      n.ItemID,
		"itemTitle":   n.ItemTitle,
		"swapOfferId": n.SwapOfferID,
		"type":        string(n.Type),
		"isRead":      n.IsRead,
		"timestamp":   n.Timestamp,
	}
}

// NotificationFromDoc восстанавливает уведомление из документа хранилища
func NotificationFromDoc(doc *store.Document) *Notification {
	return &Notification{
		ID:          doc.ID,
		UserID:      docString(doc.Data, "userId"),
		Title:       docString(doc.Data, "title"),
		Message:     docString(doc.Data, "message"),
		SenderName:  docString(doc.Data, "senderName"),
		ItemID:      docString(doc.Data, "itemId"),
		ItemTitle:   docString(doc.Data, "itemTitle"),
		SwapOfferID: docString(doc.Data, "swapOfferId"),
		Type:        NotificationType(docString(doc.Data, "type")),
		IsRead:      docBool(doc.Data, "isRead"),
		Timestamp:   docInt64(doc.Data, "timestamp"),
	}
}
