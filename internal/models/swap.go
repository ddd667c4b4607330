package models

import "github.com/rajivgeraev/swapstyle-api/internal/store"

// SwapOfferStatus представляет статус предложения обмена.
// Переходы только PENDING -> ACCEPTED и PENDING -> REJECTED; оба терминальны.
type SwapOfferStatus string

const (
	SwapStatusPending  SwapOfferStatus = "PENDING"
	SwapStatusAccepted SwapOfferStatus = "ACCEPTED"
	SwapStatusRejected SwapOfferStatus = "REJECTED"
)

// SwapLocation представляет место встречи для обмена
type SwapLocation struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SwapOffer представляет предложение обмена. Каждое предложение хранится
// в двух копиях с одним swapId: в sent_offers отправителя и в user_offers
// владельца вещи; статусы обеих копий обязаны совпадать.
type SwapOffer struct {
	SwapID               string          `json:"swap_id"`
	ItemID               string          `json:"item_id"`
	ItemTitle            string          `json:"item_title"`
	ItemPhotoURLs        []string        `json:"item_photo_urls"`
	ItemOwnerID          string          `json:"item_owner_id"`
	InterestedUserID     string          `json:"interested_user_id"`
	OfferedItemID        string          `json:"offered_item_id"` // пустая строка — обмен без встречной вещи
	OfferedItemTitle     string          `json:"offered_item_title"`
	OfferedItemPhotoURLs []string        `json:"offered_item_photo_urls"`
	SelectedLocation     SwapLocation    `json:"selected_location"`
	SelectedTimeSlot     string          `json:"selected_time_slot"`
	Status               SwapOfferStatus `json:"status"`
	Finalized            bool            `json:"finalized"` // обмен зачтён свипом
	CreatedAt            int64           `json:"created_at"`
}

// ToDoc сериализует предложение обмена в данные документа
func (o *SwapOffer) ToDoc() map[string]any {
	return map[string]any{
		"swapId":               o.SwapID,
		"itemId":               o.ItemID,
		"itemTitle":            o.ItemTitle,
		"itemPhotoUrls":        o.ItemPhotoURLs,
		"itemOwnerId":          o.ItemOwnerID,
		"interestedUserId":     o.InterestedUserID,
		"offeredItemId":        o.OfferedItemID,
		"offeredItemTitle":     o.OfferedItemTitle,
		"offeredItemPhotoUrls": o.OfferedItemPhotoURLs,
		"selectedLocation": map[string]any{
			"name":      o.SelectedLocation.Name,
			"address":   o.SelectedLocation.Address,
			"latitude":  o.SelectedLocation.Latitude,
			"longitude": o.SelectedLocation.Longitude,
		},
		"selectedTimeSlot": o.SelectedTimeSlot,
		"status":           string(o.Status),
		"finalized":        o.Finalized,
		"createdAt":        o.CreatedAt,
	}
}

// SwapOfferFromDoc восстанавливает предложение обмена из документа хранилища
func SwapOfferFromDoc(doc *store.Document) *SwapOffer {
	status := SwapOfferStatus(docString(doc.Data, "status"))
	if status == "" {
		status = SwapStatusPending
	}

	location := docMap(doc.Data, "selectedLocation")

	return &SwapOffer{
		SwapID:               docString(doc.Data, "swapId"),
		ItemID:               docString(doc.Data, "itemId"),
		ItemTitle:            docString(doc.Data, "itemTitle"),
		ItemPhotoURLs:        docStringSlice(doc.Data, "itemPhotoUrls"),
		ItemOwnerID:          docString(doc.Data, "itemOwnerId"),
		InterestedUserID:     docString(doc.Data, "interestedUserId"),
		OfferedItemID:        docString(doc.Data, "offeredItemId"),
		OfferedItemTitle:     docString(doc.Data, "offeredItemTitle"),
		OfferedItemPhotoURLs: docStringSlice(doc.Data, "offeredItemPhotoUrls"),
		SelectedLocation: SwapLocation{
			Name:      docString(location, "name"),
			Address:   docString(location, "address"),
			Latitude:  docFloat64(location, "latitude"),
			Longitude: docFloat64(location, "longitude"),
		},
		SelectedTimeSlot: docString(doc.Data, "selectedTimeSlot"),
		Status:           status,
		Finalized:        docBool(doc.Data, "finalized"),
		CreatedAt:        docInt64(doc.Data, "createdAt"),
	}
}
