package store

// Имена коллекций и групп коллекций.
const (
	CollectionItems = "items"
	CollectionUsers = "users"

	GroupSentOffers    = "sent_offers"
	GroupUserOffers    = "user_offers"
	GroupFavorites     = "favorites"
	GroupNotifications = "notifications"
)

// SentOffersPath возвращает путь коллекции исходящих предложений пользователя
func SentOffersPath(userID string) string {
	return CollectionUsers + "/" + userID + "/" + GroupSentOffers
}

// UserOffersPath возвращает путь коллекции входящих предложений пользователя
func UserOffersPath(userID string) string {
	return CollectionUsers + "/" + userID + "/" + GroupUserOffers
}

// FavoritesPath возвращает путь коллекции избранного пользователя
func FavoritesPath(userID string) string {
	return CollectionUsers + "/" + userID + "/" + GroupFavorites
}

// NotificationsPath возвращает путь коллекции уведомлений пользователя
func NotificationsPath(userID string) string {
	return CollectionUsers + "/" + userID + "/" + GroupNotifications
}
