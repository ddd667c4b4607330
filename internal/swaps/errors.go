package swaps

import "errors"

var (
	// ErrOfferNotFound — предложение обмена отсутствует
	ErrOfferNotFound = errors.New("предложение обмена не найдено")
	// ErrOfferNotPending — статус предложения уже терминален
	ErrOfferNotPending = errors.New("предложение обмена уже не в ожидании")
	// ErrItemNotAvailable — целевая вещь недоступна для обмена
	ErrItemNotAvailable = errors.New("вещь недоступна для обмена")
	// ErrItemNotFound — вещь, на которую ссылается предложение, отсутствует
	ErrItemNotFound = errors.New("вещь не найдена")
	// ErrDuplicateOffer — встречная вещь уже предложена в другом ожидающем предложении
	ErrDuplicateOffer = errors.New("вещь уже предложена в другом обмене")
	// ErrNotOfferedOwner — встречная вещь принадлежит другому пользователю
	ErrNotOfferedOwner = errors.New("встречная вещь принадлежит другому пользователю")
	// ErrValidation — не заполнены обязательные поля предложения
	ErrValidation = errors.New("не заполнены обязательные поля предложения")
	// ErrInvalidStatus — недопустимый целевой статус предложения
	ErrInvalidStatus = errors.New("недопустимый статус предложения обмена")
	// ErrInvalidTimeSlot — слот времени не из списка вещи или уже прошел
	ErrInvalidTimeSlot = errors.New("недопустимый слот времени")
	// ErrPartialUpdate — операция применилась не полностью; состояние
	// восстановимо повтором или свипом просроченных записей
	ErrPartialUpdate = errors.New("операция применилась не полностью, повторите попытку")
)
