package items

import "errors"

var (
	// ErrItemNotFound — вещь отсутствует в хранилище
	ErrItemNotFound = errors.New("вещь не найдена")
	// ErrNotOwner — операция доступна только владельцу вещи
	ErrNotOwner = errors.New("вещь принадлежит другому пользователю")
	// ErrItemNotAvailable — вещь не в статусе AVAILABLE
	ErrItemNotAvailable = errors.New("вещь недоступна для обмена")
	// ErrValidation — не заполнены обязательные поля
	ErrValidation = errors.New("не заполнены обязательные поля")
)
