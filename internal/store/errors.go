package store

import "errors"

var (
	// ErrValidation возвращается при некорректных или отсутствующих входных данных.
	ErrValidation = errors.New("validation error")
	// ErrNotFound возвращается, если номер карты не соответствует ни одному участнику.
	ErrNotFound = errors.New("not found")
	// ErrConflict возвращается при нарушении предусловий смены: открытие при открытой смене,
	// закрытие или операции с кассой без открытой смены.
	ErrConflict = errors.New("conflict")
	// ErrPersistence возвращается при ошибке загрузки или сохранения документа состояния.
	ErrPersistence = errors.New("persistence error")
)
