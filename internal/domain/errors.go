package domain

import "errors"

var (
	// ErrStateKeyRequired — пустой ключ при обращении к хранилищу состояния.
	ErrStateKeyRequired = errors.New("state key is required")
	// ErrStateKeyNotFound возвращается хранилищем, если значение по ключу отсутствует.
	ErrStateKeyNotFound = errors.New("state key not found")
	// ErrMalformedCartState — сохранённое значение не удалось разобрать как корзину.
	ErrMalformedCartState = errors.New("malformed cart state")
	// ErrBackendUnavailable — хранилище не инициализировано или недоступно.
	ErrBackendUnavailable = errors.New("state backend unavailable")
	// ErrPublisherUnavailable — публикация событий корзины не настроена.
	ErrPublisherUnavailable = errors.New("cart event publisher unavailable")
)

// IsNotFound проверяет, что ошибка означает отсутствие значения по ключу.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStateKeyNotFound)
}
