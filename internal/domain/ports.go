package domain

import "context"

// CartKey — фиксированный ключ, под которым корзина лежит в хранилище.
const CartKey = "cart"

// StateStore описывает долговременное key-value хранилище состояния.
type StateStore interface {
	// Get возвращает значение по ключу или ErrStateKeyNotFound, если его нет.
	Get(ctx context.Context, key string) (string, error)
	// Set перезаписывает значение по ключу целиком.
	Set(ctx context.Context, key, value string) error
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}

// CartEventPublisher передаёт изменения корзины наружу (ленту изменений).
type CartEventPublisher interface {
	PublishCartEvent(ctx context.Context, event CartEvent) error
}

// CartOperation задаёт константы операций для метрик, логов и событий.
type CartOperation string

const (
	CartOperationAddDesign            CartOperation = "add_design"
	CartOperationRemoveDesign         CartOperation = "remove_design"
	CartOperationChangeDesignQuantity CartOperation = "change_design_quantity"
	CartOperationAddProduct           CartOperation = "add_product"
	CartOperationRemoveProduct        CartOperation = "remove_product"
	CartOperationChangeProductQty     CartOperation = "change_product_quantity"
)

// AllCartOperations перечисляет все мутирующие операции корзины.
func AllCartOperations() []CartOperation {
	return []CartOperation{
		CartOperationAddDesign,
		CartOperationRemoveDesign,
		CartOperationChangeDesignQuantity,
		CartOperationAddProduct,
		CartOperationRemoveProduct,
		CartOperationChangeProductQty,
	}
}
