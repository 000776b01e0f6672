package grpcsvc

import "github.com/vladislavdragonenkov/cartstore/internal/domain"

// GetCartRequest — запрос текущего снимка корзины.
type GetCartRequest struct{}

// GetCartResponse содержит снимок корзины и состояние хранилища.
type GetCartResponse struct {
	Cart        domain.CartState `json:"cart"`
	ItemCount   int              `json:"item_count"`
	MaxQuantity int              `json:"max_quantity"`
	Ready       bool             `json:"ready"`
}

type GetItemCountRequest struct{}

type GetItemCountResponse struct {
	ItemCount int `json:"item_count"`
}

type AddDesignRequest struct {
	Item domain.DesignCartItem `json:"item"`
}

type RemoveDesignRequest struct {
	WoodworkerID        string `json:"woodworker_id"`
	DesignIdeaVariantID string `json:"design_idea_variant_id"`
}

type ChangeDesignQuantityRequest struct {
	WoodworkerID        string `json:"woodworker_id"`
	DesignIdeaVariantID string `json:"design_idea_variant_id"`
	Quantity            int    `json:"quantity"`
}

type AddProductRequest struct {
	Item domain.ProductCartItem `json:"item"`
}

type RemoveProductRequest struct {
	WoodworkerID string `json:"woodworker_id"`
	ProductID    string `json:"product_id"`
}

type ChangeProductQuantityRequest struct {
	WoodworkerID string `json:"woodworker_id"`
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
}

// CartResponse возвращается всеми мутирующими методами.
type CartResponse struct {
	Cart      domain.CartState `json:"cart"`
	ItemCount int              `json:"item_count"`
}
