package grpcsvc

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// CartStore — часть cart.Store, нужная API.
type CartStore interface {
	Ready() <-chan struct{}
	Cart() domain.CartState
	ItemCount() int
	MaxQuantity() int
	AddDesign(item domain.DesignCartItem) domain.CartState
	RemoveDesign(woodworkerID, variantID string) domain.CartState
	ChangeDesignQuantity(woodworkerID, variantID string, quantity int) domain.CartState
	AddProduct(item domain.ProductCartItem) domain.CartState
	RemoveProduct(woodworkerID, productID string) domain.CartState
	ChangeProductQuantity(woodworkerID, productID string, quantity int) domain.CartState
}

// CartService реализует gRPC API поверх хранилища корзины.
type CartService struct {
	store  CartStore
	logger *log.Entry
}

// NewCartService конструирует сервис с зависимостями.
func NewCartService(store CartStore, logger *log.Entry) *CartService {
	if logger == nil {
		logger = log.New().WithField("component", "cart-service")
	}
	return &CartService{
		store:  store,
		logger: logger,
	}
}

// GetCart возвращает текущий снимок корзины.
func (s *CartService) GetCart(_ context.Context, _ *GetCartRequest) (*GetCartResponse, error) {
	state := s.store.Cart()
	return &GetCartResponse{
		Cart:        state,
		ItemCount:   state.ItemCount(),
		MaxQuantity: s.store.MaxQuantity(),
		Ready:       isReady(s.store),
	}, nil
}

// GetItemCount возвращает сумму количеств по всем позициям.
func (s *CartService) GetItemCount(_ context.Context, _ *GetItemCountRequest) (*GetItemCountResponse, error) {
	return &GetItemCountResponse{ItemCount: s.store.ItemCount()}, nil
}

func (s *CartService) AddDesign(_ context.Context, req *AddDesignRequest) (*CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireIDs("item.woodworkerId", req.Item.WoodworkerID, "item.designIdeaVariantId", req.Item.DesignIdeaVariantID); err != nil {
		return nil, err
	}
	return s.respond(s.store.AddDesign(req.Item)), nil
}

func (s *CartService) RemoveDesign(_ context.Context, req *RemoveDesignRequest) (*CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireIDs("woodworker_id", req.WoodworkerID, "design_idea_variant_id", req.DesignIdeaVariantID); err != nil {
		return nil, err
	}
	return s.respond(s.store.RemoveDesign(req.WoodworkerID, req.DesignIdeaVariantID)), nil
}

func (s *CartService) ChangeDesignQuantity(_ context.Context, req *ChangeDesignQuantityRequest) (*CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireIDs("woodworker_id", req.WoodworkerID, "design_idea_variant_id", req.DesignIdeaVariantID); err != nil {
		return nil, err
	}
	return s.respond(s.store.ChangeDesignQuantity(req.WoodworkerID, req.DesignIdeaVariantID, req.Quantity)), nil
}

func (s *CartService) AddProduct(_ context.Context, req *AddProductRequest) (*CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireIDs("item.woodworkerId", req.Item.WoodworkerID, "item.productId", req.Item.ProductID); err != nil {
		return nil, err
	}
	return s.respond(s.store.AddProduct(req.Item)), nil
}

func (s *CartService) RemoveProduct(_ context.Context, req *RemoveProductRequest) (*CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireIDs("woodworker_id", req.WoodworkerID, "product_id", req.ProductID); err != nil {
		return nil, err
	}
	return s.respond(s.store.RemoveProduct(req.WoodworkerID, req.ProductID)), nil
}

func (s *CartService) ChangeProductQuantity(_ context.Context, req *ChangeProductQuantityRequest) (*CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireIDs("woodworker_id", req.WoodworkerID, "product_id", req.ProductID); err != nil {
		return nil, err
	}
	return s.respond(s.store.ChangeProductQuantity(req.WoodworkerID, req.ProductID, req.Quantity)), nil
}

func (s *CartService) respond(state domain.CartState) *CartResponse {
	return &CartResponse{Cart: state, ItemCount: state.ItemCount()}
}

// requireIDs принимает пары (имя поля, значение) и отклоняет пустые значения.
func requireIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return status.Errorf(codes.InvalidArgument, "%s is required", pairs[i])
		}
	}
	return nil
}

func isReady(store CartStore) bool {
	select {
	case <-store.Ready():
		return true
	default:
		return false
	}
}

var _ CartServiceServer = (*CartService)(nil)
