package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
)

// CartServiceClient — клиентская сторона cart.v1.CartService.
type CartServiceClient interface {
	GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*GetCartResponse, error)
	GetItemCount(ctx context.Context, in *GetItemCountRequest, opts ...grpc.CallOption) (*GetItemCountResponse, error)
	AddDesign(ctx context.Context, in *AddDesignRequest, opts ...grpc.CallOption) (*CartResponse, error)
	RemoveDesign(ctx context.Context, in *RemoveDesignRequest, opts ...grpc.CallOption) (*CartResponse, error)
	ChangeDesignQuantity(ctx context.Context, in *ChangeDesignQuantityRequest, opts ...grpc.CallOption) (*CartResponse, error)
	AddProduct(ctx context.Context, in *AddProductRequest, opts ...grpc.CallOption) (*CartResponse, error)
	RemoveProduct(ctx context.Context, in *RemoveProductRequest, opts ...grpc.CallOption) (*CartResponse, error)
	ChangeProductQuantity(ctx context.Context, in *ChangeProductQuantityRequest, opts ...grpc.CallOption) (*CartResponse, error)
}

type cartServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewClient создаёт клиента; вызовы всегда идут с JSON content-subtype.
func NewClient(cc grpc.ClientConnInterface) CartServiceClient {
	return &cartServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cartServiceClient) GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*GetCartResponse, error) {
	return invoke[GetCartResponse](ctx, c.cc, methodGetCart, in, opts)
}

func (c *cartServiceClient) GetItemCount(ctx context.Context, in *GetItemCountRequest, opts ...grpc.CallOption) (*GetItemCountResponse, error) {
	return invoke[GetItemCountResponse](ctx, c.cc, methodGetItemCount, in, opts)
}

func (c *cartServiceClient) AddDesign(ctx context.Context, in *AddDesignRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[CartResponse](ctx, c.cc, methodAddDesign, in, opts)
}

func (c *cartServiceClient) RemoveDesign(ctx context.Context, in *RemoveDesignRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[CartResponse](ctx, c.cc, methodRemoveDesign, in, opts)
}

func (c *cartServiceClient) ChangeDesignQuantity(ctx context.Context, in *ChangeDesignQuantityRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[CartResponse](ctx, c.cc, methodChangeDesignQuantity, in, opts)
}

func (c *cartServiceClient) AddProduct(ctx context.Context, in *AddProductRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[CartResponse](ctx, c.cc, methodAddProduct, in, opts)
}

func (c *cartServiceClient) RemoveProduct(ctx context.Context, in *RemoveProductRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[CartResponse](ctx, c.cc, methodRemoveProduct, in, opts)
}

func (c *cartServiceClient) ChangeProductQuantity(ctx context.Context, in *ChangeProductQuantityRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[CartResponse](ctx, c.cc, methodChangeProductQuantity, in, opts)
}
