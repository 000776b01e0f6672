package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName — полное имя gRPC сервиса корзины.
const ServiceName = "cart.v1.CartService"

const (
	methodGetCart               = "/" + ServiceName + "/GetCart"
	methodGetItemCount          = "/" + ServiceName + "/GetItemCount"
	methodAddDesign             = "/" + ServiceName + "/AddDesign"
	methodRemoveDesign          = "/" + ServiceName + "/RemoveDesign"
	methodChangeDesignQuantity  = "/" + ServiceName + "/ChangeDesignQuantity"
	methodAddProduct            = "/" + ServiceName + "/AddProduct"
	methodRemoveProduct         = "/" + ServiceName + "/RemoveProduct"
	methodChangeProductQuantity = "/" + ServiceName + "/ChangeProductQuantity"
)

// CartServiceServer — серверная сторона cart.v1.CartService.
type CartServiceServer interface {
	GetCart(context.Context, *GetCartRequest) (*GetCartResponse, error)
	GetItemCount(context.Context, *GetItemCountRequest) (*GetItemCountResponse, error)
	AddDesign(context.Context, *AddDesignRequest) (*CartResponse, error)
	RemoveDesign(context.Context, *RemoveDesignRequest) (*CartResponse, error)
	ChangeDesignQuantity(context.Context, *ChangeDesignQuantityRequest) (*CartResponse, error)
	AddProduct(context.Context, *AddProductRequest) (*CartResponse, error)
	RemoveProduct(context.Context, *RemoveProductRequest) (*CartResponse, error)
	ChangeProductQuantity(context.Context, *ChangeProductQuantityRequest) (*CartResponse, error)
}

// RegisterCartServiceServer регистрирует реализацию на gRPC сервере.
func RegisterCartServiceServer(registrar grpc.ServiceRegistrar, srv CartServiceServer) {
	registrar.RegisterService(&CartServiceDesc, srv)
}

// unaryHandler строит обработчик метода с учётом interceptor'ов сервера.
func unaryHandler[Req any, Resp any](
	fullMethod string,
	call func(CartServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CartServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CartServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CartServiceDesc описывает cart.v1.CartService для grpc.Server.
var CartServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetCart",
			Handler:    unaryHandler(methodGetCart, CartServiceServer.GetCart),
		},
		{
			MethodName: "GetItemCount",
			Handler:    unaryHandler(methodGetItemCount, CartServiceServer.GetItemCount),
		},
		{
			MethodName: "AddDesign",
			Handler:    unaryHandler(methodAddDesign, CartServiceServer.AddDesign),
		},
		{
			MethodName: "RemoveDesign",
			Handler:    unaryHandler(methodRemoveDesign, CartServiceServer.RemoveDesign),
		},
		{
			MethodName: "ChangeDesignQuantity",
			Handler:    unaryHandler(methodChangeDesignQuantity, CartServiceServer.ChangeDesignQuantity),
		},
		{
			MethodName: "AddProduct",
			Handler:    unaryHandler(methodAddProduct, CartServiceServer.AddProduct),
		},
		{
			MethodName: "RemoveProduct",
			Handler:    unaryHandler(methodRemoveProduct, CartServiceServer.RemoveProduct),
		},
		{
			MethodName: "ChangeProductQuantity",
			Handler:    unaryHandler(methodChangeProductQuantity, CartServiceServer.ChangeProductQuantity),
		},
	},
	Streams: []grpc.StreamDesc{},
	// Только метка: файла дескриптора нет, reflection не сможет описать сервис.
	Metadata: "cart/v1/cart_service.json",
}
