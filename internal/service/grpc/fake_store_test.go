package grpcsvc

import "github.com/vladislavdragonenkov/cartstore/internal/domain"

// fakeStore применяет операции к CartState без фоновой записи.
type fakeStore struct {
	ready chan struct{}
	state domain.CartState
}

func (f *fakeStore) Ready() <-chan struct{} {
	if f.ready == nil {
		f.ready = make(chan struct{})
		close(f.ready)
	}
	return f.ready
}

func (f *fakeStore) Cart() domain.CartState { return f.state }
func (f *fakeStore) ItemCount() int         { return f.state.ItemCount() }
func (f *fakeStore) MaxQuantity() int       { return domain.MaxQuantity }

func (f *fakeStore) AddDesign(item domain.DesignCartItem) domain.CartState {
	f.state, _ = f.state.AddDesign(item)
	return f.state
}

func (f *fakeStore) RemoveDesign(woodworkerID, variantID string) domain.CartState {
	f.state, _ = f.state.RemoveDesign(woodworkerID, variantID)
	return f.state
}

func (f *fakeStore) ChangeDesignQuantity(woodworkerID, variantID string, quantity int) domain.CartState {
	f.state, _ = f.state.ChangeDesignQuantity(woodworkerID, variantID, quantity)
	return f.state
}

func (f *fakeStore) AddProduct(item domain.ProductCartItem) domain.CartState {
	f.state, _ = f.state.AddProduct(item)
	return f.state
}

func (f *fakeStore) RemoveProduct(woodworkerID, productID string) domain.CartState {
	f.state, _ = f.state.RemoveProduct(woodworkerID, productID)
	return f.state
}

func (f *fakeStore) ChangeProductQuantity(woodworkerID, productID string, quantity int) domain.CartState {
	f.state, _ = f.state.ChangeProductQuantity(woodworkerID, productID, quantity)
	return f.state
}
