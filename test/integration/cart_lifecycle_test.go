package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/cartstore/internal/cart"
	"github.com/vladislavdragonenkov/cartstore/internal/domain"
	"github.com/vladislavdragonenkov/cartstore/internal/metrics"
	grpcsvc "github.com/vladislavdragonenkov/cartstore/internal/service/grpc"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/memory"
)

// eventLog собирает события ленты изменений.
type eventLog struct {
	mu     sync.Mutex
	events []domain.CartEvent
}

func (l *eventLog) PublishCartEvent(_ context.Context, event domain.CartEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *eventLog) operations() []domain.CartOperation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.CartOperation, 0, len(l.events))
	for _, event := range l.events {
		out = append(out, event.Operation)
	}
	return out
}

// CartLifecycleTestSuite проверяет корзину от API до хранилища и обратно.
type CartLifecycleTestSuite struct {
	suite.Suite
	backend  memory.StateStore
	events   *eventLog
	registry *prometheus.Registry
	metrics  *metrics.CartMetrics
	store    *cart.Store
	service  *grpcsvc.CartService
	logger   *log.Entry
}

func (suite *CartLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	suite.logger = baseLogger.WithField("component", "integration-test")

	suite.backend = memory.NewStateStore()
	suite.events = &eventLog{}
	suite.registry = prometheus.NewRegistry()
	suite.metrics = metrics.NewCartMetricsWithRegisterer(suite.registry)
	suite.store, suite.service = suite.openStore()
}

func (suite *CartLifecycleTestSuite) TearDownTest() {
	suite.closeStore(suite.store)
}

func (suite *CartLifecycleTestSuite) openStore() (*cart.Store, *grpcsvc.CartService) {
	store := cart.Open(context.Background(), suite.backend,
		cart.WithLogger(suite.logger),
		cart.WithMetrics(suite.metrics),
		cart.WithPublisher(suite.events),
	)
	select {
	case <-store.Ready():
	case <-time.After(2 * time.Second):
		suite.T().Fatal("store did not become ready")
	}
	return store, grpcsvc.NewCartService(store, suite.logger)
}

func (suite *CartLifecycleTestSuite) closeStore(store *cart.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(suite.T(), store.Close(ctx))
}

func (suite *CartLifecycleTestSuite) TestShoppingSessionSurvivesRestart() {
	ctx := context.Background()

	// 1. Покупатель собирает корзину у двух мастеров
	_, err := suite.service.AddDesign(ctx, &grpcsvc.AddDesignRequest{Item: domain.DesignCartItem{
		DesignIdeaVariantID: "walnut-table-large",
		WoodworkerID:        "woodworker-anna",
		Quantity:            1,
	}})
	require.NoError(suite.T(), err)

	_, err = suite.service.AddProduct(ctx, &grpcsvc.AddProductRequest{Item: domain.ProductCartItem{
		ProductID:    "oak-stool",
		WoodworkerID: "woodworker-boris",
		Quantity:     2,
	}})
	require.NoError(suite.T(), err)

	resp, err := suite.service.ChangeDesignQuantity(ctx, &grpcsvc.ChangeDesignQuantityRequest{
		WoodworkerID:        "woodworker-anna",
		DesignIdeaVariantID: "walnut-table-large",
		Quantity:            3,
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 5, resp.ItemCount)

	// 2. Перезапуск сервиса
	before := suite.store.Cart()
	suite.closeStore(suite.store)
	suite.store, suite.service = suite.openStore()

	// 3. Корзина восстановлена целиком
	got, err := suite.service.GetCart(ctx, &grpcsvc.GetCartRequest{})
	require.NoError(suite.T(), err)
	require.True(suite.T(), got.Ready)
	require.True(suite.T(), got.Cart.Equal(before))
	require.Equal(suite.T(), 5, got.ItemCount)
}

func (suite *CartLifecycleTestSuite) TestQuantityCeilingAcrossOperations() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := suite.service.AddProduct(ctx, &grpcsvc.AddProductRequest{Item: domain.ProductCartItem{
			ProductID:    "cutting-board",
			WoodworkerID: "woodworker-anna",
			Quantity:     2,
		}})
		require.NoError(suite.T(), err)
	}

	count, err := suite.service.GetItemCount(ctx, &grpcsvc.GetItemCountRequest{})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.MaxQuantity, count.ItemCount)

	// Урезание видно только в метриках, не в ошибках
	require.GreaterOrEqual(suite.T(),
		suite.counterValue("cart_quantity_clamped_total", string(domain.CartOperationAddProduct)), 1.0)
}

func (suite *CartLifecycleTestSuite) TestRemovingLastItemDropsSeller() {
	ctx := context.Background()

	_, err := suite.service.AddDesign(ctx, &grpcsvc.AddDesignRequest{Item: domain.DesignCartItem{
		DesignIdeaVariantID: "bookshelf-pine",
		WoodworkerID:        "woodworker-boris",
	}})
	require.NoError(suite.T(), err)

	resp, err := suite.service.RemoveDesign(ctx, &grpcsvc.RemoveDesignRequest{
		WoodworkerID:        "woodworker-boris",
		DesignIdeaVariantID: "bookshelf-pine",
	})
	require.NoError(suite.T(), err)
	require.Zero(suite.T(), resp.ItemCount)
	require.NotContains(suite.T(), resp.Cart.Designs, "woodworker-boris")

	require.NoError(suite.T(), suite.store.Flush(ctx))
	raw, err := suite.backend.Get(ctx, domain.CartKey)
	require.NoError(suite.T(), err)
	require.JSONEq(suite.T(), `{"designs":{},"products":{}}`, raw)
}

func (suite *CartLifecycleTestSuite) TestChangeFeedFollowsMutations() {
	ctx := context.Background()

	_, err := suite.service.AddProduct(ctx, &grpcsvc.AddProductRequest{Item: domain.ProductCartItem{
		ProductID:    "chair",
		WoodworkerID: "woodworker-anna",
		Quantity:     1,
	}})
	require.NoError(suite.T(), err)

	// Удаление отсутствующей позиции не порождает событие
	_, err = suite.service.RemoveProduct(ctx, &grpcsvc.RemoveProductRequest{
		WoodworkerID: "woodworker-anna",
		ProductID:    "missing",
	})
	require.NoError(suite.T(), err)

	_, err = suite.service.RemoveProduct(ctx, &grpcsvc.RemoveProductRequest{
		WoodworkerID: "woodworker-anna",
		ProductID:    "chair",
	})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.store.Flush(ctx))

	require.Equal(suite.T(), []domain.CartOperation{
		domain.CartOperationAddProduct,
		domain.CartOperationRemoveProduct,
	}, suite.events.operations())
}

func (suite *CartLifecycleTestSuite) counterValue(name, operation string) float64 {
	families, err := suite.registry.Gather()
	require.NoError(suite.T(), err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "operation" && label.GetValue() == operation {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	suite.T().Fatalf("metric %s{operation=%q} not found", name, operation)
	return 0
}

func TestCartLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(CartLifecycleTestSuite))
}
