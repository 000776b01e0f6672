// Package firestore хранит состояние корзины в Cloud Firestore.
//
// Каждый ключ — отдельный документ коллекции: docId = ключ, поле value содержит
// сериализованную корзину.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// DefaultCollection — коллекция по умолчанию.
const DefaultCollection = "cart_state"

const pingDocID = "__ping"

// StateStore реализует domain.StateStore поверх Firestore.
type StateStore struct {
	client     *firestore.Client
	collection string
}

type stateDoc struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// NewStateStore создаёт хранилище; пустая коллекция заменяется DefaultCollection.
func NewStateStore(client *firestore.Client, collection string) *StateStore {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = DefaultCollection
	}
	return &StateStore{client: client, collection: collection}
}

// Open создаёт клиента Firestore для проекта и оборачивает его в StateStore.
func Open(ctx context.Context, projectID, collection string) (*StateStore, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errors.New("firestore project id is required")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return NewStateStore(client, collection), nil
}

func (s *StateStore) col() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

// Get возвращает значение документа или ErrStateKeyNotFound.
func (s *StateStore) Get(ctx context.Context, key string) (string, error) {
	if s == nil || s.client == nil {
		return "", domain.ErrBackendUnavailable
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", domain.ErrStateKeyRequired
	}

	snap, err := s.col().Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", domain.ErrStateKeyNotFound
		}
		return "", fmt.Errorf("get firestore doc %s: %w", key, err)
	}

	var doc stateDoc
	if err := snap.DataTo(&doc); err != nil {
		return "", fmt.Errorf("%w: decode firestore doc %s: %v", domain.ErrMalformedCartState, key, err)
	}
	return doc.Value, nil
}

// Set перезаписывает документ целиком.
func (s *StateStore) Set(ctx context.Context, key, value string) error {
	if s == nil || s.client == nil {
		return domain.ErrBackendUnavailable
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrStateKeyRequired
	}

	if _, err := s.col().Doc(key).Set(ctx, stateDoc{
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("set firestore doc %s: %w", key, err)
	}
	return nil
}

// Ping читает служебный документ; его отсутствие считается нормой.
func (s *StateStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return domain.ErrBackendUnavailable
	}
	_, err := s.col().Doc(pingDocID).Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("ping firestore: %w", err)
	}
	return nil
}

// Close закрывает клиента Firestore.
func (s *StateStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

var _ domain.StateStore = (*StateStore)(nil)
