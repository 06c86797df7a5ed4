package store

import (
	"context"
	"reflect"
	"sync"

	common_models "github.com/garden-co/locality/internal/common/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-memory Store used by tests. Documents round-trip
// through BSON so bson struct tags behave exactly as they do against Mongo.
// Find supports top-level equality filters only.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]map[primitive.ObjectID][]byte
	counters map[string]int64
	notifier *notifier
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]map[primitive.ObjectID][]byte),
		counters: make(map[string]int64),
		notifier: newNotifier(),
	}
}

func (s *MemoryStore) Create(ctx context.Context, collection string, id primitive.ObjectID, doc any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[primitive.ObjectID][]byte)
	}
	s.docs[collection][id] = raw
	s.mu.Unlock()

	s.notifier.publish(collection, id)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, collection string, id primitive.ObjectID, out any) error {
	s.mu.RLock()
	raw, ok := s.docs[collection][id]
	s.mu.RUnlock()

	if !ok {
		return common_models.ErrNotFound
	}
	return bson.Unmarshal(raw, out)
}

func (s *MemoryStore) Replace(ctx context.Context, collection string, id primitive.ObjectID, doc any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.docs[collection][id]; !ok {
		s.mu.Unlock()
		return common_models.ErrNotFound
	}
	s.docs[collection][id] = raw
	s.mu.Unlock()

	s.notifier.publish(collection, id)
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, collection string, filter bson.M, out any) error {
	s.mu.RLock()
	var matched []bson.Raw
	for id, raw := range s.docs[collection] {
		var m bson.M
		if err := bson.Unmarshal(raw, &m); err != nil {
			s.mu.RUnlock()
			return err
		}
		m["_id"] = id
		if matchesFilter(m, filter) {
			matched = append(matched, bson.Raw(raw))
		}
	}
	s.mu.RUnlock()

	// Decode into the target slice via a BSON array round-trip so the caller
	// gets the same typed decoding Mongo's cursor.All would produce.
	docs := make([]bson.Raw, len(matched))
	copy(docs, matched)
	raw, err := bson.Marshal(bson.M{"docs": docs})
	if err != nil {
		return err
	}
	var wrapper struct {
		Docs bson.RawValue `bson:"docs"`
	}
	if err := bson.Unmarshal(raw, &wrapper); err != nil {
		return err
	}
	return wrapper.Docs.Unmarshal(out)
}

func matchesFilter(doc bson.M, filter bson.M) bool {
	for key, want := range filter {
		got, ok := doc[key]
		if !ok {
			return false
		}
		if !bsonEqual(got, want) {
			return false
		}
	}
	return true
}

func bsonEqual(a, b any) bool {
	if aid, ok := a.(primitive.ObjectID); ok {
		if bid, ok := b.(primitive.ObjectID); ok {
			return aid == bid
		}
	}
	return reflect.DeepEqual(a, b)
}

func (s *MemoryStore) Subscribe(collection string, id primitive.ObjectID, fn func()) func() {
	return s.notifier.subscribe(collection, id, fn)
}

func (s *MemoryStore) NextCounter(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}
