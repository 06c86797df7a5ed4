package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the narrow contract the engine consumes for persistence. The
// backing implementation is expected to be multi-writer safe; the engine only
// assumes the operations below.
//
// Load is three-state: a decoded document, models.ErrNotFound when the
// document is absent, or models.ErrTransientStore when the backend cannot be
// reached (retryable by the caller).
type Store interface {
	// Create inserts doc under the given id. The caller allocates the id so
	// references can be wired up before the write lands.
	Create(ctx context.Context, collection string, id primitive.ObjectID, doc any) error

	Load(ctx context.Context, collection string, id primitive.ObjectID, out any) error

	// Replace overwrites the full document. Field-level merging of concurrent
	// writers is the backend's concern, not the engine's.
	Replace(ctx context.Context, collection string, id primitive.ObjectID, doc any) error

	Find(ctx context.Context, collection string, filter bson.M, out any) error

	// Subscribe registers fn to run after every write to the given document.
	// No delivery-count guarantee is made; detached subscribers miss events.
	Subscribe(collection string, id primitive.ObjectID, fn func()) (unsubscribe func())

	// NextCounter returns a monotonically increasing value for key, starting
	// at 1. Used for issue identifier assignment so concurrent creators never
	// collide.
	NextCounter(ctx context.Context, key string) (int64, error)
}
