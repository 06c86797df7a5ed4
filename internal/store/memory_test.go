package store

import (
	"context"
	"errors"
	"testing"

	common_models "github.com/garden-co/locality/internal/common/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testDoc struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Owner primitive.ObjectID `bson:"owner"`
}

func TestLoadIsThreeState(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	id := primitive.NewObjectID()

	var missing testDoc
	if err := st.Load(ctx, "docs", id, &missing); !errors.Is(err, common_models.ErrNotFound) {
		t.Errorf("Load missing: err = %v, want ErrNotFound", err)
	}

	if err := st.Create(ctx, "docs", id, &testDoc{ID: id, Name: "a"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var loaded testDoc
	if err := st.Load(ctx, "docs", id, &loaded); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "a" || loaded.ID != id {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestReplaceMissingDocument(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	err := st.Replace(ctx, "docs", primitive.NewObjectID(), &testDoc{Name: "x"})
	if !errors.Is(err, common_models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFindFiltersOnEquality(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	owner := primitive.NewObjectID()

	for i, name := range []string{"mine", "theirs"} {
		doc := testDoc{ID: primitive.NewObjectID(), Name: name}
		if i == 0 {
			doc.Owner = owner
		} else {
			doc.Owner = primitive.NewObjectID()
		}
		if err := st.Create(ctx, "docs", doc.ID, &doc); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	var docs []testDoc
	if err := st.Find(ctx, "docs", bson.M{"owner": owner}, &docs); err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "mine" {
		t.Errorf("docs = %+v, want only mine", docs)
	}
}

func TestSubscribeFiresOnEveryWrite(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	id := primitive.NewObjectID()

	fired := 0
	unsubscribe := st.Subscribe("docs", id, func() { fired++ })

	if err := st.Create(ctx, "docs", id, &testDoc{ID: id, Name: "a"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := st.Replace(ctx, "docs", id, &testDoc{ID: id, Name: "b"}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if fired != 2 {
		t.Errorf("callback fired %d times, want 2", fired)
	}

	unsubscribe()
	if err := st.Replace(ctx, "docs", id, &testDoc{ID: id, Name: "c"}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if fired != 2 {
		t.Errorf("callback fired after unsubscribe")
	}
}

func TestNextCounterIsMonotonicPerKey(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	for want := int64(1); want <= 3; want++ {
		got, err := st.NextCounter(ctx, "issues/a")
		if err != nil {
			t.Fatalf("NextCounter: %v", err)
		}
		if got != want {
			t.Errorf("counter = %d, want %d", got, want)
		}
	}

	got, err := st.NextCounter(ctx, "issues/b")
	if err != nil {
		t.Fatalf("NextCounter: %v", err)
	}
	if got != 1 {
		t.Errorf("independent key counter = %d, want 1", got)
	}
}
