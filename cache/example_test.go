package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/intrafind/ihub-apps-sub007/cache"
)

func ExampleNewMemoryStore() {
	policy := cache.DefaultPolicy()
	store := cache.NewMemoryStore(policy)

	ctx := context.Background()

	// Store a value
	_ = store.Set(ctx, "api:apps:abc", "hello", 5*time.Minute)

	// Retrieve the value
	value, ok := store.Get(ctx, "api:apps:abc")
	if ok {
		fmt.Println("Value:", value)
	}
	// Output:
	// Value: hello
}

func ExampleMemoryStore_Placeholder() {
	store := cache.NewMemoryStore(cache.DefaultPolicy())
	ctx := context.Background()

	// A failed fetch leaves a short-lived placeholder
	_ = store.SetErrorPlaceholder(ctx, "api:broken:abc", 30*time.Second)

	// Placeholders are never returned as data
	_, ok := store.Get(ctx, "api:broken:abc")
	fmt.Println("Readable as hit:", ok)

	// But they are visible to the cooldown check
	fmt.Println("Cooldown active:", store.Placeholder(ctx, "api:broken:abc"))
	// Output:
	// Readable as hit: false
	// Cooldown active: true
}

func ExampleDefaultKeyer_Key() {
	keyer := cache.NewDefaultKeyer()

	// Parameter order does not matter
	key1, _ := keyer.Key("models", map[string]any{"a": 1, "b": 2})
	key2, _ := keyer.Key("models", map[string]any{"b": 2, "a": 1})

	fmt.Println("Equal:", key1 == key2)
	// Output:
	// Equal: true
}
