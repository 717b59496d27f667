package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func BenchmarkMemoryStore_Get_Hit(b *testing.B) {
	s := NewMemoryStore(DefaultPolicy())
	ctx := context.Background()
	_ = s.Set(ctx, "api:apps:abc", map[string]any{"name": "chat"}, time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get(ctx, "api:apps:abc")
	}
}

func BenchmarkMemoryStore_Get_Miss(b *testing.B) {
	s := NewMemoryStore(DefaultPolicy())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get(ctx, "missing")
	}
}

func BenchmarkMemoryStore_Set(b *testing.B) {
	s := NewMemoryStore(DefaultPolicy())
	ctx := context.Background()
	value := map[string]any{"name": "chat"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Set(ctx, fmt.Sprintf("api:apps:%d", i), value, time.Hour)
	}
}

func BenchmarkDefaultKeyer_Key(b *testing.B) {
	k := NewDefaultKeyer()
	params := map[string]any{
		"language": "en",
		"page":     3,
		"filters":  []any{"active", "visible"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = k.Key("apps", params)
	}
}
