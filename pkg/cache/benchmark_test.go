package cache

import (
	"fmt"
	"testing"
)

func BenchmarkCacheGet(b *testing.B) {
	c := New(Options[string]{MaxSize: 10000})
	for i := 0; i < 1000; i++ {
		c.Set(fmt.Sprintf("key%d", i), fmt.Sprintf("report %d", i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key999")
	}
}

func BenchmarkKey(b *testing.B) {
	data := make([]byte, 4096)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Key(data)
	}
}
