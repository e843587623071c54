package xwlock

import (
	"context"
	"testing"

	"github.com/dave42/j5basic/pkg/util/xinterrupt"
)

func newBenchManager(b *testing.B) *Manager {
	b.Helper()
	m, err := New(WithInterruptRegistry(xinterrupt.NewRegistry()))
	if err != nil {
		b.Fatal(err)
	}
	return m
}

func BenchmarkAcquireRelease_Uncontended(b *testing.B) {
	m := newBenchManager(b)
	ctx := context.Background()

	b.ReportAllocs()
	for b.Loop() {
		if err := m.Acquire(ctx, DefaultKey); err != nil {
			b.Fatal(err)
		}
		if err := m.Release(DefaultKey); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAcquire_Reentrant(b *testing.B) {
	m := newBenchManager(b)
	ctx := context.Background()

	if err := m.Acquire(ctx, DefaultKey); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		if err := m.Acquire(ctx, DefaultKey); err != nil {
			b.Fatal(err)
		}
		if err := m.Release(DefaultKey); err != nil {
			b.Fatal(err)
		}
	}
	b.StopTimer()
	_ = m.Release(DefaultKey)
}

func BenchmarkAcquireRelease_DistinctKeys(b *testing.B) {
	m := newBenchManager(b)
	ctx := context.Background()
	keys := []string{"orders", "billing", "inventory", "audit"}

	b.ReportAllocs()
	i := 0
	for b.Loop() {
		key := keys[i%len(keys)]
		i++
		if err := m.Acquire(ctx, key); err != nil {
			b.Fatal(err)
		}
		if err := m.Release(key); err != nil {
			b.Fatal(err)
		}
	}
}
