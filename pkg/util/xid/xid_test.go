package xid

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	gen, err := NewGenerator(WithMachineIDFunc(func() (uint16, error) {
		return 42, nil
	}))
	require.NoError(t, err)
	return gen
}

func TestGenerator_New(t *testing.T) {
	gen := newTestGenerator(t)

	id, err := gen.New()
	require.NoError(t, err)
	assert.Positive(t, id)
}

func TestGenerator_Uniqueness(t *testing.T) {
	gen := newTestGenerator(t)

	const n = 1000
	seen := make(map[int64]struct{}, n)
	for range n {
		id, err := gen.New()
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
}

func TestGenerator_ConcurrentUniqueness(t *testing.T) {
	gen := newTestGenerator(t)

	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				id, err := gen.New()
				assert.NoError(t, err)
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestGenerator_NewString_RoundTrip(t *testing.T) {
	gen := newTestGenerator(t)

	s, err := gen.NewString()
	require.NoError(t, err)
	assert.NotEmpty(t, s)

	id, err := Parse(s)
	require.NoError(t, err)
	assert.Equal(t, s, strconv.FormatInt(id, 36))
}

func TestGenerator_NewWithRetry_CanceledContext(t *testing.T) {
	gen := newTestGenerator(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.NewWithRetry(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{"", "!!!", "-1", "0"}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			_, err := Parse(s)
			assert.ErrorIs(t, err, ErrInvalidID)
		})
	}
}

func TestGlobal_NewString(t *testing.T) {
	s, err := NewString()
	require.NoError(t, err)
	assert.NotEmpty(t, s)
}

func TestHashToMachineID_Deterministic(t *testing.T) {
	assert.Equal(t, hashToMachineID("node-1"), hashToMachineID("node-1"))
	assert.NotEqual(t, hashToMachineID("node-1"), hashToMachineID("node-2"))
}

func TestDefaultMachineID_EnvOverride(t *testing.T) {
	t.Setenv(EnvMachineID, "7777")

	id, err := DefaultMachineID()
	require.NoError(t, err)
	assert.Equal(t, uint16(7777), id)
}

func TestDefaultMachineID_EnvInvalid(t *testing.T) {
	t.Setenv(EnvMachineID, "not-a-number")

	_, err := DefaultMachineID()
	assert.Error(t, err)
}

func BenchmarkGenerator_New(b *testing.B) {
	gen, err := NewGenerator(WithMachineIDFunc(func() (uint16, error) { return 1, nil }))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		if _, err := gen.New(); err != nil {
			b.Fatal(err)
		}
	}
}
