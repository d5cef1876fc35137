package cache

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	t.Run("string-int cache", func(t *testing.T) {
		cache, err := NewCache[string, int](4)
		require.NoError(t, err)

		// Test Set and Get with existing key
		cache.Set("age", 25)
		if value, exists := cache.Get("age"); !exists || value != 25 {
			t.Errorf("Expected age=25, exists=true, got value=%d, exists=%v", value, exists)
		}

		// Test Get with non-existing key
		if value, exists := cache.Get("name"); exists {
			t.Errorf("Expected exists=false, got value=%d, exists=%v", value, exists)
		}

		// Test value update
		cache.Set("age", 30)
		if value, exists := cache.Get("age"); !exists || value != 30 {
			t.Errorf("Expected age=30 after update, got value=%d, exists=%v", value, exists)
		}
	})

	t.Run("struct key cache", func(t *testing.T) {
		type Point struct {
			X, Y int
		}

		cache, err := NewCache[Point, string](2)
		require.NoError(t, err)
		point := Point{X: 1, Y: 2}

		cache.Set(point, "origin")
		if value, exists := cache.Get(point); !exists || value != "origin" {
			t.Errorf("Expected point -> 'origin', got '%s', exists=%v", value, exists)
		}

		// Test with different point
		otherPoint := Point{X: 3, Y: 4}
		if cache.Has(otherPoint) {
			t.Error("Expected other point to not exist")
		}
	})

	t.Run("bool value cache", func(t *testing.T) {
		cache, err := NewCache[string, bool](2)
		require.NoError(t, err)

		cache.Set("isActive", true)
		cache.Set("isDeleted", false)

		if value, exists := cache.Get("isActive"); !exists || value != true {
			t.Errorf("Expected isActive=true, got %v, exists=%v", value, exists)
		}

		if value, exists := cache.Get("isDeleted"); !exists || value != false {
			t.Errorf("Expected isDeleted=false, got %v, exists=%v", value, exists)
		}
	})

	t.Run("eviction", func(t *testing.T) {
		cache, err := NewCache[string, float64](2)
		require.NoError(t, err)

		var evicted []string
		cache.WithEvictCallback(func(key string, _ float64) {
			evicted = append(evicted, key)
		})

		cache.Set("pi", 3.14)
		cache.Set("e", 2.71)
		cache.Get("pi")
		cache.Set("sqrt2", 1.41)

		assert.Equal(t, []string{"e"}, evicted)
		assert.Equal(t, []string{"sqrt2", "pi"}, cache.Keys())
		assert.Equal(t, 2, cache.Len())
		assert.Equal(t, 2, cache.Cap())

		v, ok := cache.Peek("pi")
		assert.True(t, ok)
		assert.Equal(t, 3.14, v)
	})

	t.Run("invalid capacity", func(t *testing.T) {
		cache, err := NewCache[string, int](0)
		assert.ErrorIs(t, err, ErrInvalidCapacity)
		assert.Nil(t, cache)
	})
}

func TestCache_ValuesSnapshot(t *testing.T) {
	cache, err := NewCache[int, int](3)
	require.NoError(t, err)

	cache.Set(1, 10)
	cache.Set(2, 20)

	// Мутация во время обхода не должна блокироваться и не меняет снимок
	var got []int
	for v := range cache.Values() {
		got = append(got, v)
		cache.Set(v, v)
	}

	assert.Equal(t, []int{10, 20}, got)
	assert.Equal(t, 3, cache.Len())
}

func TestCache_Concurrent(t *testing.T) {
	cache, err := NewCache[int, int](16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				k := (g*31 + i) % 64
				switch i % 4 {
				case 0:
					cache.Set(k, i)
				case 1:
					cache.Get(k)
				case 2:
					cache.Has(k)
				default:
					_ = slices.Collect(cache.Values())
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Len(), 16)

	cache.mu.Lock()
	checkInvariants(t, cache.lru)
	cache.mu.Unlock()
}
