package cache

import (
	"iter"
	"slices"
	"sync"
)

// Cache представляет собой потокобезопасный generic LRU-кэш.
// K - тип ключа (должен быть comparable для использования в map)
// V - тип значения (может быть любым)
//
// Все операции выполняются под одним мьютексом: продвижение записи
// перестраивает список в несколько шагов и не может идти параллельно.
type Cache[K comparable, V any] struct {
	mu  sync.Mutex
	lru *LRU[K, V]
}

// NewCache создает и возвращает новый экземпляр Cache емкостью capacity.
// Возвращает ErrInvalidCapacity, если capacity < 1.
func NewCache[K comparable, V any](capacity int) (*Cache[K, V], error) {
	lru, err := New[K, V](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache[K, V]{lru: lru}, nil
}

// WithEvictCallback устанавливает обработчик вытеснения.
// Обработчик вызывается под блокировкой кэша и не должен обращаться к нему.
func (c *Cache[K, V]) WithEvictCallback(fn func(key K, value V)) *Cache[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.WithEvictCallback(fn)
	return c
}

// Set добавляет или обновляет значение в кэше по указанному ключу.
// key - ключ для сохранения значения
// value - значение, которое нужно сохранить в кэше
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Set(key, value)
}

// Get возвращает значение из кэша по ключу и флаг наличия значения.
// key - ключ для поиска значения
// Возвращает:
//   - значение типа V, если ключ найден
//   - false, если ключ не найден в кэше
//
// Примечание: если ключ не найден, возвращается zero-value для типа V
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Get(key)
}

// Has проверяет наличие ключа и продвигает найденную запись.
func (c *Cache[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Has(key)
}

// Peek возвращает значение без продвижения записи.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Peek(key)
}

// Values возвращает последовательность по снимку значений,
// сделанному под блокировкой в момент начала обхода.
func (c *Cache[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		c.mu.Lock()
		snapshot := slices.Collect(c.lru.Values())
		c.mu.Unlock()

		for _, v := range snapshot {
			if !yield(v) {
				return
			}
		}
	}
}

// Keys возвращает ключи от самого свежего к самому старому.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Keys()
}

// Len возвращает текущее количество записей.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Len()
}

// Cap возвращает емкость кэша. Емкость неизменна, блокировка не нужна.
func (c *Cache[K, V]) Cap() int {
	return c.lru.Cap()
}
