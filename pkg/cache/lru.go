package cache

import "iter"

// LRU - кэш фиксированной емкости с вытеснением давно не использованных записей.
// Поиск идет через map, порядок использования хранится в двусвязном списке:
// head - самая свежая запись, tail - самая старая.
//
// LRU не потокобезопасен. Для конкурентного доступа используйте Cache.
type LRU[K comparable, V any] struct {
	items    map[K]*item[K, V]
	head     *item[K, V] // последняя использованная запись
	tail     *item[K, V] // кандидат на вытеснение
	first    *item[K, V] // самая ранняя вставка, начало обхода Values
	last     *item[K, V] // самая поздняя вставка
	capacity int
	onEvict  func(K, V)
}

// item - узел, принадлежащий только кэшу.
type item[K comparable, V any] struct {
	key   K
	value V

	prev *item[K, V] // ближе к head
	next *item[K, V] // ближе к tail

	// Порядок вставки в map. Обновление значения его не меняет.
	// У вытесненной записи after сохраняется, чтобы идущий обход Values
	// мог продолжить путь от нее к живым записям.
	before  *item[K, V]
	after   *item[K, V]
	removed bool
}

// New создает LRU емкостью capacity.
// Возвращает ошибку ErrInvalidCapacity, если capacity < 1.
func New[K comparable, V any](capacity int) (*LRU[K, V], error) {
	if capacity < 1 {
		return nil, invalidCapacity(capacity)
	}

	return &LRU[K, V]{
		items:    make(map[K]*item[K, V], capacity),
		capacity: capacity,
	}, nil
}

// WithEvictCallback устанавливает функцию, которая вызывается для каждой
// вытесненной записи. Вызов происходит после удаления записи из кэша.
func (c *LRU[K, V]) WithEvictCallback(fn func(key K, value V)) *LRU[K, V] {
	c.onEvict = fn
	return c
}

// Has сообщает, есть ли ключ в кэше.
// Проверка наличия тоже считается использованием: найденная запись становится самой свежей.
func (c *LRU[K, V]) Has(key K) bool {
	it, ok := c.items[key]
	if !ok {
		return false
	}
	c.promote(it)
	return true
}

// Get возвращает значение по ключу и флаг наличия.
// Промах - не ошибка: возвращается zero-value и false.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	it, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.promote(it)
	return it.value, true
}

// Peek возвращает значение без изменения порядка использования.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	it, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return it.value, true
}

// Set добавляет или обновляет значение.
// Новый ключ при заполненном кэше вытесняет ровно одну запись - tail.
func (c *LRU[K, V]) Set(key K, value V) {
	if it, ok := c.items[key]; ok {
		it.value = value
		c.promote(it)
		return
	}

	it := &item[K, V]{key: key, value: value}
	c.items[key] = it
	c.pushFront(it)
	c.appendInserted(it)

	if len(c.items) > c.capacity {
		c.evict()
	}
}

// Values возвращает ленивую последовательность значений.
// Порядок - порядок вставки ключей, а не порядок использования.
// Обход не продвигает записи. Каждый вызов начинает обход заново.
//
// Изменения во время обхода ведут себя как у map с порядком вставки:
// вытесненные до посещения записи пропускаются, добавленные записи посещаются.
func (c *LRU[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for it := c.first; it != nil; it = nextInserted(it) {
			if !yield(it.value) {
				return
			}
		}
	}
}

// nextInserted возвращает следующую по порядку вставки запись, которая еще в кэше.
func nextInserted[K comparable, V any](it *item[K, V]) *item[K, V] {
	next := it.after
	for next != nil && next.removed {
		next = next.after
	}
	return next
}

// Keys возвращает ключи от самого свежего к самому старому.
func (c *LRU[K, V]) Keys() []K {
	keys := make([]K, 0, len(c.items))
	for it := c.head; it != nil; it = it.next {
		keys = append(keys, it.key)
	}
	return keys
}

// Len возвращает текущее количество записей.
func (c *LRU[K, V]) Len() int {
	return len(c.items)
}

// Cap возвращает емкость кэша.
func (c *LRU[K, V]) Cap() int {
	return c.capacity
}

// promote переносит запись в head за O(1).
func (c *LRU[K, V]) promote(it *item[K, V]) {
	if it == c.head {
		return
	}

	// it не head, значит it.prev != nil
	if it == c.tail {
		c.tail = it.prev
	}
	it.prev.next = it.next
	if it.next != nil {
		it.next.prev = it.prev
	}

	it.prev = nil
	it.next = c.head
	c.head.prev = it
	c.head = it
}

func (c *LRU[K, V]) pushFront(it *item[K, V]) {
	it.prev = nil
	it.next = c.head
	if c.head != nil {
		c.head.prev = it
	} else {
		c.tail = it
	}
	c.head = it
}

func (c *LRU[K, V]) appendInserted(it *item[K, V]) {
	it.before = c.last
	if c.last != nil {
		c.last.after = it
	} else {
		c.first = it
	}
	c.last = it
}

func (c *LRU[K, V]) unlinkInserted(it *item[K, V]) {
	if it.before != nil {
		it.before.after = it.after
	} else {
		c.first = it.after
	}
	if it.after != nil {
		it.after.before = it.before
	} else {
		c.last = it.before
	}
	it.before = nil
	it.removed = true
}

// evict удаляет tail из списка и map.
func (c *LRU[K, V]) evict() {
	it := c.tail
	if it == nil {
		return
	}

	c.tail = it.prev
	if c.tail != nil {
		c.tail.next = nil
	} else {
		c.head = nil
	}
	it.prev = nil

	c.unlinkInserted(it)
	delete(c.items, it.key)

	if c.onEvict != nil {
		c.onEvict(it.key, it.value)
	}
}
