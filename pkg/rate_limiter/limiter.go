package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/jmgilman/go/errors"
)

// ErrStopped возвращается Wait после остановки LeakyBucket.
var ErrStopped = errors.New(errors.CodeUnavailable, "leaky bucket is stopped")

// LeakyBucket реализует алгоритм "протекающего ведра" для ограничения скорости.
// Используется, чтобы ограничить частоту обращений к медленному источнику данных.
type LeakyBucket struct {
	rate     int64         // Скорость протекания (запросов в секунду)
	capacity int64         // Емкость ведра (размер очереди)
	queue    chan struct{} // Ограниченная очередь для хранения запросов
	stopCh   chan struct{} // Канал для сигнала остановки
	stopOnce sync.Once
}

// NewLeakyBucket создает новый экземпляр LeakyBucket
// rate - количество разрешенных запросов в секунду
// capacity - максимальный размер очереди (емкость ведра)
func NewLeakyBucket(rate, capacity int64) (*LeakyBucket, error) {
	if rate <= 0 {
		return nil, errors.Newf(errors.CodeInvalidConfig, "rate must be greater than 0, got %d", rate)
	}
	if capacity <= 0 {
		return nil, errors.Newf(errors.CodeInvalidConfig, "capacity must be greater than 0, got %d", capacity)
	}

	lb := &LeakyBucket{
		rate:     rate,
		capacity: capacity,
		queue:    make(chan struct{}, capacity),
		stopCh:   make(chan struct{}),
	}
	go lb.leak() // Запускаем горутину для "протекания" ведра
	return lb, nil
}

// Allow проверяет, есть ли место в ведре, не блокируясь.
// Возвращает true если есть место в очереди (запрос разрешен)
// Возвращает false если очередь полная или ведро остановлено
func (lb *LeakyBucket) Allow() bool {
	// Остановленное ведро больше не протекает, поэтому запросы не принимаются
	select {
	case <-lb.stopCh:
		return false
	default:
	}

	select {
	case lb.queue <- struct{}{}: // Есть место в очереди - запрос принимается
		return true
	default: // Очередь полная - запрос отклоняется
		return false
	}
}

// Wait блокируется, пока в ведре не освободится место,
// контекст не будет отменен или ведро не будет остановлено.
func (lb *LeakyBucket) Wait(ctx context.Context) error {
	// Сначала проверяем остановку, чтобы свободное место в очереди ее не маскировало
	select {
	case <-lb.stopCh:
		return ErrStopped
	default:
	}

	select {
	case lb.queue <- struct{}{}: // Место освободилось - запрос принят
		return nil
	case <-ctx.Done(): // Вызывающий больше не ждет
		return ctx.Err()
	case <-lb.stopCh: // Ведро остановлено во время ожидания
		return ErrStopped
	}
}

// leak удаляет запросы из очереди с заданной скоростью
func (lb *LeakyBucket) leak() {
	// Создаем тикер с интервалом, соответствующим скорости протекания
	ticker := time.NewTicker(time.Second / time.Duration(lb.rate))
	defer ticker.Stop() // Гарантируем остановку тикера при выходе

	for {
		select {
		case <-lb.stopCh: // Получен сигнал остановки
			return
		case <-ticker.C: // Сработал тикер - время "протечь"
			select {
			case <-lb.queue:
				// Удаляем один запрос из очереди (если есть)
			default: // Очередь пустая - ничего не делаем
			}
		}
	}
}

// Stop останавливает протекание. Повторный вызов безопасен.
func (lb *LeakyBucket) Stop() {
	lb.stopOnce.Do(func() {
		close(lb.stopCh) // Отправляем сигнал остановки
	})
}
