package workerpool

import (
	"context"
	"runtime"
	"sync"

	"github.com/jmgilman/go/errors"
)

// Result содержит задачу, результат ее выполнения и возможную ошибку
type Result[T any, R any] struct {
	Task  T
	Value R
	Err   error
}

// WorkerPool - пул воркеров с дженериками
type WorkerPool[T any, R any] struct {
	taskChan   chan T             // Канал для задач
	resultChan chan Result[T, R]  // Канал для результатов с ошибками
	wg         sync.WaitGroup     // Группа ожидания воркеров
	ctx        context.Context    // Контекст для управления жизненным циклом
	cancel     context.CancelFunc // Функция отмены контекста
	numWorkers int                // Количество воркеров
	mu         sync.RWMutex       // Защищает taskChan от отправки после закрытия
	closed     bool               // Канал задач закрыт
	resultOnce sync.Once          // Канал результатов закрывается ровно один раз
}

// NewWorkerPool создает новый пул воркеров.
// По умолчанию количество воркеров равно количеству виртуальных процессоров.
func NewWorkerPool[T any, R any](parent context.Context, taskBuffer int) *WorkerPool[T, R] {
	ctx, cancel := context.WithCancel(parent)

	return &WorkerPool[T, R]{
		taskChan:   make(chan T, taskBuffer),
		resultChan: make(chan Result[T, R], taskBuffer),
		ctx:        ctx,
		cancel:     cancel,
		numWorkers: max(runtime.NumCPU(), 1),
	}
}

// WithWorkers устанавливает конкретное количество воркеров.
// Вызывать до Start.
func (wp *WorkerPool[T, R]) WithWorkers(n int) *WorkerPool[T, R] {
	if n > 0 {
		wp.numWorkers = n
	}
	return wp
}

// Start запускает воркеры
func (wp *WorkerPool[T, R]) Start(workerFunc func(context.Context, T) (R, error)) {
	wp.wg.Add(wp.numWorkers)

	for i := 0; i < wp.numWorkers; i++ {
		go func() {
			defer wp.wg.Done()

			for {
				select {
				case <-wp.ctx.Done():
					return
				case task, ok := <-wp.taskChan:
					if !ok || wp.ctx.Err() != nil {
						return
					}

					res := wp.run(workerFunc, task)

					// Отправка результата, только если контекст не отменен
					select {
					case <-wp.ctx.Done():
						return
					case wp.resultChan <- res:
					}
				}
			}
		}()
	}
}

// run выполняет задачу, превращая панику в ошибку
func (wp *WorkerPool[T, R]) run(workerFunc func(context.Context, T) (R, error), task T) (res Result[T, R]) {
	res.Task = task
	defer func() {
		if r := recover(); r != nil {
			res.Err = errors.Newf(errors.CodeInternal, "panic in worker: %v", r)
		}
	}()

	res.Value, res.Err = workerFunc(wp.ctx, task)
	return res
}

// Submit добавляет задачу в пул.
// Возвращает false, если пул закрыт или контекст отменен.
func (wp *WorkerPool[T, R]) Submit(task T) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed || wp.ctx.Err() != nil {
		return false
	}

	select {
	case <-wp.ctx.Done():
		return false
	case wp.taskChan <- task:
		return true
	}
}

// GetResults возвращает канал результатов с ошибками.
// Канал закрывается после остановки пула.
func (wp *WorkerPool[T, R]) GetResults() <-chan Result[T, R] {
	return wp.resultChan
}

// Stop останавливает все воркеры, не дожидаясь завершения задач
func (wp *WorkerPool[T, R]) Stop() {
	wp.cancel()
	wp.closeTasks()
	wp.wg.Wait()
	wp.closeResults()
}

// GracefulStop закрывает канал задач, ожидает завершения всех задач и закрывает пул.
// Пока воркеры отдают результаты, их кто-то должен читать.
func (wp *WorkerPool[T, R]) GracefulStop() {
	wp.closeTasks()
	wp.wg.Wait()
	wp.cancel()
	wp.closeResults()
}

func (wp *WorkerPool[T, R]) closeTasks() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.closed {
		wp.closed = true
		close(wp.taskChan)
	}
}

func (wp *WorkerPool[T, R]) closeResults() {
	wp.resultOnce.Do(func() {
		close(wp.resultChan)
	})
}
