package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Retry выполняет операцию с повторными попытками согласно конфигурации.
// Параметры:
//   - ctx: контекст для контроля выполнения и отмены
//   - config: конфигурация повторных попыток (макс. попытки, задержки, фильтр ошибок)
//   - operation: функция, которую нужно выполнить с повторными попытками
//
// Возвращает:
//   - результат успешного выполнения операции
//   - ошибку (последнюю ошибку операции или ошибку контекста)
func Retry[T any](ctx context.Context, config Config, operation func() (T, error)) (T, error) {
	var result T
	var err error

	attempts := max(config.MaxAttempts, 1) // Хотя бы одна попытка выполняется всегда
	currentDelay := config.InitialDelay    // Текущая задержка между попытками

	// Основной цикл попыток выполнения
	for attempt := 1; attempt <= attempts; attempt++ {
		// Проверяем, не отменен ли контекст
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		// Выполняем операцию
		result, err = operation()
		if err == nil {
			// Успешное выполнение - возвращаем результат
			return result, nil
		}

		// Последняя попытка или ошибка, которую повторять бессмысленно
		if attempt == attempts || !config.shouldRetry(err) {
			return result, err
		}

		// Добавляем джиттер и ограничиваем максимальную задержку
		currentDelay = config.nextDelay(currentDelay)

		// Ожидаем перед следующей попыткой с возможностью прерывания
		timer := time.NewTimer(currentDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
			// Удваиваем задержку для следующей попытки (экспоненциальный рост)
			currentDelay *= 2
		}
	}

	return result, err
}

// shouldRetry сообщает, стоит ли повторять операцию после ошибки err.
// Без RetryIf повторяется любая ошибка.
func (c Config) shouldRetry(err error) bool {
	return c.RetryIf == nil || c.RetryIf(err)
}

// nextDelay добавляет джиттер, чтобы повторы разных клиентов не совпадали,
// и ограничивает задержку сверху.
func (c Config) nextDelay(d time.Duration) time.Duration {
	if d > 0 {
		// Случайный джиттер в пределах текущей задержки
		d += time.Duration(rand.Float64() * float64(d))
	}
	// Нулевой MaxDelay означает отсутствие ограничения
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}
