package retry

import "time"

// Config задает параметры повторных попыток.
type Config struct {
	MaxAttempts  int           // Максимум попыток, значения меньше 1 считаются за 1
	InitialDelay time.Duration // Задержка перед второй попыткой
	MaxDelay     time.Duration // Верхняя граница задержки, 0 - без ограничения

	// RetryIf решает, стоит ли повторять операцию после ошибки.
	// nil - повторять при любой ошибке.
	RetryIf func(error) bool
}
