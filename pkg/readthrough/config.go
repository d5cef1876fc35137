package readthrough

import (
	"log/slog"

	"github.com/jmgilman/go/errors"

	"go-lru/pkg/retry"
)

// Config задает параметры Store.
type Config struct {
	// Capacity - емкость LRU-кэша, должна быть не меньше 1.
	Capacity int

	// Retry - повторы загрузки при промахе. Если RetryIf не задан,
	// повторяются только ошибки, классифицированные как временные.
	Retry retry.Config

	// RateLimit ограничивает число загрузок в секунду, 0 - без ограничения.
	RateLimit int64
	// Burst - емкость ведра; 0 - равна RateLimit.
	Burst int64

	// Workers - параллелизм Warm, 0 - по числу процессоров.
	Workers int

	// Logger для событий загрузки и вытеснения, nil - без логов.
	Logger *slog.Logger
}

func (c Config) validate() error {
	if c.RateLimit < 0 {
		return errors.Newf(errors.CodeInvalidConfig, "rate limit must not be negative, got %d", c.RateLimit)
	}
	if c.Burst < 0 {
		return errors.Newf(errors.CodeInvalidConfig, "burst must not be negative, got %d", c.Burst)
	}
	if c.Workers < 0 {
		return errors.Newf(errors.CodeInvalidConfig, "workers must not be negative, got %d", c.Workers)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Retry.RetryIf == nil {
		c.Retry.RetryIf = errors.IsRetryable
	}
	if c.RateLimit > 0 && c.Burst == 0 {
		c.Burst = c.RateLimit
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}
