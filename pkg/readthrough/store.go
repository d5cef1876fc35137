// Package readthrough реализует кэш со сквозным чтением поверх LRU:
// при промахе значение загружается из источника, повторяется при
// временных ошибках и сохраняется в кэш.
package readthrough

import (
	"context"
	"log/slog"

	"github.com/jmgilman/go/errors"

	"go-lru/pkg/cache"
	"go-lru/pkg/concurrency/workerpool"
	limiter "go-lru/pkg/rate_limiter"
	"go-lru/pkg/retry"
)

var (
	// ErrThrottled - загрузка отклонена ограничителем скорости. Ошибка временная.
	ErrThrottled = errors.New(errors.CodeRateLimit, "load throttled")

	// ErrNotFound - источник не содержит значения для ключа.
	ErrNotFound = errors.New(errors.CodeNotFound, "value not found")
)

// Loader загружает значение из источника по ключу.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Store - потокобезопасный кэш со сквозным чтением.
type Store[K comparable, V any] struct {
	cache   *cache.Cache[K, V]
	load    Loader[K, V]
	retry   retry.Config
	bucket  *limiter.LeakyBucket
	workers int
	logger  *slog.Logger
}

// New создает Store. Ошибки конфигурации имеют код CodeInvalidConfig.
func New[K comparable, V any](cfg Config, load Loader[K, V]) (*Store[K, V], error) {
	if load == nil {
		return nil, errors.New(errors.CodeInvalidConfig, "loader must not be nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	c, err := cache.NewCache[K, V](cfg.Capacity)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "cannot create cache")
	}

	s := &Store[K, V]{
		cache:   c,
		load:    load,
		retry:   cfg.Retry,
		workers: cfg.Workers,
		logger:  cfg.Logger,
	}

	c.WithEvictCallback(func(key K, _ V) {
		s.logger.Debug("evicted", "key", key)
	})

	if cfg.RateLimit > 0 {
		s.bucket, err = limiter.NewLeakyBucket(cfg.RateLimit, cfg.Burst)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Get возвращает значение из кэша, а при промахе загружает его.
func (s *Store[K, V]) Get(ctx context.Context, key K) (V, error) {
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}

	v, err := retry.Retry(ctx, s.retry, func() (V, error) {
		if s.bucket != nil && !s.bucket.Allow() {
			var zero V
			return zero, ErrThrottled
		}
		return s.load(ctx, key)
	})
	if err != nil {
		return v, loadError(err, key)
	}

	s.cache.Set(key, v)
	s.logger.Debug("loaded", "key", key)
	return v, nil
}

// Warm параллельно загружает отсутствующие в кэше ключи.
// Возвращает первую ошибку загрузки после завершения всех задач.
func (s *Store[K, V]) Warm(ctx context.Context, keys []K) error {
	missing := make([]K, 0, len(keys))
	seen := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := s.cache.Peek(k); !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	pool := workerpool.NewWorkerPool[K, V](ctx, len(missing)).WithWorkers(s.workers)
	pool.Start(func(ctx context.Context, key K) (V, error) {
		if s.bucket != nil {
			if err := s.bucket.Wait(ctx); err != nil {
				var zero V
				return zero, err
			}
		}
		return retry.Retry(ctx, s.retry, func() (V, error) {
			return s.load(ctx, key)
		})
	})

	go func() {
		for _, k := range missing {
			if !pool.Submit(k) {
				break
			}
		}
		pool.GracefulStop()
	}()

	var firstErr error
	loaded := 0
	for res := range pool.GetResults() {
		if res.Err != nil {
			s.logger.Warn("warm load failed", "key", res.Task, "error", res.Err)
			if firstErr == nil {
				firstErr = loadError(res.Err, res.Task)
			}
			continue
		}
		s.cache.Set(res.Task, res.Value)
		loaded++
	}

	s.logger.Debug("warm finished", "requested", len(missing), "loaded", loaded)

	if firstErr == nil && loaded < len(missing) {
		// Результаты потеряны из-за отмены контекста
		return ctx.Err()
	}
	return firstErr
}

// Cache возвращает кэш, на котором построен Store.
func (s *Store[K, V]) Cache() *cache.Cache[K, V] {
	return s.cache
}

// Close останавливает ограничитель скорости.
func (s *Store[K, V]) Close() {
	if s.bucket != nil {
		s.bucket.Stop()
	}
}

func loadError(err error, key any) error {
	return errors.WrapWithContext(err, errors.GetCode(err), "cannot load value", map[string]interface{}{
		"key": key,
	})
}
