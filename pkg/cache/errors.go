package cache

import "github.com/jmgilman/go/errors"

// ErrInvalidCapacity возвращается конструкторами, если емкость меньше 1.
// Проверяется через errors.Is.
var ErrInvalidCapacity = errors.New(errors.CodeInvalidInput, "cache capacity must be at least 1")

func invalidCapacity(capacity int) error {
	return errors.Wrapf(ErrInvalidCapacity, errors.CodeInvalidInput, "invalid capacity %d", capacity)
}
