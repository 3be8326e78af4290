package cache

import "time"

// CacheService defines the behavior for caching mechanisms
type CacheService interface {
	// Get returns the value and true when present and not expired.
	Get(key string) (interface{}, bool)

	Set(key string, value interface{}, duration time.Duration)

	Delete(key string)

	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(prefix string)

	Flush()
}

// Remember returns the cached value for key or loads, stores and returns it.
// Load errors are not cached.
func Remember[T any](c CacheService, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if cached, ok := c.Get(key); ok {
		if v, ok := cached.(T); ok {
			return v, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v, ttl)
	return v, nil
}
