package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// GetJSON decodes the live entry for key into a T. The boolean is false on any miss.
func GetJSON[T any](s *FileStore, key string) (T, bool) {
	var v T
	entry, err := s.Get(key)
	if err != nil {
		return v, false
	}
	if err = json.Unmarshal(entry.Data, &v); err != nil {
		return v, false
	}
	return v, true
}

// SetJSON encodes v and stores it under key for ttl.
func SetJSON(s *FileStore, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.Set(key, data, ttl)
}
