package storage

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Load decodes the JSON value stored under key into v. It reports false
// when the key is absent or its value does not decode, in which case the
// caller should fall back to its empty value.
func Load(s Store, key string, v any) bool {
	raw, ok := s.Get(key)
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false
	}
	return true
}

// Save encodes v as JSON and stores it under key.
func Save(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return s.Set(key, string(data))
}
