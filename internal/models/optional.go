package models

import (
	"bytes"
	"encoding/json"
)

// Optional carries a patch value that is either omitted, set to a value or
// explicitly cleared. The zero value is omitted.
type Optional[T any] struct {
	present bool
	null    bool
	value   T
}

func Set[T any](value T) Optional[T] {
	return Optional[T]{present: true, value: value}
}

func Clear[T any]() Optional[T] {
	return Optional[T]{present: true, null: true}
}

func (o Optional[T]) Present() bool {
	return o.present
}

func (o Optional[T]) Cleared() bool {
	return o.present && o.null
}

// Get returns the supplied value; ok is false when omitted or cleared.
func (o Optional[T]) Get() (T, bool) {
	if !o.present || o.null {
		var zero T
		return zero, false
	}
	return o.value, true
}

// Pointer resolves a present Optional to the nullable field it overwrites.
func (o Optional[T]) Pointer() *T {
	value, ok := o.Get()
	if !ok {
		return nil
	}
	return &value
}

// UnmarshalJSON is only invoked for keys present in the payload, so an absent
// key keeps the zero (omitted) state and a literal null means clear.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.null = true
		var zero T
		o.value = zero
		return nil
	}
	o.null = false
	return json.Unmarshal(data, &o.value)
}
