package model

import (
	"encoding/json"
)

// Optional is a presence-tagged value. The zero value is absent.
type Optional[T any] struct {
	value   T
	present bool
}

// Some wraps a present value
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// None returns an absent value
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// Present reports whether a value was set
func (o Optional[T]) Present() bool {
	return o.present
}

// OrElse returns the value if present, otherwise def
func (o Optional[T]) OrElse(def T) T {
	if o.present {
		return o.value
	}
	return def
}

// MarshalJSON encodes an absent value as null
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON treats null as absent
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
