package scopeshare

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Both cell types encode as the bare wrapped value. Encoding takes a shared
// access, decoding builds a fresh T and stores it under an exclusive access.

var (
	_ json.Marshaler   = (*Cell[int])(nil)
	_ json.Unmarshaler = (*Cell[int])(nil)
	_ yaml.Marshaler   = (*Cell[int])(nil)
	_ yaml.Unmarshaler = (*Cell[int])(nil)
	_ cbor.Marshaler   = (*Cell[int])(nil)
	_ cbor.Unmarshaler = (*Cell[int])(nil)
	_ driver.Valuer    = (*Cell[int])(nil)
	_ sql.Scanner      = (*Cell[int])(nil)

	_ json.Marshaler   = (*SharedCell[int])(nil)
	_ json.Unmarshaler = (*SharedCell[int])(nil)
	_ yaml.Marshaler   = (*SharedCell[int])(nil)
	_ yaml.Unmarshaler = (*SharedCell[int])(nil)
	_ cbor.Marshaler   = (*SharedCell[int])(nil)
	_ cbor.Unmarshaler = (*SharedCell[int])(nil)
	_ driver.Valuer    = (*SharedCell[int])(nil)
	_ sql.Scanner      = (*SharedCell[int])(nil)
)

func (c *Cell[T]) MarshalJSON() ([]byte, error) { return marshalJSON[T](c) }
func (c *Cell[T]) UnmarshalJSON(b []byte) error { return unmarshalJSON[T](c, b) }
func (c *Cell[T]) MarshalYAML() (interface{}, error) { return marshalYAML[T](c) }
func (c *Cell[T]) MarshalCBOR() ([]byte, error) { return marshalCBOR[T](c) }
func (c *Cell[T]) UnmarshalCBOR(b []byte) error { return unmarshalCBOR[T](c, b) }
func (c *Cell[T]) Value() (driver.Value, error) { return sqlValue[T](c) }
func (c *Cell[T]) Scan(src interface{}) error { return scan[T](c, src) }
func (c *Cell[T]) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalYAML[T](c, u)
}

func (c *SharedCell[T]) MarshalJSON() ([]byte, error) { return marshalJSON[T](c) }
func (c *SharedCell[T]) UnmarshalJSON(b []byte) error { return unmarshalJSON[T](c, b) }
func (c *SharedCell[T]) MarshalYAML() (interface{}, error) { return marshalYAML[T](c) }
func (c *SharedCell[T]) MarshalCBOR() ([]byte, error) { return marshalCBOR[T](c) }
func (c *SharedCell[T]) UnmarshalCBOR(b []byte) error { return unmarshalCBOR[T](c, b) }
func (c *SharedCell[T]) Value() (driver.Value, error) { return sqlValue[T](c) }
func (c *SharedCell[T]) Scan(src interface{}) error { return scan[T](c, src) }
func (c *SharedCell[T]) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalYAML[T](c, u)
}

func store[T any](a Accessor[T], v T) {
	Modify(a, func(p *T) struct{} {
		*p = v
		return struct{}{}
	})
}

func marshalJSON[T any](a Accessor[T]) ([]byte, error) {
	g := a.Borrow()
	defer g.Release()
	return json.Marshal(g.value)
}

func unmarshalJSON[T any](a Accessor[T], b []byte) error {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return errors.Wrap(err, "scopeshare: decode json")
	}
	store(a, v)
	return nil
}

func marshalYAML[T any](a Accessor[T]) (interface{}, error) {
	return View(a, func(v T) interface{} { return v }), nil
}

func unmarshalYAML[T any](a Accessor[T], unmarshal func(interface{}) error) error {
	var v T
	if err := unmarshal(&v); err != nil {
		return errors.Wrap(err, "scopeshare: decode yaml")
	}
	store(a, v)
	return nil
}

func marshalCBOR[T any](a Accessor[T]) ([]byte, error) {
	g := a.Borrow()
	defer g.Release()
	return cbor.Marshal(g.value)
}

func unmarshalCBOR[T any](a Accessor[T], b []byte) error {
	var v T
	if err := cbor.Unmarshal(b, &v); err != nil {
		return errors.Wrap(err, "scopeshare: decode cbor")
	}
	store(a, v)
	return nil
}

func isArray(t reflect.Type) bool {
	return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() != reflect.Uint8
}

func isDocument(t reflect.Type) bool {
	return t.Kind() == reflect.Struct || t.Kind() == reflect.Map
}

// sqlValue delegates to T's own Valuer when it has one. Other slices and
// arrays become PostgreSQL arrays, structs and maps are stored as JSON and
// everything else goes through the driver's default converter.
func sqlValue[T any](a Accessor[T]) (driver.Value, error) {
	v := View(a, func(v T) T { return v })
	if valuer, ok := any(v).(driver.Valuer); ok {
		return valuer.Value()
	}
	if driver.IsValue(v) {
		return v, nil
	}
	t := reflect.TypeOf(v)
	switch {
	case isArray(t):
		return pq.Array(v).Value()
	case isDocument(t):
		return json.Marshal(v)
	}
	dv, err := driver.DefaultParameterConverter.ConvertValue(v)
	return dv, errors.Wrap(err, "scopeshare: sql value")
}

func scan[T any](a Accessor[T], src interface{}) error {
	var v T
	if err := scanValue(&v, src); err != nil {
		return err
	}
	store(a, v)
	return nil
}

// scanValue mirrors sqlValue. Scalars go through sql.Null, which applies
// database/sql's conversion rules including range checks.
func scanValue[T any](v *T, src interface{}) error {
	if scanner, ok := any(v).(sql.Scanner); ok {
		return scanner.Scan(src)
	}
	if src == nil {
		return nil
	}
	t := reflect.TypeOf(v).Elem()
	if isArray(t) {
		return pq.Array(v).Scan(src)
	}
	if isDocument(t) {
		switch s := src.(type) {
		case []byte:
			return errors.Wrap(json.Unmarshal(s, v), "scopeshare: scan json")
		case string:
			return errors.Wrap(json.Unmarshal([]byte(s), v), "scopeshare: scan json")
		}
	}
	var n sql.Null[T]
	if err := n.Scan(src); err != nil {
		return errors.Wrap(err, "scopeshare: scan")
	}
	*v = n.V
	return nil
}
