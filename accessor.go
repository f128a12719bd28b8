package timefit

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

type (
	// Extractor reads a raw start or stop value from an event record
	Extractor func(event any) (any, error)

	// Setter writes a normalized timestamp into an event record and
	// returns the record reflecting the new value. Maps and struct
	// pointers are mutated in place; struct values are reconstructed
	Setter func(event any, value time.Time) (any, error)

	// Field designates how an event's start or stop value is accessed:
	// either by Name, which dispatches per record between keyed and
	// attribute access, or through explicit Get/Set functions. A Name
	// doubles as the write target unless Set is given; a Get with no
	// Set leaves the field read-only
	Field struct {
		Name string
		Get  Extractor
		Set  Setter
	}

	// FieldError indicates a designated field could not be read from or
	// written to a record
	FieldError struct {
		Field string
		Op    string
		Event any
	}

	// accessor is a compiled Field: one extractor and one setter bound
	// to a designator
	accessor struct {
		get Extractor
		set Setter
	}
)

var (
	// ErrSkip may be returned by a custom Extractor to exclude a record
	// from consideration as a timeline occupant
	ErrSkip = errors.New("skip event")

	// ErrNoSetter indicates a write-back was requested for a field
	// designated only by an Extractor function
	ErrNoSetter = errors.New("no setter for function-designated field")
)

func (e *FieldError) Error() string {
	return fmt.Sprintf("cannot %s field %q on %T", e.Op, e.Field, e.Event)
}

// Named returns a Field designating the given field name for both reads
// and writes
func Named(name string) Field {
	return Field{Name: name}
}

// Funcs returns a Field backed by explicit accessor functions. A nil set
// leaves the field read-only
func Funcs(get Extractor, set Setter) Field {
	return Field{Get: get, Set: set}
}

func (f Field) compile() accessor {
	return accessor{get: f.extractor(), set: f.setter()}
}

func (f Field) extractor() Extractor {
	if f.Get != nil {
		return f.Get
	}
	name := f.Name
	return func(event any) (any, error) {
		return readField(event, name)
	}
}

func (f Field) setter() Setter {
	if f.Set != nil {
		return f.Set
	}
	if f.Get != nil {
		return func(any, time.Time) (any, error) {
			return nil, ErrNoSetter
		}
	}
	name := f.Name
	return func(event any, value time.Time) (any, error) {
		return writeField(event, name, value)
	}
}

// readField dispatches per record: anything with string-keyed item
// access is treated as mapping-like, everything else as a struct whose
// exported fields are matched exactly first, then case-insensitively.
// The dispatch is per record, so a single timeline may mix shapes
func readField(event any, name string) (any, error) {
	if m, ok := event.(map[string]any); ok {
		if v, ok := lookupKey(m, name); ok {
			return v, nil
		}
		return nil, &FieldError{Field: name, Op: "read", Event: event}
	}

	v := reflect.ValueOf(event)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, &FieldError{Field: name, Op: "read", Event: event}
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, &FieldError{Field: name, Op: "read", Event: event}
		}
		if mv, ok := lookupMapIndex(v, name); ok {
			return mv.Interface(), nil
		}
	case reflect.Struct:
		if fv := structField(v, name); fv.IsValid() && fv.CanInterface() {
			return fv.Interface(), nil
		}
	}
	return nil, &FieldError{Field: name, Op: "read", Event: event}
}

// writeField mirrors readField's dispatch for writes. Maps and struct
// pointers are mutated in place; a struct passed by value is copied,
// updated, and the copy returned
func writeField(event any, name string, value time.Time) (any, error) {
	if m, ok := event.(map[string]any); ok {
		if k, ok := lookupKeyName(m, name); ok {
			m[k] = value
		} else {
			m[name] = value
		}
		return event, nil
	}

	v := reflect.ValueOf(event)
	switch v.Kind() {
	case reflect.Map:
		if err := writeMapIndex(v, name, value); err != nil {
			return nil, err
		}
		return event, nil
	case reflect.Pointer:
		elem := v
		for elem.Kind() == reflect.Pointer {
			if elem.IsNil() {
				return nil, &FieldError{
					Field: name, Op: "write", Event: event,
				}
			}
			elem = elem.Elem()
		}
		if elem.Kind() == reflect.Map {
			if err := writeMapIndex(elem, name, value); err != nil {
				return nil, err
			}
			return event, nil
		}
		if elem.Kind() != reflect.Struct {
			return nil, &FieldError{Field: name, Op: "write", Event: event}
		}
		if err := setStructField(elem, name, value); err != nil {
			return nil, err
		}
		return event, nil
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		if err := setStructField(clone, name, value); err != nil {
			return nil, err
		}
		return clone.Interface(), nil
	default:
		return nil, &FieldError{Field: name, Op: "write", Event: event}
	}
}

func lookupKey(m map[string]any, name string) (any, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	if k, ok := lookupKeyName(m, name); ok {
		return m[k], true
	}
	return nil, false
}

func lookupKeyName(m map[string]any, name string) (string, bool) {
	if _, ok := m[name]; ok {
		return name, true
	}
	for k := range m {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}

func lookupMapIndex(m reflect.Value, name string) (reflect.Value, bool) {
	key := reflect.ValueOf(name).Convert(m.Type().Key())
	if mv := m.MapIndex(key); mv.IsValid() {
		return mv, true
	}
	for _, k := range m.MapKeys() {
		if strings.EqualFold(k.String(), name) {
			return m.MapIndex(k), true
		}
	}
	return reflect.Value{}, false
}

func writeMapIndex(m reflect.Value, name string, value time.Time) error {
	if m.IsNil() || m.Type().Key().Kind() != reflect.String {
		return &FieldError{Field: name, Op: "write", Event: m.Interface()}
	}
	elem := m.Type().Elem()
	vv := reflect.ValueOf(value)
	if !vv.Type().AssignableTo(elem) {
		if !vv.Type().ConvertibleTo(elem) {
			return &FieldError{
				Field: name, Op: "write", Event: m.Interface(),
			}
		}
		vv = vv.Convert(elem)
	}
	key := reflect.ValueOf(name).Convert(m.Type().Key())
	for _, k := range m.MapKeys() {
		if strings.EqualFold(k.String(), name) {
			key = k
			break
		}
	}
	m.SetMapIndex(key, vv)
	return nil
}

func structField(v reflect.Value, name string) reflect.Value {
	if fv := v.FieldByName(name); fv.IsValid() {
		return fv
	}
	return v.FieldByNameFunc(func(s string) bool {
		return strings.EqualFold(s, name)
	})
}

func setStructField(v reflect.Value, name string, value time.Time) error {
	fv := structField(v, name)
	if !fv.IsValid() || !fv.CanSet() {
		return &FieldError{Field: name, Op: "write", Event: v.Interface()}
	}
	vv := reflect.ValueOf(value)
	if !vv.Type().AssignableTo(fv.Type()) {
		if fv.Kind() == reflect.Interface && fv.Type().NumMethod() == 0 {
			fv.Set(vv)
			return nil
		}
		if !vv.Type().ConvertibleTo(fv.Type()) {
			return &FieldError{Field: name, Op: "write", Event: v.Interface()}
		}
		vv = vv.Convert(fv.Type())
	}
	fv.Set(vv)
	return nil
}
