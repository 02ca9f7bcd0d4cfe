package typeset

import (
	"fmt"
	"reflect"
)

// Conversions memoizes container conversions for one decode pass.
// The decoder hands every shared container out as the same []any or
// map instance; converting it into a statically typed field must also
// happen once per destination type, or two fields that referenced one
// native container would decode to two independent copies.
type Conversions struct {
	memo map[conversionKey]reflect.Value
}

// conversionKey identifies one (decoded container, destination type)
// pair. Len disambiguates zero-sized allocations, which can share an
// address.
type conversionKey struct {
	ptr uintptr
	len int
	typ reflect.Type
}

// NewConversions creates an empty conversion memo. One is created per
// decode call; ApplyState also accepts nil and falls back to a fresh
// memo, losing only cross-call sharing.
func NewConversions() *Conversions {
	return &Conversions{memo: make(map[conversionKey]reflect.Value)}
}

func (c *Conversions) lookup(src reflect.Value, dt reflect.Type) (reflect.Value, bool) {
	out, ok := c.memo[conversionKey{ptr: src.Pointer(), len: src.Len(), typ: dt}]
	return out, ok
}

func (c *Conversions) store(src reflect.Value, dt reflect.Type, out reflect.Value) {
	c.memo[conversionKey{ptr: src.Pointer(), len: src.Len(), typ: dt}] = out
}

// assign stores a decoded value into a destination reflect.Value,
// converting between the decoder's generic shapes (int64, float64,
// []any, map[string]any, pointers to shells) and the destination's
// static type. An incompatible shape is an error, reported by the
// decoder as a state-application failure.
func (c *Conversions) assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	val := reflect.ValueOf(v)
	dt := dst.Type()

	if val.Type().AssignableTo(dt) {
		dst.Set(val)
		return nil
	}

	// Shells arrive as *T; fields declared as T take the dereference.
	if val.Kind() == reflect.Pointer && !val.IsNil() && val.Type().Elem().AssignableTo(dt) {
		dst.Set(val.Elem())
		return nil
	}

	switch dt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := asInt64(val)
		if !ok {
			break
		}
		if dst.OverflowInt(i) {
			return fmt.Errorf("value %d overflows %s", i, dt)
		}
		dst.SetInt(i)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, ok := asInt64(val)
		if !ok {
			break
		}
		if i < 0 || dst.OverflowUint(uint64(i)) {
			return fmt.Errorf("value %d overflows %s", i, dt)
		}
		dst.SetUint(uint64(i))
		return nil

	case reflect.Float32, reflect.Float64:
		switch val.Kind() {
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(val.Float())
			return nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			dst.SetFloat(float64(val.Int()))
			return nil
		}

	case reflect.String:
		if val.Kind() == reflect.String {
			dst.SetString(val.String())
			return nil
		}

	case reflect.Bool:
		if val.Kind() == reflect.Bool {
			dst.SetBool(val.Bool())
			return nil
		}

	case reflect.Slice:
		if val.Kind() != reflect.Slice {
			break
		}
		if out, ok := c.lookup(val, dt); ok {
			dst.Set(out)
			return nil
		}
		out := reflect.MakeSlice(dt, val.Len(), val.Len())
		// Memoize before populating so a container reachable from its
		// own elements converts to the one instance.
		c.store(val, dt, out)
		for i := 0; i < val.Len(); i++ {
			if err := c.assign(out.Index(i), val.Index(i).Interface()); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(out)
		return nil

	case reflect.Array:
		if val.Kind() != reflect.Slice || val.Len() != dt.Len() {
			break
		}
		for i := 0; i < val.Len(); i++ {
			if err := c.assign(dst.Index(i), val.Index(i).Interface()); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil

	case reflect.Map:
		if val.Kind() != reflect.Map {
			break
		}
		if out, ok := c.lookup(val, dt); ok {
			dst.Set(out)
			return nil
		}
		out := reflect.MakeMapWithSize(dt, val.Len())
		c.store(val, dt, out)
		iter := val.MapRange()
		for iter.Next() {
			k := reflect.New(dt.Key()).Elem()
			if err := c.assign(k, iter.Key().Interface()); err != nil {
				return fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			mv := reflect.New(dt.Elem()).Elem()
			if err := c.assign(mv, iter.Value().Interface()); err != nil {
				return fmt.Errorf("[%v]: %w", iter.Key(), err)
			}
			out.SetMapIndex(k, mv)
		}
		dst.Set(out)
		return nil

	case reflect.Pointer:
		p := reflect.New(dt.Elem())
		if err := c.assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil

	case reflect.Interface:
		if val.Type().Implements(dt) {
			dst.Set(val)
			return nil
		}
	}

	return fmt.Errorf("cannot assign %T to %s", v, dt)
}

func asInt64(val reflect.Value) (int64, bool) {
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return val.Int(), true
	}
	return 0, false
}
