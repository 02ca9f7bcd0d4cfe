package codec

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/amberlab/amber/internal/identity"
	"github.com/amberlab/amber/internal/tree"
	"github.com/amberlab/amber/internal/typeset"
)

// Encode walks the object graph reachable from root depth-first in
// pre-order and produces its portable tree. Encoding is all-or-nothing:
// any unencodable value aborts the call and no partial tree is
// returned.
//
// The encoder assumes a quiescent graph for the duration of the
// traversal; concurrent mutation of the graph is undefined behavior.
// Concurrent Encode calls over disjoint graphs are safe: all mutable
// state is call-local.
func Encode(root any, opts ...Option) (*tree.Tree, error) {
	e := &encoder{
		config: newConfig(opts),
		ids:    identity.NewEncodeTable(),
	}
	v, err := e.walk(root)
	if err != nil {
		return nil, err
	}
	return tree.New(v), nil
}

type encoder struct {
	config
	ids *identity.EncodeTable
}

func (e *encoder) walk(v any) (tree.Value, error) {
	if v == nil {
		return tree.Null{}, nil
	}

	// Types travel as first-class values, by qualified name.
	if t, ok := v.(reflect.Type); ok {
		name := typeset.QualifiedName(t)
		if name == "" {
			return nil, NewUnsupportedTypeError(t.String(), "unnamed type cannot travel as a value")
		}
		return tree.TypeRef(name), nil
	}

	if bc, ok := v.(typeset.BoundCallable); ok {
		return e.walkBoundCallable(bc)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return tree.Bool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return tree.Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, NewUnsupportedTypeError(rv.Type().String(), fmt.Sprintf("unsigned value %d exceeds int64", u))
		}
		return tree.Int(int64(u)), nil

	case reflect.Float32, reflect.Float64:
		return tree.Float(rv.Float()), nil

	case reflect.String:
		return tree.String(rv.String()), nil

	case reflect.Slice:
		if rv.Type().Elem() == reflect.TypeOf(byte(0)) {
			// Byte strings are a primitive kind, not a shared container.
			return tree.Bytes(rv.Bytes()), nil
		}
		return e.walkSequence(rv)

	case reflect.Array:
		// Arrays have value semantics: anonymous, never shared.
		items, err := e.walkItems(rv)
		if err != nil {
			return nil, err
		}
		return tree.Sequence{Items: items}, nil

	case reflect.Map:
		return e.walkMapping(rv)

	case reflect.Func:
		return e.walkFunc(rv)

	case reflect.Pointer:
		if rv.IsNil() {
			return tree.Null{}, nil
		}
		if rv.Type().Elem().Kind() == reflect.Struct {
			return e.walkObject(v, rv)
		}
		// Pointers to non-structs are followed; their sharing is not
		// tracked.
		return e.walk(rv.Elem().Interface())

	case reflect.Struct:
		return e.walkObject(v, rv)

	default:
		return nil, NewUnsupportedTypeError(rv.Type().String(), fmt.Sprintf("%s values are not encodable", rv.Kind()))
	}
}

func (e *encoder) walkSequence(rv reflect.Value) (tree.Value, error) {
	key := identity.Key{Ptr: rv.Pointer(), Type: rv.Type(), Len: rv.Len()}
	id, isNew := e.ids.IDFor(key)
	if !isNew {
		return tree.ObjectRef(id), nil
	}
	items, err := e.walkItems(rv)
	if err != nil {
		return nil, err
	}
	e.ids.MarkEmitted(id)
	return tree.Sequence{ID: id, Items: items}, nil
}

func (e *encoder) walkItems(rv reflect.Value) ([]tree.Value, error) {
	items := make([]tree.Value, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, err := e.walk(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}

func (e *encoder) walkMapping(rv reflect.Value) (tree.Value, error) {
	key := identity.Key{Ptr: rv.Pointer(), Type: rv.Type()}
	id, isNew := e.ids.IDFor(key)
	if !isNew {
		return tree.ObjectRef(id), nil
	}

	// Go maps have no insertion order; entries are emitted in sorted
	// native-key order so the same map always encodes to the same
	// tree. Ordering is total for primitive keys; other comparable key
	// kinds sort by their formatted value.
	keys := rv.MapKeys()
	sort.SliceStable(keys, func(i, j int) bool {
		return mapSortKey(keys[i]) < mapSortKey(keys[j])
	})

	entries := make([]tree.Entry, 0, len(keys))
	for _, k := range keys {
		ek, err := e.walk(k.Interface())
		if err != nil {
			return nil, err
		}
		ev, err := e.walk(rv.MapIndex(k).Interface())
		if err != nil {
			return nil, err
		}
		entries = append(entries, tree.Entry{Key: ek, Val: ev})
	}
	e.ids.MarkEmitted(id)
	return tree.Mapping{ID: id, Entries: entries}, nil
}

func mapSortKey(k reflect.Value) string {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	switch k.Kind() {
	case reflect.String:
		return "s:" + k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// Flipping the sign bit maps int64 onto uint64 order-preservingly,
		// so the fixed-width decimal sorts negatives before positives.
		return fmt.Sprintf("i:%020d", uint64(k.Int())^(1<<63))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := k.Uint()
		if u > math.MaxInt64 {
			// Beyond int64 range; "j:" sorts after every "i:" key.
			return fmt.Sprintf("j:%020d", u)
		}
		return fmt.Sprintf("i:%020d", u^(1<<63))
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("f:%v", k.Float())
	case reflect.Bool:
		return fmt.Sprintf("b:%v", k.Bool())
	default:
		return fmt.Sprintf("o:%v", k)
	}
}

func (e *encoder) walkFunc(rv reflect.Value) (tree.Value, error) {
	if rv.IsNil() {
		return tree.Null{}, nil
	}
	name, ok := e.callables.NameFor(rv.Interface())
	if !ok {
		return nil, NewUnsupportedTypeError(rv.Type().String(), "function value not present in the callable registry")
	}
	key := identity.Key{Ptr: rv.Pointer(), Type: rv.Type()}
	id, isNew := e.ids.IDFor(key)
	if !isNew {
		return tree.ObjectRef(id), nil
	}
	e.ids.MarkEmitted(id)
	return tree.CallableRecord{ID: id, Name: name}, nil
}

func (e *encoder) walkBoundCallable(bc typeset.BoundCallable) (tree.Value, error) {
	rv := reflect.ValueOf(bc)
	var id int64
	if rv.Kind() == reflect.Pointer {
		key := identity.Key{Ptr: rv.Pointer(), Type: rv.Type()}
		var isNew bool
		id, isNew = e.ids.IDFor(key)
		if !isNew {
			return tree.ObjectRef(id), nil
		}
	} else {
		id = e.ids.Allocate()
	}

	bound, err := e.walkAttrs(bc.BoundState())
	if err != nil {
		return nil, err
	}
	e.ids.MarkEmitted(id)
	return tree.CallableRecord{ID: id, Name: bc.CallableName(), Bound: &bound}, nil
}

func (e *encoder) walkObject(v any, rv reflect.Value) (tree.Value, error) {
	typ := rv.Type()
	var id int64
	if rv.Kind() == reflect.Pointer {
		typ = typ.Elem()
		key := identity.Key{Ptr: rv.Pointer(), Type: rv.Type()}
		var isNew bool
		id, isNew = e.ids.IDFor(key)
		if !isNew {
			// Cycle/sharing break: stop recursing, reference by id.
			return tree.ObjectRef(id), nil
		}
	} else {
		id = e.ids.Allocate()
	}

	desc, ok := e.types.DescriptorFor(typ)
	if !ok {
		return nil, NewUnsupportedTypeError(typ.String(), "type has no qualified name")
	}

	attrs, err := e.reader.ListAttributes(v)
	if err != nil {
		return nil, &Error{
			Code:     ErrCodeUnsupportedType,
			Message:  "could not enumerate attributes",
			TypeName: desc.Name,
			Err:      err,
		}
	}

	state, err := e.walkAttrs(attrs)
	if err != nil {
		return nil, err
	}
	e.ids.MarkEmitted(id)
	return tree.ObjectRecord{ID: id, Type: desc, State: state}, nil
}

func (e *encoder) walkAttrs(attrs []typeset.Attr) (tree.Mapping, error) {
	entries := make([]tree.Entry, 0, len(attrs))
	for _, attr := range attrs {
		val, err := e.walk(attr.Value)
		if err != nil {
			return tree.Mapping{}, err
		}
		entries = append(entries, tree.Field(attr.Name, val))
	}
	return tree.Mapping{Entries: entries}, nil
}
