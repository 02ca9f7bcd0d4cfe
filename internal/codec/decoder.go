package codec

import (
	"fmt"
	"reflect"

	"github.com/amberlab/amber/internal/identity"
	"github.com/amberlab/amber/internal/tree"
	"github.com/amberlab/amber/internal/typeset"
)

// Decode reconstructs a live object graph from a portable tree.
//
// Reconstruction is two-phase per record: a shell of the target type
// is allocated and registered under the record's id before any of its
// state is decoded, so cyclic and shared references resolve to the one
// instance under construction. Any resolution failure aborts the whole
// call; no partially-populated graph is ever returned.
func Decode(t *tree.Tree, opts ...Option) (any, error) {
	if !t.Compatible() {
		return nil, NewIncompatibleTreeError(t.Format, t.Version)
	}
	d := &decoder{
		config: newConfig(opts),
		table:  identity.NewDecodeTable(),
		conv:   typeset.NewConversions(),
	}
	return d.build(t.Root)
}

type decoder struct {
	config
	table *identity.DecodeTable

	// conv spans the whole call so a shared container converted into a
	// typed field stays one instance across all the fields and records
	// that reference it.
	conv *typeset.Conversions
}

func (d *decoder) build(v tree.Value) (any, error) {
	switch val := v.(type) {
	case tree.Null:
		return nil, nil
	case tree.Bool:
		return bool(val), nil
	case tree.Int:
		return int64(val), nil
	case tree.Float:
		return float64(val), nil
	case tree.String:
		return string(val), nil
	case tree.Bytes:
		return []byte(val), nil
	case tree.Sequence:
		return d.buildSequence(val)
	case tree.Mapping:
		return d.buildMapping(val)
	case tree.ObjectRef:
		instance, ok := d.table.Resolve(int64(val))
		if !ok {
			return nil, NewDanglingReferenceError(int64(val))
		}
		return instance, nil
	case tree.ObjectRecord:
		return d.buildObject(val)
	case tree.CallableRecord:
		return d.buildCallable(val)
	case tree.TypeRef:
		handle, ok := d.resolver.Resolve(string(val))
		if !ok {
			return nil, NewUnknownTypeError(string(val))
		}
		return handle.RuntimeType(), nil
	case nil:
		return nil, &Error{Code: ErrCodeStateApplication, Message: "nil value in tree"}
	default:
		return nil, &Error{Code: ErrCodeStateApplication, Message: fmt.Sprintf("unknown tree value %T", v)}
	}
}

func (d *decoder) buildSequence(seq tree.Sequence) (any, error) {
	out := make([]any, len(seq.Items))
	if seq.ID != 0 {
		// Register before populating: a sequence may contain itself.
		d.table.RecordShell(seq.ID, out)
	}
	for i, item := range seq.Items {
		dv, err := d.build(item)
		if err != nil {
			return nil, err
		}
		out[i] = dv
	}
	if seq.ID != 0 {
		d.table.MarkPopulated(seq.ID)
	}
	return out, nil
}

func (d *decoder) buildMapping(m tree.Mapping) (any, error) {
	// The key shape is known syntactically before decoding, so the
	// shell can be allocated with the right Go type up front.
	allStrings := true
	for _, e := range m.Entries {
		if _, ok := e.Key.(tree.String); !ok {
			allStrings = false
			break
		}
	}

	if allStrings {
		out := make(map[string]any, len(m.Entries))
		if m.ID != 0 {
			d.table.RecordShell(m.ID, out)
		}
		for _, e := range m.Entries {
			dv, err := d.build(e.Val)
			if err != nil {
				return nil, err
			}
			out[string(e.Key.(tree.String))] = dv
		}
		if m.ID != 0 {
			d.table.MarkPopulated(m.ID)
		}
		return out, nil
	}

	out := make(map[any]any, len(m.Entries))
	if m.ID != 0 {
		d.table.RecordShell(m.ID, out)
	}
	for _, e := range m.Entries {
		dk, err := d.build(e.Key)
		if err != nil {
			return nil, err
		}
		if dk != nil && !reflect.TypeOf(dk).Comparable() {
			return nil, &Error{
				Code:    ErrCodeStateApplication,
				Message: fmt.Sprintf("unhashable mapping key of type %T", dk),
			}
		}
		dv, err := d.build(e.Val)
		if err != nil {
			return nil, err
		}
		out[dk] = dv
	}
	if m.ID != 0 {
		d.table.MarkPopulated(m.ID)
	}
	return out, nil
}

func (d *decoder) buildObject(rec tree.ObjectRecord) (any, error) {
	handle, ok := d.resolver.Resolve(rec.Type.Name)
	if !ok {
		return nil, NewUnknownTypeError(rec.Type.Name)
	}

	switch rec.Type.Strategy {
	case tree.StrategyFromState:
		// One-step construction: state is decoded first, so cycles
		// routed through this record cannot resolve and surface as
		// dangling references.
		attrs, err := d.buildState(rec.Type.Name, rec.State)
		if err != nil {
			return nil, err
		}
		instance, err := handle.ConstructFromState(attrs)
		if err != nil {
			return nil, &Error{
				Code:     ErrCodeStateApplication,
				Message:  "constructor failed",
				TypeName: rec.Type.Name,
				Err:      err,
			}
		}
		d.table.RecordShell(rec.ID, instance)
		d.table.MarkPopulated(rec.ID)
		return instance, nil

	default:
		shell := handle.AllocateShell()
		d.table.RecordShell(rec.ID, shell)
		attrs, err := d.buildState(rec.Type.Name, rec.State)
		if err != nil {
			return nil, err
		}
		if err := handle.ApplyState(shell, attrs, d.conv); err != nil {
			return nil, NewStateApplicationError(rec.Type.Name, "", err)
		}
		d.table.MarkPopulated(rec.ID)
		return shell, nil
	}
}

func (d *decoder) buildState(typeName string, state tree.Mapping) ([]typeset.Attr, error) {
	attrs := make([]typeset.Attr, 0, len(state.Entries))
	for _, e := range state.Entries {
		name, ok := e.Key.(tree.String)
		if !ok {
			return nil, &Error{
				Code:     ErrCodeStateApplication,
				Message:  fmt.Sprintf("non-string state key %T", e.Key),
				TypeName: typeName,
			}
		}
		dv, err := d.build(e.Val)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, typeset.Attr{Name: string(name), Value: dv})
	}
	return attrs, nil
}

func (d *decoder) buildCallable(rec tree.CallableRecord) (any, error) {
	if rec.Bound == nil {
		fn, ok := d.callables.Resolve(rec.Name)
		if !ok {
			return nil, NewUnknownTypeError(rec.Name)
		}
		d.table.RecordShell(rec.ID, fn)
		d.table.MarkPopulated(rec.ID)
		return fn, nil
	}

	state, err := d.buildState(rec.Name, *rec.Bound)
	if err != nil {
		return nil, err
	}
	instance, found, err := d.callables.Bind(rec.Name, state)
	if !found {
		return nil, NewUnknownTypeError(rec.Name)
	}
	if err != nil {
		return nil, &Error{
			Code:     ErrCodeStateApplication,
			Message:  "binder failed",
			TypeName: rec.Name,
			Err:      err,
		}
	}
	d.table.RecordShell(rec.ID, instance)
	d.table.MarkPopulated(rec.ID)
	return instance, nil
}
