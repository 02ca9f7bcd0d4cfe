package typeset

import (
	"fmt"
	"reflect"
)

// Attr is one exposed attribute of an object: its name and live value.
type Attr struct {
	Name  string
	Value any
}

// AttributeReader enumerates an object's exposed attribute set. The
// encoder only consumes the resulting name/value list; it never
// assumes a fixed schema.
type AttributeReader interface {
	ListAttributes(obj any) ([]Attr, error)
}

// AttributeLister lets a type take over its own attribute enumeration,
// overriding reflection. Implement it to hide derived or transient
// fields from encoding.
type AttributeLister interface {
	SerializableAttrs() []Attr
}

// ReflectReader is the default AttributeReader: exported struct fields
// in declaration order. Values implementing AttributeLister are asked
// directly instead.
type ReflectReader struct{}

// ListAttributes implements AttributeReader.
func (ReflectReader) ListAttributes(obj any) ([]Attr, error) {
	if lister, ok := obj.(AttributeLister); ok {
		return lister.SerializableAttrs(), nil
	}

	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("list attributes: nil pointer")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("list attributes: %s is not a struct", v.Type())
	}

	typ := v.Type()
	attrs := make([]Attr, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		attrs = append(attrs, Attr{Name: f.Name, Value: v.Field(i).Interface()})
	}
	return attrs, nil
}
