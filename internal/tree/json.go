package tree

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// Wire format. Primitives that JSON represents natively (null, bool,
// int, string) and anonymous sequences are written as plain JSON
// values. Everything else is a tagged object with a single "$"-prefixed
// marker key, so plain JSON objects never appear on the wire and the
// reader can dispatch on the marker:
//
//	{"$float": "1.5"}                       Float (string, keeps NaN/Inf)
//	{"$bytes": "aGk="}                      Bytes (std base64)
//	{"$ref": 3}                             ObjectRef
//	{"$id": 3, "$seq": [...]}               Sequence ($id omitted when 0)
//	{"$id": 3, "$map": [[k, v], ...]}       Mapping ($id omitted when 0)
//	{"$object": 3, "$type": {...}, "$state": [[k, v], ...]}
//	{"$callable": 3, "$name": "...", "$bound": [[k, v], ...]}
//	{"$class": "pkg/path.Name"}             TypeRef

// MarshalValue renders a value as wire JSON.
func MarshalValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case Null:
		buf.WriteString("null")
		return nil
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case Float:
		buf.WriteString(`{"$float":`)
		if err := writeString(buf, strconv.FormatFloat(float64(val), 'g', -1, 64)); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	case String:
		return writeString(buf, string(val))
	case Bytes:
		buf.WriteString(`{"$bytes":`)
		if err := writeString(buf, base64.StdEncoding.EncodeToString(val)); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	case Sequence:
		if val.ID == 0 {
			return writeItems(buf, val.Items)
		}
		fmt.Fprintf(buf, `{"$id":%d,"$seq":`, val.ID)
		if err := writeItems(buf, val.Items); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	case Mapping:
		if val.ID == 0 {
			buf.WriteString(`{"$map":`)
		} else {
			fmt.Fprintf(buf, `{"$id":%d,"$map":`, val.ID)
		}
		if err := writeEntries(buf, val.Entries); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	case ObjectRef:
		fmt.Fprintf(buf, `{"$ref":%d}`, int64(val))
		return nil
	case ObjectRecord:
		fmt.Fprintf(buf, `{"$object":%d,"$type":`, val.ID)
		if err := writeDescriptor(buf, val.Type); err != nil {
			return err
		}
		buf.WriteString(`,"$state":`)
		if err := writeEntries(buf, val.State.Entries); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	case CallableRecord:
		fmt.Fprintf(buf, `{"$callable":%d,"$name":`, val.ID)
		if err := writeString(buf, val.Name); err != nil {
			return err
		}
		if val.Bound != nil {
			buf.WriteString(`,"$bound":`)
			if err := writeEntries(buf, val.Bound.Entries); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case TypeRef:
		buf.WriteString(`{"$class":`)
		if err := writeString(buf, string(val)); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	case nil:
		return fmt.Errorf("cannot marshal nil Value")
	default:
		return fmt.Errorf("unknown Value type: %T", v)
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

func writeItems(buf *bytes.Buffer, items []Value) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, item); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeEntries(buf *bytes.Buffer, entries []Entry) error {
	buf.WriteByte('[')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('[')
		if err := writeValue(buf, e.Key); err != nil {
			return fmt.Errorf("entry %d key: %w", i, err)
		}
		buf.WriteByte(',')
		if err := writeValue(buf, e.Val); err != nil {
			return fmt.Errorf("entry %d value: %w", i, err)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte(']')
	return nil
}

func writeDescriptor(buf *bytes.Buffer, d Descriptor) error {
	fmt.Fprintf(buf, `{"name":`)
	if err := writeString(buf, d.Name); err != nil {
		return err
	}
	buf.WriteString(`,"strategy":`)
	if err := writeString(buf, string(d.Strategy)); err != nil {
		return err
	}
	if len(d.Args) > 0 {
		buf.WriteString(`,"args":[`)
		for i, a := range d.Args {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, a); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return nil
}

// UnmarshalValue parses wire JSON produced by MarshalValue.
func UnmarshalValue(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case 'n':
		return Null{}, nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil

	case '[':
		items, err := readItems(data)
		if err != nil {
			return nil, err
		}
		return Sequence{Items: items}, nil

	case '{':
		return readTagged(data)

	default:
		// Bare numbers are always integers; floats travel tagged.
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("untagged non-integer number %s", n)
		}
		return Int(i), nil
	}
}

func readItems(data []byte) ([]Value, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	items := make([]Value, len(raw))
	for i, r := range raw {
		v, err := UnmarshalValue(r)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items[i] = v
	}
	return items, nil
}

func readEntries(data []byte) ([]Entry, error) {
	var raw [][2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	entries := make([]Entry, len(raw))
	for i, pair := range raw {
		k, err := UnmarshalValue(pair[0])
		if err != nil {
			return nil, fmt.Errorf("entry %d key: %w", i, err)
		}
		v, err := UnmarshalValue(pair[1])
		if err != nil {
			return nil, fmt.Errorf("entry %d value: %w", i, err)
		}
		entries[i] = Entry{Key: k, Val: v}
	}
	return entries, nil
}

func readTagged(data []byte) (Value, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	if raw, ok := fields["$float"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("$float: %w", err)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("$float %q: %w", s, err)
		}
		return Float(f), nil
	}

	if raw, ok := fields["$bytes"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("$bytes: %w", err)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("$bytes: %w", err)
		}
		return Bytes(b), nil
	}

	if raw, ok := fields["$ref"]; ok {
		var id int64
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("$ref: %w", err)
		}
		return ObjectRef(id), nil
	}

	if raw, ok := fields["$class"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("$class: %w", err)
		}
		return TypeRef(s), nil
	}

	if raw, ok := fields["$seq"]; ok {
		items, err := readItems(raw)
		if err != nil {
			return nil, fmt.Errorf("$seq: %w", err)
		}
		id, err := readID(fields)
		if err != nil {
			return nil, err
		}
		return Sequence{ID: id, Items: items}, nil
	}

	if raw, ok := fields["$map"]; ok {
		entries, err := readEntries(raw)
		if err != nil {
			return nil, fmt.Errorf("$map: %w", err)
		}
		id, err := readID(fields)
		if err != nil {
			return nil, err
		}
		return Mapping{ID: id, Entries: entries}, nil
	}

	if raw, ok := fields["$object"]; ok {
		var id int64
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("$object: %w", err)
		}
		desc, err := readDescriptor(fields["$type"])
		if err != nil {
			return nil, fmt.Errorf("$object %d: %w", id, err)
		}
		entries, err := readEntries(fields["$state"])
		if err != nil {
			return nil, fmt.Errorf("$object %d state: %w", id, err)
		}
		return ObjectRecord{ID: id, Type: desc, State: Mapping{Entries: entries}}, nil
	}

	if raw, ok := fields["$callable"]; ok {
		var id int64
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("$callable: %w", err)
		}
		var name string
		if err := json.Unmarshal(fields["$name"], &name); err != nil {
			return nil, fmt.Errorf("$callable %d name: %w", id, err)
		}
		rec := CallableRecord{ID: id, Name: name}
		if bound, ok := fields["$bound"]; ok {
			entries, err := readEntries(bound)
			if err != nil {
				return nil, fmt.Errorf("$callable %d bound: %w", id, err)
			}
			rec.Bound = &Mapping{Entries: entries}
		}
		return rec, nil
	}

	return nil, fmt.Errorf("JSON object without a wire marker key")
}

func readID(fields map[string]json.RawMessage) (int64, error) {
	raw, ok := fields["$id"]
	if !ok {
		return 0, nil
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, fmt.Errorf("$id: %w", err)
	}
	return id, nil
}

func readDescriptor(data json.RawMessage) (Descriptor, error) {
	if data == nil {
		return Descriptor{}, fmt.Errorf("missing $type")
	}
	var wire struct {
		Name     string   `json:"name"`
		Strategy string   `json:"strategy"`
		Args     []string `json:"args"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Descriptor{}, err
	}
	return Descriptor{Name: wire.Name, Strategy: Strategy(wire.Strategy), Args: wire.Args}, nil
}
