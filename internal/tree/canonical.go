package tree

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic bytes for content
// addressing. This is the ONLY serialization that should be used for
// digest computation; it is never used on the decode path, because it
// NFC-normalizes strings and normalization may alter reconstructed
// data.
//
// Differences from MarshalValue:
//  1. Strings are NFC normalized
//  2. Only mandatory JSON escapes are applied (no HTML escaping,
//     no  /  escaping)
//
// Entry order of mappings is preserved as-is: order is semantic in
// this format, so two trees with different entry order are different
// content.
func MarshalCanonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v Value) error {
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
		writeCanonicalString(buf, strconv.FormatFloat(float64(val), 'g', -1, 64))
		buf.WriteByte('}')
		return nil
	case String:
		writeCanonicalString(buf, string(val))
		return nil
	case Bytes:
		buf.WriteString(`{"$bytes":`)
		writeCanonicalString(buf, base64.StdEncoding.EncodeToString(val))
		buf.WriteByte('}')
		return nil
	case Sequence:
		if val.ID != 0 {
			fmt.Fprintf(buf, `{"$id":%d,"$seq":`, val.ID)
		}
		buf.WriteByte('[')
		for i, item := range val.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		buf.WriteByte(']')
		if val.ID != 0 {
			buf.WriteByte('}')
		}
		return nil
	case Mapping:
		if val.ID == 0 {
			buf.WriteString(`{"$map":`)
		} else {
			fmt.Fprintf(buf, `{"$id":%d,"$map":`, val.ID)
		}
		if err := writeCanonicalEntries(buf, val.Entries); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	case ObjectRef:
		fmt.Fprintf(buf, `{"$ref":%d}`, int64(val))
		return nil
	case ObjectRecord:
		fmt.Fprintf(buf, `{"$object":%d,"$type":{"name":`, val.ID)
		writeCanonicalString(buf, val.Type.Name)
		buf.WriteString(`,"strategy":`)
		writeCanonicalString(buf, string(val.Type.Strategy))
		if len(val.Type.Args) > 0 {
			buf.WriteString(`,"args":[`)
			for i, a := range val.Type.Args {
				if i > 0 {
					buf.WriteByte(',')
				}
				writeCanonicalString(buf, a)
			}
			buf.WriteByte(']')
		}
		buf.WriteString(`},"$state":`)
		if err := writeCanonicalEntries(buf, val.State.Entries); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	case CallableRecord:
		fmt.Fprintf(buf, `{"$callable":%d,"$name":`, val.ID)
		writeCanonicalString(buf, val.Name)
		if val.Bound != nil {
			buf.WriteString(`,"$bound":`)
			if err := writeCanonicalEntries(buf, val.Bound.Entries); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case TypeRef:
		buf.WriteString(`{"$class":`)
		writeCanonicalString(buf, string(val))
		buf.WriteByte('}')
		return nil
	case nil:
		return fmt.Errorf("cannot canonicalize nil Value")
	default:
		return fmt.Errorf("unknown Value type: %T", v)
	}
}

func writeCanonicalEntries(buf *bytes.Buffer, entries []Entry) error {
	buf.WriteByte('[')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('[')
		if err := writeCanonical(buf, e.Key); err != nil {
			return fmt.Errorf("entry %d key: %w", i, err)
		}
		buf.WriteByte(',')
		if err := writeCanonical(buf, e.Val); err != nil {
			return fmt.Errorf("entry %d value: %w", i, err)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte(']')
	return nil
}

const hexDigits = "0123456789abcdef"

// writeCanonicalString writes an NFC-normalized JSON string with only
// the escapes JSON requires: quote, backslash, and control characters.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	normalized := norm.NFC.String(s)

	buf.WriteByte('"')
	for _, b := range []byte(normalized) {
		switch {
		case b == '"':
			buf.WriteString(`\"`)
		case b == '\\':
			buf.WriteString(`\\`)
		case b == '\n':
			buf.WriteString(`\n`)
		case b == '\r':
			buf.WriteString(`\r`)
		case b == '\t':
			buf.WriteString(`\t`)
		case b < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[b>>4])
			buf.WriteByte(hexDigits[b&0xf])
		default:
			buf.WriteByte(b)
		}
	}
	buf.WriteByte('"')
}
