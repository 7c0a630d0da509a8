package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// MarshalCanonical produces deterministic JSON for structural comparison:
// object keys are emitted in sorted order at every depth, so two values that
// differ only in field order serialize identically.
//
// Unlike hashing-grade canonical JSON this accepts the full JSON value set
// (null, floats) because workflow files are arbitrary JSON authored by the
// remote service's editor.
func MarshalCanonical(v any) ([]byte, error) {
	norm, err := normalize(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, norm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CanonicalEqual reports whether two values are structurally equal under
// canonical serialization.
func CanonicalEqual(a, b any) bool {
	ab, aerr := MarshalCanonical(a)
	bb, berr := MarshalCanonical(b)
	if aerr != nil || berr != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// normalize round-trips v through encoding/json so that structs, typed maps
// and slices all collapse to the generic JSON value types. Numbers are kept
// as json.Number to avoid float formatting drift.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return out, nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case string:
		enc, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(enc)
	case json.Number:
		buf.WriteString(val.String())
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			enc, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(enc)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("canonicalize: unsupported type %T", v)
	}
	return nil
}

// CloneRecord returns a deep copy of the record via a JSON round-trip.
// Derived fields (Dependencies, SourcePath) are carried over as-is.
func CloneRecord(r *Record) (*Record, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("clone record: %w", err)
	}
	var out Record
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clone record: %w", err)
	}
	out.Dependencies = append([]string(nil), r.Dependencies...)
	out.SourcePath = r.SourcePath
	return &out, nil
}

// CloneValue deep-copies an arbitrary JSON-shaped value.
func CloneValue(v any) (any, error) {
	return normalize(v)
}
