// Package record defines the open-ended record shape shared by every stage of
// the pipeline, together with its canonical serialization and fingerprints.
package record

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrUnserializable is returned when a record cannot be turned into its
// canonical text form (cycles, funcs, channels, NaN, invalid UTF-8).
var ErrUnserializable = errors.New("unserializable record")

// Record is one collected item. Values are JSON-like.
type Record map[string]any

// fieldSeparator joins field values in FieldFingerprint.
const fieldSeparator = "\x00"

// Canonical returns the compact JSON form of r with keys sorted at every
// level. A nil or empty record serializes as "{}".
func Canonical(r Record) ([]byte, error) {
	if len(r) == 0 {
		return []byte("{}"), nil
	}
	return encode(map[string]any(r))
}

// CanonicalString is Canonical as a string.
func CanonicalString(r Record) (string, error) {
	b, err := Canonical(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encode(v any) ([]byte, error) {
	if err := checkUTF8(reflect.ValueOf(v), 0); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnserializable, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// maxDepth bounds checkUTF8. Anything nested deeper is treated as a cycle.
const maxDepth = 1000

// checkUTF8 rejects strings and map keys that are not valid UTF-8; the JSON
// encoder would otherwise rewrite them to U+FFFD.
func checkUTF8(v reflect.Value, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", ErrUnserializable, maxDepth)
	}
	switch v.Kind() {
	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return fmt.Errorf("%w: invalid UTF-8 in %q", ErrUnserializable, v.String())
		}
	case reflect.Interface, reflect.Pointer:
		if !v.IsNil() {
			return checkUTF8(v.Elem(), depth+1)
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := checkUTF8(iter.Key(), depth+1); err != nil {
				return err
			}
			if err := checkUTF8(iter.Value(), depth+1); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		// Byte slices encode as base64.
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := checkUTF8(v.Index(i), depth+1); err != nil {
				return err
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("json") == "-" {
				continue
			}
			if err := checkUTF8(v.Field(i), depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// Fingerprint is the hex MD5 of the canonical form. It does not depend on
// key order.
func Fingerprint(r Record) (string, error) {
	b, err := Canonical(r)
	if err != nil {
		return "", err
	}
	return digest(b), nil
}

// FieldFingerprint hashes only the named fields, in the given order. Missing
// or empty fields contribute an empty string.
func FieldFingerprint(r Record, fields []string) (string, error) {
	parts := make([]string, len(fields))
	for i, f := range fields {
		s, err := stringValue(r[f])
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return digest([]byte(strings.Join(parts, fieldSeparator))), nil
}

// StringValue is the string form of a field value used for field hashing and
// fallback keys. Falsy scalars (nil, "", false, 0) map to "".
func StringValue(v any) string {
	s, _ := stringValue(v)
	return s
}

func stringValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		if !t {
			return "", nil
		}
		return "true", nil
	case float64:
		if t == 0 {
			return "", nil
		}
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		if t == 0 {
			return "", nil
		}
		return strconv.Itoa(t), nil
	case int64:
		if t == 0 {
			return "", nil
		}
		return strconv.FormatInt(t, 10), nil
	case json.Number:
		return t.String(), nil
	default:
		b, err := encode(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// Display renders a single value for tabular output: strings as is, nil as
// "", everything else as canonical JSON.
func Display(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	default:
		b, err := encode(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func digest(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy of the JSON container structure of r. Scalars are
// shared.
func Clone(r Record) Record {
	if r == nil {
		return nil
	}
	return Record(cloneMap(r))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return Clone(t)
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	default:
		return v
	}
}

// Decode parses a JSON array of objects into records.
func Decode(data []byte) ([]Record, error) {
	var out []Record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return out, nil
}
