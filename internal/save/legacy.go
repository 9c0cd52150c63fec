package save

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// legacyObject is a loosely typed legacy JSON object. Every accessor fails
// closed: a missing required field, a wrong type or an unexpected key is an
// ErrMigrationFailure, never a silent default.
type legacyObject struct {
	path   string
	fields map[string]any
}

func parseLegacyObject(path string, data []byte) (legacyObject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return legacyObject{}, fmt.Errorf("%w: %s: %w", ErrMigrationFailure, path, err)
	}
	if fields == nil {
		return legacyObject{}, fmt.Errorf("%w: %s: not an object", ErrMigrationFailure, path)
	}
	return legacyObject{path: path, fields: fields}, nil
}

func (o legacyObject) fail(format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMigrationFailure, o.path, fmt.Sprintf(format, args...))
}

// allowOnly rejects keys outside the allowed set.
func (o legacyObject) allowOnly(allowed ...string) error {
	for _, k := range o.sortedKeys() {
		if !slices.Contains(allowed, k) {
			return o.fail("unrecognized field %q", k)
		}
	}
	return nil
}

func (o legacyObject) has(key string) bool {
	v, ok := o.fields[key]
	return ok && v != nil
}

func (o legacyObject) str(key string) (string, error) {
	v, ok := o.fields[key]
	if !ok || v == nil {
		return "", o.fail("missing field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", o.fail("field %q is %T, want string", key, v)
	}
	return s, nil
}

// integer reads a number or a numeric string and checks it against [min, max].
func (o legacyObject) integer(key string, min, max int64) (int64, error) {
	v, ok := o.fields[key]
	if !ok || v == nil {
		return 0, o.fail("missing field %q", key)
	}
	var (
		n   int64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		n, err = t.Int64()
	case string:
		n, err = strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	default:
		return 0, o.fail("field %q is %T, want integer", key, v)
	}
	if err != nil {
		return 0, o.fail("field %q: %v", key, err)
	}
	if n < min || n > max {
		return 0, o.fail("field %q = %d out of range [%d, %d]", key, n, min, max)
	}
	return n, nil
}

func (o legacyObject) int16(key string) (int16, error) {
	n, err := o.integer(key, math.MinInt16, math.MaxInt16)
	return int16(n), err
}

func (o legacyObject) object(key string) (legacyObject, error) {
	v, ok := o.fields[key]
	if !ok || v == nil {
		return legacyObject{}, o.fail("missing field %q", key)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return legacyObject{}, o.fail("field %q is %T, want object", key, v)
	}
	return legacyObject{path: o.path + "." + key, fields: m}, nil
}

// raw re-encodes a field so it can be handed to a strict decoder.
func (o legacyObject) raw(key string) ([]byte, error) {
	data, err := json.Marshal(o.fields[key])
	if err != nil {
		return nil, o.fail("field %q: %v", key, err)
	}
	return data, nil
}

// sortedKeys returns the object's keys in lexical order.
func (o legacyObject) sortedKeys() []string {
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
