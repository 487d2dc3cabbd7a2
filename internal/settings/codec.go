package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Entry is one key/value pair of a snapshot.
type Entry struct {
	Key   string
	Value Value

	// text is the JSON string a parsed value came from, so that a duration
	// inferred from "12:30" can still be read back as that string.
	text string
}

// Snapshot is an ordered, flat list of settings. It is the unit of
// import, export and persistence.
type Snapshot []Entry

// durationPattern matches "H:MM", "HH:MM:SS" and "HH:MM:SS.fffffffff".
var durationPattern = regexp.MustCompile(`^(-)?(\d+):([0-5]\d)(?::([0-5]\d)(?:\.(\d{1,9}))?)?$`)

// FormatDuration renders d as HH:MM:SS, appending fractional seconds only
// when present. Hours are not wrapped at 24.
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	frac := d - s*time.Second

	out := fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
	if frac > 0 {
		out += "." + strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
	}
	return out
}

// ParseDuration parses the textual duration forms accepted by the settings
// wire format: "H:MM" (hours and minutes) or "HH:MM:SS[.fraction]".
func ParseDuration(text string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, fmt.Errorf("%w: %q is not a duration", ErrInvalidFormat, text)
	}

	hours, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || hours > int64(math.MaxInt64/time.Hour) {
		return 0, fmt.Errorf("%w: hours out of range in %q", ErrInvalidFormat, text)
	}
	minutes, _ := strconv.ParseInt(m[3], 10, 64)
	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute

	if m[4] != "" {
		seconds, _ := strconv.ParseInt(m[4], 10, 64)
		d += time.Duration(seconds) * time.Second
	}
	if m[5] != "" {
		frac := m[5] + strings.Repeat("0", 9-len(m[5]))
		ns, _ := strconv.ParseInt(frac, 10, 64)
		d += time.Duration(ns)
	}
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}

// formatFloat renders f so that it always reads back as a float: integral
// values keep a ".0" suffix.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") { // "n" and "N" cover Inf and NaN
		s += ".0"
	}
	return s
}

// MarshalJSON encodes the snapshot as a flat JSON object in snapshot order.
func (snap Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range snap {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		val, err := encodeValue(e)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeValue(e Entry) ([]byte, error) {
	switch e.Value.typ {
	case TypeString:
		return json.Marshal(e.Value.s)
	case TypeDuration:
		return []byte(strconv.Quote(FormatDuration(e.Value.d))), nil
	case TypeFloat:
		if math.IsNaN(e.Value.f) || math.IsInf(e.Value.f, 0) {
			return nil, fmt.Errorf("%w: %q is not a finite float", ErrInvalidValue, e.Key)
		}
		return []byte(formatFloat(e.Value.f)), nil
	case TypeInteger, TypeBoolean:
		return []byte(e.Value.Text()), nil
	default:
		return nil, fmt.Errorf("%w: key %q", ErrInvalidValue, e.Key)
	}
}

// UnmarshalJSON decodes a flat JSON object, preserving key order.
func (snap *Snapshot) UnmarshalJSON(data []byte) error {
	parsed, err := ParseSnapshot(data)
	if err != nil {
		return err
	}
	*snap = parsed
	return nil
}

// ParseSnapshot decodes a flat JSON object into a snapshot, preserving the
// source key order.
//
// Type inference: strings in duration form become durations, integral
// numbers become integers, other numbers become floats. Store.Conform maps
// the inferred types back onto a store's declared ones. Null values and
// nested objects or arrays are rejected.
func ParseSnapshot(data []byte) (Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrInvalidFormat)
	}

	var snap Snapshot
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}
		key, _ := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}
		v, err := decodeValue(valTok)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		text, _ := valTok.(string)
		snap = append(snap, Entry{Key: key, Value: v, text: text})
	}

	// Closing brace, then nothing else.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidFormat)
	}
	return snap, nil
}

func decodeValue(tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case string:
		if durationPattern.MatchString(t) {
			d, err := ParseDuration(t)
			if err != nil {
				return Value{}, err
			}
			return Duration(d), nil
		}
		return String(t), nil
	case bool:
		return Boolean(t), nil
	case json.Number:
		if !strings.ContainsAny(string(t), ".eE") {
			if i, err := t.Int64(); err == nil {
				return Integer(i), nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}
		return Float(f), nil
	case json.Delim:
		return Value{}, fmt.Errorf("%w: nested values are not supported", ErrInvalidFormat)
	default:
		return Value{}, fmt.Errorf("%w: unsupported value %v", ErrInvalidFormat, tok)
	}
}

// typedEntry is one element of the typed encoding.
type typedEntry struct {
	Key   string          `json:"key"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalTypedJSON encodes the snapshot as a JSON array of
// {"key","type","value"} objects. Unlike the flat form it round-trips
// every value exactly, whatever its text looks like.
func (snap Snapshot) MarshalTypedJSON() ([]byte, error) {
	out := make([]typedEntry, 0, len(snap))
	for _, e := range snap {
		val, err := encodeValue(e)
		if err != nil {
			return nil, err
		}
		out = append(out, typedEntry{Key: e.Key, Type: e.Value.typ.String(), Value: val})
	}
	return json.Marshal(out)
}

// ParseTypedSnapshot decodes the output of MarshalTypedJSON.
func ParseTypedSnapshot(data []byte) (Snapshot, error) {
	var in []typedEntry
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	snap := make(Snapshot, 0, len(in))
	for _, te := range in {
		v, err := decodeTyped(te.Type, te.Value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", te.Key, err)
		}
		snap = append(snap, Entry{Key: te.Key, Value: v})
	}
	return snap, nil
}

func decodeTyped(typ string, raw json.RawMessage) (Value, error) {
	var (
		v   Value
		err error
	)
	switch typ {
	case "string":
		var s string
		err = json.Unmarshal(raw, &s)
		v = String(s)
	case "integer":
		var i int64
		err = json.Unmarshal(raw, &i)
		v = Integer(i)
	case "boolean":
		var b bool
		err = json.Unmarshal(raw, &b)
		v = Boolean(b)
	case "float":
		var f float64
		err = json.Unmarshal(raw, &f)
		v = Float(f)
	case "duration":
		var s string
		if err = json.Unmarshal(raw, &s); err == nil {
			var d time.Duration
			d, err = ParseDuration(s)
			v = Duration(d)
		}
	default:
		return Value{}, fmt.Errorf("%w: unknown type %q", ErrInvalidFormat, typ)
	}
	if err != nil {
		return Value{}, fmt.Errorf("%w: %s value: %w", ErrInvalidFormat, typ, err)
	}
	return v, nil
}

// coerce converts a parsed entry to want where the flat form is ambiguous:
// duration-shaped text back to a string, integral numbers to floats and
// integral floats to integers. It reports false when no lossless
// conversion exists.
func coerce(e Entry, want Type) (Value, bool) {
	v := e.Value
	if v.typ == want {
		return v, true
	}
	switch {
	case want == TypeString && v.typ == TypeDuration && e.text != "":
		return String(e.text), true
	case want == TypeFloat && v.typ == TypeInteger:
		return Float(float64(v.i)), true
	case want == TypeInteger && v.typ == TypeFloat &&
		v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<63:
		return Integer(int64(v.f)), true
	}
	return Value{}, false
}
