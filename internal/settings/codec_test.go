package settings

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{12*time.Hour + 30*time.Minute, "12:30:00"},
		{5 * time.Second, "00:00:05"},
		{36 * time.Hour, "36:00:00"},
		{time.Second + 250*time.Millisecond, "00:00:01.25"},
		{-90 * time.Minute, "-01:30:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"12:30", 12*time.Hour + 30*time.Minute, false},
		{"1:05", time.Hour + 5*time.Minute, false},
		{"00:00:05", 5 * time.Second, false},
		{"36:00:00", 36 * time.Hour, false},
		{"00:00:01.25", time.Second + 250*time.Millisecond, false},
		{"-01:30:00", -90 * time.Minute, false},
		{"12:60", 0, true},
		{"abc", 0, true},
		{"12", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSnapshot_MarshalJSON(t *testing.T) {
	snap := Snapshot{
		{Key: "A", Value: String("A")},
		{Key: "B", Value: Integer(1)},
		{Key: "C", Value: Boolean(true)},
		{Key: "D", Value: Duration(12*time.Hour + 30*time.Minute)},
		{Key: "E", Value: Float(1)},
		{Key: "F", Value: Float(1.5)},
	}

	got, err := snap.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	want := `{"A":"A","B":1,"C":true,"D":"12:30:00","E":1.0,"F":1.5}`
	if string(got) != want {
		t.Errorf("MarshalJSON() = %s, want %s", got, want)
	}
}

func TestSnapshot_MarshalJSON_RejectsNaN(t *testing.T) {
	_, err := Snapshot{{Key: "x", Value: Float(math.NaN())}}.MarshalJSON()
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("MarshalJSON(NaN) error = %v, want ErrInvalidValue", err)
	}
}

func TestParseSnapshot_PreservesOrderAndTypes(t *testing.T) {
	snap, err := ParseSnapshot([]byte(`{"z":"text","a":2,"m":2.5,"d":"7:15","b":false,"big":1e3}`))
	if err != nil {
		t.Fatalf("ParseSnapshot() error = %v", err)
	}

	want := Snapshot{
		{Key: "z", Value: String("text")},
		{Key: "a", Value: Integer(2)},
		{Key: "m", Value: Float(2.5)},
		{Key: "d", Value: Duration(7*time.Hour + 15*time.Minute)},
		{Key: "b", Value: Boolean(false)},
		{Key: "big", Value: Float(1000)},
	}
	if len(snap) != len(want) {
		t.Fatalf("ParseSnapshot() len = %d, want %d", len(snap), len(want))
	}
	for i := range want {
		if snap[i].Key != want[i].Key || !snap[i].Value.Equal(want[i].Value) {
			t.Errorf("entry[%d] = %s=%#v, want %s=%#v", i, snap[i].Key, snap[i].Value, want[i].Key, want[i].Value)
		}
	}
}

func TestParseSnapshot_Invalid(t *testing.T) {
	inputs := []string{
		``,
		`[]`,
		`{"a":null}`,
		`{"a":{"nested":1}}`,
		`{"a":[1,2]}`,
		`{"a":1} {"b":2}`,
		`{"a":1`,
	}
	for _, in := range inputs {
		if _, err := ParseSnapshot([]byte(in)); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("ParseSnapshot(%q) error = %v, want ErrInvalidFormat", in, err)
		}
	}
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	in := Snapshot{
		{Key: "caption", Value: String("Kitchen")},
		{Key: "sort", Value: Integer(3)},
		{Key: "enabled", Value: Boolean(true)},
		{Key: "from", Value: Duration(18 * time.Hour)},
		{Key: "ratio", Value: Float(0.25)},
	}
	data, err := in.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	var out Snapshot
	if err := out.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	for i := range in {
		if out[i].Key != in[i].Key || !out[i].Value.Equal(in[i].Value) {
			t.Errorf("entry[%d] = %s=%#v, want %s=%#v", i, out[i].Key, out[i].Value, in[i].Key, in[i].Value)
		}
	}
}

func TestSnapshot_TypedJSONRoundTrip(t *testing.T) {
	in := Snapshot{
		{Key: "Caption", Value: String("12:30")},
		{Key: "Setpoint", Value: Float(20)},
		{Key: "Count", Value: Integer(-4)},
		{Key: "IsEnabled", Value: Boolean(false)},
		{Key: "From", Value: Duration(7*time.Hour + 30*time.Minute + 250*time.Millisecond)},
	}
	data, err := in.MarshalTypedJSON()
	if err != nil {
		t.Fatalf("MarshalTypedJSON() error = %v", err)
	}

	out, err := ParseTypedSnapshot(data)
	if err != nil {
		t.Fatalf("ParseTypedSnapshot() error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Key != in[i].Key || !out[i].Value.Equal(in[i].Value) {
			t.Errorf("entry[%d] = %s=%#v, want %s=%#v", i, out[i].Key, out[i].Value, in[i].Key, in[i].Value)
		}
	}
}

func TestParseTypedSnapshot_Invalid(t *testing.T) {
	inputs := []string{
		`{}`,
		`[{"key":"a","type":"colour","value":"red"}]`,
		`[{"key":"a","type":"integer","value":"1"}]`,
		`[{"key":"a","type":"duration","value":"soon"}]`,
	}
	for _, in := range inputs {
		if _, err := ParseTypedSnapshot([]byte(in)); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("ParseTypedSnapshot(%s) error = %v, want ErrInvalidFormat", in, err)
		}
	}
}

func TestCoerce(t *testing.T) {
	parse := func(t *testing.T, in string) Entry {
		t.Helper()
		snap, err := ParseSnapshot([]byte(in))
		if err != nil || len(snap) != 1 {
			t.Fatalf("ParseSnapshot(%s) = %v, %v", in, snap, err)
		}
		return snap[0]
	}

	tests := []struct {
		name string
		in   string
		want Type
		out  Value
		ok   bool
	}{
		{"duration text as string", `{"k":"12:30"}`, TypeString, String("12:30"), true},
		{"duration stays duration", `{"k":"12:30"}`, TypeDuration, Duration(12*time.Hour + 30*time.Minute), true},
		{"integral number as float", `{"k":20}`, TypeFloat, Float(20), true},
		{"integral float as integer", `{"k":3.0}`, TypeInteger, Integer(3), true},
		{"fractional float as integer", `{"k":3.5}`, TypeInteger, Value{}, false},
		{"number as string", `{"k":5}`, TypeString, Value{}, false},
		{"plain string as duration", `{"k":"soon"}`, TypeDuration, Value{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerce(parse(t, tt.in), tt.want)
			if ok != tt.ok || (ok && !got.Equal(tt.out)) {
				t.Errorf("coerce() = %#v, %v; want %#v, %v", got, ok, tt.out, tt.ok)
			}
		})
	}
}
