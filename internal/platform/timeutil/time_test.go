package timeutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
)

func TestMarshalJSONMillisUTC(t *testing.T) {
	ts := NewTime(time.Date(2024, 1, 15, 12, 30, 0, 123456789, time.FixedZone("X", 2*60*60)))
	got, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(got) != `"2024-01-15T10:30:00.123Z"` {
		t.Fatalf("unexpected JSON %s", got)
	}
}

func TestUnmarshalJSON(t *testing.T) {
	var ts Time
	if err := json.Unmarshal([]byte(`"2024-01-15T10:30:00Z"`), &ts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !ts.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", ts.Time)
	}

	keep := ts
	if err := json.Unmarshal([]byte(`null`), &ts); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !ts.Equal(keep.Time) {
		t.Fatal("null should preserve the existing value")
	}

	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCBORKeepsNanoseconds(t *testing.T) {
	in := NewTime(time.Date(2024, 3, 20, 8, 15, 30, 999999999, time.UTC))
	data, err := cbor.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Time
	if err := cbor.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Equal(in.Time) {
		t.Fatalf("expected %v, got %v", in.Time, out.Time)
	}
}

func TestNowIsUTC(t *testing.T) {
	if Now().Location() != time.UTC {
		t.Fatal("expected UTC location")
	}
}
