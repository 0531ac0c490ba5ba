package model

import (
	"encoding/json"
	"testing"
)

func TestJSONDoc_IsObject(t *testing.T) {
	tests := []struct {
		name string
		doc  JSONDoc
		want bool
	}{
		{"object", JSONDoc(`{"a": 1}`), true},
		{"empty object", JSONDoc(`{}`), true},
		{"array", JSONDoc(`[1,2]`), false},
		{"string", JSONDoc(`"hi"`), false},
		{"number", JSONDoc(`42`), false},
		{"empty", JSONDoc(``), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.IsObject(); got != tt.want {
				t.Errorf("IsObject() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJSONDoc_MarshalRoundTrip(t *testing.T) {
	type wrapper struct {
		Doc JSONDoc `json:"doc"`
	}

	in := wrapper{Doc: JSONDoc(`{"nested":{"k":"v"}}`)}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out wrapper
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(out.Doc) != `{"nested":{"k":"v"}}` {
		t.Errorf("round trip = %s", out.Doc)
	}

	// An empty doc marshals as JSON null rather than invalid output.
	data, err = json.Marshal(wrapper{})
	if err != nil {
		t.Fatalf("Marshal empty: %v", err)
	}
	if string(data) != `{"doc":null}` {
		t.Errorf("empty doc = %s, want {\"doc\":null}", data)
	}
}

func TestJSONDoc_ScanValue(t *testing.T) {
	var d JSONDoc
	if err := d.Scan([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("Scan bytes: %v", err)
	}
	if string(d) != `{"a":1}` {
		t.Errorf("scanned = %s", d)
	}

	if err := d.Scan(`{"b":2}`); err != nil {
		t.Fatalf("Scan string: %v", err)
	}
	if string(d) != `{"b":2}` {
		t.Errorf("scanned = %s", d)
	}

	if err := d.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if d != nil {
		t.Errorf("scan of NULL should clear the doc, got %s", d)
	}

	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}

	v, err := JSONDoc(nil).Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != nil {
		t.Errorf("Value() of empty doc = %v, want nil", v)
	}
}

func TestSchemaRef_String(t *testing.T) {
	v := "1.2.0"
	if got := (SchemaRef{Name: "events"}).String(); got != "events:latest" {
		t.Errorf("String() = %q", got)
	}
	if got := (SchemaRef{Name: "events", Version: &v}).String(); got != "events:1.2.0" {
		t.Errorf("String() = %q", got)
	}
}

func TestLogFilters(t *testing.T) {
	var f LogFilters
	if f.HasContainment() || f.HasDateRange() {
		t.Error("zero filters should report nothing to apply")
	}

	f.Filters = JSONDoc(`{"level":"error"}`)
	if !f.HasContainment() {
		t.Error("object filter should count as containment")
	}

	f.Filters = JSONDoc(`[1,2]`)
	if f.HasContainment() {
		t.Error("non-object filter document is ignored")
	}
}
