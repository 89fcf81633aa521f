package shared

import (
	"strings"
	"testing"
)

func TestStringSlice_Value(t *testing.T) {
	tests := []struct {
		name     string
		slice    StringSlice
		expected string
	}{
		{
			name:     "empty slice",
			slice:    StringSlice{},
			expected: "[]",
		},
		{
			name:     "nil slice",
			slice:    nil,
			expected: "[]",
		},
		{
			name:     "single item",
			slice:    StringSlice{"clear communication"},
			expected: `["clear communication"]`,
		},
		{
			name:     "multiple items",
			slice:    StringSlice{"empathy", "product knowledge"},
			expected: `["empathy","product knowledge"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.slice.Value()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			str, ok := result.([]byte)
			if !ok {
				s, ok := result.(string)
				if !ok {
					t.Fatalf("expected string or []byte, got %T", result)
				}
				str = []byte(s)
			}
			if string(str) != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, string(str))
			}
		})
	}
}

func TestStringSlice_Scan(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected StringSlice
		wantErr  bool
	}{
		{
			name:     "nil value",
			input:    nil,
			expected: nil,
		},
		{
			name:     "byte slice",
			input:    []byte(`["a","b","c"]`),
			expected: StringSlice{"a", "b", "c"},
		},
		{
			name:     "string",
			input:    `["x","y"]`,
			expected: StringSlice{"x", "y"},
		},
		{
			name:    "unsupported type",
			input:   42,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s StringSlice
			err := s.Scan(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Scan() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(s) != len(tt.expected) {
				t.Fatalf("expected %d items, got %d", len(tt.expected), len(s))
			}
			for i := range s {
				if s[i] != tt.expected[i] {
					t.Errorf("item %d: expected %s, got %s", i, tt.expected[i], s[i])
				}
			}
		})
	}
}

func TestStringMap_RoundTrip(t *testing.T) {
	m := StringMap{"overview": "customer called about billing", "outcome": "resolved"}
	v, err := m.Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got StringMap
	if err := got.Scan(v); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if got["overview"] != m["overview"] || got["outcome"] != m["outcome"] {
		t.Errorf("round trip mismatch: %v", got)
	}

	var empty StringMap
	v, err = empty.Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s, ok := v.(string); !ok || s != "{}" {
		t.Errorf("expected empty object, got %v", v)
	}
}

func TestNewID(t *testing.T) {
	id1 := NewID("tr_")
	id2 := NewID("tr_")

	if !strings.HasPrefix(id1, "tr_") {
		t.Errorf("expected tr_ prefix, got %s", id1)
	}
	if len(id1) != len("tr_")+32 {
		t.Errorf("expected 32 hex chars after prefix, got %d", len(id1)-len("tr_"))
	}
	if id1 == id2 {
		t.Error("expected unique ids")
	}
}
