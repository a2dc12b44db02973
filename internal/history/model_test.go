package history

import (
	"testing"
)

func TestNormalizeFields_CanonicalKinds(t *testing.T) {
	fields := map[string]Field{
		"surgeries": {Version: 1, Data: []map[string]int{{"year": 2019}}},
	}
	out, err := NormalizeFields(fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l, ok := out["surgeries"].Data.([]any)
	if !ok || len(l) != 1 {
		t.Fatalf("expected []any of 1, got %T", out["surgeries"].Data)
	}
	e, ok := l[0].(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any entry, got %T", l[0])
	}
	if v, ok := e["year"].(float64); !ok || v != 2019 {
		t.Errorf("numbers must normalize to float64, got %T %v", e["year"], e["year"])
	}
}

func TestNormalizeFields_Nil(t *testing.T) {
	out, err := NormalizeFields(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Errorf("nil input must normalize to an empty set, got %v", out)
	}
}

func TestNormalizeFields_Undecodable(t *testing.T) {
	fields := map[string]Field{
		"bad": {Data: make(chan int)},
	}
	if _, err := NormalizeFields(fields); err == nil {
		t.Error("expected error for unencodable payload")
	}
}
