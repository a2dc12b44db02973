package history

import (
	"encoding/json"
	"testing"
)

func TestRegistry_LookupAllCategories(t *testing.T) {
	for _, c := range Categories() {
		got, ok := LookupCategory(c.Key)
		if !ok {
			t.Fatalf("category %q does not resolve", c.Key)
		}
		if len(got.Fields) == 0 {
			t.Errorf("category %q declares no fields", c.Key)
		}
	}
	if _, ok := LookupCategory("nope"); ok {
		t.Error("unknown category must not resolve")
	}
}

func TestRegistry_DefaultsMatchShape(t *testing.T) {
	for _, c := range Categories() {
		for _, f := range c.Fields {
			d := f.Default()
			switch f.Shape {
			case ShapeScalar:
				if _, ok := d.(string); !ok {
					t.Errorf("%s.%s: scalar default is %T", c.Key, f.Name, d)
				}
			case ShapeEntryList, ShapeNestedObjectList:
				if _, ok := d.([]any); !ok {
					t.Errorf("%s.%s: list default is %T", c.Key, f.Name, d)
				}
			case ShapeNestedObject:
				if _, ok := d.(map[string]any); !ok {
					t.Errorf("%s.%s: object default is %T", c.Key, f.Name, d)
				}
			}
		}
	}
}

// Defaults are defined to equal "no data": a default saved value never
// constrains any request, and resubmitting the default over itself passes.
func TestRegistry_DefaultsNeverFailComparator(t *testing.T) {
	for _, c := range Categories() {
		for _, f := range c.Fields {
			if path, bad := FieldModifies(f, f.Default(), f.Default()); bad {
				t.Errorf("%s.%s: default vs default flagged destructive at %q", c.Key, f.Name, path)
			}
			if path, bad := FieldModifies(f, f.Default(), nil); bad {
				t.Errorf("%s.%s: default saved value constrained a nil request at %q", c.Key, f.Name, path)
			}
		}
	}
}

// Defaults must survive a JSON round trip unchanged, since records are
// persisted as JSONB and compared against decoded payloads later.
func TestRegistry_DefaultsJSONStable(t *testing.T) {
	for _, c := range Categories() {
		fields := BuildFields(c, nil)
		raw, err := json.Marshal(fields)
		if err != nil {
			t.Fatalf("%s: marshal defaults: %v", c.Key, err)
		}
		var decoded map[string]Field
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("%s: unmarshal defaults: %v", c.Key, err)
		}
		if _, bad := RecordModifies(c, decoded, fields); bad {
			t.Errorf("%s: decoded defaults differ from constructed defaults", c.Key)
		}
	}
}

func TestShapeString(t *testing.T) {
	cases := map[Shape]string{
		ShapeScalar:           "scalar",
		ShapeEntryList:        "entryList",
		ShapeNestedObject:     "nestedObject",
		ShapeNestedObjectList: "nestedObjectList",
		Shape(42):             "unknown",
	}
	for shape, want := range cases {
		if got := shape.String(); got != want {
			t.Errorf("Shape(%d).String() = %q, want %q", shape, got, want)
		}
	}
}
