package history

// Shape classifies the payload of a field or sub-attribute. The comparator
// dispatches on it rather than inspecting what a value looks like.
type Shape int

const (
	// ShapeScalar is a single value (string, number, bool).
	ShapeScalar Shape = iota
	// ShapeEntryList is an ordered list of fixed-attribute entries.
	ShapeEntryList
	// ShapeNestedObject is a dictionary of named sub-attributes, each a
	// scalar, an entry, a list of entries, or a wrapped list.
	ShapeNestedObject
	// ShapeNestedObjectList is a list of objects wrapped in a single field,
	// compared under the entry-list rule.
	ShapeNestedObjectList
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeEntryList:
		return "entryList"
	case ShapeNestedObject:
		return "nestedObject"
	case ShapeNestedObjectList:
		return "nestedObjectList"
	}
	return "unknown"
}

// FieldSpec describes one slot of a category: its shape, schema version tag
// and default payload. Sub declares the shapes of a nested object's named
// sub-attributes; sub-attributes found in stored data but not declared here
// are compared by their JSON kind.
type FieldSpec struct {
	Name    string
	Shape   Shape
	Version int
	Sub     map[string]Shape
	Default func() any
}

// DefaultField builds the field persisted when a requester omits this slot.
// Defaults are defined to equal "no data" and never fail the comparator.
func (f FieldSpec) DefaultField() Field {
	return Field{Version: f.Version, Data: f.Default()}
}

// CategorySpec is the static description of one clinical history category.
type CategorySpec struct {
	Key    string
	Fields []FieldSpec
}

// Field returns the spec for the named slot.
func (c CategorySpec) Field(name string) (FieldSpec, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func emptyText() any { return "" }
func emptyList() any { return []any{} }

// categories is the full registry. Handlers register one route set per entry,
// so a category missing here cannot be reached.
var categories = []CategorySpec{
	{
		Key: "allergic",
		Fields: []FieldSpec{
			{Name: "medication", Shape: ShapeEntryList, Version: 1, Default: emptyList},
			{Name: "food", Shape: ShapeEntryList, Version: 1, Default: emptyList},
			{Name: "environmental", Shape: ShapeEntryList, Version: 1, Default: emptyList},
		},
	},
	{
		Key: "family",
		Fields: []FieldSpec{
			{Name: "diseases", Shape: ShapeEntryList, Version: 1, Default: emptyList},
		},
	},
	{
		Key: "personal",
		Fields: []FieldSpec{
			{Name: "bloodType", Shape: ShapeScalar, Version: 1, Default: emptyText},
			{
				Name:    "diagnosedIllnesses",
				Shape:   ShapeNestedObject,
				Version: 2,
				Sub: map[string]Shape{
					"diabetes":       ShapeNestedObject,
					"hypertension":   ShapeNestedObject,
					"asthma":         ShapeNestedObject,
					"otherCondition": ShapeNestedObjectList,
				},
				Default: func() any {
					return map[string]any{
						"diabetes":       map[string]any{},
						"hypertension":   map[string]any{},
						"asthma":         map[string]any{},
						"otherCondition": []any{},
					}
				},
			},
			{Name: "surgeries", Shape: ShapeEntryList, Version: 1, Default: emptyList},
		},
	},
	{
		Key: "nonPathological",
		Fields: []FieldSpec{
			{Name: "habits", Shape: ShapeEntryList, Version: 1, Default: emptyList},
			{Name: "vaccinations", Shape: ShapeEntryList, Version: 1, Default: emptyList},
		},
	},
	{
		Key: "gynecoObstetric",
		Fields: []FieldSpec{
			{Name: "menarcheAge", Shape: ShapeScalar, Version: 1, Default: emptyText},
			{
				Name:    "pregnancies",
				Shape:   ShapeNestedObject,
				Version: 1,
				Sub: map[string]Shape{
					"gravida":    ShapeScalar,
					"para":       ShapeScalar,
					"abortions":  ShapeScalar,
					"deliveries": ShapeNestedObjectList,
				},
				Default: func() any {
					return map[string]any{
						"gravida":    "",
						"para":       "",
						"abortions":  "",
						"deliveries": []any{},
					}
				},
			},
			{Name: "contraception", Shape: ShapeEntryList, Version: 1, Default: emptyList},
		},
	},
}

// Categories returns the registry in declaration order.
func Categories() []CategorySpec {
	return categories
}

// LookupCategory resolves a category key against the registry.
func LookupCategory(key string) (CategorySpec, bool) {
	for _, c := range categories {
		if c.Key == key {
			return c, true
		}
	}
	return CategorySpec{}, false
}
