package history

// The comparator decides whether a requested field payload is a
// non-destructive successor of the persisted one: every value a clinician has
// already recorded must survive the update, only additions are allowed.

// RecordModifies checks every field the persisted record contains against the
// proposed field set. A field the requester omitted is evaluated against the
// category default, because that is what the merge builder will persist in
// its place. Returns the first offending field path.
func RecordModifies(spec CategorySpec, saved, requested map[string]Field) (string, bool) {
	for _, fs := range spec.Fields {
		sf, ok := saved[fs.Name]
		if !ok {
			continue
		}
		rdata := fs.Default()
		if rf, ok := requested[fs.Name]; ok && rf.Data != nil {
			rdata = rf.Data
		}
		if path, bad := FieldModifies(fs, sf.Data, rdata); bad {
			return path, true
		}
	}
	return "", false
}

// FieldModifies reports whether requested destroys or alters data persisted
// in saved for one field, dispatching on the declared shape. The returned
// path names the offending field or sub-attribute.
func FieldModifies(spec FieldSpec, saved, requested any) (string, bool) {
	switch spec.Shape {
	case ShapeScalar:
		if scalarModified(saved, requested) {
			return spec.Name, true
		}
	case ShapeEntryList, ShapeNestedObjectList:
		if listModified(saved, requested) {
			return spec.Name, true
		}
	case ShapeNestedObject:
		if sub, bad := objectModified(spec.Sub, saved, requested); bad {
			return spec.Name + "." + sub, true
		}
	}
	return "", false
}

// scalarUnset reports whether a stored scalar counts as "no data". An unset
// scalar imposes no constraint on the requested value.
func scalarUnset(v any) bool {
	return v == nil || v == ""
}

func scalarModified(saved, requested any) bool {
	if scalarUnset(saved) {
		return false
	}
	return !valueEqual(saved, requested)
}

// listModified applies the entry-list rule: every persisted entry must find a
// matching requested entry. Candidates are consumed greedily in scan order;
// the first unconsumed match wins. No attempt is made at a maximum matching,
// so duplicate entries can reject a technically additive update.
func listModified(saved, requested any) bool {
	sl := asList(saved)
	rl := asList(requested)
	consumed := make([]bool, len(rl))
	for _, s := range sl {
		found := false
		for i, r := range rl {
			if consumed[i] || !entryMatches(s, r) {
				continue
			}
			consumed[i] = true
			found = true
			break
		}
		if !found {
			return true
		}
	}
	return false
}

// objectModified recurses over the sub-attributes the persisted object
// contains. Shapes come from the declaration; undeclared sub-attributes are
// classified by their JSON kind. A sub-attribute absent from the persisted
// object imposes no constraint.
func objectModified(sub map[string]Shape, saved, requested any) (string, bool) {
	sm, ok := saved.(map[string]any)
	if !ok {
		if scalarModified(saved, requested) {
			return "", true
		}
		return "", false
	}
	rm, _ := requested.(map[string]any)
	for name, sv := range sm {
		shape, declared := sub[name]
		if !declared {
			shape = inferShape(sv)
		}
		rv := rm[name]
		switch shape {
		case ShapeScalar:
			if scalarModified(sv, rv) {
				return name, true
			}
		case ShapeEntryList, ShapeNestedObjectList:
			if listModified(sv, rv) {
				return name, true
			}
		case ShapeNestedObject:
			if deeper, bad := objectModified(nil, sv, rv); bad {
				if deeper != "" {
					return name + "." + deeper, true
				}
				return name, true
			}
		}
	}
	return "", false
}

func inferShape(v any) Shape {
	switch v.(type) {
	case map[string]any:
		return ShapeNestedObject
	case []any:
		return ShapeEntryList
	default:
		return ShapeScalar
	}
}

// entryMatches reports whether candidate r satisfies persisted entry s: every
// named attribute of s must be present in r with an equal value. Attributes
// present only in r are ignored. Non-object entries fall back to value
// equality.
func entryMatches(s, r any) bool {
	sm, sok := s.(map[string]any)
	rm, rok := r.(map[string]any)
	if !sok || !rok {
		return valueEqual(s, r)
	}
	for k, sv := range sm {
		rv, ok := rm[k]
		if !ok || !valueEqual(sv, rv) {
			return false
		}
	}
	return true
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

// valueEqual is deep equality over decoded JSON values. Both sides are
// expected in the canonical encoding/json representation (see
// NormalizeFields), so numbers compare as float64.
func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !valueEqual(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
