package history

// BuildFields produces the full field set to persist for a category: the
// requested payload where one was supplied, the category default otherwise.
// Defaulting applies at field granularity only; a partially filled nested
// object is taken as-is. The version tag always comes from the registry.
func BuildFields(spec CategorySpec, requested map[string]Field) map[string]Field {
	out := make(map[string]Field, len(spec.Fields))
	for _, fs := range spec.Fields {
		if rf, ok := requested[fs.Name]; ok && rf.Data != nil {
			out[fs.Name] = Field{Version: fs.Version, Data: rf.Data}
			continue
		}
		out[fs.Name] = fs.DefaultField()
	}
	return out
}
