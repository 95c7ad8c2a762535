package gokata

// Descriptor is the structural description of a schema, used for
// introspection and tooling rather than validation.
type Descriptor struct {
	Type     string           `json:"type"`
	Nullable bool             `json:"nullable,omitempty"`
	Optional bool             `json:"optional,omitempty"`
	Tests    []TestDescriptor `json:"tests,omitempty"`
	// Inner is the recursively produced descriptor of the bound element
	// schema, when one exists.
	Inner *Descriptor `json:"innerType,omitempty"`
}

// TestDescriptor names one registered test and its parameters.
type TestDescriptor struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// describeParams renders test parameters for a descriptor; deferred
// references surface as "$key" markers.
func describeParams(params map[string]any) map[string]any {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		if r, ok := v.(*Ref); ok {
			out[k] = "$" + r.Key()
			continue
		}
		out[k] = v
	}
	return out
}
