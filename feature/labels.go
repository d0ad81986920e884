package feature

import "fmt"

// LabelEncoder maps class names to dense integer labels and back.
// Classes are assigned in first-seen order during Fit.
type LabelEncoder struct {
	Classes []string `json:"classes"`

	index map[string]int
}

// Fit assigns an integer label to every distinct value in labels and returns
// the encoded slice.
func (e *LabelEncoder) Fit(labels []string) []int {
	e.Classes = nil
	e.index = make(map[string]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		idx, ok := e.index[l]
		if !ok {
			idx = len(e.Classes)
			e.index[l] = idx
			e.Classes = append(e.Classes, l)
		}
		out[i] = idx
	}
	return out
}

// Encode returns the integer label for a class name.
func (e *LabelEncoder) Encode(label string) (int, error) {
	e.ensureIndex()
	idx, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("unknown label %q", label)
	}
	return idx, nil
}

// Decode returns the class name for an integer label.
func (e *LabelEncoder) Decode(idx int) (string, error) {
	if idx < 0 || idx >= len(e.Classes) {
		return "", fmt.Errorf("label index %d out of range [0, %d)", idx, len(e.Classes))
	}
	return e.Classes[idx], nil
}

// NumClasses returns the number of distinct classes seen during Fit.
func (e *LabelEncoder) NumClasses() int { return len(e.Classes) }

// ensureIndex rebuilds the name index after a JSON round trip, which only
// restores the exported Classes slice.
func (e *LabelEncoder) ensureIndex() {
	if e.index != nil {
		return
	}
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
}
