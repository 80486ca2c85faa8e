package domain

import (
	"bytes"
	"encoding/json"
)

// Answer is a respondent's selection for one question: a single string for
// single-choice and true-false questions, a set of strings for multiple-choice.
// The zero value means "no answer".
type Answer struct {
	value  string
	values []string
	multi  bool
	set    bool
}

// Single builds a scalar answer.
func Single(value string) Answer {
	return Answer{value: value, set: true}
}

// Multi builds a set answer. Duplicates are collapsed, order is kept.
func Multi(values ...string) Answer {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return Answer{values: out, multi: true, set: true}
}

// IsZero reports whether no answer was given.
func (a Answer) IsZero() bool { return !a.set }

// IsMulti reports whether the answer is set-shaped.
func (a Answer) IsMulti() bool { return a.set && a.multi }

// Value returns the scalar form. ok is false for set-shaped or empty answers.
func (a Answer) Value() (string, bool) {
	if !a.set || a.multi {
		return "", false
	}
	return a.value, true
}

// Values returns the set form. ok is false for scalar or empty answers.
func (a Answer) Values() ([]string, bool) {
	if !a.set || !a.multi {
		return nil, false
	}
	out := make([]string, len(a.values))
	copy(out, a.values)
	return out, true
}

// Equal compares shape and content; set answers compare as sets.
func (a Answer) Equal(b Answer) bool {
	if a.set != b.set || a.multi != b.multi {
		return false
	}
	if !a.multi {
		return a.value == b.value
	}
	if len(a.values) != len(b.values) {
		return false
	}
	want := make(map[string]struct{}, len(a.values))
	for _, v := range a.values {
		want[v] = struct{}{}
	}
	for _, v := range b.values {
		if _, ok := want[v]; !ok {
			return false
		}
	}
	return true
}

func (a Answer) clone() Answer {
	if a.values != nil {
		vals := make([]string, len(a.values))
		copy(vals, a.values)
		a.values = vals
	}
	return a
}

// MarshalJSON encodes a scalar as a string, a set as an array and no answer as null.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch {
	case !a.set:
		return []byte("null"), nil
	case a.multi:
		if a.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.values)
	default:
		return json.Marshal(a.value)
	}
}

// UnmarshalJSON accepts a string or an array of strings. Any other shape
// decodes as no answer instead of failing, so a malformed client payload
// never blocks scoring.
func (a *Answer) UnmarshalJSON(data []byte) error {
	*a = Answer{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*a = Single(s)
	case '[':
		var vals []string
		if err := json.Unmarshal(data, &vals); err != nil {
			return nil
		}
		*a = Multi(vals...)
	}
	return nil
}

// AnswerMap records answers by question ID. An absent key means unanswered.
type AnswerMap map[string]Answer

// Clone returns a deep copy.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v.clone()
	}
	return out
}
