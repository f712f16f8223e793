package host

import "fmt"

// Row is the key-value map of field values looked up or loaded for a
// record, as exposed to RPs via the host's field lookup contract (spec.md
// §6 "Field lookup"). Wipe clears dynamic parts but preserves the
// sort-vector binding, matching row.wipe() in the fixed contract.
type Row struct {
	sortVector map[string]SortValue
	dynamic    map[string]SortValue
}

// NewRow creates an empty row bound to a sort vector (nil is valid: a row
// with no precomputed sort values).
func NewRow(sortVector map[string]SortValue) Row {
	return Row{sortVector: sortVector}
}

// Get returns the value for key, checking the sort vector first.
func (r *Row) Get(key string) (SortValue, bool) {
	if v, ok := r.sortVector[key]; ok {
		return v, true
	}
	v, ok := r.dynamic[key]
	return v, ok
}

// Write stores a dynamically loaded value.
func (r *Row) Write(key string, v SortValue) {
	if r.dynamic == nil {
		r.dynamic = make(map[string]SortValue)
	}
	r.dynamic[key] = v
}

// Has reports whether key is present via either the sort vector or a prior Write.
func (r *Row) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Wipe clears dynamically loaded fields but preserves the sort-vector
// binding, per spec.md §6.
func (r *Row) Wipe() {
	r.dynamic = nil
}

// Rebind replaces the sort-vector binding (used by the sorter when a
// pooled record slot is reused for a fresh pull).
func (r *Row) Rebind(sortVector map[string]SortValue) {
	r.sortVector = sortVector
	r.dynamic = nil
}

// SortValue is a value comparable under the numeric/string semantics the
// sorter's field comparator delegates to (spec.md §4.6 "Comparators").
type SortValue struct {
	str    string
	num    float64
	isNum  bool
	absent bool
}

// StringValue constructs a string-typed SortValue.
func StringValue(s string) SortValue { return SortValue{str: s} }

// NumericValue constructs a numeric-typed SortValue.
func NumericValue(f float64) SortValue { return SortValue{num: f, isNum: true} }

// IsNumeric reports whether the value compares numerically.
func (v SortValue) IsNumeric() bool { return v.isNum }

// String returns the string form of the value (for string-typed values).
func (v SortValue) String() string {
	if v.isNum {
		return fmt.Sprintf("%g", v.num)
	}
	return v.str
}

// Float returns the numeric form of the value (for numeric-typed values).
func (v SortValue) Float() float64 { return v.num }

// Compare orders two SortValues of the same declared type. Numeric values
// compare by subtraction sign; string values lexically. Mixed types
// compare as equal-priority strings (should not occur for a well-typed
// field, but must not panic).
func (v SortValue) Compare(other SortValue) int {
	if v.isNum && other.isNum {
		switch {
		case v.num < other.num:
			return -1
		case v.num > other.num:
			return 1
		default:
			return 0
		}
	}
	a, b := v.String(), other.String()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Explain is a human-readable tree of score justification, owned by
// whoever set it last and destroyed with the record that carries it.
type Explain struct {
	Summary  string
	Children []*Explain
}
