package attrs

import (
	"fmt"
	"strings"
)

// Kind discriminates the supported attribute set representations.
type Kind uint8

const (
	KindFinite Kind = iota
	KindInteger
	KindRegex
)

func (k Kind) String() string {
	switch k {
	case KindFinite:
		return "FiniteSet"
	case KindInteger:
		return "IntegerSet"
	case KindRegex:
		return "RegexSet"
	default:
		return "Unknown"
	}
}

// Sentinel markers stored in place of universal integer/regex sets.
const (
	IntegerSetMark = "IntegerSet"
	StringSetMark  = "StringSet"
)

// Set is a multi-valued attribute. A set is either a finite enumeration
// of scalar values, or a universal/constrained integer or regex set.
// Only finite sets and universal integer/regex sets can be written to
// the store; everything else fails fast with ErrUnsupportedValue.
type Set interface {
	Kind() Kind
	Universal() bool
	Clone() Set
	String() string
}

// FiniteSet is an explicit enumeration of scalar values. Elements are
// deduplicated by literal equality and kept in first-seen order.
type FiniteSet struct {
	values []Value
}

// NewFiniteSet builds a finite set from the given values, deduplicating
// while preserving first-seen order.
func NewFiniteSet(values ...Value) *FiniteSet {
	s := &FiniteSet{values: make([]Value, 0, len(values))}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Strings is shorthand for a finite set of string literals.
func Strings(values ...string) *FiniteSet {
	s := &FiniteSet{values: make([]Value, 0, len(values))}
	for _, v := range values {
		s.Add(StringValue(v))
	}
	return s
}

// Ints is shorthand for a finite set of integer literals.
func Ints(values ...int64) *FiniteSet {
	s := &FiniteSet{values: make([]Value, 0, len(values))}
	for _, v := range values {
		s.Add(IntValue(v))
	}
	return s
}

func (s *FiniteSet) Kind() Kind      { return KindFinite }
func (s *FiniteSet) Universal() bool { return false }

func (s *FiniteSet) Len() int { return len(s.values) }

// Values returns the elements in first-seen order.
func (s *FiniteSet) Values() []Value {
	out := make([]Value, len(s.values))
	copy(out, s.values)
	return out
}

func (s *FiniteSet) Contains(v Value) bool {
	for _, el := range s.values {
		if el.Equal(v) {
			return true
		}
	}
	return false
}

// Add appends v unless an equal element is already present.
// Reports whether the set changed.
func (s *FiniteSet) Add(v Value) bool {
	if s.Contains(v) {
		return false
	}
	s.values = append(s.values, v)
	return true
}

// Remove deletes every element equal to v. Reports whether the set changed.
func (s *FiniteSet) Remove(v Value) bool {
	kept := s.values[:0]
	changed := false
	for _, el := range s.values {
		if el.Equal(v) {
			changed = true
			continue
		}
		kept = append(kept, el)
	}
	s.values = kept
	return changed
}

// ContainsAll reports whether every element of other is present in s.
func (s *FiniteSet) ContainsAll(other *FiniteSet) bool {
	for _, v := range other.values {
		if !s.Contains(v) {
			return false
		}
	}
	return true
}

func (s *FiniteSet) Clone() Set {
	out := &FiniteSet{values: make([]Value, len(s.values))}
	copy(out.values, s.values)
	return out
}

func (s *FiniteSet) String() string {
	parts := make([]string, len(s.values))
	for i, v := range s.values {
		parts[i] = v.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// IntegerSet is the set of all integers or an interval of them.
// Constrained intervals have no finite serialization and are rejected
// by every mutation operation.
type IntegerSet struct {
	universal bool
	lo, hi    int64
}

// UniversalInteger returns the set of all integers.
func UniversalInteger() *IntegerSet {
	return &IntegerSet{universal: true}
}

// IntegerRange returns the interval [lo, hi]. It exists so callers can
// represent constrained sets; the store refuses to persist them.
func IntegerRange(lo, hi int64) *IntegerSet {
	return &IntegerSet{lo: lo, hi: hi}
}

func (s *IntegerSet) Kind() Kind      { return KindInteger }
func (s *IntegerSet) Universal() bool { return s.universal }

func (s *IntegerSet) Clone() Set {
	out := *s
	return &out
}

func (s *IntegerSet) String() string {
	if s.universal {
		return IntegerSetMark
	}
	return fmt.Sprintf("IntegerSet[%d, %d]", s.lo, s.hi)
}

// RegexSet is the set of all strings or the strings matching a pattern.
// Constrained patterns have no finite serialization and are rejected by
// every mutation operation.
type RegexSet struct {
	universal bool
	pattern   string
}

// UniversalRegex returns the set of all strings.
func UniversalRegex() *RegexSet {
	return &RegexSet{universal: true}
}

// RegexPattern returns the set of strings matching expr. It exists so
// callers can represent constrained sets; the store refuses to persist
// them.
func RegexPattern(expr string) *RegexSet {
	return &RegexSet{pattern: expr}
}

func (s *RegexSet) Kind() Kind      { return KindRegex }
func (s *RegexSet) Universal() bool { return s.universal }

func (s *RegexSet) Clone() Set {
	out := *s
	return &out
}

func (s *RegexSet) String() string {
	if s.universal {
		return StringSetMark
	}
	return fmt.Sprintf("RegexSet(%s)", s.pattern)
}

// Validate checks that a set is storable: a finite set, or a universal
// integer/regex set. Anything else fails with ErrUnsupportedValue
// before any write happens.
func Validate(s Set) error {
	switch s.(type) {
	case *FiniteSet:
		return nil
	case *IntegerSet, *RegexSet:
		if !s.Universal() {
			return UnsupportedValueError(s)
		}
		return nil
	default:
		return UnsupportedValueError(s)
	}
}

// Union returns every value present in a or b. Finite sets union with
// deduplication by literal equality, keeping a's order then b's
// unseen elements. A universal set absorbs anything of any kind.
func Union(a, b Set) (Set, error) {
	if err := Validate(a); err != nil {
		return nil, err
	}
	if err := Validate(b); err != nil {
		return nil, err
	}
	if a.Universal() {
		return a.Clone(), nil
	}
	if b.Universal() {
		return b.Clone(), nil
	}
	fa := a.(*FiniteSet)
	fb := b.(*FiniteSet)
	out := fa.Clone().(*FiniteSet)
	for _, v := range fb.values {
		out.Add(v)
	}
	return out, nil
}
