package attrs

// Dict is the attribute view of a node or edge: attribute name to set.
type Dict = map[string]Set

// CloneDict deep-copies an attribute dictionary.
func CloneDict(d Dict) Dict {
	if d == nil {
		return nil
	}
	out := make(Dict, len(d))
	for k, v := range d {
		out[k] = v.Clone()
	}
	return out
}

// ValidateDict checks every set in d is storable.
func ValidateDict(d Dict) error {
	for _, s := range d {
		if err := Validate(s); err != nil {
			return err
		}
	}
	return nil
}

// UnionDicts merges b into a copy of a, unioning sets under shared keys.
func UnionDicts(a, b Dict) (Dict, error) {
	out := CloneDict(a)
	if out == nil {
		out = make(Dict, len(b))
	}
	for k, bs := range b {
		as, ok := out[k]
		if !ok {
			if err := Validate(bs); err != nil {
				return nil, err
			}
			out[k] = bs.Clone()
			continue
		}
		merged, err := Union(as, bs)
		if err != nil {
			return nil, err
		}
		out[k] = merged
	}
	return out, nil
}

// ApplyAdd adds the values of s under name in dst. An absent attribute
// is assigned; an existing finite attribute is extended with the
// elements not already present, preserving first-seen order. Writing a
// universal set replaces whatever was there with its sentinel.
func ApplyAdd(dst Dict, name string, s Set) error {
	if err := Validate(s); err != nil {
		return err
	}
	cur, ok := dst[name]
	if !ok {
		dst[name] = s.Clone()
		return nil
	}
	merged, err := Union(cur, s)
	if err != nil {
		return err
	}
	dst[name] = merged
	return nil
}

// ApplyRemove deletes the values of s under name in dst. A universal
// set matches everything. If the attribute ends up empty the key is
// removed entirely; an empty set is never left behind.
func ApplyRemove(dst Dict, name string, s Set) error {
	if err := Validate(s); err != nil {
		return err
	}
	cur, ok := dst[name]
	if !ok {
		return nil
	}
	if s.Universal() {
		delete(dst, name)
		return nil
	}
	fs := s.(*FiniteSet)
	if cur.Universal() {
		// A universal attribute minus a finite set stays universal;
		// there is no finite representation of the difference.
		return UnsupportedValueError(cur)
	}
	fcur := cur.Clone().(*FiniteSet)
	for _, v := range fs.values {
		fcur.Remove(v)
	}
	if fcur.Len() == 0 {
		delete(dst, name)
		return nil
	}
	dst[name] = fcur
	return nil
}
