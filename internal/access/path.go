// Package access implements the AccessStrategy tree that binds a node
// input to the output it observes (spec §4.4): DirectAccess for exact
// type matches, CollectionAccess for composite translation,
// RefObserverAccess/RefWrapperAccess for REF indirection.
package access

import "strconv"

// PathElem is one step of a fully-qualified binding path.
type PathElem struct {
	Field string // set for bundle-field steps
	Index int    // set for list/window index steps (Field == "")
	Key   string // set for dict-key steps (Field == "" and Key != "")
}

func (p PathElem) String() string {
	switch {
	case p.Field != "":
		return "." + p.Field
	case p.Key != "":
		return "{" + p.Key + "}"
	default:
		return "[" + strconv.Itoa(p.Index) + "]"
	}
}

// FQPath is the fully-qualified path of a bound slot from its graph root,
// used for diagnostics, record/replay keys, and cycle detection.
type FQPath []PathElem

func (p FQPath) String() string {
	if len(p) == 0 {
		return "."
	}
	var s string
	for _, e := range p {
		s += e.String()
	}
	return s
}

// Append returns a new FQPath with elem appended, never mutating the
// receiver (paths are shared across strategy-tree siblings).
func (p FQPath) Append(elem PathElem) FQPath {
	out := make(FQPath, len(p)+1)
	copy(out, p)
	out[len(p)] = elem
	return out
}
