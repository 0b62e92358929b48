package value

import "strconv"

// PathElem is one step of a View's navigation path from its owning root,
// used for diagnostics, record/replay keys, and cycle detection.
type PathElem struct {
	Field string // set for bundle field steps
	Index int    // set for list index steps (Field == "")
}

func (p PathElem) String() string {
	if p.Field != "" {
		return "." + p.Field
	}
	return "[" + strconv.Itoa(p.Index) + "]"
}

// View is a non-owning handle into a Value: it is valid only while its
// root Value is alive and its structure unchanged.
type View struct {
	root   *Value
	target *Value
	path   []PathElem
}

// NewView returns the root view over a Value.
func NewView(root *Value) View {
	return View{root: root, target: root}
}

func (v View) Meta() *TypeMeta { return v.target.Meta() }
func (v View) HasValue() bool  { return v.target.HasValue() }

// Path renders the fully-qualified navigation path from the root.
func (v View) Path() string {
	var s string
	for _, p := range v.path {
		s += p.String()
	}
	if s == "" {
		return "."
	}
	return s
}

// Field composes a child View over a bundle field without copying.
func (v View) Field(name string) (View, error) {
	child, err := v.target.Field(name)
	if err != nil {
		return View{}, err
	}
	return View{root: v.root, target: child, path: append(append([]PathElem(nil), v.path...), PathElem{Field: name})}, nil
}

// Index composes a child View over a list/queue element without copying.
func (v View) Index(i int) (View, error) {
	child, err := v.target.At(i)
	if err != nil {
		return View{}, err
	}
	return View{root: v.root, target: child, path: append(append([]PathElem(nil), v.path...), PathElem{Index: i})}, nil
}

// ViewAs reads the scalar payload of the view's target.
func ViewAs[T any](v View) (T, bool) {
	return As[T](v.target)
}
