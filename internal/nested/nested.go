// Package nested implements the container node kinds that own and drive a
// child graph from within their own Eval (spec §4.8): Component,
// TryExcept, MapOverKeys, Mesh, Switch, and the Reduce family. Grounded on
// the teacher's per-key lazy-state maps (internal/indicator.Engine's
// state[tfIdx][tokenKey]) generalised from "map of indicator state" to
// "map of child graph".
package nested

import (
	"fmt"
	"strings"

	"github.com/hgraph-go/runtime/internal/node"
)

// recordableIDer is implemented by container nodes that carry a stable
// identity contributing to the dotted FQ recordable id (spec §4.8, §6).
type recordableIDer interface {
	RecordableID() (string, bool)
}

// outerGrapher is implemented by container nodes that know which graph
// they are wired into, so FullyQualifiedRecordableID can climb the
// ancestor chain. graph.Graph only exposes a node's *inner* parent, not
// the reverse edge from a node back to its containing graph, so each
// container here tracks its own outer graph explicitly at construction.
type outerGrapher interface {
	outerParent() node.Node
}

// FullyQualifiedRecordableID concatenates n's recordable id with every
// ancestor's, separated by ".". Absence of any ancestor's id — including
// the component's own — is a fatal wiring error (spec §6).
func FullyQualifiedRecordableID(n node.Node) (string, error) {
	var ids []string
	cur := n
	for cur != nil {
		ri, ok := cur.(recordableIDer)
		if !ok {
			return "", fmt.Errorf("nested: %s does not carry a recordable id", cur.Path())
		}
		id, ok := ri.RecordableID()
		if !ok || id == "" {
			return "", fmt.Errorf("nested: %s missing recordable_id", cur.Path())
		}
		ids = append([]string{id}, ids...)

		og, ok := cur.(outerGrapher)
		if !ok {
			break
		}
		cur = og.outerParent()
	}
	return strings.Join(ids, "."), nil
}
