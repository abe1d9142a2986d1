package workplan

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/voxlogica-project/voxlogica-core/internal/hashid"
)

type nodeJSON struct {
	Kind      string            `json:"kind"`
	Operator  string            `json:"operator,omitempty"`
	Arguments map[string]string `json:"arguments,omitempty"`
	Value     interface{}       `json:"value,omitempty"`
}

type goalJSON struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type planJSON struct {
	Nodes   map[string]nodeJSON `json:"nodes"`
	Goals   []goalJSON          `json:"goals"`
	Imports []string            `json:"imports"`
}

// MarshalJSON produces the stable task-graph encoding of spec §4.5/§6:
// sorted node ids, arguments by sorted keys (guaranteed by Go's map-key
// json.Marshal ordering), goals in insertion order, imports as a sorted
// array.
func (wp *WorkPlan) MarshalJSON() ([]byte, error) {
	wp.mu.Lock()
	nodes := make(map[string]nodeJSON, len(wp.nodes))
	for id, n := range wp.nodes {
		nodes[string(id)] = toNodeJSON(n)
	}
	goals := make([]goalJSON, 0, len(wp.goals))
	for _, g := range wp.goals {
		goals = append(goals, goalJSON{Kind: g.Kind.String(), ID: string(g.Target), Name: g.NameOrPath})
	}
	wp.mu.Unlock()

	plan := planJSON{
		Nodes:   nodes,
		Goals:   goals,
		Imports: wp.imports.Sorted(),
	}
	return json.Marshal(plan)
}

func toNodeJSON(n *Node) nodeJSON {
	switch n.Kind {
	case KindOperation:
		args := make(map[string]string, len(n.Operation.Arguments))
		for k, id := range n.Operation.Arguments {
			args[k] = string(id)
		}
		return nodeJSON{Kind: "operation", Operator: n.Operation.Operator, Arguments: args}
	case KindConstant:
		return nodeJSON{Kind: "constant", Value: n.Constant.Value}
	case KindClosure:
		return nodeJSON{Kind: "closure", Value: n.Closure.Parameter}
	default:
		return nodeJSON{Kind: "unknown"}
	}
}

// DOT renders a Graphviz DOT graph of every workplan node, with an edge
// from each Operation node to each of its argument nodes. No
// Graphviz/DOT library appears anywhere in the retrieved corpus, so this
// stays on the standard library by necessity (see DESIGN.md).
func (wp *WorkPlan) DOT() string {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	ids := make([]string, 0, len(wp.nodes))
	for id := range wp.nodes {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("digraph workplan {\n")
	for _, idStr := range ids {
		id := hashid.NodeID(idStr)
		n := wp.nodes[id]
		label := n.Kind.String()
		if n.Kind == KindOperation {
			label = n.Operation.Operator
		}
		fmt.Fprintf(&b, "  %q [label=%q];\n", idStr, label)
		if n.Kind == KindOperation {
			argKeys := sortedKeys(n.Operation.Arguments)
			for _, k := range argKeys {
				fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", idStr, n.Operation.Arguments[k], k)
			}
		}
	}
	b.WriteString("}\n")
	return b.String()
}
