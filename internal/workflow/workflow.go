// Package workflow parses, validates, and expands the recursive
// workflow tree a request is dispatched against, and resolves the
// per-stage timeout policy layered over it.
package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/jinterlante1206/chorus/internal/chorerr"
	"github.com/jinterlante1206/chorus/internal/registry"
)

// ModelRef is a reference to a registry model from the analyzer,
// selector, or synthesizer position: a name plus an optional override
// of the registry's auto_temperature flag.
type ModelRef struct {
	Name            string `json:"name"`
	AutoTemperature *bool  `json:"auto_temperature,omitempty"`
}

// NodeKind discriminates the two WorkflowNode variants. Chorus models
// this recursive structure as a tagged struct rather than an
// interface: the engine pattern-matches on Kind instead of relying on
// dynamic dispatch, which keeps the depth-expansion transform (a pure
// data rewrite) independent of any execution behavior.
type NodeKind string

const (
	NodeLeaf NodeKind = "leaf"
	NodeSub  NodeKind = "workflow"
)

// WorkflowNode is one entry in a worker list: either a Leaf model
// reference or a SubWorkflow with its own analyzer/workers/selector/
// synthesizer.
type WorkflowNode struct {
	Kind NodeKind

	// Leaf fields.
	ModelName       string
	Temperature     *float64
	AutoTemperature *bool

	// SubWorkflow fields.
	Analyzer    *ModelRef
	Workers     []WorkflowNode
	Selector    *ModelRef
	Synthesizer *ModelRef
}

// wireNode is the JSON-on-the-wire shape for a WorkflowNode, decoded
// via encoding/json and then converted to WorkflowNode.
type wireNode struct {
	Type            string          `json:"type"`
	Name            string          `json:"name"`
	Temperature     *float64        `json:"temperature,omitempty"`
	AutoTemperature *bool           `json:"auto_temperature,omitempty"`
	Analyzer        *wireRef        `json:"analyzer,omitempty"`
	Workers         []wireNode      `json:"workers,omitempty"`
	Selector        *wireRef        `json:"selector,omitempty"`
	Synthesizer     *wireRef        `json:"synthesizer,omitempty"`
}

type wireRef struct {
	Name            string `json:"name"`
	AutoTemperature *bool  `json:"auto_temperature,omitempty"`
}

func (r *wireRef) toRef() *ModelRef {
	if r == nil {
		return nil
	}
	return &ModelRef{Name: r.Name, AutoTemperature: r.AutoTemperature}
}

func (w wireNode) toNode() (WorkflowNode, error) {
	switch w.Type {
	case "leaf":
		return WorkflowNode{
			Kind:            NodeLeaf,
			ModelName:       w.Name,
			Temperature:     w.Temperature,
			AutoTemperature: w.AutoTemperature,
		}, nil
	case "workflow":
		workers := make([]WorkflowNode, 0, len(w.Workers))
		for _, wn := range w.Workers {
			n, err := wn.toNode()
			if err != nil {
				return WorkflowNode{}, err
			}
			workers = append(workers, n)
		}
		return WorkflowNode{
			Kind:        NodeSub,
			Analyzer:    w.Analyzer.toRef(),
			Workers:     workers,
			Selector:    w.Selector.toRef(),
			Synthesizer: w.Synthesizer.toRef(),
		}, nil
	default:
		return WorkflowNode{}, fmt.Errorf("workflow: unrecognised node type %q", w.Type)
	}
}

// Workflow is the root of the parsed, validated, depth-expanded tree.
type Workflow struct {
	Analyzer    ModelRef
	Workers     []WorkflowNode
	Selector    *ModelRef
	Synthesizer ModelRef
}

type wireWorkflow struct {
	Analyzer    wireRef    `json:"analyzer"`
	Workers     []wireNode `json:"workers"`
	Selector    *wireRef   `json:"selector,omitempty"`
	Synthesizer wireRef    `json:"synthesizer"`
}

// Parse decodes the workflow-integration JSON document into a Workflow,
// without validating it against a registry or expanding depth.
func Parse(document []byte) (*Workflow, error) {
	var w wireWorkflow
	if err := json.Unmarshal(document, &w); err != nil {
		return nil, fmt.Errorf("workflow: malformed workflow JSON: %w", err)
	}
	workers := make([]WorkflowNode, 0, len(w.Workers))
	for _, wn := range w.Workers {
		n, err := wn.toNode()
		if err != nil {
			return nil, err
		}
		workers = append(workers, n)
	}
	return &Workflow{
		Analyzer:    *w.Analyzer.toRef(),
		Workers:     workers,
		Selector:    w.Selector.toRef(),
		Synthesizer: *w.Synthesizer.toRef(),
	}, nil
}

// Validate checks the model-name closure and temperature-range
// invariants against reg. On failure it returns the *chorerr.ConfigInvalid
// built by chorerr.UndefinedModel (listing every missing name), or a
// *chorerr.TemperatureOutOfRange for the first out-of-range leaf.
func (w *Workflow) Validate(reg *registry.Registry) error {
	names := w.collectNames()
	if missing := reg.Missing(names); len(missing) > 0 {
		return chorerr.UndefinedModel(missing)
	}
	if err := w.checkTemperatures(); err != nil {
		return err
	}
	return nil
}

func (w *Workflow) collectNames() []string {
	var names []string
	names = append(names, w.Analyzer.Name, w.Synthesizer.Name)
	if w.Selector != nil {
		names = append(names, w.Selector.Name)
	}
	for _, n := range w.Workers {
		names = append(names, collectNodeNames(n)...)
	}
	return names
}

func collectNodeNames(n WorkflowNode) []string {
	switch n.Kind {
	case NodeLeaf:
		return []string{n.ModelName}
	case NodeSub:
		var names []string
		names = append(names, n.Analyzer.Name, n.Synthesizer.Name)
		if n.Selector != nil {
			names = append(names, n.Selector.Name)
		}
		for _, w := range n.Workers {
			names = append(names, collectNodeNames(w)...)
		}
		return names
	default:
		return nil
	}
}

func (w *Workflow) checkTemperatures() error {
	for i, n := range w.Workers {
		if err := checkNodeTemperature(fmt.Sprintf("workers[%d]", i), n); err != nil {
			return err
		}
	}
	return nil
}

func checkNodeTemperature(where string, n WorkflowNode) error {
	if n.Kind == NodeLeaf && n.Temperature != nil {
		if *n.Temperature < 0.0 || *n.Temperature > 2.0 {
			return &chorerr.TemperatureOutOfRange{Where: where, Value: *n.Temperature}
		}
	}
	if n.Kind == NodeSub {
		for i, w := range n.Workers {
			if err := checkNodeTemperature(fmt.Sprintf("%s.workers[%d]", where, i), w); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExpandDepth applies the nested-worker-depth transform n-1 times: for
// n >= 2, every leaf worker is replaced by a SubWorkflow reusing the
// parent's analyzer/selector/synthesizer, holding two copies of the
// leaf. Applied recursively, every original leaf ends up invoked
// 2^(n-1) times. n <= 1 is a no-op. Expansion is deterministic and
// preserves left-to-right ordering.
func (w *Workflow) ExpandDepth(n int) *Workflow {
	if n <= 1 {
		return w
	}
	expanded := &Workflow{
		Analyzer:    w.Analyzer,
		Selector:    w.Selector,
		Synthesizer: w.Synthesizer,
	}
	expanded.Workers = expandNodes(w.Workers, w.Analyzer, w.Selector, w.Synthesizer, n-1)
	return expanded
}

func expandNodes(nodes []WorkflowNode, analyzer ModelRef, selector *ModelRef, synthesizer ModelRef, rounds int) []WorkflowNode {
	if rounds <= 0 {
		return nodes
	}
	out := make([]WorkflowNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, expandNode(n, analyzer, selector, synthesizer, rounds))
	}
	return out
}

func expandNode(n WorkflowNode, analyzer ModelRef, selector *ModelRef, synthesizer ModelRef, rounds int) WorkflowNode {
	if rounds <= 0 {
		return n
	}
	switch n.Kind {
	case NodeLeaf:
		sub := WorkflowNode{
			Kind:        NodeSub,
			Analyzer:    &analyzer,
			Selector:    selector,
			Synthesizer: &synthesizer,
			Workers:     []WorkflowNode{n, n},
		}
		return expandNode(sub, analyzer, selector, synthesizer, rounds-1)
	case NodeSub:
		return WorkflowNode{
			Kind:        NodeSub,
			Analyzer:    n.Analyzer,
			Selector:    n.Selector,
			Synthesizer: n.Synthesizer,
			Workers:     expandNodes(n.Workers, *n.Analyzer, n.Selector, *n.Synthesizer, rounds),
		}
	default:
		return n
	}
}

// CountLeaves reports the total number of Leaf invocations in the tree,
// used by depth-expansion property tests.
func CountLeaves(nodes []WorkflowNode) int {
	total := 0
	for _, n := range nodes {
		switch n.Kind {
		case NodeLeaf:
			total++
		case NodeSub:
			total += CountLeaves(n.Workers)
		}
	}
	return total
}
