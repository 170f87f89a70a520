package effectchain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// NodeID names a node of the per-stem audio graph.
type NodeID string

const (
	NodeInput      NodeID = "input"
	NodeBaseFilter NodeID = "baseFilter"
	NodePhaser     NodeID = "phaser"
	NodeEmphasis   NodeID = "emphasis"
	NodeShaper     NodeID = "shaper"
	NodeDelay      NodeID = "delay"
	NodeConvolver  NodeID = "convolver"
	NodeShifter    NodeID = "shifter"
	NodeWetGain    NodeID = "wetGain"
	NodeDryGain    NodeID = "dryGain"
	NodeOutput     NodeID = "output"
)

// allNodes lists every node in teardown order.
var allNodes = []NodeID{
	NodeInput, NodeBaseFilter, NodePhaser, NodeEmphasis, NodeShaper, NodeDelay,
	NodeConvolver, NodeShifter, NodeWetGain, NodeDryGain, NodeOutput,
}

// WetRoute selects what sits between the delay node and the wet gain.
type WetRoute int

const (
	// WetDirect connects the delay straight to the wet gain.
	WetDirect WetRoute = iota
	// WetConvolution inserts the stereo reverb convolver.
	WetConvolution
	// WetGranularShift inserts the granular pitch shifter.
	WetGranularShift
)

func (r WetRoute) String() string {
	switch r {
	case WetDirect:
		return "direct"
	case WetConvolution:
		return "convolution"
	case WetGranularShift:
		return "granular-shift"
	default:
		return fmt.Sprintf("WetRoute(%d)", int(r))
	}
}

// BaseRoute selects whether the phaser cascade follows the base filter.
type BaseRoute int

const (
	// BaseLinear connects the base filter straight to the emphasis filter.
	BaseLinear BaseRoute = iota
	// BasePhaserCascade inserts the phaser allpass cascade.
	BasePhaserCascade
)

func (r BaseRoute) String() string {
	switch r {
	case BaseLinear:
		return "linear"
	case BasePhaserCascade:
		return "phaser-cascade"
	default:
		return fmt.Sprintf("BaseRoute(%d)", int(r))
	}
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From NodeID `json:"from"`
	To   NodeID `json:"to"`
}

// Topology is the edge set of one stem's graph for a (WetRoute, BaseRoute)
// pair, compiled into a processing order.
type Topology struct {
	wet        WetRoute
	base       BaseRoute
	configured bool

	edges    map[Edge]struct{}
	outgoing map[NodeID][]NodeID
	order    []NodeID
	wetPath  []NodeID
}

// NewTopology returns a topology connected for (WetDirect, BaseLinear).
func NewTopology() *Topology {
	t := &Topology{edges: make(map[Edge]struct{}, 16)}

	if _, err := t.SetRoutes(WetDirect, BaseLinear); err != nil {
		panic(err)
	}

	return t
}

// SetRoutes switches the topology to the requested routes. Every edge of the
// previous routing is disconnected before the new edges are connected, and
// the result is compiled with Kahn's algorithm. Requesting the current state
// again is a no-op and reports changed=false.
func (t *Topology) SetRoutes(wet WetRoute, base BaseRoute) (bool, error) {
	if wet < WetDirect || wet > WetGranularShift {
		return false, fmt.Errorf("%w: %v", ErrInvalidRoute, wet)
	}

	if base < BaseLinear || base > BasePhaserCascade {
		return false, fmt.Errorf("%w: %v", ErrInvalidRoute, base)
	}

	if t.configured && t.wet == wet && t.base == base {
		return false, nil
	}

	edges := make(map[Edge]struct{}, len(t.edges))
	for _, e := range routeEdges(wet, base) {
		if _, dup := edges[e]; dup {
			return false, fmt.Errorf("%w: %s -> %s", ErrDuplicateEdge, e.From, e.To)
		}

		edges[e] = struct{}{}
	}

	outgoing, order, err := compileEdges(edges)
	if err != nil {
		return false, err
	}

	path, err := wetBranch(outgoing)
	if err != nil {
		return false, err
	}

	t.disconnectAll()

	for e := range edges {
		t.edges[e] = struct{}{}
	}

	t.outgoing = outgoing
	t.order = order
	t.wetPath = path
	t.wet, t.base = wet, base
	t.configured = true

	return true, nil
}

// Routes returns the current routes.
func (t *Topology) Routes() (WetRoute, BaseRoute) { return t.wet, t.base }

// Connected reports whether the edge from -> to exists.
func (t *Topology) Connected(from, to NodeID) bool {
	_, ok := t.edges[Edge{From: from, To: to}]
	return ok
}

// Edges returns the edge set sorted by (From, To).
func (t *Topology) Edges() []Edge {
	out := make([]Edge, 0, len(t.edges))
	for e := range t.edges {
		out = append(out, e)
	}

	slices.SortFunc(out, func(a, b Edge) int {
		if c := strings.Compare(string(a.From), string(b.From)); c != 0 {
			return c
		}

		return strings.Compare(string(a.To), string(b.To))
	})

	return out
}

// Order returns the compiled topological order of connected nodes.
func (t *Topology) Order() []NodeID {
	return slices.Clone(t.order)
}

// WetPath returns the processing nodes strictly between input and wetGain,
// in signal order. The returned slice must not be modified.
func (t *Topology) WetPath() []NodeID {
	return t.wetPath
}

// MarshalJSON encodes the routes and the edge set for diagnostics.
func (t *Topology) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		WetRoute    string   `json:"wetRoute"`
		BaseRoute   string   `json:"baseRoute"`
		Order       []NodeID `json:"order"`
		Connections []Edge   `json:"connections"`
	}{
		WetRoute:    t.wet.String(),
		BaseRoute:   t.base.String(),
		Order:       t.order,
		Connections: t.Edges(),
	})
}

// DisconnectNode removes every edge touching id and reports how many were
// removed. The topology must be re-routed with SetRoutes before it is used
// for processing again.
func (t *Topology) DisconnectNode(id NodeID) int {
	removed := 0

	for e := range t.edges {
		if e.From == id || e.To == id {
			delete(t.edges, e)
			removed++
		}
	}

	if removed > 0 {
		t.configured = false
	}

	return removed
}

func (t *Topology) disconnectAll() {
	for e := range t.edges {
		delete(t.edges, e)
	}
}

// routeEdges lists the edges of one routing. The dry path and the wet gain
// connection are present in every routing.
func routeEdges(wet WetRoute, base BaseRoute) []Edge {
	edges := []Edge{
		{NodeInput, NodeDryGain},
		{NodeDryGain, NodeOutput},
		{NodeInput, NodeBaseFilter},
	}

	if base == BasePhaserCascade {
		edges = append(edges, Edge{NodeBaseFilter, NodePhaser}, Edge{NodePhaser, NodeEmphasis})
	} else {
		edges = append(edges, Edge{NodeBaseFilter, NodeEmphasis})
	}

	edges = append(edges, Edge{NodeEmphasis, NodeShaper}, Edge{NodeShaper, NodeDelay})

	switch wet {
	case WetConvolution:
		edges = append(edges, Edge{NodeDelay, NodeConvolver}, Edge{NodeConvolver, NodeWetGain})
	case WetGranularShift:
		edges = append(edges, Edge{NodeDelay, NodeShifter}, Edge{NodeShifter, NodeWetGain})
	default:
		edges = append(edges, Edge{NodeDelay, NodeWetGain})
	}

	return append(edges, Edge{NodeWetGain, NodeOutput})
}

// compileEdges builds adjacency lists and a topological order (Kahn's
// algorithm). Nodes without any edge are left out of the order. Ties are
// broken by node name so the order is deterministic.
func compileEdges(edges map[Edge]struct{}) (map[NodeID][]NodeID, []NodeID, error) {
	outgoing := make(map[NodeID][]NodeID, len(allNodes))
	indegree := make(map[NodeID]int, len(allNodes))

	for e := range edges {
		if e.From == e.To {
			return nil, nil, fmt.Errorf("%w: self loop at %s", ErrCycle, e.From)
		}

		if _, ok := indegree[e.From]; !ok {
			indegree[e.From] = 0
		}

		outgoing[e.From] = append(outgoing[e.From], e.To)
		indegree[e.To]++
	}

	for id := range outgoing {
		slices.Sort(outgoing[id])
	}

	queue := make([]NodeID, 0, len(indegree))

	for id, d := range indegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}

	slices.Sort(queue)

	order := make([]NodeID, 0, len(indegree))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		order = append(order, id)

		for _, to := range outgoing[id] {
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if len(order) != len(indegree) {
		return nil, nil, ErrCycle
	}

	return outgoing, order, nil
}

// wetBranch walks from input to wetGain along the non-dry edges and checks
// that the branch is a single path ending at output.
func wetBranch(outgoing map[NodeID][]NodeID) ([]NodeID, error) {
	var path []NodeID

	cur := NodeInput
	for steps := 0; cur != NodeWetGain; steps++ {
		if steps > len(allNodes) {
			return nil, ErrCycle
		}

		var next []NodeID

		for _, to := range outgoing[cur] {
			if to != NodeDryGain {
				next = append(next, to)
			}
		}

		if len(next) != 1 {
			return nil, fmt.Errorf("%w: %s has %d wet successors", ErrInvalidRoute, cur, len(next))
		}

		if cur != NodeInput {
			path = append(path, cur)
		}

		cur = next[0]
	}

	if !slices.Equal(outgoing[NodeWetGain], []NodeID{NodeOutput}) {
		return nil, fmt.Errorf("%w: wetGain must feed output only", ErrInvalidRoute)
	}

	return path, nil
}
