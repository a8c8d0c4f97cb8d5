// Package graph walks flow node/edge graphs: upstream reachability for
// variable suggestion scoping, topological ordering for execution, and
// authoring-time validation.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/merchflow/merchflow/pkg/models"
)

var (
	// ErrNoTrigger indicates the graph has no trigger node.
	ErrNoTrigger = errors.New("flow has no trigger node")

	// ErrMultipleTriggers indicates more than one trigger node.
	ErrMultipleTriggers = errors.New("flow has multiple trigger nodes")

	// ErrUnreachableNode indicates an operation node no path from the
	// trigger reaches.
	ErrUnreachableNode = errors.New("operation node unreachable from trigger")

	// ErrMissingOperationKey indicates an operation node without a key.
	ErrMissingOperationKey = errors.New("operation node has no operation key")

	// ErrDuplicateOperationKey indicates two operation nodes sharing a key.
	ErrDuplicateOperationKey = errors.New("duplicate operation key")

	// ErrUnknownEdgeEndpoint indicates an edge referencing a missing node.
	ErrUnknownEdgeEndpoint = errors.New("edge references unknown node")

	// ErrCycle indicates the graph is not a DAG.
	ErrCycle = errors.New("flow graph contains a cycle")
)

// Upstream computes the set of node ids reachable from the target by
// walking edges backward, breadth-first. The target itself is excluded.
func Upstream(edges []*models.Edge, targetID string) map[string]struct{} {
	parents := make(map[string][]string)
	for _, edge := range edges {
		parents[edge.Target] = append(parents[edge.Target], edge.Source)
	}

	visited := make(map[string]struct{})
	queue := []string{targetID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, parent := range parents[current] {
			if _, seen := visited[parent]; seen {
				continue
			}

			visited[parent] = struct{}{}
			queue = append(queue, parent)
		}
	}

	delete(visited, targetID)

	return visited
}

// UpstreamKeys returns the operation keys a node may legally reference:
// only outputs of nodes that can have executed before it.
func UpstreamKeys(flow *models.Flow, targetID string) []string {
	upstream := Upstream(flow.Edges, targetID)

	var keys []string

	for _, node := range flow.Nodes {
		if !node.IsOperation() || node.OperationKey == "" {
			continue
		}

		if _, ok := upstream[node.ID]; ok {
			keys = append(keys, node.OperationKey)
		}
	}

	sort.Strings(keys)

	return keys
}

// TopologicalOrder returns the flow's operation nodes in execution order,
// parents before children, starting from the trigger. Nodes at the same
// depth keep their declaration order.
func TopologicalOrder(flow *models.Flow) ([]*models.FlowNode, error) {
	trigger := flow.TriggerNode()
	if trigger == nil {
		return nil, ErrNoTrigger
	}

	children := make(map[string][]string)
	indegree := make(map[string]int)

	for _, edge := range flow.Edges {
		children[edge.Source] = append(children[edge.Source], edge.Target)
		indegree[edge.Target]++
	}

	reachable := downstream(flow.Edges, trigger.ID)

	var ready []string

	for id := range reachable {
		if indegreeWithin(flow.Edges, reachable, id) == 0 {
			ready = append(ready, id)
		}
	}

	// Only the trigger has indegree zero in a valid graph, but the walk
	// tolerates several roots so validation can report cycles separately.
	sortByDeclaration(flow, &ready)

	remaining := make(map[string]int, len(reachable))
	for id := range reachable {
		remaining[id] = indegreeWithin(flow.Edges, reachable, id)
	}

	var order []*models.FlowNode

	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]

		if node := flow.NodeByID(current); node != nil && node.IsOperation() {
			order = append(order, node)
		}

		var next []string

		for _, child := range children[current] {
			if _, ok := reachable[child]; !ok {
				continue
			}

			remaining[child]--
			if remaining[child] == 0 {
				next = append(next, child)
			}
		}

		sortByDeclaration(flow, &next)
		ready = append(ready, next...)
	}

	for _, count := range remaining {
		if count > 0 {
			return nil, ErrCycle
		}
	}

	return order, nil
}

// Validate enforces the authoring-time invariants: exactly one trigger,
// every operation node reachable from it, non-empty unique operation
// keys, edges referencing real nodes, and no cycles. Violations surface
// here, never at run time.
func Validate(flow *models.Flow) error {
	byID := make(map[string]*models.FlowNode, len(flow.Nodes))
	triggerCount := 0

	var trigger *models.FlowNode

	for _, node := range flow.Nodes {
		byID[node.ID] = node

		if node.IsTrigger() {
			triggerCount++
			trigger = node
		}
	}

	if triggerCount == 0 {
		return ErrNoTrigger
	}

	if triggerCount > 1 {
		return ErrMultipleTriggers
	}

	for _, edge := range flow.Edges {
		if _, ok := byID[edge.Source]; !ok {
			return fmt.Errorf("%w: source %q", ErrUnknownEdgeEndpoint, edge.Source)
		}

		if _, ok := byID[edge.Target]; !ok {
			return fmt.Errorf("%w: target %q", ErrUnknownEdgeEndpoint, edge.Target)
		}
	}

	seenKeys := make(map[string]string)

	for _, node := range flow.Nodes {
		if !node.IsOperation() {
			continue
		}

		if node.OperationKey == "" {
			return fmt.Errorf("%w: node %q", ErrMissingOperationKey, node.ID)
		}

		if other, dup := seenKeys[node.OperationKey]; dup {
			return fmt.Errorf("%w: %q used by nodes %q and %q",
				ErrDuplicateOperationKey, node.OperationKey, other, node.ID)
		}

		seenKeys[node.OperationKey] = node.ID
	}

	reachable := downstream(flow.Edges, trigger.ID)

	for _, node := range flow.Nodes {
		if !node.IsOperation() {
			continue
		}

		if _, ok := reachable[node.ID]; !ok {
			return fmt.Errorf("%w: node %q", ErrUnreachableNode, node.ID)
		}
	}

	if _, err := TopologicalOrder(flow); err != nil {
		return err
	}

	return nil
}

// downstream computes all node ids reachable from the root by walking
// edges forward, root included.
func downstream(edges []*models.Edge, rootID string) map[string]struct{} {
	children := make(map[string][]string)
	for _, edge := range edges {
		children[edge.Source] = append(children[edge.Source], edge.Target)
	}

	visited := map[string]struct{}{rootID: {}}
	queue := []string{rootID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, child := range children[current] {
			if _, seen := visited[child]; seen {
				continue
			}

			visited[child] = struct{}{}
			queue = append(queue, child)
		}
	}

	return visited
}

func indegreeWithin(edges []*models.Edge, scope map[string]struct{}, nodeID string) int {
	count := 0

	for _, edge := range edges {
		if edge.Target != nodeID {
			continue
		}

		if _, ok := scope[edge.Source]; ok {
			count++
		}
	}

	return count
}

func sortByDeclaration(flow *models.Flow, ids *[]string) {
	position := make(map[string]int, len(flow.Nodes))
	for i, node := range flow.Nodes {
		position[node.ID] = i
	}

	sort.SliceStable(*ids, func(a, b int) bool {
		return position[(*ids)[a]] < position[(*ids)[b]]
	})
}
