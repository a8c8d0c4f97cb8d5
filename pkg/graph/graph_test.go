package graph

import (
	"testing"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, opType models.OperationType, key string) *models.FlowNode {
	return &models.FlowNode{
		ID:            id,
		Type:          models.NodeTypeOperation,
		OperationType: opType,
		OperationKey:  key,
	}
}

func trigger(id string) *models.FlowNode {
	return &models.FlowNode{ID: id, Type: models.NodeTypeTrigger}
}

func edge(source, target string) *models.Edge {
	return &models.Edge{ID: source + "->" + target, Source: source, Target: target}
}

// trigger -> a -> b -> d, a -> c -> d
func diamondFlow() *models.Flow {
	return &models.Flow{
		ID: "flow-1",
		Nodes: []*models.FlowNode{
			trigger("t"),
			node("a", models.OperationTypeReadData, "fetch"),
			node("b", models.OperationTypeTransform, "shape"),
			node("c", models.OperationTypeLog, "audit"),
			node("d", models.OperationTypeCreateData, "persist"),
		},
		Edges: []*models.Edge{
			edge("t", "a"),
			edge("a", "b"),
			edge("a", "c"),
			edge("b", "d"),
			edge("c", "d"),
		},
	}
}

func TestUpstream(t *testing.T) {
	flow := diamondFlow()

	upstream := Upstream(flow.Edges, "d")

	assert.Contains(t, upstream, "a")
	assert.Contains(t, upstream, "b")
	assert.Contains(t, upstream, "c")
	assert.Contains(t, upstream, "t")
	assert.NotContains(t, upstream, "d")
}

func TestUpstreamKeys_ScopesSuggestions(t *testing.T) {
	flow := diamondFlow()

	assert.Equal(t, []string{"audit", "fetch", "shape"}, UpstreamKeys(flow, "d"))
	assert.Equal(t, []string{"fetch"}, UpstreamKeys(flow, "b"))

	// b must not see c's output, nor its own
	keys := UpstreamKeys(flow, "b")
	assert.NotContains(t, keys, "audit")
	assert.NotContains(t, keys, "shape")
}

func TestTopologicalOrder_ParentsBeforeChildren(t *testing.T) {
	flow := diamondFlow()

	order, err := TopologicalOrder(flow)
	require.NoError(t, err)

	positions := make(map[string]int)
	for i, n := range order {
		positions[n.ID] = i
	}

	require.Len(t, order, 4)
	assert.Less(t, positions["a"], positions["b"])
	assert.Less(t, positions["a"], positions["c"])
	assert.Less(t, positions["b"], positions["d"])
	assert.Less(t, positions["c"], positions["d"])
}

func TestValidate_DuplicateOperationKey(t *testing.T) {
	flow := &models.Flow{
		Nodes: []*models.FlowNode{
			trigger("t"),
			node("a", models.OperationTypeReadData, "same"),
			node("b", models.OperationTypeLog, "same"),
		},
		Edges: []*models.Edge{edge("t", "a"), edge("a", "b")},
	}

	require.ErrorIs(t, Validate(flow), ErrDuplicateOperationKey)
}

func TestValidate_MissingOperationKey(t *testing.T) {
	flow := &models.Flow{
		Nodes: []*models.FlowNode{
			trigger("t"),
			node("a", models.OperationTypeReadData, ""),
		},
		Edges: []*models.Edge{edge("t", "a")},
	}

	require.ErrorIs(t, Validate(flow), ErrMissingOperationKey)
}

func TestValidate_UnreachableNode(t *testing.T) {
	flow := &models.Flow{
		Nodes: []*models.FlowNode{
			trigger("t"),
			node("a", models.OperationTypeReadData, "fetch"),
			node("orphan", models.OperationTypeLog, "audit"),
		},
		Edges: []*models.Edge{edge("t", "a")},
	}

	require.ErrorIs(t, Validate(flow), ErrUnreachableNode)
}

func TestValidate_TriggerInvariants(t *testing.T) {
	noTrigger := &models.Flow{
		Nodes: []*models.FlowNode{node("a", models.OperationTypeReadData, "fetch")},
	}
	require.ErrorIs(t, Validate(noTrigger), ErrNoTrigger)

	twoTriggers := &models.Flow{
		Nodes: []*models.FlowNode{trigger("t1"), trigger("t2")},
	}
	require.ErrorIs(t, Validate(twoTriggers), ErrMultipleTriggers)
}

func TestValidate_Cycle(t *testing.T) {
	flow := &models.Flow{
		Nodes: []*models.FlowNode{
			trigger("t"),
			node("a", models.OperationTypeReadData, "fetch"),
			node("b", models.OperationTypeTransform, "shape"),
		},
		Edges: []*models.Edge{
			edge("t", "a"),
			edge("a", "b"),
			edge("b", "a"),
		},
	}

	require.ErrorIs(t, Validate(flow), ErrCycle)
}

func TestValidate_ValidDiamond(t *testing.T) {
	require.NoError(t, Validate(diamondFlow()))
}
