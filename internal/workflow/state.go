package workflow

import "credit-advisor/backend/pkg/models"

// node identifies a step of the workflow. The set is closed: routing happens
// only through the transition table below, so an illegal transition cannot
// be expressed.
type node string

const (
	nodeCreditProfile   node = "credit_profile"
	nodeRecommendations node = "recommendations"
	nodeRerank          node = "rerank"
	nodeValidate        node = "validate"
	nodeEnd             node = "end"
)

// staticEdges holds the unconditional transitions.
var staticEdges = map[node]node{
	nodeCreditProfile:   nodeRecommendations,
	nodeRecommendations: nodeRerank,
	nodeRerank:          nodeValidate,
}

// transition returns the node that follows cur given the state after
// executing cur. Validate is the only conditional edge: a valid response
// terminates, anything else re-enters recommendations.
func transition(cur node, state *models.WorkflowState) node {
	if cur == nodeValidate {
		if state.Response == models.ResponseValid {
			return nodeEnd
		}
		return nodeRecommendations
	}
	return staticEdges[cur]
}

// knownNode reports whether a checkpointed node name is resumable.
func knownNode(n node) bool {
	switch n {
	case nodeCreditProfile, nodeRecommendations, nodeRerank, nodeValidate:
		return true
	}
	return false
}
