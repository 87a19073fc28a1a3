package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"credit-advisor/backend/pkg/models"
)

func TestTransition(t *testing.T) {
	assert.Equal(t, nodeRecommendations, transition(nodeCreditProfile, &models.WorkflowState{}))
	assert.Equal(t, nodeRerank, transition(nodeRecommendations, &models.WorkflowState{}))
	assert.Equal(t, nodeValidate, transition(nodeRerank, &models.WorkflowState{}))

	// validate is the only conditional edge
	assert.Equal(t, nodeEnd, transition(nodeValidate, &models.WorkflowState{Response: models.ResponseValid}))
	assert.Equal(t, nodeRecommendations, transition(nodeValidate, &models.WorkflowState{Response: models.ResponseInvalid}))
	assert.Equal(t, nodeRecommendations, transition(nodeValidate, &models.WorkflowState{}))
}

func TestKnownNode(t *testing.T) {
	for _, n := range []node{nodeCreditProfile, nodeRecommendations, nodeRerank, nodeValidate} {
		assert.True(t, knownNode(n), string(n))
	}
	assert.False(t, knownNode(nodeEnd))
	assert.False(t, knownNode(node("narrate")))
	assert.False(t, knownNode(node("")))
}
