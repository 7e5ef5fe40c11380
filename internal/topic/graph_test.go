package topic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphFixture(t *testing.T) (*Registry, *Graph) {
	t.Helper()
	reg, errs := NewRegistry(nil,
		Definition{Name: "personal_finance", Keywords: []string{"money", "stress"}, RelatedTopics: []string{"career_advice", "unknown"}},
		Definition{Name: "career_advice", Keywords: []string{"job", "salary"}},
		Definition{Name: "mental_health", Keywords: []string{"stress", "anxious"}},
		Definition{Name: "pet_care", Keywords: []string{"dog"}},
	)
	require.Empty(t, errs)
	return reg, NewGraph(reg)
}

func TestGraphRelated(t *testing.T) {
	_, g := graphFixture(t)

	related := g.Related("personal_finance", 0)
	require.Len(t, related, 2)
	assert.Equal(t, Edge{From: "personal_finance", To: "career_advice", Kind: EdgeDeclared, Strength: 1.0}, related[0])
	assert.Equal(t, Edge{From: "personal_finance", To: "mental_health", Kind: EdgeKeyword, Strength: 0.6}, related[1])

	back := g.Related("career_advice", 0)
	require.Len(t, back, 1)
	assert.Equal(t, "personal_finance", back[0].To)

	assert.Len(t, g.Related("personal_finance", 1), 1)
	assert.Empty(t, g.Related("pet_care", 0))
}

func TestGraphBridges(t *testing.T) {
	_, g := graphFixture(t)

	assert.Equal(t, []string{"personal_finance"}, g.Bridges("career_advice", "mental_health"))
	assert.Equal(t, []string{}, g.Bridges("career_advice", "personal_finance"))
	assert.Nil(t, g.Bridges("career_advice", "pet_care"))
	assert.Nil(t, g.Bridges("career_advice", "missing"))
}

func TestGraphEdges(t *testing.T) {
	_, g := graphFixture(t)
	edges := g.Edges()
	assert.Len(t, edges, 2)
	for _, e := range edges {
		assert.Less(t, e.From, e.To)
	}
	assert.Equal(t, []string{"personal_finance", "career_advice", "mental_health", "pet_care"}, g.Nodes())
}

func TestGraphMutation(t *testing.T) {
	reg, g := graphFixture(t)

	data, err := graphMutation(reg, g)
	require.NoError(t, err)

	var nodes []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &nodes))
	require.Len(t, nodes, 4)
	assert.Equal(t, "_:personal_finance", nodes[0]["uid"])
	assert.Equal(t, []interface{}{"Topic"}, nodes[0]["dgraph.type"])

	related := nodes[0]["related"].([]interface{})
	require.Len(t, related, 2)
	first := related[0].(map[string]interface{})
	assert.Equal(t, "_:career_advice", first["uid"])
	assert.Equal(t, 1.0, first["related|strength"])
}

func TestBlankNode(t *testing.T) {
	assert.Equal(t, "_:a_b_c", blankNode("a+b c"))
}
