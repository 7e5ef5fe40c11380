package topics

import (
	"math/rand"
	"testing"

	"github.com/hadesai/hades/internal/models"
	"github.com/hadesai/hades/internal/topic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registry(t *testing.T) *topic.Registry {
	t.Helper()
	reg, errs := NewRegistry(nil, nil, nil)
	require.Empty(t, errs)
	return reg
}

func TestCatalogueLoads(t *testing.T) {
	reg := registry(t)
	assert.Equal(t, Names(), reg.Names())
	assert.Equal(t, 8, reg.Len())
}

func TestSelect(t *testing.T) {
	defs := Select([]string{"mental_health", "personal_finance", "missing"})
	require.Len(t, defs, 2)
	assert.Equal(t, "personal_finance", defs[0].Name)
	assert.Equal(t, "mental_health", defs[1].Name)
}

func TestSelectDropsUnresolvedDependency(t *testing.T) {
	reg, errs := NewRegistry([]string{"time_management"}, nil, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, 0, reg.Len())
}

func TestCrossTopicTargetsExist(t *testing.T) {
	reg := registry(t)
	for _, tp := range reg.All() {
		for _, h := range tp.CrossTopicHandlers() {
			_, ok := reg.Get(h.Target)
			assert.True(t, ok, "%s hands off to unknown topic %s", tp.Name(), h.Target)
		}
	}
}

func TestFinanceSavingsPattern(t *testing.T) {
	reg := registry(t)
	finance, _ := reg.Get("personal_finance")

	p, captures := finance.FindPattern("I need help with savings")
	require.NotNil(t, p)
	assert.Equal(t, "savings", captures[1])
}

func TestFinanceCrossTopicHandlers(t *testing.T) {
	def := PersonalFinance()
	ctx := &models.ConversationContext{}

	resp := def.CrossTopicHandlers[0].Handle("my money stress is unbearable", ctx)
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "Financial stress affects mental health")

	resp = def.CrossTopicHandlers[1].Handle("I need more money", ctx)
	require.NotNil(t, resp)
	assert.Len(t, resp.Solutions, 2)

	assert.Nil(t, def.CrossTopicHandlers[1].Handle("hello", ctx))
}

func TestFinanceProfile(t *testing.T) {
	updates := financeProfile("I earn $3500 a month", map[string]interface{}{"financialMentions": 2.0})
	assert.Equal(t, "medium", updates["incomeRange"])
	assert.Equal(t, 3, updates["financialMentions"])

	updates = financeProfile("about 900 left", map[string]interface{}{})
	assert.Equal(t, "low", updates["incomeRange"])

	assert.Nil(t, financeProfile("no numbers here", nil))
}

func TestFinanceEmergency(t *testing.T) {
	resp := financeEmergency("I can't pay rent and face eviction", nil, nil)
	require.NotNil(t, resp)
	assert.Equal(t, true, resp.Metadata["immediate"])
	assert.Nil(t, financeEmergency("budget tips", nil, nil))
}

func TestCrisisProtocol(t *testing.T) {
	resp := crisisProtocol("I want to end it all", nil, nil)
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "988")
	assert.Nil(t, crisisProtocol("I feel a bit down", nil, nil))
}

func TestMentalHealthExplain(t *testing.T) {
	reg := registry(t)
	mh, _ := reg.Get("mental_health")
	text, ok := mh.Explain("box breathing technique (4-4-4-4)", []string{"box breathing technique (4-4-4-4)"})
	require.True(t, ok)
	assert.Contains(t, text, "Breathe in for 4 seconds")
}

func TestCareerIndustrySolution(t *testing.T) {
	ctx := &models.ConversationContext{UserProfile: map[string]interface{}{"industry": "tech"}}
	assert.Contains(t, industrySolution("", ctx), "10-15%")

	reg := registry(t)
	career, _ := reg.Get("career_advice")
	s := career.Solution("", &models.ConversationContext{}, rand.New(rand.NewSource(1)))
	assert.Contains(t, careerSolutions, s)
}

func TestCareerProfile(t *testing.T) {
	def := CareerAdvice()
	updates := def.UpdateProfile("I work in Healthcare", nil)
	assert.Equal(t, "healthcare", updates["industry"])
}

func TestTechSupportHook(t *testing.T) {
	resp := techSupportResponse("my mac keeps crashing", nil, nil)
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "For mac:")
	assert.Contains(t, resp.Text, "%solution")

	resp = techSupportResponse("that didn't help", nil, nil)
	require.NotNil(t, resp)
	assert.Len(t, resp.Solutions, 3)

	assert.Nil(t, techSupportResponse("fix wifi", nil, nil))
}

func TestProductivityTransforms(t *testing.T) {
	out := annotateDistraction("Focus techniques: %solution", "how do I stop distraction from my phone as a coder", nil)
	assert.Contains(t, out, "coder focus preset: 52-min focus, 17-min break")
	assert.Contains(t, out, "Detected distraction type: Digital")

	out = annotateDistraction("x", "stop procrastinating", nil)
	assert.Contains(t, out, "Detected distraction type: Unknown")

	assert.Equal(t, "x", annotateRole("x", "flow state", nil))
}

func TestFitnessProfile(t *testing.T) {
	def := Fitness()
	assert.Equal(t, "beginner", def.UpdateProfile("I'm new to the gym", nil)["fitnessLevel"])
	assert.Nil(t, def.UpdateProfile("hello", nil))
}

func TestGraphLinksCatalogue(t *testing.T) {
	reg := registry(t)
	g := topic.NewGraph(reg)

	related := g.Related("personal_finance", 3)
	require.NotEmpty(t, related)
	names := make([]string, len(related))
	for i, e := range related {
		names[i] = e.To
	}
	assert.Contains(t, names, "career_advice")
	assert.NotEmpty(t, g.Bridges("personal_finance", "study_skills"))
}
