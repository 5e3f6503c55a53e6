package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculusai/console/internal/domain/entities"
)

func TestGreeting(t *testing.T) {
	model, _ := NewModelCatalog().Get("oculus-vision-1.0")
	assert.Equal(t,
		"You're speaking with Oculus Vision. Ask about detection strategies, performance tuning, or deployment orchestration.",
		Greeting(model))
}

func TestSynthesizeReply_Conversation(t *testing.T) {
	model, _ := NewModelCatalog().Get(DefaultModelID)

	short := SynthesizeReply("how fast is it?", model, entities.ModeConversation)
	paragraphs := strings.Split(short, "\n\n")
	require.Len(t, paragraphs, 3)
	assert.Equal(t, "Routing through Oculus 1.5 (32K tokens) with 99.4% accuracy.", paragraphs[0])
	assert.Equal(t, seriesResponses[entities.SeriesFoundation], paragraphs[1])
	assert.Equal(t, singlePassInsight, paragraphs[2])

	long := SynthesizeReply(strings.Repeat("x", complexPromptThreshold+1), model, entities.ModeConversation)
	assert.True(t, strings.HasSuffix(long, complexInsight))

	boundary := SynthesizeReply(strings.Repeat("é", complexPromptThreshold), model, entities.ModeConversation)
	assert.True(t, strings.HasSuffix(boundary, singlePassInsight), "threshold counts characters, not bytes")
}

func TestSynthesizeReply_DeepThink(t *testing.T) {
	catalog := NewModelCatalog()
	model := catalog.Secret()

	reply := SynthesizeReply("short", model, entities.ModeDeepThink)
	paragraphs := strings.Split(reply, "\n\n")
	require.Len(t, paragraphs, 5)
	assert.Equal(t, seriesResponses[entities.SeriesSecret], paragraphs[1])
	assert.Equal(t, "Deepthink synopsis:", paragraphs[2])
	assert.Equal(t, deepThinkNextStep, paragraphs[4])

	lines := strings.Split(paragraphs[3], "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "• Key findings: "+leanTakeaway, lines[0])
	assert.Equal(t, "• Validation checkpoints: "+leanTakeaway, lines[3])

	complexReply := SynthesizeReply(strings.Repeat("y", 200), model, entities.ModeDeepThink)
	assert.Contains(t, complexReply, "• Operational considerations: "+complexTakeaway)
}

func TestSynthesizeReply_IsDeterministic(t *testing.T) {
	for _, model := range NewModelCatalog().Visible(true) {
		a := SynthesizeReply("same prompt", model, entities.ModeConversation)
		b := SynthesizeReply("same prompt", model, entities.ModeConversation)
		assert.Equal(t, a, b, model.ID)
		assert.Contains(t, a, model.Name)
		assert.Contains(t, a, seriesResponses[model.Series])
	}
}
