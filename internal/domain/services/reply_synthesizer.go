package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/oculusai/console/internal/domain/entities"
)

// complexPromptThreshold is the prompt length above which replies assume a multi-step objective
const complexPromptThreshold = 120

var seriesResponses = map[entities.Series]string{
	entities.SeriesFoundation:  "Leveraging foundation-grade reasoning, I'll balance accuracy with throughput while keeping deployment lightweight.",
	entities.SeriesUltra:       "Ultra-level cognition engaged. Expect deep strategic planning, multi-hop reasoning, and autonomy-aware guidance.",
	entities.SeriesPro:         "Professional tier playbook activated—I'll emphasize operational rigor, compliance alignment, and observability hooks.",
	entities.SeriesMini:        "Optimizing for latency and efficiency. I'll deliver edge-ready tactics with minimal resource overhead.",
	entities.SeriesSpecialized: "Specialist mode enabled. I'll draw from targeted fine-tunes and domain context to craft high-signal recommendations.",
	entities.SeriesSecret:      "Openflowith channels initiated. Temporal reasoning threads and quantum-safe heuristics are in effect—handle with care.",
}

var deepThinkTakeaways = []string{
	"Key findings",
	"Operational considerations",
	"Recommended next actions",
	"Validation checkpoints",
}

const (
	complexInsight    = "It looks like you're considering a complex workflow. Breaking it into modular inference steps helps maintain clarity and traceability."
	singlePassInsight = "Your objective can be handled in a single pass. Consider batching similar requests to maximize token efficiency."

	complexTakeaway = "Layer plans to address the multi-step objective while safeguarding edge conditions."
	leanTakeaway    = "Focus on high-signal steps to keep delivery lean without sacrificing robustness."

	deepThinkHeading  = "Deepthink synopsis:"
	deepThinkNextStep = "Next step: Convert this outline into an execution-ready plan or request scenario stress tests."
)

// Greeting is the seed assistant message of a new conversation
func Greeting(model entities.Model) string {
	return fmt.Sprintf("You're speaking with %s. Ask about detection strategies, performance tuning, or deployment orchestration.", model.Name)
}

// SynthesizeReply builds the canned assistant reply for a prompt.
// The output depends only on the prompt length bucket, the model and the mode.
func SynthesizeReply(prompt string, model entities.Model, mode entities.Mode) string {
	intro := fmt.Sprintf("Routing through %s (%s) with %s accuracy.",
		model.Name, model.ContextWindowLabel, model.Performance.Accuracy)

	voice, ok := seriesResponses[model.Series]
	if !ok {
		voice = seriesResponses[entities.SeriesFoundation]
	}

	multiStep := utf8.RuneCountInString(prompt) > complexPromptThreshold

	if mode == entities.ModeDeepThink {
		lines := make([]string, len(deepThinkTakeaways))
		for i, item := range deepThinkTakeaways {
			detail := leanTakeaway
			if multiStep {
				detail = complexTakeaway
			}
			lines[i] = fmt.Sprintf("• %s: %s", item, detail)
		}

		return strings.Join([]string{
			intro,
			voice,
			deepThinkHeading,
			strings.Join(lines, "\n"),
			deepThinkNextStep,
		}, "\n\n")
	}

	insight := singlePassInsight
	if multiStep {
		insight = complexInsight
	}

	return strings.Join([]string{intro, voice, insight}, "\n\n")
}
