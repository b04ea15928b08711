package agent

import (
	"fmt"

	"github.com/sandevgo/emilia/internal/config"
)

const generalFallback = "Sorry, I'm having trouble answering right now. I'm still here, could you tell me a bit more or try again in a moment?"

// GeneralFallback is the canned general_chat reply used when an agent fails.
func GeneralFallback() string {
	return generalFallback
}

// CrisisFallback is returned whenever the crisis path fails. It never depends
// on the model.
func CrisisFallback(safety config.SafetyConfig) string {
	return "I'm really concerned about your safety and I want you to get support right now.\n\n" + resourcesBlock(safety)
}

func resourcesBlock(safety config.SafetyConfig) string {
	return fmt.Sprintf(
		"If you are in danger, call %s now.\nCall or text %s to reach the Suicide and Crisis Lifeline, any time.\n%s to reach a trained counselor.",
		safety.EmergencyNumber, safety.CrisisHotline, safety.CrisisText,
	)
}
