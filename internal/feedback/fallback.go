package feedback

import (
	"fmt"

	"github.com/speechlens/speechlens-go/internal/timeline"
)

// Fallback builds a deterministic feedback object from the timeline alone,
// used whenever the LLM is unavailable or its output cannot be parsed. All
// four keys are always populated.
func Fallback(entries []timeline.Entry) Feedback {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, e := range entries {
		label := string(e.Emotion)
		if _, ok := counts[label]; !ok {
			order = append(order, label)
		}
		counts[label]++
	}

	dominant := "unknown"
	for _, label := range order {
		if dominant == "unknown" || counts[label] > counts[dominant] {
			dominant = label
		}
	}

	transitions := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].Emotion != entries[i-1].Emotion {
			transitions++
		}
	}

	return Feedback{
		Summary: "Based on the emotion patterns detected in your speech, here are some basic observations and suggestions for improvement.",
		ImprovementAreas: []string{
			"Work on maintaining consistent emotional tone when appropriate",
			"Practice transitioning smoothly between different emotional states",
			"Focus on matching your emotional tone to your content",
		},
		Strengths: []string{
			fmt.Sprintf("You showed a predominant %s tone throughout your speech", dominant),
			fmt.Sprintf("You had %d emotional transitions, showing some emotional range", transitions),
		},
		CoachingTips: []string{
			"Record yourself speaking regularly and review your emotional patterns",
			"Practice speaking with deliberate emotional tones to expand your range",
			"Ask for feedback from others about how your emotions come across",
			"Try mirroring techniques to build emotional awareness in your speech",
			"Join a speaking club like Toastmasters to get regular speaking practice",
		},
	}
}

// FallbackChatReply is the canned coach reply used when the LLM is
// unreachable. Chat should degrade, not fail.
const FallbackChatReply = "I'm currently limited to basic responses as my AI analysis capabilities are offline. " +
	"Here are some general tips: speak at a moderate pace (2-3 words per second), practice with recordings " +
	"to improve tone, and join speaking clubs for regular feedback."
