package topics

import (
	"regexp"

	"github.com/hadesai/hades/internal/models"
	"github.com/hadesai/hades/internal/topic"
)

var crisisRe = regexp.MustCompile(`(?i)(end it all|suicid|kill myself)`)

// MentalHealth offers emotional support and coping techniques
func MentalHealth() topic.Definition {
	return topic.Definition{
		Name:          "mental_health",
		Description:   "Emotional support and mental health resources",
		Keywords:      []string{"depressed", "anxious", "stress", "overwhelmed", "therapy", "counseling"},
		SentimentBias: topic.Bias(-0.7),
		Patterns: []topic.PatternSpec{
			{
				Regex: `(end it all|suicid|kill myself)`,
				Responses: []string{
					"I'm here with you. %solution",
				},
			},
			{
				Regex: `(feel|feeling) (depressed|down|sad|hopeless)`,
				Responses: []string{
					"I hear you're feeling %2. %solution",
					"What you're experiencing sounds difficult. %solution",
					"Many people find help with: %solution",
				},
			},
			{
				Regex: `(anxiety|anxious|panic)`,
				Responses: []string{
					"Anxiety can feel overwhelming. %solution",
					"When anxiety strikes: %solution",
					"Try this calming technique: %solution",
				},
			},
		},
		Solutions: []string{
			"box breathing technique (4-4-4-4)",
			"5-4-3-2-1 grounding exercise",
			"scheduling a therapist appointment",
			"calling a crisis hotline",
			"going for a mindful walk",
		},
		SolutionExplanations: map[string]string{
			"box breathing":       "Breathe in for 4 seconds, hold for 4, exhale for 4, wait for 4. Repeat 5 times.",
			"5-4-3-2-1 grounding": "Name 5 things you see, 4 you feel, 3 you hear, 2 you smell, 1 you taste.",
		},
		RelatedTopics: []string{"productivity"},
		Generate:      crisisProtocol,
	}
}

func crisisProtocol(input string, _ *topic.Match, _ *models.ConversationContext) *models.Response {
	if !crisisRe.MatchString(input) {
		return nil
	}
	resp := &models.Response{
		Text: "I'm very concerned about what you're saying. " +
			"Please call or text 988 to reach the Suicide and Crisis Lifeline, " +
			"or text HOME to 741741. You're not alone.",
	}
	resp.SetMeta("immediate", true)
	return resp
}

var fitnessLevels = []struct {
	re    *regexp.Regexp
	level string
}{
	{regexp.MustCompile(`(?i)beginner|new to|starting`), "beginner"},
	{regexp.MustCompile(`(?i)intermediate|some experience`), "intermediate"},
	{regexp.MustCompile(`(?i)advanced|expert|years of`), "advanced"},
}

// Fitness covers exercise and workout guidance
func Fitness() topic.Definition {
	return topic.Definition{
		Name:        "fitness_coaching",
		Description: "Exercise and workout guidance",
		Keywords:    []string{"exercise", "workout", "gym", "cardio", "strength", "fitness"},
		Patterns: []topic.PatternSpec{
			{
				Regex: `(lose|burn) fat`,
				Responses: []string{
					"Effective fat loss combines: %solution",
					"For fat burning: %solution",
				},
			},
			{
				Regex: `build (muscle|strength)`,
				Responses: []string{
					"Muscle growth requires: %solution",
					"For %1 gains: %solution",
				},
			},
		},
		Solutions: []string{
			"progressive overload in workouts",
			"compound movements 3x/week",
			"HIIT 2-3x/week for cardio",
			"7-9 hours sleep nightly",
		},
		SolutionExplanations: map[string]string{
			"progressive overload": "Gradually increase weight, reps, or intensity each week.",
			"hiit":                 "High Intensity Interval Training: 20-30s max effort, 60-90s rest.",
		},
		RelatedTopics: []string{"mental_health"},
		UpdateProfile: func(input string, _ map[string]interface{}) map[string]interface{} {
			for _, l := range fitnessLevels {
				if l.re.MatchString(input) {
					return map[string]interface{}{"fitnessLevel": l.level}
				}
			}
			return nil
		},
	}
}
