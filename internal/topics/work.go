package topics

import (
	"regexp"
	"strings"

	"github.com/hadesai/hades/internal/models"
	"github.com/hadesai/hades/internal/topic"
)

var (
	deviceRe     = regexp.MustCompile(`(?i)\b(windows|mac|iphone|android)\b`)
	escalationRe = regexp.MustCompile(`(?i)still not working|didn'?t help`)
	digitalRe    = regexp.MustCompile(`(?i)phone|social|email`)
	ambientRe    = regexp.MustCompile(`(?i)noise|people|clutter`)
	roleRe       = regexp.MustCompile(`(?i)\b(writer|coder|student)\b`)
)

var deviceTips = map[string]string{
	"windows": "run the disk cleanup utility",
	"mac":     "reset the SMC and NVRAM",
	"iphone":  "force restart by pressing volume up, volume down, then holding the side button",
	"android": "boot into safe mode to rule out a misbehaving app",
}

var focusPresets = map[string]string{
	"writer":  "90-min blocks with 30-min breaks",
	"coder":   "52-min focus, 17-min break",
	"student": "30/5 intervals with review sessions",
}

// TechSupport covers device and network troubleshooting
func TechSupport() topic.Definition {
	return topic.Definition{
		Name:        "tech_support",
		Description: "Technology troubleshooting and advice",
		Keywords:    []string{"computer", "phone", "wifi", "software", "hardware", "laptop"},
		Patterns: []topic.PatternSpec{
			{
				Regex: `(fix|solve) (wifi|internet)`,
				Responses: []string{
					"Common %2 solutions: %solution",
					"Try these steps: %solution",
				},
			},
			{
				Regex: `(computer|laptop) (?:is )?(slow|freez)`,
				Responses: []string{
					"Performance fixes: %solution",
					"For a faster %1: %solution",
				},
			},
		},
		Solutions: []string{
			"restart router and device",
			"check for system updates",
			"clear cache and temporary files",
			"run an antivirus scan",
			"free up disk space",
		},
		Generate: techSupportResponse,
	}
}

func techSupportResponse(input string, _ *topic.Match, _ *models.ConversationContext) *models.Response {
	if escalationRe.MatchString(input) {
		return &models.Response{
			Text: "I recommend:\n1. Contacting manufacturer support\n" +
				"2. Visiting a repair shop\n3. Checking community forums",
			Solutions: []string{
				"manufacturer support links",
				"local repair shop finder",
				"tech forum search",
			},
		}
	}
	if m := deviceRe.FindStringSubmatch(input); m != nil {
		device := strings.ToLower(m[1])
		if tip, ok := deviceTips[device]; ok {
			return &models.Response{Text: "For " + device + ": " + tip + ". Also try %solution."}
		}
	}
	return nil
}

// Productivity covers focus and workflow
func Productivity() topic.Definition {
	return topic.Definition{
		Name:        "productivity",
		Description: "Focus enhancement and workflow optimization",
		Keywords:    []string{"focus", "productive", "distract", "procrastinat", "flow", "efficient"},
		Patterns: []topic.PatternSpec{
			{
				Regex: `(avoid|stop) (distraction|procrastinat)`,
				Responses: []string{
					"Focus techniques: %solution",
					"Try this: %solution",
				},
				Transform: annotateDistraction,
			},
			{
				Regex: `(deep work|flow state)`,
				Responses: []string{
					"Entering %1: %solution",
					"Optimal conditions: %solution",
				},
				Transform: annotateRole,
			},
		},
		Solutions: []string{
			"Pomodoro technique with 52/17 intervals",
			"website blocker during focus sessions",
			"batching similar tasks",
			"energy level tracking",
		},
		SolutionExplanations: map[string]string{
			"pomodoro": "Work for a fixed interval, then take a short break. Repeat and take a longer break every four rounds.",
			"batching": "Group similar small tasks like email or calls into one block instead of spreading them over the day.",
		},
		RelatedTopics: []string{"time_management", "study_skills"},
	}
}

func annotateDistraction(template, input string, ctx *models.ConversationContext) string {
	var kinds []string
	if digitalRe.MatchString(input) {
		kinds = append(kinds, "Digital")
	}
	if ambientRe.MatchString(input) {
		kinds = append(kinds, "Environmental")
	}
	if len(kinds) == 0 {
		kinds = []string{"Unknown"}
	}
	return annotateRole(template, input, ctx) + "\n\nDetected distraction type: " + strings.Join(kinds, " + ")
}

func annotateRole(template, input string, _ *models.ConversationContext) string {
	m := roleRe.FindStringSubmatch(input)
	if m == nil {
		return template
	}
	role := strings.ToLower(m[1])
	return template + "\n\n" + role + " focus preset: " + focusPresets[role]
}

// TimeManagement covers planning and prioritisation
func TimeManagement() topic.Definition {
	return topic.Definition{
		Name:         "time_management",
		Description:  "Planning, scheduling and prioritisation",
		Keywords:     []string{"schedule", "deadline", "calendar", "prioritize", "busy", "time management"},
		Dependencies: []string{"productivity"},
		Patterns: []topic.PatternSpec{
			{
				Regex: `(too many|so many) (tasks|things|deadlines)`,
				Responses: []string{
					"When everything feels urgent, %solution helps.",
					"With %2 piling up, try %solution.",
				},
			},
			{
				Regex: `(plan|organi[sz]e) my (day|week)`,
				Responses: []string{
					"To plan your %2: %solution",
				},
			},
		},
		Solutions: []string{
			"the Eisenhower matrix",
			"time blocking your calendar",
			"a weekly review every Friday",
		},
		SolutionExplanations: map[string]string{
			"eisenhower":    "Sort tasks by urgent and important. Do, schedule, delegate or drop each quadrant.",
			"time blocking": "Give every task a slot on the calendar so the plan shows what fits in the day.",
		},
		RelatedTopics: []string{"productivity"},
	}
}

// StudySkills covers learning techniques
func StudySkills() topic.Definition {
	return topic.Definition{
		Name:        "study_skills",
		Description: "Learning techniques and academic success",
		Keywords:    []string{"study", "learn", "exam", "test", "focus", "memorize"},
		Patterns: []topic.PatternSpec{
			{
				Regex: `(improve|better) (memory|recall)`,
				Responses: []string{
					"Memory techniques include: %solution",
					"For better %2: %solution",
				},
			},
			{
				Regex: `(study|learn) (?:more )?(efficient|effective)`,
				Responses: []string{
					"Effective studying requires: %solution",
					"Study smarter with: %solution",
				},
			},
		},
		Solutions: []string{
			"spaced repetition system",
			"active recall practice",
			"Pomodoro technique (25/5)",
			"Feynman technique",
			"interleaved practice",
		},
		SolutionExplanations: map[string]string{
			"spaced repetition": "Review material at increasing intervals, just before you would forget it.",
			"feynman":           "Explain the concept in simple words as if teaching it, then fill the gaps you find.",
			"active recall":     "Close the book and write down what you remember before checking.",
		},
		Generate: func(input string, _ *topic.Match, _ *models.ConversationContext) *models.Response {
			m := subjectRe.FindStringSubmatch(input)
			if m == nil {
				return nil
			}
			subject := strings.ToLower(m[1])
			return &models.Response{Text: "For " + subject + ": " + subjectTips[subject] + ". Also consider %solution."}
		},
		RelatedTopics: []string{"productivity"},
	}
}

var subjectRe = regexp.MustCompile(`(?i)\b(math|history)\b`)

var subjectTips = map[string]string{
	"math":    "practice problems beat passive reading",
	"history": "build timelines and causal chains",
}
