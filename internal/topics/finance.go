package topics

import (
	"regexp"
	"strconv"

	"github.com/hadesai/hades/internal/models"
	"github.com/hadesai/hades/internal/topic"
)

var (
	moneyStressRe     = regexp.MustCompile(`(?i)(money|finance|financial|debt|bills?).*(stress|anxiety|anxious|depress|worr)`)
	moreMoneyRe       = regexp.MustCompile(`(?i)(need|make|earn) (more|extra) money`)
	financialCrisisRe = regexp.MustCompile(`(?i)financial emergency|can'?t pay|eviction`)
	amountRe          = regexp.MustCompile(`\$?(\d{3,})`)
)

// PersonalFinance covers budgeting, saving and debt
func PersonalFinance() topic.Definition {
	return topic.Definition{
		Name:        "personal_finance",
		Description: "Money management with connections to career and wellbeing",
		Keywords:    []string{"money", "finance", "debt", "savings", "income", "budget"},
		Priority:    1.2,
		Patterns: []topic.PatternSpec{
			{
				Regex: `I need (?:help|advice) with (.*)`,
				Responses: []string{
					"For %1, try these steps: %solution",
				},
			},
			{
				Regex: `(no|low|out of|need) money`,
				Responses: []string{
					"Financial stress is common. %solution might help.",
					"When funds are low, consider %solution.",
					"For money issues, %solution could be useful.",
				},
			},
		},
		Solutions: []string{
			"tracking all expenses for a week",
			"creating a 50-30-20 budget plan",
			"setting up automatic savings transfers",
		},
		SolutionExplanations: map[string]string{
			"50-30-20":          "Spend 50% of take-home pay on needs, 30% on wants and put 20% toward savings or debt.",
			"automatic savings": "Schedule a transfer to savings on payday so the money moves before you can spend it.",
			"tracking":          "Write down every purchase for seven days, then group them to see where the money goes.",
		},
		CrossTopicHandlers: []topic.CrossTopicHandler{
			{
				Target: "mental_health",
				Handle: func(input string, _ *models.ConversationContext) *models.Response {
					if !moneyStressRe.MatchString(input) {
						return nil
					}
					return &models.Response{
						Text: "Financial stress affects mental health. Try:\n" +
							"1. Separating money worries from self-worth\n" +
							"2. Scheduling 'worry time' about finances\n" +
							"3. Focusing on controllable factors",
						Solutions: []string{
							"gratitude journaling for non-financial positives",
							"free community mental health resources",
						},
					}
				},
			},
			{
				Target: "career_advice",
				Handle: func(input string, _ *models.ConversationContext) *models.Response {
					if !moreMoneyRe.MatchString(input) {
						return nil
					}
					return &models.Response{
						Text: "To increase income:\n1. Upskill with free courses\n" +
							"2. Negotiate your current salary\n3. Explore side gigs",
						Solutions: []string{
							"Coursera financial aid options",
							"freelance marketplace profiles",
						},
					}
				},
			},
		},
		RelatedTopics: []string{"career_advice", "mental_health", "time_management"},
		Generate:      financeEmergency,
		UpdateProfile: financeProfile,
	}
}

func financeEmergency(input string, _ *topic.Match, _ *models.ConversationContext) *models.Response {
	if !financialCrisisRe.MatchString(input) {
		return nil
	}
	resp := &models.Response{
		Text: "For immediate financial crisis support:\n" +
			"1. Contact 211 for local resources\n" +
			"2. Reach out to community or religious organizations\n" +
			"3. Apply for emergency assistance",
	}
	resp.SetMeta("immediate", true)
	return resp
}

func financeProfile(input string, profile map[string]interface{}) map[string]interface{} {
	m := amountRe.FindStringSubmatch(input)
	if m == nil {
		return nil
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	income := "low"
	if amount > 2000 {
		income = "medium"
	}
	mentions := 0
	switch v := profile["financialMentions"].(type) {
	case int:
		mentions = v
	case float64:
		mentions = int(v)
	}
	return map[string]interface{}{
		"incomeRange":       income,
		"financialMentions": mentions + 1,
	}
}
