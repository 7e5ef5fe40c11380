package topics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hadesai/hades/internal/models"
	"github.com/hadesai/hades/internal/topic"
)

var (
	salaryRe   = regexp.MustCompile(`(?i)salary|raise|negotiat`)
	industryRe = regexp.MustCompile(`(?i)\b(?:work|working) in (tech|healthcare|finance|education)\b`)
)

var industryData = map[string]string{
	"tech":       "average 10-15% salary growth when changing jobs",
	"healthcare": "clinical roles see 5-7% annual raises",
}

var careerSolutions = []string{
	"quantify achievements with numbers",
	"use the STAR method for behavioral questions",
	"research company values before interviewing",
	"negotiate salary using market data",
	"develop a 30-60-90 day plan for promotions",
}

// CareerAdvice covers job search and career development
func CareerAdvice() topic.Definition {
	return topic.Definition{
		Name:        "career_advice",
		Description: "Career development and job search guidance",
		Keywords:    []string{"job", "career", "resume", "interview", "promotion", "salary"},
		Patterns: []topic.PatternSpec{
			{
				Regex: `(improve|better) (resume|CV)`,
				Responses: []string{
					"Strong resumes often: %solution",
					"For a better %2: %solution",
				},
			},
			{
				Regex: `(answer|handle) interview questions?`,
				Responses: []string{
					"Interview success comes from: %solution",
					"For tough questions: %solution",
				},
			},
		},
		Solutions: careerSolutions,
		SolutionExplanations: map[string]string{
			"star method": "Describe the Situation, the Task, the Action you took and the Result.",
			"30-60-90":    "List what you will learn, contribute and lead in your first 30, 60 and 90 days.",
		},
		CrossTopicHandlers: []topic.CrossTopicHandler{
			{
				Target: "personal_finance",
				Handle: func(input string, _ *models.ConversationContext) *models.Response {
					if !salaryRe.MatchString(input) {
						return nil
					}
					return &models.Response{
						Text: "For salary negotiations:\n1. Research market rates\n" +
							"2. Highlight your value\n3. Practice your talking points\n" +
							"Would you like industry-specific salary data?",
						Solutions: []string{
							"Glassdoor research",
							"salary calculator tools",
							"negotiation script templates",
						},
					}
				},
			},
		},
		RelatedTopics: []string{"personal_finance", "productivity"},
		Solution:      industrySolution,
		UpdateProfile: func(input string, _ map[string]interface{}) map[string]interface{} {
			m := industryRe.FindStringSubmatch(input)
			if m == nil {
				return nil
			}
			return map[string]interface{}{"industry": strings.ToLower(m[1])}
		},
	}
}

// industrySolution adds industry data when the profile names a known industry
func industrySolution(_ string, ctx *models.ConversationContext) string {
	if ctx == nil {
		return ""
	}
	industry, _ := ctx.UserProfile["industry"].(string)
	data, ok := industryData[strings.ToLower(industry)]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s (%s)", careerSolutions[0], data)
}
