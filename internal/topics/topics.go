// Package topics holds the built-in topic catalogue.
package topics

import (
	"github.com/hadesai/hades/internal/topic"
	"go.uber.org/zap"
)

// Definitions returns the built-in topics in registration order
func Definitions() []topic.Definition {
	return []topic.Definition{
		PersonalFinance(),
		MentalHealth(),
		CareerAdvice(),
		TechSupport(),
		Productivity(),
		TimeManagement(),
		StudySkills(),
		Fitness(),
	}
}

// Names returns the names of the built-in topics
func Names() []string {
	defs := Definitions()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// Select returns the built-in definitions named in names, in catalogue
// order. An empty selection returns every topic.
func Select(names []string) []topic.Definition {
	if len(names) == 0 {
		return Definitions()
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []topic.Definition
	for _, d := range Definitions() {
		if want[d.Name] {
			out = append(out, d)
		}
	}
	return out
}

// NewRegistry builds a registry of the selected built-in topics. Topics that
// fail to load are logged and skipped.
func NewRegistry(names []string, stem func(string) string, logger *zap.Logger) (*topic.Registry, []error) {
	return topic.NewBuilder(stem, logger).Add(Select(names)...).Build()
}
