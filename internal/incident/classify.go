package incident

import (
	"strings"
)

// classificationRule maps text signals to a category and severity.
// Rules are order-sensitive: the first matching rule wins.
type classificationRule struct {
	keywords []string
	category Category
	severity Severity
}

var classificationRules = []classificationRule{
	{
		keywords: []string{"aggressive", "threatening"},
		category: CategoryAggressiveBehavior,
		severity: SeverityHigh,
	},
	{
		keywords: []string{
			"weapon", "shooting", "gun", "knife", "robbery", "assault",
			"battery", "explosion", "explosive", "purse snatch",
		},
		category: CategoryCrime,
		severity: SeverityHigh,
	},
	{
		keywords: []string{"drug", "narcotic", "needle", "overdose"},
		category: CategoryCrime,
		severity: SeverityMedium,
	},
	{
		keywords: []string{"encampment", "tent", "homeless camp"},
		category: CategoryEncampment,
		severity: SeverityMedium,
	},
}

// Classify derives a category and severity from source free text.
// Classification is total: text matching no rule is suspicious-activity/low.
func Classify(text string) (Category, Severity) {
	lower := strings.ToLower(text)

	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category, rule.severity
			}
		}
	}

	return CategorySuspiciousActivity, SeverityLow
}

// EncampmentSeverity clamps a source-reported severity into the
// medium-to-high range encampments carry.
func EncampmentSeverity(reported Severity) Severity {
	if reported == SeverityHigh {
		return SeverityHigh
	}
	return SeverityMedium
}
