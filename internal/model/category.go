package model

// Category is the derived topical bucket of an issue.
type Category string

const (
	CategoryGoodFirstIssue   Category = "good-first-issue"
	CategoryDocumentation    Category = "documentation"
	CategoryBeginnerFriendly Category = "beginner-friendly"
	CategoryHelpWanted       Category = "help-wanted"
	CategoryFeature          Category = "feature"
	CategoryPerformance      Category = "performance"
	CategoryUIUX             Category = "ui-ux"
	CategoryTesting          Category = "testing"
	CategoryRefactoring      Category = "refactoring"
	CategoryAccessibility    Category = "accessibility"
	CategoryAPI              Category = "api"
	CategoryDatabase         Category = "database"
	CategoryDeployment       Category = "deployment"
	CategorySecurity         Category = "security"
	CategoryBug              Category = "bug"
	CategoryEnhancement      Category = "enhancement"
	CategoryTypo             Category = "typo"
	CategoryOther            Category = "other"
)

// AllCategories contains every category in classification order.
// This is the single source of truth for valid category values.
var AllCategories = []Category{
	CategoryGoodFirstIssue,
	CategoryDocumentation,
	CategoryBeginnerFriendly,
	CategoryHelpWanted,
	CategoryFeature,
	CategoryPerformance,
	CategoryUIUX,
	CategoryTesting,
	CategoryRefactoring,
	CategoryAccessibility,
	CategoryAPI,
	CategoryDatabase,
	CategoryDeployment,
	CategorySecurity,
	CategoryBug,
	CategoryEnhancement,
	CategoryTypo,
	CategoryOther,
}

// Priority is the derived urgency of an issue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Difficulty is the derived effort level of an issue.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)
