package format

import "github.com/spiffcs/firstissue/internal/model"

// Icon strings for display. Renderers apply their own styling.
const (
	GoodFirstIssueIcon = "\U0001F331" // 🌱
	DocumentationIcon  = "\U0001F4DD" // 📝
	BugIcon            = "\U0001F41B" // 🐛
	FeatureIcon        = "\U0001F4A1" // 💡
	SecurityIcon       = "\U0001F512" // 🔒
	PerformanceIcon    = "\U0001F680" // 🚀
	TestingIcon        = "\U0001F9EA" // 🧪
	HelpWantedIcon     = "\U0001F64B" // 🙋
	DefaultIcon        = "\U0001F4CC" // 📌

	// IconWidth is the display width reserved for the icon column (emoji=2 + space=1).
	IconWidth = 3
)

// CategoryIcon returns the icon shown next to an issue of category c.
func CategoryIcon(c model.Category) string {
	switch c {
	case model.CategoryGoodFirstIssue, model.CategoryBeginnerFriendly:
		return GoodFirstIssueIcon
	case model.CategoryDocumentation, model.CategoryTypo:
		return DocumentationIcon
	case model.CategoryBug:
		return BugIcon
	case model.CategoryFeature, model.CategoryEnhancement:
		return FeatureIcon
	case model.CategorySecurity:
		return SecurityIcon
	case model.CategoryPerformance:
		return PerformanceIcon
	case model.CategoryTesting:
		return TestingIcon
	case model.CategoryHelpWanted:
		return HelpWantedIcon
	default:
		return DefaultIcon
	}
}

// DifficultyMark is a short text badge for a difficulty level.
func DifficultyMark(d model.Difficulty) string {
	switch d {
	case model.DifficultyBeginner:
		return "easy"
	case model.DifficultyAdvanced:
		return "hard"
	default:
		return "med"
	}
}

// PriorityMark is a short text badge for a priority level.
func PriorityMark(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "P1"
	case model.PriorityMedium:
		return "P2"
	default:
		return "P3"
	}
}
