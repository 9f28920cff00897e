package classify

import "github.com/spiffcs/firstissue/internal/model"

// rule maps a set of keywords to a category. Label keywords are matched as
// whole-word phrases against normalized labels; title keywords are matched
// as substrings of the lowercased, space-padded title.
type rule struct {
	category model.Category
	keywords []string
}

// beginnerRules run first and only look at labels.
var beginnerRules = []rule{
	{model.CategoryGoodFirstIssue, []string{"good first issue", "good first bug", "first timers only", "good first contribution"}},
	{model.CategoryDocumentation, []string{"documentation", "docs", "doc"}},
	{model.CategoryBeginnerFriendly, []string{"beginner", "beginner friendly", "beginners", "easy", "starter", "newbie", "low hanging fruit"}},
	{model.CategoryHelpWanted, []string{"help wanted", "contributions welcome", "up for grabs"}},
}

var labelRules = []rule{
	{model.CategoryFeature, []string{"feature", "feature request", "new feature", "proposal"}},
	{model.CategoryPerformance, []string{"performance", "perf", "optimization", "optimisation", "speed", "memory"}},
	{model.CategoryUIUX, []string{"ui", "ux", "design", "frontend", "css", "styling"}},
	{model.CategoryTesting, []string{"test", "tests", "testing", "coverage", "e2e"}},
	{model.CategoryRefactoring, []string{"refactor", "refactoring", "cleanup", "tech debt", "technical debt", "code quality"}},
	{model.CategoryAccessibility, []string{"accessibility", "a11y"}},
	{model.CategoryAPI, []string{"api", "endpoint", "graphql", "rest"}},
	{model.CategoryDatabase, []string{"database", "db", "sql", "migration", "migrations"}},
	{model.CategoryDeployment, []string{"deployment", "deploy", "ci", "docker", "infrastructure", "devops", "build"}},
	{model.CategorySecurity, []string{"security", "vulnerability", "cve"}},
	{model.CategoryBug, []string{"bug", "defect", "crash", "regression"}},
	{model.CategoryEnhancement, []string{"enhancement", "improvement"}},
	{model.CategoryTypo, []string{"typo", "typos", "spelling", "grammar"}},
}

var titleRules = []rule{
	{model.CategoryFeature, []string{"feature", "add support", "implement"}},
	{model.CategoryPerformance, []string{"optimize", "optimise", "performance", " slow", "speed up", "memory leak"}},
	{model.CategoryUIUX, []string{" ui ", " ux ", "user interface", "layout", "styling", " css", "responsive", "dark mode"}},
	{model.CategoryTesting, []string{" test", "coverage"}},
	{model.CategoryRefactoring, []string{"refactor", "clean up", "cleanup", "restructure"}},
	{model.CategoryAccessibility, []string{"accessibility", "a11y", "screen reader", " aria", "alt text"}},
	{model.CategoryAPI, []string{" api", "endpoint"}},
	{model.CategoryDatabase, []string{"database", " sql", " db ", "migration", "schema"}},
	{model.CategoryDeployment, []string{"deploy", "docker", " ci ", "pipeline", "kubernetes", "helm chart"}},
	{model.CategorySecurity, []string{"security", "vulnerab", " xss", "csrf", "injection", " cve"}},
	{model.CategoryBug, []string{"bug", "crash", "error", "fix ", "broken", "fails", "not working", "exception"}},
	{model.CategoryEnhancement, []string{"improve", "enhance"}},
	{model.CategoryTypo, []string{"typo", "spelling", "grammar"}},
}

// Beginner-signal labels force low priority.
var beginnerSignalLabels = collect(beginnerRules)

var (
	highPriorityLabels   = []string{"critical", "urgent", "high"}
	mediumPriorityLabels = []string{"medium", "important"}
)

// Explicit beginner labels force beginner difficulty. Help wanted is a
// request for contributors, not a statement of effort, so it is absent.
var beginnerDifficultyLabels = []string{
	"good first issue", "good first bug", "first timers only", "good first contribution",
	"beginner", "beginner friendly", "beginners", "easy", "starter", "newbie", "low hanging fruit",
	"documentation", "docs", "doc", "typo", "typos",
}

var (
	advancedLabels        = []string{"advanced", "complex", "architecture", "performance", "security", "hard", "expert"}
	advancedTitleKeywords = []string{"refactor", "optimize", "optimise"}
)

func collect(rules []rule) []string {
	var out []string
	for _, r := range rules {
		out = append(out, r.keywords...)
	}
	return out
}
