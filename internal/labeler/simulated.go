package labeler

import (
	"context"
	"strings"

	"github.com/focuspulse/focuspulse/internal/models"
)

// SimulatedModel is the model name reported by Simulated.
const SimulatedModel = "simulated"

// Simulated answers from fixed keyword rules without any network access.
type Simulated struct{}

func (Simulated) Label(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	r := simulate(text)
	r.Model = SimulatedModel
	return r, nil
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func simulate(text string) Result {
	low := strings.ToLower(text)
	switch {
	case containsAny(low, "youtube", "tiktok", "instagram"):
		return Result{Category: models.CategoryDistraction, Confidence: 95, Tags: []string{"video", "entertainment"}, Rationale: "Site indicates entertainment/video content."}
	case containsAny(low, "gmail", "inbox", "mail"):
		return Result{Category: models.CategoryNeutral, Confidence: 80, Tags: []string{"email", "communication"}, Rationale: "Email/communication - often neutral."}
	case containsAny(low, "code", "vscode", "pycharm", "terminal"):
		return Result{Category: models.CategoryFocus, Confidence: 99, Tags: []string{"code", "editor"}, Rationale: "Developer editor - focused work."}
	case containsAny(low, "linkedin", "twitter", "x -"):
		return Result{Category: models.CategoryDistraction, Confidence: 70, Tags: []string{"social"}, Rationale: "Social feed - likely distraction."}
	default:
		return Result{Category: models.CategoryNeutral, Confidence: 60, Tags: []string{}, Rationale: "Unclear from title; marked neutral by default."}
	}
}

// localFallback is used when a remote answer cannot be parsed.
func localFallback(text string) Result {
	low := strings.ToLower(text)
	switch {
	case containsAny(low, "youtube", "tiktok", "instagram", "reddit"):
		return Result{Category: models.CategoryDistraction, Confidence: 80, Tags: []string{"social"}, Rationale: "Recognized social/video site."}
	case containsAny(low, "inbox", "gmail", "mail"):
		return Result{Category: models.CategoryNeutral, Confidence: 70, Tags: []string{"email"}, Rationale: "Email-like title."}
	case containsAny(low, "code", "vscode", "pycharm", "terminal"):
		return Result{Category: models.CategoryFocus, Confidence: 90, Tags: []string{"code"}, Rationale: "Developer tool likely focused."}
	default:
		return Result{Category: models.CategoryNeutral, Confidence: 50, Tags: []string{}, Rationale: "Default neutral fallback."}
	}
}
