package critic

import (
	"go.uber.org/zap"

	"github.com/sells-group/preview-pipeline/internal/model"
)

// Iterator runs the bounded evaluate-then-fix loop. It keeps the best
// snapshot seen so far and never hands back a record worse than the one
// it was given.
type Iterator struct {
	critic    *Critic
	threshold float64
	maxIters  int
}

// NewIterator creates an Iterator. threshold is the overall score at
// which refinement stops early; maxIters bounds the number of fix-and-
// rescore rounds after the initial evaluation.
func NewIterator(critic *Critic, threshold float64, maxIters int) *Iterator {
	return &Iterator{critic: critic, threshold: threshold, maxIters: maxIters}
}

// Refine evaluates the record and applies proposed actions until the
// score clears the threshold, the actions run out, or the iteration
// budget is spent. Returns the highest-scoring snapshot with its
// critique and the number of refinement rounds performed.
func (it *Iterator) Refine(record *model.PreviewRecord) (*model.PreviewRecord, model.CritiqueResult, int) {
	best := record
	bestCritique := it.critic.Evaluate(record)

	current := record
	currentCritique := bestCritique
	rounds := 0

	for rounds < it.maxIters {
		if currentCritique.Overall >= it.threshold {
			break
		}
		actions := urgentActions(currentCritique.Actions)
		if len(actions) == 0 {
			break
		}
		next := current
		for _, action := range actions {
			next = applyAction(next, action)
		}
		rounds++
		nextCritique := it.critic.Evaluate(next)
		zap.L().Debug("refinement round",
			zap.Int("round", rounds),
			zap.Float64("before", currentCritique.Overall),
			zap.Float64("after", nextCritique.Overall),
			zap.String("focus", currentCritique.IterationFocus))

		if nextCritique.Overall > bestCritique.Overall {
			best, bestCritique = next, nextCritique
		}
		if nextCritique.Overall <= currentCritique.Overall {
			// No progress; further rounds would reapply the same fixes.
			break
		}
		current, currentCritique = next, nextCritique
	}

	return best, bestCritique, rounds
}

// urgentActions keeps only the critical and high priority actions;
// medium and low suggestions stay advisory in the critique output.
func urgentActions(actions []model.ImprovementAction) []model.ImprovementAction {
	var out []model.ImprovementAction
	for _, a := range actions {
		if a.Priority == model.PriorityCritical || a.Priority == model.PriorityHigh {
			out = append(out, a)
		}
	}
	return out
}
