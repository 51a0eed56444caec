package critic

import (
	"strings"

	"github.com/sells-group/preview-pipeline/internal/model"
)

// Action identifiers. Each names a concrete, mechanically applicable fix.
const (
	actionTrimTitle       = "trim_title"
	actionDedupeDesc      = "dedupe_description"
	actionStripVagueProof = "strip_vague_proof"
	actionCondenseDesc    = "condense_description"
)

// proposeActions inspects the scored record and returns the fixes the
// iterator can apply, ordered critical first.
func proposeActions(record *model.PreviewRecord, dims map[string]float64) []model.ImprovementAction {
	if record == nil {
		return nil
	}
	var actions []model.ImprovementAction

	if len(record.Title) > 120 {
		actions = append(actions, model.ImprovementAction{
			Target:         model.FieldTitle,
			Kind:           actionTrimTitle,
			Priority:       model.PriorityCritical,
			ExpectedImpact: 0.2,
			Reason:         "title exceeds 120 characters; trim at a sentence or clause boundary",
		})
	}
	if restatesTitle(record.Title, record.Description) {
		actions = append(actions, model.ImprovementAction{
			Target:         model.FieldDescription,
			Kind:           actionDedupeDesc,
			Priority:       model.PriorityHigh,
			ExpectedImpact: 0.15,
			Reason:         "description restates the title; drop the duplicated lead",
		})
	}
	if vagueProofRe.MatchString(record.Description) {
		actions = append(actions, model.ImprovementAction{
			Target:         model.FieldDescription,
			Kind:           actionStripVagueProof,
			Priority:       model.PriorityHigh,
			ExpectedImpact: 0.1,
			Reason:         "unquantified social-proof claim; remove it",
		})
	}
	if len(record.Description) > 300 {
		actions = append(actions, model.ImprovementAction{
			Target:         model.FieldDescription,
			Kind:           actionCondenseDesc,
			Priority:       model.PriorityMedium,
			ExpectedImpact: 0.1,
			Reason:         "description exceeds 300 characters; keep the first sentences that fit",
		})
	}

	sortActions(actions)
	return actions
}

var priorityRank = map[model.ActionPriority]int{
	model.PriorityCritical: 0,
	model.PriorityHigh:     1,
	model.PriorityMedium:   2,
	model.PriorityLow:      3,
}

func sortActions(actions []model.ImprovementAction) {
	for i := 1; i < len(actions); i++ {
		for j := i; j > 0 && priorityRank[actions[j].Priority] < priorityRank[actions[j-1].Priority]; j-- {
			actions[j], actions[j-1] = actions[j-1], actions[j]
		}
	}
}

// applyAction returns a copy of the record with one fix applied. Unknown
// action IDs leave the record untouched.
func applyAction(record *model.PreviewRecord, action model.ImprovementAction) *model.PreviewRecord {
	out := *record
	switch action.Kind {
	case actionTrimTitle:
		out.Title = trimAtBoundary(out.Title, 120)
	case actionDedupeDesc:
		out.Description = dropTitleLead(out.Title, out.Description)
	case actionStripVagueProof:
		out.Description = strings.TrimSpace(vagueProofRe.ReplaceAllString(out.Description, ""))
		out.Description = strings.Join(strings.Fields(out.Description), " ")
	case actionCondenseDesc:
		out.Description = trimAtBoundary(out.Description, 300)
	}
	return &out
}

// trimAtBoundary cuts text to at most max characters, preferring a
// sentence end and falling back to a word boundary.
func trimAtBoundary(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if i := strings.LastIndexAny(cut, ".!?"); i > max/2 {
		return strings.TrimSpace(cut[:i+1])
	}
	if i := strings.LastIndex(cut, " "); i > 0 {
		return strings.TrimSpace(cut[:i])
	}
	return strings.TrimSpace(cut)
}

// dropTitleLead removes a leading restatement of the title from the
// description, along with any separator that follows it.
func dropTitleLead(title, description string) string {
	t := strings.TrimSpace(title)
	d := strings.TrimSpace(description)
	if t == "" || !strings.HasPrefix(strings.ToLower(d), strings.ToLower(t)) {
		return d
	}
	rest := strings.TrimSpace(d[len(t):])
	rest = strings.TrimLeft(rest, ".:;,- ")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return d
	}
	if len(rest) > 0 {
		rest = strings.ToUpper(rest[:1]) + rest[1:]
	}
	return rest
}
