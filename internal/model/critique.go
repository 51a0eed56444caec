package model

// Critique dimension names.
const (
	DimHook       = "hook"
	DimTrust      = "trust"
	DimClarity    = "clarity"
	DimDesign     = "design"
	DimMotivation = "motivation"
)

// ActionPriority ranks improvement actions.
type ActionPriority string

const (
	PriorityCritical ActionPriority = "critical"
	PriorityHigh     ActionPriority = "high"
	PriorityMedium   ActionPriority = "medium"
	PriorityLow      ActionPriority = "low"
)

// ImprovementAction is one targeted mutation the iterator may apply.
type ImprovementAction struct {
	Target         string         `json:"target"` // field the action mutates
	Kind           string         `json:"kind"`
	Priority       ActionPriority `json:"priority"`
	ExpectedImpact float64        `json:"expected_impact"`
	Reason         string         `json:"reason,omitempty"`
}

// CritiqueResult scores a produced preview across the five dimensions.
// Produced fresh each iteration; never mutated.
type CritiqueResult struct {
	Dimensions      map[string]float64  `json:"dimensions"`
	Overall         float64             `json:"overall"`
	Verdict         QualityLevel        `json:"verdict"`
	BiggestWeakness string              `json:"biggest_weakness,omitempty"`
	Actions         []ImprovementAction `json:"actions,omitempty"`
	ShouldIterate   bool                `json:"should_iterate"`
	IterationFocus  string              `json:"iteration_focus,omitempty"`
	Confidence      float64             `json:"confidence"`
}
