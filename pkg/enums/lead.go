package enums

// Default funnel stage names seeded for every new store. Stores may add
// custom stages on top; leads reference stages by lowercased name.
const (
	StageUnidentified = "unidentified"
	StageAcquired     = "acquired"
	StageConversing   = "conversing"
	StageSold         = "sold"
	StageLost         = "lost"
)

// DefaultFunnelStage pairs a seeded stage name with its board color.
type DefaultFunnelStage struct {
	Name  string
	Color string
}

// DefaultFunnelStages returns the four stages every store starts with,
// in board order. Unidentified is reserved for checkout-created leads
// and sits before the configurable stages.
func DefaultFunnelStages() []DefaultFunnelStage {
	return []DefaultFunnelStage{
		{Name: StageAcquired, Color: "#3b82f6"},
		{Name: StageConversing, Color: "#f59e0b"},
		{Name: StageSold, Color: "#22c55e"},
		{Name: StageLost, Color: "#ef4444"},
	}
}

// LeadSource describes where a CRM lead originated.
type LeadSource string

const (
	LeadSourceCheckout LeadSource = "checkout"
	LeadSourceManual   LeadSource = "manual"
)

var validLeadSources = []LeadSource{
	LeadSourceCheckout,
	LeadSourceManual,
}

// IsValid reports whether the value matches the canonical lead source enum.
func (s LeadSource) IsValid() bool {
	for _, candidate := range validLeadSources {
		if candidate == s {
			return true
		}
	}
	return false
}
