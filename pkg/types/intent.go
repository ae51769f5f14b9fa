package types

// IntentType tags the fixed set of structured query intents
type IntentType string

const (
	IntentSearch      IntentType = "search"
	IntentFilterDate  IntentType = "filter_date"
	IntentFilterType  IntentType = "filter_type"
	IntentFilterOwner IntentType = "filter_owner"
	IntentSort        IntentType = "sort"
	IntentCount       IntentType = "count"
	IntentSummary     IntentType = "summary"
)

// ValidIntentTypes is the closed set of intent tags the classifier may emit
var ValidIntentTypes = map[IntentType]bool{
	IntentSearch:      true,
	IntentFilterDate:  true,
	IntentFilterType:  true,
	IntentFilterOwner: true,
	IntentSort:        true,
	IntentCount:       true,
	IntentSummary:     true,
}

// Intent is the structured form of a free-text question. It is produced only
// by the classifier's normalization boundary and is immutable afterwards.
// Only the parameters matching Type are meaningful.
type Intent struct {
	Type IntentType `json:"type"`

	// search
	Query string `json:"query,omitempty"`

	// filter_date (ISO dates; malformed bounds are ignored at execution)
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// filter_type
	MimeType string `json:"mimeType,omitempty"`

	// filter_owner
	Owner string `json:"owner,omitempty"`

	// sort
	SortBy string `json:"sortBy,omitempty"`
	Order  string `json:"order,omitempty"`
	Limit  int    `json:"limit,omitempty"`

	// count
	Filter string `json:"filter,omitempty"`
}

// SummaryIntent is the safe fallback for unrecognized classifier output
func SummaryIntent() Intent {
	return Intent{Type: IntentSummary}
}

// QueryResult is the ephemeral outcome of executing one intent
type QueryResult struct {
	Files []FileProjection `json:"files"`
	Total *int64           `json:"total,omitempty"`
	Stats *SummaryStats    `json:"stats,omitempty"`
}

// SummaryStats aggregates the corpus for summary intents
type SummaryStats struct {
	TopTypes         []TypeCount  `json:"topTypes"`
	TopOwners        []OwnerCount `json:"topOwners"`
	UniqueOwners     int          `json:"uniqueOwners"`
	DateDistribution []MonthCount `json:"dateDistribution"`
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type OwnerCount struct {
	Owner string `json:"owner"`
	Count int    `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}
