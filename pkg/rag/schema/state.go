package schema

// State is the single mutable record threaded through the pipeline.
// Each stage writes its own fields exactly once; later stages only read
// them (or append to Errors). Never shared between concurrent queries.
type State struct {
	// Input
	Query   string
	UserID  string
	Filters map[string]interface{}

	// Language detection
	Language           string
	LanguageConfidence float64

	// Classifier output
	QueryType QueryType

	// Planner output
	SearchQueries []string

	// Retriever output
	Documents      []Document
	TotalRetrieved int

	// Analyzer output
	Analysis           string
	SourcesUsed        []string
	AnalysisConfidence float64

	// Synthesizer output
	Answer    string
	Citations []Citation

	// Validator output
	ValidationValid      bool
	ValidationConfidence float64
	ValidationIssues     []string

	// Non-fatal errors accumulated along the way
	Errors []string
}

// NewState initializes a state for one query run. Language defaults to
// English until detection runs; filters default to scoping by the
// requesting user.
func NewState(query, userID string, filters map[string]interface{}) *State {
	if filters == nil {
		filters = map[string]interface{}{"user_id": userID}
	}
	return &State{
		Query:           query,
		UserID:          userID,
		Filters:         filters,
		Language:        "en",
		QueryType:       "",
		SearchQueries:   []string{},
		Documents:       []Document{},
		SourcesUsed:     []string{},
		Citations:       []Citation{},
		ValidationValid: true,
		Errors:          []string{},
	}
}

// DocumentIDs returns the ids of the retrieved documents, in order.
func (s *State) DocumentIDs() []string {
	ids := make([]string, len(s.Documents))
	for i, d := range s.Documents {
		ids[i] = d.ID
	}
	return ids
}
