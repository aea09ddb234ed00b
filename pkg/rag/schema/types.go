package schema

// QueryType classifies what kind of answer a query is asking for.
// The classifier coerces any malformed model output into one of these.
type QueryType string

const (
	QueryTypeSimpleQA      QueryType = "SIMPLE_QA"
	QueryTypeComparison    QueryType = "COMPARISON"
	QueryTypeSummarization QueryType = "SUMMARIZATION"
	QueryTypeAnalysis      QueryType = "ANALYSIS"
	QueryTypeExtraction    QueryType = "EXTRACTION"
	QueryTypeMultiHop      QueryType = "MULTI_HOP"
)

// ValidQueryTypes lists all categories in coercion order: substring
// matching against malformed classifier output walks this slice and the
// first hit wins.
var ValidQueryTypes = []QueryType{
	QueryTypeSimpleQA,
	QueryTypeComparison,
	QueryTypeSummarization,
	QueryTypeAnalysis,
	QueryTypeExtraction,
	QueryTypeMultiHop,
}

// Document is one retrieved evidence unit. Produced by the vector-search
// collaborator, owned by the pipeline state once returned. Score is the
// original similarity in [0,1]; RerankScore is attached by the retriever
// when multi-query rerank runs and is zero otherwise.
type Document struct {
	ID           string
	Text         string
	Score        float64
	RerankScore  float64
	QueryMatches int
	Metadata     map[string]interface{}
}

// Metadata keys the retriever stamps onto every returned document.
const (
	MetaSourceQuery = "source_query"
	MetaQueryIndex  = "query_index"
)

// Citation is a reference extracted from generated text.
// Position is the byte offset of the marker start; Text is the literal
// matched marker.
type Citation struct {
	DocID    string `json:"doc_id"`
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// Source is the capped preview of a retrieved document returned to callers.
type Source struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}
