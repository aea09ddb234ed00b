package retrieve

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"multilingual-rag-be/pkg/rag/schema"
)

// Searcher is the vector-search collaborator. Implementations run a
// similarity search scoped by the caller's filters and drop hits below
// minScore.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, filters map[string]interface{}, minScore float64) ([]schema.Document, error)
}

// Config carries the retrieval tuning knobs.
type Config struct {
	TopKRetrieval int     // over-fetch size per search query
	TopKRerank    int     // default final result count when the caller passes none
	MinScore      float64 // similarity threshold applied by the searcher
}

// Result is the retrieval outcome plus the counts the later stages report.
type Result struct {
	Documents       []schema.Document
	TotalRetrieved  int // hits across all queries, before fusion
	UniqueDocuments int // distinct document ids after fusion
	QueryCount      int
}

// Retriever fans the planned search queries out to the vector store,
// fuses the per-query hits by document id and reranks the survivors by
// query frequency. It never calls the language model.
type Retriever struct {
	searcher Searcher
	config   Config
	logger   *log.Logger
}

func NewRetriever(searcher Searcher, config Config, logger *log.Logger) *Retriever {
	return &Retriever{
		searcher: searcher,
		config:   config,
		logger:   logger,
	}
}

// Retrieve runs every search query, joins the results deterministically and
// reduces them to at most topK documents. The per-query searches are
// independent, so they run concurrently; fusion starts only after all have
// returned. Any single search failure fails the whole retrieval.
func (r *Retriever) Retrieve(ctx context.Context, searchQueries []string, filters map[string]interface{}, topK int, rerank bool) (*Result, error) {
	if topK <= 0 {
		topK = r.config.TopKRerank
	}

	r.logger.Printf("[RETRIEVER] Retrieving with %d queries, top_k=%d", len(searchQueries), topK)

	resultsByQuery := make([][]schema.Document, len(searchQueries))
	errs := make([]error, len(searchQueries))

	var wg sync.WaitGroup
	for i, query := range searchQueries {
		wg.Add(1)
		go func(idx int, q string) {
			defer wg.Done()

			docs, err := r.searcher.Search(ctx, q, r.config.TopKRetrieval, filters, r.config.MinScore)
			if err != nil {
				errs[idx] = fmt.Errorf("search for query %d failed: %w", idx+1, err)
				return
			}

			// Tag each hit with the query that produced it. Searchers may
			// hand out records sharing one metadata map, so tag a copy.
			for j := range docs {
				meta := make(map[string]interface{}, len(docs[j].Metadata)+2)
				for k, v := range docs[j].Metadata {
					meta[k] = v
				}
				meta[schema.MetaSourceQuery] = q
				meta[schema.MetaQueryIndex] = idx + 1
				docs[j].Metadata = meta
			}
			resultsByQuery[idx] = docs
		}(i, query)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	totalRetrieved := 0
	for _, docs := range resultsByQuery {
		totalRetrieved += len(docs)
	}
	r.logger.Printf("[RETRIEVER] Total retrieved: %d documents", totalRetrieved)

	unique := fuse(resultsByQuery)
	r.logger.Printf("[RETRIEVER] After fusion: %d unique documents", len(unique))

	var final []schema.Document
	if rerank && len(unique) > topK {
		final = rerankDocs(unique, topK, r.logger)
	} else {
		final = topByScore(unique, topK)
	}

	r.logger.Printf("[RETRIEVER] Returning %d documents", len(final))

	return &Result{
		Documents:       final,
		TotalRetrieved:  totalRetrieved,
		UniqueDocuments: len(unique),
		QueryCount:      len(searchQueries),
	}, nil
}

// fuse groups hits by document id across all queries and keeps the single
// highest-scoring record per group. Deduplication is by id equality only;
// near-duplicate text under different ids survives fusion. QueryMatches
// counts how many distinct queries returned the document, which feeds the
// rerank bonus. Output order is first-seen, which keeps ties deterministic.
func fuse(resultsByQuery [][]schema.Document) []schema.Document {
	var order []string
	best := make(map[string]schema.Document)
	matches := make(map[string]int)

	for _, docs := range resultsByQuery {
		seenThisQuery := make(map[string]bool)
		for _, doc := range docs {
			id := doc.ID

			if !seenThisQuery[id] {
				seenThisQuery[id] = true
				matches[id]++
			}

			current, seen := best[id]
			if !seen {
				order = append(order, id)
				best[id] = doc
				continue
			}
			if doc.Score > current.Score {
				best[id] = doc
			}
		}
	}

	unique := make([]schema.Document, 0, len(order))
	for _, id := range order {
		doc := best[id]
		doc.QueryMatches = matches[id]
		unique = append(unique, doc)
	}
	return unique
}

// rerankDocs boosts documents that matched several queries: 5% bonus per
// extra match, capped so the adjusted score never exceeds 1.0.
func rerankDocs(unique []schema.Document, topK int, logger *log.Logger) []schema.Document {
	logger.Printf("[RETRIEVER] Reranking %d documents", len(unique))

	docs := make([]schema.Document, len(unique))
	copy(docs, unique)

	for i := range docs {
		bonus := 0.05 * float64(docs[i].QueryMatches-1)
		adjusted := docs[i].Score + bonus
		if adjusted > 1.0 {
			adjusted = 1.0
		}
		docs[i].RerankScore = adjusted
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].RerankScore > docs[j].RerankScore
	})

	if len(docs) > topK {
		docs = docs[:topK]
	}
	return docs
}

// topByScore sorts by the original similarity score, first-seen order on ties.
func topByScore(unique []schema.Document, topK int) []schema.Document {
	docs := make([]schema.Document, len(unique))
	copy(docs, unique)

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Score > docs[j].Score
	})

	if len(docs) > topK {
		docs = docs[:topK]
	}
	return docs
}
