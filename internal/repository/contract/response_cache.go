package contract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"multilingual-rag-be/pkg/rag/schema"

	"github.com/google/uuid"
)

// ResponseCache stores finished query results so repeated questions skip the
// whole pipeline. Implementations are best-effort: a miss or storage failure
// must never fail the query itself.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*schema.Result, bool)
	Set(ctx context.Context, key string, result *schema.Result)
	InvalidateUser(ctx context.Context, userId uuid.UUID)
}

// CacheKey builds a deterministic key from the user, the raw query text and
// the retrieval filters. Filter maps are serialized with sorted keys so two
// equal filter sets always hash the same.
func CacheKey(userId uuid.UUID, query string, filters map[string]interface{}) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(query))
	for _, k := range keys {
		v, _ := json.Marshal(filters[k])
		fmt.Fprintf(h, "|%s=%s", k, v)
	}

	return fmt.Sprintf("query_cache:%s:%s", userId, hex.EncodeToString(h.Sum(nil)))
}
