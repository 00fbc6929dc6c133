package shared

import (
	"net/http"
	"strconv"
)

const TotalCountHeader = "X-Total-Count"

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset from the query. Garbage and
// out-of-range values fall back to the defaults; limit is capped at maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	query := r.URL.Query()
	limit := queryInt(query.Get("limit"), defaultLimit, 1)
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Limit: limit, Offset: queryInt(query.Get("offset"), 0, 0)}
}

func queryInt(raw string, fallback, minimum int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < minimum {
		return fallback
	}
	return v
}

// WriteTotal reports the unpaged result size. Call it before the body is written.
func WriteTotal(w http.ResponseWriter, total int) {
	w.Header().Set(TotalCountHeader, strconv.Itoa(total))
}
