package http

import (
	"net/url"
	"strconv"
)

func parsePage(q url.Values) (page, limit int) {
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

// parseSort reads sortBy/sortOrder. Field validation against the
// allow-list happens downstream; direction defaults to descending.
func parseSort(q url.Values) (sortBy string, desc bool) {
	sortBy = q.Get("sortBy")
	return sortBy, q.Get("sortOrder") != "asc"
}

func queryBool(q url.Values, key string) *bool {
	if v := q.Get(key); v != "" {
		b := v == "true"
		return &b
	}
	return nil
}

func queryFloat(q url.Values, key string) *float64 {
	if v := q.Get(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

func queryInt(q url.Values, key string) *int {
	if v := q.Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return &n
		}
	}
	return nil
}
