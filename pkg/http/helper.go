package http

import (
	"net/http"
	"strconv"

	"ceramico/pkg/config"
	apperrors "ceramico/pkg/errors"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// RequesterID returns the authenticated caller identity set by the upstream
// auth proxy. Token verification itself happens outside this service.
func RequesterID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// IsAdmin reports whether the upstream auth proxy flagged the caller as an
// administrator.
func IsAdmin(r *http.Request) bool {
	return r.Header.Get("X-User-Role") == "admin"
}
