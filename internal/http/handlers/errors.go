// HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them for
// programmatic error handling, so renaming one is a breaking change.
// Handlers pick the most specific matching code and pass it to fail()
// together with the HTTP status and a human-readable message.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeNoValidReviews = "no_valid_reviews"
	ErrCodeAnalysisFailed = "analysis_failed"
	ErrCodeScrapeFailed   = "scrape_failed"
	ErrCodeNoActiveRun    = "no_active_analysis"
)
