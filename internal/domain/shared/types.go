package shared

// OutboxStatus defines event outbox publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// GlobalCountry marks catalog entries visible in every country.
const GlobalCountry = "GL"

// DefaultPageSize and MaxPageSize bound list queries.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage clamps limit/offset coming from user input.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
