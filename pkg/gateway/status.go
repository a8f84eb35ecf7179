package gateway

// Status is the internal payment status a provider status translates to.
// Values match the order lifecycle statuses.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusFailed   Status = "FAILED"
	StatusCanceled Status = "CANCELED"
	StatusRefunded Status = "REFUNDED"
)

// statusTable maps provider statuses to internal ones.
var statusTable = map[string]Status{
	"approved":     StatusPaid,
	"pending":      StatusPending,
	"in_process":   StatusPending,
	"authorized":   StatusPending,
	"in_mediation": StatusPending,
	"rejected":     StatusFailed,
	"cancelled":    StatusCanceled,
	"refunded":     StatusRefunded,
	"charged_back": StatusRefunded,
}

// TranslateStatus maps a provider status to the internal one. Unknown
// statuses map to PENDING so an unexpected provider value is never silently
// treated as final.
func TranslateStatus(providerStatus string) Status {
	if s, ok := statusTable[providerStatus]; ok {
		return s
	}
	return StatusPending
}
