package enums

// BatchStatus is derived from the status counts of a batch's members. It is
// never persisted.
type BatchStatus string

const (
	BatchStatusPending       BatchStatus = "Pending"
	BatchStatusListed        BatchStatus = "Listed"
	BatchStatusPaid          BatchStatus = "Paid"
	BatchStatusPartiallyPaid BatchStatus = "Partially Paid"
	BatchStatusProcessed     BatchStatus = "Processed"
)

// DeriveBatchStatus computes the display status for a batch from its member
// status counts. The checks run in priority order and the first match wins:
// any Pending member dominates, then any Listed member, then fully Paid,
// then partially Paid. A batch of only terminal statuses (Rejected,
// Verified, free text) is Processed.
func DeriveBatchStatus(statusCounts map[CodeStatus]int, total int) BatchStatus {
	switch {
	case statusCounts[CodeStatusPending] > 0:
		return BatchStatusPending
	case statusCounts[CodeStatusListed] > 0:
		return BatchStatusListed
	case total > 0 && statusCounts[CodeStatusPaid] == total:
		return BatchStatusPaid
	case statusCounts[CodeStatusPaid] > 0:
		return BatchStatusPartiallyPaid
	default:
		return BatchStatusProcessed
	}
}
