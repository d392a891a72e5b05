package reconciliation

// ResolutionStatus describes the outcome of resolving a deal's external
// CRM link against the mirror table.
type ResolutionStatus string

const (
	// ResolutionFound means the mirror row exists and was loaded
	ResolutionFound ResolutionStatus = "FOUND"
	// ResolutionNotFound covers both a deal with no external id and an id
	// with no mirror row; either way the external side reads as zero.
	ResolutionNotFound ResolutionStatus = "NOT_FOUND"
	// ResolutionError means the mirror lookup itself failed
	ResolutionError ResolutionStatus = "ERROR"
)

// ExternalReference is the resolved (or unresolved) link between a deal and
// its mirrored CRM opportunity. It replaces ad hoc nullable-string matching
// with an explicit found / not-found / query-error contract.
type ExternalReference struct {
	sfID        string
	status      ResolutionStatus
	opportunity *Opportunity
	err         error
}

// FoundReference builds a resolved reference carrying the mirror row
func FoundReference(opportunity *Opportunity) ExternalReference {
	return ExternalReference{
		sfID:        opportunity.SFID,
		status:      ResolutionFound,
		opportunity: opportunity,
	}
}

// MissingReference builds a reference for a deal that was never pushed to
// the external system, or whose id has no mirror row. sfID may be empty.
func MissingReference(sfID string) ExternalReference {
	return ExternalReference{sfID: sfID, status: ResolutionNotFound}
}

// ErroredReference builds a reference whose mirror lookup failed
func ErroredReference(sfID string, err error) ExternalReference {
	return ExternalReference{sfID: sfID, status: ResolutionError, err: err}
}

// SFID returns the external identifier, empty when the deal has none
func (r ExternalReference) SFID() string {
	return r.sfID
}

// Status returns the resolution status
func (r ExternalReference) Status() ResolutionStatus {
	return r.status
}

// Opportunity returns the mirror row, nil unless Status is FOUND
func (r ExternalReference) Opportunity() *Opportunity {
	return r.opportunity
}

// Err returns the lookup error, nil unless Status is ERROR
func (r ExternalReference) Err() error {
	return r.err
}

// IsFound returns true when the mirror row was loaded
func (r ExternalReference) IsFound() bool {
	return r.status == ResolutionFound
}
