package usecase

// DomainError is a business-rule rejection: the request was understood and
// refused. Handlers map these to 4xx responses.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	_, ok := err.(*DomainError)
	return ok
}

// TechnicalError wraps store or collaborator failures. Handlers log these
// and answer 5xx; the local cache keeps its last-known-good state.
type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsTechnicalError(err error) bool {
	_, ok := err.(*TechnicalError)
	return ok
}

// Domain error codes used across the use cases.
const (
	CodeImportNoValidRows = "IMPORT_NO_VALID_ROWS"
	CodeAgentNotFound     = "AGENT_NOT_FOUND"
	CodeAgentNotBDA       = "AGENT_NOT_BDA"
	CodeLeadNotFound      = "LEAD_NOT_FOUND"
	CodeNoLeadsSelected   = "NO_LEADS_SELECTED"
	CodeStoreFailure      = "STORE_FAILURE"
)
