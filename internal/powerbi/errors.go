package powerbi

import "fmt"

// AuthError reports a failed token exchange: bad credentials, a disabled
// tenant, or a network failure reaching the login endpoint.
type AuthError struct {
	Status int // HTTP status from the token endpoint, 0 for transport errors
	Err    error
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("auth: token endpoint returned HTTP %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("auth: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// CatalogError reports a failed listing call. Op names the endpoint that
// failed (groups, reports, dashboards, datasets).
type CatalogError struct {
	Op     string
	Status int
	Err    error
}

func (e *CatalogError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog: listing %s returned HTTP %d", e.Op, e.Status)
	}
	return fmt.Sprintf("catalog: listing %s: %v", e.Op, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// QueryError reports a failed DAX execution. Malformed distinguishes a
// response whose body lacked the expected result/table/rows nesting from a
// plain transport or status failure.
type QueryError struct {
	Status    int
	Malformed bool
	Err       error
}

func (e *QueryError) Error() string {
	switch {
	case e.Malformed:
		return fmt.Sprintf("query: malformed response: %v", e.Err)
	case e.Status != 0:
		return fmt.Sprintf("query: engine returned HTTP %d: %v", e.Status, e.Err)
	default:
		return fmt.Sprintf("query: %v", e.Err)
	}
}

func (e *QueryError) Unwrap() error { return e.Err }
