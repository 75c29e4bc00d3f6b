package models

// DerivedIdentity is the per-request materialization of the caller. It is
// built either from a validated access token or from the signed identity
// headers forwarded by the gateway, and lives only for one request.
type DerivedIdentity struct {
	SubjectID   string
	DisplayName string
	Roles       []string
}
