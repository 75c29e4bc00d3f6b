package dtos

type HealthCheckResponse struct {
	Status string `json:"status"`
}

// WhoAmIResponse is returned by backend services that expose the derived
// identity of the caller (used to exercise the validation middleware).
type WhoAmIResponse struct {
	SubjectID   string   `json:"subject_id"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
	// Source records whether the identity came from the gateway envelope
	// ("gateway") or from local token validation ("local").
	Source string `json:"source"`
}
