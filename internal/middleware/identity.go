package middleware

import (
	"net/http"
	"strings"

	"github.com/homematch/credential-platform/internal/models"
	"github.com/homematch/credential-platform/internal/utils"
)

// Trust-propagation headers. The gateway sets all four after its revocation
// check; backends accept them only when the signature verifies, so a client
// reaching a backend directly cannot inject an identity.
const (
	HeaderSubject   = "X-Auth-Subject"
	HeaderName      = "X-Auth-Name"
	HeaderRoles     = "X-Auth-Roles"
	HeaderSignature = "X-Auth-Signature"
)

const envelopeSeparator = "\n"

// AttachIdentity writes the identity headers plus the HMAC envelope onto a
// request about to be proxied to a backend.
func AttachIdentity(r *http.Request, identity *models.DerivedIdentity, secret []byte) {
	roles := strings.Join(identity.Roles, ",")
	r.Header.Set(HeaderSubject, identity.SubjectID)
	r.Header.Set(HeaderName, identity.DisplayName)
	r.Header.Set(HeaderRoles, roles)
	r.Header.Set(HeaderSignature, signEnvelope(secret, identity.SubjectID, identity.DisplayName, roles))
}

// StripIdentityHeaders removes any client-supplied copies of the identity
// headers before the gateway decides whether to re-attach them.
func StripIdentityHeaders(r *http.Request) {
	r.Header.Del(HeaderSubject)
	r.Header.Del(HeaderName)
	r.Header.Del(HeaderRoles)
	r.Header.Del(HeaderSignature)
}

// IdentityFromHeaders reconstructs the forwarded identity when the envelope
// signature verifies. Returns nil when the headers are absent or tampered;
// the caller then falls back to local token validation.
func IdentityFromHeaders(r *http.Request, secret []byte) *models.DerivedIdentity {
	sub := r.Header.Get(HeaderSubject)
	sig := r.Header.Get(HeaderSignature)
	if sub == "" || sig == "" {
		return nil
	}

	name := r.Header.Get(HeaderName)
	roles := r.Header.Get(HeaderRoles)

	if !utils.VerifyMessage(secret, envelopeMessage(sub, name, roles), sig) {
		utils.Logger.Warn("Identity envelope signature mismatch; falling back to local validation")
		return nil
	}

	identity := &models.DerivedIdentity{
		SubjectID:   sub,
		DisplayName: name,
	}
	if roles != "" {
		identity.Roles = strings.Split(roles, ",")
	}
	return identity
}

func signEnvelope(secret []byte, sub, name, roles string) string {
	return utils.SignMessage(secret, envelopeMessage(sub, name, roles))
}

func envelopeMessage(sub, name, roles string) string {
	return sub + envelopeSeparator + name + envelopeSeparator + roles
}
