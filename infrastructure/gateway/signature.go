package gateway

import (
	"github.com/oneelevenhq/leadbridge/pkg/utils"
)

// SignatureVerifier authenticates webhook calls against the deployment-wide
// secret. The signed material is workspaceId + ":" + instanceName, so a URL
// provisioned for one (workspace, instance) pair cannot be replayed for
// another.
type SignatureVerifier struct {
	secret string
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: secret}
}

// Enabled reports whether a secret is configured. When false the deployment
// runs in open mode and Verify accepts everything.
func (v *SignatureVerifier) Enabled() bool {
	return v.secret != ""
}

// Verify checks the caller-supplied hex signature in constant time.
// Malformed input counts as a mismatch; it never errors.
func (v *SignatureVerifier) Verify(workspaceID, instanceName, signature string) bool {
	if !v.Enabled() {
		return true
	}
	return utils.ValidMAC([]byte(workspaceID+":"+instanceName), signature, []byte(v.secret))
}

// Sign produces the hex signature embedded into webhook URLs at
// provisioning time. Empty in open mode.
func (v *SignatureVerifier) Sign(workspaceID, instanceName string) string {
	if !v.Enabled() {
		return ""
	}
	return utils.MessageDigest([]byte(workspaceID+":"+instanceName), []byte(v.secret))
}
