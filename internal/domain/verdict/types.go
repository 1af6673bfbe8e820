// Package verdict holds the Verdict value type the Session Orchestrator
// returns: the composed result of one verification request.
package verdict

import (
	"github.com/originwatch/originwatch/internal/domain/fingerprint"
	"github.com/originwatch/originwatch/internal/domain/flag"
	"github.com/originwatch/originwatch/internal/domain/risk"
	"github.com/originwatch/originwatch/internal/domain/vpn"
)

// Status is the overall authenticity verdict for one session.
type Status string

const (
	StatusAuthentic       Status = "authentic"
	StatusSuspicious      Status = "suspicious"
	StatusLikelySpoofed   Status = "likely_spoofed"
	StatusUnableToVerify  Status = "unable_to_verify"
)

// EnvironmentKind classifies the kind of client environment the
// Environment Analyzer inferred.
type EnvironmentKind string

const (
	EnvironmentLocalDesktop    EnvironmentKind = "local_desktop"
	EnvironmentPossiblyRemote  EnvironmentKind = "possibly_remote"
	EnvironmentRemoteDesktop   EnvironmentKind = "remote_desktop"
	EnvironmentVirtualMachine  EnvironmentKind = "virtual_machine"
)

// Verdict is the full response the Session Orchestrator returns for one
// verification request.
type Verdict struct {
	Status Status `json:"status"`

	LocationScore    int             `json:"locationScore"`
	EnvironmentScore int             `json:"environmentScore"`
	EnvironmentKind  EnvironmentKind `json:"environmentKind"`

	LocationFlags    []flag.Flag `json:"locationFlags"`
	EnvironmentFlags []flag.Flag `json:"environmentFlags"`

	VPN vpn.AggregateResult `json:"vpn"`

	Fingerprint fingerprint.SessionFingerprint `json:"fingerprint"`
	Risk        risk.Evaluation                `json:"risk"`

	// Diagnostics records non-fatal degradations encountered while
	// assembling the verdict (e.g. "vector store unavailable",
	// "environment analysis timed out"), preserving evidence instead of
	// failing the request.
	Diagnostics []string `json:"diagnostics,omitempty"`
}
