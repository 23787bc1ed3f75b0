package model

import "strings"

// Verdict is the outcome of identity verification.
type Verdict int

const (
	VerdictInconclusive Verdict = iota
	VerdictVerified
	VerdictUnverified
)

func (v Verdict) String() string {
	switch v {
	case VerdictVerified:
		return "Verified"
	case VerdictUnverified:
		return "Unverified"
	default:
		return "Inconclusive"
	}
}

// MarshalText renders the verdict name in JSON output.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Verification pairs a verdict with the ordered audit trail that produced it.
type Verification struct {
	Verdict  Verdict  `json:"verdict"`
	AuditLog []string `json:"audit_log"`
}

// Log appends an entry to the audit trail.
func (v *Verification) Log(entry string) {
	v.AuditLog = append(v.AuditLog, entry)
}

// AuditText joins the audit trail into a single record-store value.
func (v *Verification) AuditText() string {
	return strings.Join(v.AuditLog, " | ")
}
