// Package outcome tracks the real-world result of past decisions: harm
// classification, remediation notes, and automatic incident escalation.
package outcome

import (
	"time"

	"veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
)

// Type classifies how a decision turned out.
type Type string

const (
	TypeCorrect             Type = "correct"
	TypeIncorrect           Type = "incorrect"
	TypeHarmful             Type = "harmful"
	TypeReversed            Type = "reversed"
	TypeUnknown             Type = "unknown"
	TypePendingVerification Type = "pending_verification"
)

// ParseType validates an outcome type string.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeCorrect, TypeIncorrect, TypeHarmful, TypeReversed, TypeUnknown, TypePendingVerification:
		return t, nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown outcome_type %q", s)
	}
}

// HarmCategory names the kind of real-world damage attributed to a decision.
type HarmCategory string

const (
	HarmCategoryNone           HarmCategory = "none"
	HarmCategoryFinancial      HarmCategory = "financial"
	HarmCategoryLegal          HarmCategory = "legal"
	HarmCategoryReputational   HarmCategory = "reputational"
	HarmCategorySafety         HarmCategory = "safety"
	HarmCategoryDiscrimination HarmCategory = "discrimination"
	HarmCategoryPrivacy        HarmCategory = "privacy"
)

// ParseHarmCategory validates a harm category string; empty means none.
func ParseHarmCategory(s string) (HarmCategory, error) {
	if s == "" {
		return HarmCategoryNone, nil
	}
	switch c := HarmCategory(s); c {
	case HarmCategoryNone, HarmCategoryFinancial, HarmCategoryLegal, HarmCategoryReputational,
		HarmCategorySafety, HarmCategoryDiscrimination, HarmCategoryPrivacy:
		return c, nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown harm_category %q", s)
	}
}

// HarmSeverity grades how bad the damage is.
type HarmSeverity string

const (
	HarmSeverityNone     HarmSeverity = "none"
	HarmSeverityLow      HarmSeverity = "low"
	HarmSeverityMedium   HarmSeverity = "medium"
	HarmSeverityHigh     HarmSeverity = "high"
	HarmSeverityCritical HarmSeverity = "critical"
)

// ParseHarmSeverity validates a harm severity string; empty means none.
func ParseHarmSeverity(s string) (HarmSeverity, error) {
	if s == "" {
		return HarmSeverityNone, nil
	}
	switch v := HarmSeverity(s); v {
	case HarmSeverityNone, HarmSeverityLow, HarmSeverityMedium, HarmSeverityHigh, HarmSeverityCritical:
		return v, nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown harm_severity %q", s)
	}
}

// Outcome is the mutable judgment about one immutable decision. At most one
// exists per decision; later reports overwrite earlier ones.
type Outcome struct {
	ID         domain.OutcomeID  `json:"id"`
	DecisionID domain.DecisionID `json:"decision_id"`

	Type         Type         `json:"outcome_type"`
	HarmCategory HarmCategory `json:"harm_category"`
	HarmSeverity HarmSeverity `json:"harm_severity"`

	Details          string `json:"outcome_details,omitempty"`
	RemediationTaken string `json:"remediation_taken,omitempty"`
	VerifiedBy       string `json:"verified_by,omitempty"`

	// IncidentID is set once escalation has created an incident; it is
	// never cleared by later downgrades.
	IncidentID *domain.IncidentID `json:"incident_id,omitempty"`

	DetectedAt time.Time `json:"detected_at"`
}

// ValidateClassification enforces consistency between outcome type and harm
// classification before anything is persisted.
func (o *Outcome) ValidateClassification() error {
	if o.Type == TypeHarmful {
		if o.HarmCategory == HarmCategoryNone {
			return dErrors.New(dErrors.CodeValidation, "harmful outcomes require a harm_category other than none")
		}
		if o.HarmSeverity == HarmSeverityNone {
			return dErrors.New(dErrors.CodeValidation, "harmful outcomes require a harm_severity other than none")
		}
	}
	if o.Type == TypeCorrect && o.HarmCategory != HarmCategoryNone {
		return dErrors.New(dErrors.CodeValidation, "correct outcomes cannot carry a harm_category")
	}
	return nil
}

// ShouldEscalate reports whether this outcome crosses the incident
// threshold: harmful with high or critical severity.
func (o *Outcome) ShouldEscalate() bool {
	return o.Type == TypeHarmful &&
		(o.HarmSeverity == HarmSeverityHigh || o.HarmSeverity == HarmSeverityCritical)
}
