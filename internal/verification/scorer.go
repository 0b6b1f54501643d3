package verification

import (
	"strings"

	"haulcheck/internal/domain"
)

// fieldWeight assigns points for one successfully extracted field.
type fieldWeight struct {
	name   string
	points int
}

// kindPolicy is the declarative per-kind rule set: how much each signal
// contributes to the confidence score and where the decision floors sit.
// Weights per kind sum to 100.
type kindPolicy struct {
	verifierPoints int
	fields         []fieldWeight
	rejectFloor    int
	approveFloor   int
}

// Field name constants shared by the scorer and the extractor parsers.
const (
	FieldLicenceNumber = "licence_number"
	FieldPolicyNumber  = "policy_number"
	FieldIDNumber      = "id_number"
	FieldName          = "name"
	FieldDateOfBirth   = "date_of_birth"
	FieldValidTill     = "valid_till"
	FieldInsurer       = "insurer"
)

// The verifier verdict is the dominant signal for every kind. For insurance
// the verifier weight alone clears the approve floor, so a clean provider
// verdict can approve a policy even when OCR extraction failed entirely.
var kindPolicies = map[domain.DocumentKind]kindPolicy{
	domain.KindDriverLicense: {
		verifierPoints: 60,
		fields: []fieldWeight{
			{FieldLicenceNumber, 12},
			{FieldName, 8},
			{FieldDateOfBirth, 8},
			{FieldValidTill, 12},
		},
		rejectFloor:  80,
		approveFloor: 90,
	},
	domain.KindNationalID: {
		verifierPoints: 60,
		fields: []fieldWeight{
			{FieldIDNumber, 16},
			{FieldName, 12},
			{FieldDateOfBirth, 12},
		},
		rejectFloor:  80,
		approveFloor: 90,
	},
	domain.KindInsurance: {
		verifierPoints: 70,
		fields: []fieldWeight{
			{FieldPolicyNumber, 12},
			{FieldInsurer, 6},
			{FieldValidTill, 12},
		},
		rejectFloor:  70,
		approveFloor: 70,
	},
}

// Score blends extraction completeness and the verifier signal into a
// confidence score in [0,100]. Pure and deterministic; missing or malformed
// signals contribute zero, never negative, so adding a signal can only raise
// the score.
func Score(kind domain.DocumentKind, extraction domain.ExtractionResult, verdict domain.VerifierVerdict) int {
	policy, ok := kindPolicies[kind]
	if !ok {
		return 0
	}

	total := 0
	if verdict.Success {
		total += policy.verifierPoints
	}
	if extraction.Success {
		for _, fw := range policy.fields {
			if strings.TrimSpace(extraction.Field(fw.name)) != "" {
				total += fw.points
			}
		}
	}

	if total < 0 {
		return 0
	}
	if total > 100 {
		return 100
	}
	return total
}

// RequiredFields lists the scored extraction fields for a kind, in weight
// table order.
func RequiredFields(kind domain.DocumentKind) []string {
	policy, ok := kindPolicies[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(policy.fields))
	for _, fw := range policy.fields {
		names = append(names, fw.name)
	}
	return names
}
