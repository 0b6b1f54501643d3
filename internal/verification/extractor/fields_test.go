package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"haulcheck/internal/domain"
	"haulcheck/internal/verification"
)

func TestParseFields_DriverLicense(t *testing.T) {
	raw := `
INDIAN UNION DRIVING LICENCE
DL NO: KA01 2034567890
NAME: ASHA KUMARI
DATE OF BIRTH: 14/02/1991
VALID TILL 13/02/2031
`
	fields := ParseFields(domain.KindDriverLicense, raw)

	assert.Equal(t, "KA01 2034567890", fields[verification.FieldLicenceNumber])
	assert.Contains(t, fields[verification.FieldName], "ASHA KUMARI")
	assert.Equal(t, "14/02/1991", fields[verification.FieldDateOfBirth])
	assert.Equal(t, "13/02/2031", fields[verification.FieldValidTill])
}

func TestParseFields_NationalID(t *testing.T) {
	raw := `
GOVERNMENT OF INDIA
NAME: RAVI SHANKAR
DOB: 02/11/1988
4444 5555 6666
`
	fields := ParseFields(domain.KindNationalID, raw)

	assert.Equal(t, "4444 5555 6666", fields[verification.FieldIDNumber])
	assert.Contains(t, fields[verification.FieldName], "RAVI SHANKAR")
	assert.Equal(t, "02/11/1988", fields[verification.FieldDateOfBirth])
}

func TestParseFields_Insurance(t *testing.T) {
	raw := `
ACME GENERAL INSURANCE COMPANY LTD
CERTIFICATE OF MOTOR INSURANCE
POLICY NO: 3001/A-998877/00
PERIOD OF INSURANCE: 01/04/2026 TO 31/03/2027
`
	fields := ParseFields(domain.KindInsurance, raw)

	assert.Equal(t, "3001/A-998877/00", fields[verification.FieldPolicyNumber])
	assert.Contains(t, fields[verification.FieldInsurer], "ACME")
	assert.Equal(t, "01/04/2026", fields[verification.FieldValidTill])
}

func TestParseFields_BestEffort(t *testing.T) {
	t.Run("empty text yields no fields", func(t *testing.T) {
		fields := ParseFields(domain.KindDriverLicense, "")
		assert.Empty(t, fields)
	})

	t.Run("garbage text yields no fields", func(t *testing.T) {
		fields := ParseFields(domain.KindInsurance, "%%%### unreadable scan ###%%%")
		assert.Empty(t, fields)
	})

	t.Run("partial match keeps what it found", func(t *testing.T) {
		fields := ParseFields(domain.KindDriverLicense, "DL NO KA05 9876543 SOMETHING ILLEGIBLE")
		assert.Equal(t, "KA05 9876543", fields[verification.FieldLicenceNumber])
		assert.NotContains(t, fields, verification.FieldDateOfBirth)
	})

	t.Run("lowercase input is normalized", func(t *testing.T) {
		fields := ParseFields(domain.KindNationalID, "name: sita devi\ndob: 05/05/1995")
		assert.Contains(t, fields[verification.FieldName], "SITA DEVI")
		assert.Equal(t, "05/05/1995", fields[verification.FieldDateOfBirth])
	})

	t.Run("unknown kind yields no fields", func(t *testing.T) {
		fields := ParseFields(domain.DocumentKind("passport"), "NAME: ANYONE")
		assert.Empty(t, fields)
	})
}

func TestParseFields_ParsedNamesScoreAgainstPolicy(t *testing.T) {
	// Every field the parser can emit must be one the scorer weighs.
	for _, kind := range domain.AllKinds() {
		scored := make(map[string]bool)
		for _, name := range verification.RequiredFields(kind) {
			scored[name] = true
		}
		fields := ParseFields(kind, sampleText(kind))
		for name := range fields {
			assert.True(t, scored[name], "parser for %s emitted unscored field %s", kind, name)
		}
	}
}

func sampleText(kind domain.DocumentKind) string {
	switch kind {
	case domain.KindDriverLicense:
		return "DL NO: KA01 2034567890 NAME: ASHA KUMARI DOB: 14/02/1991 VALID TILL 13/02/2031"
	case domain.KindNationalID:
		return "NAME: RAVI SHANKAR DOB: 02/11/1988 4444 5555 6666"
	default:
		return "ACME GENERAL INSURANCE\nPOLICY NO: 3001/A-998877/00 EXPIRY 31/03/2027"
	}
}
