package extractor

import (
	"regexp"
	"strings"

	"haulcheck/internal/domain"
	"haulcheck/internal/verification"
)

// OCR text is noisy; these patterns target the document layouts seen in the
// field (Indian driving licences, Aadhaar-style national IDs, motor insurance
// certificates). Parsing is best-effort: an unmatched field is simply absent.
var (
	reAnyDate = regexp.MustCompile(`\d{2}[/\-.]\d{2}[/\-.]\d{4}`)
	reLicence = regexp.MustCompile(`\b[A-Z]{2}\s?\d{2}\s?\d{6,12}\b`)
	reIDNum   = regexp.MustCompile(`\b\d{4}\s?\d{4}\s?\d{4}\b`)
	rePolicy  = regexp.MustCompile(`POLICY\s*(?:NO|NUMBER)?[.:\s]*([A-Z0-9/\-]{6,})`)
	reInsurer = regexp.MustCompile(`(?m)^([A-Z][A-Z\s&.]{4,})\s+(?:GENERAL\s+)?INSURANCE`)
	reName    = regexp.MustCompile(`NAME[.:\s]+([A-Z][A-Z\s]{1,40})`)
)

// ParseFields pulls the scored fields for a kind out of raw OCR text.
func ParseFields(kind domain.DocumentKind, raw string) map[string]string {
	text := strings.ToUpper(raw)
	fields := make(map[string]string)

	switch kind {
	case domain.KindDriverLicense:
		put(fields, verification.FieldLicenceNumber, reLicence.FindString(text))
		put(fields, verification.FieldName, matchGroup(reName, text))
		put(fields, verification.FieldDateOfBirth, dateAfter(text, `DATE\s+OF\s+BIRTH|DOB`))
		put(fields, verification.FieldValidTill, dateAfter(text, `VALID\s+(?:TO|UPTO|TILL)|VALID`))
	case domain.KindNationalID:
		put(fields, verification.FieldIDNumber, reIDNum.FindString(text))
		put(fields, verification.FieldName, matchGroup(reName, text))
		put(fields, verification.FieldDateOfBirth, dateAfter(text, `DATE\s+OF\s+BIRTH|DOB|YEAR\s+OF\s+BIRTH`))
	case domain.KindInsurance:
		put(fields, verification.FieldPolicyNumber, matchGroup(rePolicy, text))
		put(fields, verification.FieldInsurer, matchGroup(reInsurer, text))
		put(fields, verification.FieldValidTill, dateAfter(text, `VALID\s+(?:TO|UPTO|TILL)|EXPIRY|PERIOD\s+OF\s+INSURANCE`))
	}

	return fields
}

func put(fields map[string]string, name, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fields[name] = value
	}
}

func matchGroup(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return ""
}

// dateAfter finds the first date following a marker; OCR often splits the
// label and the value across tokens, so search the remainder of the text.
func dateAfter(text, marker string) string {
	reMarker := regexp.MustCompile(marker)
	idx := reMarker.FindStringIndex(text)
	if idx == nil {
		return ""
	}
	return reAnyDate.FindString(text[idx[1]:])
}
