package domain

import "fmt"

// DocumentKind enumerates the document types a transporter submits during
// onboarding. Each kind carries its own extraction schema, scorer weights,
// and decision thresholds.
type DocumentKind string

const (
	KindDriverLicense DocumentKind = "driver_license"
	KindInsurance     DocumentKind = "insurance"
	KindNationalID    DocumentKind = "national_id"
)

var allKinds = []DocumentKind{KindDriverLicense, KindInsurance, KindNationalID}

// AllKinds returns every supported document kind in a stable order.
func AllKinds() []DocumentKind {
	kinds := make([]DocumentKind, len(allKinds))
	copy(kinds, allKinds)
	return kinds
}

// ParseDocumentKind validates and returns a DocumentKind.
func ParseDocumentKind(s string) (DocumentKind, error) {
	k := DocumentKind(s)
	for _, known := range allKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown document kind: %q", s)
}

func (k DocumentKind) String() string {
	return string(k)
}
