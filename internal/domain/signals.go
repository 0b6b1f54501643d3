package domain

// ExtractionResult holds the structured fields pulled out of a submitted
// document image. Extraction may partially fail: any subset of the expected
// fields can be missing, and Success is false when the OCR step produced no
// usable text at all.
type ExtractionResult struct {
	Kind    DocumentKind
	Fields  map[string]string
	RawText string
	Success bool
}

// Field returns the named extracted field, or "" when absent.
func (r ExtractionResult) Field(name string) string {
	return r.Fields[name]
}

// VerifierVerdict is the outcome of an external identity/license verification
// call. Success reports whether the call itself completed; Valid is the
// provider's answer and is meaningful only when Success is true. A successful
// call can still say "invalid".
type VerifierVerdict struct {
	Kind    DocumentKind
	Valid   bool
	Payload map[string]any
	Success bool
}
