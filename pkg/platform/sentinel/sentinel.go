package sentinel

import "errors"

// Sentinel errors for the verification engine. Stores and adapters return
// these (optionally wrapped) so services and transport can translate them
// without string matching.
//
// Taxonomy:
//   - ErrInvalidInput: malformed document reference or unknown kind; fatal to
//     the single request only.
//   - ErrNotFound: entity or aggregate does not exist.
//   - ErrIllegalTransition: a slot mutation that violates the approval state
//     machine invariants; the aggregate is left unchanged.
//   - ErrUnavailable: upstream extractor/verifier unavailable. The engine folds
//     this into success=false signals rather than escalating.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrUnavailable       = errors.New("unavailable")
)
