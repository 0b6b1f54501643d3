package domain

// Entity is a transporter (or shipper) under verification. IdentifyingFields
// carries the declared document numbers handed to the external verifier,
// keyed the same way as extraction fields (e.g. "licence_number").
type Entity struct {
	ID                string
	Name              string
	Phone             string
	IdentifyingFields map[string]string
}
