package client

import (
	"github.com/hydrogenbond007/drand-rs/chain"
)

// RandomData holds the full random response from the server, including data needed
// for validation.
type RandomData struct {
	Rnd               uint64 `json:"round,omitempty"`
	Random            []byte `json:"randomness,omitempty"`
	Sig               []byte `json:"signature,omitempty"`
	PreviousSignature []byte `json:"previous_signature,omitempty"`
}

// Round provides access to the round associated with this random data.
func (r *RandomData) Round() uint64 {
	return r.Rnd
}

// Signature provides the signature over this round's randomness
func (r *RandomData) Signature() []byte {
	return r.Sig
}

// Randomness exports the randomness
func (r *RandomData) Randomness() []byte {
	return r.Random
}

// GetPreviousSignature provides the previous signature sent by the beacon,
// if nil, it's most likely using an unchained scheme.
func (r *RandomData) GetPreviousSignature() []byte {
	return r.PreviousSignature
}

// Beacon converts the random data to the beacon variant matching its wire shape.
func (r *RandomData) Beacon() chain.RandomnessBeacon {
	return chain.NewBeacon(r.Rnd, r.Random, r.Sig, r.PreviousSignature)
}
