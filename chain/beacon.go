package chain

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	json "github.com/nikkolasg/hexjson"

	"github.com/hydrogenbond007/drand-rs/crypto"
)

// RandomnessBeacon is one published round of randomness together with the material needed to
// verify it against the chain's public key. Beacons come in two variants, chained and unchained,
// and are immutable once constructed.
type RandomnessBeacon interface {
	// Round is the round number this beacon is tied to
	Round() uint64
	// Randomness is the hashed signature of this round
	Randomness() []byte
	// Signature is the BLS deterministic signature over Message
	Signature() []byte
	// Message returns the bytes that were signed for this beacon's round
	Message() []byte
	// SchemeID is the identifier of the scheme this beacon was generated under,
	// derived from the beacon's wire shape
	SchemeID() string
}

// signature length, in bytes, on each group of BLS12-381
const (
	SignatureLengthG1 = 48
	SignatureLengthG2 = 96
)

// schemeForShape derives the scheme identifier of a beacon from its wire shape alone. A previous
// signature means the original chained scheme; for unchained beacons a 48 byte signature sits on
// G1 while the default pedersen variant signs on G2. The byte-length convention is fragile if a
// future scheme reuses a length, which is why the rule lives here and nowhere else.
func schemeForShape(sig []byte, chained bool) string {
	if chained {
		return crypto.DefaultSchemeID
	}
	if len(sig) == SignatureLengthG1 {
		return crypto.ShortSigSchemeID
	}
	return crypto.UnchainedSchemeID
}

// IsUnchained returns true when the beacon's signature depends only on its round number.
func IsUnchained(b RandomnessBeacon) bool {
	return strings.Contains(b.SchemeID(), "unchained")
}

// IsChained returns true when the beacon's signature embeds the previous round's signature.
func IsChained(b RandomnessBeacon) bool {
	return !IsUnchained(b)
}

// IsSignatureOnG1 returns true when the beacon's signature lives on G1, i.e. is 48 bytes.
func IsSignatureOnG1(b RandomnessBeacon) bool {
	return strings.Contains(b.SchemeID(), "on-g1")
}

// ChainedBeacon is a beacon whose signature depends on the previous round's signature as well as
// on the round number, forming a verifiable hash chain across rounds.
type ChainedBeacon struct {
	round       uint64
	randomness  []byte
	signature   []byte
	previousSig []byte
}

// NewChainedBeacon assembles a chained beacon from its wire fields.
func NewChainedBeacon(round uint64, randomness, signature, previousSig []byte) *ChainedBeacon {
	return &ChainedBeacon{
		round:       round,
		randomness:  randomness,
		signature:   signature,
		previousSig: previousSig,
	}
}

func (b *ChainedBeacon) Round() uint64 {
	return b.round
}

func (b *ChainedBeacon) Randomness() []byte {
	return b.randomness
}

func (b *ChainedBeacon) Signature() []byte {
	return b.signature
}

// PreviousSignature is the signature of the round before this one.
func (b *ChainedBeacon) PreviousSignature() []byte {
	return b.previousSig
}

func (b *ChainedBeacon) SchemeID() string {
	return schemeForShape(b.signature, true)
}

// Message returns the bytes signed for this round:
// H( prevSig || currRound )
func (b *ChainedBeacon) Message() []byte {
	h := sha256.New()
	_, _ = h.Write(b.previousSig)
	_, _ = h.Write(RoundToBytes(b.round))
	return h.Sum(nil)
}

// Equal indicates if two beacons are equal
func (b *ChainedBeacon) Equal(b2 *ChainedBeacon) bool {
	return b.round == b2.round &&
		bytes.Equal(b.randomness, b2.randomness) &&
		bytes.Equal(b.signature, b2.signature) &&
		bytes.Equal(b.previousSig, b2.previousSig)
}

func (b *ChainedBeacon) String() string {
	return fmt.Sprintf("{ round: %d, sig: %s, prevSig: %s }",
		b.round, shortSigStr(b.signature), shortSigStr(b.previousSig))
}

// UnchainedBeacon is a beacon whose signature only depends on the round number, so each round is
// independently verifiable without chain history.
type UnchainedBeacon struct {
	round      uint64
	randomness []byte
	signature  []byte
}

// NewUnchainedBeacon assembles an unchained beacon from its wire fields.
func NewUnchainedBeacon(round uint64, randomness, signature []byte) *UnchainedBeacon {
	return &UnchainedBeacon{
		round:      round,
		randomness: randomness,
		signature:  signature,
	}
}

func (b *UnchainedBeacon) Round() uint64 {
	return b.round
}

func (b *UnchainedBeacon) Randomness() []byte {
	return b.randomness
}

func (b *UnchainedBeacon) Signature() []byte {
	return b.signature
}

func (b *UnchainedBeacon) SchemeID() string {
	return schemeForShape(b.signature, false)
}

// Message returns the bytes signed for this round:
// H( currRound )
func (b *UnchainedBeacon) Message() []byte {
	h := sha256.New()
	_, _ = h.Write(RoundToBytes(b.round))
	return h.Sum(nil)
}

// Equal indicates if two beacons are equal
func (b *UnchainedBeacon) Equal(b2 *UnchainedBeacon) bool {
	return b.round == b2.round &&
		bytes.Equal(b.randomness, b2.randomness) &&
		bytes.Equal(b.signature, b2.signature)
}

func (b *UnchainedBeacon) String() string {
	return fmt.Sprintf("{ round: %d, sig: %s }", b.round, shortSigStr(b.signature))
}

// wireBeacon is the JSON shape of the /public endpoints.
type wireBeacon struct {
	Round       uint64 `json:"round"`
	Randomness  []byte `json:"randomness"`
	Signature   []byte `json:"signature"`
	PreviousSig []byte `json:"previous_signature,omitempty"`
}

// NewBeacon picks the beacon variant matching the wire fields: a non-empty previous signature
// means the chained variant.
func NewBeacon(round uint64, randomness, signature, previousSig []byte) RandomnessBeacon {
	if len(previousSig) > 0 {
		return NewChainedBeacon(round, randomness, signature, previousSig)
	}
	return NewUnchainedBeacon(round, randomness, signature)
}

// BeaconFromJSON decodes a beacon from its JSON encoding, with byte fields in hex.
func BeaconFromJSON(buff []byte) (RandomnessBeacon, error) {
	w := wireBeacon{}
	if err := json.Unmarshal(buff, &w); err != nil {
		return nil, fmt.Errorf("decoding beacon: %w", err)
	}
	return NewBeacon(w.Round, w.Randomness, w.Signature, w.PreviousSig), nil
}

// BeaconToJSON provides the JSON encoding of a beacon, with byte fields in hex.
func BeaconToJSON(b RandomnessBeacon) ([]byte, error) {
	w := wireBeacon{
		Round:      b.Round(),
		Randomness: b.Randomness(),
		Signature:  b.Signature(),
	}
	if cb, ok := b.(*ChainedBeacon); ok {
		w.PreviousSig = cb.PreviousSignature()
	}
	return json.Marshal(w)
}

// RoundToBytes serializes the round as an 8 byte big endian slice
func RoundToBytes(r uint64) []byte {
	var buff bytes.Buffer
	_ = binary.Write(&buff, binary.BigEndian, r)
	return buff.Bytes()
}

func shortSigStr(sig []byte) string {
	max := 3
	if len(sig) < max {
		max = len(sig)
	}
	return hex.EncodeToString(sig[0:max])
}
