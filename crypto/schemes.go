package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/drand/kyber"
	bls "github.com/drand/kyber-bls12381"
	"github.com/drand/kyber/sign"

	// The package github.com/drand/kyber/sign/bls is deprecated because it is vulnerable to
	// rogue public-key attack against BLS aggregated signature. The way we are using this package
	// does not do any aggregation and we're only verifying simple signatures, thus this is not a
	// security issue here.
	//nolint:staticcheck
	signBls "github.com/drand/kyber/sign/bls"
)

type hashableBeacon interface {
	GetPreviousSignature() []byte
	GetRound() uint64
}

type signedBeacon interface {
	hashableBeacon
	GetSignature() []byte
}

// Scheme represents the cryptographic schemes supported by drand networks. It assumes the usage of
// pairings on BLS12-381 and it is important that SigGroup and KeyGroup are set on opposite groups:
// G1 key group and G2 sig group, or G1 sig group and G2 key group.
//
// Note: Scheme is not meant to be marshaled directly. Instead use SchemeFromName.
type Scheme struct {
	// The name of the scheme
	Name string
	// SigGroup is the group the beacon signatures live in; it must always be
	// different from the KeyGroup.
	SigGroup kyber.Group
	// KeyGroup is the group the distributed public key lives in
	KeyGroup kyber.Group
	// SigScheme verifies the recovered group signature over a beacon digest
	SigScheme sign.Scheme
	// DigestBeacon generates the bytes that were signed for a given beacon
	DigestBeacon func(hashableBeacon) []byte `toml:"-"`
}

// VerifyBeacon verifies the beacon signature against the provided group public key.
func (s *Scheme) VerifyBeacon(b signedBeacon, pubkey kyber.Point) error {
	return s.SigScheme.Verify(pubkey, s.DigestBeacon(b), b.GetSignature())
}

// VerifySignature checks a raw signature over a message under a raw public key. It is the narrow
// primitive the chain verifier delegates to: an invalid signature yields false, while only
// malformed inputs, such as a public key of the wrong size for the scheme's key group, yield an
// error.
func (s *Scheme) VerifySignature(pubkey, msg, sig []byte) (bool, error) {
	point := s.KeyGroup.Point()
	if err := point.UnmarshalBinary(pubkey); err != nil {
		return false, fmt.Errorf("scheme %q: invalid public key: %w", s.Name, err)
	}

	if err := s.SigScheme.Verify(point, msg, sig); err != nil {
		return false, nil
	}

	return true, nil
}

func (s *Scheme) String() string {
	if s != nil {
		return s.Name
	}
	return ""
}

// DefaultSchemeID is the default scheme ID.
const DefaultSchemeID = "pedersen-bls-chained"

// NewPedersenBLSChained instantiates a scheme of type "pedersen-bls-chained" which is the original
// scheme used by drand since 2018. It links all beacons with the previous ones by "chaining" the
// signatures with the previous signature, preventing one to predict a future message that would be
// signed by the network before the previous signature is available.
// This scheme has the group public key on G1, so 48 bytes, and the beacon signatures on G2, so 96 bytes.
func NewPedersenBLSChained() (cs *Scheme) {
	var Pairing = bls.NewBLS12381SuiteWithDST(
		[]byte("BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_NUL_"), // default RFC9380 DST for G1
		[]byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_"), // default RFC9380 DST for G2
	)

	var KeyGroup = Pairing.G1()
	var SigGroup = Pairing.G2()
	var SigScheme = signBls.NewSchemeOnG2(Pairing)
	// Chained means we're hashing the previous signature and the round number to make it an actual "chain"
	var DigestFunc = func(b hashableBeacon) []byte {
		h := sha256.New()

		if len(b.GetPreviousSignature()) > 0 {
			_, _ = h.Write(b.GetPreviousSignature())
		}
		_ = binary.Write(h, binary.BigEndian, b.GetRound())
		return h.Sum(nil)
	}

	return &Scheme{
		Name:         DefaultSchemeID,
		SigGroup:     SigGroup,
		KeyGroup:     KeyGroup,
		SigScheme:    SigScheme,
		DigestBeacon: DigestFunc,
	}
}

// UnchainedSchemeID is the scheme id used to set unchained randomness on beacons.
const UnchainedSchemeID = "pedersen-bls-unchained"

// NewPedersenBLSUnchained instantiates a scheme of type "pedersen-bls-unchained" which removes the
// link of all beacons with the previous ones by only hashing the round number as the message being
// signed. This scheme is compatible with "timelock encryption" as done by tlock.
// This scheme has the group public key on G1, so 48 bytes, and the beacon signatures on G2, so 96 bytes.
func NewPedersenBLSUnchained() (cs *Scheme) {
	var Pairing = bls.NewBLS12381SuiteWithDST(
		[]byte("BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_NUL_"), // default RFC9380 DST for G1
		[]byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_"), // default RFC9380 DST for G2
	)
	var KeyGroup = Pairing.G1()
	var SigGroup = Pairing.G2()
	var SigScheme = signBls.NewSchemeOnG2(Pairing)
	// Unchained means we're only hashing the round number
	var DigestFunc = func(b hashableBeacon) []byte {
		h := sha256.New()
		_ = binary.Write(h, binary.BigEndian, b.GetRound())
		return h.Sum(nil)
	}

	return &Scheme{
		Name:         UnchainedSchemeID,
		SigGroup:     SigGroup,
		KeyGroup:     KeyGroup,
		SigScheme:    SigScheme,
		DigestBeacon: DigestFunc,
	}
}

// ShortSigSchemeID is the scheme id used to set unchained randomness on beacons with G1 and G2 swapped.
const ShortSigSchemeID = "bls-unchained-on-g1"

// NewPedersenBLSUnchainedSwapped instantiates a scheme of type "bls-unchained-on-g1" which is also
// unchained, only hashing the round number as the message being signed in beacons.
// This scheme has the group public key on G2, so 96 bytes, and the beacon signatures on G1, so
// 48 bytes, which halves the size of any database storing all existing beacons.
//
// Deprecated: this scheme is using the DST from G2 for Hash to Curve, which means it is not spec
// compliant with the BLS and HashToCurve RFCs. Kept since deployed networks still use it.
func NewPedersenBLSUnchainedSwapped() (cs *Scheme) {
	var Pairing = bls.NewBLS12381SuiteWithDST(
		[]byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_"), // this is the G2 DST instead of the G1 DST
		[]byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_"), // default RFC9380 DST for G2
	)

	var KeyGroup = Pairing.G2()
	var SigGroup = Pairing.G1()
	var SigScheme = signBls.NewSchemeOnG1(Pairing)
	// Unchained means we're only hashing the round number
	var DigestFunc = func(b hashableBeacon) []byte {
		h := sha256.New()
		_ = binary.Write(h, binary.BigEndian, b.GetRound())
		return h.Sum(nil)
	}

	return &Scheme{
		Name:         ShortSigSchemeID,
		SigGroup:     SigGroup,
		KeyGroup:     KeyGroup,
		SigScheme:    SigScheme,
		DigestBeacon: DigestFunc,
	}
}

// SigsOnG1ID is the scheme id used to set unchained randomness on beacons with signatures on G1
// that are compliant with the hash to curve RFC.
const SigsOnG1ID = "bls-unchained-g1-rfc9380"

// NewPedersenBLSUnchainedG1 instantiates a scheme of type "bls-unchained-g1-rfc9380" which is also
// unchained and has its signatures on G1, but uses the proper G1 domain separation tag.
// This scheme has the group public key on G2, so 96 bytes, and the beacon signatures on G1, so 48 bytes.
func NewPedersenBLSUnchainedG1() (cs *Scheme) {
	var Pairing = bls.NewBLS12381SuiteWithDST(
		[]byte("BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_NUL_"), // default RFC9380 DST for G1
		[]byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_"), // default RFC9380 DST for G2
	)
	var KeyGroup = Pairing.G2()
	var SigGroup = Pairing.G1()
	var SigScheme = signBls.NewSchemeOnG1(Pairing)
	// Unchained means we're only hashing the round number
	var DigestFunc = func(b hashableBeacon) []byte {
		h := sha256.New()
		_ = binary.Write(h, binary.BigEndian, b.GetRound())
		return h.Sum(nil)
	}

	return &Scheme{
		Name:         SigsOnG1ID,
		SigGroup:     SigGroup,
		KeyGroup:     KeyGroup,
		SigScheme:    SigScheme,
		DigestBeacon: DigestFunc,
	}
}

func SchemeFromName(schemeName string) (*Scheme, error) {
	switch schemeName {
	case DefaultSchemeID:
		return NewPedersenBLSChained(), nil
	case UnchainedSchemeID:
		return NewPedersenBLSUnchained(), nil
	case ShortSigSchemeID:
		return NewPedersenBLSUnchainedSwapped(), nil
	case SigsOnG1ID:
		return NewPedersenBLSUnchainedG1(), nil
	default:
		return nil, fmt.Errorf("invalid scheme name '%s'", schemeName)
	}
}

var schemeIDs = []string{DefaultSchemeID, UnchainedSchemeID, ShortSigSchemeID, SigsOnG1ID}

// ListSchemes will return a slice of valid scheme ids
func ListSchemes() []string {
	return schemeIDs
}

// GetSchemeByIDWithDefault allows the user to retrieve the scheme configuration looking by its ID.
// If the received ID is an empty string, it will return the default defined scheme.
func GetSchemeByIDWithDefault(id string) (*Scheme, error) {
	if id == "" {
		id = DefaultSchemeID
	}

	return SchemeFromName(id)
}

// RandomnessFromSignature derives the round randomness from its signature. We are using sha256
// currently but it could use blake2b instead or another hash. Hashing the signature is important
// because the algebraic structure of the elliptic curve points that correspond to signatures does
// not map uniformly with all possible bit strings, but a signature is indistinguishable from any
// random point on that elliptic curve.
func RandomnessFromSignature(sig []byte) []byte {
	out := sha256.Sum256(sig)
	return out[:]
}
