package chain

import (
	"bytes"
	"fmt"

	"github.com/hydrogenbond007/drand-rs/crypto"
)

// Verifier checks beacons against the chain they claim to belong to. It is stateless and pure:
// the zero value is usable, and the same Verifier may be shared by any number of goroutines
// without coordination.
type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify reports whether the beacon is a valid output of the chain described by info. A beacon
// that belongs to another scheme, carries a signature that does not check out under the chain's
// public key, or advertises a randomness that is not the hash of its signature yields false.
// An error is only returned when the inputs cannot be handed to the signature primitive at all,
// such as an unknown scheme or a malformed public key; callers must treat a false result as a
// security relevant rejection, never as a reason to retry.
func (v *Verifier) Verify(b RandomnessBeacon, info *Info) (bool, error) {
	sch, err := crypto.SchemeFromName(info.Scheme)
	if err != nil {
		return false, fmt.Errorf("chain info: %w", err)
	}

	if b.SchemeID() != sch.Name {
		// the beacon does not belong to this chain, a rejection rather than a failure
		return false, nil
	}

	sigOK, err := sch.VerifySignature(info.PublicKey, b.Message(), b.Signature())
	if err != nil {
		return false, err
	}

	// the randomness check is independent from the signature one: a beacon with a valid
	// signature but a forged randomness field must fail, and vice versa
	randOK := bytes.Equal(crypto.RandomnessFromSignature(b.Signature()), b.Randomness())

	return sigOK && randOK, nil
}
