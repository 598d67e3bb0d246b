package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hydrogenbond007/drand-rs/crypto"
)

// Network vectors: real beacons with the public key of the network that signed them.
var verifyVectors = []struct {
	name    string
	scheme  string
	pubKey  string
	round   uint64
	sig     string
	prevSig string
}{
	{
		name:    "chained-mainnet",
		scheme:  crypto.DefaultSchemeID,
		pubKey:  "868f005eb8e6e4ca0a47c8a77ceaa5309a47978a7c71bc5cce96366b5d7a569937c529eeda66c7293784a9402801af31",
		round:   2634945,
		sig:     "814778ed1e480406beb43b74af71ce2f0373e0ea1bfdfea8f9ed62c876c20fcbc7f0163860e3da42ed2148756015f4551451898ffe06d384b4d002245025571b6b7a752f7158b40ad92b13b6d703ad31922a617f2c7f6d960b84d56cf1d79eef",
		prevSig: "8bd96294383b4d1e04e736360bd7a487f9f409f1e7bd800b720656a310d577b3bdb1e1631af6c5782a1d8979c502f395036181eff4058960fc40bb7034cdae1991d3eda518ab204a077d2f7e724974cf87b407e549bd815cf0b8e5a3832f675d",
	},
	{
		name:    "chained-mainnet-1000000",
		scheme:  crypto.DefaultSchemeID,
		pubKey:  "868f005eb8e6e4ca0a47c8a77ceaa5309a47978a7c71bc5cce96366b5d7a569937c529eeda66c7293784a9402801af31",
		round:   1000000,
		sig:     "87e355169c4410a8ad6d3e7f5094b2122932c1062f603e6628aba2e4cb54f46c3bf1083c3537cd3b99e8296784f46fb40e090961cf9634f02c7dc2a96b69fc3c03735bc419962780a71245b72f81882cf6bb9c961bcf32da5624993bb747c9e5",
		prevSig: "86bbc40c9d9347568967add4ddf6e351aff604352a7e1eec9b20dea4ca531ed6c7d38de9956ffc3bb5a7fabe28b3a36b069c8113bd9824135c3bff9b03359476f6b03beec179d4aeff456f4d34bbf702b9af78c3bb44e1892ace8e581bf4afa9",
	},
	{
		name:   "unchained-testnet",
		scheme: crypto.UnchainedSchemeID,
		pubKey: "8200fc249deb0148eb918d6e213980c5d01acd7fc251900d9260136da3b54836ce125172399ddc69c4e3e11429b62c11",
		round:  7601003,
		sig:    "af7eac5897b72401c0f248a26b612c5ef68e0ff830b4d78927988c89b5db3e997bfcdb7c24cb19f549830cd02cb854a1143fd53a1d4e0713ded471260869439060d170a77187eb6371742840e43eccfa225657c4cc2d9619f7c3d680470c9743",
	},
	{
		name:   "on-g1",
		scheme: crypto.ShortSigSchemeID,
		pubKey: "876f6fa8073736e22f6ff4badaab35c637503718f7a452d178ce69c45d2d8129a54ad2f988ab10c9666f87ab603c59bf013409a5b500555da31720f8eec294d9809b8796f40d5372c71a44ca61226f1eb978310392f98074a608747f77e66c5a",
		round:  3,
		sig:    "ac7c3ca14bc88bd014260f22dc016b4fe586f9313c3a549c83d195811a99a5d2d4999d4df6daec73ff51fafadd6d5bb5",
	},
}

func infoFor(t *testing.T, scheme, pubKey string) *Info {
	t.Helper()
	return &Info{
		PublicKey:   fromHex(t, pubKey),
		Period:      30 * time.Second,
		Scheme:      scheme,
		GenesisTime: 1595431050,
	}
}

func beaconFor(t *testing.T, round uint64, sig, prevSig string) RandomnessBeacon {
	t.Helper()
	sigBytes := fromHex(t, sig)
	var prevBytes []byte
	if prevSig != "" {
		prevBytes = fromHex(t, prevSig)
	}
	return NewBeacon(round, crypto.RandomnessFromSignature(sigBytes), sigBytes, prevBytes)
}

func TestVerifyValidBeacons(t *testing.T) {
	t.Parallel()
	for _, tt := range verifyVectors {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			info := infoFor(t, tt.scheme, tt.pubKey)
			v := info.Verifier()
			b := beaconFor(t, tt.round, tt.sig, tt.prevSig)
			require.Equal(t, tt.scheme, b.SchemeID())

			ok, err := v.Verify(b, info)
			require.NoError(t, err)
			require.True(t, ok)

			// determinism
			ok, err = v.Verify(b, info)
			require.NoError(t, err)
			require.True(t, ok)
		})
	}
}

func TestVerifyWrongRound(t *testing.T) {
	t.Parallel()
	v := NewVerifier()
	for _, tt := range verifyVectors {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			info := infoFor(t, tt.scheme, tt.pubKey)
			b := beaconFor(t, tt.round+1, tt.sig, tt.prevSig)

			ok, err := v.Verify(b, info)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestVerifyRoundRewrittenToOne(t *testing.T) {
	t.Parallel()
	v := NewVerifier()
	tt := verifyVectors[1] // chained-mainnet-1000000
	info := infoFor(t, tt.scheme, tt.pubKey)

	b := beaconFor(t, 1, tt.sig, tt.prevSig)
	ok, err := v.Verify(b, info)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyForgedRandomness(t *testing.T) {
	t.Parallel()
	v := NewVerifier()
	tt := verifyVectors[0]
	info := infoFor(t, tt.scheme, tt.pubKey)

	// valid signature, attacker-chosen randomness
	forged := make([]byte, 32)
	b := NewBeacon(tt.round, forged, fromHex(t, tt.sig), fromHex(t, tt.prevSig))

	ok, err := v.Verify(b, info)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifySchemeMismatch(t *testing.T) {
	t.Parallel()
	v := NewVerifier()

	// an unchained beacon against a chained chain is invalid, not an error
	chained := verifyVectors[0]
	unchained := verifyVectors[2]
	info := infoFor(t, chained.scheme, chained.pubKey)
	b := beaconFor(t, unchained.round, unchained.sig, "")

	ok, err := v.Verify(b, info)
	require.NoError(t, err)
	require.False(t, ok)

	// a G1 beacon against an unchained-on-G2 chain is invalid too
	onG1 := verifyVectors[3]
	info = infoFor(t, unchained.scheme, unchained.pubKey)
	b = beaconFor(t, onG1.round, onG1.sig, "")

	ok, err = v.Verify(b, info)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyWrongNetwork(t *testing.T) {
	t.Parallel()
	v := NewVerifier()

	// a valid beacon from another network of the same scheme does not verify
	tt := verifyVectors[2]
	info := infoFor(t, tt.scheme, tt.pubKey)
	other := "922a2e93828ff83345bae533f5172669a26c02dc76d6bf59c80892e12ab1455c229211886f35bb56af6d5bea981024df"
	info.PublicKey = fromHex(t, other)

	b := beaconFor(t, tt.round, tt.sig, "")
	ok, err := v.Verify(b, info)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyOperationalErrors(t *testing.T) {
	t.Parallel()
	v := NewVerifier()
	tt := verifyVectors[2]
	b := beaconFor(t, tt.round, tt.sig, "")

	// unknown scheme
	info := infoFor(t, "nonexistentschemename", tt.pubKey)
	_, err := v.Verify(b, info)
	require.Error(t, err)

	// malformed public key
	info = infoFor(t, tt.scheme, tt.pubKey)
	info.PublicKey = []byte{0x01, 0x02, 0x03}
	_, err = v.Verify(b, info)
	require.Error(t, err)
}
