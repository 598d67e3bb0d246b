package chain

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hydrogenbond007/drand-rs/crypto"
)

// drand mainnet (curl -sS https://drand.cloudflare.com/public/1000000)
const (
	chainedRound      = uint64(1000000)
	chainedRandomness = "a26ba4d229c666f52a06f1a9be1278dcc7a80dbc1dd2004a1ae7b63cb79fd37e"
	chainedSignature  = "87e355169c4410a8ad6d3e7f5094b2122932c1062f603e6628aba2e4cb54f46c3bf1083c3537cd3b99e8296784f46fb40e090961cf9634f02c7dc2a96b69fc3c03735bc419962780a71245b72f81882cf6bb9c961bcf32da5624993bb747c9e5"
	chainedPrevSig    = "86bbc40c9d9347568967add4ddf6e351aff604352a7e1eec9b20dea4ca531ed6c7d38de9956ffc3bb5a7fabe28b3a36b069c8113bd9824135c3bff9b03359476f6b03beec179d4aeff456f4d34bbf702b9af78c3bb44e1892ace8e581bf4afa9"
)

// drand testnet, unchained scheme with signatures on G2
const (
	unchainedRound      = uint64(1000000)
	unchainedRandomness = "6671747f7d838f18159c474579ea19e8d863e8c25e5271fd7f18ca2ac85181cf"
	unchainedSignature  = "86b265e10e060805d20dca88f70f6b5e62d5956e7790d32029dfb73fbcd1996bc7aebdea7aeaf74dac0ca2b3ce8f7a6a0399f224a05fe740c0bac9da638212082b0ed21b1a8c5e44a33123f28955ef0713e93e21f6af0cda4073d9a73387434d"
)

// drand testnet, unchained scheme with 48 byte signatures on G1
const (
	onG1Round      = uint64(784604)
	onG1Randomness = "faf43e19bf00738f5cd8e1904a274f6d9b2184025136660a3e367ea0459f41af"
	onG1Signature  = "a029a26d9d0d8e31ef037a81ba5f13a22758b2980e67920c3d233b18b292cd27e106bafd9922a6b1ae69818cd300139f"
)

func fromHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func chainedTestBeacon(t *testing.T) *ChainedBeacon {
	t.Helper()
	return NewChainedBeacon(chainedRound,
		fromHex(t, chainedRandomness),
		fromHex(t, chainedSignature),
		fromHex(t, chainedPrevSig))
}

func unchainedTestBeacon(t *testing.T) *UnchainedBeacon {
	t.Helper()
	return NewUnchainedBeacon(unchainedRound,
		fromHex(t, unchainedRandomness),
		fromHex(t, unchainedSignature))
}

func onG1TestBeacon(t *testing.T) *UnchainedBeacon {
	t.Helper()
	return NewUnchainedBeacon(onG1Round,
		fromHex(t, onG1Randomness),
		fromHex(t, onG1Signature))
}

func TestBeaconSchemeID(t *testing.T) {
	require.Equal(t, crypto.DefaultSchemeID, chainedTestBeacon(t).SchemeID())
	require.Equal(t, crypto.UnchainedSchemeID, unchainedTestBeacon(t).SchemeID())
	require.Equal(t, crypto.ShortSigSchemeID, onG1TestBeacon(t).SchemeID())
}

func TestBeaconChainedness(t *testing.T) {
	require.True(t, IsChained(chainedTestBeacon(t)))
	require.False(t, IsUnchained(chainedTestBeacon(t)))
	require.False(t, IsSignatureOnG1(chainedTestBeacon(t)))

	require.True(t, IsUnchained(unchainedTestBeacon(t)))
	require.False(t, IsChained(unchainedTestBeacon(t)))
	require.False(t, IsSignatureOnG1(unchainedTestBeacon(t)))

	require.True(t, IsUnchained(onG1TestBeacon(t)))
	require.True(t, IsSignatureOnG1(onG1TestBeacon(t)))
}

func TestBeaconMessage(t *testing.T) {
	// H( prevSig || round ) and H( round ), computed independently
	require.Equal(t,
		"79fcd2842ac7b7b513a492e937f6941d842779bf3a4f7cf55214288aba1259c9",
		hex.EncodeToString(chainedTestBeacon(t).Message()))
	require.Equal(t,
		"ce59b701970051bef0d7efdc1a4196c49ce1bbaaf9c5403626ad7adcc41737e7",
		hex.EncodeToString(unchainedTestBeacon(t).Message()))

	// the message of a chained beacon depends on the previous signature
	b := NewChainedBeacon(chainedRound,
		fromHex(t, chainedRandomness),
		fromHex(t, chainedSignature),
		fromHex(t, unchainedSignature))
	require.NotEqual(t, chainedTestBeacon(t).Message(), b.Message())

	// and every message depends on the round
	b2 := NewUnchainedBeacon(unchainedRound+1, nil, fromHex(t, unchainedSignature))
	require.NotEqual(t, unchainedTestBeacon(t).Message(), b2.Message())
}

func TestBeaconRandomnessDerivation(t *testing.T) {
	for _, b := range []RandomnessBeacon{
		chainedTestBeacon(t), unchainedTestBeacon(t), onG1TestBeacon(t),
	} {
		require.Equal(t, b.Randomness(), crypto.RandomnessFromSignature(b.Signature()))
	}
}

func TestNewBeaconPicksVariant(t *testing.T) {
	b := NewBeacon(chainedRound, fromHex(t, chainedRandomness), fromHex(t, chainedSignature), fromHex(t, chainedPrevSig))
	cb, ok := b.(*ChainedBeacon)
	require.True(t, ok)
	require.True(t, cb.Equal(chainedTestBeacon(t)))

	b = NewBeacon(unchainedRound, fromHex(t, unchainedRandomness), fromHex(t, unchainedSignature), nil)
	ub, ok := b.(*UnchainedBeacon)
	require.True(t, ok)
	require.True(t, ub.Equal(unchainedTestBeacon(t)))
}

func TestBeaconJSON(t *testing.T) {
	buff, err := BeaconToJSON(chainedTestBeacon(t))
	require.NoError(t, err)

	got, err := BeaconFromJSON(buff)
	require.NoError(t, err)
	cb, ok := got.(*ChainedBeacon)
	require.True(t, ok)
	require.True(t, cb.Equal(chainedTestBeacon(t)))

	// an unchained beacon must not grow a previous_signature on the way through
	buff, err = BeaconToJSON(unchainedTestBeacon(t))
	require.NoError(t, err)
	require.NotContains(t, string(buff), "previous_signature")

	got, err = BeaconFromJSON(buff)
	require.NoError(t, err)
	ub, ok := got.(*UnchainedBeacon)
	require.True(t, ok)
	require.True(t, ub.Equal(unchainedTestBeacon(t)))
}

func TestRoundToBytes(t *testing.T) {
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, RoundToBytes(1))
	require.Equal(t, []byte{0, 0, 0, 0, 0, 15, 66, 64}, RoundToBytes(1000000))
}
