package chain

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hydrogenbond007/drand-rs/crypto"
)

// drand mainnet (curl -sS https://api.drand.sh/info)
const mainnetInfoJSON = `{
	"public_key": "868f005eb8e6e4ca0a47c8a77ceaa5309a47978a7c71bc5cce96366b5d7a569937c529eeda66c7293784a9402801af31",
	"period": 30,
	"genesis_time": 1595431050,
	"hash": "8990e7a9aaed2ffed73dbd7092123d6f289930540d7651336225dc172e51b2ce",
	"groupHash": "176f93498eac9ca337150b46d21dd58673ea4e3581185f869672e59fa4cb390a"
}`

const mainnetChainHash = "8990e7a9aaed2ffed73dbd7092123d6f289930540d7651336225dc172e51b2ce"

func mainnetInfo(t *testing.T) *Info {
	t.Helper()
	info, err := InfoFromJSON(strings.NewReader(mainnetInfoJSON))
	require.NoError(t, err)
	return info
}

func TestInfoFromJSON(t *testing.T) {
	info := mainnetInfo(t)
	require.Equal(t, 30*time.Second, info.Period)
	require.Equal(t, int64(1595431050), info.GenesisTime)
	require.Equal(t, crypto.DefaultSchemeID, info.Scheme)
	require.Len(t, info.PublicKey, 48)
}

func TestInfoHash(t *testing.T) {
	// the advertised hash is never trusted, always recomputed
	require.Equal(t, mainnetChainHash, mainnetInfo(t).HashString())
}

func TestInfoHashCoversID(t *testing.T) {
	info := mainnetInfo(t)
	withID := *info
	withID.ID = "quicknet"
	require.NotEqual(t, info.HashString(), withID.HashString())

	// the default id is the same as no id at all
	withDefault := *info
	withDefault.ID = DefaultBeaconID
	require.Equal(t, info.HashString(), withDefault.HashString())
}

func TestInfoEqual(t *testing.T) {
	a := mainnetInfo(t)
	b := mainnetInfo(t)
	require.True(t, a.Equal(b))

	b.ID = DefaultBeaconID
	require.True(t, a.Equal(b), "empty and default beacon ids are the same chain")

	b.ID = "quicknet"
	require.False(t, a.Equal(b))

	c := mainnetInfo(t)
	c.GenesisTime++
	require.False(t, a.Equal(c))
}

func TestInfoJSONRoundTrip(t *testing.T) {
	info := mainnetInfo(t)

	var buff bytes.Buffer
	require.NoError(t, info.ToJSON(&buff))
	require.Contains(t, buff.String(), mainnetChainHash)

	got, err := InfoFromJSON(&buff)
	require.NoError(t, err)
	require.True(t, info.Equal(got))
}

func TestInfoRejectsUnknownScheme(t *testing.T) {
	bad := strings.Replace(mainnetInfoJSON, `"period": 30`,
		`"schemeID": "nonexistentschemename", "period": 30`, 1)
	_, err := InfoFromJSON(strings.NewReader(bad))
	require.Error(t, err)
}

func TestInfoRejectsInvalidPublicKey(t *testing.T) {
	bad := strings.Replace(mainnetInfoJSON,
		"868f005eb8e6e4ca0a47c8a77ceaa5309a47978a7c71bc5cce96366b5d7a569937c529eeda66c7293784a9402801af31",
		"deadbeef", 1)
	_, err := InfoFromJSON(strings.NewReader(bad))
	require.Error(t, err)
}
