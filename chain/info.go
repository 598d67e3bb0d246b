package chain

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	json "github.com/nikkolasg/hexjson"

	"github.com/hydrogenbond007/drand-rs/crypto"
)

// DefaultBeaconID identifies the original chain of a network, which historically carries no
// explicit id on the wire.
const DefaultBeaconID = "default"

func IsDefaultBeaconID(id string) bool {
	return id == "" || id == DefaultBeaconID
}

func compareBeaconIDs(id1, id2 string) bool {
	if IsDefaultBeaconID(id1) && IsDefaultBeaconID(id2) {
		return true
	}
	return id1 == id2
}

// Info represents the public information that is necessary for a client to verify any beacon
// present in a randomness chain. It is fixed at chain creation and never mutated, so it is safe
// to cache indefinitely.
type Info struct {
	PublicKey   []byte
	ID          string
	Period      time.Duration
	Scheme      string
	GenesisTime int64
	GroupHash   []byte
}

// Hash returns the canonical hash representing the chain information. A hash is consistent
// throughout the entirety of a chain, regardless of the network composition or the actual nodes
// generating the randomness, and serves as the chain's identity.
func (i *Info) Hash() []byte {
	h := sha256.New()
	_ = binary.Write(h, binary.BigEndian, uint32(i.Period.Seconds()))
	_ = binary.Write(h, binary.BigEndian, i.GenesisTime)
	_, _ = h.Write(i.PublicKey)
	_, _ = h.Write(i.GroupHash)

	// Use it only if ID is not the default one. Keeps backward compatibility
	// with chains that predate beacon ids.
	if !IsDefaultBeaconID(i.ID) {
		_, _ = h.Write([]byte(i.ID))
	}

	return h.Sum(nil)
}

// HashString returns the value of Hash in string format
func (i *Info) HashString() string {
	return hex.EncodeToString(i.Hash())
}

// Equal indicates if two Chain Info objects are equivalent
func (i *Info) Equal(i2 *Info) bool {
	return i.GenesisTime == i2.GenesisTime &&
		i.Period == i2.Period &&
		bytes.Equal(i.PublicKey, i2.PublicKey) &&
		bytes.Equal(i.GroupHash, i2.GroupHash) &&
		i.Scheme == i2.Scheme &&
		compareBeaconIDs(i.ID, i2.ID)
}

// Verifier returns the verifier used to check beacons produced by this chain.
func (i *Info) Verifier() *Verifier {
	return NewVerifier()
}

// infoJSON is the wire shape of the /info endpoint.
type infoJSON struct {
	PublicKey   []byte        `json:"public_key"`
	Period      uint64        `json:"period"`
	GenesisTime int64         `json:"genesis_time"`
	Hash        []byte        `json:"hash,omitempty"`
	GroupHash   []byte        `json:"groupHash,omitempty"`
	SchemeID    string        `json:"schemeID,omitempty"`
	Metadata    *infoMetadata `json:"metadata,omitempty"`
}

type infoMetadata struct {
	BeaconID string `json:"beaconID,omitempty"`
}

// UnmarshalJSON decodes the chain information from its wire form, checking that the advertised
// scheme exists and that the public key parses on the scheme's key group.
func (i *Info) UnmarshalJSON(data []byte) error {
	w := infoJSON{}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding chain info: %w", err)
	}

	// endpoints that predate scheme ids advertise none and are all chained
	sch, err := crypto.GetSchemeByIDWithDefault(w.SchemeID)
	if err != nil {
		return fmt.Errorf("invalid scheme advertised: %w", err)
	}
	if err := sch.KeyGroup.Point().UnmarshalBinary(w.PublicKey); err != nil {
		return fmt.Errorf("invalid public key for scheme %q: %w", sch.Name, err)
	}

	i.PublicKey = w.PublicKey
	i.Period = time.Duration(w.Period) * time.Second
	i.GenesisTime = w.GenesisTime
	i.GroupHash = w.GroupHash
	i.Scheme = sch.Name
	if w.Metadata != nil {
		i.ID = w.Metadata.BeaconID
	}

	return nil
}

// MarshalJSON encodes the chain information in its wire form. The advertised hash is always the
// recomputed canonical one.
func (i *Info) MarshalJSON() ([]byte, error) {
	w := infoJSON{
		PublicKey:   i.PublicKey,
		Period:      uint64(i.Period.Seconds()),
		GenesisTime: i.GenesisTime,
		Hash:        i.Hash(),
		GroupHash:   i.GroupHash,
		SchemeID:    i.Scheme,
	}
	if !IsDefaultBeaconID(i.ID) {
		w.Metadata = &infoMetadata{BeaconID: i.ID}
	}
	return json.Marshal(&w)
}

// InfoFromJSON returns a Info from JSON description in the given reader
func InfoFromJSON(buff io.Reader) (*Info, error) {
	chainProto := new(Info)
	if err := json.NewDecoder(buff).Decode(chainProto); err != nil {
		return nil, fmt.Errorf("reading group file (%w)", err)
	}
	return chainProto, nil
}

// ToJSON provides a json serialization of an info packet
func (i *Info) ToJSON(w io.Writer) error {
	return json.NewEncoder(w).Encode(i)
}
