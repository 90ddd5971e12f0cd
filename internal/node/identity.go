// Package node implements harbor/node identity (spec.md §3 "handle", §6
// "harbor"): a persistent libp2p Ed25519 keypair whose peer ID seeds the
// process's 8-bit harbor byte when the config leaves it unset. Grounded on
// the teacher's internal/network/mesh.go SaveIdentity/LoadIdentity pair,
// generalized from a hardcoded file name to an injected path.
package node

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

// persisted is the on-disk form of an Identity's keypair.
type persisted struct {
	PrivKey []byte `json:"priv_key"`
	PeerID  string `json:"peer_id"`
}

// Identity is this process's durable libp2p identity.
type Identity struct {
	Priv crypto.PrivKey
	ID   peer.ID
}

// LoadOrCreate loads an identity from path, generating and persisting a
// fresh Ed25519 keypair if the file doesn't exist yet (spec.md §6 "harbor"
// needs a stable per-process seed across restarts).
func LoadOrCreate(path string) (*Identity, error) {
	if data, err := os.ReadFile(path); err == nil {
		var p persisted
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("node: parsing identity file %s: %w", path, err)
		}
		priv, err := crypto.UnmarshalPrivateKey(p.PrivKey)
		if err != nil {
			return nil, fmt.Errorf("node: unmarshaling private key: %w", err)
		}
		id, err := peer.Decode(p.PeerID)
		if err != nil {
			return nil, fmt.Errorf("node: decoding peer id: %w", err)
		}
		return &Identity{Priv: priv, ID: id}, nil
	}

	priv, _, err := crypto.GenerateEd25519Key(nil)
	if err != nil {
		return nil, fmt.Errorf("node: generating identity: %w", err)
	}
	id, err := peer.IDFromPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("node: deriving peer id: %w", err)
	}

	privBytes, err := crypto.MarshalPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("node: marshaling private key: %w", err)
	}
	data, err := json.Marshal(persisted{PrivKey: privBytes, PeerID: id.String()})
	if err != nil {
		return nil, fmt.Errorf("node: marshaling identity file: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("node: writing identity file %s: %w", path, err)
	}

	return &Identity{Priv: priv, ID: id}, nil
}

// DeriveHarbor returns the low byte of SHA-256(peer ID), used as the
// process's harbor when the config leaves `harbor` at its zero default
// (spec.md §6: "the low byte ... seeds the process's 8-bit harbor when the
// config's harbor key is 0").
func (id *Identity) DeriveHarbor() uint8 {
	sum := sha256.Sum256([]byte(id.ID))
	return sum[len(sum)-1]
}
