package helper

import (
	"crypto/rand"
	"fmt"

	ic "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

// generatedKeypair is the result of the generateKeypair method: a marshalled
// private key and the peer ID it derives, both suitable for round-tripping
// through configure's privateKey field.
type generatedKeypair struct {
	PrivateKey string
	PublicKey  string
	PeerID     string
}

// generateIdentity mints a fresh Ed25519 keypair and derives its peer ID,
// matching the original helper's generate_keypair behavior.
func generateIdentity() (generatedKeypair, error) {
	priv, pub, err := ic.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return generatedKeypair{}, fmt.Errorf("generate ed25519 keypair: %w", err)
	}
	return marshalIdentity(priv, pub)
}

func marshalIdentity(priv ic.PrivKey, pub ic.PubKey) (generatedKeypair, error) {
	peerID, err := peer.IDFromPublicKey(pub)
	if err != nil {
		return generatedKeypair{}, fmt.Errorf("derive peer id from public key: %w", err)
	}

	privBytes, err := ic.MarshalPrivateKey(priv)
	if err != nil {
		return generatedKeypair{}, fmt.Errorf("marshal private key: %w", err)
	}
	pubBytes, err := ic.MarshalPublicKey(pub)
	if err != nil {
		return generatedKeypair{}, fmt.Errorf("marshal public key: %w", err)
	}

	return generatedKeypair{
		PrivateKey: blobEncode(privBytes),
		PublicKey:  blobEncode(pubBytes),
		PeerID:     peerID.String(),
	}, nil
}

// parsePrivateKey reverses generateIdentity's wire encoding, used by
// configure to load a host-supplied private key.
func parsePrivateKey(encoded string) (ic.PrivKey, error) {
	raw, err := blobDecode(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	priv, err := ic.UnmarshalPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal private key: %w", err)
	}
	return priv, nil
}
