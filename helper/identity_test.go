package helper

import "testing"

func TestGenerateIdentityRoundTrip(t *testing.T) {
	kp, err := generateIdentity()
	if err != nil {
		t.Fatalf("generateIdentity: %v", err)
	}
	if kp.PeerID == "" || kp.PrivateKey == "" || kp.PublicKey == "" {
		t.Fatalf("incomplete keypair: %+v", kp)
	}

	priv, err := parsePrivateKey(kp.PrivateKey)
	if err != nil {
		t.Fatalf("parsePrivateKey: %v", err)
	}

	reDerived, err := marshalIdentity(priv, priv.GetPublic())
	if err != nil {
		t.Fatalf("marshalIdentity: %v", err)
	}
	if reDerived.PeerID != kp.PeerID {
		t.Fatalf("peer id changed across round trip: got %s, want %s", reDerived.PeerID, kp.PeerID)
	}
}

func TestGenerateIdentityUnique(t *testing.T) {
	a, err := generateIdentity()
	if err != nil {
		t.Fatalf("generateIdentity: %v", err)
	}
	b, err := generateIdentity()
	if err != nil {
		t.Fatalf("generateIdentity: %v", err)
	}
	if a.PeerID == b.PeerID {
		t.Fatal("two generated identities produced the same peer id")
	}
}

func TestParsePrivateKeyRejectsGarbage(t *testing.T) {
	if _, err := parsePrivateKey("not valid base64!!"); err == nil {
		t.Fatal("expected error parsing garbage private key")
	}
}
