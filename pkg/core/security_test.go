package core

import (
	"crypto/ed25519"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	src := []byte("region tile blob payload, repeated repeated repeated")
	compressed := Compress(src)
	got, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(got) != string(src) {
		t.Errorf("round trip mismatch: got %q want %q", got, src)
	}
}

func TestHashIsDeterministic(t *testing.T) {
	a := Hash([]byte("same input"))
	b := Hash([]byte("same input"))
	if a != b {
		t.Errorf("expected deterministic hash, got %q vs %q", a, b)
	}
	if Hash([]byte("different")) == a {
		t.Errorf("expected different input to hash differently")
	}
}

func TestSignAndVerifySignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	msg := []byte("server identity handshake")
	sig := Sign(priv, msg)
	if !VerifySignature(pub, msg, sig) {
		t.Error("expected valid signature to verify")
	}
	if VerifySignature(pub, []byte("tampered"), sig) {
		t.Error("expected tampered message to fail verification")
	}
}
