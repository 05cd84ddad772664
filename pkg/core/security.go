// Package core provides the small set of cross-cutting primitives used
// at the edges of the server: compressing persistence blobs, hashing
// dirty keys for change detection, and verifying the server's own
// signed identity.
package core

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"sync"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
)

var bufferPool = sync.Pool{New: func() interface{} { return new(bytes.Buffer) }}

// --- Compression ---

// Compress lz4-compresses src, used for region tile blobs and other
// persistence payloads where CPU cost matters more than ratio.
func Compress(src []byte) []byte {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer bufferPool.Put(buf)
	buf.Reset()

	w := lz4.NewWriter(buf)
	w.Write(src)
	w.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

// Decompress reverses Compress.
func Decompress(src []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	var out bytes.Buffer
	if _, err := out.ReadFrom(r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// --- Hashing ---

// Hash returns a hex-encoded blake3 digest, used to key the dirty set so
// an unchanged entity never triggers a redundant flush.
func Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// --- Identity ---

// VerifySignature checks a handshake or admin-console signature against
// a known public key.
func VerifySignature(pubKey ed25519.PublicKey, msg, sig []byte) bool {
	if len(pubKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pubKey, msg, sig)
}

// Sign produces a signature over msg with the server's private key.
func Sign(priv ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(priv, msg)
}
