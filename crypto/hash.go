package crypto

import (
	"crypto/sha256"
	"encoding/json"
)

// DigestSize is the length in bytes of every digest produced here.
const DigestSize = sha256.Size

// Hash hashes bytes by SHA256
func Hash(value []byte) []byte {
	hash := sha256.Sum256(value)
	return hash[:]
}

// HashNodes hashes two nodes into one
func HashNodes(left []byte, right []byte) []byte {
	return Hash(append(left, right...))
}

// Canonical encodes v as compact JSON. Object keys are encoded in sorted
// order, so equal values always canonicalize to equal bytes.
func Canonical(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// CanonicalRaw re-encodes an arbitrary JSON document into its canonical form.
func CanonicalRaw(raw []byte) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}

	return json.Marshal(v)
}

// SHA256 digests leaves and nodes with the functions above.
// It satisfies merkle.Hasher.
type SHA256 struct{}

// Leaf digests one canonicalized leaf value.
func (SHA256) Leaf(value []byte) []byte {
	return Hash(value)
}

// Nodes digests the concatenation of two child digests, left first.
func (SHA256) Nodes(left, right []byte) []byte {
	return HashNodes(left, right)
}
