package htlc

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/ethereum/go-ethereum/common"
)

// SecretHashSize is the only accepted commitment length.
const SecretHashSize = sha256.Size

// HashSecret computes the commitment for a secret.
func HashSecret(secret []byte) common.Hash {
	return common.Hash(sha256.Sum256(secret))
}

// VerifySecret reports whether secret is the preimage of secretHash. The
// comparison is constant-structure over the full digest.
func VerifySecret(secret []byte, secretHash common.Hash) bool {
	digest := sha256.Sum256(secret)
	return subtle.ConstantTimeCompare(digest[:], secretHash[:]) == 1
}
