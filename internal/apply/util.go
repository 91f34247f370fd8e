package apply

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var errParentDirFailed = errors.New("parent directory was not created")

// hashBytes computes the same content-hash form internal/classify uses to
// detect drift, kept in its own small helper here to avoid a dependency
// from apply on classify for a single function.
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
