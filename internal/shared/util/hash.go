package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// OwnerNamespace maps an owner id to the directory or key prefix its files are
// stored under, so storage keys never expose account ids.
func OwnerNamespace(ownerID string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(ownerID)))
	return hex.EncodeToString(sum[:])
}
