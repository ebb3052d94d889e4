package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputePositionID computes a deterministic position ID using SHA256.
// Formula: SHA256(mint|detected_at_ms)
// Returns hex-encoded hash (64 characters). The same ID is reused as the
// trade ID when the position closes, so records are idempotent across
// restarts.
func ComputePositionID(mint string, detectedAtMs int64) string {
	data := fmt.Sprintf("%s|%d", mint, detectedAtMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
