package recorder

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// HashContent computes the SHA-256 hash of the content and returns it as a
// hex-encoded string. Returns an empty string if content is empty.
func HashContent(content []byte) string {
	if len(content) == 0 {
		return ""
	}

	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// HashInputs hashes the canonical form of an assessment's inputs together
// with the rule set checksum. The operator id is excluded so that equal
// inputs from different operators hash equally.
//
// Floats use the shortest round-trip representation; NaN hashes as "NaN".
func HashInputs(operations, errorRate float64, rulesetChecksum string) string {
	canonical := strings.Join([]string{
		"operations=" + strconv.FormatFloat(operations, 'g', -1, 64),
		"error_rate=" + strconv.FormatFloat(errorRate, 'g', -1, 64),
		"ruleset=" + rulesetChecksum,
	}, "\n")
	return HashContent([]byte(canonical))
}
