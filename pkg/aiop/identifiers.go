package aiop

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// RunURI builds the run-level identifier (§4.9 step 3).
func RunURI(sessionID string) string {
	return "osiris://run/@" + sessionID
}

// StepURI builds a step-level identifier (§4.9 step 3). pipelineName
// is the pipeline_slug, consistent with every other path/URI the
// contract builds from pipeline identity.
func StepURI(pipelineName, manifestHash, stepID string) string {
	return fmt.Sprintf("osiris://pipeline/%s@%s/step/%s", pipelineName, manifestHash, stepID)
}

var nonSnakeChars = regexp.MustCompile(`[^a-z0-9_]+`)

// snakeName restricts name to the evidence id charset [a-z0-9_] (§4.9
// step 3).
func snakeName(name string) string {
	return nonSnakeChars.ReplaceAllString(strings.ToLower(name), "_")
}

// EvidenceID builds one evidence identifier (§4.9 step 3). evidenceType
// is e.g. "event", "metric", "artifact".
func EvidenceID(evidenceType, stepID, name string, unixMS int64) string {
	return fmt.Sprintf("ev.%s.%s.%s.%d", evidenceType, stepID, snakeName(name), unixMS)
}

// RunFingerprint computes the run_fingerprint (§4.9 step 3): a
// sha256 hex digest over the colon-joined identity tuple that makes
// two exports of the same run content-comparable without exposing the
// full session id as the sole key.
func RunFingerprint(osirisVersion, env, manifestHash, sessionID string, startMS int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s:%s:%d", osirisVersion, env, manifestHash, sessionID, startMS)))
	return hex.EncodeToString(sum[:])
}
