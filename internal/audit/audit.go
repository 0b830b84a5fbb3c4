package audit

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// JobRun is one recorded execution of a scheduled roaming job against a
// single endpoint. The row is append-only.
type JobRun struct {
	ID                 string
	TenantID           string
	EndpointID         string
	Task               string
	Success            int
	Failure            int
	Total              int
	ObjectIDsInFailure []string
	Logs               []string
	Error              string
	RecordedAt         time.Time
	LogsDigest         string
}

// NewID generates a random job run id.
func NewID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "jobrun-" + hex.EncodeToString(buf)
}

// Digest computes a SHA256 hex digest over the run's log lines.
func Digest(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
