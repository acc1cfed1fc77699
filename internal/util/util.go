package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewRunID identifies one dispatch invocation in logs and summaries.
// ULIDs sort by creation time.
func NewRunID() string {
	t := time.Now().UTC()
	return "run_" + ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

func NowUTC() time.Time {
	return time.Now().UTC()
}
