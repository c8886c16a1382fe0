package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// localIDPrefix marks identifiers generated on this client before the remote
// store has assigned a permanent one.
const localIDPrefix = "local_"

// NewLocalID returns a temporary identifier for a record created offline.
// The millisecond timestamp plus a random hex suffix keeps ids unique even
// under clock skew or rapid double-submission.
func NewLocalID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		panic(fmt.Sprintf("models: rand.Read: %v", err))
	}
	return fmt.Sprintf("%s%d_%s", localIDPrefix, time.Now().UnixMilli(), hex.EncodeToString(b))
}

// IsLocalID reports whether id is a client-generated temporary identifier.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}
