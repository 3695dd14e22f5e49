package mediator

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// newCycleID generates a short ID correlating one cycle's log lines.
func newCycleID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		// Fallback to timestamp-based ID if crypto/rand fails
		return fmt.Sprintf("c-%x", time.Now().UnixNano())
	}
	return "c-" + hex.EncodeToString(b)
}
