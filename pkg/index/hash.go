package index

import (
	"fmt"
	"hash/adler32"
)

// ContentHash returns a cheap deterministic fingerprint of text, used only
// for staleness detection. Collisions are acceptable at the rate of a 32-bit
// checksum; this is not a security property.
func ContentHash(text string) string {
	return fmt.Sprintf("%08x", adler32.Checksum([]byte(text)))
}
