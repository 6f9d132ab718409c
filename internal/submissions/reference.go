package submissions

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const referenceSuffixBound = 100000

// NewReference generates a human-readable reference number such as
// FTO-20260828-04217. Clients may supply their own reference instead.
func NewReference(searchType SearchType, now time.Time) string {
	prefix := "FTO"
	if searchType == SearchPatentability {
		prefix = "PAT"
	}
	suffix, err := rand.Int(rand.Reader, big.NewInt(referenceSuffixBound))
	if err != nil {
		suffix = big.NewInt(now.UnixNano() % referenceSuffixBound)
	}
	return fmt.Sprintf("%s-%s-%05d", prefix, now.UTC().Format("20060102"), suffix.Int64())
}

// ValidReference reports whether a client-supplied reference is acceptable.
func ValidReference(reference string) bool {
	trimmed := strings.TrimSpace(reference)
	return trimmed != "" && len(trimmed) <= 64
}
