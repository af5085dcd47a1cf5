package ledger

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Decision refs look like DEC-MFJ3K2QH-4T7B9X: a base36 millisecond
// timestamp plus a random suffix, uppercased. The timestamp keeps refs
// roughly sortable; the suffix disambiguates writes within the same
// millisecond.
const refSuffixLen = 6

var refPattern = regexp.MustCompile(`^DEC-[0-9A-Z]+-[0-9A-Z]+$`)

// NewDecisionRef generates a decision reference for the given instant.
func NewDecisionRef(now time.Time) (string, error) {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	suffix := make([]byte, refSuffixLen)
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	max := big.NewInt(int64(len(alphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate ref suffix: %w", err)
		}
		suffix[i] = alphabet[n.Int64()]
	}

	return fmt.Sprintf("DEC-%s-%s", ts, suffix), nil
}

// ValidDecisionRef reports whether a caller-supplied ref has the expected
// shape. Caller refs outside the DEC- namespace are allowed as long as they
// are non-empty and fit the column.
func ValidDecisionRef(ref string) bool {
	if ref == "" || len(ref) > 64 {
		return false
	}
	return true
}

// IsGeneratedRef reports whether a ref matches the generated DEC- shape.
func IsGeneratedRef(ref string) bool {
	return refPattern.MatchString(ref)
}
