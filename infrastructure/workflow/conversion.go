package workflow

import (
	"strconv"
	"strings"
)

// Meters per piece.
const (
	MetersPerPieceWithBlouse    = 7
	MetersPerPieceWithoutBlouse = 6
)

// Blouse types as stored on rows.
const (
	BlouseWith    = "with"
	BlouseWithout = "without"
)

// ComputeMeters converts a piece count to meters. Negative counts count as 0.
func ComputeMeters(pieces int64, withBlouse bool) int64 {
	if pieces <= 0 {
		return 0
	}
	if withBlouse {
		return pieces * MetersPerPieceWithBlouse
	}
	return pieces * MetersPerPieceWithoutBlouse
}

// ComputeMetersText is ComputeMeters for form input. An empty or non-numeric
// piece entry gives an empty meter value, never "0", so screens can keep
// showing their placeholder until something is typed.
func ComputeMetersText(piece string, withBlouse bool) string {
	piece = strings.TrimSpace(piece)
	if piece == "" {
		return ""
	}
	n, err := strconv.ParseInt(piece, 10, 64)
	if err != nil || n < 0 {
		return ""
	}
	return strconv.FormatInt(ComputeMeters(n, withBlouse), 10)
}

// ClampPieces applies the per-keystroke rule for piece entry: digits only and
// never more than maxQty. maxQty <= 0 means the limit is unknown.
func ClampPieces(entered string, maxQty int64) string {
	var b strings.Builder
	for _, r := range entered {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// Too many digits for int64; the limit applies if there is one.
		if maxQty > 0 {
			return strconv.FormatInt(maxQty, 10)
		}
		return ""
	}
	if maxQty > 0 && n > maxQty {
		n = maxQty
	}
	return strconv.FormatInt(n, 10)
}

// WithBlouse reports whether a blouse type means "with". Anything else,
// including empty, means without.
func WithBlouse(blouseType string) bool {
	return strings.EqualFold(strings.TrimSpace(blouseType), BlouseWith)
}

// NormalizeBlouseType maps free input to BlouseWith or BlouseWithout.
func NormalizeBlouseType(v string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case BlouseWith:
		return BlouseWith, true
	case BlouseWithout, "":
		return BlouseWithout, true
	default:
		return "", false
	}
}
