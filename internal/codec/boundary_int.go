// Package codec converts identifiers between the host's boundary-safe integer
// representation and the native 64-bit unsigned identifier types.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// MaxSafeInteger is the largest integer a float64-backed host number holds exactly.
const MaxSafeInteger = 1<<53 - 1

const (
	maxTextLen  = 128
	maxExponent = 64
	numberChars = "0123456789+-.eE"
)

// ErrInvalidInput is matched by every decode and parse failure.
var ErrInvalidInput = errors.New("codec: invalid boundary integer")

var (
	maxUint64 = new(big.Int).SetUint64(math.MaxUint64)
	maxSafe   = big.NewInt(MaxSafeInteger)
)

// BoundaryInt carries a number across the host boundary without precision loss.
// The zero value is unset and never decodes.
type BoundaryInt struct {
	r    *big.Rat
	text string
}

// Encode converts a native identifier into its boundary form. It never fails.
func Encode(v uint64) BoundaryInt {
	return BoundaryInt{r: new(big.Rat).SetInt(new(big.Int).SetUint64(v))}
}

// FromBigInt wraps an arbitrary-precision integer. A nil v yields an unset value.
func FromBigInt(v *big.Int) BoundaryInt {
	if v == nil {
		return BoundaryInt{}
	}
	return BoundaryInt{r: new(big.Rat).SetInt(v)}
}

// Decode converts a boundary value back into a native identifier.
// Unset, negative, non-integral and out-of-range values fail with ErrInvalidInput.
func Decode(b BoundaryInt) (uint64, error) {
	switch {
	case b.r == nil:
		return 0, fmt.Errorf("%w: value is missing", ErrInvalidInput)
	case !b.r.IsInt():
		return 0, fmt.Errorf("%w: %s is not an integer", ErrInvalidInput, b)
	case b.r.Sign() < 0:
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidInput, b)
	case b.r.Num().Cmp(maxUint64) > 0:
		return 0, fmt.Errorf("%w: %s exceeds 64-bit unsigned range", ErrInvalidInput, b)
	}
	return b.r.Num().Uint64(), nil
}

// Parse reads the host's textual number form: a decimal integer or fraction with
// an optional exponent. Base prefixes and a/b fractions are rejected.
func Parse(s string) (BoundaryInt, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return BoundaryInt{}, fmt.Errorf("%w: empty value", ErrInvalidInput)
	}
	if len(t) > maxTextLen {
		return BoundaryInt{}, fmt.Errorf("%w: value longer than %d characters", ErrInvalidInput, maxTextLen)
	}
	for _, c := range t {
		if !strings.ContainsRune(numberChars, c) {
			return BoundaryInt{}, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, t)
		}
	}
	if i := strings.IndexAny(t, "eE"); i >= 0 {
		exp, err := strconv.Atoi(t[i+1:])
		if err != nil || exp > maxExponent || exp < -maxExponent {
			return BoundaryInt{}, fmt.Errorf("%w: %q has an unsupported exponent", ErrInvalidInput, t)
		}
	}
	r, ok := new(big.Rat).SetString(t)
	if !ok {
		return BoundaryInt{}, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, t)
	}
	return BoundaryInt{r: r, text: t}, nil
}

// IsSet reports whether b holds a value.
func (b BoundaryInt) IsSet() bool { return b.r != nil }

// IsSafe reports whether b is an integer a float64 host number carries exactly.
func (b BoundaryInt) IsSafe() bool {
	if b.r == nil || !b.r.IsInt() {
		return false
	}
	return new(big.Int).Abs(b.r.Num()).Cmp(maxSafe) <= 0
}

func (b BoundaryInt) String() string {
	switch {
	case b.text != "":
		return b.text
	case b.r == nil:
		return ""
	case b.r.IsInt():
		return b.r.Num().String()
	default:
		return b.r.RatString()
	}
}

// MarshalJSON emits the value as a decimal string so hosts never round it.
func (b BoundaryInt) MarshalJSON() ([]byte, error) {
	if b.r == nil {
		return []byte("null"), nil
	}
	if b.r.IsInt() {
		return json.Marshal(b.r.Num().String())
	}
	return json.Marshal(b.String())
}

// UnmarshalJSON accepts a JSON string or a JSON number.
func (b *BoundaryInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*b = BoundaryInt{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		raw = s
	}
	v, err := Parse(raw)
	if err != nil {
		return err
	}
	*b = v
	return nil
}
