// Package normalize canonicalizes scalar values so that equivalent
// representations coming from different systems compare equal.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/TFMV/tablecheck/pkg/core"
)

// FallthroughPolicy decides what Normalize returns for a string that matches
// no canonicalization rule.
type FallthroughPolicy string

const (
	// FallthroughNull returns Null for unmatched strings. This is the
	// historical behavior: any two unmatched strings compare equal.
	FallthroughNull FallthroughPolicy = "null"
	// FallthroughString returns the trimmed, lower-cased string.
	FallthroughString FallthroughPolicy = "string"
)

// ParsePolicy parses a policy name. The empty string selects FallthroughNull.
func ParsePolicy(s string) (FallthroughPolicy, error) {
	switch FallthroughPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FallthroughNull:
		return FallthroughNull, nil
	case FallthroughString:
		return FallthroughString, nil
	default:
		return "", fmt.Errorf("unknown fallthrough policy %q (want %q or %q)", s, FallthroughNull, FallthroughString)
	}
}

// canonical maps lower-cased inputs to their canonical values.
var canonical = map[string]core.Scalar{
	"yes":       core.String("y"),
	"no":        core.String("n"),
	"true":      core.String("1"),
	"false":     core.String("0"),
	"none":      core.Null(),
	"":          core.Null(),
	"nan":       core.Null(),
	"n/a":       core.Null(),
	"undefined": core.Null(),
	"0.0":       core.Integer(0),
	"1.0":       core.Integer(1),
	"infinity":  core.Float(math.Inf(1)),
	"-infinity": core.Float(math.Inf(-1)),
}

// Normalizer applies the canonicalization table. The zero value uses FallthroughNull.
type Normalizer struct {
	Fallthrough FallthroughPolicy
}

// New returns a Normalizer with the given fallthrough policy.
func New(policy FallthroughPolicy) *Normalizer {
	return &Normalizer{Fallthrough: policy}
}

var defaultNormalizer = New(FallthroughNull)

// Normalize canonicalizes v with the default (FallthroughNull) normalizer.
func Normalize(v core.Scalar) core.Scalar {
	return defaultNormalizer.Normalize(v)
}

// Normalize canonicalizes v. Non-string values pass through unchanged.
func (n *Normalizer) Normalize(v core.Scalar) core.Scalar {
	s, ok := v.Str()
	if !ok {
		return v
	}
	key := n.fold(strings.TrimSpace(s))
	if out, ok := canonical[key]; ok {
		return out
	}
	if isDigits(key) {
		if i, err := strconv.ParseInt(key, 10, 64); err == nil {
			return core.Integer(i)
		}
	}
	if n.Fallthrough == FallthroughString {
		return core.String(key)
	}
	return core.Null()
}

// fold lower-cases s. A cases.Caser is not safe for concurrent use, so one
// is built per non-ASCII call.
func (n *Normalizer) fold(s string) string {
	if isASCII(s) {
		return strings.ToLower(s)
	}
	return cases.Lower(language.Und).String(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
