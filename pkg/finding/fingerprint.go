package finding

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spaolacci/murmur3"
)

// NormalizeLocation reduces a location to its stable identity: method,
// scheme, host, path and parameter NAME. Query values are volatile
// (they carry the payload under test) and are stripped; the parameter
// name is what distinguishes one injection point from another on the
// same path.
func NormalizeLocation(loc Location) string {
	method := strings.ToUpper(loc.Method)
	if method == "" {
		method = "GET"
	}

	stable := loc.URL
	if u, err := url.Parse(loc.URL); err == nil {
		u.RawQuery = ""
		u.Fragment = ""
		if u.Path == "" {
			u.Path = "/"
		}
		stable = u.String()
	}

	return method + " " + stable + " param=" + loc.Parameter
}

// FingerprintOf derives the stable identity key for a finding from its
// rule and normalized location. Two findings share a fingerprint exactly
// when they report the same rule at the same injection point; the
// aggregator relies on this being exact identity, not similarity.
func FingerprintOf(ruleID string, loc Location) string {
	h := murmur3.Sum64([]byte(ruleID + "|" + NormalizeLocation(loc)))
	return fmt.Sprintf("%016x", h)
}
