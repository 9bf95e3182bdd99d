package legacy

import (
	"regexp"
	"strings"
)

// signaturePattern matches the structured routing/signature flow cell:
//
//	<role>/<name>(<account>) → <role>/<name>(<account>)
//
// The left side is the trainee who filed the form, the right side the
// teacher who countersigned it.
var signaturePattern = regexp.MustCompile(`([^/]+)/([^(]+)\(([^)]+)\)\s*→\s*([^/]+)/([^(]+)\(([^)]+)\)`)

// ParseRoutingLog extracts the trainee name, trainee account and
// teacher name from a routing/signature cell. Cells that do not match
// the structured flow format are treated as a bare trainee name with
// no account and no countersigning teacher.
func ParseRoutingLog(cell string) (trainee, account, teacher string) {
	m := signaturePattern.FindStringSubmatch(cell)
	if m == nil {
		return strings.TrimSpace(cell), "", ""
	}
	return strings.TrimSpace(m[2]), strings.TrimSpace(m[3]), strings.TrimSpace(m[5])
}
