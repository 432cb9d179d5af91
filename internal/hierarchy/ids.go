package hierarchy

import (
	"fmt"

	"github.com/dgallion1/guidesql/internal/guide"
)

// Scheme decides which identifier each section gets before reconciliation.
// The dump itself carries no identifier column, so this is always the
// caller's call.
type Scheme string

const (
	// SchemeNone leaves every ID at 0; no numeric parent reference resolves.
	SchemeNone Scheme = "none"
	// SchemePosition numbers sections base, base+1, ... in input order, the
	// way a serial column fills on a fresh import.
	SchemePosition Scheme = "position"
	// SchemeOrderNum reuses order_num as the identifier.
	SchemeOrderNum Scheme = "order-num"
)

// ParseScheme validates a scheme name.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeNone, SchemePosition, SchemeOrderNum:
		return Scheme(s), nil
	case "":
		return SchemeNone, nil
	}
	return "", fmt.Errorf("unknown id scheme %q (want none, position or order-num)", s)
}

// AssignIDs sets Section.ID according to scheme. base applies to
// SchemePosition only and defaults to 1.
func AssignIDs(sections []*guide.Section, scheme Scheme, base int64) {
	if base <= 0 {
		base = 1
	}
	for i, s := range sections {
		switch scheme {
		case SchemePosition:
			s.ID = base + int64(i)
		case SchemeOrderNum:
			s.ID = int64(s.OrderNum)
		default:
			s.ID = 0
		}
	}
}
