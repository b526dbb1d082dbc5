// Package indicator derives the Efficiency, Performance and Repair indicators from the
// reconciled stop timeline.
package indicator

import (
	"fmt"
	"strings"
)

// Kind is one of the three shop-floor indicators.
type Kind string

const (
	Efficiency  Kind = "eficiencia"
	Performance Kind = "performance"
	Repair      Kind = "reparo"
)

var Kinds = []Kind{Efficiency, Performance, Repair}

var cacheKeys = map[Kind]string{
	Efficiency:  "df_eff",
	Performance: "df_perf",
	Repair:      "df_repair",
}

// Key is the cache key the current-month rows are published under.
func (k Kind) Key() string {
	return cacheKeys[k]
}

// LookbackKey is the cache key of the rows over the lookback window.
func (k Kind) LookbackKey() string {
	return cacheKeys[k] + "_lookback"
}

// ParseKind accepts the indicator names and the short forms used in URLs.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eff", "efficiency", "eficiencia", "eficiência":
		return Efficiency, nil
	case "perf", "performance":
		return Performance, nil
	case "repair", "reparo":
		return Repair, nil
	}
	return "", fmt.Errorf("indicator: unknown kind %q", s)
}
