package reconcile

import (
	"github.com/agnivade/levenshtein"
	"github.com/samber/lo"
	"math"
	"shopfloor-kpi/internal/constants"
	"shopfloor-kpi/internal/storage"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultFuzzyThreshold is the similarity from which two texts are the same problem.
const DefaultFuzzyThreshold = 88

// Normalizer canonicalizes the free text operators type for problems and causes.
type Normalizer struct {
	Threshold int
	Typos     []constants.Typo
}

func NewNormalizer(threshold int) *Normalizer {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &Normalizer{Threshold: threshold, Typos: constants.ProblemTypos}
}

// Similarity scores two strings from 0 to 100 using the edit distance relative to the
// longer one.
func Similarity(a, b string) int {
	if a == b {
		return 100
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * float64(longest-d) / float64(longest)))
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func (n *Normalizer) prepare(s string) string {
	s = capitalize(s)
	for _, t := range n.Typos {
		s = strings.ReplaceAll(s, t.Wrong, t.Right)
	}
	return s
}

// Canonical maps every input text to its representative spelling. Unique prepared texts
// are visited in sorted order; the first text of a cluster becomes its representative
// and claims every later unclaimed text scoring at least Threshold against it.
func (n *Normalizer) Canonical(texts []string) map[string]string {
	prepared := make(map[string]string, len(texts))
	for _, t := range texts {
		prepared[t] = n.prepare(t)
	}

	uniq := lo.Uniq(lo.Values(prepared))
	slices.Sort(uniq)

	rep := make(map[string]string, len(uniq))
	for i, s := range uniq {
		if _, ok := rep[s]; ok {
			continue
		}
		rep[s] = s
		for _, t := range uniq[i+1:] {
			if _, ok := rep[t]; ok {
				continue
			}
			if Similarity(s, t) >= n.Threshold {
				rep[t] = s
			}
		}
	}

	out := make(map[string]string, len(prepared))
	for raw, p := range prepared {
		out[raw] = rep[p]
	}
	return out
}

// Apply rewrites problem and cause texts of the intervals to their canonical spelling.
func (n *Normalizer) Apply(ivs []storage.Interval) []storage.Interval {
	var problems, causes []string
	for _, iv := range ivs {
		if iv.Problem != nil {
			problems = append(problems, *iv.Problem)
		}
		if iv.Cause != nil {
			causes = append(causes, *iv.Cause)
		}
	}
	problemMap := n.Canonical(problems)
	causeMap := n.Canonical(causes)

	out := slices.Clone(ivs)
	for i := range out {
		if out[i].Problem != nil {
			p := problemMap[*out[i].Problem]
			out[i].Problem = &p
		}
		if out[i].Cause != nil {
			c := causeMap[*out[i].Cause]
			out[i].Cause = &c
		}
	}
	return out
}
