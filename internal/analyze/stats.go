// Package analyze derives financial insights from a normalized record set.
//
// Every analyzer is stateless and treats its input as read-only, so the
// engine can fan the independent ones out in parallel. Each result carries a
// human-readable explanation and the base currency tag; none of them raise
// on thin data. An analyzer that cannot produce a meaningful result returns
// a well-defined neutral one instead.
package analyze

import (
	"math"
	"sort"
	"time"
)

// monthKey renders a UTC calendar month as "YYYY-MM".
func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// sortedKeys returns the map's keys in ascending order, for deterministic
// iteration over month buckets.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// popStdDev is the population standard deviation.
func popStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// median of a slice; the input is copied, not mutated.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
