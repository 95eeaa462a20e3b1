//go:build ruleguard

// Package gorules contains custom linting rules for golangci-lint via
// ruleguard. The watcher pipeline is built around timestamps (sighting
// records, archive keys, sun events), so these rules keep time handling
// consistent.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// TimeDateConstants detects magic date format strings and suggests the
// named constants added in Go 1.20.
//
// Old pattern:
//
//	t.Format("2006-01-02")
//	time.Parse("2006-01-02 15:04:05", s)
//
// New pattern:
//
//	t.Format(time.DateOnly)
//	time.Parse(time.DateTime, s)
//
// Archive file names and sun-event cache keys are date-keyed, so these
// format strings show up throughout the tree.
//
// See: https://pkg.go.dev/time#pkg-constants
func TimeDateConstants(m dsl.Matcher) {
	m.Match(
		`$t.Format("2006-01-02")`,
	).
		Report(`use $t.Format(time.DateOnly) instead of magic format string (Go 1.20+)`).
		Suggest(`$t.Format(time.DateOnly)`)

	m.Match(
		`time.Parse("2006-01-02", $s)`,
	).
		Report(`use time.Parse(time.DateOnly, $s) instead of magic format string (Go 1.20+)`).
		Suggest(`time.Parse(time.DateOnly, $s)`)

	m.Match(
		`$t.Format("2006-01-02 15:04:05")`,
	).
		Report(`use $t.Format(time.DateTime) instead of magic format string (Go 1.20+)`).
		Suggest(`$t.Format(time.DateTime)`)

	m.Match(
		`time.Parse("2006-01-02 15:04:05", $s)`,
	).
		Report(`use time.Parse(time.DateTime, $s) instead of magic format string (Go 1.20+)`).
		Suggest(`time.Parse(time.DateTime, $s)`)
}

// TimeSinceNow detects time.Now().Sub(t) and suggests time.Since.
//
// Old pattern:
//
//	elapsed := time.Now().Sub(start)
//
// New pattern:
//
//	elapsed := time.Since(start)
//
// See: https://pkg.go.dev/time#Since
func TimeSinceNow(m dsl.Matcher) {
	m.Match(
		`time.Now().Sub($t)`,
	).
		Report("use time.Since($t) instead of time.Now().Sub($t)").
		Suggest("time.Since($t)")

	m.Match(
		`$t.Sub(time.Now())`,
	).
		Report("use time.Until($t) instead of $t.Sub(time.Now())").
		Suggest("time.Until($t)")
}
