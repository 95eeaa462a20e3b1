//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// TestingContext detects context.Background() in test functions and
// suggests t.Context(), which is cancelled automatically when the test
// ends. The detector and tracker tests pass contexts into every blocking
// call, so stale background contexts hide shutdown bugs.
//
// Old pattern:
//
//	func TestFoo(t *testing.T) {
//	    ctx := context.Background()
//	    ...
//	}
//
// New pattern (Go 1.24+):
//
//	func TestFoo(t *testing.T) {
//	    ctx := t.Context()
//	    ...
//	}
//
// See: https://pkg.go.dev/testing#T.Context
func TestingContext(m dsl.Matcher) {
	m.Match(
		`$ctx := context.Background()`,
	).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("use t.Context() instead of context.Background() in tests (Go 1.24+); it is cancelled when the test ends")

	m.Match(
		`$ctx := context.TODO()`,
	).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("use t.Context() instead of context.TODO() in tests (Go 1.24+)")
}

// BenchmarkLoop detects the old benchmark iteration pattern and suggests b.Loop().
//
// Old pattern:
//
//	for i := 0; i < b.N; i++ { ... }
//
// New pattern (Go 1.24+):
//
//	for b.Loop() { ... }
//
// See: https://pkg.go.dev/testing#B.Loop
func BenchmarkLoop(m dsl.Matcher) {
	m.Match(
		`for $i := 0; $i < $b.N; $i++ { $*body }`,
	).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for $i := 0; $i < $b.N; $i++ (Go 1.24+)")

	m.Match(
		`for range $b.N { $*body }`,
	).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for range $b.N (Go 1.24+)").
		Suggest("for $b.Loop() { $body }")
}
