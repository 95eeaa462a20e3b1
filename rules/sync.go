//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// WaitGroupGo detects the manual Add/Done WaitGroup pattern and suggests
// Go 1.25's wg.Go(). The motion engine, detector and notification service
// all track goroutines with WaitGroups, so mismatched Add/Done calls are a
// real hazard here.
//
// Old pattern:
//
//	wg.Add(1)
//	go func() {
//	    defer wg.Done()
//	    work()
//	}()
//
// New pattern (Go 1.25+):
//
//	wg.Go(func() {
//	    work()
//	})
//
// See: https://pkg.go.dev/sync#WaitGroup.Go
func WaitGroupGo(m dsl.Matcher) {
	m.Match(
		`$wg.Add(1); go func() { defer $wg.Done(); $*body }()`,
	).
		Where(m["wg"].Type.Is("*sync.WaitGroup") || m["wg"].Type.Is("sync.WaitGroup")).
		Report("use $wg.Go(func() { $body }) instead of manual Add/Done pattern (Go 1.25+)").
		Suggest("$wg.Go(func() { $body })")

	m.Match(`go func() { $*_; $wg.Done() }()`).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("use $wg.Go(func() { ... }) instead of a trailing Done() call (Go 1.25+)")
}

// MutexByValue detects sync.Mutex passed or copied by value, which
// silently forks the lock.
//
// See: https://pkg.go.dev/sync#Mutex
func MutexByValue(m dsl.Matcher) {
	m.Match(`func $_($_ sync.Mutex) $*_ { $*_ }`).
		Report("sync.Mutex must not be copied; pass a pointer")

	m.Match(`func $_($_ sync.RWMutex) $*_ { $*_ }`).
		Report("sync.RWMutex must not be copied; pass a pointer")
}
