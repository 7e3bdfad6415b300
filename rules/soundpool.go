//go:build ruleguard

// Package gorules contains custom linting rules for golangci-lint via ruleguard.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// PlaySoundError flags play requests whose error is discarded. A rejected
// low priority request returns the zero Handle together with
// ErrNoSlotAvailable; dropping the error hides the rejection.
func PlaySoundError(m dsl.Matcher) {
	m.Import("github.com/tphakala/soundpool/internal/audiocore")

	m.Match(
		`$h, _ := $p.PlaySound($*_)`,
		`$h, _ = $p.PlaySound($*_)`,
		`_, _ = $p.PlaySound($*_)`,
	).
		Where(m["p"].Type.Is("*audiocore.SourcePool") || m["p"].Type.Is("*audiocore.Locked")).
		Report("check the error of $p.PlaySound; low priority requests can be rejected")
}

// ZeroHandle suggests IsZero over comparing with a Handle literal.
func ZeroHandle(m dsl.Matcher) {
	m.Import("github.com/tphakala/soundpool/internal/audiocore")

	m.Match(`$h == audiocore.Handle{}`).
		Where(m["h"].Type.Is("audiocore.Handle")).
		Report("use $h.IsZero()").
		Suggest("$h.IsZero()")

	m.Match(`$h != audiocore.Handle{}`).
		Where(m["h"].Type.Is("audiocore.Handle")).
		Report("use !$h.IsZero()").
		Suggest("!$h.IsZero()")
}

// StdlibErrors flags errors created with the standard library outside tests.
// Errors built with internal/errors carry a component and a category and
// reach telemetry.
func StdlibErrors(m dsl.Matcher) {
	m.Match(`errors.New($msg)`).
		Where(m.File().Imports("errors") && !m.File().Name.Matches(`_test\.go$`)).
		Report("use the internal/errors builder instead of errors.New($msg)")
}

// WaitGroupModernize detects WaitGroup patterns that can use wg.Go().
//
//	wg.Add(1)
//	go func() {
//	    defer wg.Done()
//	    doSomething()
//	}()
//
// becomes
//
//	wg.Go(func() {
//	    doSomething()
//	})
func WaitGroupModernize(m dsl.Matcher) {
	m.Match(`go func() { defer $wg.Done(); $*_ }()`).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("Use $wg.Go(func() { ... }) instead of go func() { defer $wg.Done(); ... }() (Go 1.25+)").
		Suggest("$wg.Go(func() { $*_ })")

	m.Match(`$wg.Add(1)`).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("Consider using $wg.Go() which calls Add(1) automatically (Go 1.25+)")
}

// BenchmarkLoop suggests b.Loop() over iterating b.N.
func BenchmarkLoop(m dsl.Matcher) {
	m.Match(`for $i := 0; $i < $b.N; $i++ { $*body }`).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for $i := 0; $i < $b.N; $i++ (Go 1.24+)")

	m.Match(`for range $b.N { $*body }`).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for range $b.N (Go 1.24+)").
		Suggest("for $b.Loop() { $body }")
}

// TestingContext suggests t.Context() over a background context in tests.
func TestingContext(m dsl.Matcher) {
	m.Match(
		`$ctx := context.Background()`,
		`$ctx := context.TODO()`,
		`$fn(context.Background(), $*args)`,
	).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("in tests, use t.Context() instead of a background context (Go 1.24+)")
}
