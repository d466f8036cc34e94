// Package version carries the build identity, kept apart from cli and
// services so either can import it without a cycle.
package version

// Overridden through -ldflags on release builds. The defaults identify a
// from-source build.
//
// v2.1.0 adds recursive folder upload and per-item error collection in
// batch deletes.
var (
	Version   = "v2.1.0"
	BuildTime = "unknown"
)
