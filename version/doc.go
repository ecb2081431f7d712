// Package version provides build version information for applications
// embedding streamkit.
//
// Version and git commit are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/streamkit/version.Version=1.0.0"
//
// When not set, values are recovered from the binary's build info.
package version
