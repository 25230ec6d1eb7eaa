// Package startup handles application initialization: configuration
// loading from environment variables, directory and external-tool checks,
// and the structured startup/shutdown log output.
//
// Build information (Version, Commit, BuildTime) is injected at link time
// via -ldflags.
package startup
