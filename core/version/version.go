package version

// Version is the pkgtree release version, overridden at build time with
// -ldflags "-X github.com/pkgtree/pkgtree/core/version.Version=...".
var Version = "0.3.0-dev"
