package version

// Version is the version of mongobridge. It is overridden at build time with
// -ldflags "-X github.com/hashicorp-forge/mongobridge/internal/version.Version=...".
var Version = "0.1.0"
