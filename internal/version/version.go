// Package version holds the gemkit build version and the dotted runtime
// version type the installer compares against its minimum.
package version

// Version is the gemkit build version, overridden at link time with
// -ldflags "-X github.com/NielsdaWheelz/gemkit/internal/version.Version=...".
var Version = "dev"
