package installer

import (
	"fmt"
	"path"

	"github.com/NielsdaWheelz/gemkit/internal/version"
)

// DefaultDistURL is the official Node.js release server.
const DefaultDistURL = "https://nodejs.org/dist"

// PackageManager is a system package manager that installs the runtime
// unattended.
type PackageManager struct {
	Name string

	// Refresh runs first when set, e.g. to update the package index.
	Refresh []string

	Install []string

	// Upgrade replaces Install when an older runtime is already present.
	// Nil means Install upgrades too.
	Upgrade []string
}

// ArgsFor returns the arguments that bring the runtime up to date.
func (pm PackageManager) ArgsFor(present bool) []string {
	if present && pm.Upgrade != nil {
		return pm.Upgrade
	}
	return pm.Install
}

// Platform describes how the runtime is installed on one OS/arch.
type Platform struct {
	GOOS   string
	GOARCH string

	// PackageManagers are tried in order; the first found on PATH is used.
	PackageManagers []PackageManager
}

// PlatformFor returns the install plan for goos/goarch.
func PlatformFor(goos, goarch string) Platform {
	p := Platform{GOOS: goos, GOARCH: goarch}
	switch goos {
	case "windows":
		agree := []string{"--exact", "--id", "OpenJS.NodeJS.LTS", "--silent",
			"--accept-package-agreements", "--accept-source-agreements"}
		p.PackageManagers = []PackageManager{
			{
				Name:    "winget",
				Install: append([]string{"install"}, agree...),
				Upgrade: append([]string{"upgrade"}, agree...),
			},
			{
				Name:    "choco",
				Install: []string{"install", "nodejs-lts", "-y"},
				Upgrade: []string{"upgrade", "nodejs-lts", "-y"},
			},
		}
	case "darwin":
		p.PackageManagers = []PackageManager{
			{Name: "brew", Install: []string{"install", "node"}, Upgrade: []string{"upgrade", "node"}},
		}
	case "linux":
		p.PackageManagers = []PackageManager{
			{
				Name:    "apt-get",
				Refresh: []string{"update"},
				Install: []string{"install", "-y", "nodejs", "npm"},
			},
			{
				Name:    "dnf",
				Install: []string{"install", "-y", "nodejs", "npm"},
				Upgrade: []string{"upgrade", "-y", "nodejs", "npm"},
			},
		}
	}
	return p
}

// ArtifactName returns the official installer file name for v, or false
// when no installer is published for this platform.
func (p Platform) ArtifactName(v version.Runtime) (string, bool) {
	arch, ok := nodeArch(p.GOOS, p.GOARCH)
	if !ok {
		return "", false
	}
	switch p.GOOS {
	case "windows":
		return fmt.Sprintf("node-v%s-%s.msi", v, arch), true
	case "darwin":
		return fmt.Sprintf("node-v%s.pkg", v), true
	case "linux":
		return fmt.Sprintf("node-v%s-linux-%s.tar.xz", v, arch), true
	}
	return "", false
}

// ArtifactURL joins base, the release directory and name.
func ArtifactURL(base string, v version.Runtime, name string) string {
	return base + "/" + path.Join("v"+v.String(), name)
}

// InstallCommand returns the unattended install command for an artifact.
func (p Platform) InstallCommand(artifact string) (string, []string) {
	switch p.GOOS {
	case "windows":
		return "msiexec", []string{"/i", artifact, "/qn", "/norestart"}
	case "darwin":
		return "installer", []string{"-pkg", artifact, "-target", "/"}
	default:
		return "tar", []string{"-xJf", artifact, "-C", "/usr/local", "--strip-components=1"}
	}
}

// TempPattern is the CreateTemp pattern for a downloaded artifact; the
// extension is kept so msiexec and installer accept the file.
func TempPattern(name string) string {
	ext := path.Ext(name)
	if ext == ".xz" {
		ext = ".tar.xz"
	}
	return "node-*" + ext
}

func nodeArch(goos, goarch string) (string, bool) {
	switch goarch {
	case "amd64":
		return "x64", true
	case "arm64":
		return "arm64", true
	case "386":
		if goos == "windows" {
			return "x86", true
		}
	}
	return "", false
}
