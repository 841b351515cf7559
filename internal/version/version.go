package version

import (
	"fmt"
	"io"
	"runtime"
)

// Populated at link time with -ldflags "-X".
var (
	App       string = "dirgate"
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
	BuildOS   string
	BuildArch string
)

// Info is the build description reported by the CLI and /healthz
type Info struct {
	App       string `json:"app"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build description, filling runtime defaults
func Get() Info {
	info := Info{
		App:       App,
		Version:   String(),
		GitCommit: getShortCommit(),
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		Platform:  BuildOS + "/" + BuildArch,
	}
	if info.GoVersion == "" {
		info.GoVersion = runtime.Version()
	}
	if BuildOS == "" || BuildArch == "" {
		info.Platform = runtime.GOOS + "/" + runtime.GOARCH
	}
	return info
}

// PrintVersion prints the version information
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "%s version %s\n", App, String())
	if GitCommit != "" {
		fmt.Fprintf(w, "Git commit: %s\n", getShortCommit())
	}
	if BuildTime != "" {
		fmt.Fprintf(w, "Build time: %s\n", BuildTime)
	}
	if GoVersion != "" {
		fmt.Fprintf(w, "Go version: %s\n", GoVersion)
	}
	if BuildOS != "" && BuildArch != "" {
		fmt.Fprintf(w, "Built for: %s/%s\n", BuildOS, BuildArch)
	}
}

// String returns the version, "dev" for untagged builds
func String() string {
	if Version != "" {
		return Version
	}
	return "dev"
}

func getShortCommit() string {
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}
