// Package version reports build information for the nescore tools
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"time"
)

// Set at build time via -ldflags "-X nescore/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info contains build information
type Info struct {
	Version    string            `json:"version"`
	GitCommit  string            `json:"git_commit"`
	BuildTime  string            `json:"build_time"`
	Modified   bool              `json:"modified"`
	GoVersion  string            `json:"go_version"`
	Platform   string            `json:"platform"`
	CGOEnabled bool              `json:"cgo_enabled"`
	Tags       string            `json:"tags,omitempty"`
	Deps       map[string]string `json:"deps,omitempty"`
}

// Get collects build information, filling unset link-time values from the
// embedded VCS settings
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	return merge(info, bi)
}

func merge(info Info, bi *debug.BuildInfo) Info {
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		case "CGO_ENABLED":
			info.CGOEnabled = s.Value == "1"
		case "-tags":
			info.Tags = s.Value
		}
	}
	if len(bi.Deps) > 0 {
		info.Deps = make(map[string]string, len(bi.Deps))
		for _, d := range bi.Deps {
			info.Deps[d.Path] = d.Version
		}
	}
	return info
}

// Short returns the version, or dev-<commit> for untagged builds
func (i Info) Short() string {
	if i.Version != "dev" || i.GitCommit == "unknown" {
		return i.Version
	}
	v := "dev-" + shortCommit(i.GitCommit)
	if i.Modified {
		v += "+dirty"
	}
	return v
}

// String returns a one-line description
func (i Info) String() string {
	var sb strings.Builder
	sb.WriteString(i.Short())
	if i.GitCommit != "unknown" {
		fmt.Fprintf(&sb, " (commit %s)", shortCommit(i.GitCommit))
	}
	if i.BuildTime != "unknown" {
		if t, err := time.Parse(time.RFC3339, i.BuildTime); err == nil {
			fmt.Fprintf(&sb, " built %s", t.UTC().Format("2006-01-02 15:04:05"))
		} else {
			fmt.Fprintf(&sb, " built %s", i.BuildTime)
		}
	}
	fmt.Fprintf(&sb, " %s %s", i.GoVersion, i.Platform)
	if i.Tags != "" {
		fmt.Fprintf(&sb, " tags=%s", i.Tags)
	}
	return sb.String()
}

// Fprint writes a multi-line report for the named tool, including module
// dependencies
func (i Info) Fprint(w io.Writer, tool string) {
	fmt.Fprintf(w, "%s %s\n", tool, i.Short())
	fmt.Fprintf(w, "  commit:  %s\n", i.GitCommit)
	fmt.Fprintf(w, "  built:   %s\n", i.BuildTime)
	fmt.Fprintf(w, "  go:      %s %s (cgo %t)\n", i.GoVersion, i.Platform, i.CGOEnabled)
	if i.Tags != "" {
		fmt.Fprintf(w, "  tags:    %s\n", i.Tags)
	}
	if len(i.Deps) == 0 {
		return
	}
	paths := make([]string, 0, len(i.Deps))
	for p := range i.Deps {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	fmt.Fprintln(w, "  deps:")
	for _, p := range paths {
		fmt.Fprintf(w, "    %s %s\n", p, i.Deps[p])
	}
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
