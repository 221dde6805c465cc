// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gemm

import (
	"fmt"
	"runtime/debug"
	"strings"
)

const root = "github.com/LynnColeArt/gemm"

// BuildInfo describes the binary the package was linked into.
type BuildInfo struct {
	Version   string // Module version, "(devel)" for a local build
	Sum       string // Module checksum, empty for the main module
	GoVersion string // Toolchain that built the binary
	Revision  string // VCS revision, empty without VCS stamping
	Time      string // VCS commit time in RFC 3339
	Modified  bool   // Working tree had uncommitted changes
}

// String formats the build information on one line
func (b BuildInfo) String() string {
	var sb strings.Builder
	sb.WriteString(b.Version)
	if b.Version == "" {
		sb.WriteString("(unknown)")
	}
	if b.Revision != "" {
		rev := b.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		fmt.Fprintf(&sb, " rev %s", rev)
		if b.Modified {
			sb.WriteString("+dirty")
		}
		if b.Time != "" {
			fmt.Fprintf(&sb, " (%s)", b.Time)
		}
	}
	if b.GoVersion != "" {
		fmt.Fprintf(&sb, " built with %s", b.GoVersion)
	}
	return sb.String()
}

// ReadBuildInfo returns the module version, toolchain and VCS stamp of the
// running binary. ok is false in binaries built without module support.
func ReadBuildInfo() (info BuildInfo, ok bool) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return BuildInfo{}, false
	}
	return buildInfoFrom(b), true
}

func buildInfoFrom(b *debug.BuildInfo) BuildInfo {
	info := BuildInfo{GoVersion: b.GoVersion}
	info.Version, info.Sum = moduleVersion(b)
	for _, s := range b.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.time":
			info.Time = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// Version returns the version of the gemm module and its checksum. The
// returned values are only valid in binaries built with module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return moduleVersion(b)
}

// moduleVersion finds this module either as the main module or as a
// dependency, following replace directives.
func moduleVersion(b *debug.BuildInfo) (version, sum string) {
	if b.Main.Path == root {
		return b.Main.Version, b.Main.Sum
	}
	for _, m := range b.Deps {
		if m.Path != root {
			continue
		}
		if r := m.Replace; r != nil {
			switch {
			case r.Version != "" && r.Path != "":
				return fmt.Sprintf("%s=>%s %s", m.Version, r.Path, r.Version), r.Sum
			case r.Version != "":
				return fmt.Sprintf("%s=>%s", m.Version, r.Version), r.Sum
			case r.Path != "":
				return fmt.Sprintf("%s=>%s", m.Version, r.Path), r.Sum
			default:
				return m.Version + "*", m.Sum + "*"
			}
		}
		return m.Version, m.Sum
	}
	return "", ""
}
