package version

import "runtime/debug"

// Version can be set at build time:
// go build -ldflags "-X github.com/calinburloiu/microtonalist-sub001/version.Version=$(git describe --dirty)"
var Version string

// VersionOrHash is the tagged version when one was baked in, otherwise the
// short vcs revision from the build info, with a -dirty suffix for modified
// trees. Empty when neither is available.
var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var revision string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) < 7 {
		return ""
	}
	if modified {
		return revision[:7] + "-dirty"
	}
	return revision[:7]
}()
