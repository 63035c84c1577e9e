package version

import (
	"fmt"
	"strings"
)

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0
)

// buildMetadataCharset lists the characters allowed in build metadata.
const buildMetadataCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

// appBuild can be set at link time with
// '-ldflags "-X github.com/quasarnet/quasard/version.appBuild=foo"'.
// It may only contain characters from buildMetadataCharset.
var appBuild string

var cachedVersion string

// Version returns the semantic version of the application, with build
// metadata appended when appBuild is set and well formed.
func Version() string {
	if cachedVersion != "" {
		return cachedVersion
	}

	cachedVersion = fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
	if build := sanitizeBuildMetadata(appBuild); build != "" {
		cachedVersion += "-" + build
	}

	return cachedVersion
}

// sanitizeBuildMetadata returns str unchanged, or an empty string when
// str contains a character outside buildMetadataCharset.
func sanitizeBuildMetadata(str string) string {
	for _, r := range str {
		if !strings.ContainsRune(buildMetadataCharset, r) {
			return ""
		}
	}
	return str
}
