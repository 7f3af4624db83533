package loom

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// SchemaVersion is the ordinal of one structural shape. Ordinals are
// contiguous from SchemaV0, the shape of files written before the version
// marker existed.
type SchemaVersion int

const (
	SchemaV0 SchemaVersion = iota
	SchemaV1
	SchemaV2
	SchemaV3
	SchemaV4
	SchemaV5
)

// CurrentSchema is the ordinal of LoomState.
const CurrentSchema = SchemaV5

// LegacyRelease is the release assumed for files with no version marker.
const LegacyRelease = "0.0.0"

func (v SchemaVersion) String() string {
	return fmt.Sprintf("v%d", int(v))
}

// VersionedState is implemented by every historical shape and by LoomState.
// The set is closed: only this package can add members.
type VersionedState interface {
	SchemaVersion() SchemaVersion
	isVersionedState()
}

// ValidRelease reports whether release is a dotted semantic version.
func ValidRelease(release string) bool {
	_, ok := canonicalRelease(release)
	return ok
}

// CompareReleases orders two release tokens like semver.Compare, accepting
// tokens with or without a leading "v".
func CompareReleases(a, b string) (int, error) {
	ca, ok := canonicalRelease(a)
	if !ok {
		return 0, fmt.Errorf("loom: invalid release %q", a)
	}
	cb, ok := canonicalRelease(b)
	if !ok {
		return 0, fmt.Errorf("loom: invalid release %q", b)
	}
	return semver.Compare(ca, cb), nil
}

// ReleaseBefore reports whether a sorts strictly before b. Invalid tokens
// never sort before anything.
func ReleaseBefore(a, b string) bool {
	cmp, err := CompareReleases(a, b)
	return err == nil && cmp < 0
}

func canonicalRelease(release string) (string, bool) {
	r := strings.TrimSpace(release)
	if r == "" {
		return "", false
	}
	if !strings.HasPrefix(r, "v") {
		r = "v" + r
	}
	// semver accepts v1 and v1.2 shorthands; markers are always full triples.
	if strings.Count(strings.SplitN(strings.SplitN(r, "-", 2)[0], "+", 2)[0], ".") != 2 {
		return "", false
	}
	if !semver.IsValid(r) {
		return "", false
	}
	return r, true
}

func trimRelease(release string) string {
	return strings.TrimPrefix(strings.TrimSpace(release), "v")
}
