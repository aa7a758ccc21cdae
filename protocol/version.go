// Package protocol models the negotiated core-driver-interface (CDI) version
// that gates which operations a request may use.
package protocol

import (
	"context"
	"errors"
	"strings"
)

// Version is a negotiated CDI version.
type Version uint8

const (
	// VersionUnknown is the zero value and never negotiated.
	VersionUnknown Version = iota
	// Version10 is the earliest supported version. It predates JWT payload access.
	Version10
	Version20
	Version21
	Version22
	Version23
)

// ErrUnsupportedVersion is returned by [Parse] for strings outside the known set.
var ErrUnsupportedVersion = errors.New("cdi version not supported")

var versionNames = [...]string{
	VersionUnknown: "",
	Version10:      "1.0",
	Version20:      "2.0",
	Version21:      "2.1",
	Version22:      "2.2",
	Version23:      "2.3",
}

// Parse resolves a wire version string such as "2.1".
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return VersionUnknown, ErrUnsupportedVersion
	}
	for v := Version10; v <= Latest(); v++ {
		if versionNames[v] == s {
			return v, nil
		}
	}
	return VersionUnknown, ErrUnsupportedVersion
}

// MustParse is Parse for static configuration; it panics on unknown input.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic("protocol: unknown version " + s)
	}
	return v
}

func (v Version) String() string {
	if int(v) >= len(versionNames) {
		return ""
	}
	return versionNames[v]
}

// Valid reports whether v is a known, concrete version.
func (v Version) Valid() bool {
	return v > VersionUnknown && v <= Latest()
}

// SupportsPayloadAccess reports whether reading and writing the JWT payload of a
// session is available at v. Version10 predates the capability.
func (v Version) SupportsPayloadAccess() bool {
	return v.Valid() && v != Version10
}

// Latest returns the newest version this module speaks.
func Latest() Version {
	return Version23
}

// All returns every known version, oldest first.
func All() []Version {
	out := make([]Version, 0, int(Latest()))
	for v := Version10; v <= Latest(); v++ {
		out = append(out, v)
	}
	return out
}

type versionContextKey struct{}

// WithVersion attaches the negotiated version to ctx.
func WithVersion(ctx context.Context, v Version) context.Context {
	return context.WithValue(ctx, versionContextKey{}, v)
}

// FromContext returns the version attached by [WithVersion].
func FromContext(ctx context.Context) (Version, bool) {
	if ctx == nil {
		return VersionUnknown, false
	}
	v, ok := ctx.Value(versionContextKey{}).(Version)
	return v, ok && v.Valid()
}
