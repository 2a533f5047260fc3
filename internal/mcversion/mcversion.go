package mcversion

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	ErrInvalidVersion  = errors.New("invalid minecraft version")
	ErrUnknownOperator = errors.New("unknown comparison operator")
)

var versionRe = regexp.MustCompile(`^[0-9]+\.[0-9]+(?:\.[0-9]+)?$`)

// Version is a Minecraft release version such as 1.12.2.
type Version struct {
	v *semver.Version
}

// Parse parses a dotted Minecraft release version ("1.12" or "1.12.2").
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if !versionRe.MatchString(s) {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	return Version{v}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Valid reports whether s is a Minecraft release version.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// String formats the version the way Mojang does: the patch is omitted when zero.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d.%d", v.v.Major(), v.v.Minor())
	if v.v.Patch() > 0 {
		fmt.Fprintf(&sb, ".%d", v.v.Patch())
	}
	return sb.String()
}

// Group returns the version group, e.g. "1.12" for 1.12.2.
func (v Version) Group() string {
	if v.v == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d", v.v.Major(), v.v.Minor())
}

// Compare returns -1, 0 or 1 depending on whether v is older, equal or newer than o.
func (v Version) Compare(o Version) int {
	return v.v.Compare(o.v)
}

// InGroup reports whether v belongs to the version group g.
func (v Version) InGroup(g Version) bool {
	return v.Group() == g.Group()
}

// Satisfies evaluates "have op want" for one of >, >=, ==, !=, <, <=.
func Satisfies(have Version, op string, want Version) (bool, error) {
	cmp := have.Compare(want)
	switch op {
	case ">=":
		return cmp >= 0, nil
	case ">":
		return cmp > 0, nil
	case "<=":
		return cmp <= 0, nil
	case "<":
		return cmp < 0, nil
	case "==":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
}

// GroupOf returns the version group of a version string such as
// "1.12.2" or a game version label from the mod index. ok is false if s is
// not a release version.
func GroupOf(s string) (group string, ok bool) {
	v, err := Parse(s)
	if err != nil {
		return "", false
	}
	return v.Group(), true
}
