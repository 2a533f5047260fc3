package pack

import (
	"fmt"
	"slices"
	"strings"
)

// Side represents which install a mod or file applies to.
type Side int

const (
	SideBoth Side = iota
	SideClient
	SideServer
)

func (s Side) String() string {
	switch s {
	case SideClient:
		return "client"
	case SideServer:
		return "server"
	default:
		return "both"
	}
}

// ParseSide converts "both", "client" or "server" into a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "both":
		return SideBoth, nil
	case "client":
		return SideClient, nil
	case "server":
		return SideServer, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

// MarshalText encodes the side as its lowercase name.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	side, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// Stability is a CurseForge release type. Lower values are more stable.
type Stability int

const (
	StabilityRelease Stability = 1
	StabilityBeta    Stability = 2
	StabilityAlpha   Stability = 3
)

// ParseStability converts "release", "beta" or "alpha" into a Stability.
func ParseStability(s string) (Stability, error) {
	switch strings.ToLower(s) {
	case "release":
		return StabilityRelease, nil
	case "beta":
		return StabilityBeta, nil
	case "alpha":
		return StabilityAlpha, nil
	}
	return 0, fmt.Errorf("unknown stability %q", s)
}

func (s Stability) String() string {
	switch s {
	case StabilityRelease:
		return "release"
	case StabilityBeta:
		return "beta"
	case StabilityAlpha:
		return "alpha"
	}
	return fmt.Sprintf("stability(%d)", int(s))
}

// Allows reports whether a file of release type t satisfies the threshold s.
func (s Stability) Allows(t Stability) bool {
	return t >= StabilityRelease && t <= s
}

// LatestFile is the file ID of a mod entry that has not been resolved yet.
const LatestFile = 0

// RelatedFile is a file shipped alongside a mod, e.g. its config.
type RelatedFile struct {
	Path string
	Side Side
}

// ModEntry is a reference to a CurseForge project.
type ModEntry struct {
	ProjectID    int
	FileID       int // LatestFile until resolved
	Title        string
	Side         Side
	Optional     bool
	RelatedFiles []RelatedFile
	Group        string
}

// Latest reports whether the entry still points at the newest file.
func (m ModEntry) Latest() bool {
	return m.FileID == LatestFile
}

// FileEntry is an auxiliary non-mod file.
type FileEntry struct {
	Path string
	Side Side
}

// Group is a set of mutually exclusive mod alternatives.
type Group struct {
	Primary      string
	Alternatives []string
}

// Names returns the primary name followed by the alternatives.
func (g Group) Names() []string {
	return append([]string{g.Primary}, g.Alternatives...)
}

// AppliedPostprocessor records a postprocessor whose condition held.
type AppliedPostprocessor struct {
	Operator string
	Literal  string
}

// ModList selects one of the manifest's mod lists.
type ModList int

const (
	ListMods ModList = iota
	ListServerMods
	ListAlternatives
)

func (l ModList) String() string {
	switch l {
	case ListServerMods:
		return "server"
	case ListAlternatives:
		return "alternatives"
	default:
		return "mods"
	}
}

// Manifest is the compiled form of a modpack definition.
type Manifest struct {
	Variables      map[string]string
	Groups         []Group
	Mods           []ModEntry
	ServerMods     []ModEntry
	Alternatives   []ModEntry
	Files          []FileEntry
	Postprocessors []AppliedPostprocessor
}

// NewManifest creates an empty manifest seeded with the given variable values.
func NewManifest(defaults map[string]string) *Manifest {
	vars := make(map[string]string, len(defaults))
	for k, v := range defaults {
		vars[k] = v
	}
	return &Manifest{Variables: vars}
}

// List returns a pointer to the selected mod list.
func (m *Manifest) List(l ModList) *[]ModEntry {
	switch l {
	case ListServerMods:
		return &m.ServerMods
	case ListAlternatives:
		return &m.Alternatives
	default:
		return &m.Mods
	}
}

// Lists returns every mod list in a fixed order.
func (m *Manifest) Lists() []ModList {
	return []ModList{ListMods, ListServerMods, ListAlternatives}
}

// RemoveProject deletes every entry for projectID and reports whether any was found.
func (m *Manifest) RemoveProject(projectID int) bool {
	removed := false
	for _, l := range m.Lists() {
		list := m.List(l)
		before := len(*list)
		*list = slices.DeleteFunc(*list, func(e ModEntry) bool {
			return e.ProjectID == projectID
		})
		removed = removed || len(*list) != before
	}
	return removed
}

// AddMod appends entry to list, replacing any existing entry for the same project.
func (m *Manifest) AddMod(l ModList, entry ModEntry) {
	m.RemoveProject(entry.ProjectID)
	list := m.List(l)
	*list = append(*list, entry)
}

// FindMod returns the entry for projectID and the list holding it.
func (m *Manifest) FindMod(projectID int) (ModEntry, ModList, bool) {
	for _, l := range m.Lists() {
		for _, e := range *m.List(l) {
			if e.ProjectID == projectID {
				return e, l, true
			}
		}
	}
	return ModEntry{}, 0, false
}

// GroupOf returns the group containing name.
func (m *Manifest) GroupOf(name string) (Group, bool) {
	for _, g := range m.Groups {
		if slices.Contains(g.Names(), name) {
			return g, true
		}
	}
	return Group{}, false
}

// ModCount returns the number of entries across all lists.
func (m *Manifest) ModCount() int {
	return len(m.Mods) + len(m.ServerMods) + len(m.Alternatives)
}
