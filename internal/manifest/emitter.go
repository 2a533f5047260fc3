package manifest

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/therandomlabs/mpdl/internal/pack"
)

// FormatVersion is the manifest JSON format written by Emitter.
const FormatVersion = 1

type document struct {
	FormatVersion  int               `json:"formatVersion"`
	Variables      map[string]string `json:"variables"`
	Groups         []group           `json:"groups"`
	Mods           []mod             `json:"mods"`
	ServerMods     []mod             `json:"serverMods"`
	Alternatives   []mod             `json:"alternatives"`
	Files          []file            `json:"files"`
	Postprocessors []postprocessor   `json:"postprocessors"`
}

type group struct {
	Primary      string   `json:"primary"`
	Alternatives []string `json:"alternatives"`
}

type mod struct {
	ProjectID    int       `json:"projectID"`
	FileID       int       `json:"fileID"`
	Title        string    `json:"title,omitempty"`
	Side         pack.Side `json:"side"`
	Optional     bool      `json:"optional,omitempty"`
	Group        string    `json:"group,omitempty"`
	RelatedFiles []file    `json:"relatedFiles,omitempty"`
}

type file struct {
	Path string    `json:"path"`
	Side pack.Side `json:"side"`
}

type postprocessor struct {
	Operator string `json:"operator"`
	Literal  string `json:"literal"`
}

// Emitter writes manifests as indented JSON.
type Emitter struct {
	w io.Writer
}

// NewEmitter creates a new manifest emitter.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes m. Mods are sorted by project ID and files by path so equal
// manifests always produce identical output.
func (e *Emitter) Emit(m *pack.Manifest) error {
	doc := document{
		FormatVersion:  FormatVersion,
		Variables:      m.Variables,
		Groups:         make([]group, 0, len(m.Groups)),
		Mods:           sortedMods(m.Mods),
		ServerMods:     sortedMods(m.ServerMods),
		Alternatives:   sortedMods(m.Alternatives),
		Files:          sortedFiles(toFiles(m.Files)),
		Postprocessors: make([]postprocessor, 0, len(m.Postprocessors)),
	}
	if doc.Variables == nil {
		doc.Variables = map[string]string{}
	}
	for _, g := range m.Groups {
		doc.Groups = append(doc.Groups, group{Primary: g.Primary, Alternatives: g.Alternatives})
	}
	for _, p := range m.Postprocessors {
		doc.Postprocessors = append(doc.Postprocessors, postprocessor{Operator: p.Operator, Literal: p.Literal})
	}

	enc := json.NewEncoder(e.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

func sortedMods(entries []pack.ModEntry) []mod {
	mods := make([]mod, 0, len(entries))
	for _, e := range entries {
		m := mod{
			ProjectID: e.ProjectID,
			FileID:    e.FileID,
			Title:     e.Title,
			Side:      e.Side,
			Optional:  e.Optional,
			Group:     e.Group,
		}
		for _, f := range e.RelatedFiles {
			m.RelatedFiles = append(m.RelatedFiles, file{Path: f.Path, Side: f.Side})
		}
		mods = append(mods, m)
	}
	slices.SortFunc(mods, func(a, b mod) int {
		return cmp.Compare(a.ProjectID, b.ProjectID)
	})
	return mods
}

func toFiles(entries []pack.FileEntry) []file {
	files := make([]file, 0, len(entries))
	for _, f := range entries {
		files = append(files, file{Path: f.Path, Side: f.Side})
	}
	return files
}

func sortedFiles(files []file) []file {
	slices.SortFunc(files, func(a, b file) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return files
}
