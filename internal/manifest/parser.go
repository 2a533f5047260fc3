package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/therandomlabs/mpdl/internal/pack"
)

var ErrUnsupportedVersion = errors.New("unsupported manifest format version")

// Parser reads manifests written by Emitter.
type Parser struct {
	r io.Reader
}

// NewParser creates a new manifest parser.
func NewParser(r io.Reader) *Parser {
	return &Parser{r: r}
}

// Parse decodes a manifest.
func (p *Parser) Parse() (*pack.Manifest, error) {
	var doc document
	dec := json.NewDecoder(p.r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if doc.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.FormatVersion)
	}

	m := pack.NewManifest(doc.Variables)
	for _, g := range doc.Groups {
		m.Groups = append(m.Groups, pack.Group{Primary: g.Primary, Alternatives: g.Alternatives})
	}
	m.Mods = toEntries(doc.Mods)
	m.ServerMods = toEntries(doc.ServerMods)
	m.Alternatives = toEntries(doc.Alternatives)
	for _, f := range doc.Files {
		m.Files = append(m.Files, pack.FileEntry{Path: f.Path, Side: f.Side})
	}
	for _, pp := range doc.Postprocessors {
		m.Postprocessors = append(m.Postprocessors, pack.AppliedPostprocessor{Operator: pp.Operator, Literal: pp.Literal})
	}
	return m, nil
}

func toEntries(mods []mod) []pack.ModEntry {
	var entries []pack.ModEntry
	for _, m := range mods {
		e := pack.ModEntry{
			ProjectID: m.ProjectID,
			FileID:    m.FileID,
			Title:     m.Title,
			Side:      m.Side,
			Optional:  m.Optional,
			Group:     m.Group,
		}
		for _, f := range m.RelatedFiles {
			e.RelatedFiles = append(e.RelatedFiles, pack.RelatedFile{Path: f.Path, Side: f.Side})
		}
		entries = append(entries, e)
	}
	return entries
}
