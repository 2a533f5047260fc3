package mpdl

import (
	"fmt"
	"slices"
	"strings"

	"github.com/therandomlabs/mpdl/internal/source"
)

// importSource validates the value of an import line and resolves presets.
func (c *compilation) importSource(value string) (source.Source, error) {
	if u, ok := c.presets[value]; ok {
		return source.Source{Kind: source.KindURL, Location: u}, nil
	}
	src, err := source.Parse(value)
	if err != nil {
		return source.Source{}, fmt.Errorf("%w: %v", ErrInvalidPreprocessorValue, err)
	}
	return src, nil
}

// expandImport loads the text named by an "@import" line and returns its
// pruned lines, which replace the import line in the stream.
func (c *compilation) expandImport(l line) ([]line, error) {
	tokens := tokenize(strings.TrimPrefix(l.text, preprocessorSigil))
	if len(tokens) == 0 || tokens[0] != importPreprocessor {
		name := ""
		if len(tokens) > 0 {
			name = tokens[0]
		}
		return nil, c.parseError(l, fmt.Errorf("%w: %q", ErrUnknownPreprocessor, name))
	}
	value := strings.Join(tokens[1:], " ")
	if value == "" {
		return nil, c.parseError(l, fmt.Errorf("%w: missing import source", ErrInvalidPreprocessorValue))
	}

	src, err := c.importSource(value)
	if err != nil {
		return nil, c.parseError(l, err)
	}
	if slices.Contains(l.imports, src.Location) {
		return nil, c.parseError(l, fmt.Errorf("%w: %s", ErrImportCycle, src.Location))
	}
	if len(l.imports) >= maxImportDepth {
		return nil, c.parseError(l, ErrImportDepth)
	}
	if c.loader == nil {
		return nil, &IOError{Source: src.Location, Origin: l.origin, Line: l.num, Err: fmt.Errorf("no loader configured")}
	}

	c.logger.Debug("import", "source", src.Location, "from", l.origin)
	text, err := c.loader.Load(c.ctx, src)
	if err != nil {
		return nil, &IOError{Source: src.Location, Origin: l.origin, Line: l.num, Err: err}
	}

	chain := append(slices.Clone(l.imports), src.Location)
	return pruneSource(text, src.Location, chain), nil
}
