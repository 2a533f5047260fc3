package mpdl

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/therandomlabs/mpdl/internal/pack"
	"github.com/therandomlabs/mpdl/internal/source"
)

// entryContext carries state between entry lines.
type entryContext struct {
	group string
}

// markers holds the flags parsed from a run of marker tokens.
type markers struct {
	side     pack.Side
	sideSet  bool
	optional bool
}

// parseEntries parses every line in buf as an entry. Postprocessor lines are
// queued together with the group context active at their position.
func (c *compilation) parseEntries(buf *lineBuffer, ctx *entryContext) error {
	buf.rewind()
	for {
		if err := c.ctx.Err(); err != nil {
			return err
		}
		l, ok := buf.current()
		if !ok {
			return nil
		}
		buf.advance()
		if strings.HasPrefix(l.text, postprocessorSigil) {
			c.pending = append(c.pending, pendingPostprocessor{line: l, group: ctx.group})
			continue
		}
		if err := c.parseEntry(l, ctx); err != nil {
			return err
		}
	}
}

func (c *compilation) parseEntry(l line, ctx *entryContext) error {
	if strings.HasPrefix(l.text, variableSigil) || strings.HasPrefix(l.text, preprocessorSigil) {
		return c.parseError(l, ErrMisplacedDirective)
	}

	tokens := tokenize(l.text)
	if tokens[0] == groupMarker {
		ctx.group = strings.Join(tokens[1:], " ")
		return nil
	}

	if strings.HasPrefix(tokens[0], removalPrefix) {
		rest, err := c.removeProject(tokens)
		if err != nil {
			return c.parseError(l, err)
		}
		if len(rest) == 0 {
			return nil
		}
		tokens = rest
	}

	m, rest, err := parseMarkers(tokens, false)
	if err != nil {
		return c.parseError(l, err)
	}
	if len(rest) == 0 {
		return c.parseError(l, ErrMissingEntryData)
	}

	projectID, isID, err := parseID(rest[0], ErrInvalidProjectID)
	if err != nil {
		return c.parseError(l, err)
	}
	if !isID {
		return c.addFile(l, m, strings.Join(rest, " "))
	}

	entry := pack.ModEntry{
		ProjectID: projectID,
		FileID:    pack.LatestFile,
		Side:      m.side,
		Optional:  m.optional,
		Group:     ctx.group,
	}
	rest = rest[1:]
	if len(rest) > 0 {
		fileID, isID, err := parseID(rest[0], ErrInvalidFileID)
		if err != nil {
			return c.parseError(l, err)
		}
		if isID {
			entry.FileID = fileID
			rest = rest[1:]
		}
	}
	entry.RelatedFiles, err = parseRelatedFiles(rest, entry.Side)
	if err != nil {
		return c.parseError(l, err)
	}

	list, err := c.placement(entry)
	if err != nil {
		return c.parseError(l, err)
	}
	c.manifest.AddMod(list, entry)
	return nil
}

// removeProject applies a leading "!<id>" (or "! <id>") and returns the
// tokens that follow it.
func (c *compilation) removeProject(tokens []string) ([]string, error) {
	idToken := strings.TrimPrefix(tokens[0], removalPrefix)
	rest := tokens[1:]
	if idToken == "" {
		if len(rest) == 0 {
			return nil, fmt.Errorf("%w: missing project ID after %q", ErrInvalidProjectID, removalPrefix)
		}
		idToken, rest = rest[0], rest[1:]
	}
	id, isID, err := parseID(idToken, ErrInvalidProjectID)
	if err != nil {
		return nil, err
	}
	if !isID {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProjectID, idToken)
	}
	if c.manifest.RemoveProject(id) {
		c.logger.Debug("removed project", "id", id)
	}
	return rest, nil
}

// placement picks the list a mod entry belongs in.
func (c *compilation) placement(entry pack.ModEntry) (pack.ModList, error) {
	if entry.Group != "" {
		g, ok := c.manifest.GroupOf(entry.Group)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUndeclaredGroup, entry.Group)
		}
		if g.Primary != entry.Group {
			return pack.ListAlternatives, nil
		}
	}
	if entry.Side == pack.SideServer {
		return pack.ListServerMods, nil
	}
	return pack.ListMods, nil
}

func (c *compilation) addFile(l line, m markers, path string) error {
	if !source.ValidPath(path) {
		return c.parseError(l, fmt.Errorf("%w: %q", ErrInvalidPath, path))
	}
	c.manifest.Files = slices.DeleteFunc(c.manifest.Files, func(f pack.FileEntry) bool {
		return f.Path == path
	})
	c.manifest.Files = append(c.manifest.Files, pack.FileEntry{Path: path, Side: m.side})
	return nil
}

// parseMarkers consumes a leading run of marker tokens. Related files may
// only carry side markers.
func parseMarkers(tokens []string, related bool) (markers, []string, error) {
	var m markers
	i := 0
	for ; i < len(tokens); i++ {
		tok := tokens[i]
		if len(tok) != 2 || tok[0] != markerPrefix {
			break
		}
		switch code := tok[1]; code {
		case markerClient, markerServer, markerBoth:
			if m.sideSet {
				return markers{}, nil, fmt.Errorf("%w: %q", ErrDuplicateSideMarker, tok)
			}
			m.side = sideOf(code)
			m.sideSet = true
		case markerOptional:
			if related {
				return markers{}, nil, ErrOptionalRelatedFile
			}
			if m.optional {
				return markers{}, nil, ErrDuplicateOptionalMarker
			}
			m.optional = true
		default:
			return markers{}, nil, fmt.Errorf("%w: %q", ErrInvalidMarker, tok)
		}
	}
	return m, tokens[i:], nil
}

func sideOf(code byte) pack.Side {
	switch code {
	case markerClient:
		return pack.SideClient
	case markerServer:
		return pack.SideServer
	}
	return pack.SideBoth
}

// parseRelatedFiles parses "[markers] path" groups following a mod's IDs.
// Files default to the mod's side.
func parseRelatedFiles(tokens []string, side pack.Side) ([]pack.RelatedFile, error) {
	var files []pack.RelatedFile
	for len(tokens) > 0 {
		m, rest, err := parseMarkers(tokens, true)
		if err != nil {
			return nil, err
		}
		if len(rest) == 0 {
			return nil, fmt.Errorf("%w: markers without a related file", ErrMissingEntryData)
		}
		path := rest[0]
		if !source.ValidPath(path) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		f := pack.RelatedFile{Path: path, Side: side}
		if m.sideSet {
			f.Side = m.side
		}
		files = append(files, f)
		tokens = rest[1:]
	}
	return files, nil
}

// parseID parses an integer token. isID is false for non-numeric tokens;
// numbers below MinID or too large for an int are reported as invalid.
func parseID(tok string, invalid error) (id int, isID bool, err error) {
	n, convErr := strconv.Atoi(tok)
	if errors.Is(convErr, strconv.ErrRange) {
		return 0, false, fmt.Errorf("%w: %s is out of range", invalid, tok)
	}
	if convErr != nil {
		return 0, false, nil
	}
	if n < MinID {
		return 0, false, fmt.Errorf("%w: %d is below %d", invalid, n, MinID)
	}
	return n, true, nil
}
