package mpdl

import (
	"fmt"
	"strings"

	"github.com/therandomlabs/mpdl/internal/pack"
)

// registerGroups removes every group declaration from buf and registers it.
func (c *compilation) registerGroups(buf *lineBuffer) error {
	buf.rewind()
	for {
		l, ok := buf.current()
		if !ok {
			return nil
		}
		if !strings.HasPrefix(l.text, groupOpen) {
			buf.advance()
			continue
		}
		if err := c.registerGroup(l); err != nil {
			return err
		}
		buf.remove()
	}
}

// registerGroup parses a declaration such as "[JEI] [NEI, REI]". The first
// name is the group's primary name.
func (c *compilation) registerGroup(l line) error {
	names, err := groupNames(tokenize(l.text))
	if err != nil {
		return c.parseError(l, err)
	}
	if len(names) < 2 {
		return c.parseError(l, ErrInsufficientAlternatives)
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] || c.groupNames.Contains(name) {
			return c.parseError(l, fmt.Errorf("%w: %s", ErrDuplicateGroupMembership, name))
		}
		seen[name] = true
	}

	c.groupNames.Append(names...)
	g := pack.Group{Primary: names[0], Alternatives: names[1:]}
	c.manifest.Groups = append(c.manifest.Groups, g)
	c.logger.Debug("group", "primary", g.Primary, "alternatives", g.Alternatives)
	return nil
}

// groupNames collects the bracket-delimited names of a group declaration.
// Separators may trail a closer, as in "[JEI], [NEI]".
func groupNames(tokens []string) ([]string, error) {
	var names []string
	expectOpen := true
	for _, tok := range tokens {
		if expectOpen {
			if !strings.HasPrefix(tok, groupOpen) {
				return nil, fmt.Errorf("%w: %q", ErrUnexpectedGroupToken, tok)
			}
			tok = strings.TrimPrefix(tok, groupOpen)
			expectOpen = false
		} else if strings.HasPrefix(tok, groupOpen) {
			return nil, fmt.Errorf("%w: %q opened before the previous group closed", ErrMissingGroupCloser, tok)
		}
		tok = strings.TrimRight(tok, groupSeparator)
		if strings.HasSuffix(tok, groupClose) {
			tok = strings.TrimSuffix(tok, groupClose)
			expectOpen = true
		}
		for _, name := range strings.Split(tok, groupSeparator) {
			name = strings.TrimSpace(name)
			if strings.ContainsAny(name, groupOpen+groupClose) {
				return nil, fmt.Errorf("%w: %q", ErrUnexpectedGroupToken, name)
			}
			if name != "" {
				names = append(names, name)
			}
		}
	}
	if !expectOpen {
		return nil, ErrMissingGroupCloser
	}
	return names, nil
}
