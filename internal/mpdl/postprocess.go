package mpdl

import (
	"fmt"
	"strings"

	"github.com/therandomlabs/mpdl/internal/mcversion"
	"github.com/therandomlabs/mpdl/internal/pack"
)

// pendingPostprocessor is a postprocessor line waiting to be evaluated.
type pendingPostprocessor struct {
	line  line
	group string
}

// postprocessor is one of versionComparison or versionGroupMatch.
type postprocessor interface {
	operator() string
	literal() string
}

// versionComparison splices its body when "minecraft op version" holds.
type versionComparison struct {
	op      string
	version mcversion.Version
}

func (p versionComparison) operator() string { return p.op }
func (p versionComparison) literal() string  { return p.version.String() }

// versionGroupMatch splices its body when minecraft is in the version group.
type versionGroupMatch struct {
	group mcversion.Version
}

func (p versionGroupMatch) operator() string { return "=" }
func (p versionGroupMatch) literal() string  { return p.group.Group() }

// parsePostprocessor parses "%op literal body..." and returns the body with
// space placeholders intact; they are restored when the body is tokenized.
func parsePostprocessor(text string) (postprocessor, string, error) {
	fields := strings.Fields(strings.TrimPrefix(text, postprocessorSigil))
	if len(fields) == 0 {
		return nil, "", fmt.Errorf("%w: missing operator", ErrUnknownPostprocessor)
	}
	op := fields[0]
	switch op {
	case ">", ">=", "==", "!=", "<", "<=", "=":
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownPostprocessor, op)
	}
	if len(fields) < 2 {
		return nil, "", fmt.Errorf("%w: missing version", ErrInvalidPostprocessorValue)
	}
	v, err := mcversion.Parse(fields[1])
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidPostprocessorValue, err)
	}
	body := strings.Join(fields[2:], " ")
	if body == "" {
		return nil, "", fmt.Errorf("%w: nothing to splice", ErrInvalidPostprocessorValue)
	}

	if op == "=" {
		return versionGroupMatch{group: v}, body, nil
	}
	return versionComparison{op: op, version: v}, body, nil
}

func evaluate(p postprocessor, minecraft mcversion.Version) (bool, error) {
	switch p := p.(type) {
	case versionComparison:
		return mcversion.Satisfies(minecraft, p.op, p.version)
	case versionGroupMatch:
		return minecraft.InGroup(p.group), nil
	}
	return false, fmt.Errorf("%w: %T", ErrUnknownPostprocessor, p)
}

// postprocess evaluates queued postprocessors. A spliced line goes through
// group registration and entry parsing with the group context of the
// postprocessor; postprocessors it yields are appended to the queue, so only
// new material is ever rescanned.
func (c *compilation) postprocess() error {
	minecraft, err := mcversion.Parse(c.manifest.Variables[VarMinecraft])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVariableValue, err)
	}

	for i := 0; i < len(c.pending); i++ {
		if err := c.ctx.Err(); err != nil {
			return err
		}
		pp := c.pending[i]
		p, body, err := parsePostprocessor(pp.line.text)
		if err != nil {
			return c.parseError(pp.line, err)
		}
		// A spliced line is parsed on its own, so a group context could
		// never reach a following entry.
		if tokenize(body)[0] == groupMarker {
			return c.parseError(pp.line, fmt.Errorf("%w: group context in postprocessor body", ErrMisplacedDirective))
		}
		ok, err := evaluate(p, minecraft)
		if err != nil {
			return c.parseError(pp.line, err)
		}
		if !ok {
			continue
		}

		c.manifest.Postprocessors = append(c.manifest.Postprocessors, pack.AppliedPostprocessor{
			Operator: p.operator(),
			Literal:  p.literal(),
		})
		c.logger.Debug("postprocessor applied", "op", p.operator(), "literal", p.literal(), "line", body)

		spliced := pp.line
		spliced.text = body
		buf := newLineBuffer([]line{spliced})
		if err := c.registerGroups(buf); err != nil {
			return err
		}
		if err := c.parseEntries(buf, &entryContext{group: pp.group}); err != nil {
			return err
		}
	}
	return nil
}
