package mpdl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/therandomlabs/mpdl/internal/pack"
	"github.com/therandomlabs/mpdl/internal/source"
)

const inputOrigin = "<input>"

// Loader loads imported definition text.
type Loader interface {
	Load(ctx context.Context, src source.Source) (string, error)
}

// DefaultPresets returns a new map of import preset names to their
// definition URLs.
func DefaultPresets() map[string]string {
	return map[string]string{
		"default":     "https://raw.githubusercontent.com/TheRandomLabs/Modpack-Definitions/master/default.txt",
		"performance": "https://raw.githubusercontent.com/TheRandomLabs/Modpack-Definitions/master/performance.txt",
	}
}

// Compiler turns definition text into manifests. It is safe for concurrent
// use; every Compile call owns its own line stream and manifest.
type Compiler struct {
	registry *Registry
	loader   Loader
	presets  map[string]string
	logger   *log.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithPresets replaces the import presets.
func WithPresets(presets map[string]string) Option {
	return func(c *Compiler) {
		c.presets = presets
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// NewCompiler creates a compiler using registry for variables and loader for imports.
func NewCompiler(registry *Registry, loader Loader, opts ...Option) *Compiler {
	if registry == nil {
		registry = DefaultRegistry()
	}
	c := &Compiler{
		registry: registry,
		loader:   loader,
		presets:  DefaultPresets(),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile reads a definition from r.
func (c *Compiler) Compile(ctx context.Context, r io.Reader) (*pack.Manifest, error) {
	var raw []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), source.MaxSize)
	for scanner.Scan() {
		raw = append(raw, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading definition: %w", err)
	}
	return c.CompileLines(ctx, raw)
}

// CompileLines compiles raw definition lines.
func (c *Compiler) CompileLines(ctx context.Context, raw []string) (*pack.Manifest, error) {
	return c.compile(ctx, pruneSource(strings.Join(raw, "\n"), inputOrigin, nil))
}

// CompileFile loads a definition through the compiler's loader and compiles it.
// Imports of the same file from within it are reported as cycles.
func (c *Compiler) CompileFile(ctx context.Context, path string) (*pack.Manifest, error) {
	src, err := source.Parse(path)
	if err != nil {
		return nil, err
	}
	if c.loader == nil {
		return nil, fmt.Errorf("compiling %s: no loader configured", path)
	}
	text, err := c.loader.Load(ctx, src)
	if err != nil {
		return nil, &IOError{Source: src.Location, Origin: src.Location, Err: err}
	}
	return c.compile(ctx, pruneSource(text, src.Location, []string{src.Location}))
}

func (c *Compiler) compile(ctx context.Context, lines []line) (*pack.Manifest, error) {
	comp := &compilation{
		Compiler:   c,
		ctx:        ctx,
		manifest:   pack.NewManifest(c.registry.Defaults()),
		buf:        newLineBuffer(lines),
		groupNames: mapset.NewThreadUnsafeSet[string](),
	}
	if err := comp.run(); err != nil {
		return nil, err
	}
	return comp.manifest, nil
}

// compilation is the state of a single Compile call.
type compilation struct {
	*Compiler
	ctx        context.Context
	manifest   *pack.Manifest
	buf        *lineBuffer
	groupNames mapset.Set[string]
	pending    []pendingPostprocessor
}

func (c *compilation) run() error {
	if err := c.preprocess(); err != nil {
		return err
	}
	if err := c.registerGroups(c.buf); err != nil {
		return err
	}
	if err := c.parseEntries(c.buf, &entryContext{}); err != nil {
		return err
	}
	if err := c.postprocess(); err != nil {
		return err
	}
	c.logger.Debug("compiled",
		"mods", len(c.manifest.Mods),
		"server", len(c.manifest.ServerMods),
		"alternatives", len(c.manifest.Alternatives),
		"files", len(c.manifest.Files),
		"groups", len(c.manifest.Groups))
	return nil
}

// preprocess binds variables and expands imports in stream order, so
// variables declared in imported text take part in last-wins overriding.
func (c *compilation) preprocess() error {
	c.buf.rewind()
	for {
		if err := c.ctx.Err(); err != nil {
			return err
		}
		l, ok := c.buf.current()
		if !ok {
			return nil
		}
		switch {
		case strings.HasPrefix(l.text, variableSigil):
			if err := c.resolveVariable(l); err != nil {
				return err
			}
			c.buf.remove()
		case strings.HasPrefix(l.text, preprocessorSigil):
			spliced, err := c.expandImport(l)
			if err != nil {
				return err
			}
			c.buf.replace(spliced)
		default:
			c.buf.advance()
		}
	}
}

func (c *compilation) parseError(l line, err error) error {
	return &ParseError{
		Origin: l.origin,
		Line:   l.num,
		Text:   l.text,
		Err:    err,
	}
}
