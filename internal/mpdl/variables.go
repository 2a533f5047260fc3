package mpdl

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/therandomlabs/mpdl/internal/mcversion"
	"github.com/therandomlabs/mpdl/internal/pack"
)

// Variable names known to DefaultRegistry.
const (
	VarMinecraft        = "minecraft"
	VarForge            = "forge"
	VarMinimumStability = "minimum_stability"
	VarName             = "name"
	VarVersion          = "version"
	VarAuthor           = "author"
	VarDescription      = "description"
	VarClientXms        = "client_xms"
	VarClientXmx        = "client_xmx"
	VarServerXms        = "server_xms"
	VarServerXmx        = "server_xmx"
	VarOptifine         = "optifine"
	VarProjectID        = "project_id"
)

// Variable is a named configuration value with a default and a validator.
type Variable struct {
	Name     string
	Default  string
	Validate func(string) bool
}

// Registry is an immutable catalog of variables.
type Registry struct {
	vars  map[string]Variable
	names []string
}

// NewRegistry builds a registry. Names must be unique and defaults must validate.
func NewRegistry(vars ...Variable) (*Registry, error) {
	r := &Registry{vars: make(map[string]Variable, len(vars))}
	for _, v := range vars {
		if _, ok := r.vars[v.Name]; ok {
			return nil, fmt.Errorf("variable %q registered twice", v.Name)
		}
		if v.Validate == nil {
			v.Validate = func(string) bool { return true }
		}
		if !v.Validate(v.Default) {
			return nil, fmt.Errorf("variable %q: default %q is invalid", v.Name, v.Default)
		}
		r.vars[v.Name] = v
		r.names = append(r.names, v.Name)
	}
	return r, nil
}

var defaultRegistry = mustRegistry(
	Variable{Name: VarMinecraft, Default: "1.12.2", Validate: mcversion.Valid},
	Variable{Name: VarForge, Default: "latest", Validate: validForge},
	Variable{Name: VarMinimumStability, Default: "beta", Validate: validStability},
	Variable{Name: VarName, Default: "Modpack", Validate: nonEmpty},
	Variable{Name: VarVersion, Default: "1.0.0", Validate: nonEmpty},
	Variable{Name: VarAuthor, Default: "Unknown", Validate: nonEmpty},
	Variable{Name: VarDescription, Default: ""},
	Variable{Name: VarClientXms, Default: "3072", Validate: positiveInt},
	Variable{Name: VarClientXmx, Default: "3072", Validate: positiveInt},
	Variable{Name: VarServerXms, Default: "4096", Validate: positiveInt},
	Variable{Name: VarServerXmx, Default: "4096", Validate: positiveInt},
	Variable{Name: VarOptifine, Default: "latest", Validate: validOptifine},
	Variable{Name: VarProjectID, Default: "0", Validate: nonNegativeInt},
)

// DefaultRegistry returns the standard variable catalog.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func mustRegistry(vars ...Variable) *Registry {
	r, err := NewRegistry(vars...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the variable called name.
func (r *Registry) Lookup(name string) (Variable, bool) {
	v, ok := r.vars[name]
	return v, ok
}

// Names returns variable names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Defaults returns a fresh map of every variable's default value.
func (r *Registry) Defaults() map[string]string {
	m := make(map[string]string, len(r.vars))
	for name, v := range r.vars {
		m[name] = v.Default
	}
	return m
}

var (
	forgeVersionRe = regexp.MustCompile(`^[0-9]+(?:\.[0-9]+){1,3}$`)
	optifineNameRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
)

func nonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

func positiveInt(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n > 0
}

func nonNegativeInt(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0
}

func validForge(s string) bool {
	return s == "latest" || s == "recommended" || forgeVersionRe.MatchString(s)
}

func validStability(s string) bool {
	_, err := pack.ParseStability(s)
	return err == nil
}

func validOptifine(s string) bool {
	return s == "latest" || s == "none" || optifineNameRe.MatchString(s)
}

// resolveVariable binds a "$name value..." line into the manifest.
func (c *compilation) resolveVariable(l line) error {
	tokens := strings.Fields(strings.TrimPrefix(l.text, variableSigil))
	if len(tokens) == 0 {
		return c.parseError(l, ErrUnknownVariable)
	}
	v, ok := c.registry.Lookup(tokens[0])
	if !ok {
		return c.parseError(l, fmt.Errorf("%w: %s", ErrUnknownVariable, tokens[0]))
	}
	value := strings.Join(tokens[1:], " ")
	if !v.Validate(value) {
		return c.parseError(l, fmt.Errorf("%w for %s: %q", ErrInvalidVariableValue, v.Name, value))
	}
	c.manifest.Variables[v.Name] = value
	c.logger.Debug("variable", "name", v.Name, "value", value)
	return nil
}
