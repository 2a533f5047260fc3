package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therandomlabs/mpdl/internal/config"
	"github.com/therandomlabs/mpdl/internal/mpdl"
	"github.com/therandomlabs/mpdl/internal/pack"
)

func TestCompileDefinition_RelativeImports(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.txt"), []byte("$minecraft 1.16.5\n238222\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "modpack.txt"), []byte("@import common.txt\n-s 32274 # server only\n"), 0644))

	// Act
	m, err := compileDefinition(context.Background(), filepath.Join(dir, "modpack.txt"), config.Default(), log.New(io.Discard))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "1.16.5", m.Variables[mpdl.VarMinecraft])
	require.Len(t, m.Mods, 1)
	require.Len(t, m.ServerMods, 1)
	assert.Equal(t, 32274, m.ServerMods[0].ProjectID)
}

func TestCompileDefinition_Error(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modpack.txt")
	require.NoError(t, os.WriteFile(path, []byte("238222\n-c -s 32274\n"), 0644))

	_, err := compileDefinition(context.Background(), path, config.Default(), log.New(io.Discard))

	assert.ErrorIs(t, err, mpdl.ErrDuplicateSideMarker)
	assert.Contains(t, err.Error(), "modpack.txt")
}

func TestWriteAndReadManifest(t *testing.T) {
	dir := t.TempDir()
	def := filepath.Join(dir, "modpack.txt")
	require.NoError(t, os.WriteFile(def, []byte("[JEI] [NEI]\n: NEI\n60028\n-c options.txt\n"), 0644))
	m, err := compileDefinition(context.Background(), def, config.Default(), log.New(io.Discard))
	require.NoError(t, err)

	out := filepath.Join(dir, "manifest.json")
	require.NoError(t, writeManifest(m, out))
	got, err := readManifest(out)

	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestPrintSummary(t *testing.T) {
	registry, err := mpdl.NewRegistry(
		mpdl.Variable{Name: "name", Default: "Modpack"},
		mpdl.Variable{Name: "author", Default: "Unknown"},
		mpdl.Variable{Name: "description"},
	)
	require.NoError(t, err)
	m := pack.NewManifest(registry.Defaults())
	m.Variables["author"] = "TheRandomLabs"
	m.Mods = []pack.ModEntry{{ProjectID: 238222}}
	m.Groups = []pack.Group{{Primary: "JEI", Alternatives: []string{"NEI"}}}

	var buf bytes.Buffer
	printSummary(&buf, registry, m)

	assert.Equal(t, "name = Modpack\n"+
		"author = TheRandomLabs\n"+
		"description = \n"+
		"1 mods, 0 server mods, 0 alternatives, 0 files, 1 groups, 0 postprocessors applied\n", buf.String())
}
