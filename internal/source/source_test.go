package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		value   string
		kind    Kind
		wantErr bool
	}{
		{value: "https://example.com/pack.txt", kind: KindURL},
		{value: "http://example.com/a/b", kind: KindURL},
		{value: "imports/base.txt", kind: KindPath},
		{value: "/abs/pack.txt", kind: KindPath},
		{value: "ftp://example.com/pack.txt", wantErr: true},
		{value: "https://", wantErr: true},
		{value: "bad|path", wantErr: true},
		{value: "what?", wantErr: true},
		{value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			src, err := Parse(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSource)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, src.Kind)
			assert.Equal(t, tt.value, src.Location)
		})
	}
}

func TestValidPath(t *testing.T) {
	assert.True(t, ValidPath("config/jei/jei.cfg"))
	assert.True(t, ValidPath("config/my file.cfg"))
	assert.False(t, ValidPath("config/trailing /x"))
	assert.False(t, ValidPath("a\x00b"))
	assert.False(t, ValidPath("   "))
}

func TestLoader_Load_Path(t *testing.T) {
	// Arrange
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "imports/a.txt", []byte("238222\n"), 0o644))
	l := NewLoader(nil, fs, nil)

	// Act
	text, err := l.Load(context.Background(), Source{Kind: KindPath, Location: "imports/a.txt"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "238222\n", text)
}

func TestLoader_Load_MissingPath(t *testing.T) {
	l := NewLoader(nil, memfs.New(), nil)

	_, err := l.Load(context.Background(), Source{Kind: KindPath, Location: "missing.txt"})
	assert.Error(t, err)
}

func TestLoader_Load_URL(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("$minecraft 1.12.2\n"))
	}))
	defer server.Close()
	l := NewLoader(server.Client(), nil, nil)

	// Act
	text, err := l.Load(context.Background(), Source{Kind: KindURL, Location: server.URL + "/pack.txt"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "$minecraft 1.12.2\n", text)
}

func TestLoader_Load_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	l := NewLoader(server.Client(), nil, nil)

	_, err := l.Load(context.Background(), Source{Kind: KindURL, Location: server.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestLoader_Load_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", MaxSize+1)))
	}))
	defer server.Close()
	l := NewLoader(server.Client(), nil, nil)

	_, err := l.Load(context.Background(), Source{Kind: KindURL, Location: server.URL})
	assert.ErrorIs(t, err, ErrTooLarge)
}
