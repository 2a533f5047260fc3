package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
)

// MaxSize is the largest definition text that will be loaded.
const MaxSize = 4 << 20 // 4 MiB

var (
	ErrInvalidSource = errors.New("invalid import source")
	ErrTooLarge      = errors.New("import source too large")
)

// Kind identifies where definition text is loaded from.
type Kind int

const (
	KindURL Kind = iota
	KindPath
)

func (k Kind) String() string {
	if k == KindPath {
		return "path"
	}
	return "url"
}

// Source is a location of definition text.
type Source struct {
	Kind     Kind
	Location string
}

func (s Source) String() string {
	return s.Location
}

// Parse classifies value as a URL or a filesystem path.
func Parse(value string) (Source, error) {
	value = strings.TrimSpace(value)
	if IsURL(value) {
		return Source{Kind: KindURL, Location: value}, nil
	}
	if strings.Contains(value, "://") {
		return Source{}, fmt.Errorf("%w: %q", ErrInvalidSource, value)
	}
	if ValidPath(value) {
		return Source{Kind: KindPath, Location: value}, nil
	}
	return Source{}, fmt.Errorf("%w: %q", ErrInvalidSource, value)
}

// IsURL reports whether s is an absolute http or https URL with a host.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidPath reports whether p is usable as a relative or absolute file path
// on every platform a modpack may be installed on.
func ValidPath(p string) bool {
	if strings.TrimSpace(p) == "" {
		return false
	}
	for _, r := range p {
		if unicode.IsControl(r) {
			return false
		}
		switch r {
		case '<', '>', '"', '|', '?', '*':
			return false
		}
	}
	for _, elem := range strings.FieldsFunc(filepath.ToSlash(p), func(r rune) bool { return r == '/' }) {
		if elem != strings.TrimRight(elem, " ") {
			return false
		}
	}
	return true
}

// Loader reads definition text from URLs and from a filesystem.
type Loader struct {
	client *http.Client
	fs     billy.Filesystem
	logger *log.Logger
}

// NewLoader creates a loader. Paths are resolved against fs.
func NewLoader(client *http.Client, fs billy.Filesystem, logger *log.Logger) *Loader {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		client: client,
		fs:     fs,
		logger: logger,
	}
}

// Load returns the text at src.
func (l *Loader) Load(ctx context.Context, src Source) (string, error) {
	l.logger.Debug("loading import", "kind", src.Kind, "location", src.Location)
	switch src.Kind {
	case KindURL:
		return l.fetch(ctx, src.Location)
	case KindPath:
		return l.read(src.Location)
	}
	return "", fmt.Errorf("%w: unknown kind %d", ErrInvalidSource, src.Kind)
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			l.logger.Warn("close response body", "url", rawURL, "err", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", rawURL, resp.StatusCode)
	}

	return readLimited(resp.Body, rawURL)
}

func (l *Loader) read(path string) (string, error) {
	if l.fs == nil {
		return "", fmt.Errorf("reading %s: no filesystem configured", path)
	}
	f, err := l.fs.Open(filepath.ToSlash(path))
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			l.logger.Warn("close file", "path", path, "err", err)
		}
	}()
	return readLimited(f, path)
}

func readLimited(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	if len(data) > MaxSize {
		return "", fmt.Errorf("%w: %s", ErrTooLarge, name)
	}
	return string(data), nil
}
