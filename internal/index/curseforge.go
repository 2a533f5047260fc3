package index

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/therandomlabs/mpdl/internal/mcversion"
	"github.com/therandomlabs/mpdl/internal/pack"
)

const (
	// DefaultEndpoint is the public CurseForge API.
	DefaultEndpoint  = "https://api.curseforge.com"
	DefaultUserAgent = "mpdl"

	filesPageSize = 50
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrNoMatchingFiles = errors.New("no matching files")
)

// Project is the subset of a CurseForge mod record the resolver needs.
type Project struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// File is a single uploaded file of a project.
type File struct {
	ID           int            `json:"id"`
	DisplayName  string         `json:"displayName"`
	FileName     string         `json:"fileName"`
	ReleaseType  pack.Stability `json:"releaseType"`
	FileDate     time.Time      `json:"fileDate"`
	GameVersions []string       `json:"gameVersions"`
}

// InGroup reports whether f targets a Minecraft version in versionGroup.
// Loader and Java entries in gameVersions are ignored.
func (f File) InGroup(versionGroup string) bool {
	for _, v := range f.GameVersions {
		if g, ok := mcversion.GroupOf(v); ok && g == versionGroup {
			return true
		}
	}
	return false
}

type pagination struct {
	Index       int `json:"index"`
	PageSize    int `json:"pageSize"`
	ResultCount int `json:"resultCount"`
	TotalCount  int `json:"totalCount"`
}

type projectResponse struct {
	Data Project `json:"data"`
}

type filesResponse struct {
	Data       []File     `json:"data"`
	Pagination pagination `json:"pagination"`
}

// Options configures a CurseForge client. Zero values fall back to defaults.
type Options struct {
	Endpoint  string
	APIKey    string
	UserAgent string
	Client    *http.Client
}

// CurseForge looks up projects and files through the CurseForge API.
type CurseForge struct {
	endpoint  string
	apiKey    string
	userAgent string
	client    *http.Client
}

// NewCurseForge creates a new CurseForge client.
func NewCurseForge(opts Options) *CurseForge {
	cf := &CurseForge{
		endpoint:  opts.Endpoint,
		apiKey:    opts.APIKey,
		userAgent: opts.UserAgent,
		client:    opts.Client,
	}
	if cf.endpoint == "" {
		cf.endpoint = DefaultEndpoint
	}
	if cf.userAgent == "" {
		cf.userAgent = DefaultUserAgent
	}
	if cf.client == nil {
		cf.client = &http.Client{Timeout: 30 * time.Second}
	}
	return cf
}

// Project fetches the project record for projectID.
func (cf *CurseForge) Project(ctx context.Context, projectID int) (*Project, error) {
	var resp projectResponse
	if err := cf.get(ctx, fmt.Sprintf("/v1/mods/%d", projectID), nil, &resp); err != nil {
		return nil, fmt.Errorf("project %d: %w", projectID, err)
	}
	return &resp.Data, nil
}

// Files lists the files of projectID that target versionGroup and are at
// least as stable as minimum, newest first. It returns ErrNoMatchingFiles
// when nothing qualifies.
func (cf *CurseForge) Files(ctx context.Context, projectID int, versionGroup string, minimum pack.Stability) ([]File, error) {
	var matching []File
	for index := 0; ; {
		query := url.Values{}
		query.Set("index", strconv.Itoa(index))
		query.Set("pageSize", strconv.Itoa(filesPageSize))

		var resp filesResponse
		if err := cf.get(ctx, fmt.Sprintf("/v1/mods/%d/files", projectID), query, &resp); err != nil {
			return nil, fmt.Errorf("files of project %d: %w", projectID, err)
		}
		for _, f := range resp.Data {
			if minimum.Allows(f.ReleaseType) && f.InGroup(versionGroup) {
				matching = append(matching, f)
			}
		}

		index += resp.Pagination.ResultCount
		if resp.Pagination.ResultCount == 0 || index >= resp.Pagination.TotalCount {
			break
		}
	}

	if len(matching) == 0 {
		return nil, fmt.Errorf("project %d for %s: %w", projectID, versionGroup, ErrNoMatchingFiles)
	}
	slices.SortStableFunc(matching, func(a, b File) int {
		if c := b.FileDate.Compare(a.FileDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return matching, nil
}

func (cf *CurseForge) get(ctx context.Context, path string, query url.Values, v any) error {
	u := cf.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", cf.userAgent)
	if cf.apiKey != "" {
		req.Header.Set("x-api-key", cf.apiKey)
	}

	resp, err := cf.client.Do(req)
	if err != nil {
		return fmt.Errorf("querying CurseForge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrProjectNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("CurseForge API error: HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
