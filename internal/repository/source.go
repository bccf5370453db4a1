package repository

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/fyrsmithlabs/metadex/internal/config"
)

// ErrInvalidSource is returned for descriptors that name neither a URL nor a
// local path.
var ErrInvalidSource = errors.New("invalid repository source")

// ErrSharedDestination is returned when two remote sources would be cloned
// into the same work dir subdirectory.
var ErrSharedDestination = errors.New("repositories share a work directory")

// Source describes one repository to read meta from.
type Source struct {
	// URL is cloned into the work dir. Ignored when Path is set.
	URL string
	// Ref is an optional branch, tag or commit to check out.
	Ref      string
	Username string
	Token    config.Secret
	// Path names a local directory scanned in place, without fetching.
	Path string
}

// SourcesFromConfig converts configured repositories to sources.
func SourcesFromConfig(repos []config.RepositoryConfig) []Source {
	out := make([]Source, 0, len(repos))
	for _, r := range repos {
		out = append(out, Source{
			URL:      r.URL,
			Ref:      r.Checkout,
			Username: r.Username,
			Token:    r.AccessToken,
			Path:     r.Path,
		})
	}
	return out
}

// Local reports whether the source is scanned in place.
func (s Source) Local() bool { return s.Path != "" }

// Validate checks the descriptor is usable.
func (s Source) Validate() error {
	if s.Path == "" && s.URL == "" {
		return fmt.Errorf("%w: url or path is required", ErrInvalidSource)
	}
	if s.Path != "" {
		return nil
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	if u.User != nil {
		return fmt.Errorf("%w: credentials must not be embedded in the url", ErrInvalidSource)
	}
	if s.Token.IsSet() && s.Username == "" {
		return fmt.Errorf("%w: access token requires a username", ErrInvalidSource)
	}
	return nil
}

// String identifies the source in logs and reports without credentials.
func (s Source) String() string {
	if s.Path != "" {
		return s.Path
	}
	if s.Ref != "" {
		return s.URL + "@" + s.Ref
	}
	return s.URL
}

// CheckDistinct fails when two remote sources map to the same DirName, such
// as one URL listed with two checkout refs. Fetches run concurrently and
// each checks out its own ref, so a shared directory would be corrupted.
func CheckDistinct(srcs []Source) error {
	owner := make(map[string]Source)
	var errs []error
	for _, src := range srcs {
		if src.Local() || src.URL == "" {
			continue
		}
		dir := DirName(src.URL)
		if prev, ok := owner[dir]; ok {
			errs = append(errs, fmt.Errorf("%w: %s and %s both use %q", ErrSharedDestination, prev, src, dir))
			continue
		}
		owner[dir] = src
	}
	return errors.Join(errs...)
}

// DirName derives the work dir subdirectory for a repository URL: the last
// two path elements without a ".git" suffix, e.g. "DenizenScript/Denizen".
func DirName(rawURL string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(rawURL, "/"), ".git")
	p := trimmed
	if u, err := url.Parse(trimmed); err == nil && u.Path != "" {
		p = u.Path
	} else if i := strings.LastIndex(trimmed, ":"); i >= 0 {
		// scp-like git@host:owner/repo
		p = trimmed[i+1:]
	}
	p = strings.Trim(path.Clean("/"+p), "/")
	parts := strings.Split(p, "/")
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	name := strings.Join(parts, "/")
	if name == "" || name == "." {
		return "repo"
	}
	return name
}
