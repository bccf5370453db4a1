package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"
)

// Fetcher keeps working copies of remote repositories under a base dir.
type Fetcher struct {
	baseDir string
	depth   int
	timeout time.Duration
	logger  *zap.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithDepth sets the clone and pull depth. Zero fetches full history.
func WithDepth(depth int) FetcherOption {
	return func(f *Fetcher) { f.depth = depth }
}

// WithTimeout bounds each Fetch call. Zero disables the bound.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.timeout = d }
}

// NewFetcher returns a fetcher storing clones under baseDir.
func NewFetcher(baseDir string, logger *zap.Logger, opts ...FetcherOption) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{baseDir: baseDir, depth: 1, logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// BaseDir is the directory holding all clones.
func (f *Fetcher) BaseDir() string { return f.baseDir }

// Clean removes every clone.
func (f *Fetcher) Clean() error {
	if err := os.RemoveAll(f.baseDir); err != nil {
		return fmt.Errorf("removing work dir: %w", err)
	}
	return nil
}

// Fetch makes sure an up to date copy of src exists locally and returns its
// directory. Local sources are returned as is after a sanity check.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (string, error) {
	if err := src.Validate(); err != nil {
		return "", err
	}
	if src.Local() {
		return validateDir(src.Path)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	dest := filepath.Join(f.baseDir, filepath.FromSlash(DirName(src.URL)))
	auth := authFor(src)
	log := f.logger.With(zap.String("repository", src.String()), zap.String("dest", dest))

	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		log.Debug("updating repository")
		if err := f.update(ctx, dest, src, auth); err != nil {
			return "", fmt.Errorf("updating %s: %w", src, err)
		}
		return dest, nil
	}

	log.Debug("cloning repository")
	if err := f.clone(ctx, dest, src, auth); err != nil {
		// leave nothing half-cloned behind so the next reload retries
		_ = os.RemoveAll(dest)
		return "", fmt.Errorf("cloning %s: %w", src, err)
	}
	return dest, nil
}

func (f *Fetcher) clone(ctx context.Context, dest string, src Source, auth transport.AuthMethod) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	repo, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:        src.URL,
		Auth:       auth,
		Depth:      f.depth,
		NoCheckout: src.Ref != "",
	})
	if err != nil {
		return err
	}
	if src.Ref == "" {
		return nil
	}
	return f.checkout(ctx, repo, src.Ref, auth)
}

func (f *Fetcher) update(ctx context.Context, dest string, src Source, auth transport.AuthMethod) error {
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return err
	}
	if src.Ref != "" {
		return f.checkout(ctx, repo, src.Ref, auth)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName: git.DefaultRemoteName,
		Auth:       auth,
		Depth:      f.depth,
		Force:      true,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

// checkout fetches ref as a branch or tag and checks it out detached. A ref
// that is neither is resolved locally, which covers commit hashes already
// present in the clone.
func (f *Fetcher) checkout(ctx context.Context, repo *git.Repository, ref string, auth transport.AuthMethod) error {
	specs := []gitconfig.RefSpec{
		gitconfig.RefSpec(fmt.Sprintf("+refs/heads/%[1]s:refs/remotes/%[2]s/%[1]s", ref, git.DefaultRemoteName)),
		gitconfig.RefSpec(fmt.Sprintf("+refs/tags/%[1]s:refs/tags/%[1]s", ref)),
	}
	for _, spec := range specs {
		err := repo.FetchContext(ctx, &git.FetchOptions{
			RemoteName: git.DefaultRemoteName,
			RefSpecs:   []gitconfig.RefSpec{spec},
			Auth:       auth,
			Depth:      f.depth,
			Force:      true,
		})
		if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Debug("ref not fetched", zap.String("refspec", spec.String()), zap.Error(err))
	}

	hash, err := resolveRef(repo, ref)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true})
}

func resolveRef(repo *git.Repository, ref string) (*plumbing.Hash, error) {
	candidates := []string{
		"refs/remotes/" + git.DefaultRemoteName + "/" + ref,
		"refs/tags/" + ref,
		ref,
	}
	var lastErr error
	for _, c := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(c))
		if err == nil {
			return hash, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("resolving ref %q: %w", ref, lastErr)
}

// authFor returns basic auth for sources with a username. The token is only
// ever held by the transport for the duration of the call.
func authFor(src Source) transport.AuthMethod {
	if src.Username == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: src.Username, Password: src.Token.Value()}
}

func validateDir(path string) (string, error) {
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", clean)
		}
		return "", fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path must be a directory: %s", clean)
	}
	return clean, nil
}
