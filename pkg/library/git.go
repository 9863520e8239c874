package library

import (
	"context"
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// VCSClient is the version-control capability the install manager needs.
// The graph resolver never touches it; it is invoked once per install-plan
// entry.
type VCSClient interface {
	// Clone checks out the repository at url into dir.
	Clone(ctx context.Context, url, dir string) error

	// Fetch updates dir's refs from its origin.
	Fetch(ctx context.Context, dir string) error

	// Checkout moves dir's worktree to the version the spec selects.
	Checkout(ctx context.Context, dir string, spec *Spec) error
}

// GitClient implements VCSClient with go-git.
type GitClient struct{}

// NewGitClient creates a git-backed version-control client.
func NewGitClient() *GitClient {
	return &GitClient{}
}

func (c *GitClient) Clone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  url,
		Tags: git.AllTags,
	})
	if err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}
	return nil
}

func (c *GitClient) Fetch(ctx context.Context, dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dir, err)
	}
	err = repo.FetchContext(ctx, &git.FetchOptions{Tags: git.AllTags})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetching %s: %w", dir, err)
	}
	return nil
}

func (c *GitClient) Checkout(ctx context.Context, dir string, spec *Spec) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dir, err)
	}

	kind, value := spec.Selector()
	var rev plumbing.Revision
	switch kind {
	case "tag":
		rev = plumbing.Revision("refs/tags/" + value)
	case "branch":
		rev = plumbing.Revision("origin/" + value)
	case "commit":
		rev = plumbing.Revision(value)
	default:
		return fmt.Errorf("library %q has no version selector", spec.Name)
	}

	hash, err := repo.ResolveRevision(rev)
	if err != nil {
		return fmt.Errorf("library %q: resolving %s %s: %w", spec.Name, kind, value, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("library %q: %w", spec.Name, err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return fmt.Errorf("library %q: checkout %s %s: %w", spec.Name, kind, value, err)
	}
	return nil
}
