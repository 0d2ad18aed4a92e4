// Package git resolves the project that contains a directory.
package git

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/runoshun/flow/internal/domain"
)

// Resolver implements domain.ProjectResolver using go-git.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Ensure Resolver implements domain.ProjectResolver interface.
var _ domain.ProjectResolver = (*Resolver)(nil)

// Resolve returns the project rooted at the worktree that contains dir.
// The project is named after the root directory.
func (r *Resolver) Resolve(dir string) (*domain.Project, error) {
	root, err := RepoRoot(dir)
	if err != nil {
		return nil, err
	}
	return domain.NewProject("", root), nil
}

// RepoRoot returns the worktree root of the repository containing dir.
// Parent directories are searched, and linked worktrees are supported.
func RepoRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", domain.ErrNotGitRepository
		}
		return "", fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		// bare repositories have no worktree
		return "", fmt.Errorf("open worktree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}
