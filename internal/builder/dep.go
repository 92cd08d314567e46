package builder

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/qobs-build/titanmk/internal/msg"
)

var refShortcuts = map[string]string{
	"gh:": "https://github.com/",
	"gl:": "https://gitlab.com/",
	"bb:": "https://bitbucket.org/",
	"sr:": "https://sr.ht/",
	"cb:": "https://codeberg.org/",
}

const gitPrefix = "git:"

var (
	errIllegalRef    = errors.New("empty or illegal reference source")
	errArchiveSource = errors.New("archive URLs are not supported as reference sources, use a git source")
)

// isRemoteSource reports whether a reference has to be fetched
func isRemoteSource(src string) bool {
	if strings.HasPrefix(src, gitPrefix) {
		return true
	}
	for shortcut := range refShortcuts {
		if strings.HasPrefix(src, shortcut) {
			return true
		}
	}
	return isURL(src)
}

// resolveReference returns the directory of a referenced project. Local
// sources are relative to the referencing project; remote ones are cloned
// into fetchDir unless already present.
func resolveReference(src, projectDir, fetchDir string) (string, error) {
	if src == "" {
		return "", errIllegalRef
	}

	if !isRemoteSource(src) {
		if filepath.IsAbs(src) {
			return filepath.Clean(src), nil
		}
		return filepath.Join(projectDir, src), nil
	}

	if stat, err := os.Stat(fetchDir); err == nil && stat.IsDir() {
		return fetchDir, nil
	}
	if err := os.MkdirAll(filepath.Dir(fetchDir), 0o755); err != nil {
		return "", err
	}

	// check for `git:` prefix, e.g. git:https://example.org/common.git
	if strings.HasPrefix(src, gitPrefix) {
		return cloneGitRepo(src[len(gitPrefix):], fetchDir)
	}

	// check for shortcut prefix, e.g. gh:someone/common-types
	for shortcut, base := range refShortcuts {
		if strings.HasPrefix(src, shortcut) {
			return cloneGitRepo(base+src[len(shortcut):], fetchDir)
		}
	}

	return "", errArchiveSource
}

func isURL(maybeURL string) bool {
	u, err := url.Parse(maybeURL)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// gitSource is a parsed git reference source:
//
//	https://example.org/common@main#v1.2.0
//	https://example.org/common@feature#12345abc
//	https://example.org/common#12345abc
type gitSource struct {
	url      string
	branch   string
	revision string
}

func parseGitSource(raw string) gitSource {
	var src gitSource
	raw, src.revision, _ = strings.Cut(raw, "#")
	src.url, src.branch, _ = strings.Cut(raw, "@")
	if !strings.HasSuffix(src.url, ".git") {
		src.url += ".git"
	}
	return src
}

// cloneGitRepo fetches a referenced project into dir. Without a pinned
// revision only the tip of the branch is fetched.
func cloneGitRepo(raw, dir string) (string, error) {
	src := parseGitSource(raw)

	msg.Info("fetching %s", src.url)
	opts := &git.CloneOptions{
		URL:               src.url,
		Progress:          &msg.IndentWriter{Indent: "    ", W: os.Stdout},
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	}
	if src.revision == "" {
		opts.Depth = 1
	}
	if src.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.branch)
		opts.SingleBranch = true
	}

	repo, err := git.PlainClone(dir, opts)
	if err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	if src.revision != "" {
		if err := checkoutRevision(repo, src.revision); err != nil {
			return dir, err
		}
	}
	return dir, nil
}

func checkoutRevision(repo *git.Repository, revision string) error {
	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return fmt.Errorf("unknown revision %s: %w", revision, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return fmt.Errorf("checking out %s: %w", revision, err)
	}
	return nil
}
