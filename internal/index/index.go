// Package index keeps a catalogue of named reference sources, so a project
// can write `index:IPL4asp` in [references] instead of a full git source.
package index

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/qobs-build/titanmk/internal/msg"
)

const (
	IndexFilename = "titanmk_index.json"
	indexBranch   = "main"
)

var errNoIndexURL = errors.New("no index repository configured (set index_url)")

type Index struct {
	basePath string
	// reference name -> source
	Sources map[string]string
}

func Parse(rdr io.Reader, basePath string) (*Index, error) {
	var sources map[string]string
	if err := json.NewDecoder(bufio.NewReader(rdr)).Decode(&sources); err != nil {
		return nil, err
	}
	return &Index{Sources: sources, basePath: basePath}, nil
}

// Load reads the index kept in basePath. A missing index is empty.
func Load(basePath string) (*Index, error) {
	f, err := os.Open(filepath.Join(basePath, IndexFilename))
	if errors.Is(err, os.ErrNotExist) {
		return &Index{basePath: basePath}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx, err := Parse(f, basePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}
	return idx, nil
}

func (idx *Index) Save() error {
	if err := os.MkdirAll(idx.basePath, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(idx.basePath, IndexFilename))
	if err != nil {
		return err
	}
	defer f.Close()

	bufw := bufio.NewWriter(f)
	enc := json.NewEncoder(bufw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(idx.Sources); err != nil {
		return err
	}
	return bufw.Flush()
}

// Fetch clones or updates the shared index repository into basePath
func Fetch(basePath, url string) (*Index, error) {
	if url == "" {
		return nil, errNoIndexURL
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(basePath, ".git")); os.IsNotExist(err) {
		msg.Info("fetching index %s", url)
		_, err := git.PlainClone(basePath, &git.CloneOptions{
			URL:           url,
			ReferenceName: plumbing.NewBranchReferenceName(indexBranch),
			SingleBranch:  true,
			Depth:         1,
			Progress:      &msg.IndentWriter{Indent: "    ", W: os.Stdout},
		})
		if err != nil {
			return nil, err
		}
	} else {
		repo, err := git.PlainOpen(basePath)
		if err != nil {
			return nil, err
		}
		w, err := repo.Worktree()
		if err != nil {
			return nil, err
		}
		err = w.Pull(&git.PullOptions{
			RemoteName:    "origin",
			ReferenceName: plumbing.NewBranchReferenceName(indexBranch),
			SingleBranch:  true,
			Depth:         1,
			Progress:      &msg.IndentWriter{Indent: "    ", W: os.Stdout},
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil, err
		}
	}

	return Load(basePath)
}

func (idx *Index) Set(name, source string) {
	if idx.Sources == nil {
		idx.Sources = make(map[string]string)
	}
	idx.Sources[name] = source
}

func (idx *Index) Has(name string) bool {
	_, exists := idx.Sources[name]
	return exists
}

func (idx *Index) Lookup(name string) (string, bool) {
	src, ok := idx.Sources[name]
	return src, ok
}

func (idx *Index) Remove(name string) bool {
	if _, ok := idx.Sources[name]; ok {
		delete(idx.Sources, name)
		return true
	}
	return false
}

// Search returns the names whose name or source contains term, sorted
func (idx *Index) Search(term string) []string {
	term = strings.ToLower(term)
	var names []string
	for _, name := range slices.Sorted(maps.Keys(idx.Sources)) {
		if strings.Contains(strings.ToLower(name), term) ||
			strings.Contains(strings.ToLower(idx.Sources[name]), term) {
			names = append(names, name)
		}
	}
	return names
}
