package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TTCN3_DIR", "")
	t.Setenv("TITANMK_TTCN3_DIR", "")
	t.Setenv("TITANMK_CXX", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ttcn3_dir: /opt/titan\ncxx: clang++\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/titan", s.TTCN3Dir)
	assert.Equal(t, "clang++", s.Cxx)
	assert.Equal(t, `C:\cygwin64`, s.CygwinDir)
}

func TestLoadEnvironmentWins(t *testing.T) {
	t.Setenv("TTCN3_DIR", "/env/titan")
	t.Setenv("TITANMK_CYGWIN_DIR", `D:\cygwin`)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ttcn3_dir: /opt/titan\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/titan", s.TTCN3Dir)
	assert.Equal(t, `D:\cygwin`, s.CygwinDir)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
