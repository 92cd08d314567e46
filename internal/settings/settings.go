// Package settings loads tool-wide settings that do not belong to any one
// project: where the TTCN-3 toolchain is installed, where Cygwin lives on
// Windows and which C++ compiler to fall back to.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	fileName  = "config"
	fileType  = "yaml"
	envPrefix = "TITANMK"

	KeyTTCN3Dir  = "ttcn3_dir"
	KeyCygwinDir = "cygwin_dir"
	KeyCxx       = "cxx"
	KeyIndexURL  = "index_url"

	defaultCygwinDir = `C:\cygwin64`
)

type Settings struct {
	TTCN3Dir  string
	CygwinDir string
	Cxx       string
	IndexURL  string
}

// Dir returns the settings directory ($XDG_CONFIG_HOME/titanmk).
func Dir() string {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".titanmk")
	}
	return filepath.Join(cfg, "titanmk")
}

// FilePath returns the default settings file path.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// IndexDir is where the reference index is kept
func IndexDir() string {
	return filepath.Join(Dir(), "index")
}

// Load reads settings from path (the default file when empty) and the
// environment. A missing file is not an error.
func Load(path string) (Settings, error) {
	v := viper.New()
	explicit := path != ""
	if !explicit {
		path = FilePath()
	}
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault(KeyCygwinDir, defaultCygwinDir)

	// the toolchain's own variable wins over TITANMK_TTCN3_DIR
	if err := v.BindEnv(KeyTTCN3Dir, "TTCN3_DIR", envPrefix+"_TTCN3_DIR"); err != nil {
		return Settings{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return Settings{}, fmt.Errorf("reading settings %s: %w", path, err)
		}
	}

	return Settings{
		TTCN3Dir:  v.GetString(KeyTTCN3Dir),
		CygwinDir: v.GetString(KeyCygwinDir),
		Cxx:       v.GetString(KeyCxx),
		IndexURL:  v.GetString(KeyIndexURL),
	}, nil
}
