// titanmk init [name], titanmk new [path]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml/v2"
	"github.com/qobs-build/titanmk/internal/builder"
	"github.com/qobs-build/titanmk/internal/msg"
	"github.com/spf13/cobra"
)

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "titanmk"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

// moduleIdent turns a project name into a valid TTCN-3 identifier
func moduleIdent(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			sb.WriteRune(r)
		case r >= '0' && r <= '9' || r == '_':
			if i == 0 {
				sb.WriteByte('M')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "Main"
	}
	return sb.String()
}

type scaffoldConfig struct {
	Project struct {
		Name       string `toml:"name"`
		WorkingDir string `toml:"working_dir"`
		Symlinks   bool   `toml:"symlinks"`
	} `toml:"project"`
	Makefile struct {
		GNUMake bool `toml:"gnu_make"`
		Library bool `toml:"library"`
	} `toml:"makefile"`
	References map[string]string `toml:"references"`
}

// initIn initializes a project in an existing specified directory
func initIn(dir, name string, lib bool) {
	var cfg scaffoldConfig
	cfg.Project.Name = name
	cfg.Project.WorkingDir = "bin"
	cfg.Project.Symlinks = true
	cfg.Makefile.GNUMake = true
	cfg.Makefile.Library = lib
	cfg.References = map[string]string{}

	data, err := toml.Marshal(cfg)
	if err != nil {
		msg.Fatal("encode %s: %v", builder.ConfigFilename, err)
	}
	writefile(string(data), dir, builder.ConfigFilename)

	mkdir(dir, "src")

	module := moduleIdent(name)
	writefile(`module `+module+` {

type component `+module+`_CT {}

testcase tc_hello() runs on `+module+`_CT {
  log("Hello, World!");
  setverdict(pass);
}

control {
  execute(tc_hello());
}

}
`, dir, "src", module+".ttcn")

	// .gitignore
	writefile(`bin/
.titanmk/
`, dir, ".gitignore")

	programName := getProgramName()
	fmt.Printf("You can now do %s to write the Makefile, or %s to build.\n",
		color.HiCyanString(programName+" "+dir), color.HiCyanString(programName+" build "+dir))
}

var library bool

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new project in the current directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initIn(".", args[0], library)
	},
}

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Create a new project in a new directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]), library)
	},
}

func init() {
	// titanmk init subcommand
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&library, "lib", "l", false, "Make the library the default target")

	// titanmk new subcommand
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().BoolVarP(&library, "lib", "l", false, "Make the library the default target")
}
