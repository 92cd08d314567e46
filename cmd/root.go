// titanmk [paths...], titanmk generate [paths...]
package cmd

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/qobs-build/titanmk/internal/builder"
	"github.com/qobs-build/titanmk/internal/msg"
	"github.com/qobs-build/titanmk/internal/settings"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	flagSettings string
	flagDiff     bool
	flagStdout   bool
	flagDialect  EnumValue = NewEnumValue("config", map[string]string{
		"config":              "Use gnu_make from Titanmk.toml (default)",
		builder.DialectGNU:   "Write a Makefile for GNU make",
		builder.DialectPOSIX: "Write a Makefile for any POSIX make",
	})
)

// loadSettings reads the tool settings or exits
func loadSettings() settings.Settings {
	s, err := settings.Load(flagSettings)
	if err != nil {
		msg.Fatal("%v", err)
	}
	return s
}

// newBuilder opens the project in path with the command line overrides
// applied
func newBuilder(path string, s settings.Settings) (*builder.Builder, error) {
	b, err := builder.NewBuilderInDirectory(path, s)
	if err != nil {
		return nil, err
	}
	if d := flagDialect.Value(); d != "config" {
		b.Dialect = d
	}
	return b, nil
}

func generateOne(path string, s settings.Settings, outMu *sync.Mutex) error {
	b, err := newBuilder(path, s)
	if err != nil {
		return err
	}

	switch {
	case flagDiff:
		diff, err := b.Diff()
		if err != nil {
			return err
		}
		outMu.Lock()
		defer outMu.Unlock()
		if diff == "" {
			msg.Info("%s is up to date", b.MakefilePath())
			return nil
		}
		fmt.Printf("%s %s\n", color.HiCyanString("---"), b.MakefilePath())
		fmt.Print(diff)
	case flagStdout:
		data, err := b.Synthesize()
		if err != nil {
			return err
		}
		outMu.Lock()
		defer outMu.Unlock()
		os.Stdout.Write(data)
	default:
		if _, err := b.Generate(); err != nil {
			return err
		}
	}
	return nil
}

// doGenerate runs one independent synthesis per project, concurrently
func doGenerate(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		args = []string{"."}
	}
	s := loadSettings()

	var outMu sync.Mutex
	var failed atomic.Int32
	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())
	for _, path := range args {
		eg.Go(func() error {
			if err := generateOne(path, s, &outMu); err != nil {
				msg.Error("%s: %v", path, err)
				failed.Add(1)
			}
			return nil
		})
	}
	eg.Wait()

	if n := failed.Load(); n > 0 {
		msg.Fatal("%d of %d project(s) failed", n, len(args))
	}
}

var rootCmd = &cobra.Command{
	Use:   "titanmk [project paths...]",
	Short: "Makefile generator for TTCN-3 projects",
	Long: `titanmk writes the Makefile of a TTCN-3 project built with the TITAN toolchain.
It classifies the project's files and those of every referenced project and
generates a Makefile for GNU or POSIX make. If no path is given, uses "."`,
	Args: cobra.ArbitraryArgs,
	Run:  doGenerate,
}

var generateCmd = &cobra.Command{
	Use:   "generate [project paths...]",
	Short: "Generate the Makefile",
	Long:  `Generate the Makefile of each given project. If no path is given, uses "."`,
	Args:  cobra.ArbitraryArgs,
	Run:   doGenerate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSettings, "settings", "", "Settings file (default "+settings.FilePath()+")")
	addGenerateFlags(rootCmd)

	// titanmk generate subcommand
	rootCmd.AddCommand(generateCmd)
	addGenerateFlags(generateCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagDiff, "diff", false, "Print the changes against the existing Makefile instead of writing it")
	cmd.Flags().BoolVar(&flagStdout, "stdout", false, "Print the Makefile instead of writing it")
	cmd.MarkFlagsMutuallyExclusive("diff", "stdout")
	addDialectFlag(cmd)
}

func addDialectFlag(cmd *cobra.Command) {
	cmd.Flags().VarP(&flagDialect, "dialect", "d", "Make dialect, one of "+flagDialect.HelpString())
	cmd.RegisterFlagCompletionFunc("dialect", flagDialect.CompletionFunc())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
