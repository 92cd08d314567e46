// titanmk build [path] [-- make arguments]
package cmd

import (
	"github.com/qobs-build/titanmk/internal/msg"
	"github.com/spf13/cobra"
)

func doBuild(cmd *cobra.Command, args []string) {
	paths, makeArgs := args, []string(nil)
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		paths, makeArgs = args[:dash], args[dash:]
	}
	if len(paths) > 1 {
		msg.Fatal("build takes at most one project path, got %d", len(paths))
	}
	target := "."
	if len(paths) == 1 {
		target = paths[0]
	}

	b, err := newBuilder(target, loadSettings())
	if err != nil {
		msg.Fatal("%v", err)
	}
	if _, err := b.Generate(); err != nil {
		msg.Fatal("%v", err)
	}
	if err := b.Invoke(makeArgs); err != nil {
		msg.Fatal("make: %v", err)
	}
}

var buildCmd = &cobra.Command{
	Use:   "build [project path] [-- make arguments]",
	Short: "Generate the Makefile and run make",
	Long: `Generate the Makefile and run make in the project's working directory.
If no project path is given, uses ".". Arguments after -- are passed to make.`,
	Args: cobra.ArbitraryArgs,
	Run:  doBuild,
}

func init() {
	// titanmk build subcommand
	rootCmd.AddCommand(buildCmd)
	addDialectFlag(buildCmd)
}
