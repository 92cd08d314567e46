// titanmk files [path]
package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/qobs-build/titanmk/internal/msg"
	"github.com/qobs-build/titanmk/internal/registry"
	"github.com/spf13/cobra"
)

func scope(reg *registry.Registry, home string) string {
	if reg.IsLocal(home) {
		return "local"
	}
	return color.HiMagentaString("shared")
}

func printEntry(kind, scope, location, module string) {
	if module != "" {
		fmt.Printf("%-14s %-7s %s (%s)\n", kind, scope, location, color.HiCyanString(module))
	} else {
		fmt.Printf("%-14s %-7s %s\n", kind, scope, location)
	}
}

func doFiles(cmd *cobra.Command, args []string) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	b, err := newBuilder(target, loadSettings())
	if err != nil {
		msg.Fatal("%v", err)
	}
	reg, projects, err := b.Classify()
	if err != nil {
		msg.Fatal("%v", err)
	}
	reg.Sort()

	for _, p := range projects {
		role := "reference"
		if p.IsRoot {
			role = "primary"
		}
		fmt.Printf("%s %s (%s) %s\n", color.HiGreenString("project"), p.Name, role, p.Path)
	}

	for _, coll := range [][]*registry.Module{reg.TTCN3Modules, reg.TTCN3PPModules, reg.ASN1Modules} {
		for _, m := range coll {
			printEntry(m.Kind.String(), scope(reg, m.HomeDir), m.Location, m.Name)
		}
	}
	for _, f := range reg.Includes {
		printEntry(registry.KindTTCN3Include.String(), scope(reg, f.HomeDir), f.Location, "")
	}
	for _, n := range reg.UserFiles {
		if n.HasSource() {
			printEntry(registry.KindSource.String(), scope(reg, n.HomeDir), n.SourceLocation, "")
		}
		if n.HasHeader() {
			printEntry(registry.KindHeader.String(), scope(reg, n.HomeDir), n.HeaderLocation, "")
		}
	}
	for _, f := range reg.OtherFiles {
		printEntry(registry.KindMisc.String(), "", f.Location, "")
	}
	for _, d := range reg.BaseDirs {
		if d.HasModules {
			fmt.Printf("%-14s %s\n", "central", d.Name)
		}
	}
}

var filesCmd = &cobra.Command{
	Use:   "files [project path]",
	Short: "List the classified files of a project",
	Long:  `List every file of the project and its references the way the Makefile sees them. If no path is given, uses "."`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doFiles,
}

func init() {
	// titanmk files subcommand
	rootCmd.AddCommand(filesCmd)
}
