package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Ripper55555/psximager/internal/builder"
	"github.com/Ripper55555/psximager/internal/diag"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build <input.cat> [out]",
	Short: "Reassemble a BIN/CUE image from a catalog produced by rip",
	Long: `Reverse rip: assemble a byte-level BIN/CUE image from a catalog, the
host files it references, its audio tracks and its system-area dump.

If out is omitted, it defaults to input.cat with its extension stripped.

Examples:
  psximager build game_dir.cat
  psximager build -c game_dir.cat game`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("%w: build takes 1 or 2 positional arguments, got %d", errUsage, len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		version, _ := cmd.Flags().GetBool("version")
		if version {
			fmt.Println("psximager build")
			return nil
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		diag.SetVerboseMode(verbose)

		writeCue, _ := cmd.Flags().GetBool("cuefile")

		catPath := args[0]
		outBase := ""
		if len(args) == 2 {
			outBase = args[1]
		}

		opts := builder.Options{WriteCue: writeCue}
		if err := builder.Build(catPath, outBase, opts); err != nil {
			return err
		}
		outPath := outBase
		if outPath == "" {
			outPath = strings.TrimSuffix(catPath, filepath.Ext(catPath))
		}
		diag.LogInfo("built %q from %q", outPath+".bin", catPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().BoolP("cuefile", "c", false, "also emit a new CUE sheet next to the BIN")
	buildCmd.Flags().BoolP("verbose", "v", false, "enable verbose diagnostic output")
	buildCmd.Flags().BoolP("version", "V", false, "print version information")
	buildCmd.Flags().BoolP("help", "?", false, "show help for build")
}
