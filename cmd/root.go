// Package cmd provides the command-line interface for psximager: rip,
// build and inject over PlayStation 1 CD-ROM XA (BIN/CUE) images.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errUsage marks an argument-count or flag-parsing failure, distinct from
// a pipeline failure reported by rip/build/inject themselves — the two
// map to different process exit codes (64 vs 1).
var errUsage = errors.New("usage error")

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "psximager",
	Short: "Disassemble and reassemble PlayStation 1 CD-ROM XA images",
	Long: `psximager - disassembles and reassembles PlayStation 1 CD-ROM images
in the CD-ROM XA binary format (BIN/CUE, raw 2352-byte sectors).

Commands:
  rip       Extract a BIN/CUE image into a catalog, directory tree,
            system-area dump and audio tracks.
  build     Reassemble a BIN/CUE image from a catalog produced by rip.
  inject    Replace one file's contents inside an existing image in
            place, without rebuilding.

Examples:
  psximager rip game.cue ./game_dir
  psximager rip -s -f game.cue ./game_dir
  psximager build game_dir.cat game
  psximager inject game.cue SOUND/BGM01.XA new_bgm01.xa

Use 'psximager [command] --help' for more information about a command.`,
}

func init() {
	rootCmd.Flags().BoolP("help", "?", false, "show help")
	// Subcommands inherit this, so a bad flag anywhere is a usage error.
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})
}

// Execute adds all child commands to the root command, runs it, and
// returns the process exit code per spec.md §6: 0 ok, 1 fatal, 64 usage.
func Execute() int {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	fmt.Fprintln(os.Stderr, "error:", err)
	if errors.Is(err, errUsage) {
		return 64
	}
	return 1
}
