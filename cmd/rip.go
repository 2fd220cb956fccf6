package cmd

import (
	"fmt"
	"strings"

	"github.com/Ripper55555/psximager/internal/diag"
	"github.com/Ripper55555/psximager/internal/ripper"
	"github.com/spf13/cobra"
)

var ripCmd = &cobra.Command{
	Use:   "rip <input.cue> [out_dir]",
	Short: "Extract a BIN/CUE image into a catalog and directory tree",
	Long: `Extract the ISO 9660 filesystem, per-file metadata, the 16-sector
system area, audio tracks and a description of the disc layout from a
BIN/CUE image into a plain-text catalog plus a host directory tree.

If out_dir is omitted, it defaults to input.cue with its extension
stripped.

Examples:
  psximager rip game.cue
  psximager rip -s -f game.cue ./game_dir
  psximager rip -t game.cue`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("%w: rip takes 1 or 2 positional arguments, got %d", errUsage, len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		version, _ := cmd.Flags().GetBool("version")
		if version {
			fmt.Println("psximager rip")
			return nil
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		diag.SetVerboseMode(verbose)

		writeLBNs, _ := cmd.Flags().GetBool("lbns")
		strict, _ := cmd.Flags().GetBool("strict")
		lbnTable, _ := cmd.Flags().GetBool("lbn-table")
		fix, _ := cmd.Flags().GetBool("fix")

		cuePath := args[0]
		outDir := cuePath
		if idx := strings.LastIndexByte(outDir, '.'); idx > strings.LastIndexAny(outDir, "/\\") {
			outDir = outDir[:idx]
		}
		if len(args) == 2 {
			outDir = args[1]
		}

		opts := ripper.Options{
			WriteLBNs: writeLBNs || strict,
			Strict:    strict,
			LBNTable:  lbnTable,
			Fix:       fix,
		}
		if err := ripper.Rip(cuePath, outDir, opts); err != nil {
			return err
		}
		diag.LogInfo("ripped %q into %q", cuePath, outDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ripCmd)

	ripCmd.Flags().BoolP("lbns", "l", false, "emit \"@LBN\" annotations on every directory/file catalog line")
	ripCmd.Flags().BoolP("strict", "s", false, "mark the catalog for strict rebuild (implies --lbns)")
	ripCmd.Flags().BoolP("lbn-table", "t", false, "print a flat LBN table instead of writing the catalog")
	ripCmd.Flags().BoolP("fix", "f", false, "repair Y2K-broken dates instead of preserving them")
	ripCmd.Flags().BoolP("verbose", "v", false, "enable verbose diagnostic output")
	ripCmd.Flags().BoolP("version", "V", false, "print version information")
	ripCmd.Flags().BoolP("help", "?", false, "show help for rip")
}
