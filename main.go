/*
psximager - disassembles and reassembles PlayStation 1 CD-ROM XA (BIN/CUE) images.

Copyright © 2026 Ripper55555
*/
package main

import (
	"fmt"
	"os"

	"github.com/Ripper55555/psximager/cmd"
)

// Version information (injected at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Check for a top-level version flag before cobra even initializes;
	// each subcommand carries its own -V flag for "psximager rip -V" etc.
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("psximager %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		os.Exit(0)
	}

	os.Exit(cmd.Execute())
}
