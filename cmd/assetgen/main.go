package main

import (
	"fmt"
	"os"

	"soulsight/internal/assets"
	"soulsight/internal/version"
)

func main() {
	// Regenerates the static brand assets. The output directory is the
	// repo's static/images by default so the files land where the web
	// templates reference them.
	args := os.Args
	outDir := "static/images"
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println(version.String())
			return
		case "help", "--help", "-h":
			fmt.Println("usage: assetgen [outdir]")
			return
		default:
			outDir = args[1]
		}
	}

	paths, err := assets.WriteAll(outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "assetgen: %v\n", err)
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}
