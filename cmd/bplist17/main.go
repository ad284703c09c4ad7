// Command bplist17 converts bplist17 files to JSON, YAML, XML or a typed dump,
// and builds bplist17 files from JSON or XML property lists.
//
//	bplist17 decode [-t] [-f json|yaml|xml|dump] -i <input> [-o <output>]
//	bplist17 encode [-t] [-r] -i <input> -o <output>
//
// Input and output are either both files or both directories.
package main

import (
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
)

type globalOptions struct {
	Verbose bool `short:"v" long:"verbose" description:"Log every processed file"`
}

var opts globalOptions

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.AddCommand("decode", "Decode bplist17 files", "Decode a bplist17 file, or every *.bplist17 file in a directory.", &decodeCommand{})
	parser.AddCommand("encode", "Encode bplist17 files", "Encode a JSON or XML plist file, or every such file in a directory.", &encodeCommand{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
