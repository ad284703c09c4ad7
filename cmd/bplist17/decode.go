package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"

	"github.com/zdypro888/plist17"
)

type decodeCommand struct {
	Typed    bool   `short:"t" long:"typed" description:"Tag every value with its wire type (json and yaml)"`
	Format   string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" choice:"xml" choice:"dump" default:"json" env:"BPLIST17_FORMAT"`
	Input    string `short:"i" long:"input" description:"bplist17 file or directory" required:"true"`
	Output   string `short:"o" long:"output" description:"Output file or directory, stdout when omitted"`
	MaxDepth int    `long:"max-depth" description:"Maximum nesting depth" default:"512"`
}

var formatExt = map[string]string{
	"json": ".json",
	"yaml": ".yaml",
	"xml":  ".plist",
	"dump": ".txt",
}

func (c *decodeCommand) Execute(args []string) error {
	logger := newLogger()
	jobs, err := planJobs(c.Input, c.Output, []string{streamExt}, formatExt[c.Format])
	if err != nil {
		return err
	}

	decoder := plist17.NewDecoder(plist17.WithMaxDepth(c.MaxDepth))
	failed := 0
	for _, j := range jobs {
		if err := c.decodeFile(decoder, j); err != nil {
			logger.Error("decode failed", "input", j.input, "error", err)
			failed++
			continue
		}
		logger.Debug("decoded", "input", j.input, "output", j.output)
	}
	if failed > 0 {
		return errors.Newf("%d of %d files failed", failed, len(jobs))
	}
	logger.Info("done", "files", len(jobs))
	return nil
}

func (c *decodeCommand) decodeFile(decoder *plist17.Decoder, j job) error {
	data, err := readInput(j.input)
	if err != nil {
		return err
	}
	pval, err := decoder.Decode(data)
	if err != nil {
		return err
	}
	out, err := render(pval, c.Format, c.Typed)
	if err != nil {
		return err
	}
	if j.output != "" {
		return os.WriteFile(j.output, out, 0o644)
	}

	rule := bytes.Repeat([]byte("="), 80)
	fmt.Fprintf(os.Stdout, "%s\nParsing: %s\n%s\n%s\n%s\n\n", rule, j.input, bytes.Repeat([]byte("-"), 80), out, rule)
	return nil
}

var gzipMagic = []byte{0x1f, 0x8b}

// readInput loads a file, inflating it first when it is gzip compressed.
func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, gzipMagic) {
		return data, nil
	}
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "opening gzip stream %s", path)
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
