package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/zdypro888/plist17"
)

type encodeCommand struct {
	Typed      bool   `short:"t" long:"typed" description:"JSON input carries type tags as written by decode --typed"`
	References bool   `short:"r" long:"references" description:"Replace repeated values with back-references"`
	Input      string `short:"i" long:"input" description:"JSON or XML plist file or directory" required:"true"`
	Output     string `short:"o" long:"output" description:"Output file or directory" required:"true"`
}

var sourceExts = []string{".json", ".plist", ".xml"}

func (c *encodeCommand) Execute(args []string) error {
	logger := newLogger()
	jobs, err := planJobs(c.Input, c.Output, sourceExts, streamExt)
	if err != nil {
		return err
	}

	var encOpts []plist17.EncoderOption
	if c.References {
		encOpts = append(encOpts, plist17.WithReferences())
	}
	encoder := plist17.NewEncoder(encOpts...)

	failed := 0
	for _, j := range jobs {
		if err := c.encodeFile(encoder, j); err != nil {
			logger.Error("encode failed", "input", j.input, "error", err)
			failed++
			continue
		}
		logger.Debug("encoded", "input", j.input, "output", j.output)
	}
	if failed > 0 {
		return errors.Newf("%d of %d files failed", failed, len(jobs))
	}
	logger.Info("done", "files", len(jobs))
	return nil
}

func (c *encodeCommand) encodeFile(encoder *plist17.Encoder, j job) error {
	data, err := readInput(j.input)
	if err != nil {
		return err
	}
	pval, err := parseSource(filepath.Ext(j.input), data, c.Typed)
	if err != nil {
		return errors.Wrapf(err, "reading %s", j.input)
	}
	out, err := encoder.Encode(pval)
	if err != nil {
		return err
	}
	return os.WriteFile(j.output, out, 0o644)
}

// parseSource reads JSON, or an XML property list for .plist and .xml files.
func parseSource(ext string, data []byte, typed bool) (plist17.Value, error) {
	switch strings.ToLower(ext) {
	case ".plist", ".xml":
		return plist17.DecodeXML(bytes.NewReader(data))
	}
	pval, err := parseJSON(data)
	if err != nil || !typed {
		return pval, err
	}
	return untype(pval)
}
