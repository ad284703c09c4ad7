package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

const streamExt = ".bplist17"

type job struct {
	input  string
	output string // empty means stdout
}

// planJobs pairs inputs with outputs. A file input maps to a file output; a
// directory input maps every file with one of exts to outDir/<base><outExt>.
func planJobs(input, output string, exts []string, outExt string) ([]job, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, errors.Wrap(err, "input")
	}

	if !info.IsDir() {
		if output != "" {
			if st, err := os.Stat(output); (err == nil && st.IsDir()) || strings.HasSuffix(output, string(filepath.Separator)) {
				return nil, errors.New("the input is not a directory, so the output must not be a directory either")
			}
		}
		return []job{{input: input, output: output}}, nil
	}

	if output != "" {
		st, err := os.Stat(output)
		switch {
		case err == nil && !st.IsDir():
			return nil, errors.New("the input is a directory, so the output must be a directory too")
		case os.IsNotExist(err):
			if err := os.MkdirAll(output, 0o755); err != nil {
				return nil, errors.Wrap(err, "creating output directory")
			}
		case err != nil:
			return nil, errors.Wrap(err, "output")
		}
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, errors.Wrap(err, "listing input directory")
	}
	var jobs []job
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := matchExt(name, exts)
		if ext == "" {
			continue
		}
		j := job{input: filepath.Join(input, name)}
		if output != "" {
			j.output = filepath.Join(output, strings.TrimSuffix(name, ext)+outExt)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func matchExt(name string, exts []string) string {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return ext
		}
	}
	return ""
}
