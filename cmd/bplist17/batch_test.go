package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/zdypro888/plist17"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestPlanJobsFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "one.bplist17")
	writeFile(t, in, []byte("bplist17"))

	jobs, err := planJobs(in, "", []string{streamExt}, ".json")
	require.NoError(t, err)
	require.Equal(t, []job{{input: in}}, jobs)

	out := filepath.Join(dir, "one.json")
	jobs, err = planJobs(in, out, []string{streamExt}, ".json")
	require.NoError(t, err)
	require.Equal(t, []job{{input: in, output: out}}, jobs)

	_, err = planJobs(in, dir, []string{streamExt}, ".json")
	require.Error(t, err)

	_, err = planJobs(filepath.Join(dir, "missing"), "", []string{streamExt}, ".json")
	require.Error(t, err)
}

func TestPlanJobsDirectory(t *testing.T) {
	in := t.TempDir()
	writeFile(t, filepath.Join(in, "b.bplist17"), nil)
	writeFile(t, filepath.Join(in, "a.bplist17"), nil)
	writeFile(t, filepath.Join(in, "notes.txt"), nil)
	require.NoError(t, os.Mkdir(filepath.Join(in, "sub.bplist17"), 0o755))

	out := filepath.Join(t.TempDir(), "nested", "out")
	jobs, err := planJobs(in, out, []string{streamExt}, ".yaml")
	require.NoError(t, err)
	require.Equal(t, []job{
		{input: filepath.Join(in, "a.bplist17"), output: filepath.Join(out, "a.yaml")},
		{input: filepath.Join(in, "b.bplist17"), output: filepath.Join(out, "b.yaml")},
	}, jobs)
	st, err := os.Stat(out)
	require.NoError(t, err)
	require.True(t, st.IsDir())

	file := filepath.Join(out, "file")
	writeFile(t, file, nil)
	_, err = planJobs(in, file, []string{streamExt}, ".yaml")
	require.Error(t, err)
}

func TestEncodeDecodeCommands(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "doc.json"), []byte(`{"name": "demo", "list": [1, 2.5, null]}`))
	writeFile(t, filepath.Join(src, "skip.md"), []byte("# not a source"))

	streams := t.TempDir()
	enc := &encodeCommand{Input: src, Output: streams, References: true}
	require.NoError(t, enc.Execute(nil))

	data, err := os.ReadFile(filepath.Join(streams, "doc.bplist17"))
	require.NoError(t, err)
	pval, err := plist17.Decode(data)
	require.NoError(t, err)
	want := plist17.NewDictionary().
		Set(plist17.String("name"), plist17.String("demo")).
		Set(plist17.String("list"), plist17.NewArray(plist17.Int(1), plist17.Float64(2.5), plist17.Null{}))
	require.True(t, plist17.Equal(want, pval), plist17.Sprint(pval))

	// decode reads gzip compressed streams transparently
	var zipped bytes.Buffer
	zw := gzip.NewWriter(&zipped)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	writeFile(t, filepath.Join(streams, "zipped.bplist17"), zipped.Bytes())

	rendered := t.TempDir()
	dec := &decodeCommand{Input: streams, Output: rendered, Format: "json", MaxDepth: plist17.DefaultMaxDepth}
	require.NoError(t, dec.Execute(nil))
	for _, name := range []string{"doc.json", "zipped.json"} {
		out, err := os.ReadFile(filepath.Join(rendered, name))
		require.NoError(t, err)
		require.JSONEq(t, `{"name": "demo", "list": [1, 2.5, null]}`, string(out))
	}

	writeFile(t, filepath.Join(streams, "broken.bplist17"), []byte("bplist17\xA0"))
	require.Error(t, dec.Execute(nil))
}
