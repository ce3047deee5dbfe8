package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleProgram = `
device 0 osd0
type 0 device
type 1 root
root r {
  id -1
  alg straw
  item osd0 weight 1.000
}
rule data {
  pool 0
  type replicated
  min_size 1
  max_size 10
  step take r
  step choose firstn 0 type device
  step emit
}
`

// resetFlags restores the package-level flag variables cobra would
// otherwise bind, so each test starts from a clean slate regardless of
// what an earlier test in this file left behind.
func resetFlags() {
	compileIn = ""
	decompileIn = ""
	outPath = ""
	clobber = false
	verbosity = 0
}

func TestRunRequiresExactlyOneOfCompileOrDecompile(t *testing.T) {
	resetFlags()
	require.Error(t, run(nil, nil), "neither -c nor -d given")

	resetFlags()
	compileIn = "in.txt"
	decompileIn = "in.bin"
	require.Error(t, run(nil, nil), "both -c and -d given")
}

func TestRunCompileDecompileRoundTrip(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "map.txt")
	binPath := filepath.Join(dir, "map.bin")
	require.NoError(t, os.WriteFile(srcPath, []byte(sampleProgram), 0o644))

	compileIn = srcPath
	outPath = binPath
	require.NoError(t, run(nil, nil))

	data, err := os.ReadFile(binPath)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	resetFlags()
	decodedPath := filepath.Join(dir, "map.decompiled.txt")
	decompileIn = binPath
	outPath = decodedPath
	require.NoError(t, run(nil, nil))

	text, err := os.ReadFile(decodedPath)
	require.NoError(t, err)
	require.Contains(t, string(text), "device 0 osd0")
}

func TestRunCompileReportsFileAndLineOnParseError(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(srcPath, []byte("device not-an-int osd0\n"), 0o644))

	compileIn = srcPath
	err := run(nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), srcPath+":1:")
}

func TestWriteOutputRespectsClobberGuard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	require.NoError(t, os.WriteFile(path, []byte("existing"), 0o644))

	err := writeOutput(path, []byte("new"), false)
	require.Error(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "existing", string(got))

	require.NoError(t, writeOutput(path, []byte("new"), true))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(got))
}
