package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/scrapile/pkgs/sb3"
	"github.com/aledsdavies/scrapile/pkgs/scratch"
)

const program = `
fn square(n: num) -> num { n * n }
main { println!(square(4)); }
`

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeSource(t *testing.T, src string) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "prog.scp")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return dir, path
}

func readProject(t *testing.T, path string) *scratch.Project {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	project, _, err := sb3.ReadBytes(data)
	require.NoError(t, err)
	return project
}

func TestBuildWritesArchive(t *testing.T) {
	dir, in := writeSource(t, program)
	out := filepath.Join(dir, "prog.sb3")

	res := runCLI(t, "", in, out)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Empty(t, res.stderr)

	project := readProject(t, out)
	assert.Equal(t, "scrapile/dev", project.Meta.Agent)
	assert.Equal(t, scratch.DefaultMeta().Semver, project.Meta.Semver)
}

func TestBuildSubcommandAndFlags(t *testing.T) {
	dir, in := writeSource(t, program)
	out := filepath.Join(dir, "prog.sb3")

	res := runCLI(t, "", "build", "--hide-console", "--console", "log", "--vm-version", "1.2.3", in, out)
	require.Equal(t, 0, res.code, res.stderr)

	project := readProject(t, out)
	assert.Equal(t, "1.2.3", project.Meta.VM)
	require.Len(t, project.Monitors, 1)
	assert.False(t, project.Monitors[0].Visible)
	assert.Contains(t, project.Stage().Lists, "log")
}

func TestBuildFromStdin(t *testing.T) {
	out := filepath.Join(t.TempDir(), "stdin.sb3")
	res := runCLI(t, program, "-", out)
	require.Equal(t, 0, res.code, res.stderr)
	readProject(t, out)
}

func TestDiagnosticsAreRendered(t *testing.T) {
	dir, in := writeSource(t, "main {\n    let x = 1;\n    mut x = 2;\n}\n")
	out := filepath.Join(dir, "prog.sb3")

	res := runCLI(t, "", "--no-color", in, out)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "error:")
	assert.Contains(t, res.stderr, in+":3:5")
	assert.NotContains(t, res.stderr, "\x1b[")
	assert.NotContains(t, res.stderr, "Error:")

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "no archive on failure")
}

func TestMissingInput(t *testing.T) {
	dir := t.TempDir()
	res := runCLI(t, "", filepath.Join(dir, "nope.scp"), filepath.Join(dir, "out.sb3"))
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error: error reading file")
}

func TestWrongArgumentCount(t *testing.T) {
	res := runCLI(t, "", "only-one")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error:")
}

func TestInvalidSemverFlag(t *testing.T) {
	dir, in := writeSource(t, program)
	res := runCLI(t, "", "--semver", "2.0.0", in, filepath.Join(dir, "out.sb3"))
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "only 3.x projects are produced")
}

func TestIRText(t *testing.T) {
	_, in := writeSource(t, program)
	res := runCLI(t, "", "ir", "--text", in)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "clear console")
	assert.Contains(t, res.stdout, "call fn:square")
	assert.Contains(t, res.stdout, "proc $panic {")
}

func TestIRThenAssemble(t *testing.T) {
	dir, in := writeSource(t, program)
	ir := filepath.Join(dir, "prog.ir")
	staged := filepath.Join(dir, "staged.sb3")
	direct := filepath.Join(dir, "direct.sb3")

	require.Equal(t, 0, runCLI(t, "", "ir", in, ir).code)
	res := runCLI(t, "", "assemble", ir, staged)
	require.Equal(t, 0, res.code, res.stderr)
	require.Equal(t, 0, runCLI(t, "", in, direct).code)

	a, err := os.ReadFile(staged)
	require.NoError(t, err)
	b, err := os.ReadFile(direct)
	require.NoError(t, err)
	assert.Equal(t, b, a, "staged and direct builds are byte-identical")
}

func TestAssembleRejectsForeignInput(t *testing.T) {
	dir, in := writeSource(t, program)
	res := runCLI(t, "", "assemble", in, filepath.Join(dir, "out.sb3"))
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "error reading "+in)
}

func TestInspect(t *testing.T) {
	dir, in := writeSource(t, program)
	out := filepath.Join(dir, "prog.sb3")
	require.Equal(t, 0, runCLI(t, "", in, out).code)

	res := runCLI(t, "", "inspect", out)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "project:")
	assert.Contains(t, res.stdout, "monitors:  1")
}

func TestTelemetryAndDebugGoToStderr(t *testing.T) {
	dir, in := writeSource(t, program)
	res := runCLI(t, "", "--telemetry", "--debug", in, filepath.Join(dir, "out.sb3"))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "Build summary:")
	assert.Contains(t, res.stderr, "[parse] enter")
	assert.Contains(t, res.stderr, "project blake2b")
}

func TestVersion(t *testing.T) {
	res := runCLI(t, "", "version")
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "scrapile dev")
}
