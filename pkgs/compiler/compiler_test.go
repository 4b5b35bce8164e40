package compiler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/scrapile/pkgs/compiler"
	"github.com/aledsdavies/scrapile/pkgs/diag"
	"github.com/aledsdavies/scrapile/pkgs/lower"
	"github.com/aledsdavies/scrapile/pkgs/parser"
	"github.com/aledsdavies/scrapile/pkgs/sb3"
	"github.com/aledsdavies/scrapile/pkgs/scratch"
	"github.com/aledsdavies/scrapile/pkgs/typed"
)

const hello = `
fn greet(name: str) -> str { "hello " <> name }
main {
    let xs = [1, 2, 3];
    println!(greet("world"));
    println!(list_get!(xs, 1));
}`

func TestCompileProducesValidProject(t *testing.T) {
	res, err := compiler.Compile([]byte(hello))
	require.NoError(t, err)

	stage := res.Project.Stage()
	require.NotNil(t, stage)
	assert.Contains(t, stage.Blocks, scratch.StartBlockID)
	assert.Contains(t, stage.Lists, lower.DefaultConsole)
	assert.Contains(t, stage.Lists, "main/xs")

	require.Len(t, res.Project.Monitors, 1)
	assert.True(t, res.Project.Monitors[0].Visible)
	assert.Equal(t, scratch.DefaultMeta(), res.Project.Meta)

	assert.Nil(t, res.Telemetry)
	assert.Nil(t, res.DebugEvents)
}

func TestConsoleOptions(t *testing.T) {
	res, err := compiler.Compile([]byte(hello), compiler.WithConsole("out"), compiler.WithHiddenConsole())
	require.NoError(t, err)

	require.Len(t, res.Project.Monitors, 1)
	assert.False(t, res.Project.Monitors[0].Visible)
	assert.Equal(t, map[string]string{"List": "out"}, res.Project.Monitors[0].Params)
	assert.Contains(t, res.Assembly.Lists, "out")
}

func TestSyntaxErrorsAreReportable(t *testing.T) {
	_, err := compiler.Compile([]byte("main { let = 1; }"))
	var perr *parser.Error
	require.ErrorAs(t, err, &perr)

	var rep diag.Reportable
	require.True(t, errors.As(err, &rep))
	assert.NotEmpty(t, rep.Report().Message)
}

func TestTypeErrorsAreReportable(t *testing.T) {
	src := "main { let x = 1; mut x = 2; }"
	_, err := compiler.Compile([]byte(src))
	var terr *typed.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, typed.AssignToImmutable, terr.Kind)

	var rep diag.Reportable
	require.True(t, errors.As(err, &rep))
	out := diag.String("main.scp", src, rep.Report())
	assert.Contains(t, out, "main.scp:1:")
}

func TestInvalidMetaIsRejected(t *testing.T) {
	_, err := compiler.Compile([]byte(hello), compiler.WithMeta(scratch.Meta{Semver: "2.0.0", VM: "0.2.0"}))
	assert.ErrorContains(t, err, "only 3.x projects are produced")
}

func TestTelemetry(t *testing.T) {
	res, err := compiler.Compile([]byte(hello), compiler.WithTelemetryTiming())
	require.NoError(t, err)
	require.NotNil(t, res.Telemetry)

	tel := res.Telemetry
	assert.Positive(t, tel.TokenCount)
	assert.Positive(t, tel.BlockCount)
	assert.Equal(t, len(res.Assembly.Variables), tel.VariableCount)
	assert.Equal(t, len(res.Assembly.Lists), tel.ListCount)
	assert.Equal(t, 2, tel.ProcedureCount) // $panic and greet
	assert.GreaterOrEqual(t, tel.TotalTime, tel.ParseTime)
}

func TestDebugEventsFollowTheStages(t *testing.T) {
	res, err := compiler.Compile([]byte(hello), compiler.WithDebugPaths())
	require.NoError(t, err)
	require.NotEmpty(t, res.DebugEvents)

	var entered []string
	for _, ev := range res.DebugEvents {
		if ev.Event == "enter" {
			entered = append(entered, ev.Stage)
		}
	}
	assert.Equal(t, []string{"parse", "check", "lower", "assemble", "validate"}, entered)
}

func TestSchemaCheckCanBeSkipped(t *testing.T) {
	res, err := compiler.Compile([]byte(hello), compiler.WithoutSchemaCheck(), compiler.WithDebugPaths())
	require.NoError(t, err)
	for _, ev := range res.DebugEvents {
		assert.NotEqual(t, "validate", ev.Stage)
	}
}

func TestLowerThenAssembleMatchesCompile(t *testing.T) {
	direct, err := compiler.Compile([]byte(hello))
	require.NoError(t, err)

	lowered, err := compiler.Lower([]byte(hello))
	require.NoError(t, err)
	assert.Nil(t, lowered.Project)

	var buf bytes.Buffer
	require.NoError(t, scratch.WriteAssembly(&buf, lowered.Assembly))
	asm, err := scratch.ReadAssembly(&buf)
	require.NoError(t, err)

	staged, err := compiler.Assemble(asm)
	require.NoError(t, err)

	want, err := json.Marshal(direct.Project)
	require.NoError(t, err)
	got, err := json.Marshal(staged.Project)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestBuildFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hello.scp")
	out := filepath.Join(dir, "hello.sb3")
	require.NoError(t, os.WriteFile(in, []byte(hello), 0o644))

	res, hash, err := compiler.BuildFile(in, out)
	require.NoError(t, err)
	require.NotNil(t, res.Project)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	_, got, err := sb3.ReadBytes(data)
	require.NoError(t, err)
	assert.Equal(t, hash, got)
}

func TestBuildFileReportsMissingInput(t *testing.T) {
	in := filepath.Join(t.TempDir(), "nope.scp")
	_, _, err := compiler.BuildFile(in, in+".sb3")
	assert.ErrorContains(t, err, in)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
