package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/scrapile/pkgs/compiler"
	"github.com/aledsdavies/scrapile/pkgs/diag"
	"github.com/aledsdavies/scrapile/pkgs/sb3"
	"github.com/aledsdavies/scrapile/pkgs/scratch"
)

// Build-time variables - can be set via ldflags
var (
	Version   string = "dev"
	BuildTime string = "unknown"
	GitCommit string = "unknown"
)

// errReported marks an error whose diagnostic has already been printed
var errReported = errors.New("diagnostic reported")

func main() {
	// Exit only after everything has been flushed; os.Exit skips defers
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdin, stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// app holds the flag values and streams shared by every command
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	debug       bool
	telemetry   bool
	noColor     bool
	hideConsole bool
	noSchema    bool
	console     string
	semver      string
	vm          string

	text bool
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	defaults := scratch.DefaultMeta()

	rootCmd := &cobra.Command{
		Use:   "scrapile <input> <output>",
		Short: "Compile programs into Scratch 3 projects",
		Long: `scrapile compiles a source file into a Scratch 3 .sb3 project.
The program runs on the stage when the green flag is clicked and prints to the
console list. Use "-" as the input to read the program from stdin.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.build(args[0], args[1])
		},
	}

	buildCmd := &cobra.Command{
		Use:   "build <input> <output>",
		Short: "Compile a program into an .sb3 archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.build(args[0], args[1])
		},
	}

	irCmd := &cobra.Command{
		Use:   "ir <input> [output]",
		Short: "Lower a program and dump its Scratch IR",
		Long: `Lower a program and write the Scratch IR as CBOR to output, or print it
as text with --text. The CBOR form can be packaged later with "assemble".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := ""
			if len(args) == 2 {
				out = args[1]
			}
			return a.ir(args[0], out)
		},
	}
	irCmd.Flags().BoolVar(&a.text, "text", false, "Print the IR as text instead of writing CBOR")

	assembleCmd := &cobra.Command{
		Use:   "assemble <ir> <output>",
		Short: "Package a CBOR IR dump into an .sb3 archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.assemble(args[0], args[1])
		},
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect <archive>",
		Short: "Validate an .sb3 archive and summarize its stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspect(args[0])
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "scrapile %s\n", Version)
			fmt.Fprintf(a.stdout, "Built: %s\n", BuildTime)
			fmt.Fprintf(a.stdout, "Commit: %s\n", GitCommit)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&a.debug, "debug", false, "Enable debug output")
	flags.BoolVar(&a.telemetry, "telemetry", false, "Print stage timings and output counts")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&a.hideConsole, "hide-console", false, "Hide the console list monitor on the stage")
	flags.BoolVar(&a.noSchema, "no-schema", false, "Skip validating project.json against the schema")
	flags.StringVar(&a.console, "console", "console", "Name of the list println writes to")
	flags.StringVar(&a.semver, "semver", defaults.Semver, "Project format version written to project.json")
	flags.StringVar(&a.vm, "vm-version", defaults.VM, "Scratch VM version written to project.json")

	rootCmd.AddCommand(buildCmd, irCmd, assembleCmd, inspectCmd, versionCmd)
	return rootCmd
}

func (a *app) options() []compiler.CompileOpt {
	opts := []compiler.CompileOpt{
		compiler.WithMeta(scratch.Meta{Semver: a.semver, VM: a.vm, Agent: "scrapile/" + Version}),
		compiler.WithConsole(a.console),
	}
	if a.hideConsole {
		opts = append(opts, compiler.WithHiddenConsole())
	}
	if a.noSchema {
		opts = append(opts, compiler.WithoutSchemaCheck())
	}
	if a.telemetry {
		opts = append(opts, compiler.WithTelemetryTiming())
	}
	if a.debug {
		opts = append(opts, compiler.WithDebugPaths())
	}
	return opts
}

// readSource reads the program at path, or stdin for "-"
func (a *app) readSource(path string) (string, []byte, error) {
	if path == "-" {
		src, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", nil, fmt.Errorf("error reading stdin: %w", err)
		}
		return "<stdin>", src, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	return path, src, nil
}

// report renders source diagnostics; other errors pass through
func (a *app) report(name string, src []byte, err error) error {
	var rep diag.Reportable
	if !errors.As(err, &rep) {
		return err
	}
	if rerr := diag.Render(a.stderr, name, string(src), rep.Report(), diag.WithColor(!a.noColor)); rerr != nil {
		return rerr
	}
	return errReported
}

func (a *app) build(in, out string) error {
	name, src, err := a.readSource(in)
	if err != nil {
		return err
	}
	res, err := compiler.Compile(src, a.options()...)
	if err != nil {
		return a.report(name, src, err)
	}
	hash, err := sb3.WriteFile(out, res.Project)
	if err != nil {
		return err
	}
	a.summarize(res)
	if a.debug {
		fmt.Fprintf(a.stderr, "wrote %s (project blake2b %x)\n", out, hash)
	}
	return nil
}

func (a *app) ir(in, out string) error {
	name, src, err := a.readSource(in)
	if err != nil {
		return err
	}
	res, err := compiler.Lower(src, a.options()...)
	if err != nil {
		return a.report(name, src, err)
	}
	a.summarize(res)

	if a.text || out == "" {
		_, err := io.WriteString(a.stdout, scratch.Format(res.Assembly))
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", out, err)
	}
	if err := scratch.WriteAssembly(f, res.Assembly); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", out, err)
	}
	return f.Close()
}

func (a *app) assemble(in, out string) error {
	f, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("error opening file %s: %w", in, err)
	}
	defer func() { _ = f.Close() }()

	asm, err := scratch.ReadAssembly(f)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", in, err)
	}
	res, err := compiler.Assemble(asm, a.options()...)
	if err != nil {
		return err
	}
	if _, err := sb3.WriteFile(out, res.Project); err != nil {
		return err
	}
	a.summarize(res)
	return nil
}

func (a *app) inspect(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading file %s: %w", path, err)
	}
	project, hash, err := sb3.ReadBytes(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	validator, err := scratch.NewValidator()
	if err != nil {
		return err
	}
	if err := validator.Validate(project); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	stage := project.Stage()
	fmt.Fprintf(a.stdout, "project:   %x\n", hash)
	fmt.Fprintf(a.stdout, "semver:    %s (vm %s)\n", project.Meta.Semver, project.Meta.VM)
	fmt.Fprintf(a.stdout, "blocks:    %d\n", len(stage.Blocks))
	fmt.Fprintf(a.stdout, "variables: %d\n", len(stage.Variables))
	fmt.Fprintf(a.stdout, "lists:     %d\n", len(stage.Lists))
	fmt.Fprintf(a.stdout, "monitors:  %d\n", len(project.Monitors))
	return nil
}

// summarize prints telemetry and debug events to stderr when enabled
func (a *app) summarize(res *compiler.Result) {
	if t := res.Telemetry; t != nil {
		fmt.Fprintf(a.stderr, "\nBuild summary:\n")
		fmt.Fprintf(a.stderr, "  Tokens: %d\n", t.TokenCount)
		fmt.Fprintf(a.stderr, "  Blocks: %d\n", t.BlockCount)
		fmt.Fprintf(a.stderr, "  Variables: %d, lists: %d, procedures: %d\n", t.VariableCount, t.ListCount, t.ProcedureCount)
		fmt.Fprintf(a.stderr, "  Parse %v, check %v, lower %v, assemble %v, validate %v\n",
			t.ParseTime, t.CheckTime, t.LowerTime, t.AssembleTime, t.ValidateTime)
		fmt.Fprintf(a.stderr, "  Total: %v\n", t.TotalTime)
	}
	for _, ev := range res.DebugEvents {
		fmt.Fprintf(a.stderr, "[%s] %s %s\n", ev.Stage, ev.Event, ev.Context)
	}
}
