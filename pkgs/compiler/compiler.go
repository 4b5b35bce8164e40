// Package compiler drives the whole pipeline: parse, check, lower, assemble
// and validate. Each stage fails fast; the first error stops the build.
package compiler

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aledsdavies/scrapile/pkgs/lower"
	"github.com/aledsdavies/scrapile/pkgs/parser"
	"github.com/aledsdavies/scrapile/pkgs/sb3"
	"github.com/aledsdavies/scrapile/pkgs/scratch"
	"github.com/aledsdavies/scrapile/pkgs/typed"
)

// CompileOpt represents a compiler configuration option
type CompileOpt func(*Config)

// TelemetryMode controls telemetry collection
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryTiming                      // Stage timings and output counts
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff   DebugLevel = iota // No debug info (default)
	DebugPaths                   // Stage boundaries plus parser method tracing
)

// Config holds compiler configuration
type Config struct {
	meta        scratch.Meta
	console     string
	hideConsole bool
	skipSchema  bool
	telemetry   TelemetryMode
	debug       DebugLevel
}

// WithMeta sets the project metadata written into project.json
func WithMeta(meta scratch.Meta) CompileOpt {
	return func(c *Config) {
		c.meta = meta
	}
}

// WithConsole renames the list println writes to
func WithConsole(list string) CompileOpt {
	return func(c *Config) {
		c.console = list
	}
}

// WithHiddenConsole keeps the console list but hides its stage monitor
func WithHiddenConsole() CompileOpt {
	return func(c *Config) {
		c.hideConsole = true
	}
}

// WithoutSchemaCheck skips validating the project document against the
// embedded schema
func WithoutSchemaCheck() CompileOpt {
	return func(c *Config) {
		c.skipSchema = true
	}
}

// WithTelemetryTiming enables stage timings
func WithTelemetryTiming() CompileOpt {
	return func(c *Config) {
		c.telemetry = TelemetryTiming
	}
}

// WithDebugPaths enables debug path tracing (development only)
func WithDebugPaths() CompileOpt {
	return func(c *Config) {
		c.debug = DebugPaths
	}
}

// DebugEvent holds debug tracing information (development only)
type DebugEvent struct {
	Timestamp time.Time
	Stage     string // "parse", "check", "lower", "assemble", "validate"
	Event     string // "enter", "exit", or a parser event such as "enter_block"
	Context   string
}

// Telemetry holds build statistics
type Telemetry struct {
	TokenCount     int
	BlockCount     int
	VariableCount  int
	ListCount      int
	ProcedureCount int
	ParseTime      time.Duration
	CheckTime      time.Duration
	LowerTime      time.Duration
	AssembleTime   time.Duration
	ValidateTime   time.Duration
	TotalTime      time.Duration
}

// Result is the outcome of a successful build
type Result struct {
	Program     *typed.Program
	Assembly    *scratch.Assembly
	Project     *scratch.Project
	Telemetry   *Telemetry   // nil unless telemetry is enabled
	DebugEvents []DebugEvent // nil unless debug is enabled
}

var validator = sync.OnceValues(scratch.NewValidator)

func newConfig(opts []CompileOpt) *Config {
	config := &Config{meta: scratch.DefaultMeta(), console: lower.DefaultConsole}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// run tracks one build: it times the stages and records debug events
type run struct {
	config    *Config
	telemetry *Telemetry
	events    []DebugEvent
	start     time.Time
}

func newRun(config *Config) *run {
	r := &run{config: config}
	if config.telemetry >= TelemetryTiming {
		r.telemetry = &Telemetry{}
		r.start = time.Now()
	}
	if config.debug > DebugOff {
		r.events = make([]DebugEvent, 0, 16)
	}
	return r
}

func (r *run) record(stage, event, context string) {
	if r.config.debug > DebugOff {
		r.events = append(r.events, DebugEvent{Timestamp: time.Now(), Stage: stage, Event: event, Context: context})
	}
}

// stage runs fn as the named stage and stores its duration in *elapsed
func (r *run) stage(name string, elapsed func(*Telemetry) *time.Duration, fn func() error) error {
	r.record(name, "enter", "")
	var begin time.Time
	if r.telemetry != nil {
		begin = time.Now()
	}
	err := fn()
	if r.telemetry != nil {
		*elapsed(r.telemetry) = time.Since(begin)
	}
	if err != nil {
		r.record(name, "exit", err.Error())
		return err
	}
	r.record(name, "exit", "ok")
	return nil
}

func (r *run) finish(res *Result) *Result {
	if r.telemetry != nil {
		r.telemetry.TotalTime = time.Since(r.start)
		res.Telemetry = r.telemetry
	}
	res.DebugEvents = r.events
	return res
}

// front parses, checks and lowers source
func (r *run) front(source []byte) (*typed.Program, *scratch.Assembly, error) {
	var parsed *parser.Result
	err := r.stage("parse", func(t *Telemetry) *time.Duration { return &t.ParseTime }, func() error {
		var popts []parser.ParserOpt
		if r.config.debug >= DebugPaths {
			popts = append(popts, parser.WithDebugPaths())
		}
		var err error
		parsed, err = parser.Parse(source, popts...)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	for _, ev := range parsed.DebugEvents {
		r.events = append(r.events, DebugEvent{
			Timestamp: ev.Timestamp,
			Stage:     "parse",
			Event:     ev.Event,
			Context:   fmt.Sprintf("token %d: %s", ev.TokenPos, ev.Context),
		})
	}
	if r.telemetry != nil {
		r.telemetry.TokenCount = len(parsed.Tokens)
	}

	var prog *typed.Program
	err = r.stage("check", func(t *Telemetry) *time.Duration { return &t.CheckTime }, func() error {
		var err error
		prog, err = typed.Check(parsed.Program)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	var asm *scratch.Assembly
	_ = r.stage("lower", func(t *Telemetry) *time.Duration { return &t.LowerTime }, func() error {
		asm = lower.Lower(prog, lower.WithSource(string(source)), lower.WithConsole(r.config.console))
		return nil
	})
	if r.telemetry != nil {
		r.telemetry.VariableCount = len(asm.Variables)
		r.telemetry.ListCount = len(asm.Lists)
		r.telemetry.ProcedureCount = len(asm.Procedures)
	}
	return prog, asm, nil
}

// back assembles asm into a project document and validates it
func (r *run) back(asm *scratch.Assembly) (*scratch.Project, error) {
	aopts := []scratch.AssembleOpt{
		scratch.WithMeta(r.config.meta),
		scratch.WithConsole(r.config.console),
	}
	if r.config.hideConsole {
		aopts = append(aopts, scratch.WithHiddenConsole())
	}

	var project *scratch.Project
	err := r.stage("assemble", func(t *Telemetry) *time.Duration { return &t.AssembleTime }, func() error {
		var err error
		project, err = scratch.Assemble(asm, aopts...)
		return err
	})
	if err != nil {
		return nil, err
	}
	if r.telemetry != nil {
		for _, target := range project.Targets {
			r.telemetry.BlockCount += len(target.Blocks)
		}
	}

	if r.config.skipSchema {
		return project, nil
	}
	err = r.stage("validate", func(t *Telemetry) *time.Duration { return &t.ValidateTime }, func() error {
		v, err := validator()
		if err != nil {
			return fmt.Errorf("load project schema: %w", err)
		}
		return v.Validate(project)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// Compile turns source into a validated project document. Syntax and type
// errors come back unwrapped as *parser.Error and *typed.Error.
func Compile(source []byte, opts ...CompileOpt) (*Result, error) {
	r := newRun(newConfig(opts))
	prog, asm, err := r.front(source)
	if err != nil {
		return nil, err
	}
	project, err := r.back(asm)
	if err != nil {
		return nil, err
	}
	return r.finish(&Result{Program: prog, Assembly: asm, Project: project}), nil
}

// Lower stops after lowering and returns the Scratch IR
func Lower(source []byte, opts ...CompileOpt) (*Result, error) {
	r := newRun(newConfig(opts))
	prog, asm, err := r.front(source)
	if err != nil {
		return nil, err
	}
	return r.finish(&Result{Program: prog, Assembly: asm}), nil
}

// Assemble turns previously lowered IR into a validated project document
func Assemble(asm *scratch.Assembly, opts ...CompileOpt) (*Result, error) {
	r := newRun(newConfig(opts))
	if r.telemetry != nil {
		r.telemetry.VariableCount = len(asm.Variables)
		r.telemetry.ListCount = len(asm.Lists)
		r.telemetry.ProcedureCount = len(asm.Procedures)
	}
	project, err := r.back(asm)
	if err != nil {
		return nil, err
	}
	return r.finish(&Result{Assembly: asm, Project: project}), nil
}

// BuildFile compiles the source file at in and writes the .sb3 archive to
// out. It returns the build result and the archive's project hash.
func BuildFile(in, out string, opts ...CompileOpt) (*Result, [32]byte, error) {
	source, err := os.ReadFile(in)
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("read %s: %w", in, err)
	}
	res, err := Compile(source, opts...)
	if err != nil {
		return nil, [32]byte{}, err
	}
	hash, err := sb3.WriteFile(out, res.Project)
	if err != nil {
		return nil, [32]byte{}, err
	}
	return res, hash, nil
}
