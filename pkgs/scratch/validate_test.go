package scratch

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAssembly() *Assembly {
	return &Assembly{
		Variables: []string{"main/i", "$panic$msg"},
		Lists:     []string{"console", "main/xs"},
		Stmts: []Statement{
			ClearList("console"),
			SetVar("main/i", Int(0)),
			RepeatUntil(Not(Less(Var("main/i"), Length("main/xs"))),
				If(Or(Less(Var("main/i"), Int(0)), Greater(Var("main/i"), Length("main/xs"))),
					SetVar("$panic$msg", Join(Str("panic at 3:5: "), Str("index out of bounds"))),
					Call("$panic"),
				),
				PushList("console", Item("main/xs", Add(Var("main/i"), Int(1)))),
				SetVar("main/i", Add(Var("main/i"), Int(1))),
			),
			Ask(Str("name?")),
			PushList("console", Join(Str("hi "), Answer())),
			PushList("console", Value(Equal(StrLength(Answer()), Int(0)))),
			PushList("console", List("main/xs")),
		},
		Procedures: []Procedure{{
			Name: "$panic",
			Body: []Statement{PushList("console", Var("$panic$msg")), StopAll()},
		}},
	}
}

func TestAssembledProjectValidates(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	p, err := Assemble(sampleAssembly(), WithConsole("console"))
	require.NoError(t, err)
	assert.NoError(t, v.Validate(p))

	empty, err := Assemble(&Assembly{})
	require.NoError(t, err)
	assert.NoError(t, v.Validate(empty))
}

func TestValidatorRejectsBrokenDocuments(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name   string
		breakP func(p *Project)
	}{
		{"empty opcode", func(p *Project) { p.Stage().Blocks["stmt_0"].Opcode = "" }},
		{"bad input shadow", func(p *Project) {
			p.Stage().Blocks["stmt_1"].Inputs["VALUE"] = []any{9, []any{7, 0}}
		}},
		{"short field", func(p *Project) { p.Stage().Blocks["stmt_0"].Fields["LIST"] = []any{"console"} }},
		{"top level hat without position", func(p *Project) { p.Stage().Blocks[StartBlockID].X = nil }},
		{"meta semver", func(p *Project) { p.Meta.Semver = "banana" }},
		{"variable without value", func(p *Project) { p.Stage().Variables["main/i"] = []any{"main/i"} }},
		{"not a stage", func(p *Project) { p.Stage().IsStage = false }},
		{"monitor mode", func(p *Project) { p.Monitors[0].Mode = "huge" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Assemble(sampleAssembly(), WithConsole("console"))
			require.NoError(t, err)
			tt.breakP(p)

			err = v.Validate(p)
			require.Error(t, err)
			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "got %T: %v", err, err)
			assert.NotEmpty(t, schemaErr.Violations)
			assert.Contains(t, err.Error(), "invalid project document")
		})
	}
}

func TestValidateJSONRejectsMalformedInput(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.ErrorContains(t, v.ValidateJSON([]byte("{")), "project decode failed")

	data, err := json.Marshal(map[string]any{"targets": []any{}})
	require.NoError(t, err)
	assert.Error(t, v.ValidateJSON(data))
}
