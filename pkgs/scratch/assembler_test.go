package scratch

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assemble(t *testing.T, a *Assembly, opts ...AssembleOpt) map[string]*Block {
	t.Helper()
	p, err := Assemble(a, opts...)
	require.NoError(t, err)
	return p.Stage().Blocks
}

func str(s string) *string { return &s }

func TestAssembleEmptyProgram(t *testing.T) {
	p, err := Assemble(&Assembly{})
	require.NoError(t, err)

	require.Len(t, p.Targets, 1)
	stage := p.Stage()
	assert.True(t, stage.IsStage)
	assert.Equal(t, "Stage", stage.Name)
	assert.Equal(t, DefaultMeta(), p.Meta)
	require.Len(t, stage.Costumes, 1)
	assert.Equal(t, BackdropMD5Ext, stage.Costumes[0].MD5Ext)
	assert.Empty(t, p.Monitors)

	require.Len(t, stage.Blocks, 1)
	start := stage.Blocks[StartBlockID]
	require.NotNil(t, start)
	assert.Equal(t, "event_whenflagclicked", start.Opcode)
	assert.Nil(t, start.Next)
	assert.Nil(t, start.Parent)
	assert.True(t, start.TopLevel)
	assert.Equal(t, 0, *start.X)
}

func TestStatementsAreLinkedInOrder(t *testing.T) {
	blocks := assemble(t, &Assembly{
		Variables: []string{"x"},
		Lists:     []string{"l"},
		Stmts: []Statement{
			SetVar("x", Int(1)),
			SetVar("x", Int(2)),
			PushList("l", Var("x")),
		},
	})

	assert.Equal(t, str("stmt_0"), blocks[StartBlockID].Next)
	for i, want := range []struct {
		opcode       string
		parent, next *string
	}{
		{"data_setvariableto", str(StartBlockID), str("stmt_1")},
		{"data_setvariableto", str("stmt_0"), str("stmt_2")},
		{"data_addtolist", str("stmt_1"), nil},
	} {
		b := blocks[[]string{"stmt_0", "stmt_1", "stmt_2"}[i]]
		require.NotNil(t, b)
		assert.Equal(t, want.opcode, b.Opcode)
		assert.Equal(t, want.parent, b.Parent)
		assert.Equal(t, want.next, b.Next)
		assert.False(t, b.TopLevel)
		assert.False(t, b.Shadow)
	}
}

func TestSubstackIsInputNotNext(t *testing.T) {
	blocks := assemble(t, &Assembly{
		Variables: []string{"x"},
		Stmts: []Statement{
			If(Equal(Var("x"), Int(1)), SetVar("x", Int(2))),
			SetVar("x", Int(3)),
		},
	})

	cond := blocks["stmt_0"]
	assert.Equal(t, "control_if", cond.Opcode)
	assert.Equal(t, str("stmt_1"), cond.Next)
	assert.Equal(t, []any{2, "expr_0"}, cond.Inputs["CONDITION"])
	assert.Equal(t, []any{2, "stmt_2"}, cond.Inputs["SUBSTACK"])

	body := blocks["stmt_2"]
	assert.Equal(t, str("stmt_0"), body.Parent)
	assert.Nil(t, body.Next)

	eq := blocks["expr_0"]
	assert.Equal(t, "operator_equals", eq.Opcode)
	assert.Equal(t, str("stmt_0"), eq.Parent)
}

func TestIfElseAndRepeatUntil(t *testing.T) {
	blocks := assemble(t, &Assembly{
		Variables: []string{"x"},
		Stmts: []Statement{
			IfElse(Less(Var("x"), Int(0)), []Statement{SetVar("x", Int(0))}, []Statement{SetVar("x", Int(1))}),
			RepeatUntil(Not(Greater(Var("x"), Int(10)))),
		},
	})

	ifElse := blocks["stmt_0"]
	assert.Equal(t, "control_if_else", ifElse.Opcode)
	assert.Equal(t, []any{2, "stmt_2"}, ifElse.Inputs["SUBSTACK"])
	assert.Equal(t, []any{2, "stmt_3"}, ifElse.Inputs["SUBSTACK2"])

	loop := blocks["stmt_1"]
	assert.Equal(t, "control_repeat_until", loop.Opcode)
	assert.NotContains(t, loop.Inputs, "SUBSTACK", "empty body has no substack")
	assert.Equal(t, []any{2, "expr_1"}, loop.Inputs["CONDITION"])
	assert.Equal(t, "operator_not", blocks["expr_1"].Opcode)
	assert.Equal(t, []any{2, "expr_2"}, blocks["expr_1"].Inputs["OPERAND"])
	assert.Equal(t, "operator_gt", blocks["expr_2"].Opcode)
}

func TestExpressionIdsAreDepthFirst(t *testing.T) {
	blocks := assemble(t, &Assembly{
		Variables: []string{"x"},
		Lists:     []string{"l"},
		Stmts: []Statement{
			SetVar("x", Add(Mul(Int(2), Var("x")), Length("l"))),
		},
	})

	add := blocks["expr_0"]
	assert.Equal(t, "operator_add", add.Opcode)
	assert.Equal(t, str("stmt_0"), add.Parent)
	assert.Equal(t, []any{3, "expr_1", []any{4, ""}}, add.Inputs["NUM1"])
	assert.Equal(t, []any{3, "expr_2", []any{4, ""}}, add.Inputs["NUM2"])

	mul := blocks["expr_1"]
	assert.Equal(t, "operator_multiply", mul.Opcode)
	assert.Equal(t, str("expr_0"), mul.Parent)
	assert.Equal(t, []any{1, []any{7, int64(2)}}, mul.Inputs["NUM1"])
	assert.Equal(t, []any{3, []any{12, "x", "x"}, []any{4, ""}}, mul.Inputs["NUM2"])

	length := blocks["expr_2"]
	assert.Equal(t, "data_lengthoflist", length.Opcode)
	assert.Equal(t, []any{"l", "l"}, length.Fields["LIST"])
}

func TestStatementShapes(t *testing.T) {
	tests := []struct {
		name   string
		stmt   Statement
		opcode string
		inputs map[string][]any
		fields map[string][]any
	}{
		{
			name:   "set variable",
			stmt:   SetVar("v", Str("hi")),
			opcode: "data_setvariableto",
			inputs: map[string][]any{"VALUE": {1, []any{10, "hi"}}},
			fields: map[string][]any{"VARIABLE": {"v", "v"}},
		},
		{
			name:   "add to list",
			stmt:   PushList("l", Num(1.5)),
			opcode: "data_addtolist",
			inputs: map[string][]any{"ITEM": {1, []any{4, 1.5}}},
			fields: map[string][]any{"LIST": {"l", "l"}},
		},
		{
			name:   "insert at list",
			stmt:   InsertList("l", Int(1), Str("a")),
			opcode: "data_insertatlist",
			inputs: map[string][]any{"ITEM": {1, []any{10, "a"}}, "INDEX": {1, []any{7, int64(1)}}},
			fields: map[string][]any{"LIST": {"l", "l"}},
		},
		{
			name:   "replace item",
			stmt:   ReplaceList("l", Int(2), Var("v")),
			opcode: "data_replaceitemoflist",
			inputs: map[string][]any{"INDEX": {1, []any{7, int64(2)}}, "ITEM": {3, []any{12, "v", "v"}, []any{10, ""}}},
			fields: map[string][]any{"LIST": {"l", "l"}},
		},
		{
			name:   "delete item",
			stmt:   RemoveList("l", Int(1)),
			opcode: "data_deleteoflist",
			inputs: map[string][]any{"INDEX": {1, []any{7, int64(1)}}},
			fields: map[string][]any{"LIST": {"l", "l"}},
		},
		{
			name:   "delete all",
			stmt:   ClearList("l"),
			opcode: "data_deletealloflist",
			inputs: map[string][]any{},
			fields: map[string][]any{"LIST": {"l", "l"}},
		},
		{
			name:   "ask",
			stmt:   Ask(Str("name?")),
			opcode: "sensing_askandwait",
			inputs: map[string][]any{"QUESTION": {1, []any{10, "name?"}}},
			fields: map[string][]any{},
		},
		{
			name:   "show list",
			stmt:   ShowList("l"),
			opcode: "data_showlist",
			inputs: map[string][]any{},
			fields: map[string][]any{"LIST": {"l", "l"}},
		},
		{
			name:   "hide variable",
			stmt:   HideVar("v"),
			opcode: "data_hidevariable",
			inputs: map[string][]any{},
			fields: map[string][]any{"VARIABLE": {"v", "v"}},
		},
		{
			name:   "stop all",
			stmt:   StopAll(),
			opcode: "control_stop",
			inputs: map[string][]any{},
			fields: map[string][]any{"STOP_OPTION": {"all", nil}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := assemble(t, &Assembly{
				Variables: []string{"v"},
				Lists:     []string{"l"},
				Stmts:     []Statement{tt.stmt},
			})
			b := blocks["stmt_0"]
			require.NotNil(t, b)
			assert.Equal(t, tt.opcode, b.Opcode)
			if diff := cmp.Diff(tt.inputs, b.Inputs); diff != "" {
				t.Errorf("inputs mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.fields, b.Fields); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReporterShapes(t *testing.T) {
	tests := []struct {
		expr   Expr
		opcode string
		slots  []string
	}{
		{Item("l", Int(1)), "data_itemoflist", []string{"INDEX"}},
		{Sub(Int(1), Int(2)), "operator_subtract", []string{"NUM1", "NUM2"}},
		{Div(Int(1), Int(2)), "operator_divide", []string{"NUM1", "NUM2"}},
		{Mod(Int(1), Int(2)), "operator_mod", []string{"NUM1", "NUM2"}},
		{Join(Str("a"), Str("b")), "operator_join", []string{"STRING1", "STRING2"}},
		{StrLength(Str("a")), "operator_length", []string{"STRING"}},
		{LetterOf(Int(1), Str("a")), "operator_letter_of", []string{"LETTER", "STRING"}},
		{Answer(), "sensing_answer", nil},
		{Timer(), "sensing_timer", nil},
		{Value(Or(Equal(Int(1), Int(1)), Less(Int(1), Int(2)))), "operator_or", []string{"OPERAND1", "OPERAND2"}},
	}

	for _, tt := range tests {
		t.Run(tt.opcode, func(t *testing.T) {
			blocks := assemble(t, &Assembly{
				Variables: []string{"v"},
				Lists:     []string{"l"},
				Stmts:     []Statement{SetVar("v", tt.expr)},
			})
			assert.Equal(t, []any{3, "expr_0", []any{10, ""}}, blocks["stmt_0"].Inputs["VALUE"])
			b := blocks["expr_0"]
			require.NotNil(t, b)
			assert.Equal(t, tt.opcode, b.Opcode)
			assert.Len(t, b.Inputs, len(tt.slots))
			for _, slot := range tt.slots {
				assert.Contains(t, b.Inputs, slot)
			}
		})
	}
}

func TestListContentsReporter(t *testing.T) {
	blocks := assemble(t, &Assembly{
		Lists: []string{"l", "console"},
		Stmts: []Statement{PushList("console", List("l"))},
	})
	assert.Equal(t, []any{3, []any{13, "l", "l"}, []any{10, ""}}, blocks["stmt_0"].Inputs["ITEM"])
	assert.Len(t, blocks, 2)
}

func TestProcedures(t *testing.T) {
	p, err := Assemble(&Assembly{
		Variables: []string{"$panic$msg"},
		Lists:     []string{"console"},
		Stmts:     []Statement{Call("$panic")},
		Procedures: []Procedure{{
			Name: "$panic",
			Body: []Statement{PushList("console", Var("$panic$msg")), StopAll()},
		}},
	})
	require.NoError(t, err)
	blocks := p.Stage().Blocks

	call := blocks["stmt_0"]
	assert.Equal(t, "procedures_call", call.Opcode)
	require.NotNil(t, call.Mutation)
	assert.Equal(t, "$panic", call.Mutation.ProcCode)
	assert.Equal(t, "[]", call.Mutation.ArgumentIDs)
	assert.Equal(t, "true", call.Mutation.Warp)

	def := blocks["stmt_1"]
	assert.Equal(t, "procedures_definition", def.Opcode)
	assert.True(t, def.TopLevel)
	assert.Nil(t, def.Parent)
	assert.Equal(t, 400, *def.X)
	assert.Equal(t, []any{1, "expr_0"}, def.Inputs["custom_block"])
	assert.Equal(t, str("stmt_2"), def.Next)

	proto := blocks["expr_0"]
	assert.Equal(t, "procedures_prototype", proto.Opcode)
	assert.True(t, proto.Shadow)
	assert.Equal(t, str("stmt_1"), proto.Parent)
	assert.Equal(t, "$panic", proto.Mutation.ProcCode)
	assert.Equal(t, "[]", proto.Mutation.ArgumentNames)

	assert.Equal(t, "data_addtolist", blocks["stmt_2"].Opcode)
	stop := blocks["stmt_3"]
	assert.Equal(t, "control_stop", stop.Opcode)
	assert.Equal(t, "false", stop.Mutation.HasNext)
}

func TestConsoleMonitor(t *testing.T) {
	a := &Assembly{Lists: []string{"console"}}

	p, err := Assemble(a, WithConsole("console"))
	require.NoError(t, err)
	require.Len(t, p.Monitors, 1)
	m := p.Monitors[0]
	assert.Equal(t, "console", m.ID)
	assert.Equal(t, "list", m.Mode)
	assert.Equal(t, "data_listcontents", m.Opcode)
	assert.Equal(t, map[string]string{"List": "console"}, m.Params)
	assert.Equal(t, 480, m.Width)
	assert.Equal(t, 360, m.Height)
	assert.True(t, m.Visible)

	p, err = Assemble(a, WithConsole("console"), WithHiddenConsole())
	require.NoError(t, err)
	assert.False(t, p.Monitors[0].Visible)
}

func TestUndeclaredNamesAreRejected(t *testing.T) {
	tests := map[string]struct {
		a    *Assembly
		opts []AssembleOpt
	}{
		"variable":  {a: &Assembly{Stmts: []Statement{SetVar("x", Int(1))}}},
		"list":      {a: &Assembly{Stmts: []Statement{ClearList("l")}}},
		"read":      {a: &Assembly{Lists: []string{"l"}, Stmts: []Statement{PushList("l", Var("y"))}}},
		"procedure": {a: &Assembly{Stmts: []Statement{Call("nowhere")}}},
		"console":   {a: &Assembly{}, opts: []AssembleOpt{WithConsole("console")}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Assemble(tt.a, tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUndeclared), "got %v", err)
		})
	}
}

func TestMalformedStatementsAreRejected(t *testing.T) {
	_, err := Assemble(&Assembly{Stmts: []Statement{{Kind: StmtIf}}})
	assert.ErrorContains(t, err, "has no condition")

	_, err = Assemble(&Assembly{
		Variables: []string{"x"},
		Stmts:     []Statement{SetVar("x", Expr{Kind: ExprAdd, Args: []Expr{Int(1)}})},
	})
	assert.ErrorContains(t, err, "takes 2 operands")

	_, err = Assemble(&Assembly{Procedures: []Procedure{{Name: "p"}, {Name: "p"}}})
	assert.ErrorContains(t, err, "defined twice")
}

func TestMetaValidation(t *testing.T) {
	_, err := Assemble(&Assembly{}, WithMeta(Meta{Semver: "3.1.0", VM: "2.3.4", Agent: "scrapile"}))
	require.NoError(t, err)

	for _, meta := range []Meta{
		{Semver: "2.0.0", VM: "2.3.4"},
		{Semver: "three", VM: "2.3.4"},
		{Semver: "3.0.0", VM: "latest"},
	} {
		_, err := Assemble(&Assembly{}, WithMeta(meta))
		assert.Error(t, err, "meta %+v", meta)
	}
}

func TestDocumentJSONShape(t *testing.T) {
	p, err := Assemble(&Assembly{
		Variables: []string{"x"},
		Lists:     []string{"l"},
		Stmts:     []Statement{SetVar("x", Int(1))},
	})
	require.NoError(t, err)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	stage := doc["targets"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"x", ""}, stage["variables"].(map[string]any)["x"])
	assert.Equal(t, []any{"l", []any{}}, stage["lists"].(map[string]any)["l"])
	assert.Nil(t, stage["textToSpeechLanguage"])
	assert.Contains(t, stage, "textToSpeechLanguage")

	blocks := stage["blocks"].(map[string]any)
	start := blocks[StartBlockID].(map[string]any)
	assert.Contains(t, start, "parent")
	assert.Nil(t, start["parent"])

	set := blocks["stmt_0"].(map[string]any)
	assert.NotContains(t, set, "x", "only top-level blocks carry coordinates")
	assert.NotContains(t, set, "mutation")

	meta := doc["meta"].(map[string]any)
	assert.Equal(t, "3.0.0", meta["semver"])
	assert.NotContains(t, meta, "agent")
}
