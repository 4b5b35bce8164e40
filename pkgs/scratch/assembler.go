package scratch

import (
	"errors"
	"fmt"
)

// StartBlockID is the id of the green-flag hat that runs the program
const StartBlockID = "startflag"

// ErrUndeclared is wrapped by errors about names missing from an Assembly's
// declarations.
var ErrUndeclared = errors.New("not declared")

// Primitive codes used inside inputs
const (
	primNumber     = 4
	primPosNumber  = 5
	primPosInteger = 6
	primInteger    = 7
	primText       = 10
	primVariable   = 12
	primList       = 13
)

// Input shadow kinds
const (
	inputShadow   = 1 // inline literal
	inputNoShadow = 2 // boolean slot or substack
	inputObscured = 3 // reporter covering a shadow
)

const (
	procedureGapX  = 400
	procedureWarp  = "true"
	mutationTag    = "mutation"
	emptyArguments = "[]"
)

// AssembleOpt configures Assemble
type AssembleOpt func(*AssembleConfig)

// AssembleConfig holds assembler configuration
type AssembleConfig struct {
	meta        Meta
	console     string
	hideConsole bool
}

// WithMeta sets the project metadata
func WithMeta(meta Meta) AssembleOpt {
	return func(c *AssembleConfig) {
		c.meta = meta
	}
}

// WithConsole adds a list monitor for the named list
func WithConsole(list string) AssembleOpt {
	return func(c *AssembleConfig) {
		c.console = list
	}
}

// WithHiddenConsole keeps the console monitor but starts it hidden
func WithHiddenConsole() AssembleOpt {
	return func(c *AssembleConfig) {
		c.hideConsole = true
	}
}

// Assemble lays a out as a Scratch block graph on the stage and returns the
// project document.
func Assemble(a *Assembly, opts ...AssembleOpt) (*Project, error) {
	config := &AssembleConfig{meta: DefaultMeta()}
	for _, opt := range opts {
		opt(config)
	}
	if err := config.meta.Validate(); err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	p := newProject(config.meta)
	stage := p.Stage()
	as := &assembler{
		blocks: stage.Blocks,
		vars:   make(map[string]bool, len(a.Variables)),
		lists:  make(map[string]bool, len(a.Lists)),
		procs:  make(map[string]bool, len(a.Procedures)),
	}

	for _, v := range a.Variables {
		stage.Variables[v] = []any{v, ""}
		as.vars[v] = true
	}
	for _, l := range a.Lists {
		stage.Lists[l] = []any{l, []any{}}
		as.lists[l] = true
	}
	for _, proc := range a.Procedures {
		if as.procs[proc.Name] {
			return nil, fmt.Errorf("assemble: procedure %q defined twice", proc.Name)
		}
		as.procs[proc.Name] = true
	}

	start := &Block{
		Opcode:   "event_whenflagclicked",
		Inputs:   map[string][]any{},
		Fields:   map[string][]any{},
		TopLevel: true,
		X:        intPtr(0),
		Y:        intPtr(0),
	}
	as.blocks[StartBlockID] = start
	start.Next = as.stack(a.Stmts, StartBlockID)

	for i, proc := range a.Procedures {
		as.procedure(i, proc)
	}
	if as.err != nil {
		return nil, as.err
	}

	if config.console != "" {
		if !as.lists[config.console] {
			return nil, fmt.Errorf("assemble: console list %q: %w", config.console, ErrUndeclared)
		}
		p.Monitors = append(p.Monitors, listMonitor(config.console, !config.hideConsole))
	}
	return p, nil
}

type assembler struct {
	blocks map[string]*Block
	vars   map[string]bool
	lists  map[string]bool
	procs  map[string]bool
	stmts  int
	exprs  int
	err    error
}

func (as *assembler) fail(format string, args ...any) {
	if as.err == nil {
		as.err = fmt.Errorf("assemble: "+format, args...)
	}
}

func (as *assembler) stmtID() string {
	id := fmt.Sprintf("stmt_%d", as.stmts)
	as.stmts++
	return id
}

func (as *assembler) exprID() string {
	id := fmt.Sprintf("expr_%d", as.exprs)
	as.exprs++
	return id
}

func newBlock(opcode, parent string) *Block {
	return &Block{
		Opcode: opcode,
		Parent: &parent,
		Inputs: map[string][]any{},
		Fields: map[string][]any{},
	}
}

// stack assembles a sequence under parent and returns its first id. Every
// statement of the sequence is numbered before any nested body.
func (as *assembler) stack(stmts []Statement, parent string) *string {
	if len(stmts) == 0 {
		return nil
	}
	ids := make([]string, len(stmts))
	for i := range stmts {
		ids[i] = as.stmtID()
	}

	prev := parent
	for i, s := range stmts {
		b := as.statement(s, ids[i], prev)
		if i+1 < len(ids) {
			b.Next = &ids[i+1]
		}
		as.blocks[ids[i]] = b
		prev = ids[i]
	}
	return &ids[0]
}

var stmtOpcodes = [...]string{
	StmtSetVar:      "data_setvariableto",
	StmtShowVar:     "data_showvariable",
	StmtHideVar:     "data_hidevariable",
	StmtPushList:    "data_addtolist",
	StmtInsertList:  "data_insertatlist",
	StmtReplaceList: "data_replaceitemoflist",
	StmtRemoveList:  "data_deleteoflist",
	StmtClearList:   "data_deletealloflist",
	StmtShowList:    "data_showlist",
	StmtHideList:    "data_hidelist",
	StmtIf:          "control_if",
	StmtIfElse:      "control_if_else",
	StmtRepeatUntil: "control_repeat_until",
	StmtCall:        "procedures_call",
	StmtAsk:         "sensing_askandwait",
	StmtStopAll:     "control_stop",
}

func (as *assembler) statement(s Statement, id, parent string) *Block {
	if int(s.Kind) >= len(stmtOpcodes) {
		as.fail("unknown statement kind %d", s.Kind)
		return newBlock("", parent)
	}
	b := newBlock(stmtOpcodes[s.Kind], parent)

	switch s.Kind {
	case StmtSetVar:
		b.Inputs["VALUE"] = as.input(s.Value, id, primText)
		b.Fields["VARIABLE"] = as.variable(s.Name)
	case StmtShowVar, StmtHideVar:
		b.Fields["VARIABLE"] = as.variable(s.Name)
	case StmtPushList:
		b.Inputs["ITEM"] = as.input(s.Value, id, primText)
		b.Fields["LIST"] = as.list(s.Name)
	case StmtInsertList:
		b.Inputs["ITEM"] = as.input(s.Value, id, primText)
		b.Inputs["INDEX"] = as.input(s.Index, id, primInteger)
		b.Fields["LIST"] = as.list(s.Name)
	case StmtReplaceList:
		b.Inputs["INDEX"] = as.input(s.Index, id, primInteger)
		b.Inputs["ITEM"] = as.input(s.Value, id, primText)
		b.Fields["LIST"] = as.list(s.Name)
	case StmtRemoveList:
		b.Inputs["INDEX"] = as.input(s.Index, id, primInteger)
		b.Fields["LIST"] = as.list(s.Name)
	case StmtClearList, StmtShowList, StmtHideList:
		b.Fields["LIST"] = as.list(s.Name)
	case StmtIf, StmtIfElse, StmtRepeatUntil:
		if s.Cond == nil {
			as.fail("%s statement %s has no condition", s.Kind, id)
			return b
		}
		b.Inputs["CONDITION"] = []any{inputNoShadow, as.condition(*s.Cond, id)}
		if first := as.stack(s.Body, id); first != nil {
			b.Inputs["SUBSTACK"] = []any{inputNoShadow, *first}
		}
		if s.Kind == StmtIfElse {
			if first := as.stack(s.Else, id); first != nil {
				b.Inputs["SUBSTACK2"] = []any{inputNoShadow, *first}
			}
		}
	case StmtCall:
		if !as.procs[s.Name] {
			as.fail("procedure %q: %w", s.Name, ErrUndeclared)
		}
		b.Mutation = &Mutation{
			TagName:     mutationTag,
			Children:    []any{},
			ProcCode:    s.Name,
			ArgumentIDs: emptyArguments,
			Warp:        procedureWarp,
		}
	case StmtAsk:
		b.Inputs["QUESTION"] = as.input(s.Value, id, primText)
	case StmtStopAll:
		b.Fields["STOP_OPTION"] = []any{"all", nil}
		b.Mutation = &Mutation{TagName: mutationTag, Children: []any{}, HasNext: "false"}
	}
	return b
}

// procedure emits a custom block definition with its prototype. The body
// hangs off the definition hat.
func (as *assembler) procedure(i int, p Procedure) {
	def := as.stmtID()
	proto := as.exprID()

	hat := &Block{
		Opcode:   "procedures_definition",
		Inputs:   map[string][]any{"custom_block": {inputShadow, proto}},
		Fields:   map[string][]any{},
		TopLevel: true,
		X:        intPtr(procedureGapX * (i + 1)),
		Y:        intPtr(0),
	}
	as.blocks[def] = hat

	prototype := newBlock("procedures_prototype", def)
	prototype.Shadow = true
	prototype.Mutation = &Mutation{
		TagName:          mutationTag,
		Children:         []any{},
		ProcCode:         p.Name,
		ArgumentIDs:      emptyArguments,
		ArgumentNames:    emptyArguments,
		ArgumentDefaults: emptyArguments,
		Warp:             procedureWarp,
	}
	as.blocks[proto] = prototype

	hat.Next = as.stack(p.Body, def)
}

// input encodes e for a value slot whose empty shadow is of kind shadow
func (as *assembler) input(e Expr, parent string, shadow int) []any {
	empty := []any{shadow, ""}
	switch {
	case e.IsLiteral():
		return []any{inputShadow, literal(e)}
	case e.Kind == ExprVariable:
		return []any{inputObscured, append([]any{primVariable}, as.variable(e.Name)...), empty}
	case e.Kind == ExprList:
		return []any{inputObscured, append([]any{primList}, as.list(e.Name)...), empty}
	default:
		return []any{inputObscured, as.reporter(e, parent), empty}
	}
}

func literal(e Expr) []any {
	switch e.Kind {
	case ExprString:
		return []any{primText, e.Str}
	case ExprNumber:
		return []any{primNumber, e.Num}
	case ExprPosNumber:
		return []any{primPosNumber, e.Num}
	case ExprPosInteger:
		return []any{primPosInteger, int64(e.Num)}
	default:
		return []any{primInteger, int64(e.Num)}
	}
}

func (as *assembler) variable(name string) []any {
	if !as.vars[name] {
		as.fail("variable %q: %w", name, ErrUndeclared)
	}
	return []any{name, name}
}

func (as *assembler) list(name string) []any {
	if !as.lists[name] {
		as.fail("list %q: %w", name, ErrUndeclared)
	}
	return []any{name, name}
}

var reporterOpcodes = map[ExprKind]string{
	ExprListElement: "data_itemoflist",
	ExprListLength:  "data_lengthoflist",
	ExprAdd:         "operator_add",
	ExprSub:         "operator_subtract",
	ExprMul:         "operator_multiply",
	ExprDiv:         "operator_divide",
	ExprMod:         "operator_mod",
	ExprJoin:        "operator_join",
	ExprStrLength:   "operator_length",
	ExprLetterOf:    "operator_letter_of",
	ExprAnswer:      "sensing_answer",
	ExprTimer:       "sensing_timer",
}

var reporterArity = map[ExprKind]int{
	ExprListElement: 1,
	ExprAdd:         2,
	ExprSub:         2,
	ExprMul:         2,
	ExprDiv:         2,
	ExprMod:         2,
	ExprJoin:        2,
	ExprStrLength:   1,
	ExprLetterOf:    2,
}

// reporter emits the block computing e and returns its id. The id is taken
// before the operands so ids follow a depth-first pre-order.
func (as *assembler) reporter(e Expr, parent string) string {
	if e.Kind == ExprCondition {
		if e.Cond == nil {
			as.fail("condition value has no condition")
			return ""
		}
		return as.condition(*e.Cond, parent)
	}

	opcode, ok := reporterOpcodes[e.Kind]
	if !ok {
		as.fail("unknown expression kind %d", e.Kind)
		return ""
	}
	if want := reporterArity[e.Kind]; len(e.Args) != want {
		as.fail("%s expression takes %d operands, got %d", e.Kind, want, len(e.Args))
		return ""
	}

	id := as.exprID()
	b := newBlock(opcode, parent)
	as.blocks[id] = b

	switch e.Kind {
	case ExprListElement:
		b.Inputs["INDEX"] = as.input(e.Args[0], id, primInteger)
		b.Fields["LIST"] = as.list(e.Name)
	case ExprListLength:
		b.Fields["LIST"] = as.list(e.Name)
	case ExprAdd, ExprSub, ExprMul, ExprDiv, ExprMod:
		b.Inputs["NUM1"] = as.input(e.Args[0], id, primNumber)
		b.Inputs["NUM2"] = as.input(e.Args[1], id, primNumber)
	case ExprJoin:
		b.Inputs["STRING1"] = as.input(e.Args[0], id, primText)
		b.Inputs["STRING2"] = as.input(e.Args[1], id, primText)
	case ExprStrLength:
		b.Inputs["STRING"] = as.input(e.Args[0], id, primText)
	case ExprLetterOf:
		b.Inputs["LETTER"] = as.input(e.Args[0], id, primPosInteger)
		b.Inputs["STRING"] = as.input(e.Args[1], id, primText)
	}
	return id
}

var conditionOpcodes = [...]string{
	CondEqual:   "operator_equals",
	CondGreater: "operator_gt",
	CondLess:    "operator_lt",
	CondAnd:     "operator_and",
	CondOr:      "operator_or",
	CondNot:     "operator_not",
}

// condition emits a boolean block and returns its id
func (as *assembler) condition(c Condition, parent string) string {
	if int(c.Kind) >= len(conditionOpcodes) {
		as.fail("unknown condition kind %d", c.Kind)
		return ""
	}
	id := as.exprID()
	b := newBlock(conditionOpcodes[c.Kind], parent)
	as.blocks[id] = b

	operand := func(slot string, sub *Condition) {
		if sub == nil {
			as.fail("%s condition %s is missing an operand", c.Kind, id)
			return
		}
		b.Inputs[slot] = []any{inputNoShadow, as.condition(*sub, id)}
	}

	switch c.Kind {
	case CondEqual, CondGreater, CondLess:
		b.Inputs["OPERAND1"] = as.input(c.Lhs, id, primText)
		b.Inputs["OPERAND2"] = as.input(c.Rhs, id, primText)
	case CondAnd, CondOr:
		operand("OPERAND1", c.Left)
		operand("OPERAND2", c.Right)
	case CondNot:
		operand("OPERAND", c.Left)
	}
	return id
}

func intPtr(n int) *int {
	return &n
}
