package lower

import (
	"github.com/aledsdavies/scrapile/pkgs/scratch"
	"github.com/aledsdavies/scrapile/pkgs/typed"
)

// callGraph records which functions each function calls directly
type callGraph struct {
	edges map[string][]string
	reach map[[2]string]bool
}

func newCallGraph(prog *typed.Program) *callGraph {
	g := &callGraph{edges: make(map[string][]string), reach: make(map[[2]string]bool)}
	for _, fn := range prog.Funcs {
		seen := map[string]bool{}
		walkBlock(fn.Body, func(e typed.Expr) {
			if e.Kind == typed.ExprCall && !seen[e.Name] {
				seen[e.Name] = true
				g.edges[fn.Name] = append(g.edges[fn.Name], e.Name)
			}
		})
	}
	return g
}

// reaches reports whether calling from can lead back into to
func (g *callGraph) reaches(from, to string) bool {
	key := [2]string{from, to}
	if r, ok := g.reach[key]; ok {
		return r
	}
	visited := map[string]bool{}
	stack := []string{from}
	found := false
	for len(stack) > 0 {
		fn := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if fn == to {
			found = true
			break
		}
		if visited[fn] {
			continue
		}
		visited[fn] = true
		stack = append(stack, g.edges[fn]...)
	}
	g.reach[key] = found
	return found
}

func walkBlock(b *typed.Block, visit func(typed.Expr)) {
	for _, s := range b.Stmts {
		walkStmt(s, visit)
	}
	if b.Tail != nil {
		walkStmt(b.Tail, visit)
	}
}

func walkStmt(s typed.Stmt, visit func(typed.Expr)) {
	switch s := s.(type) {
	case *typed.ExprStmt:
		walkExpr(s.Expr, visit)
	case *typed.VarDeclare:
		walkExpr(s.Value, visit)
	case *typed.VarMutate:
		walkExpr(s.Value, visit)
	case *typed.If:
		walkExpr(s.Cond, visit)
		walkStmt(s.Body, visit)
		if s.Else != nil {
			walkStmt(s.Else, visit)
		}
	case *typed.While:
		walkExpr(s.Cond, visit)
		walkStmt(s.Body, visit)
	}
}

func walkExpr(e typed.Expr, visit func(typed.Expr)) {
	visit(e)
	for _, a := range e.Args {
		walkExpr(a, visit)
	}
	if e.Block != nil {
		walkBlock(e.Block, visit)
	}
}

// call lowers a user function call. Arguments are stored into the callee's
// parameter globals, the custom block runs, and the result is copied out of
// the return slot. If the callee can re-enter the function being lowered,
// that function's frame and the live temporaries are saved on $stack
// around the call.
func (l *lowerer) call(e typed.Expr) scratch.Expr {
	fn := l.funcs[e.Name]
	reenters := l.owner != "" && l.calls.reaches(e.Name, l.owner)

	mark := len(l.held)
	args := l.operands(e.Args)
	if e.Name == l.owner {
		// the arguments may read the parameters about to be overwritten
		for i := range args {
			args[i] = l.hold(args[i])
		}
	}
	l.held = l.held[:mark]

	var frame []string
	if reenters {
		frame = append(append(frame, l.frames[l.owner]...), l.held...)
		l.save(frame)
	}

	for i, p := range fn.Params {
		if p.Type.IsList() {
			if args[i].Name != p.Name {
				l.copyList(p.Name, args[i].Name)
			}
			continue
		}
		l.emit(scratch.SetVar(p.Name, args[i]))
	}
	l.emit(scratch.Call(ProcName(fn.Name)))

	var result scratch.Expr
	switch {
	case fn.Return.Kind == typed.KindNil:
		result = scratch.Str(NilText)
	case fn.Return.IsList():
		tmp := l.tempList()
		l.copyList(tmp, returnSlot(fn.Name))
		result = scratch.List(tmp)
	default:
		tmp := l.tempVar()
		l.emit(scratch.SetVar(tmp, scratch.Var(returnSlot(fn.Name))))
		result = scratch.Var(tmp)
	}

	if reenters {
		l.restore(frame)
	}
	return result
}

// function lowers fn's body into its custom block
func (l *lowerer) function(fn *typed.Func) scratch.Procedure {
	l.owner = fn.Name
	l.out = nil
	l.held = nil
	defer func() { l.owner = "" }()

	slot := returnSlot(fn.Name)
	switch {
	case fn.Return.Kind == typed.KindNil:
		l.block(fn.Body)
	case fn.Return.IsList():
		body := typed.Expr{Kind: typed.ExprBlock, Type: fn.Return, Block: fn.Body}
		if src := l.listOf(body); src != slot {
			l.copyList(slot, src)
		}
	default:
		l.emit(scratch.SetVar(slot, l.block(fn.Body)))
	}
	return scratch.Procedure{Name: ProcName(fn.Name), Body: l.out}
}

func stackTop() scratch.Expr {
	return scratch.Item(StackList, scratch.Length(StackList))
}

func stackPop() scratch.Statement {
	return scratch.RemoveList(StackList, scratch.Length(StackList))
}

// save pushes every name onto $stack. A list is pushed item by item
// followed by its length.
func (l *lowerer) save(names []string) {
	l.declareList(StackList)
	for _, name := range names {
		if !l.lists[name] {
			l.emit(scratch.PushList(StackList, scratch.Var(name)))
			continue
		}
		l.declareVar(stackIndex)
		i := scratch.Var(stackIndex)
		l.emit(
			scratch.SetVar(stackIndex, scratch.Int(1)),
			scratch.RepeatUntil(scratch.Greater(i, scratch.Length(name)),
				scratch.PushList(StackList, scratch.Item(name, i)),
				scratch.SetVar(stackIndex, scratch.Add(i, scratch.Int(1))),
			),
			scratch.PushList(StackList, scratch.Length(name)),
		)
	}
}

// restore pops what save pushed, in reverse
func (l *lowerer) restore(names []string) {
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		if !l.lists[name] {
			l.emit(scratch.SetVar(name, stackTop()), stackPop())
			continue
		}
		l.declareVar(stackCount)
		n := scratch.Var(stackCount)
		l.emit(
			scratch.SetVar(stackCount, stackTop()),
			stackPop(),
			scratch.ClearList(name),
			scratch.RepeatUntil(scratch.Less(n, scratch.Int(1)),
				scratch.InsertList(name, scratch.Int(1), stackTop()),
				stackPop(),
				scratch.SetVar(stackCount, scratch.Sub(n, scratch.Int(1))),
			),
		)
	}
}
