package scratch

import (
	"strconv"
	"strings"
)

// Format renders a as indented text, one statement per line
func Format(a *Assembly) string {
	var b strings.Builder
	if len(a.Variables) > 0 {
		b.WriteString("vars " + strings.Join(a.Variables, ", ") + "\n")
	}
	if len(a.Lists) > 0 {
		b.WriteString("lists " + strings.Join(a.Lists, ", ") + "\n")
	}
	formatStmts(&b, a.Stmts, 0)
	for _, p := range a.Procedures {
		b.WriteString("proc " + p.Name + " {\n")
		formatStmts(&b, p.Body, 1)
		b.WriteString("}\n")
	}
	return b.String()
}

// FormatStmts renders a statement sequence the way Format does
func FormatStmts(stmts []Statement) string {
	var b strings.Builder
	formatStmts(&b, stmts, 0)
	return b.String()
}

func formatStmts(b *strings.Builder, stmts []Statement, depth int) {
	for _, s := range stmts {
		formatStmt(b, s, depth)
	}
}

func formatStmt(b *strings.Builder, s Statement, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	switch s.Kind {
	case StmtSetVar:
		b.WriteString("set " + s.Name + " = " + s.Value.String())
	case StmtShowVar:
		b.WriteString("show var " + s.Name)
	case StmtHideVar:
		b.WriteString("hide var " + s.Name)
	case StmtPushList:
		b.WriteString("push " + s.Name + " <- " + s.Value.String())
	case StmtInsertList:
		b.WriteString("insert " + s.Name + "[" + s.Index.String() + "] <- " + s.Value.String())
	case StmtReplaceList:
		b.WriteString("replace " + s.Name + "[" + s.Index.String() + "] <- " + s.Value.String())
	case StmtRemoveList:
		b.WriteString("remove " + s.Name + "[" + s.Index.String() + "]")
	case StmtClearList:
		b.WriteString("clear " + s.Name)
	case StmtShowList:
		b.WriteString("show list " + s.Name)
	case StmtHideList:
		b.WriteString("hide list " + s.Name)
	case StmtIf, StmtIfElse, StmtRepeatUntil:
		head := "if "
		if s.Kind == StmtRepeatUntil {
			head = "repeat until "
		}
		b.WriteString(head + s.Cond.String() + " {\n")
		formatStmts(b, s.Body, depth+1)
		if s.Kind == StmtIfElse {
			b.WriteString(indent + "} else {\n")
			formatStmts(b, s.Else, depth+1)
		}
		b.WriteString(indent + "}")
	case StmtCall:
		b.WriteString("call " + s.Name)
	case StmtAsk:
		b.WriteString("ask " + s.Value.String())
	case StmtStopAll:
		b.WriteString("stop all")
	default:
		b.WriteString(s.Kind.String())
	}
	b.WriteByte('\n')
}

var binarySymbols = map[ExprKind]string{
	ExprAdd: "+",
	ExprSub: "-",
	ExprMul: "*",
	ExprDiv: "/",
	ExprMod: "%",
}

func (e Expr) String() string {
	switch e.Kind {
	case ExprString:
		return strconv.Quote(e.Str)
	case ExprNumber, ExprPosNumber, ExprPosInteger, ExprInteger:
		return strconv.FormatFloat(e.Num, 'g', -1, 64)
	case ExprVariable:
		return e.Name
	case ExprList:
		return "contents(" + e.Name + ")"
	case ExprListLength:
		return "len(" + e.Name + ")"
	case ExprAnswer:
		return "answer"
	case ExprTimer:
		return "timer"
	case ExprCondition:
		if e.Cond == nil {
			return "<nil condition>"
		}
		return e.Cond.String()
	}

	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	switch {
	case e.Kind == ExprListElement && len(args) == 1:
		return e.Name + "[" + args[0] + "]"
	case binarySymbols[e.Kind] != "" && len(args) == 2:
		return "(" + args[0] + " " + binarySymbols[e.Kind] + " " + args[1] + ")"
	case e.Kind == ExprJoin:
		return "join(" + strings.Join(args, ", ") + ")"
	case e.Kind == ExprStrLength:
		return "strlen(" + strings.Join(args, ", ") + ")"
	case e.Kind == ExprLetterOf:
		return "letter(" + strings.Join(args, ", ") + ")"
	}
	return e.Kind.String() + "(" + strings.Join(args, ", ") + ")"
}

var comparisonSymbols = [...]string{
	CondEqual:   "=",
	CondGreater: ">",
	CondLess:    "<",
}

func (c *Condition) String() string {
	if c == nil {
		return "<nil condition>"
	}
	switch c.Kind {
	case CondEqual, CondGreater, CondLess:
		return "(" + c.Lhs.String() + " " + comparisonSymbols[c.Kind] + " " + c.Rhs.String() + ")"
	case CondAnd:
		return "(" + c.Left.String() + " and " + c.Right.String() + ")"
	case CondOr:
		return "(" + c.Left.String() + " or " + c.Right.String() + ")"
	case CondNot:
		return "not " + c.Left.String()
	}
	return c.Kind.String()
}
