// Package historyfilter translates AIP-160 filter expressions over completed
// interview sessions into SQL conditions.
package historyfilter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Declarations returns the fields a history filter may reference.
func Declarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("role_label", filtering.TypeString),
		filtering.DeclareIdent("overall_emotion", filtering.TypeString),
		filtering.DeclareIdent("overall_posture", filtering.TypeString),
		filtering.DeclareIdent("started_at", filtering.TypeTimestamp),
		filtering.DeclareIdent("ended_at", filtering.TypeTimestamp),
	)
}

// Condition is a SQL WHERE fragment with positional parameters.
type Condition struct {
	Clause string
	Params []any
}

// Empty reports whether the condition filters nothing.
func (c Condition) Empty() bool {
	return c.Clause == ""
}

// columns maps filter fields to interviews columns.
var columns = map[string]string{
	"role_label":      "role_label",
	"overall_emotion": "overall_emotion",
	"overall_posture": "overall_posture",
	"started_at":      "started_at",
	"ended_at":        "ended_at",
}

// timestampColumns are stored as unix milliseconds.
var timestampColumns = map[string]bool{
	"started_at": true,
	"ended_at":   true,
}

// Parse parses filter and returns its SQL condition. A blank filter yields
// an empty condition.
func Parse(filter string) (Condition, error) {
	if strings.TrimSpace(filter) == "" {
		return Condition{}, nil
	}
	decls, err := Declarations()
	if err != nil {
		return Condition{}, fmt.Errorf("create declarations: %w", err)
	}
	parsed, err := filtering.ParseFilterString(filter, decls)
	if err != nil {
		return Condition{}, fmt.Errorf("parse filter: %w", err)
	}
	return translateExpr(parsed.CheckedExpr.GetExpr())
}

func translateExpr(e *expr.Expr) (Condition, error) {
	if e == nil {
		return Condition{}, nil
	}
	call, ok := e.ExprKind.(*expr.Expr_CallExpr)
	if !ok {
		return Condition{}, fmt.Errorf("unsupported expression type: %T", e.ExprKind)
	}
	switch fn := call.CallExpr.Function; fn {
	case filtering.FunctionAnd, filtering.FunctionFuzzyAnd, "_&&_":
		return translateJunction(call.CallExpr.Args, "AND")
	case filtering.FunctionOr, "_||_":
		return translateJunction(call.CallExpr.Args, "OR")
	case filtering.FunctionNot, "!_":
		return translateNot(call.CallExpr.Args)
	case filtering.FunctionEquals, "_==_":
		return translateComparison(call.CallExpr.Args, "=")
	case filtering.FunctionNotEquals, "_!=_":
		return translateComparison(call.CallExpr.Args, "!=")
	case filtering.FunctionLessThan, "_<_":
		return translateComparison(call.CallExpr.Args, "<")
	case filtering.FunctionLessEquals, "_<=_":
		return translateComparison(call.CallExpr.Args, "<=")
	case filtering.FunctionGreaterThan, "_>_":
		return translateComparison(call.CallExpr.Args, ">")
	case filtering.FunctionGreaterEquals, "_>=_":
		return translateComparison(call.CallExpr.Args, ">=")
	default:
		return Condition{}, fmt.Errorf("unsupported function: %s", fn)
	}
}

func translateJunction(args []*expr.Expr, op string) (Condition, error) {
	if len(args) != 2 {
		return Condition{}, fmt.Errorf("%s requires 2 arguments", op)
	}
	left, err := translateExpr(args[0])
	if err != nil {
		return Condition{}, err
	}
	right, err := translateExpr(args[1])
	if err != nil {
		return Condition{}, err
	}
	return Condition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func translateNot(args []*expr.Expr) (Condition, error) {
	if len(args) != 1 {
		return Condition{}, fmt.Errorf("NOT requires 1 argument")
	}
	inner, err := translateExpr(args[0])
	if err != nil {
		return Condition{}, err
	}
	return Condition{
		Clause: fmt.Sprintf("(NOT %s)", inner.Clause),
		Params: inner.Params,
	}, nil
}

func translateComparison(args []*expr.Expr, op string) (Condition, error) {
	if len(args) != 2 {
		return Condition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	field, err := extractFieldName(args[0])
	if err != nil {
		return Condition{}, err
	}
	column, ok := columns[field]
	if !ok {
		return Condition{}, fmt.Errorf("unknown field: %s", field)
	}
	value, err := extractValue(args[1])
	if err != nil {
		return Condition{}, err
	}
	if timestampColumns[field] {
		switch v := value.(type) {
		case int64:
		case string:
			if value, err = parseTimestampMillis(v); err != nil {
				return Condition{}, err
			}
		default:
			return Condition{}, fmt.Errorf("%s must be compared with a timestamp", field)
		}
	}
	return Condition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}
	ident, ok := e.ExprKind.(*expr.Expr_IdentExpr)
	if !ok {
		return "", fmt.Errorf("expected identifier, got %T", e.ExprKind)
	}
	return ident.IdentExpr.GetName(), nil
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		if s, ok := kind.ConstExpr.ConstantKind.(*expr.Constant_StringValue); ok {
			return s.StringValue, nil
		}
		return nil, fmt.Errorf("unsupported constant type: %T", kind.ConstExpr.ConstantKind)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == filtering.FunctionTimestamp && len(kind.CallExpr.Args) == 1 {
			return extractTimestampMillis(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

// extractTimestampMillis parses an RFC 3339 literal into unix milliseconds.
func extractTimestampMillis(e *expr.Expr) (int64, error) {
	c, ok := e.GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
	s, ok := c.ConstExpr.GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a string")
	}
	return parseTimestampMillis(s.StringValue)
}

func parseTimestampMillis(value string) (int64, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp format: %s", value)
	}
	return t.UTC().UnixMilli(), nil
}
