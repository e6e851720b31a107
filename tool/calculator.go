package tool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

// BasicArithmetic is the character set accepted by a restricted calculator.
const BasicArithmetic = "0123456789+-*/() ."

var calculatorFunctions = map[string]govaluate.ExpressionFunction{
	"sqrt": func(args ...any) (any, error) {
		x, err := floatArgs(args, 1)
		if err != nil {
			return nil, err
		}
		if x[0] < 0 {
			return nil, errors.New("square root of a negative number")
		}
		return math.Sqrt(x[0]), nil
	},
	"pow": func(args ...any) (any, error) {
		x, err := floatArgs(args, 2)
		if err != nil {
			return nil, err
		}
		return math.Pow(x[0], x[1]), nil
	},
	"abs": func(args ...any) (any, error) {
		x, err := floatArgs(args, 1)
		if err != nil {
			return nil, err
		}
		return math.Abs(x[0]), nil
	},
}

var calculatorConstants = map[string]any{
	"pi": math.Pi,
	"e":  math.E,
}

func floatArgs(args []any, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d argument(s), got %d", n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		f, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("argument %d is not a number", i+1)
		}
		out[i] = f
	}
	return out, nil
}

// Calculator evaluates arithmetic expressions. Failures are reported in the
// returned text, never as an error.
type Calculator struct {
	// AllowedChars, when set, rejects expressions containing anything else.
	AllowedChars string
}

func (c *Calculator) Name() string { return "calculator" }

func (c *Calculator) Description() string {
	return "Useful for performing mathematical calculations. " +
		"Input should be a mathematical expression such as '(2 + 3) * 4' or 'sqrt(144)'."
}

func (c *Calculator) Call(_ context.Context, input string) (string, error) {
	return c.Evaluate(input), nil
}

// Evaluate returns "Result: <n>" or "Calculation error: <reason>".
func (c *Calculator) Evaluate(expression string) string {
	raw := trimExpression(expression)

	if c.AllowedChars != "" {
		for _, r := range raw {
			if !strings.ContainsRune(c.AllowedChars, r) {
				return "Error: Only basic arithmetic operations are supported"
			}
		}
	}

	expr, err := normalizeExpression(raw)
	if err != nil {
		return "Calculation error: " + err.Error()
	}
	v, err := evaluate(expr)
	if err != nil {
		return "Calculation error: " + err.Error()
	}
	return "Result: " + formatNumber(v)
}

func trimExpression(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "`\"'"))
}

var scientific = regexp.MustCompile(`(^|[^A-Za-z0-9_.])(\d+\.?\d*|\.\d+)[eE]([+-]?\d+)`)

// normalizeExpression maps the symbols people type onto govaluate syntax.
// Numbers in scientific notation are expanded and exponent chains become
// nested pow calls, so "^" binds tighter than unary minus and associates to
// the right.
func normalizeExpression(s string) (string, error) {
	s = strings.NewReplacer("×", "*", "÷", "/", "**", "^").Replace(s)
	s = scientific.ReplaceAllStringFunc(s, func(m string) string {
		sub := scientific.FindStringSubmatch(m)
		f, err := strconv.ParseFloat(sub[2]+"e"+sub[3], 64)
		if err != nil {
			return m
		}
		return sub[1] + strconv.FormatFloat(f, 'f', -1, 64)
	})
	for {
		i := strings.LastIndexByte(s, '^')
		if i < 0 {
			return s, nil
		}
		start, err := leftOperand(s, i)
		if err != nil {
			return "", err
		}
		end, err := rightOperand(s, i+1)
		if err != nil {
			return "", err
		}
		base := strings.TrimSpace(s[start:i])
		exp := strings.TrimSpace(s[i+1 : end])
		s = s[:start] + "pow(" + base + ", " + exp + ")" + s[end:]
	}
}

func isOperandByte(b byte) bool {
	return b == '.' || b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// leftOperand returns where the operand ending before s[op] starts. A
// leading sign is not part of it.
func leftOperand(s string, op int) (int, error) {
	i := op - 1
	for i >= 0 && s[i] == ' ' {
		i--
	}
	if i < 0 {
		return 0, errors.New("missing base for ^")
	}
	if s[i] == ')' {
		depth := 0
		for ; i >= 0; i-- {
			switch s[i] {
			case ')':
				depth++
			case '(':
				depth--
			}
			if depth == 0 {
				break
			}
		}
		if i < 0 {
			return 0, errors.New("unbalanced parentheses")
		}
		// function name before the parentheses
		for i > 0 && isOperandByte(s[i-1]) {
			i--
		}
		return i, nil
	}
	if !isOperandByte(s[i]) {
		return 0, errors.New("missing base for ^")
	}
	for i > 0 && isOperandByte(s[i-1]) {
		i--
	}
	return i, nil
}

// rightOperand returns the end of the signed operand starting at s[from].
func rightOperand(s string, from int) (int, error) {
	i := from
	for i < len(s) && (s[i] == ' ' || s[i] == '-' || s[i] == '+') {
		i++
	}
	for i < len(s) && isOperandByte(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '(' {
		depth := 0
		for ; i < len(s); i++ {
			switch s[i] {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth == 0 {
				return i + 1, nil
			}
		}
		return 0, errors.New("unbalanced parentheses")
	}
	if i == from || strings.TrimLeft(s[from:i], " +-") == "" {
		return 0, errors.New("missing exponent for ^")
	}
	return i, nil
}

func evaluate(expr string) (float64, error) {
	if expr == "" {
		return 0, errors.New("empty expression")
	}
	e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, calculatorFunctions)
	if err != nil {
		return 0, err
	}
	raw, err := e.Evaluate(calculatorConstants)
	if err != nil {
		return 0, err
	}
	v, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("expression does not produce a number: %v", raw)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errors.New("division by zero")
	}
	return v, nil
}

// formatNumber prints integral values without a fractional part.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
