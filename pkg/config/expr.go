package config

import (
	"errors"
	"math"
	"regexp"
	"sort"

	"github.com/expr-lang/expr"
)

// placeholderPattern matches ${NAME} parameter references inside
// expressions.
var placeholderPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// exprFunctions registers the fixed function set available to parameter
// expressions. ceil, floor, min, max and abs are expr built-ins and need
// no registration. log2 truncates to an integer, matching the usual
// address-width idiom log2(DEPTH).
func exprFunctions() []expr.Option {
	unary := func(name string, fn func(float64) any) expr.Option {
		return expr.Function(name, func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, NewExpressionError("%s expects exactly one argument", name)
			}
			f, ok := toFloat(params[0])
			if !ok {
				return nil, NewExpressionError("%s expects a numeric argument, got %v", name, params[0])
			}
			return fn(f), nil
		})
	}
	return []expr.Option{
		unary("log2", func(f float64) any { return int64(math.Log2(f)) }),
		unary("log10", func(f float64) any { return math.Log10(f) }),
		unary("log", func(f float64) any { return math.Log(f) }),
		unary("sqrt", func(f float64) any { return math.Sqrt(f) }),
	}
}

// expressionRefs returns the distinct parameter names referenced by an
// expression, in order of appearance.
func expressionRefs(e string) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(e, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			refs = append(refs, m[1])
		}
	}
	return refs
}

// evaluateExpressions resolves every expression-valued parameter that was
// not overridden by an earlier composition stage, writing results into
// values. Expression parameters may reference each other; they are
// evaluated in topological order restricted to the configuration being
// composed, and a cycle among them is an error naming the cycle.
func evaluateExpressions(cfg *ModuleConfig, configName string, values map[string]any, overridden map[string]bool) error {
	pending := make(map[string]*Parameter)
	for name, p := range cfg.Parameters {
		if p.HasExpr() && !overridden[name] {
			pending[name] = p
		}
	}
	if len(pending) == 0 {
		return nil
	}

	// Validate references and build in-degrees over pending parameters.
	deps := make(map[string][]string)    // parameter -> pending parameters it needs
	dependents := make(map[string][]string)
	inDegree := make(map[string]int)
	for _, name := range sortedKeys(pending) {
		inDegree[name] = 0
	}
	for _, name := range sortedKeys(pending) {
		for _, ref := range expressionRefs(pending[name].Expr) {
			if _, declared := cfg.Parameters[ref]; !declared {
				return NewExpressionError("reference to undeclared parameter %q", ref).
					WithParameter(name).
					WithConfiguration(configName)
			}
			if _, isPending := pending[ref]; isPending && ref != name {
				deps[name] = append(deps[name], ref)
				dependents[ref] = append(dependents[ref], name)
				inDegree[name]++
			}
			if ref == name {
				return NewExpressionError("expression references itself").
					WithParameter(name).
					WithConfiguration(configName)
			}
		}
	}

	// Kahn's algorithm; anything left over is part of a cycle.
	var queue []string
	for _, name := range sortedKeys(pending) {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	var order []string
	for len(queue) > 0 {
		sort.Strings(queue)
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)
		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if len(order) != len(pending) {
		cycle := expressionCycle(pending, deps, order)
		return NewExpressionError("circular expression dependency").
			WithConfiguration(configName).
			withCycle(cycle)
	}

	for _, name := range order {
		result, err := evaluateOne(pending[name], values)
		if err != nil {
			var ce *Error
			if errors.As(err, &ce) {
				ce.Parameter = name
				ce.Configuration = configName
				return ce
			}
			return NewExpressionError("%v", err).
				WithParameter(name).
				WithConfiguration(configName)
		}
		values[name] = result
	}
	return nil
}

// evaluateOne compiles and runs a single parameter expression against the
// currently resolved values.
func evaluateOne(p *Parameter, values map[string]any) (any, error) {
	src := placeholderPattern.ReplaceAllString(p.Expr, "$1")

	env := make(map[string]any, len(values))
	for k, v := range values {
		// HDL parameters treat booleans as 0/1 in arithmetic.
		if b, ok := v.(bool); ok {
			if b {
				env[k] = int64(1)
			} else {
				env[k] = int64(0)
			}
			continue
		}
		env[k] = v
	}

	opts := append(exprFunctions(), expr.Env(env))
	program, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, NewExpressionError("cannot compile %q", p.Expr).wrap(err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, NewExpressionError("cannot evaluate %q", p.Expr).wrap(err)
	}

	if p.Type != "" {
		coerced, err := coerceValue(out, p.Type)
		if err != nil {
			return nil, NewExpressionError("result of %q: %v", p.Expr, err)
		}
		return coerced, nil
	}
	// Fold integral floats back to integers so width computations stay
	// integer-typed.
	if f, ok := out.(float64); ok && f == math.Trunc(f) {
		return int64(f), nil
	}
	if n, ok := out.(int); ok {
		return int64(n), nil
	}
	return out, nil
}

// expressionCycle reconstructs one cycle among the pending parameters that
// survived the topological sort.
func expressionCycle(pending map[string]*Parameter, deps map[string][]string, resolved []string) []string {
	done := make(map[string]bool, len(resolved))
	for _, name := range resolved {
		done[name] = true
	}
	var start string
	for _, name := range sortedKeys(pending) {
		if !done[name] {
			start = name
			break
		}
	}

	var path []string
	index := make(map[string]int)
	current := start
	for {
		if at, seen := index[current]; seen {
			return append(path[at:], current)
		}
		index[current] = len(path)
		path = append(path, current)
		next := ""
		for _, dep := range deps[current] {
			if !done[dep] {
				next = dep
				break
			}
		}
		if next == "" {
			return path
		}
		current = next
	}
}

// withCycle attaches a cycle path to an error.
func (e *Error) withCycle(cycle []string) *Error {
	e.Cycle = cycle
	return e
}
