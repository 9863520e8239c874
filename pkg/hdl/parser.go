// Package hdl extracts module interfaces from Verilog and SystemVerilog
// sources with a line-oriented regex scanner. It recovers enough structure
// for project-file generation: module name, parameters with defaults,
// ports, package imports, include files and instantiated submodules. It is
// not a full parser and intentionally ignores generate blocks, macros and
// preprocessor conditionals.
package hdl

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Parameter is one declared Verilog parameter.
type Parameter struct {
	Name    string
	Default string
	Type    string
}

// Port is one module port.
type Port struct {
	Name      string
	Direction string
	Type      string
	Width     string
}

// Module is the parsed interface of one HDL file.
type Module struct {
	Name       string
	Parameters []Parameter
	Ports      []Port

	// Instances lists instantiated submodule names, Packages imported
	// SystemVerilog packages, Includes `include file names.
	Instances []string
	Packages  []string
	Includes  []string
}

var (
	modulePattern     = regexp.MustCompile(`(?s)module\s+(\w+)\s*(?:#\s*\((.*?)\))?\s*\((.*?)\);`)
	paramPattern      = regexp.MustCompile(`parameter\s+(?:\w+\s+)?(\w+)\s*=\s*([^,;]+)`)
	localparamPattern = regexp.MustCompile(`localparam\s+(?:\w+\s+)?(\w+)\s*=\s*([^,;]+)`)
	portPattern       = regexp.MustCompile(`(input|output|inout)\s+(?:(logic|wire|reg)\s+)?(?:\[([^\]]+)\])?\s*(\w+)`)
	importPattern     = regexp.MustCompile(`import\s+(\w+)::\*;`)
	includePattern    = regexp.MustCompile("`include\\s+\"([^\"]+)\"")

	// Instantiations are recognized per line: a parameterized header
	// (`name #(`) or a plain `name instance (` pair.
	paramInstPattern = regexp.MustCompile(`^\s*(\w+)\s*#\s*\(`)
	plainInstPattern = regexp.MustCompile(`^\s*(\w+)\s+\w+\s*\(`)

	lineCommentPattern  = regexp.MustCompile(`(?m)//.*$`)
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// keywords are identifiers the instance scanner must never treat as
// module names.
var keywords = map[string]bool{
	"always": true, "always_ff": true, "always_comb": true,
	"always_latch": true, "initial": true, "if": true, "else": true,
	"for": true, "while": true, "case": true, "casex": true,
	"casez": true, "function": true, "task": true, "begin": true,
	"end": true, "generate": true, "genvar": true, "assign": true,
	"assert": true, "assume": true, "cover": true, "property": true,
	"sequence": true, "module": true, "input": true, "output": true,
	"inout": true, "parameter": true, "localparam": true, "logic": true,
	"wire": true, "reg": true, "import": true, "typedef": true,
	"unique": true, "priority": true, "return": true,
}

// ParseFile parses one Verilog/SystemVerilog file. A file containing no
// module declaration is an error.
func ParseFile(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse parses HDL source text.
func Parse(content string) (*Module, error) {
	content = stripComments(content)

	match := modulePattern.FindStringSubmatch(content)
	if match == nil {
		return nil, fmt.Errorf("no module declaration found")
	}

	m := &Module{Name: match[1]}
	m.Parameters = parseParameters(match[2], content)
	m.Ports = parsePorts(match[3], content)
	for _, im := range importPattern.FindAllStringSubmatch(content, -1) {
		m.Packages = append(m.Packages, im[1])
	}
	for _, inc := range includePattern.FindAllStringSubmatch(content, -1) {
		m.Includes = append(m.Includes, inc[1])
	}
	m.Instances = findInstances(content)
	return m, nil
}

func stripComments(content string) string {
	content = lineCommentPattern.ReplaceAllString(content, "")
	return blockCommentPattern.ReplaceAllString(content, "")
}

func parseParameters(paramBlock, content string) []Parameter {
	var params []Parameter
	seen := make(map[string]bool)

	add := func(name, def string) {
		if seen[name] {
			return
		}
		seen[name] = true
		def = strings.TrimSpace(def)
		params = append(params, Parameter{Name: name, Default: def, Type: paramType(def)})
	}
	for _, m := range paramPattern.FindAllStringSubmatch(paramBlock, -1) {
		add(m[1], m[2])
	}
	// localparams in the body round out the picture for generated docs.
	for _, m := range localparamPattern.FindAllStringSubmatch(content, -1) {
		add(m[1], m[2])
	}
	return params
}

func paramType(def string) string {
	switch {
	case strings.HasPrefix(def, `"`):
		return "string"
	case def == "1'b0" || def == "1'b1" || def == "true" || def == "false":
		return "boolean"
	case strings.Contains(def, "."):
		return "real"
	default:
		return "integer"
	}
}

func parsePorts(portBlock, content string) []Port {
	ports := portsFrom(portBlock, nil)
	if len(ports) > 0 {
		return ports
	}
	// Non-ANSI style: port directions declared in the module body.
	body := content
	if i := strings.Index(content, "endmodule"); i > 0 {
		body = content[:i]
	}
	return portsFrom(body, nil)
}

func portsFrom(text string, ports []Port) []Port {
	seen := make(map[string]bool, len(ports))
	for _, p := range ports {
		seen[p.Name] = true
	}
	for _, m := range portPattern.FindAllStringSubmatch(text, -1) {
		name := m[4]
		if seen[name] {
			continue
		}
		seen[name] = true
		typ := m[2]
		if typ == "" {
			typ = "logic"
		}
		ports = append(ports, Port{Name: name, Direction: m[1], Type: typ, Width: m[3]})
	}
	return ports
}

func findInstances(content string) []string {
	var instances []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(content, "\n") {
		m := paramInstPattern.FindStringSubmatch(line)
		if m == nil {
			m = plainInstPattern.FindStringSubmatch(line)
		}
		if m == nil {
			continue
		}
		name := m[1]
		if keywords[name] || seen[name] {
			continue
		}
		// Heuristic filter: uppercase-initial or underscored identifiers
		// are likely module names rather than signals.
		if !(name[0] >= 'A' && name[0] <= 'Z') && !strings.Contains(name, "_") {
			continue
		}
		seen[name] = true
		instances = append(instances, name)
	}
	return instances
}

// ParseDefault converts a Verilog default-value literal to a typed value:
// sized binary/hex/decimal literals become integers, quoted text becomes a
// string, and anything unrecognized passes through verbatim.
func ParseDefault(value string) any {
	value = strings.TrimSpace(value)

	if strings.HasPrefix(value, `"`) {
		return strings.Trim(value, `"`)
	}
	for _, base := range []struct {
		sep  string
		base int
	}{{"'b", 2}, {"'h", 16}, {"'d", 10}} {
		if i := strings.Index(value, base.sep); i >= 0 {
			if n, err := strconv.ParseInt(value[i+2:], base.base, 64); err == nil {
				return n
			}
		}
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// Dependencies returns the module names a file depends on: instantiated
// submodules plus imported packages.
func Dependencies(m *Module) []string {
	deps := make([]string, 0, len(m.Instances)+len(m.Packages))
	deps = append(deps, m.Instances...)
	deps = append(deps, m.Packages...)
	return deps
}
