package script

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.starlark.net/syntax"
)

// ResultName is the designated output binding: the single well-known name
// a script must assign its answer to.
const ResultName = "result"

// FileOptions is the Starlark dialect accepted by the validator. The
// executor compiles with the same options so the two never disagree about
// what parses.
var FileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Config holds the validator's deny-lists and limits. The zero value is
// not usable; start from DefaultConfig.
type Config struct {
	// MaxScriptChars is the character ceiling applied before parsing.
	MaxScriptChars int

	// ForbiddenImports lists module names (first path segment) that must
	// not be imported or loaded.
	ForbiddenImports []string

	// ForbiddenBuiltins lists identifiers that must not be referenced:
	// dynamic evaluation, reflective attribute access, interpreter-state
	// accessors.
	ForbiddenBuiltins []string

	// ForbiddenMethods lists method names associated with
	// expression-evaluation shortcuts on data objects.
	ForbiddenMethods []string

	// AllowedDunderAttrs lists the double-underscore attribute names that
	// remain accessible despite the general introspection-attribute ban.
	AllowedDunderAttrs []string
}

// DefaultConfig returns the stock deny-lists and limits.
func DefaultConfig() Config {
	return Config{
		MaxScriptChars: 10000,
		ForbiddenImports: []string{
			"os", "sys", "subprocess", "socket", "requests",
			"urllib", "http", "ftplib", "telnetlib", "ssl",
			"importlib", "pkgutil", "inspect", "ctypes",
			"shutil", "glob", "pathlib", "tempfile",
		},
		ForbiddenBuiltins: []string{
			"eval", "exec", "compile", "__import__",
			"open", "input", "help", "globals", "locals",
			"vars", "dir", "getattr", "setattr", "delattr", "hasattr",
			"breakpoint", "memoryview", "bytearray",
		},
		ForbiddenMethods:   []string{"eval", "query"},
		AllowedDunderAttrs: []string{"__name__", "__doc__", "__class__", "__dict__"},
	}
}

// Validator performs static validation of script text. Safe for concurrent
// use; the deny-lists are fixed at construction.
type Validator struct {
	maxChars       int
	imports        map[string]bool
	builtins       map[string]bool
	methods        map[string]bool
	allowedDunders map[string]bool
}

// NewValidator builds a Validator from cfg. Zero or negative
// MaxScriptChars falls back to the default ceiling.
func NewValidator(cfg Config) *Validator {
	if cfg.MaxScriptChars <= 0 {
		cfg.MaxScriptChars = DefaultConfig().MaxScriptChars
	}
	return &Validator{
		maxChars:       cfg.MaxScriptChars,
		imports:        toSet(cfg.ForbiddenImports),
		builtins:       toSet(cfg.ForbiddenBuiltins),
		methods:        toSet(cfg.ForbiddenMethods),
		allowedDunders: toSet(cfg.AllowedDunderAttrs),
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// importLine matches Python-style import statements. Starlark has no
// import keyword, so generators occasionally slipping into Python produce
// these; a deny-listed module must surface as forbidden_import rather
// than as the parse error it would otherwise become.
var importLine = regexp.MustCompile(`(?m)^\s*(?:import|from)\s+([A-Za-z_][A-Za-z0-9_.]*)`)

// Validate checks script text and returns a Verdict. The whole tree is
// walked; the first violation in source order wins the error message.
func (v *Validator) Validate(text string) Verdict {
	if strings.TrimSpace(text) == "" {
		return Reject(CategoryLengthExceeded, "script is empty")
	}
	if len(text) > v.maxChars {
		return Reject(CategoryLengthExceeded,
			fmt.Sprintf("script exceeds maximum length of %d characters", v.maxChars))
	}

	// Pre-scan for Python-style imports of deny-listed modules.
	for _, m := range importLine.FindAllStringSubmatch(text, -1) {
		if root := rootModule(m[1]); v.imports[root] {
			return Reject(CategoryForbiddenImport,
				fmt.Sprintf("import of module %q is not allowed", m[1]))
		}
	}

	file, err := FileOptions.Parse("script.star", text, 0)
	if err != nil {
		return Reject(CategorySyntaxError, syntaxErrorDetail(err))
	}

	w := &walker{v: v}
	for _, stmt := range file.Stmts {
		syntax.Walk(stmt, w.visit)
	}
	if !w.verdict.OK && w.verdict.Category != "" {
		return w.verdict
	}
	if !w.hasResult {
		return Reject(CategoryMissingResultBinding,
			fmt.Sprintf("script must assign a value to the %q variable", ResultName))
	}
	return Accept()
}

// rootModule reduces a dotted module path to its first segment.
func rootModule(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// syntaxErrorDetail renders a parse failure with its position when available.
func syntaxErrorDetail(err error) string {
	var serr syntax.Error
	if errors.As(err, &serr) {
		return fmt.Sprintf("syntax error at line %d: %s", serr.Pos.Line, serr.Msg)
	}
	return "syntax error: " + err.Error()
}

// walker records the first violation and whether the result binding is
// assigned. It keeps walking after a violation so the full tree is always
// traversed.
type walker struct {
	v         *Validator
	verdict   Verdict
	hasResult bool
}

func (w *walker) reject(cat Category, format string, args ...any) {
	if w.verdict.Category == "" {
		w.verdict = Reject(cat, fmt.Sprintf(format, args...))
	}
}

func (w *walker) visit(n syntax.Node) bool {
	if n == nil {
		return true
	}
	switch node := n.(type) {
	case *syntax.LoadStmt:
		if module, ok := node.Module.Value.(string); ok && w.v.imports[rootModule(module)] {
			w.reject(CategoryForbiddenImport, "load of module %q is not allowed", module)
		}

	case *syntax.Ident:
		// Deny-listed names are rejected in any position, including
		// rebinding: shadowing a forbidden builtin is as suspect as
		// calling it.
		if w.v.builtins[node.Name] {
			w.reject(CategoryForbiddenCapability, "use of built-in %q is not allowed", node.Name)
		}

	case *syntax.CallExpr:
		if dot, ok := node.Fn.(*syntax.DotExpr); ok && w.v.methods[dot.Name.Name] {
			w.reject(CategoryForbiddenCapability, "method call %q is not allowed", dot.Name.Name)
		}

	case *syntax.DotExpr:
		name := node.Name.Name
		if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") && !w.v.allowedDunders[name] {
			w.reject(CategoryForbiddenAttribute, "access to attribute %q is not allowed", name)
		}

	case *syntax.AssignStmt:
		if node.Op == syntax.EQ {
			if ident, ok := node.LHS.(*syntax.Ident); ok && ident.Name == ResultName {
				w.hasResult = true
			}
		}
	}
	return true
}
