// Package script statically validates generated analysis scripts before
// they are allowed anywhere near the sandbox. Scripts are Starlark; the
// validator parses the text into a syntax tree and rejects constructs that
// could escape the sandbox (deny-listed imports, builtins, method patterns,
// introspection attributes) or bypass result reporting (no assignment to
// the designated output binding). Validation has no runtime dependency:
// it never executes the script and performs no I/O.
package script
