// Package engine orchestrates the analysis pipeline: it turns a question
// about a session's dataset into a validated script, a sandboxed
// execution, a bounded result envelope, and an explanation.
//
// The stage order is fixed. The generator produces untrusted script
// text; the validator gatekeeps it, with a single retry that feeds the
// violation back to the generator; the sandbox executes the accepted
// script against a copy of the dataset; the encoder bounds the raw
// value; the interpreter explains it, falling back to a templated
// explanation when it fails. Every completed run, successful or not, is
// recorded in the session's history window. A generator failure is a
// request error and is not recorded.
package engine
