// Package build resolves remote placeholders across a source tree and writes
// the result to an output directory.
//
// Documents are processed concurrently. Resolution failures degrade to empty
// values and never fail a build; I/O and front matter errors do.
package build
