// Package scratch manages temporary directories for multi-file pipelines.
//
// Each pipeline invocation acquires an exclusively-owned directory under the
// system temp root via Manager.WithDir, which removes it unconditionally
// when the pipeline body returns. A synchronized registry of live
// directories backs shutdown cleanup, and a startup sweep removes
// directories surviving a prior crash based on an age threshold.
package scratch
