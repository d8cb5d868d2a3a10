// Package task is the execution core: it turns a natural-language request
// into a dependency-ordered plan of tool invocations, runs the plan wave
// by wave with per-step failure isolation, and post-processes the result
// into a conversational answer.
//
// The Engine is the entry point. It prefers the model's native tool
// calling when available and falls back to planned execution; the planned
// path humanizes its trace and degrades to the raw trace when
// humanization fails. Recoverable conditions never escape the engine.
package task
