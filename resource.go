package tracerx

import (
	"fmt"
	"runtime"
	"time"
)

// MemorySampleInterval is how many executed instructions elapse between
// runtime.MemStats samples taken by ResourceGovernor.Check.
const MemorySampleInterval = 65536

// ResourceGovernor enforces the wall-clock, instruction-count and memory
// quotas an Executor run is subject to, and selects states to cull when a
// quota is close to being exceeded. It is consulted once per executed
// instruction from Executor.executeNextInstruction.
type ResourceGovernor struct {
	opts *Options

	start        time.Time
	instructions uint64
	lastSample   uint64
	rssBytes     uint64

	memInhibited bool
}

// NewResourceGovernor returns a governor configured from opts. A nil opts
// is treated as NewOptions()'s defaults (no quotas).
func NewResourceGovernor(opts *Options) *ResourceGovernor {
	if opts == nil {
		opts = NewOptions()
	}
	return &ResourceGovernor{opts: opts, start: time.Now()}
}

// Check is called for every instruction the executor is about to run on
// state. It returns (true, reason) if state must be halted immediately
// because a hard quota (wall-clock, instruction count or max depth) was
// exceeded. Memory pressure does not halt a single state outright; instead
// it is reported via MemoryInhibited so the searcher can prefer culling
// states without new coverage (spec's resource-governed state culling).
func (g *ResourceGovernor) Check(e *Executor, state *ExecutionState) (halt bool, reason string) {
	g.instructions++

	if g.opts.MaxInstructionTime > 0 && time.Since(g.start) > g.opts.MaxInstructionTime {
		return true, "max instruction time exceeded"
	}
	if g.opts.MaxDepth > 0 && state.Depth() > g.opts.MaxDepth {
		return true, fmt.Sprintf("max depth exceeded: %d > %d", state.Depth(), g.opts.MaxDepth)
	}

	if g.opts.MaxMemory > 0 && g.instructions-g.lastSample >= MemorySampleInterval {
		g.lastSample = g.instructions
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		g.rssBytes = stats.Sys
		g.memInhibited = g.rssBytes > g.opts.MaxMemory
		if g.memInhibited {
			g.cull(e)
		}
	}

	return false, ""
}

// cull terminates the governor's preferred victim (SelectCullVictim) among
// e.Searcher's currently pending states, implementing spec 4.K step 3's
// "possibly cull states under memory pressure" and spec 5's preference for
// states without recent new coverage. Called at most once per memory
// sample, not once per instruction, so a sustained pressure spike sheds
// one state at a time rather than the entire pending queue at once.
func (g *ResourceGovernor) cull(e *Executor) {
	victim := g.SelectCullVictim(e.Searcher.States())
	if victim == nil || victim.Terminated() {
		return
	}
	victim.status = ExecutionStatusExited
	victim.reason = "culled: memory pressure"
}

// Elapsed returns the wall-clock duration since the governor started.
func (g *ResourceGovernor) Elapsed() time.Duration { return time.Since(g.start) }

// Instructions returns the total number of instructions checked so far.
func (g *ResourceGovernor) Instructions() uint64 { return g.instructions }

// RSSBytes returns the most recently sampled resident set size.
func (g *ResourceGovernor) RSSBytes() uint64 { return g.rssBytes }

// MemoryInhibited returns true if the last memory sample exceeded
// Options.MaxMemory. When true and Options.MaxMemoryInhibit is set, the
// caller should stop forking and prefer culling/terminating states that
// have not covered new lines (state.CoveredNew()) over those that have.
func (g *ResourceGovernor) MemoryInhibited() bool {
	return g.memInhibited
}

// SelectCullVictim returns the state among candidates the governor would
// prefer to drop first under memory pressure: states without new coverage
// are preferred over those with it, and among those, the deepest (and
// therefore most speculative/least foundational) state is chosen.
func (g *ResourceGovernor) SelectCullVictim(candidates []*ExecutionState) *ExecutionState {
	if len(candidates) == 0 {
		return nil
	}

	var victim *ExecutionState
	for _, s := range candidates {
		if victim == nil {
			victim = s
			continue
		}
		if s.CoveredNew() && !victim.CoveredNew() {
			continue
		}
		if !s.CoveredNew() && victim.CoveredNew() {
			victim = s
			continue
		}
		if s.Depth() > victim.Depth() {
			victim = s
		}
	}
	return victim
}
