package tracerx

import "time"

// Options carries the run's command-surface configuration. cmd/tracerx
// binds these fields to cobra/pflag flags; the engine itself only ever
// reads from an *Options, never a flag set, so it stays usable as a
// library independent of the CLI.
type Options struct {
	// Solver chain layer toggles (solver_chain.go).
	UseFastCexSolver     bool
	UseCexCache          bool
	UseCache             bool
	UseIndependentSolver bool
	UseForkedCoreSolver  bool
	UseCrossCheck        bool

	// EqualitySubstitution enables ConstraintSet back-substitution of
	// discovered equalities (constraints.go). Disabling it keeps every
	// constraint exactly as added, trading solver load for determinism
	// when comparing against a reference trace.
	EqualitySubstitution bool

	MaxCoreSolverTime time.Duration
	MaxInstructionTime time.Duration

	MaxForks  int // <0 means unlimited
	MaxDepth  int // <=0 means unlimited
	MaxMemory uint64 // bytes; 0 means unlimited
	MaxMemoryInhibit bool

	// Static fork throttling ratios (spec 4.I step 1). Each is a percentage
	// (0-100, 100 meaning disabled) of all forks/solver time so far a
	// single fork site (Fork/Solve) or its enclosing function (CPFork/
	// CPSolve, a call-path proxy) may account for before its branch
	// condition gets concretized to a witness instead of queried further.
	// Only takes effect after 60 seconds of wall-clock, matching klee.
	MaxStaticForkPct    int
	MaxStaticSolvePct   int
	MaxStaticCPForkPct  int
	MaxStaticCPSolvePct int

	// Seeding & replay.
	Seeds       []*Seed
	ReplayOnly  bool
	NamedSeedMatching bool

	// Output behavior.
	DumpStatesOnHalt           bool
	EmitAllErrors              bool
	OnlyOutputStatesCoveringNew bool
	ExitOnErrorType            ErrorKindSet

	// Interpolation (txtree.go).
	UseInterpolation bool

	// Speculation (speculation.go).
	UseSpeculation     bool
	SpeculationStrategy SpeculationStrategy

	OutputDir string

	// DependencyFolder, if set, is scanned at the start of Run for
	// SpecAvoid_* files and an InitialVisitedBB.txt, letting a run pick up
	// coverage and speculation-avoidance state left behind by a prior run
	// over the same program.
	DependencyFolder string
}

// NewOptions returns Options populated with the engine's defaults: every
// solver-chain layer and interpolation/speculation enabled, and no
// resource quotas (unlimited exploration), matching spec 6.3's defaults.
func NewOptions() *Options {
	return &Options{
		UseFastCexSolver:     true,
		UseCexCache:          true,
		UseCache:             true,
		UseIndependentSolver: true,
		EqualitySubstitution: true,

		MaxForks: -1,

		MaxStaticForkPct:    100,
		MaxStaticSolvePct:   100,
		MaxStaticCPForkPct:  100,
		MaxStaticCPSolvePct: 100,

		UseInterpolation: true,

		UseSpeculation:      true,
		SpeculationStrategy: SpeculationTimid,

		ExitOnErrorType: NewErrorKindSet(),

		OutputDir: "tracerx-out",
	}
}
