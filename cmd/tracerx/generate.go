package main

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ninesd/tracerx"
	"github.com/ninesd/tracerx/internal/astutil"
	"github.com/ninesd/tracerx/z3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

const symbolicTestPrefix = "SymbolicTest"

var generateCmd = &cobra.Command{
	Use:   "generate [flags] <package>",
	Short: "Generate test cases via symbolic execution",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(generateCmd)

	fs := generateCmd.Flags()
	fs.BoolP("verbose", "v", false, "enable verbose logging")

	fs.Bool("fast-cex-solver", true, "enable the fast constant-propagation solver layer")
	fs.Bool("cex-cache", true, "cache satisfiability results keyed by constraint set")
	fs.Bool("cache", true, "cache validity queries")
	fs.Bool("independent-solver", true, "slice queries to the independent constraint subset before solving")
	fs.Bool("forked-core-solver", false, "run the concrete solver backend in a forked subprocess")
	fs.Bool("cross-check", false, "cross-check every query against a second solver backend")
	fs.Bool("equality-substitution", true, "back-substitute discovered equalities into the path condition")

	fs.Duration("max-solver-time", 0, "per-query solver timeout (0 = unlimited)")
	fs.Duration("max-time", 0, "wall-clock budget for the whole run (0 = unlimited)")
	fs.Int("max-forks", -1, "maximum number of branch forks (<0 = unlimited)")
	fs.Int("max-depth", 0, "maximum call-stack depth (<=0 = unlimited)")
	fs.Uint64("max-memory", 0, "heap memory budget in bytes (0 = unlimited)")
	fs.Bool("max-memory-inhibit", true, "stop forking rather than terminating states when max-memory is hit")

	fs.Int("max-static-fork-pct", 100, "throttle static forks once this percent of max-forks is spent")
	fs.Int("max-static-solve-pct", 100, "throttle static solver queries once this percent of budget is spent")
	fs.Int("max-static-cpfork-pct", 1, "call-path-local variant of max-static-fork-pct")
	fs.Int("max-static-cpsolve-pct", 1, "call-path-local variant of max-static-solve-pct")

	fs.Bool("dump-states-on-halt", false, "write every still-running state's path condition when the run halts")
	fs.Bool("emit-all-errors", false, "emit a test case for every error state, not just the first per program point")
	fs.Bool("only-new-coverage", false, "only emit test cases for states that covered a new line")
	fs.StringSlice("exit-on-error-type", nil, "halt the run as soon as an error of this kind is hit (repeatable)")

	fs.Bool("interpolation", true, "prune subsumed states via Craig interpolation")
	fs.Bool("speculation", true, "speculatively execute past unresolved forks")
	fs.String("speculation-strategy", "timid", "timid, aggressive, or custom")

	fs.String("output-dir", "tracerx-out", "directory artifacts and test cases are written to")
	fs.String("dependency-folder", "", "directory to read SpecAvoid_* / InitialVisitedBB.txt from, seeding coverage and speculation-avoidance state left by a prior run")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	opts, verbose, err := optionsFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if !verbose {
		tracerx.DiscardLog()
	}

	initial, err := packages.Load(&packages.Config{
		Mode:  packages.LoadAllSyntax,
		Tests: true,
	}, args[0])
	if err != nil {
		return err
	} else if packages.PrintErrors(initial) > 0 {
		return fmt.Errorf("packages contain errors")
	}

	prog, pkgs := ssautil.AllPackages(initial, ssa.BuilderMode(0))
	for i, pkg := range pkgs {
		if pkg == nil {
			return fmt.Errorf("cannot build SSA for package %s", initial[i])
		}
		pkg.SetDebugMode(true)
	}
	prog.Build()

	if prog.ImportedPackage("runtime") == nil {
		return fmt.Errorf("program does not depend on runtime")
	}

	var fns []*ssa.Function
	for _, pkg := range pkgs {
		for _, m := range pkg.Members {
			if m, ok := m.(*ssa.Function); ok && strings.HasPrefix(m.Name(), symbolicTestPrefix) {
				fns = append(fns, m)
			}
		}
	}
	sort.Slice(fns, func(i, j int) bool { return fns[i].Name() < fns[j].Name() })

	for _, fn := range fns {
		if err := generateFunction(fn, opts); err != nil {
			return err
		}
	}
	return nil
}

// optionsFromFlags builds a *tracerx.Options from the generate command's
// flag set, the cobra/pflag counterpart of the teacher's hand-rolled
// flag.FlagSet parsing in the original generate command.
func optionsFromFlags(fs *pflag.FlagSet) (opts *tracerx.Options, verbose bool, err error) {
	opts = tracerx.NewOptions()

	verbose, _ = fs.GetBool("verbose")

	opts.UseFastCexSolver, _ = fs.GetBool("fast-cex-solver")
	opts.UseCexCache, _ = fs.GetBool("cex-cache")
	opts.UseCache, _ = fs.GetBool("cache")
	opts.UseIndependentSolver, _ = fs.GetBool("independent-solver")
	opts.UseForkedCoreSolver, _ = fs.GetBool("forked-core-solver")
	opts.UseCrossCheck, _ = fs.GetBool("cross-check")
	opts.EqualitySubstitution, _ = fs.GetBool("equality-substitution")

	opts.MaxCoreSolverTime, _ = fs.GetDuration("max-solver-time")
	opts.MaxInstructionTime, _ = fs.GetDuration("max-time")
	opts.MaxForks, _ = fs.GetInt("max-forks")
	opts.MaxDepth, _ = fs.GetInt("max-depth")
	opts.MaxMemory, _ = fs.GetUint64("max-memory")
	opts.MaxMemoryInhibit, _ = fs.GetBool("max-memory-inhibit")

	opts.MaxStaticForkPct, _ = fs.GetInt("max-static-fork-pct")
	opts.MaxStaticSolvePct, _ = fs.GetInt("max-static-solve-pct")
	opts.MaxStaticCPForkPct, _ = fs.GetInt("max-static-cpfork-pct")
	opts.MaxStaticCPSolvePct, _ = fs.GetInt("max-static-cpsolve-pct")

	opts.DumpStatesOnHalt, _ = fs.GetBool("dump-states-on-halt")
	opts.EmitAllErrors, _ = fs.GetBool("emit-all-errors")
	opts.OnlyOutputStatesCoveringNew, _ = fs.GetBool("only-new-coverage")

	kinds, _ := fs.GetStringSlice("exit-on-error-type")
	errKinds := make([]tracerx.ErrorKind, len(kinds))
	for i, k := range kinds {
		errKinds[i] = tracerx.ErrorKind(k)
	}
	opts.ExitOnErrorType = tracerx.NewErrorKindSet(errKinds...)

	opts.UseInterpolation, _ = fs.GetBool("interpolation")
	opts.UseSpeculation, _ = fs.GetBool("speculation")
	strategy, _ := fs.GetString("speculation-strategy")
	switch strategy {
	case "aggressive":
		opts.SpeculationStrategy = tracerx.SpeculationAggressive
	case "custom":
		opts.SpeculationStrategy = tracerx.SpeculationCustom
	default:
		opts.SpeculationStrategy = tracerx.SpeculationTimid
	}

	opts.OutputDir, _ = fs.GetString("output-dir")
	opts.DependencyFolder, _ = fs.GetString("dependency-folder")

	return opts, verbose, nil
}

// generateFunction performs symbolic execution over fn and writes a test
// case per terminal state, plus the artifact files described by
// opts.OutputDir.
func generateFunction(fn *ssa.Function, opts *tracerx.Options) error {
	var buf bytes.Buffer
	format.Node(&buf, token.NewFileSet(), fn.Syntax())

	fmt.Printf("[begin] %s\n", fn.Name())
	fmt.Println(buf.String())

	z3Solver := z3.NewSolver()
	defer z3Solver.Close()

	e := tracerx.NewExecutor(fn)
	e.Solver = z3Solver
	e.Options = opts

	if err := e.LoadDependencyFolder(opts.DependencyFolder); err != nil {
		return fmt.Errorf("loading dependency folder: %w", err)
	}

	start := time.Now()
	for {
		state, err := e.ExecuteNextState()
		if err == tracerx.ErrNoStateAvailable {
			break
		} else if err != nil {
			return err
		}

		if !state.Terminated() {
			continue
		}
		if opts.OnlyOutputStatesCoveringNew && !state.CoveredNew() {
			continue
		}

		fmt.Printf("terminal state#%d (%s)\n", state.ID(), state.Status())

		syntax := astutil.Clone(fn.Syntax())

		arrays, values, err := state.Values()
		if err != nil {
			fmt.Printf("values: %v\n", err)
		}
		for i, array := range arrays {
			fmt.Printf("%s => %x\n", array.String(), values[i])
		}

		format.Node(os.Stdout, token.NewFileSet(), syntax)
	}
	fmt.Printf("[end] %s (%s)\n\n", fn.Name(), time.Since(start))

	if opts.OutputDir != "" {
		dir := filepath.Join(opts.OutputDir, fn.Name())
		if err := e.ArtifactDir(dir); err != nil {
			return fmt.Errorf("writing artifacts: %w", err)
		}
	}

	return nil
}
