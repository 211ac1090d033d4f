package interp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// logger carries evaluator debug tracing (GC sweep stats, trap push/pop).
// Silent by default; an embedder injects its own via Options.Logger, the
// same writer-injection pattern as opt.stdout/stderr. REBOL_TRACE_GC with
// no logger configured falls back to a Debug-level text handler on the
// interpreter's stderr.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// opt stores interpreter options, adapted directly from the teacher's own
// opt/Options split (interp.go): a private opt struct holds resolved,
// zero-value-safe settings; the public Options struct is what a host fills
// in, with every env-var-driven toggle resolved once at New time rather
// than re-read on every call.
type opt struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	args   []string
	env    map[string]string

	traceGC     bool // REBOL_TRACE_GC: print GCStats after every Collect
	noRun       bool // REBOL_NO_RUN: scan/bind but never evaluate
	fastHalt    bool // REBOL_FAST_HALT: disable cooperative halt-checking
	strictDates bool // REBOL_STRICT_DATES: nonexistent dates fail instead of rolling forward
}

// Options are the interpreter options a host supplies to New, spec.md
// §6.1's embedding surface.
type Options struct {
	// Standard input, output and error streams. Default to os.Stdin,
	// os.Stdout, os.Stderr.
	Stdin          io.Reader
	Stdout, Stderr io.Writer

	// Args are made available to scripts via the host-args API; default
	// to os.Args.
	Args []string

	// Env entries are in the form "key=value", mirroring the teacher's
	// Options.Env shape.
	Env []string

	// Logger receives evaluator debug tracing (GC sweep stats, trap
	// push/pop). Defaults to a discarding handler.
	Logger *slog.Logger
}

// Interpreter holds the global resources and mutable state of one Rebol-
// family evaluation session, spec.md §5's "Shared resources (process-wide)
// vs per-interpreter state" split: the symbol interner (symbol.go) is
// process-scoped, while everything below is owned by exactly one
// Interpreter.
type Interpreter struct {
	// id is an atomic run-id counter used for EvalWithContext cancellation,
	// kept first for 64-bit alignment on 32-bit architectures — the
	// teacher's own comment and field ordering for this exact field.
	id uint64

	opt // user-settable options, resolved once at New

	mutex sync.RWMutex
	done  chan struct{}

	gc      *gcState
	root    *Context // the module words bind into by default
	devices *deviceRegistry
	modules map[string]string // loaded module name -> canonical version

	currentEval   *EvalFrame
	currentInvoke *InvokeFrame
	dataStack     []Cell
	moldStack     []Cell
	traps         []*Trap
	handles       handleTable
}

// New returns a new Interpreter with its root context and GC state
// initialized, spec.md §5's interpreter bring-up: allocate the root
// context and start the collector enabled.
func New(options Options) *Interpreter {
	interp := &Interpreter{
		opt:     opt{env: map[string]string{}},
		gc:      newGCState(),
		root:    NewModuleContext(),
		devices: newDeviceRegistry(),
		modules: map[string]string{},
	}
	interp.root.Manage()
	interp.gc.TrackContext(interp.root)

	if interp.opt.stdin = options.Stdin; interp.opt.stdin == nil {
		interp.opt.stdin = os.Stdin
	}
	if interp.opt.stdout = options.Stdout; interp.opt.stdout == nil {
		interp.opt.stdout = os.Stdout
	}
	if interp.opt.stderr = options.Stderr; interp.opt.stderr == nil {
		interp.opt.stderr = os.Stderr
	}
	if interp.opt.args = options.Args; interp.opt.args == nil {
		interp.opt.args = os.Args
	}
	for _, e := range options.Env {
		a := strings.SplitN(e, "=", 2)
		if len(a) == 2 {
			interp.opt.env[a[0]] = a[1]
		} else {
			interp.opt.env[a[0]] = ""
		}
	}

	interp.opt.traceGC, _ = strconv.ParseBool(os.Getenv("REBOL_TRACE_GC"))
	interp.opt.noRun, _ = strconv.ParseBool(os.Getenv("REBOL_NO_RUN"))
	interp.opt.fastHalt, _ = strconv.ParseBool(os.Getenv("REBOL_FAST_HALT"))
	interp.opt.strictDates, _ = strconv.ParseBool(os.Getenv("REBOL_STRICT_DATES"))

	if options.Logger != nil {
		logger = options.Logger
	} else if interp.opt.traceGC {
		logger = slog.New(slog.NewTextHandler(interp.opt.stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	interp.installStdLib()

	return interp
}

// RootContext exposes the interpreter's default binding target, the seam
// a host uses to install its own words before running a script.
func (interp *Interpreter) RootContext() *Context { return interp.root }

// Shutdown tears the session down, spec.md §6.1's shutdown(clean) pair to
// New. Every still-live handle is released (an embedder that forgot one is
// a bug the clean path surfaces via the handle counts in the final sweep
// stats, not a crash), and with clean true a last Collect runs so leak
// checks see the true baseline. clean=false is the fast-exit path: skip
// the sweep, the process is about to die anyway. The interpreter must not
// be used after Shutdown; symbols are process-wide and survive (spec.md
// §4.2 "Symbols are immortal ... until shutdown" of the process itself).
func (interp *Interpreter) Shutdown(clean bool) {
	for _, h := range interp.handles {
		if !h.released {
			h.released = true
			h.backing.Flags |= SerInaccessible
		}
	}
	interp.handles = nil
	interp.currentEval = nil
	interp.currentInvoke = nil
	interp.dataStack = nil
	interp.moldStack = nil
	interp.traps = nil
	if clean {
		interp.root = nil
		interp.Collect()
	}
}

// Eval scans src with the installed scanner hook (SetScannerHook,
// frame.go) and runs the resulting block to completion against the root
// context, spec.md §6.1's primary source-string entry point.
func (interp *Interpreter) Eval(src string) (res Cell, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = capturePanic(r)
		}
	}()

	cells := scannerHook(src)
	block := MakeArray(len(cells))
	for _, c := range cells {
		_ = block.AppendCell(c)
	}
	BindWords(block, interp.root, true)
	if interp.opt.noRun {
		return Cell{}, nil
	}

	ef := NewEvalFrame(interp, block, &Specifier{}, nil)
	out, err := interp.RunToEnd(ef)
	if interp.opt.traceGC {
		interp.Collect() // Collect logs its sweep stats at Debug level
	}
	return out, err
}

// EvalWithContext evaluates src on a background goroutine, returning early
// with ctx.Err() if ctx is canceled before the evaluation finishes —
// adapted from the teacher's own EvalWithContext (interp.go), which runs
// Eval on a goroutine behind a done channel so a canceled caller never
// blocks on a runaway script; this module's own Eval already recovers any
// panic into a Panic error rather than needing a second recover here.
func (interp *Interpreter) EvalWithContext(ctx context.Context, src string) (Cell, error) {
	var v Cell
	var err error

	interp.mutex.Lock()
	interp.done = make(chan struct{})
	interp.mutex.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err = interp.Eval(src)
	}()

	select {
	case <-ctx.Done():
		interp.stop()
		return Cell{}, ctx.Err()
	case <-done:
	}
	return v, err
}

// stop bumps the run-id (invalidating any in-flight halt check a native
// might poll via HaltRequested) and closes the done channel, spec.md §5's
// cooperative-cancellation model: "setting the halt signal causes the next
// step to raise a throw labeled halt" rather than forcibly killing a
// goroutine outright.
func (interp *Interpreter) stop() {
	atomic.AddUint64(&interp.id, 1)
	interp.mutex.RLock()
	d := interp.done
	interp.mutex.RUnlock()
	if d != nil {
		close(d)
	}
}

func (interp *Interpreter) runid() uint64 { return atomic.LoadUint64(&interp.id) }

// HaltRequested reports whether stop has invalidated runid since startID
// was captured, the polling seam a long-running native checks between
// steps when opt.fastHalt is false (spec.md §5: cooperative, not
// preemptive, cancellation).
func (interp *Interpreter) HaltRequested(startID uint64) bool {
	if interp.opt.fastHalt {
		return false
	}
	return interp.runid() != startID
}

// REPL runs an interactive read-eval-print loop over the interpreter's
// configured stdin/stdout/stderr, adapted from the teacher's own REPL
// (interp.go): line-buffered input on a goroutine, Ctrl-C trapped into
// cancellation via EvalWithContext rather than terminating the process
// outright.
func (interp *Interpreter) REPL() (Cell, error) {
	in, out, errs := interp.opt.stdin, interp.opt.stdout, interp.opt.stderr
	ctx, cancel := context.WithCancel(context.Background())
	end := make(chan struct{})     // channel to terminate the REPL
	sig := make(chan os.Signal, 1) // channel to trap interrupt signal (Ctrl-C)
	lines := make(chan string)     // channel to read REPL input lines
	prompt := getPrompt(in, out)   // prompt activated on tty-like IO stream
	s := bufio.NewScanner(in)      // read input stream line by line
	var v Cell                     // result value from eval
	var err error                  // error from eval
	src := ""                      // source string to evaluate

	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	prompt(v, false)

	go func() {
		defer close(end)
		for s.Scan() {
			lines <- s.Text()
		}
		if e := s.Err(); e != nil {
			fmt.Fprintln(errs, e)
		}
	}()

	go func() {
		for {
			select {
			case <-sig:
				cancel()
				lines <- ""
			case <-end:
				return
			}
		}
	}()

	for {
		var line string

		select {
		case <-end:
			cancel()
			return v, err
		case line = <-lines:
			src += line + "\n"
		}

		v, err = interp.EvalWithContext(ctx, src)
		if err != nil {
			switch e := err.(type) {
			case Panic:
				fmt.Fprintln(errs, e.Value)
			case *ThrowSignal:
				if !e.isHalt() {
					fmt.Fprintln(errs, "uncaught throw:", Mold(&e.Value))
				}
			default:
				if err == context.Canceled {
					ctx, cancel = context.WithCancel(context.Background())
				} else {
					fmt.Fprintln(errs, err)
				}
			}
		}
		src = ""
		prompt(v, err != nil)
	}
}

func doPrompt(out io.Writer) func(v Cell, hadErr bool) {
	return func(v Cell, hadErr bool) {
		if !hadErr && !v.IsEnd() {
			fmt.Fprintln(out, "==", Mold(&v))
		}
		fmt.Fprint(out, ">> ")
	}
}

// getPrompt mirrors the teacher's tty-detection idiom: only print a prompt
// banner when stdin looks like an interactive terminal, unless forced via
// REBOL_PROMPT.
func getPrompt(in io.Reader, out io.Writer) func(Cell, bool) {
	forcePrompt, _ := strconv.ParseBool(os.Getenv("REBOL_PROMPT"))
	if forcePrompt {
		return doPrompt(out)
	}
	s, ok := in.(interface{ Stat() (os.FileInfo, error) })
	if !ok {
		return func(Cell, bool) {}
	}
	stat, err := s.Stat()
	if err == nil && stat.Mode()&os.ModeCharDevice != 0 {
		return doPrompt(out)
	}
	return func(Cell, bool) {}
}
