package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rvwalk/mem/idealmemcontroller"
	"github.com/sarchlab/rvwalk/mem/vm"
	"github.com/sarchlab/rvwalk/mem/vm/ptw"
	"github.com/sarchlab/rvwalk/mem/vm/tlb"
	"github.com/sarchlab/rvwalk/monitoring"
	"github.com/sarchlab/rvwalk/sim"
	"github.com/sarchlab/rvwalk/tracing"
)

type runOptions struct {
	scenario       string
	mode           string
	traceDB        string
	monitor        bool
	monitorPort    int
	squashPerCycle int
	memLatency     int
	tlbSets        int
	tlbWays        int
	logEvents      bool
	logMsgs        bool
	randomIDs      bool
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}

	c := &cobra.Command{
		Use:   "run",
		Short: "Translate the accesses of a scenario.",
		Long: "`run --scenario file.json --mode timing` builds the page " +
			"tables of the scenario and prints the translation of every " +
			"access followed by the walker statistics.",
		RunE: func(c *cobra.Command, _ []string) error {
			return runScenario(c.OutOrStdout(), opts)
		},
	}

	f := c.Flags()
	f.StringVar(&opts.scenario, "scenario", envString("SCENARIO", ""),
		"Path of the JSON scenario file")
	f.StringVar(&opts.mode, "mode", envString("MODE", "timing"),
		"Execution mode: functional, atomic or timing")
	f.StringVar(&opts.traceDB, "trace-db", envString("TRACE_DB", ""),
		"Write walk traces into the SQLite database <path>.sqlite3")
	f.BoolVar(&opts.monitor, "monitor", envBool("MONITOR", false),
		"Serve the simulation over HTTP while it runs")
	f.IntVar(&opts.monitorPort, "monitor-port", envInt("MONITOR_PORT", 0),
		"Port of the monitoring server, random if unset")
	f.IntVar(&opts.squashPerCycle, "squash-per-cycle",
		envInt("SQUASH_PER_CYCLE", 4),
		"Requests drained from the walker queue per cycle")
	f.IntVar(&opts.memLatency, "mem-latency", envInt("MEM_LATENCY", 100),
		"Latency of a page table access in cycles")
	f.IntVar(&opts.tlbSets, "tlb-sets", envInt("TLB_SETS", 16),
		"Number of TLB sets")
	f.IntVar(&opts.tlbWays, "tlb-ways", envInt("TLB_WAYS", 4),
		"Number of TLB ways")
	f.BoolVar(&opts.logEvents, "log-events", envBool("LOG_EVENTS", false),
		"Log every simulation event to stderr")
	f.BoolVar(&opts.logMsgs, "log-msgs", envBool("LOG_MSGS", false),
		"Log every memory message to stderr")
	f.BoolVar(&opts.randomIDs, "random-ids", envBool("RANDOM_IDS", false),
		"Use random instead of sequential message and task IDs")

	return c
}

func runScenario(out io.Writer, opts runOptions) error {
	if opts.scenario == "" {
		return fmt.Errorf("no scenario given")
	}

	if opts.randomIDs {
		sim.UseParallelIDGenerator()
	}

	s, err := loadScenario(opts.scenario)
	if err != nil {
		return err
	}

	r, err := newRunner(s, opts)
	if err != nil {
		return err
	}

	outcomes, err := r.run()
	if err != nil {
		return err
	}

	printOutcomes(out, s, outcomes)
	printStats(out, r)

	return nil
}

// outcome is the end of one access.
type outcome struct {
	res     ptw.Result
	err     error
	at      sim.VTimeInSec
	bare    bool
	squash  bool
	settled bool
}

// runner owns the simulated system of one run.
type runner struct {
	s    *scenario
	sys  *system
	mode string

	engine   *sim.SerialEngine
	memCtrl  *idealmemcontroller.Comp
	adapter  *ptw.PortAdapter
	tlb      *tlb.TLB
	walker   *ptw.Walker
	latency  *tracing.AverageTimeTracer
	steps    *tracing.StepCountTracer
	busy     *tracing.TotalTimeTracer
	monitor  *monitoring.Monitor
	progress *monitoring.ProgressBar
}

func newRunner(s *scenario, opts runOptions) (*runner, error) {
	switch opts.mode {
	case "functional", "atomic", "timing":
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.mode)
	}

	sys, err := s.build()
	if err != nil {
		return nil, err
	}

	r := &runner{
		s:      s,
		sys:    sys,
		mode:   opts.mode,
		engine: sim.NewSerialEngine(),
	}

	r.memCtrl = idealmemcontroller.MakeBuilder().
		WithEngine(r.engine).
		WithStorage(sys.storage).
		WithLatency(opts.memLatency).
		Build("Mem")
	r.adapter = ptw.MakePortAdapterBuilder().
		WithEngine(r.engine).
		WithStorage(sys.storage).
		WithAtomicLatency(opts.memLatency).
		Build("PTW.Adapter")
	r.adapter.SetMemory(r.memCtrl.GetPortByName("Top").AsRemote())

	conn := sim.NewDirectConnection("Conn", r.engine, 1*sim.GHz)
	conn.PlugIn(r.adapter.Port())
	conn.PlugIn(r.memCtrl.GetPortByName("Top"))

	r.tlb = tlb.MakeBuilder().
		WithNumSets(opts.tlbSets).
		WithNumWays(opts.tlbWays).
		Build("TLB")

	b := ptw.MakeBuilder().
		WithEngine(r.engine).
		WithTLB(r.tlb).
		WithMemPort(r.adapter).
		WithNumSquashPerCycle(opts.squashPerCycle)
	if sys.pmp != nil {
		b = b.WithPMP(sys.pmp)
	}
	if sys.pma != nil {
		b = b.WithPMA(sys.pma)
	}
	r.walker = b.Build("PTW")

	onlyWalks := func(t tracing.Task) bool { return t.Kind == "walk" }
	r.latency = tracing.NewAverageTimeTracer(r.engine, onlyWalks)
	r.steps = tracing.NewStepCountTracer(onlyWalks)
	r.busy = tracing.NewTotalTimeTracer(r.engine, onlyWalks)
	tracing.CollectTrace(r.walker, r.busy)
	tracing.CollectTrace(r.walker, r.latency)
	tracing.CollectTrace(r.walker, r.steps)

	r.attachLoggers(opts)

	if opts.traceDB != "" {
		writer := tracing.NewSQLiteTraceWriter(opts.traceDB)
		tracing.CollectTrace(r.walker, tracing.NewDBTracer(r.engine, writer))
	}

	if opts.monitor {
		r.monitor = monitoring.NewMonitor()
		if opts.monitorPort != 0 {
			r.monitor.WithPortNumber(opts.monitorPort)
		}
		r.monitor.RegisterEngine(r.engine)
		r.monitor.RegisterComponent(r.walker)
		r.monitor.RegisterComponent(r.adapter)
		r.monitor.RegisterComponent(r.memCtrl)
		r.progress = r.monitor.CreateProgressBar(
			"Translations", uint64(len(s.Accesses)))
		r.monitor.StartServer()
	} else {
		r.progress = monitoring.NewProgressBar(
			"Translations", uint64(len(s.Accesses)))
	}

	return r, nil
}

func (r *runner) attachLoggers(opts runOptions) {
	logger := log.New(os.Stderr, "", 0)

	if opts.logEvents {
		r.engine.AcceptHook(sim.NewEventLogger(logger))
	}

	if opts.logMsgs {
		msgLogger := sim.NewPortMsgLogger(logger, r.engine)
		r.adapter.Port().AcceptHook(msgLogger)
		r.memCtrl.GetPortByName("Top").AcceptHook(msgLogger)
	}
}

func (r *runner) request(i int) (*ptw.Request, error) {
	a := r.s.Accesses[i]

	mode, ok := vm.ParseAccessMode(a.Mode)
	if !ok && a.Mode != "" {
		return nil, fmt.Errorf("access %d: bad mode %q", i, a.Mode)
	}

	return &ptw.Request{
		ID:        fmt.Sprintf("access-%d", i),
		VAddr:     uint64(a.VAddr),
		Size:      a.Size,
		Mode:      mode,
		Ctx:       r.sys.regs.Context(mode, a.ForceVirt),
		BypassTLB: a.BypassTLB,
	}, nil
}

func (r *runner) run() ([]outcome, error) {
	if r.monitor != nil {
		defer r.monitor.StopServer()
		defer r.monitor.CompleteProgressBar(r.progress)
	}

	outcomes := make([]outcome, len(r.s.Accesses))

	for i := range r.s.Accesses {
		req, err := r.request(i)
		if err != nil {
			return nil, err
		}

		r.progress.Start(1)

		if !req.Ctx.NeedsTranslation() {
			outcomes[i] = r.untranslated(req)
			r.progress.Finish(1)

			continue
		}

		switch r.mode {
		case "functional":
			res, err := r.walker.StartFunctional(req)
			outcomes[i] = outcome{res: res, err: err, settled: true}
			r.progress.Finish(1)
		case "atomic":
			res, err := r.walker.StartAtomic(req)
			outcomes[i] = outcome{res: res, err: err, settled: true}
			r.progress.Finish(1)
		default:
			r.startTiming(req, &outcomes[i], r.s.Accesses[i].Squash)
		}
	}

	if r.mode == "timing" {
		if err := r.engine.Run(); err != nil {
			return nil, err
		}
	}

	for i, o := range outcomes {
		if !o.settled {
			log.Panicf("access %d did not finish", i)
		}
	}

	return outcomes, nil
}

// untranslated answers accesses of contexts that use physical addresses.
func (r *runner) untranslated(req *ptw.Request) outcome {
	o := outcome{res: ptw.Result{PAddr: req.VAddr}, bare: true, settled: true}

	if r.sys.pmp != nil {
		err := r.sys.pmp.Check(req.VAddr, 1, req.Mode, req.Ctx.Priv)
		if err != nil {
			o.err = vm.NewAccessFault(req.Mode, vm.FirstStage, req.VAddr, err)
		}
	}

	return o
}

func (r *runner) startTiming(req *ptw.Request, o *outcome, squash bool) {
	req.Translation = ptw.TranslationFunc{
		IsSquashed: func() bool { return squash },
		OnFinish: func(_ *ptw.Request, res ptw.Result, err error) {
			o.res = res
			o.err = err
			o.at = r.engine.CurrentTime()
			o.squash = squash
			o.settled = true
			r.progress.Finish(1)
		},
	}

	r.walker.StartTiming(req)
}

func printOutcomes(out io.Writer, s *scenario, outcomes []outcome) {
	for i, o := range outcomes {
		a := s.Accesses[i]
		prefix := fmt.Sprintf("%-7s %#012x", a.Mode, uint64(a.VAddr))

		switch {
		case o.squash:
			fmt.Fprintf(out, "%s -> squashed\n", prefix)
		case o.err != nil:
			fmt.Fprintf(out, "%s -> fault: %v\n", prefix, o.err)
		case o.bare:
			fmt.Fprintf(out, "%s -> %#012x bare\n", prefix, o.res.PAddr)
		default:
			fmt.Fprintf(out, "%s -> %#012x %s%s\n", prefix, o.res.PAddr,
				pageSizeName(o.res.Entry.LogBytes), detail(o))
		}
	}
}

func detail(o outcome) string {
	switch {
	case o.res.TLBHit:
		return " tlb-hit"
	case o.at > 0:
		return fmt.Sprintf(" reads=%d at=%.2fns", o.res.NumReads, float64(o.at)*1e9)
	case o.res.Latency > 0:
		return fmt.Sprintf(" reads=%d latency=%d", o.res.NumReads, o.res.Latency)
	default:
		return fmt.Sprintf(" reads=%d", o.res.NumReads)
	}
}

func pageSizeName(logBytes uint) string {
	switch logBytes {
	case vm.LogBytesAtLevel(0):
		return "4K"
	case vm.PageShift + vm.NapotShift:
		return "64K"
	case vm.LogBytesAtLevel(1):
		return "2M"
	case vm.LogBytesAtLevel(2):
		return "1G"
	}

	return fmt.Sprintf("2^%d", logBytes)
}

func printStats(out io.Writer, r *runner) {
	st := r.walker.Stats()

	fmt.Fprintf(out, "walks: 4K=%d 64K=%d 2M=%d 1G=%d\n",
		st.Walks4K, st.Walks64K, st.Walks2M, st.Walks1G)
	fmt.Fprintf(out, "tlb hits: %d, faults: %d, squashes: %d, retries: %d\n",
		st.TLBHits, st.Faults, st.Squashes, st.Retries)
	fmt.Fprintf(out, "pte reads: %d, pte writes: %d\n",
		st.PTEReads, st.PTEWrites)

	if r.mode != "timing" || r.latency.TotalCount() == 0 {
		return
	}

	fmt.Fprintf(out, "walk time: average %.2fns, max %.2fns over %d walks\n",
		float64(r.latency.AverageTime())*1e9,
		float64(r.latency.MaxTime())*1e9,
		r.latency.TotalCount())

	if end := r.engine.CurrentTime(); end > 0 {
		fmt.Fprintf(out, "walks in flight on average: %.2f\n",
			float64(r.busy.TotalTime()/end))
	}

	for _, name := range r.steps.StepNames() {
		fmt.Fprintf(out, "step %s: %d times in %d walks\n",
			name, r.steps.StepCount(name), r.steps.TaskCount(name))
	}
}
