package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"

	"cosmossdk.io/log"

	"github.com/najoast/troupe/config"
	"github.com/najoast/troupe/core"
	"github.com/najoast/troupe/examples/counter"
	"github.com/najoast/troupe/logging"
	"github.com/najoast/troupe/serde"
)

type options struct {
	configFile string
	rounds     int
	format     string
	annotated  bool
	watch      bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("troupe", flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "configuration file (yaml or json)")
	fs.IntVar(&opts.rounds, "rounds", 3, "rounds carried by the initial Run message")
	fs.StringVar(&opts.format, "format", "", "dump format, yaml or json (overrides serde.format)")
	fs.BoolVar(&opts.annotated, "annotated", false, "declare members and parents as tagged unions")
	fs.BoolVar(&opts.watch, "watch", false, "re-run whenever the configuration file changes")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.rounds < 0 {
		return opts, fmt.Errorf("rounds must not be negative, got %d", opts.rounds)
	}
	if opts.watch && opts.configFile == "" {
		return opts, errors.New("-watch needs -config")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	provider, err := config.NewFileProvider(opts.configFile)
	if err != nil {
		return err
	}
	defer provider.Close()

	cfg, err := provider.Load()
	if err != nil {
		return err
	}
	if opts.format != "" {
		cfg.Serde.Format = opts.format
	}

	logger, closer, err := logging.Open(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	provider.SetLogger(logger)

	r, err := newRunner(cfg, opts, logger, stdout)
	if err != nil {
		return err
	}
	if err := r.once(); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	err = provider.Watch(ctx, func(old, next *config.Config) {
		r.reconfigure(old, next)
		if err := r.once(); err != nil {
			logger.Error("run failed after reload", "err", err)
		}
	})
	if err != nil {
		return err
	}
	logger.Info("watching configuration", "file", opts.configFile)
	<-ctx.Done()
	return nil
}

// runner owns one engine and registry and repeats the demonstration on
// request. Runs are serialized.
type runner struct {
	mu     sync.Mutex
	opts   options
	format serde.Format
	logger log.Logger
	engine *core.Engine
	reg    *serde.Registry
	out    io.Writer
}

func newRunner(cfg *config.Config, opts options, logger log.Logger, out io.Writer) (*runner, error) {
	mode := counter.Erasing
	if opts.annotated {
		mode = counter.Annotated
	}

	var regOpts []serde.Option
	if cfg.Serde.Strict {
		regOpts = append(regOpts, serde.Strict())
	}
	reg, err := counter.NewRegistry(mode, regOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s kinds: %w", mode, err)
	}
	if cfg.Serde.Audit {
		for _, f := range reg.Audit() {
			logger.Warn("erasing slot", "field", f.Kind+"."+f.Field, "slot", f.Slot)
		}
	}

	engineOpts := []core.Option{
		core.WithLogger(logger.With("module", "engine")),
		core.WithMaxSteps(cfg.Engine.MaxSteps),
	}
	if cfg.Engine.StrictReplies {
		engineOpts = append(engineOpts, core.WithStrictReplies())
	}

	return &runner{
		opts:   opts,
		format: serde.Format(cfg.Serde.Format),
		logger: logger,
		engine: core.NewEngine(engineOpts...),
		reg:    reg,
		out:    out,
	}, nil
}

// reconfigure applies the settings that can change without a restart.
func (r *runner) reconfigure(old, next *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, _ := config.Diff(old, next)
	for _, setting := range live {
		switch setting {
		case config.SettingMaxSteps:
			r.engine.SetMaxSteps(next.Engine.MaxSteps)
		case config.SettingDumpFormat:
			// -format wins over the file
			if r.opts.format == "" {
				r.format = serde.Format(next.Serde.Format)
			}
		}
	}
}

func (r *runner) once() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var network core.Grouped = counter.Default()
	if r.opts.annotated {
		network = counter.DefaultAnnotated()
	}
	origin := core.NewBaseActor()

	var last core.Message
	err := r.engine.Within(network, func(s *core.Scope) error {
		start := core.Send(&counter.Run{Rounds: r.opts.rounds}, origin.Addr(), network.Addr())
		fmt.Fprintf(r.out, "initial state: %s\n", stateOf(network))
		for m, err := range s.Propagate(start) {
			if err != nil {
				return err
			}
			fmt.Fprintf(r.out, "  %s\n", describe(m))
			last = m
		}
		fmt.Fprintf(r.out, "final state: %s\n", stateOf(network))
		return nil
	})
	if err != nil {
		return fmt.Errorf("propagation failed: %w", err)
	}

	if err := r.roundTripActor(network); err != nil {
		return err
	}
	if last == nil {
		return nil
	}
	return r.roundTripMessage(last)
}

func (r *runner) roundTripActor(network core.Grouped) error {
	n, err := core.DumpActor(r.reg, network)
	if err != nil {
		return fmt.Errorf("failed to dump network: %w", err)
	}
	decoded, err := r.encode("network", n)
	if err != nil {
		return err
	}
	loaded, err := core.LoadActor[core.Grouped](r.reg, decoded, serde.Exactly(network.Kind()))
	if err != nil {
		return fmt.Errorf("failed to reload network: %w", err)
	}

	fmt.Fprintln(r.out, "reloaded network:")
	printActor(r.out, loaded, "  ")
	fmt.Fprintf(r.out, "reloaded state: %s\n", stateOf(loaded))
	return nil
}

func (r *runner) roundTripMessage(m core.Message) error {
	n, err := core.DumpMessage(r.reg, m)
	if err != nil {
		return fmt.Errorf("failed to dump message: %w", err)
	}
	decoded, err := r.encode("last message", n)
	if err != nil {
		return err
	}
	loaded, err := core.LoadMessage[core.Message](r.reg, decoded, serde.Exactly(m.Kind()))
	if err != nil {
		return fmt.Errorf("failed to reload message: %w", err)
	}

	fmt.Fprintln(r.out, "reloaded ancestry:")
	next, stop := iter.Pull(core.Ancestry(m))
	defer stop()
	fmt.Fprintf(r.out, "  %s (was %s)\n", loaded.Kind(), m.Kind())
	for p := range core.Ancestry(loaded) {
		was := "?"
		if o, ok := next(); ok {
			was = o.Kind()
		}
		fmt.Fprintf(r.out, "  %s (was %s)\n", p.Kind(), was)
	}
	return nil
}

// encode renders n, prints it and parses it back.
func (r *runner) encode(what string, n serde.Node) (serde.Node, error) {
	data, err := serde.Encode(r.format, n)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", what, err)
	}
	fmt.Fprintf(r.out, "%s dump (%s):\n%s\n", what, r.format, strings.TrimRight(string(data), "\n"))
	r.logger.Debug("dumped", "what", what, "bytes", len(data))

	decoded, err := serde.Decode(r.format, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", what, err)
	}
	return decoded, nil
}

func describe(m core.Message) string {
	h := m.Head()
	switch v := m.(type) {
	case *counter.Increment:
		return fmt.Sprintf("%s round=%d %s -> %s", v.Kind(), v.Round, h.Sender, h.Receiver)
	default:
		return fmt.Sprintf("%s %s -> %s", m.Kind(), h.Sender, h.Receiver)
	}
}

func printActor(w io.Writer, a core.Actor, indent string) {
	fmt.Fprintf(w, "%s%s %s\n", indent, a.Kind(), a.Addr())
	g, ok := a.(core.Grouped)
	if !ok {
		return
	}
	for _, member := range g.Net().Members {
		printActor(w, member, indent+"  ")
	}
}

type stateful interface {
	State() (int, error)
}

func stateOf(a core.Actor) string {
	s, ok := a.(stateful)
	if !ok {
		return "n/a"
	}
	state, err := s.State()
	if err != nil {
		return "error: " + err.Error()
	}
	return fmt.Sprint(state)
}
