package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"

	"hpfold/internal/energy"
	"hpfold/internal/lattice"
	"hpfold/internal/model"
	"hpfold/internal/render"
	"hpfold/internal/stats"
	"hpfold/pkg/hpfold"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "render":
		return runRender(ctx, args[1:])
	case "delete":
		return runDelete(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	common := addCommonFlags(fs)
	sequence := fs.String("sequence", "", "H/P or amino-acid sequence")
	steps := fs.Int("steps", 0, "number of Metropolis steps")
	temperature := fs.Float64("temperature", 0, "initial temperature")
	annealing := fs.Bool("annealing", false, "lower the temperature linearly over the run")
	seed := fs.String("seed", "", "rng seed, or none for a random one")
	structure := fs.String("structure", "", "initial structure as [[x,y],...]; linear when empty")
	snapshots := fs.Bool("snapshots", false, "record about 100 structure snapshots")
	maxFoldAttempts := fs.Int("max-fold-attempts", 0, "fold draws allowed per step (0 uses the default)")
	contactEnergy := fs.Float64("contact-energy", energy.DefaultContactEnergy, "energy of one H-H contact, must be > 0")
	plotWindow := fs.Int("plot-window", 10, "steps averaged per plot point")
	view := fs.String("view", "final", "structure printed after the run: final|min-energy|max-compactness|none")
	metricsFile := fs.String("metrics-file", "", "write Prometheus metrics in text format to this path")
	quiet := fs.Bool("quiet", false, "suppress progress output")
	watch := fs.Bool("watch", false, "render the current structure with each progress line")
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, set, err := common.resolve(fs)
	if err != nil {
		return err
	}
	if err := overrideFromFlags(&cfg, set, map[string]any{
		"sequence":          *sequence,
		"steps":             *steps,
		"temperature":       *temperature,
		"annealing":         *annealing,
		"seed":              *seed,
		"structure":         *structure,
		"snapshots":         *snapshots,
		"max-fold-attempts": *maxFoldAttempts,
		"contact-energy":    *contactEnergy,
	}); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Sequence == "" {
		return errors.New("run requires a sequence (--sequence or config file)")
	}
	if _, err := structureView(*view, stats.Structures{}); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	var registry *prometheus.Registry
	var registerer prometheus.Registerer
	if *metricsFile != "" {
		registry = prometheus.NewRegistry()
		registerer = registry
	}
	client, err := newClient(cfg, logger, registerer)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runSeed := cfg.Seed.Resolve()
	if cfg.Seed.Random {
		fmt.Fprintf(os.Stderr, "random seed used: %d\n", runSeed)
	}

	req := hpfold.RunRequest{
		Sequence:        cfg.Sequence,
		Structure:       cfg.Structure,
		Steps:           cfg.Steps,
		Temperature:     cfg.Temperature,
		Annealing:       cfg.Annealing,
		Seed:            runSeed,
		Snapshots:       cfg.Snapshots,
		MaxFoldAttempts: cfg.MaxFoldAttempts,
		ContactEnergy:   cfg.ContactEnergy,
		PlotWindow:      *plotWindow,
	}
	if !*quiet {
		watchSeq, _, _ := lattice.ParseSequence(cfg.Sequence)
		req.OnProgress = func(p hpfold.Progress) {
			fmt.Fprintf(os.Stderr, "progress %s/%s steps (%d%%) energy=%.1f\n",
				humanize.Comma(int64(p.Step)), humanize.Comma(int64(p.Steps)), p.Step*100/p.Steps, p.Energy)
			if *watch {
				if grid, err := render.Conformation(watchSeq, p.Current, render.Options{}); err == nil {
					fmt.Fprint(os.Stderr, grid)
				}
			}
		}
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	if registry != nil {
		if err := prometheus.WriteToTextfile(*metricsFile, registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if *jsonOut {
		return writeJSON(summary)
	}

	s := summary.Summary
	fmt.Printf("run completed run_id=%s sequence=%s steps=%s seed=%d annealing=%t\n",
		summary.RunID, summary.Sequence, humanize.Comma(int64(s.Steps)), summary.Seed, cfg.Annealing)
	if summary.Converted {
		fmt.Printf("converted_from=%s\n", cfg.Sequence)
	}
	fmt.Printf("final_energy=%.1f min_energy=%.1f min_energy_step=%d compactness_at_min_energy=%.3f\n",
		s.FinalEnergy, s.MinEnergy, s.MinEnergyStep, s.CompactnessAtMinEnergy)
	fmt.Printf("max_compactness=%d max_compactness_step=%d energy_at_max_compactness=%.1f\n",
		s.MaxCompactness, s.MaxCompactnessStep, s.EnergyAtMaxCompactness)
	fmt.Printf("accepted_moves=%s acceptance_rate=%.3f mean_fold_attempts=%.2f final_temperature=%.4f\n",
		humanize.Comma(int64(s.AcceptedMoves)), s.AcceptanceRate, s.MeanFoldAttempts, s.FinalTemperature)
	fmt.Printf("elapsed=%s\n", summary.Duration.Round(time.Millisecond))

	conf, err := structureView(*view, summary.Structures)
	if err != nil {
		return err
	}
	if conf != nil {
		grid, err := render.Conformation(lattice.MustSequence(summary.Sequence), conf, render.Options{Color: colorEnabled("auto")})
		if err != nil {
			return err
		}
		fmt.Printf("%s structure:\n%s", *view, grid)
	}
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	common := addCommonFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := common.client(fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, hpfold.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(items)
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, item := range items {
		age := item.CreatedAtUTC
		if created, err := time.Parse(time.RFC3339Nano, item.CreatedAtUTC); err == nil {
			age = humanize.Time(created)
		}
		fmt.Printf("run_id=%s created=%q sequence=%s steps=%s temperature=%g annealing=%t seed=%d min_energy=%.1f max_compactness=%d\n",
			item.RunID,
			age,
			item.Sequence,
			humanize.Comma(int64(item.Steps)),
			item.Temperature,
			item.Annealing,
			item.Seed,
			item.MinEnergy,
			item.MaxCompactness,
		)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	common := addCommonFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the most recent run")
	jsonOut := fs.Bool("json", false, "emit the run as JSON")
	history := fs.Bool("history", false, "include the per-step series")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelection(*runID, *latest); err != nil {
		return err
	}

	client, err := common.client(fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	shown, err := client.Show(ctx, hpfold.ShowRequest{RunID: *runID, Latest: *latest, History: *history})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(shown)
	}

	r := shown.Record
	fmt.Printf("run_id=%s sequence=%s steps=%s temperature=%g annealing=%t seed=%d\n",
		r.RunID, r.Sequence, humanize.Comma(int64(r.Steps)), r.Temperature, r.Annealing, r.Seed)
	fmt.Printf("final_energy=%.1f min_energy=%.1f max_compactness=%d accepted_moves=%s\n",
		r.FinalEnergy, r.MinEnergy, r.MaxCompactness, humanize.Comma(int64(r.AcceptedMoves)))
	if shown.Summary.Steps > 0 {
		fmt.Printf("min_energy_step=%d max_compactness_step=%d acceptance_rate=%.3f energy_std=%.3f\n",
			shown.Summary.MinEnergyStep, shown.Summary.MaxCompactnessStep, shown.Summary.AcceptanceRate, shown.Summary.EnergyStd)
	}
	if p := shown.Plots; len(p.Energy) > 0 {
		fmt.Printf("energy_plot window=%d averaged=%t points=%d first=%.3f last=%.3f\n",
			p.Window, p.Averaged, len(p.Energy), p.Energy[0].Value, p.Energy[len(p.Energy)-1].Value)
	}
	if len(shown.Structures.MinEnergy) > 0 {
		seq, _, err := lattice.ParseSequence(shown.Structures.Sequence)
		if err != nil {
			return err
		}
		grid, err := render.Conformation(seq, shown.Structures.MinEnergy, render.Options{Color: colorEnabled("auto")})
		if err != nil {
			return err
		}
		fmt.Printf("min-energy structure:\n%s", grid)
	}
	for _, row := range shown.Series {
		fmt.Printf("step=%d temperature=%.4f energy=%.1f compactness=%d fold_attempts=%d\n",
			row.Step, row.Temperature, row.Energy, row.Compactness, row.FoldAttempts)
	}
	if r.ArtifactsDir != "" {
		fmt.Printf("artifacts_dir=%s\n", r.ArtifactsDir)
	}
	return nil
}

func runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	common := addCommonFlags(fs)
	runID := fs.String("run-id", "", "run id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("delete requires --run-id")
	}

	client, err := common.client(fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Delete(ctx, hpfold.DeleteRequest{RunID: *runID}); err != nil {
		return err
	}
	fmt.Printf("deleted run_id=%s\n", *runID)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	common := addCommonFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", "exports", "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelection(*runID, *latest); err != nil {
		return err
	}

	client, err := common.client(fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, hpfold.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	size, err := dirSize(exported.Directory)
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s size=%s\n", exported.RunID, exported.Directory, humanize.Bytes(size))
	return nil
}

func runRender(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	common := addCommonFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "render the most recent run")
	which := fs.String("which", "final", "structure to render: final|min-energy|max-compactness|snapshots")
	color := fs.String("color", "auto", "color output: auto|always|never")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelection(*runID, *latest); err != nil {
		return err
	}
	switch *color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("unsupported color mode: %s", *color)
	}

	cfg, _, err := common.resolve(fs)
	if err != nil {
		return err
	}
	id := *runID
	if *latest {
		entries, err := stats.ListRunIndex(cfg.ArtifactsDir)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return errors.New("no runs available to render")
		}
		id = entries[0].RunID
	}

	structures, ok, err := stats.ReadStructures(cfg.ArtifactsDir, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", hpfold.ErrRunNotFound, id)
	}
	seq, _, err := lattice.ParseSequence(structures.Sequence)
	if err != nil {
		return err
	}
	opts := render.Options{Color: colorEnabled(*color)}

	if *which == "snapshots" {
		if len(structures.Snapshots) == 0 {
			return fmt.Errorf("run %s recorded no snapshots", id)
		}
		return render.Frames(os.Stdout, seq, structures.Snapshots, opts)
	}
	conf, err := structureView(*which, structures)
	if err != nil {
		return err
	}
	if conf == nil {
		return fmt.Errorf("unsupported structure: %s", *which)
	}
	grid, err := render.Conformation(seq, conf, opts)
	if err != nil {
		return err
	}
	fmt.Print(grid)
	return nil
}

func structureView(name string, structures stats.Structures) (model.Conformation, error) {
	switch name {
	case "final":
		return structures.Final, nil
	case "min-energy":
		return structures.MinEnergy, nil
	case "max-compactness":
		return structures.MaxCompactness, nil
	case "none", "snapshots":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported structure view: %s", name)
	}
}

func checkRunSelection(runID string, latest bool) error {
	if runID != "" && latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if runID == "" && !latest {
		return errors.New("requires --run-id or --latest")
	}
	return nil
}

func colorEnabled(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		fd := os.Stdout.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
}

func dirSize(dir string) (uint64, error) {
	var total uint64
	err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += uint64(info.Size())
		return nil
	})
	return total, err
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: hpfoldctl <run|runs|show|export|render|delete> [flags]", msg)
}
