package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gaintune/internal/config"
	"github.com/san-kum/gaintune/internal/export"
	"github.com/san-kum/gaintune/internal/plant"
	"github.com/san-kum/gaintune/internal/storage"
	"github.com/spf13/cobra"
)

func store() *storage.Store {
	if dataDir != "" {
		return storage.New(dataDir)
	}
	return storage.New(config.DefaultDataDir)
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := store().List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLANT\tTIME\tTRIALS\tAVG\tBEST\tDURATION")
	for _, run := range runs {
		best := "-"
		if run.Best != nil {
			best = run.Best.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%.2f\n",
			run.ID,
			run.Plant,
			run.Start.Local().Format("2006-01-02 15:04:05"),
			run.Trials,
			run.TrialsPerCandidate,
			best,
			run.BestDuration,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := store()
	runID := "latest"
	if len(args) > 0 {
		runID = args[0]
	}
	if runID == "latest" {
		id, err := st.Latest()
		if err != nil {
			return err
		}
		runID = id
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	results, err := st.LoadTrials(runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "plant: %s (%s, dt=%g, seed=%d)\n", meta.Plant, meta.Integrator, meta.Dt, meta.Seed)
	fmt.Fprintf(out, "start gains: %s\n", meta.StartGains.String())
	if sum, err := st.LoadSummary(runID); err == nil {
		fmt.Fprintf(out, "best: %s\n", sum.Best.String())
		fmt.Fprintf(out, "best duration: %.2f\n", sum.BestDuration)
	}

	stats := storage.ComputeStats(results)
	fmt.Fprintf(out, "trials: %d, candidates: %d, accepted: %d, overrides: %d\n",
		len(results), stats.Candidates, stats.Accepted, stats.Overrides)
	if stats.Candidates == 0 {
		return nil
	}
	fmt.Fprintf(out, "duration: mean %.2f, stddev %.2f, min %.2f, max %.2f\n\n",
		stats.Mean, stats.StdDev, stats.Min, stats.Max)

	ceiling := stats.Max
	if meta.BestDuration > ceiling {
		ceiling = meta.BestDuration
	}
	series := []struct {
		data    []float64
		caption string
	}{
		{storage.DurationSeries(results), "candidate duration (ticks)"},
		{storage.BestSeries(results, ceiling), "best duration (ticks)"},
	}
	for _, s := range series {
		if len(s.data) < 2 {
			continue
		}
		graph := asciigraph.Plot(s.data,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption(s.caption),
		)
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}

	if svgOut != "" {
		svg := export.ChartSVG([]export.Series{
			{Name: "duration", Color: "#00d7ff", Data: series[0].data},
			{Name: "best", Color: "#ffaf00", Data: series[1].data},
		}, 800, 400)
		if svg == "" {
			return fmt.Errorf("not enough candidates to chart")
		}
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", svgOut)
	}
	return nil
}

func listPlants(cmd *cobra.Command, args []string) error {
	reg := plant.NewRegistry()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLANT\tTARGET\tSPREAD\tPRESETS\tDESCRIPTION")
	for _, name := range reg.List() {
		e, err := reg.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%g\t%g\t%s\t%s\n",
			name,
			e.Defaults.Target,
			e.Defaults.RandomSpread,
			strings.Join(config.ListPresets(name), ","),
			e.Description,
		)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	names := config.ListPresets(args[0])
	if len(names) == 0 {
		fmt.Fprintf(out, "no presets for plant: %s\n", args[0])
		return nil
	}
	sort.Strings(names)
	fmt.Fprintf(out, "presets for %s:\n", args[0])
	for _, p := range names {
		c := config.GetPreset(args[0], p)
		fmt.Fprintf(out, "  %-10s target=%g trials=%d averaging=%d\n",
			p, c.PlantParams.Target, c.Tuner.MaxTrials, c.Tuner.TrialsPerCandidate)
	}
	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		plantName, name, ok := strings.Cut(preset, "/")
		if !ok {
			return fmt.Errorf("preset must be plant/name, got %q", preset)
		}
		cfg = config.GetPreset(plantName, name)
		if cfg == nil {
			return fmt.Errorf("unknown preset %q", preset)
		}
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
	return nil
}
