package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/san-kum/aethersim/internal/automaton"
	"github.com/san-kum/aethersim/internal/backup"
	"github.com/san-kum/aethersim/internal/export"
	"github.com/san-kum/aethersim/internal/grid"
	"github.com/san-kum/aethersim/internal/metrics"
	"github.com/san-kum/aethersim/internal/rules"
	"github.com/san-kum/aethersim/internal/sim"
	"github.com/san-kum/aethersim/internal/storage"
	"github.com/san-kum/aethersim/internal/viz"
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func listRuns(cmd *cobra.Command, args []string) error {
	var runs []storage.RunMetadata
	var err error
	if filterRule != "" || filterDim != 0 || filterStable {
		index, err := storage.OpenIndex(indexPath())
		if err != nil {
			return err
		}
		defer index.Close()
		rule := filterRule
		if rule != "" {
			r, err := rules.Lookup(rule)
			if err != nil {
				return err
			}
			rule = r.Name()
		}
		runs, err = index.Query(storage.Filter{Rule: rule, Dim: filterDim, StableOnly: filterStable})
		if err != nil {
			return err
		}
	} else {
		runs, err = storage.New(dataDir).List()
		if err != nil {
			return err
		}
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONFIG\tTIME\tSTEPS\tSTABLE\tELAPSED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\t%.2fs\n",
			run.ID,
			run.SubFolder,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Stable,
			run.Elapsed,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(meta.SubFolder))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", meta.ID)
	fmt.Fprintf(w, "started\t%s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	if meta.ResumedFrom != "" {
		fmt.Fprintf(w, "resumed from\t%s\n", meta.ResumedFrom)
	}
	fmt.Fprintf(w, "steps\t%d\n", meta.Steps)
	fmt.Fprintf(w, "stable\t%v\n", meta.Stable)
	fmt.Fprintf(w, "elapsed\t%.2fs\n", meta.Elapsed)

	history, err := st.LoadSteps(meta.ID)
	if err == nil && len(history) > 0 {
		last := history[len(history)-1]
		fmt.Fprintf(w, "max x\t%d\n", last.MaxX)
		fmt.Fprintf(w, "excess\t%d\n", last.Excess)
		fmt.Fprintf(w, "range\t%d..%d\n", last.MinValue, last.MaxValue)
		fmt.Fprintf(w, "non-background\t%d\n", last.NonBackground)
		if toppled, err := viz.Series(history, "toppled"); err == nil {
			fmt.Fprintf(w, "toppled\t%s\n", viz.Sparkline(toppled, 40))
		}
	}
	for _, name := range sortedKeys(meta.Metrics) {
		fmt.Fprintf(w, "%s\t%.6f\n", name, meta.Metrics[name])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if steps, err := backup.List(filepath.Join(backupRoot(), meta.SubFolder)); err == nil && len(steps) > 0 {
		fmt.Printf("backups: %v\n", steps)
		a, err := loadFinal(meta)
		if err != nil {
			return err
		}
		defer a.Close()
		line, err := latticeSummary(a)
		if err != nil {
			return err
		}
		fmt.Println(line)
	}
	return nil
}

// latticeSummary describes every point of g within its bounds.
func latticeSummary(g grid.Grid) (string, error) {
	s, err := grid.Summarize(g)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("lattice: %d points, sum %d, range %d..%d, nonzero %d",
		s.Cells, s.Sum, s.Min, s.Max, s.NonZero), nil
}

// seriesSVG draws one statistic of history as an svg line chart.
func seriesSVG(history []automaton.Stats, field string, width, height int) (string, error) {
	series, err := viz.Series(history, field)
	if err != nil {
		return "", err
	}
	svg := export.SeriesToSVG(series, width, height, "#00ffff")
	if svg == "" {
		return "", fmt.Errorf("need at least two steps to draw %s", field)
	}
	return svg, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	history, err := st.LoadSteps(meta.ID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("config: %s\n", meta.SubFolder)
	fmt.Printf("steps: %d\n\n", len(history))

	graph, err := viz.Plot(history, plotField, plotWidth, plotHeight)
	if err != nil {
		return err
	}
	fmt.Println(graph)

	if plotSVG != "" {
		svg, err := seriesSVG(history, plotField, plotWidth*10, plotHeight*25)
		if err != nil {
			return err
		}
		if err := os.WriteFile(plotSVG, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", plotSVG)
	}
	return nil
}

// loadFinal restores the lattice a run ended with.
func loadFinal(meta *storage.RunMetadata) (*automaton.Automaton, error) {
	dir := filepath.Join(backupRoot(), meta.SubFolder)
	path := filepath.Join(dir, backup.FileName(meta.Steps))
	if _, err := os.Stat(path); err != nil {
		if path, err = backup.Latest(dir); err != nil {
			return nil, err
		}
	}
	return backup.Load(path)
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if exportFormat == "stats" {
		history, err := st.LoadSteps(meta.ID)
		if err != nil {
			return err
		}
		return export.WriteStatsJSON(out, history)
	}

	a, err := loadFinal(meta)
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := view(a)
	if err != nil {
		return err
	}

	switch exportFormat {
	case "json":
		s, err := export.NewSection(a.SubFolderPath(), a.Step(), g)
		if err != nil {
			return err
		}
		return export.WriteJSON(out, s)
	case "csv":
		return export.WriteCSV(out, g)
	case "svg":
		for g.Dim() > 2 {
			if g, err = grid.CrossSection(g, g.Dim()-1, 0); err != nil {
				return err
			}
		}
		svg, err := export.GridToSVG(g, exportScale)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, svg)
		return err
	default:
		return fmt.Errorf("unknown format: %s", exportFormat)
	}
}

// view applies the export flags to a.
func view(a *automaton.Automaton) (grid.Grid, error) {
	var g grid.Grid = a
	var err error
	if exportRadius > 0 {
		if g, err = grid.Region(g, grid.Cube(g.Dim(), exportRadius)); err != nil {
			return nil, err
		}
	}
	if exportAxis >= 0 {
		if g, err = grid.CrossSection(g, exportAxis, exportAt); err != nil {
			return nil, err
		}
	}
	if len(exportDiag) > 0 {
		if len(exportDiag) != 3 {
			return nil, errors.New("diagonal needs a,b,offset")
		}
		if g, err = grid.Diagonal(g, exportDiag[0], exportDiag[1], exportDiag[2]); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func benchRule(cmd *cobra.Command, args []string) error {
	rule, err := rules.Lookup(args[0])
	if err != nil {
		return err
	}

	limit := benchJobs
	if limit == 0 {
		limit = len(benchDims)
	}
	e := sim.NewEnsemble(limit, log.New(io.Discard, "", 0))
	for _, d := range benchDims {
		d := d
		e.Add(sim.Job{
			Build: func() (*automaton.Automaton, error) {
				return automaton.New(rule, d, initial)
			},
			Config:  sim.Config{MaxSteps: steps, UntilStable: true},
			Metrics: func() []sim.Metric { return []sim.Metric{metrics.NewActivity()} },
		})
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("benchmarking %s from %d", rule.Name(), initial)))
	results, err := e.Run(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONFIG\tSTEPS\tMAX X\tTIME\tSTEPS/SEC\tACTIVITY")
	for _, r := range results {
		final := r.Final()
		fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%.0f\t%.2f\n",
			r.Name, r.StepsTaken, final.MaxX, r.Elapsed,
			float64(r.StepsTaken)/r.Elapsed.Seconds(), r.Metrics["activity"])
	}
	return w.Flush()
}
