package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bijoor/site-tour-tools/internal/background"
	"github.com/bijoor/site-tour-tools/internal/exchange"
	"github.com/bijoor/site-tour-tools/internal/tour"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <tour>...",
		Short: "Check tour files and report reference problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				t, err := exchange.ReadFile(path)
				if err != nil {
					failed++
					a.printf("[-] %v\n", err)
					continue
				}
				warnings := exchange.Warnings(&t.Graph)
				for _, w := range warnings {
					a.printf("[!] %s: %v\n", path, w)
				}
				a.printf("[+++] %s: %q, %d POIs, %d paths, %d warnings\n", path, t.Name, len(t.POIs), len(t.Paths), len(warnings))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d tours failed validation", failed, len(args))
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format       string
		out          string
		noBackground bool
		noMetadata   bool
		compact      bool
	)
	cmd := &cobra.Command{
		Use:   "export [tour]",
		Short: "Convert a tour to json, yaml, svg or geojson",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exchange.ParseFormat(format)
			if err != nil {
				return err
			}
			t, _, err := a.loadTour(args)
			if err != nil {
				return err
			}
			if out == "" {
				out = exchange.GenerateExportPath(a.cfg.Tours.ExportDir, t.Name, f)
			}
			opts := exchange.Options{
				IncludeBackground: !noBackground,
				IncludeMetadata:   !noMetadata,
				Compact:           compact,
			}
			data, err := exchange.Export(t, f, opts)
			if err != nil {
				return err
			}
			if err := writeOutput(out, data); err != nil {
				return err
			}
			a.printf("[+++] Exported %s: %s\n", f, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json, yaml, svg or geojson")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output path (generated in the export dir when empty)")
	cmd.Flags().BoolVar(&noBackground, "no-background", false, "leave the background image url out")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "leave POI metadata out")
	cmd.Flags().BoolVar(&compact, "compact", false, "single line json")
	return cmd
}

func newNewCmd(a *app) *cobra.Command {
	var (
		name string
		url  string
		page int
		out  string
	)
	cmd := &cobra.Command{
		Use:   "new <floor plan>",
		Short: "Start an empty tour over a floor plan image or PDF page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bg, err := background.Probe(args[0], url, page)
			if err != nil {
				return err
			}
			if name == "" {
				base := filepath.Base(args[0])
				name = strings.TrimSuffix(base, filepath.Ext(base))
			}
			t := tour.NewTour(name, bg)
			if out == "" {
				out = exchange.GenerateExportPath(a.cfg.Tours.Dir, name, exchange.FormatJSON)
			}
			if err := exchange.WriteFile(t, out, exchange.DefaultOptions()); err != nil {
				return err
			}
			a.printf("[*] Background: %s (%gx%g)\n", bg.URL, bg.Width, bg.Height)
			a.printf("[+++] Created %s: %s\n", t.ID, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "tour name (defaults to the file name)")
	cmd.Flags().StringVar(&url, "url", "", "background url stored in the tour (defaults to the file name)")
	cmd.Flags().IntVar(&page, "page", 0, "page or image index inside a PDF or directory")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output path (generated in the tours dir when empty)")
	return cmd
}

func newBranchesCmd(a *app) *cobra.Command {
	var poi string
	cmd := &cobra.Command{
		Use:   "branches [tour]",
		Short: "List the segments a visitor could take from each POI",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := a.loadTour(args)
			if err != nil {
				return err
			}
			pois := t.POIs
			if poi != "" {
				p, ok := t.Graph.POI(poi)
				if !ok {
					return fmt.Errorf("%s: %w", poi, tour.ErrPOINotFound)
				}
				pois = []tour.POI{p}
			}
			none := func(string) bool { return false }
			for _, p := range pois {
				branches := t.Graph.Branches(p.ID, "", none)
				a.printf("[*] %s (%s): %d branches\n", p.ID, p.Label, len(branches))
				for _, b := range branches {
					dir := "forward"
					if b.Reverse {
						dir = "reverse"
					}
					a.printf("    %s %s\n", b.Segment.ID, dir)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&poi, "poi", "", "only this POI")
	return cmd
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}
