package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bijoor/site-tour-tools/internal/engine"
	"github.com/bijoor/site-tour-tools/internal/server"
	"github.com/bijoor/site-tour-tools/internal/tour"
)

func newPlayCmd(a *app) *cobra.Command {
	var (
		choices  []string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "play [tour]",
		Short: "Play a tour headless, printing visits as they happen",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := a.loadTour(args)
			if err != nil {
				return err
			}

			session := engine.NewSession(a.cfg, a.log,
				engine.WithPOIVisit(func(p tour.POI) { a.printf("[*] Visited %s (%s)\n", p.Label, p.ID) }),
			)
			defer session.Close()
			a.printf("[*] Playing %q: %d POIs, %d paths at x%.1f\n", t.Name, len(t.POIs), len(t.Paths), a.cfg.Playback.Speed)
			session.Load(t)

			g, ctx := errgroup.WithContext(cmd.Context())
			done := make(chan struct{})
			g.Go(func() error {
				defer close(done)
				return session.Run(ctx, engine.Script(choices...))
			})
			if interval > 0 {
				g.Go(func() error {
					report(ctx, done, interval, func() {
						st := session.Machine().Snapshot()
						a.printf("    %s segment %d %3.0f%% overall %3.0f%%\n",
							st.Phase, st.CurrentSegmentIndex, st.SegmentProgress*100, st.OverallProgress*100)
					})
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			st := session.Machine().Snapshot()
			a.printf("[+++] Tour complete: %d of %d POIs visited\n", len(st.VisitedPOIs), len(t.POIs))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&choices, "choose", nil, "segment ids to take at successive forks")
	cmd.Flags().DurationVar(&interval, "report", time.Second, "progress report interval, 0 to disable")
	cmd.Flags().Float64("speed", 0, "playback speed multiplier")
	cmd.Flags().Duration("segment-duration", 0, "time to traverse one segment at speed 1")
	a.bind(cmd.Flags(), "playback.speed", "speed")
	a.bind(cmd.Flags(), "playback.segment_duration", "segment-duration")
	return cmd
}

func report(ctx context.Context, done <-chan struct{}, every time.Duration, fn func()) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-t.C:
			fn()
		}
	}
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [tour]",
		Short: "Serve a playback session over HTTP and websocket",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session := engine.NewSession(a.cfg, a.log)
			defer session.Close()

			if len(args) > 0 {
				if _, err := session.LoadFile(args[0]); err != nil {
					return err
				}
				a.printf("[*] Loaded %s\n", args[0])
			}
			a.printf("[*] Serving on %s\n", a.cfg.Server.Addr)
			return server.New(session, a.cfg.Server, a.log).Run(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address")
	cmd.Flags().Bool("auto-start", false, "start playing as soon as a tour is loaded")
	a.bind(cmd.Flags(), "server.addr", "addr")
	a.bind(cmd.Flags(), "playback.auto_start", "auto-start")
	return cmd
}
