package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/mastercactapus/gcsim/machine"
	"github.com/mastercactapus/gcsim/program"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (c *cli) newServeCmd() *cobra.Command {
	var (
		addr    string
		dataDir string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.cfg.Addr = addr
			}
			if cmd.Flags().Changed("dir") {
				c.cfg.DataDir = dataDir
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return c.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9091", "Address to bind the server to")
	cmd.Flags().StringVar(&dataDir, "dir", "./data", "Data directory to use")
	return cmd
}

// playback drives the sequencer's time-based advance until ctx is done.
func playback(ctx context.Context, seq *program.Sequencer, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			seq.Update(now.Sub(last))
			last = now
		}
	}
}

func (c *cli) serve(ctx context.Context) error {
	m, rapidRate, closer, err := c.openMachine()
	if err != nil {
		return err
	}
	defer closer.Close()

	events := sse.NewServer(&sse.Options{
		Logger: log.New(c.log.WriterLevel(logrus.DebugLevel), "sse: ", 0),
	})
	r := &sseRenderer{sse: events, log: c.log}
	if rep, ok := m.(machine.Reporter); ok {
		go r.forwardState(rep)
	}

	seq := program.New(
		program.WithMachine(m),
		program.WithRenderer(r),
		program.WithLogger(c.log),
		program.WithRapidRate(rapidRate),
	)
	seq.SetPlaybackSpeed(c.cfg.PlaybackSpeed)
	go playback(ctx, seq, c.cfg.Tick)

	a := newAPI(seq, m, c.cfg.DataDir, events, c.log)
	srv := &http.Server{
		Addr: c.cfg.Addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "*")
			c.log.WithField("remote", req.RemoteAddr).Debugf("%s %s", req.Method, req.URL.Path)
			a.ServeHTTP(w, req)
		}),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	c.log.WithFields(logrus.Fields{"addr": c.cfg.Addr, "machine": c.cfg.Machine}).Info("listening")
	err = srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
