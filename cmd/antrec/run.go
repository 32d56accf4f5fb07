package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/arya-analytics/ant"
	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/kv"
	"github.com/arya-analytics/ant/record"
	"github.com/arya-analytics/ant/transport/usb"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var runFlags struct {
	config string
	data   string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the configured channels and print the data they receive",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		bindings, err := loadChannels(runFlags.config)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return run(ctx, logger, bindings)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.config, "config", "c", "channels.json5", "JSON5 file listing the channels to open")
	runCmd.Flags().StringVarP(&runFlags.data, "data", "d", "", "directory to record received data to")
}

func run(ctx context.Context, logger *zap.Logger, bindings []binding) (err error) {
	var rec *record.Recorder
	if runFlags.data != "" {
		var engine kv.PebbleEngine
		if engine, err = kv.OpenPebble(runFlags.data, nil); err != nil {
			return err
		}
		defer func() { err = errors.CombineErrors(err, engine.Close()) }()
		configs := make(map[byte]channel.Config, len(bindings))
		for _, b := range bindings {
			configs[b.number] = b.config
		}
		if rec, err = record.New(engine, configs, record.WithLogger(logger)); err != nil {
			return err
		}
		defer func() { err = errors.CombineErrors(err, rec.Close()) }()
	}

	d := ant.Open(usb.Opener(usb.WithLogger(logger)), ant.WithLogger(logger))
	for _, b := range bindings {
		if err = d.OpenChannel(ctx, b.number, b.config); err != nil {
			return errors.CombineErrors(err, d.Close())
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		p := pump{bindings: bindings, recorder: rec, logger: logger}
		return p.run(ctx, d.Events())
	})
	g.Go(func() error {
		<-ctx.Done()
		return d.Close()
	})
	return g.Wait()
}

type pump struct {
	bindings []binding
	recorder *record.Recorder
	logger   *zap.Logger
}

// run handles events until the dongle closes its event stream.
func (p pump) run(ctx context.Context, events <-chan ant.Event) error {
	for ev := range events {
		switch ev := ev.(type) {
		case ant.BroadcastData:
			p.broadcast(ctx, ev)
		case ant.ErrorEvent:
			p.logger.Warn("dongle error", zap.Error(ev.Err))
		case ant.Response:
			p.logger.Info("dongle response", zap.Stringer("response", ev.Response))
		}
	}
	return nil
}

func (p pump) broadcast(ctx context.Context, b ant.BroadcastData) {
	for _, bd := range p.bindings {
		if bd.number != b.Channel {
			continue
		}
		if err := bd.device.Decode(b.Data); err != nil {
			p.logger.Debug("undecoded page", zap.Uint8("channel", b.Channel), zap.Error(err))
		} else {
			p.logger.Info("sensor", zap.Uint8("channel", b.Channel), zap.Stringer("device", bd.device))
		}
	}
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, record.Sample{Channel: b.Channel, Data: b.Data}); err != nil && ctx.Err() == nil {
		p.logger.Error("failed to record sample", zap.Error(err))
	}
}
