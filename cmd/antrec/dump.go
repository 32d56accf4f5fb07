package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/arya-analytics/ant/device"
	"github.com/arya-analytics/ant/kv"
	"github.com/arya-analytics/ant/pk"
	"github.com/arya-analytics/ant/record"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var dumpFlags struct {
	data    string
	session string
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "List recorded sessions, or print the samples of one session",
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		engine, err := kv.OpenPebble(dumpFlags.data, nil)
		if err != nil {
			return err
		}
		defer func() { err = errors.CombineErrors(err, engine.Close()) }()
		if dumpFlags.session == "" {
			return listSessions(cmd.OutOrStdout(), engine)
		}
		key, err := pk.Parse(dumpFlags.session)
		if err != nil {
			return err
		}
		return dumpSession(cmd.OutOrStdout(), engine, key)
	},
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpFlags.data, "data", "d", "", "directory holding recorded data")
	dumpCmd.Flags().StringVarP(&dumpFlags.session, "session", "s", "", "session to print")
	_ = dumpCmd.MarkFlagRequired("data")
}

func listSessions(w io.Writer, engine kv.Engine) error {
	sessions, err := record.Sessions(engine)
	if err != nil {
		return err
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Start.Before(sessions[j].Start) })
	for _, s := range sessions {
		if _, err := fmt.Fprintf(w, "%s  %s  %d channels\n", s.Key, s.Start.Format(time.RFC3339), len(s.Channels)); err != nil {
			return err
		}
	}
	return nil
}

func dumpSession(w io.Writer, engine kv.Engine, key pk.PK) error {
	s, err := record.LoadSession(engine, key)
	if err != nil {
		return err
	}
	numbers := make([]int, 0, len(s.Channels))
	for n := range s.Channels {
		numbers = append(numbers, int(n))
	}
	sort.Ints(numbers)
	for _, n := range numbers {
		d, err := device.FromConfig(s.Channels[byte(n)])
		if err != nil {
			return err
		}
		samples, err := record.Samples(engine, key, byte(n))
		if err != nil {
			return err
		}
		for _, sample := range samples {
			line := fmt.Sprintf("% X", sample.Data)
			if d.Decode(sample.Data) == nil {
				line = d.String()
			}
			if _, err := fmt.Fprintf(w, "%s  ch%d  %s\n", sample.Time.Format(time.RFC3339Nano), n, line); err != nil {
				return err
			}
		}
	}
	return nil
}
