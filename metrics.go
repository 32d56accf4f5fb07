package ant

import "github.com/arya-analytics/ant/alamos"

type metrics struct {
	// decoded counts frames decoded into responses.
	decoded alamos.Metric[int]
	// rejected counts valid frames that could not be decoded.
	rejected alamos.Metric[int]
	// timeouts counts reads that timed out.
	timeouts alamos.Metric[int]
	// reopened counts channels the dongle closed that were opened again.
	reopened alamos.Metric[int]
	// restored counts channels configured again after the dongle restarted.
	restored alamos.Metric[int]
	// writes tracks the duration of each write to the dongle.
	writes alamos.Duration
}

func newMetrics(exp alamos.Experiment) metrics {
	return metrics{
		decoded:  alamos.NewCounter[int](exp, "frames.decoded"),
		rejected: alamos.NewCounter[int](exp, "frames.rejected"),
		timeouts: alamos.NewCounter[int](exp, "reads.timeout"),
		reopened: alamos.NewCounter[int](exp, "channels.reopened"),
		restored: alamos.NewCounter[int](exp, "channels.restored"),
		writes:   alamos.NewSeriesDuration(exp, "writes.duration"),
	}
}
