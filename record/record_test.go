package record_test

import (
	"context"
	"time"

	"github.com/arya-analytics/ant/alamos"
	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/device"
	"github.com/arya-analytics/ant/kv"
	"github.com/arya-analytics/ant/pk"
	"github.com/arya-analytics/ant/record"
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var errCommit = errors.New("commit failed")

type failingBatch struct{ kv.Batch }

func (failingBatch) Commit() error { return errCommit }

type failingEngine struct{ kv.PebbleEngine }

func (e failingEngine) NewBatch() kv.Batch { return failingBatch{e.PebbleEngine.NewBatch()} }

var _ = Describe("Recorder", func() {
	var (
		engine   kv.PebbleEngine
		channels map[byte]channel.Config
		ctx      = context.Background()
	)
	BeforeEach(func() {
		var err error
		engine, err = kv.OpenMemPebble()
		Expect(err).ToNot(HaveOccurred())
		hrm, err := device.New("hrm", 1234)
		Expect(err).ToNot(HaveOccurred())
		channels = map[byte]channel.Config{0: hrm.ChannelConfig()}
	})
	AfterEach(func() { Expect(engine.Close()).To(Succeed()) })

	sample := func(ch byte, offset time.Duration, b byte) record.Sample {
		return record.Sample{
			Channel: ch,
			Time:    time.Unix(1000, 0).Add(offset),
			Data:    [8]byte{b, b, b, b, b, b, b, b},
		}
	}

	Describe("Record", func() {
		It("Should persist samples in the order they were received", func() {
			r, err := record.New(engine, channels)
			Expect(err).ToNot(HaveOccurred())
			Expect(r.Record(ctx, sample(0, time.Second, 1), sample(0, 2*time.Second, 2))).To(Succeed())
			Expect(r.Record(ctx, sample(0, 2*time.Second, 3))).To(Succeed())
			Expect(r.Close()).To(Succeed())
			samples, err := record.Samples(engine, r.Session().Key, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(samples).To(HaveLen(3))
			Expect(samples[0].Data[0]).To(Equal(byte(1)))
			Expect(samples[1].Data[0]).To(Equal(byte(2)))
			Expect(samples[2].Data[0]).To(Equal(byte(3)))
			Expect(samples[2].Time).To(BeTemporally("==", time.Unix(1002, 0)))
		})
		It("Should separate samples by channel", func() {
			r, err := record.New(engine, channels)
			Expect(err).ToNot(HaveOccurred())
			Expect(r.Record(ctx, sample(0, 0, 1), sample(1, 0, 2), sample(0, time.Second, 3))).To(Succeed())
			Expect(r.Close()).To(Succeed())
			zero, err := record.Samples(engine, r.Session().Key, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(zero).To(HaveLen(2))
			one, err := record.Samples(engine, r.Session().Key, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(one).To(HaveLen(1))
			Expect(one[0].Channel).To(Equal(byte(1)))
		})
		It("Should separate samples by session", func() {
			a, err := record.New(engine, channels)
			Expect(err).ToNot(HaveOccurred())
			b, err := record.New(engine, channels)
			Expect(err).ToNot(HaveOccurred())
			Expect(a.Record(ctx, sample(0, 0, 1))).To(Succeed())
			Expect(a.Close()).To(Succeed())
			Expect(b.Close()).To(Succeed())
			samples, err := record.Samples(engine, b.Session().Key, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(samples).To(BeEmpty())
		})
		It("Should stamp samples without a time", func() {
			r, err := record.New(engine, channels)
			Expect(err).ToNot(HaveOccurred())
			before := time.Now()
			Expect(r.Record(ctx, record.Sample{Channel: 0})).To(Succeed())
			Expect(r.Close()).To(Succeed())
			samples, err := record.Samples(engine, r.Session().Key, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(samples).To(HaveLen(1))
			Expect(samples[0].Time).To(BeTemporally(">=", before))
		})
		It("Should write samples once the flush interval elapses", func() {
			r, err := record.New(engine, channels, record.WithFlushInterval(5*time.Millisecond))
			Expect(err).ToNot(HaveOccurred())
			Expect(r.Record(ctx, sample(0, 0, 1))).To(Succeed())
			Eventually(func() int {
				samples, err := record.Samples(engine, r.Session().Key, 0)
				Expect(err).ToNot(HaveOccurred())
				return len(samples)
			}).Should(Equal(1))
			Expect(r.Close()).To(Succeed())
		})
		It("Should return an error after the recorder is closed", func() {
			r, err := record.New(engine, channels)
			Expect(err).ToNot(HaveOccurred())
			Expect(r.Close()).To(Succeed())
			Expect(r.Close()).To(Succeed())
			Expect(r.Record(ctx, sample(0, 0, 1))).To(MatchError(record.ErrClosed))
		})
		It("Should return the error of a failed write on close", func() {
			exp := alamos.New("test")
			r, err := record.New(
				failingEngine{engine},
				channels,
				record.WithExperiment(exp),
				record.WithCloseTimeout(time.Second),
			)
			Expect(err).ToNot(HaveOccurred())
			Expect(r.Record(ctx, sample(0, 0, 1))).To(Succeed())
			Expect(r.Close()).To(MatchError(errCommit))
			Expect(exp.Report()["record"]).To(HaveKeyWithValue("flushes.failed", 1))
			samples, err := record.Samples(engine, r.Session().Key, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(samples).To(BeEmpty())
		})
		It("Should report the number of persisted samples", func() {
			exp := alamos.New("test")
			r, err := record.New(engine, channels, record.WithExperiment(exp))
			Expect(err).ToNot(HaveOccurred())
			Expect(r.Record(ctx, sample(0, 0, 1), sample(0, 0, 2))).To(Succeed())
			Expect(r.Close()).To(Succeed())
			Expect(exp.Report()["record"]).To(HaveKeyWithValue("samples.persisted", 2))
		})
	})

	Describe("Sessions", func() {
		It("Should store the channels of each session", func() {
			r, err := record.New(engine, channels)
			Expect(err).ToNot(HaveOccurred())
			Expect(r.Close()).To(Succeed())
			s, err := record.LoadSession(engine, r.Session().Key)
			Expect(err).ToNot(HaveOccurred())
			Expect(s.Key).To(Equal(r.Session().Key))
			Expect(s.Start).To(BeTemporally("==", r.Session().Start))
			Expect(s.Channels).To(Equal(channels))
		})
		It("Should list every session", func() {
			a, err := record.New(engine, channels)
			Expect(err).ToNot(HaveOccurred())
			b, err := record.New(engine, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(a.Close()).To(Succeed())
			Expect(b.Close()).To(Succeed())
			sessions, err := record.Sessions(engine)
			Expect(err).ToNot(HaveOccurred())
			keys := make([]pk.PK, len(sessions))
			for i, s := range sessions {
				keys[i] = s.Key
			}
			Expect(keys).To(ConsistOf(a.Session().Key, b.Session().Key))
		})
		It("Should return ErrNotFound for a missing session", func() {
			_, err := record.LoadSession(engine, pk.New())
			Expect(err).To(MatchError(kv.ErrNotFound))
		})
	})
})
