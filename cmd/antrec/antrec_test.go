package main

import (
	"bytes"
	"context"
	"time"

	"github.com/arya-analytics/ant"
	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/device"
	"github.com/arya-analytics/ant/kv"
	"github.com/arya-analytics/ant/record"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

var _ = Describe("Antrec", func() {
	Describe("parseChannels", func() {
		It("Should parse a JSON5 channel list", func() {
			bindings, err := parseChannels([]byte(`{
				// chest strap
				channels: [
					{ number: 0, profile: "hrm" },
					{ number: 3, profile: "power", device: 4242, transmission: 5 },
				],
			}`))
			Expect(err).ToNot(HaveOccurred())
			Expect(bindings).To(HaveLen(2))
			Expect(bindings[0].number).To(Equal(byte(0)))
			Expect(bindings[0].config.DeviceType).To(Equal(device.HeartRateMonitorType))
			Expect(bindings[1].number).To(Equal(byte(3)))
			Expect(bindings[1].config.DeviceID).To(Equal(uint16(4242)))
			Expect(bindings[1].config.TransmissionType).To(Equal(byte(5)))
		})
		DescribeTable("Invalid configs", func(cfg string) {
			_, err := parseChannels([]byte(cfg))
			Expect(err).To(HaveOccurred())
		},
			Entry("Malformed", `{ channels: [`),
			Entry("Empty", `{ channels: [] }`),
			Entry("Out of range", `{ channels: [{ number: 8, profile: "hrm" }] }`),
			Entry("Duplicate", `{ channels: [{ number: 1, profile: "hrm" }, { number: 1, profile: "power" }] }`),
			Entry("Unknown profile", `{ channels: [{ number: 1, profile: "radar" }] }`),
		)
	})

	Describe("pump and dump", func() {
		var engine kv.PebbleEngine
		BeforeEach(func() {
			var err error
			engine, err = kv.OpenMemPebble()
			Expect(err).ToNot(HaveOccurred())
		})
		AfterEach(func() { Expect(engine.Close()).To(Succeed()) })

		It("Should record broadcast data and print it back decoded", func() {
			bindings, err := parseChannels([]byte(`{ channels: [{ number: 0, profile: "hrm" }] }`))
			Expect(err).ToNot(HaveOccurred())
			rec, err := record.New(engine, map[byte]channel.Config{0: bindings[0].config})
			Expect(err).ToNot(HaveOccurred())

			events := make(chan ant.Event, 3)
			events <- ant.BroadcastData{Channel: 0, Data: [8]byte{0x00, 0xFF, 0xFF, 0xFF, 0x00, 0x04, 0x01, 0x48}}
			events <- ant.ErrorEvent{Err: context.DeadlineExceeded}
			events <- ant.BroadcastData{Channel: 0, Data: [8]byte{0x10}}
			close(events)
			p := pump{bindings: bindings, recorder: rec, logger: zap.NewNop()}
			Expect(p.run(context.Background(), events)).To(Succeed())
			Expect(rec.Close()).To(Succeed())

			out := new(bytes.Buffer)
			Expect(listSessions(out, engine)).To(Succeed())
			Expect(out.String()).To(ContainSubstring(rec.Session().Key.String()))

			out.Reset()
			Expect(dumpSession(out, engine, rec.Session().Key)).To(Succeed())
			lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
			Expect(lines).To(HaveLen(2))
			Expect(string(lines[0])).To(ContainSubstring("72"))
			Expect(string(lines[1])).To(ContainSubstring("10 00 00 00 00 00 00 00"))
		})
		It("Should print nothing for a session without samples", func() {
			rec, err := record.New(engine, nil, record.WithFlushInterval(time.Millisecond))
			Expect(err).ToNot(HaveOccurred())
			Expect(rec.Close()).To(Succeed())
			out := new(bytes.Buffer)
			Expect(dumpSession(out, engine, rec.Session().Key)).To(Succeed())
			Expect(out.String()).To(BeEmpty())
		})
	})
})
