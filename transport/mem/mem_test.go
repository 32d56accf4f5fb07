package mem_test

import (
	"context"
	"time"

	"github.com/arya-analytics/ant/message"
	"github.com/arya-analytics/ant/transport"
	"github.com/arya-analytics/ant/transport/mem"
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Transport", func() {
	var t *mem.Transport
	BeforeEach(func() { t = mem.New() })
	AfterEach(func() { Expect(t.Close()).To(Succeed()) })
	Describe("Read", func() {
		It("Should return each injected buffer in a separate read", func() {
			t.Inject([]byte{1, 2, 3})
			t.Inject([]byte{4})
			buf := make([]byte, 64)
			n, err := t.Read(buf, time.Millisecond)
			Expect(err).ToNot(HaveOccurred())
			Expect(buf[:n]).To(Equal([]byte{1, 2, 3}))
			n, err = t.Read(buf, time.Millisecond)
			Expect(err).ToNot(HaveOccurred())
			Expect(buf[:n]).To(Equal([]byte{4}))
		})
		It("Should time out when nothing is queued", func() {
			_, err := t.Read(make([]byte, 64), time.Millisecond)
			Expect(err).To(MatchError(transport.ErrTimeout))
		})
		It("Should return the injected read error", func() {
			failure := errors.New("unplugged")
			t.FailReads(failure)
			_, err := t.Read(make([]byte, 64), time.Millisecond)
			Expect(err).To(MatchError(failure))
		})
		It("Should return ErrClosed once closed", func() {
			Expect(t.Close()).To(Succeed())
			_, err := t.Read(make([]byte, 64), time.Second)
			Expect(err).To(MatchError(transport.ErrClosed))
		})
	})
	Describe("Write", func() {
		It("Should log written frames", func() {
			b, err := message.OpenChannel(1).Encode()
			Expect(err).ToNot(HaveOccurred())
			n, err := t.Write(b, time.Second)
			Expect(err).ToNot(HaveOccurred())
			Expect(n).To(Equal(len(b)))
			Expect(t.Frames()).To(Equal([][]byte{b}))
			Expect(t.Written()).To(Equal([]message.Message{message.OpenChannel(1)}))
		})
		It("Should return the injected write error", func() {
			failure := errors.New("stalled")
			t.FailWrites(failure)
			_, err := t.Write([]byte{0}, time.Second)
			Expect(err).To(MatchError(failure))
			Expect(t.Frames()).To(BeEmpty())
		})
	})
	Describe("Dongle", func() {
		BeforeEach(func() {
			t.SetResponder(mem.Dongle(mem.DongleConfig{
				MaxChannels: 8,
				MaxNetworks: 3,
				Devices:     map[byte]message.ChannelID{2: {Channel: 2, DeviceID: 0x0102, DeviceType: 0x78}},
			}))
		})
		write := func(m message.Message) {
			b, err := m.Encode()
			Expect(err).ToNot(HaveOccurred())
			_, err = t.Write(b, time.Second)
			Expect(err).ToNot(HaveOccurred())
		}
		read := func() message.Response {
			buf := make([]byte, message.RecommendedBufferSize)
			n, err := t.Read(buf, 10*time.Millisecond)
			Expect(err).ToNot(HaveOccurred())
			res, err := message.NewReader(buf[:n]).Next()
			Expect(err).ToNot(HaveOccurred())
			return res
		}
		It("Should start up after a reset", func() {
			write(message.Reset())
			Expect(read()).To(Equal(message.Startup{Code: byte(message.StartupCommand)}))
		})
		It("Should acknowledge configuration commands", func() {
			write(message.AssignChannel(2, 0, 1))
			Expect(read()).To(Equal(message.ChannelResponse{
				Channel:   2,
				MessageID: message.IDAssignChannel,
				Code:      message.ResponseNoError,
			}))
		})
		It("Should report the channel closed after closing it", func() {
			write(message.CloseChannel(2))
			Expect(read()).To(Equal(message.ChannelResponse{Channel: 2, MessageID: message.IDCloseChannel}))
			Expect(read()).To(Equal(message.ChannelResponse{
				Channel:   2,
				MessageID: message.IDEvent,
				Code:      message.EventChannelClosed,
			}))
		})
		It("Should answer capability and channel id requests", func() {
			write(message.RequestCapabilities())
			Expect(read()).To(Equal(message.Capabilities{MaxChannels: 8, MaxNetworks: 3}))
			write(message.RequestChannelID(2))
			Expect(read()).To(Equal(message.ChannelID{Channel: 2, DeviceID: 0x0102, DeviceType: 0x78}))
		})
	})
	Describe("Opener", func() {
		It("Should open the transport", func() {
			tr, err := t.Opener()(context.Background())
			Expect(err).ToNot(HaveOccurred())
			Expect(tr).To(BeIdenticalTo(t))
		})
	})
})
