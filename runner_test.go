package ant_test

import (
	"context"
	"time"

	"github.com/arya-analytics/ant"
	"github.com/arya-analytics/ant/alamos"
	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/message"
	"github.com/arya-analytics/ant/transport"
	"github.com/arya-analytics/ant/transport/mem"
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var hrm = channel.Config{
	DeviceID:    0,
	DeviceType:  0x78,
	ChannelType: 0x00,
	Frequency:   0x39,
	Period:      8070,
	Timeout:     10,
}

func configSequence(number byte, cfg channel.Config) []message.Message {
	return []message.Message{
		message.AssignChannel(number, cfg.ChannelType, ant.Network),
		message.SetChannelID(number, cfg.DeviceID, cfg.DeviceType, cfg.TransmissionType),
		message.SetSearchTimeout(number, cfg.Timeout),
		message.SetChannelPeriod(number, cfg.Period),
		message.SetChannelFrequency(number, cfg.Frequency),
		message.OpenChannel(number),
	}
}

func count(msgs []message.Message, m message.Message) int {
	n := 0
	for _, msg := range msgs {
		if msg.ID == m.ID && string(msg.Data) == string(m.Data) {
			n++
		}
	}
	return n
}

// nextError discards events until an ErrorEvent arrives.
func nextError(events <-chan ant.Event) error {
	var err error
	Eventually(func() bool {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return false
				}
				if e, ok := ev.(ant.ErrorEvent); ok {
					err = e.Err
					return true
				}
			default:
				return false
			}
		}
	}).Should(BeTrue())
	return err
}

var _ = Describe("Runner", func() {
	var (
		t      *mem.Transport
		r      *ant.Runner
		exp    alamos.Experiment
		cmds   chan ant.Command
		events chan ant.Event
		errC   chan error
		ctx    context.Context
		cancel context.CancelFunc
	)
	BeforeEach(func() {
		t = mem.New()
		exp = alamos.New("test")
		r = ant.NewRunner(
			t,
			ant.WithReadTimeout(time.Millisecond),
			ant.WithSettleDelay(time.Millisecond),
			ant.WithExperiment(exp),
		)
		cmds = make(chan ant.Command, 10)
		events = make(chan ant.Event, 100)
		errC = make(chan error, 1)
		ctx, cancel = context.WithCancel(context.Background())
	})
	AfterEach(func() {
		cancel()
		Expect(t.Close()).To(Succeed())
	})
	start := func() {
		go func() {
			defer GinkgoRecover()
			errC <- r.Run(ctx, cmds, events)
		}()
	}
	Context("Network key write failing", func() {
		BeforeEach(func() {
			t.SetResponder(mem.Dongle(mem.DongleConfig{MaxChannels: 8, MaxNetworks: 3}))
			t.FailNext(message.IDNetworkKey, errors.New("write failed"))
			start()
		})
		It("Should reset the dongle again and come up", func() {
			Eventually(t.Written).Should(ContainElement(message.SetNetworkKey(ant.Network, ant.NetworkKey)))
			Expect(count(t.Written(), message.Reset())).To(BeNumerically(">=", 2))
			cmds <- ant.OpenChannel{Number: 1, Config: hrm}
			Eventually(t.Written).Should(ContainElement(message.OpenChannel(1)))
			Consistently(errC, 50*time.Millisecond).ShouldNot(Receive())
		})
	})
	Context("Dongle responding", func() {
		BeforeEach(func() {
			t.SetResponder(mem.Dongle(mem.DongleConfig{MaxChannels: 8, MaxNetworks: 3}))
			start()
			Eventually(t.Written).Should(ContainElement(message.SetNetworkKey(ant.Network, ant.NetworkKey)))
		})
		Describe("Bring Up", func() {
			It("Should reset the dongle and set the network key", func() {
				written := t.Written()
				Expect(written[0]).To(Equal(message.Reset()))
				Expect(written[1]).To(Equal(message.SetNetworkKey(1, ant.NetworkKey)))
			})
			It("Should set the network key again after an unexpected restart", func() {
				Expect(t.InjectMessages(message.New(message.IDStartup, byte(message.StartupWatchDog)))).To(Succeed())
				Eventually(func() int {
					return count(t.Written(), message.SetNetworkKey(ant.Network, ant.NetworkKey))
				}).Should(Equal(2))
			})
			It("Should configure open channels again after an unexpected restart", func() {
				cmds <- ant.OpenChannel{Number: 0, Config: hrm}
				Eventually(t.Written).Should(ContainElement(message.OpenChannel(0)))
				Expect(t.InjectMessages(message.New(message.IDStartup, byte(message.StartupWatchDog)))).To(Succeed())
				Eventually(func() int { return count(t.Written(), message.OpenChannel(0)) }).Should(Equal(2))
				written := t.Written()
				Expect(written[len(written)-6:]).To(Equal(configSequence(0, hrm)))
				Expect(exp.Report()["ant"]).To(HaveKeyWithValue("channels.restored", 1))

				data := [8]byte{0x00, 0, 0, 0, 0x10, 0x27, 3, 72}
				Expect(t.InjectMessages(message.BroadcastData{Channel: 0, Data: data}.Message())).To(Succeed())
				Eventually(events).Should(Receive(Equal(ant.BroadcastData{Channel: 0, Data: data})))

				cmds <- ant.CloseChannel{Number: 0}
				Eventually(t.Written).Should(ContainElement(message.UnassignChannel(0)))
				cmds <- ant.OpenChannel{Number: 0, Config: hrm}
				Eventually(func() int { return count(t.Written(), message.OpenChannel(0)) }).Should(Equal(3))
			})
			It("Should fail when already running", func() {
				err := r.Run(ctx, cmds, events)
				Expect(ant.IsErrorOfType(err, ant.ErrAlreadyRunning)).To(BeTrue())
			})
		})
		Describe("OpenChannel", func() {
			It("Should configure and open the channel", func() {
				cmds <- ant.OpenChannel{Number: 2, Config: hrm}
				Eventually(t.Written).Should(ContainElement(message.OpenChannel(2)))
				written := t.Written()
				Expect(written[len(written)-6:]).To(Equal(configSequence(2, hrm)))
			})
			It("Should relay broadcast data from the channel", func() {
				cmds <- ant.OpenChannel{Number: 2, Config: hrm}
				Eventually(t.Written).Should(ContainElement(message.OpenChannel(2)))
				data := [8]byte{0x04, 0, 0, 0, 0x10, 0x27, 3, 72}
				Expect(t.InjectMessages(message.BroadcastData{Channel: 2, Data: data}.Message())).To(Succeed())
				Eventually(events).Should(Receive(Equal(ant.BroadcastData{Channel: 2, Data: data})))
			})
			It("Should leave an open channel untouched when opened again", func() {
				cmds <- ant.OpenChannel{Number: 2, Config: hrm}
				Eventually(t.Written).Should(ContainElement(message.OpenChannel(2)))
				cmds <- ant.OpenChannel{Number: 2, Config: hrm}
				err := nextError(events)
				Expect(ant.IsErrorOfType(err, ant.ErrChannelExists)).To(BeTrue())
				Expect(count(t.Written(), message.AssignChannel(2, 0, ant.Network))).To(Equal(1))

				Expect(t.InjectMessages(message.New(
					message.IDResponseEvent, 2, byte(message.IDOpenChannel), byte(message.ResponseNoError),
				))).To(Succeed())
				data := [8]byte{0x04, 0, 0, 0, 0x10, 0x27, 3, 72}
				Expect(t.InjectMessages(message.BroadcastData{Channel: 2, Data: data}.Message())).To(Succeed())
				var ev ant.Event
				Eventually(events).Should(Receive(&ev))
				Expect(ev).To(Equal(ant.BroadcastData{Channel: 2, Data: data}))
				Expect(count(t.Written(), message.SetChannelID(2, hrm.DeviceID, hrm.DeviceType, hrm.TransmissionType))).To(Equal(1))
				Expect(count(t.Written(), message.OpenChannel(2))).To(Equal(1))
			})
			It("Should reject a channel number outside the dongle's slots", func() {
				cmds <- ant.OpenChannel{Number: channel.MaxChannels, Config: hrm}
				err := nextError(events)
				Expect(ant.IsErrorOfType(err, ant.ErrInvalidChannel)).To(BeTrue())
			})
		})
		Describe("Channel Closed", func() {
			It("Should reopen a known channel the dongle closed", func() {
				cmds <- ant.OpenChannel{Number: 2, Config: hrm}
				Eventually(t.Written).Should(ContainElement(message.OpenChannel(2)))
				Expect(t.InjectMessages(message.New(
					message.IDResponseEvent, 2, byte(message.IDEvent), byte(message.EventChannelClosed),
				))).To(Succeed())
				Eventually(func() int { return count(t.Written(), message.OpenChannel(2)) }).Should(Equal(2))
				Expect(exp.Report()["ant"]).To(HaveKeyWithValue("channels.reopened", 1))
			})
			It("Should unassign a channel that is not known", func() {
				Expect(t.InjectMessages(message.New(
					message.IDResponseEvent, 5, byte(message.IDEvent), byte(message.EventChannelClosed),
				))).To(Succeed())
				Eventually(t.Written).Should(ContainElement(message.UnassignChannel(5)))
			})
		})
		Describe("CloseChannel", func() {
			It("Should close the channel and unassign it once the dongle reports it closed", func() {
				cmds <- ant.OpenChannel{Number: 2, Config: hrm}
				Eventually(t.Written).Should(ContainElement(message.OpenChannel(2)))
				cmds <- ant.CloseChannel{Number: 2}
				Eventually(t.Written).Should(ContainElement(message.CloseChannel(2)))
				Eventually(t.Written).Should(ContainElement(message.UnassignChannel(2)))
				Expect(count(t.Written(), message.OpenChannel(2))).To(Equal(1))
			})
			It("Should allow the slot to be opened again", func() {
				cmds <- ant.OpenChannel{Number: 2, Config: hrm}
				Eventually(t.Written).Should(ContainElement(message.OpenChannel(2)))
				cmds <- ant.CloseChannel{Number: 2}
				cmds <- ant.OpenChannel{Number: 2, Config: hrm}
				Eventually(func() int {
					return count(t.Written(), message.AssignChannel(2, 0, ant.Network))
				}).Should(Equal(2))
			})
		})
		Describe("Send", func() {
			It("Should write the message and relay the reply", func() {
				cmds <- ant.Send{Message: message.RequestCapabilities()}
				Eventually(events).Should(Receive(Equal(ant.Response{
					Response: message.Capabilities{MaxChannels: 8, MaxNetworks: 3},
				})))
			})
			It("Should reject a message that cannot be encoded", func() {
				cmds <- ant.Send{Message: message.New(message.IDBroadcastData, make([]byte, 26)...)}
				err := nextError(events)
				Expect(ant.IsErrorOfType(err, ant.ErrInvalidMessage)).To(BeTrue())
				Expect(errors.Is(err, message.ErrPayloadTooLarge)).To(BeTrue())
			})
		})
		Describe("Decode Errors", func() {
			It("Should report an unknown message and keep running", func() {
				Expect(t.InjectMessages(message.New(0x99, 1, 2, 3))).To(Succeed())
				err := nextError(events)
				Expect(ant.IsErrorOfType(err, ant.ErrDecode)).To(BeTrue())
				Expect(errors.Is(err, message.ErrUnknownMessage)).To(BeTrue())
				cmds <- ant.OpenChannel{Number: 1, Config: hrm}
				Eventually(t.Written).Should(ContainElement(message.OpenChannel(1)))
			})
		})
		Describe("Quit", func() {
			It("Should reset the dongle and stop", func() {
				cmds <- ant.Quit{}
				Eventually(errC).Should(Receive(BeNil()))
				Expect(count(t.Written(), message.Reset())).To(Equal(2))
			})
		})
		Describe("Command Queue", func() {
			It("Should stop when the command queue is closed", func() {
				close(cmds)
				Eventually(errC).Should(Receive(BeNil()))
			})
		})
		Describe("Transport Failure", func() {
			It("Should report and return a failed read", func() {
				t.FailReads(errors.New("unplugged"))
				var err error
				Eventually(errC).Should(Receive(&err))
				Expect(ant.IsErrorOfType(err, ant.ErrTransport)).To(BeTrue())
				Expect(ant.IsErrorOfType(nextError(events), ant.ErrTransport)).To(BeTrue())
			})
			It("Should report and return a failed write", func() {
				t.FailWrites(errors.New("stalled"))
				cmds <- ant.OpenChannel{Number: 0, Config: hrm}
				var err error
				Eventually(errC).Should(Receive(&err))
				Expect(ant.IsErrorOfType(err, ant.ErrTransport)).To(BeTrue())
			})
		})
	})
	Context("Dongle silent", func() {
		It("Should fail after three unanswered resets", func() {
			start()
			var err error
			Eventually(errC).Should(Receive(&err))
			Expect(ant.IsErrorOfType(err, ant.ErrReset)).To(BeTrue())
			Expect(t.Written()).To(Equal([]message.Message{message.Reset(), message.Reset(), message.Reset()}))
			Expect(ant.IsErrorOfType(nextError(events), ant.ErrReset)).To(BeTrue())
		})
		It("Should not act on commands until the dongle is running", func() {
			cmds <- ant.OpenChannel{Number: 0, Config: hrm}
			start()
			Eventually(errC).Should(Receive())
			Expect(count(t.Written(), message.AssignChannel(0, 0, ant.Network))).To(BeZero())
		})
		It("Should drop startup chatter before the dongle goes quiet", func() {
			Expect(t.InjectMessages(
				message.New(message.IDStartup, 0x00),
				message.New(message.IDResponseEvent, 1, byte(message.IDNetworkKey), 0),
			)).To(Succeed())
			start()
			Eventually(errC).Should(Receive())
			Expect(t.Written()).ToNot(ContainElement(message.SetNetworkKey(ant.Network, ant.NetworkKey)))
		})
	})
	Describe("Metrics", func() {
		It("Should count decoded frames and timeouts", func() {
			t.SetResponder(mem.Dongle(mem.DongleConfig{}))
			start()
			Eventually(t.Written).Should(ContainElement(message.SetNetworkKey(ant.Network, ant.NetworkKey)))
			cancel()
			Eventually(errC).Should(Receive(MatchError(context.Canceled)))
			report, ok := exp.Report()["ant"].(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(report["frames.decoded"]).To(BeNumerically(">=", 2))
			Expect(report["reads.timeout"]).To(BeNumerically(">=", 2))
			Expect(report["frames.rejected"]).To(Equal(0))
		})
	})
	Describe("Errors", func() {
		It("Should classify wrapped errors", func() {
			err := errors.Wrap(ant.Error{Type: ant.ErrReset, Base: transport.ErrTimeout}, "context")
			Expect(ant.IsErrorOfType(err, ant.ErrReset)).To(BeTrue())
			Expect(ant.IsErrorOfType(err, ant.ErrTransport)).To(BeFalse())
			Expect(errors.Is(err, transport.ErrTimeout)).To(BeTrue())
			Expect(ant.ErrChannelExists.String()).To(Equal("ChannelExists"))
		})
	})
})
