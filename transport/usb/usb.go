// Package usb implements transport.Transport over libusb for ANT USB sticks.
package usb

import (
	"context"
	"time"

	"github.com/arya-analytics/ant/transport"
	"github.com/arya-analytics/ant/util/errutil"
	"github.com/cockroachdb/errors"
	"github.com/google/gousb"
	"go.uber.org/zap"
)

const (
	// VendorID is the USB vendor id of Dynastream Innovations, the maker of ANT sticks.
	VendorID gousb.ID = 0x0FCF
	// InEndpoint is the bulk endpoint the stick writes messages to.
	InEndpoint = 0x81
	// OutEndpoint is the bulk endpoint the stick reads messages from.
	OutEndpoint = 0x01
)

type Option func(o *options)

type options struct {
	vendorID gousb.ID
	logger   *zap.Logger
}

func WithVendorID(id gousb.ID) Option { return func(o *options) { o.vendorID = id } }

func WithLogger(logger *zap.Logger) Option { return func(o *options) { o.logger = logger } }

func newOptions(opts ...Option) options {
	o := options{vendorID: VendorID}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// Opener returns a transport.Opener that opens the first stick matching the options.
func Opener(opts ...Option) transport.Opener {
	return func(ctx context.Context) (transport.Transport, error) { return Open(ctx, opts...) }
}

// Stick is an open ANT USB stick.
type Stick struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	done   func()
	in     *gousb.InEndpoint
	out    *gousb.OutEndpoint
	logger *zap.Logger
}

var _ transport.Transport = (*Stick)(nil)

// Open claims the first USB device with the configured vendor id. Any other matching
// devices are released. The device is reset before its default interface is claimed.
// Open returns transport.ErrNotFound if no device matches.
func Open(ctx context.Context, opts ...Option) (_ *Stick, err error) {
	o := newOptions(opts...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &Stick{ctx: gousb.NewContext(), logger: o.logger}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()
	devs, err := s.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == o.vendorID
	})
	for i, d := range devs {
		if i == 0 {
			s.dev = d
			continue
		}
		_ = d.Close()
	}
	if s.dev == nil {
		if err != nil {
			return nil, errors.Wrap(err, "[usb] - failed to enumerate devices")
		}
		return nil, errors.Wrapf(transport.ErrNotFound, "vendor id %s", o.vendorID)
	}
	s.logger.Debug("found ant stick", zap.Stringer("device", s.dev))
	if err := s.dev.Reset(); err != nil {
		if !errors.Is(err, gousb.ErrorNotSupported) && !errors.Is(err, gousb.ErrorNotFound) {
			return nil, errors.Wrap(err, "[usb] - failed to reset device")
		}
		s.logger.Debug("device reset not supported", zap.Error(err))
	}
	if err := s.dev.SetAutoDetach(true); err != nil {
		s.logger.Debug("kernel driver auto detach not supported", zap.Error(err))
	}
	intf, done, err := s.dev.DefaultInterface()
	if err != nil {
		return nil, errors.Wrap(err, "[usb] - failed to claim interface")
	}
	s.done = done
	if s.in, err = intf.InEndpoint(InEndpoint); err != nil {
		return nil, errors.Wrap(err, "[usb] - failed to open in endpoint")
	}
	if s.out, err = intf.OutEndpoint(OutEndpoint); err != nil {
		return nil, errors.Wrap(err, "[usb] - failed to open out endpoint")
	}
	return s, nil
}

// Read implements transport.Transport.
func (s *Stick) Read(p []byte, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	n, err := s.in.ReadContext(ctx, p)
	return n, translateErr(err)
}

// Write implements transport.Transport.
func (s *Stick) Write(p []byte, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	n, err := s.out.WriteContext(ctx, p)
	return n, translateErr(err)
}

// Close implements transport.Transport.
func (s *Stick) Close() error {
	c := errutil.NewCatchSimple(errutil.WithAggregation())
	if s.done != nil {
		s.done()
		s.done = nil
	}
	if s.dev != nil {
		c.Exec(s.dev.Close)
		s.dev = nil
	}
	if s.ctx != nil {
		c.Exec(s.ctx.Close)
		s.ctx = nil
	}
	return c.Error()
}

func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gousb.TransferTimedOut) ||
		errors.Is(err, gousb.TransferCancelled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return transport.ErrTimeout
	}
	return errors.Wrap(err, "[usb] - transfer failed")
}
