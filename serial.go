//go:build linux

package serial

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Config holds the parameters of a serial line.
type Config struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"` // bits per second, see BaudRates
	Parity   bool   `yaml:"parity"`    // even parity
	StopBits int    `yaml:"stop_bits"` // 1 or 2
	DataBits int    `yaml:"data_bits"` // 5 to 8

	// Drain waits for pending output before a new configuration is
	// committed. By default it is applied immediately.
	Drain bool `yaml:"drain"`

	// Logger receives diagnostics. Nil means the package default, which
	// writes to stderr.
	Logger logrus.FieldLogger `yaml:"-"`
}

// DefaultConfig returns a 9600 baud, 8N1 configuration for device.
func DefaultConfig(device string) Config {
	return Config{
		Device:   device,
		BaudRate: DefaultBaudRate,
		StopBits: 1,
		DataBits: 8,
	}
}

// noCopy makes go vet report copies of the structs embedding it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Line is a raw serial line on a character device. A Line owns its file
// descriptor; hand it to another owner with Move, never by copying.
//
// A Line is not safe for concurrent use.
type Line struct {
	noCopy noCopy

	device   string
	settings settings
	drain    bool

	fd  int
	sys sys
	log logrus.FieldLogger
}

// New validates cfg and returns a closed Line.
//
// An unsupported baud rate is logged and replaced by DefaultBaudRate and
// out of range data bits are ignored in favour of 8. A stop bit count
// other than 1 or 2 fails with ErrInvalidArgument.
//
// A zero BaudRate is taken literally and selects B0, which hangs up the
// line on open. Start from DefaultConfig to get 9600 baud.
func New(cfg Config) (*Line, error) {
	return newLine(cfg, unixSys{})
}

// Open creates a Line from cfg and opens it.
func Open(cfg Config) (*Line, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := l.Open(); err != nil {
		return nil, err
	}
	return l, nil
}

func newLine(cfg Config, s sys) (*Line, error) {
	log := cfg.Logger
	if log == nil {
		log = defaultLogger
	}
	l := &Line{
		device: cfg.Device,
		settings: settings{
			baudRate: DefaultBaudRate,
			parity:   cfg.Parity,
			stopBits: 1,
			dataBits: 8,
		},
		drain: cfg.Drain,
		fd:    -1,
		sys:   s,
		log:   log.WithField("device", cfg.Device),
	}
	l.setBaudRate(cfg.BaudRate)
	if err := l.setStopBits(cfg.StopBits); err != nil {
		return nil, err
	}
	l.setDataBits(cfg.DataBits)

	runtime.SetFinalizer(l, (*Line).Close)
	return l, nil
}

// Device returns the path of the character device.
func (l *Line) Device() string { return l.device }

// BaudRate returns the baud rate in bits per second.
func (l *Line) BaudRate() int { return l.settings.baudRate }

// Parity reports whether even parity is enabled.
func (l *Line) Parity() bool { return l.settings.parity }

// StopBits returns 1 or 2.
func (l *Line) StopBits() int { return l.settings.stopBits }

// DataBits returns the character size, 5 to 8.
func (l *Line) DataBits() int { return l.settings.dataBits }

// IsOpen reports whether the line holds an open file descriptor.
func (l *Line) IsOpen() bool { return l.fd >= 0 }

// String describes the line as "<device> <baud> <data><parity><stop>",
// e.g. "/dev/ttyUSB0 9600 8N1".
func (l *Line) String() string {
	p := 'N'
	if l.settings.parity {
		p = 'E'
	}
	return fmt.Sprintf("%s %d %d%c%d", l.device, l.settings.baudRate, l.settings.dataBits, p, l.settings.stopBits)
}

// SetBaudRate selects a new baud rate. An unsupported rate is logged and
// the current rate is kept; this is not an error. On an open line the
// device is reconfigured.
func (l *Line) SetBaudRate(rate int) error {
	old := l.settings
	if !l.setBaudRate(rate) {
		return nil
	}
	return l.reapply(old)
}

// SetStopBits accepts 1 or 2 and fails with ErrInvalidArgument otherwise.
// On an open line the device is reconfigured.
func (l *Line) SetStopBits(stopBits int) error {
	old := l.settings
	if err := l.setStopBits(stopBits); err != nil {
		return err
	}
	return l.reapply(old)
}

// SetDataBits accepts 5 to 8. Other values are ignored.
// On an open line the device is reconfigured.
func (l *Line) SetDataBits(dataBits int) error {
	old := l.settings
	if !l.setDataBits(dataBits) {
		return nil
	}
	return l.reapply(old)
}

// SetParity enables or disables even parity.
// On an open line the device is reconfigured.
func (l *Line) SetParity(parity bool) error {
	old := l.settings
	l.settings.parity = parity
	return l.reapply(old)
}

func (l *Line) setBaudRate(rate int) bool {
	if !validBaudRate(rate) {
		l.log.WithField("baud_rate", rate).
			Warnf("%d is not a valid baud rate. Using baud rate %d.", rate, l.settings.baudRate)
		return false
	}
	l.settings.baudRate = rate
	return true
}

func (l *Line) setStopBits(stopBits int) error {
	if stopBits != 1 && stopBits != 2 {
		return fmt.Errorf("%w: stop bits must be 1 or 2, got %d", ErrInvalidArgument, stopBits)
	}
	l.settings.stopBits = stopBits
	return nil
}

func (l *Line) setDataBits(dataBits int) bool {
	if dataBits < 5 || dataBits > 8 {
		return false
	}
	l.settings.dataBits = dataBits
	return true
}

// reapply pushes the current settings to an open device. If the device
// refuses them the previous settings are restored.
func (l *Line) reapply(old settings) error {
	if !l.IsOpen() {
		return nil
	}
	if err := l.apply(l.fd); err != nil {
		l.settings = old
		return err
	}
	return nil
}

// Open opens and configures the device. Opening an open line does
// nothing.
//
// If the device itself cannot be opened the failure is logged, the line
// stays closed and Open returns nil; check IsOpen. Failing to read or
// commit the terminal attributes returns an *OSError and also leaves the
// line closed.
func (l *Line) Open() error {
	if l.IsOpen() {
		return nil
	}

	fd, err := l.sys.open(l.device)
	if err != nil {
		l.log.WithError(err).Error("cannot open serial device")
		return nil
	}
	if err := l.apply(fd); err != nil {
		l.sys.close(fd)
		return err
	}
	l.fd = fd
	return nil
}

func (l *Line) apply(fd int) error {
	tty, err := l.sys.getTermios(fd)
	if err != nil {
		return osError("tcgetattr", err)
	}
	if err := configureTermios(tty, l.settings); err != nil {
		return err
	}
	if err := l.sys.setTermios(fd, l.drain, tty); err != nil {
		return osError("tcsetattr", err)
	}
	return nil
}

// Attributes reads back the terminal attributes of the open device.
func (l *Line) Attributes() (*unix.Termios, error) {
	if !l.IsOpen() {
		return nil, ErrPortNotOpen
	}
	tty, err := l.sys.getTermios(l.fd)
	if err != nil {
		return nil, osError("tcgetattr", err)
	}
	return tty, nil
}

// Write makes a single non-blocking write attempt with all of p. It does
// not retry, so fewer than len(p) bytes may be accepted without an error.
func (l *Line) Write(p []byte) (int, error) {
	if !l.IsOpen() {
		return 0, ErrPortNotOpen
	}
	n, err := l.sys.write(l.fd, p)
	if n < 0 {
		n = 0
	}
	if err != nil {
		return n, fmt.Errorf("write %s: %w", l.device, err)
	}
	return n, nil
}

// WriteString is Write for strings.
func (l *Line) WriteString(s string) (int, error) {
	return l.Write([]byte(s))
}

// Read returns whatever bytes are pending without waiting. When nothing
// is available it returns 0 and a nil error. Once the other end has hung
// up it returns io.EOF.
func (l *Line) Read(p []byte) (int, error) {
	if !l.IsOpen() {
		return 0, ErrPortNotOpen
	}
	n, err := l.sys.read(l.fd, p)
	if errors.Is(err, unix.EAGAIN) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", l.device, err)
	}
	if n > 0 || len(p) == 0 {
		return n, nil
	}

	// VMIN=0 and VTIME=0 make an idle line and a hung up one both read 0
	// bytes; only poll tells them apart.
	ev, err := l.sys.poll(l.fd, 0)
	if err != nil {
		return 0, fmt.Errorf("poll %s: %w", l.device, err)
	}
	if ev.hangup {
		return 0, io.EOF
	}
	return 0, nil
}

// ReadTimeout waits up to timeout for input and then reads once like
// Read. It returns 0 and a nil error if nothing arrived in time.
func (l *Line) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	if !l.IsOpen() {
		return 0, ErrPortNotOpen
	}
	ev, err := l.sys.poll(l.fd, timeout)
	if err != nil {
		return 0, fmt.Errorf("poll %s: %w", l.device, err)
	}
	if !ev.readable && !ev.hangup {
		return 0, nil
	}
	return l.Read(p)
}

// Move transfers the open descriptor and settings to a new Line. l is
// left closed and no longer touches the descriptor.
func (l *Line) Move() *Line {
	n := &Line{
		device:   l.device,
		settings: l.settings,
		drain:    l.drain,
		fd:       l.fd,
		sys:      l.sys,
		log:      l.log,
	}
	runtime.SetFinalizer(n, (*Line).Close)
	l.fd = -1
	return n
}

// Close releases the device. Closing a closed line is a no-op.
// A Line that is garbage collected while open is closed as well.
func (l *Line) Close() error {
	if !l.IsOpen() {
		return nil
	}
	fd := l.fd
	l.fd = -1
	if err := l.sys.close(fd); err != nil {
		return fmt.Errorf("close %s: %w", l.device, err)
	}
	return nil
}
