package transport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/log"
	"github.com/lumen-hal/lumen-go/pkg/vcp"
)

// i2c-dev ioctl interface (linux/i2c-dev.h, linux/i2c.h).
const (
	ioctlI2CSlave = 0x0703
	ioctlI2CRdwr  = 0x0707

	i2cFlagRead = 0x0001
)

// i2cMsg mirrors struct i2c_msg.
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	_     uint16
	buf   uintptr
}

// i2cRdwrData mirrors struct i2c_rdwr_ioctl_data.
type i2cRdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

// devBus is one /dev/i2c-N character device carrying DDC/CI.
type devBus struct {
	fd     int
	path   string
	closed bool
}

// OpenDevBus opens an i2c-dev node and addresses the DDC/CI slave.
func OpenDevBus(path string) (Bus, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := unix.IoctlSetInt(fd, ioctlI2CSlave, vcp.BusAddress); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind slave 0x%02x on %s: %w", vcp.BusAddress, path, err)
	}
	return &devBus{fd: fd, path: path}, nil
}

// Write sends one DDC/CI frame. The kernel prepends the slave address;
// the frame starts at the host source byte.
func (b *devBus) Write(data []byte) error {
	if b.closed {
		return ErrBusClosed
	}
	n, err := unix.Write(b.fd, data)
	if err != nil {
		return fmt.Errorf("i2c write %s: %w", b.path, err)
	}
	if n != len(data) {
		return fmt.Errorf("i2c write %s: short write %d/%d", b.path, n, len(data))
	}
	return nil
}

// Read fills buf with a DDC/CI reply. Combined mode issues one
// write/read transfer addressing the reply sub-address; plain mode is a
// bare read for adapters that reject combined transfers.
func (b *devBus) Read(mode ReadMode, buf []byte) error {
	if b.closed {
		return ErrBusClosed
	}

	switch mode {
	case ReadModeCombined:
		sub := [1]byte{vcp.HostAddress}
		msgs := [2]i2cMsg{
			{
				addr: vcp.BusAddress,
				len:  1,
				buf:  uintptr(unsafe.Pointer(&sub[0])),
			},
			{
				addr:  vcp.BusAddress,
				flags: i2cFlagRead,
				len:   uint16(len(buf)),
				buf:   uintptr(unsafe.Pointer(&buf[0])),
			},
		}
		data := i2cRdwrData{
			msgs:  uintptr(unsafe.Pointer(&msgs[0])),
			nmsgs: 2,
		}
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(b.fd), ioctlI2CRdwr,
			uintptr(unsafe.Pointer(&data)))
		if errno != 0 {
			return fmt.Errorf("i2c combined read %s: %w", b.path, errno)
		}
		return nil

	default:
		n, err := unix.Read(b.fd, buf)
		if err != nil {
			return fmt.Errorf("i2c read %s: %w", b.path, err)
		}
		if n != len(buf) {
			return fmt.Errorf("i2c read %s: short read %d/%d", b.path, n, len(buf))
		}
		return nil
	}
}

func (b *devBus) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return unix.Close(b.fd)
}

// BusOpener locates and opens the DDC bus belonging to a connector.
type BusOpener interface {
	// OpenBus opens the connector's DDC channel. ErrNoBus when the
	// connector exposes none.
	OpenBus(connector string) (Bus, error)
}

// SysfsBusOpener resolves a connector's DDC bus through the "ddc"
// symlink the DRM subsystem publishes under /sys/class/drm.
type SysfsBusOpener struct {
	drmRoot string
	devRoot string
}

// NewSysfsBusOpener creates an opener using the standard sysfs and /dev
// locations.
func NewSysfsBusOpener() *SysfsBusOpener {
	return &SysfsBusOpener{drmRoot: display.DefaultDRMPath, devRoot: "/dev"}
}

// NewSysfsBusOpenerAt creates an opener with custom roots, for tests.
func NewSysfsBusOpenerAt(drmRoot, devRoot string) *SysfsBusOpener {
	return &SysfsBusOpener{drmRoot: drmRoot, devRoot: devRoot}
}

// OpenBus follows /sys/class/drm/<connector>/ddc to an i2c adapter and
// opens the matching /dev/i2c-N node.
func (o *SysfsBusOpener) OpenBus(connector string) (Bus, error) {
	link := filepath.Join(o.drmRoot, connector, "ddc")
	target, err := os.Readlink(link)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no ddc link", ErrNoBus, connector)
	}
	name := filepath.Base(target)
	if !strings.HasPrefix(name, "i2c-") {
		return nil, fmt.Errorf("%w: %s ddc link points at %s", ErrNoBus, connector, name)
	}
	return OpenDevBus(filepath.Join(o.devRoot, name))
}

// I2CTransport speaks DDC/CI over the connector's raw I2C bus.
type I2CTransport struct {
	exchange  *ddcExchange
	info      display.Info
	opener    BusOpener
	logger    log.Logger
	supported bool
}

var _ Transport = (*I2CTransport)(nil)

// NewI2CTransport creates an I2C transport for one display. The bus is
// opened lazily by IsSupported.
func NewI2CTransport(info display.Info, opener BusOpener, logger log.Logger) *I2CTransport {
	return &I2CTransport{info: info, opener: opener, logger: logger}
}

// Name returns "i2c".
func (t *I2CTransport) Name() string { return "i2c" }

// IsSupported opens the connector's DDC bus and probes it with one
// brightness read. A display that answers is controllable.
func (t *I2CTransport) IsSupported() bool {
	if t.supported {
		return true
	}
	bus, err := t.opener.OpenBus(t.info.Connector)
	if err != nil {
		return false
	}
	exchange := newDDCExchange(bus, uint32(t.info.ID), t.Name(), t.logger)
	if _, err := exchange.readFeature(vcp.CodeBrightness); err != nil {
		bus.Close()
		return false
	}
	t.exchange = exchange
	t.supported = true
	return true
}

// Read returns the normalized brightness.
func (t *I2CTransport) Read() (float64, bool) {
	if !t.supported {
		return 0, false
	}
	return t.exchange.readNormalized(vcp.CodeBrightness)
}

// Write sets the normalized brightness.
func (t *I2CTransport) Write(value float64) bool {
	if !t.supported {
		return false
	}
	return t.exchange.writeFeature(vcp.CodeBrightness, value)
}

// ReadFeature reads an arbitrary VCP feature (contrast, power mode).
// Used by the probe tool; the brightness path goes through Read.
func (t *I2CTransport) ReadFeature(code vcp.Code) (vcp.Feature, error) {
	if !t.supported {
		return vcp.Feature{}, ErrUnsupported
	}
	return t.exchange.readFeature(code)
}

// WriteFeature writes an arbitrary VCP feature.
func (t *I2CTransport) WriteFeature(code vcp.Code, value float64) bool {
	if !t.supported {
		return false
	}
	return t.exchange.writeFeature(code, value)
}

// Close releases the bus.
func (t *I2CTransport) Close() error {
	if t.exchange == nil {
		return nil
	}
	t.supported = false
	return t.exchange.bus.Close()
}
