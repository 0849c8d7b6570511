package display

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// debounceInterval coalesces the uevent bursts a single hotplug produces.
const debounceInterval = 200 * time.Millisecond

// ChangeHandler is invoked after the display configuration changed.
type ChangeHandler func()

// Notifier reports display configuration changes by listening for kernel
// drm uevents on a netlink socket. Events arriving in quick succession
// are coalesced into a single callback.
type Notifier struct {
	mu       sync.Mutex
	fd       int
	handlers []ChangeHandler
	done     chan struct{}
	closed   bool
}

// NewNotifier opens the kernel uevent socket and starts listening.
func NewNotifier() (*Notifier, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, fmt.Errorf("open uevent socket: %w", err)
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: 1,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind uevent socket: %w", err)
	}

	n := &Notifier{
		fd:   fd,
		done: make(chan struct{}),
	}
	raw := make(chan struct{}, 1)
	go n.listen(raw)
	go n.debounce(raw)
	return n, nil
}

// OnChange registers a handler for display configuration changes.
// Must be called before events of interest occur.
func (n *Notifier) OnChange(h ChangeHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, h)
}

// Close stops listening and releases the socket.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	close(n.done)
	return unix.Close(n.fd)
}

// listen reads raw uevents and signals drm changes on raw.
func (n *Notifier) listen(raw chan<- struct{}) {
	buf := make([]byte, 2048)
	for {
		count, _, err := unix.Recvfrom(n.fd, buf, 0)
		if err != nil {
			select {
			case <-n.done:
				return
			default:
			}
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			return
		}
		if !isDRMChange(string(buf[:count])) {
			continue
		}
		select {
		case raw <- struct{}{}:
		default:
		}
	}
}

// debounce coalesces raw signals and fires the registered handlers.
func (n *Notifier) debounce(raw <-chan struct{}) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-n.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-raw:
			if timer == nil {
				timer = time.NewTimer(debounceInterval)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceInterval)
			}
		case <-fire:
			timer = nil
			fire = nil
			n.fire()
		}
	}
}

func (n *Notifier) fire() {
	n.mu.Lock()
	handlers := make([]ChangeHandler, len(n.handlers))
	copy(handlers, n.handlers)
	n.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

// isDRMChange reports whether a raw uevent message describes a drm
// subsystem change (hotplug, mode change).
func isDRMChange(msg string) bool {
	if !strings.Contains(msg, "SUBSYSTEM=drm") {
		return false
	}
	return strings.Contains(msg, "ACTION=change") || strings.Contains(msg, "HOTPLUG=1")
}
