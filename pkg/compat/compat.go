// Package compat detects third-party brightness-controlling
// applications so the engine can bridge their changes instead of
// fighting them.
//
// Detection scans the process list for known application identifiers.
// The scan result is cached with a short TTL; the poll loop asks every
// cycle but the process list is only walked a few times per minute.
package compat

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultCacheTTL bounds how often the process list is scanned.
const DefaultCacheTTL = 10 * time.Second

// DefaultApps are the brightness-controlling applications recognized
// out of the box. Matched against the process command name.
var DefaultApps = []string{
	"ddcutil",
	"brightnessctl",
	"gammastep",
	"wlsunset",
}

// Detector reports whether a recognized brightness application is
// currently running. Safe for concurrent use.
type Detector struct {
	mu       sync.Mutex
	apps     map[string]bool
	ttl      time.Duration
	procRoot string

	// scan is swapped out by tests.
	scan func() (string, bool)

	cachedApp   string
	cachedFound bool
	scannedAt   time.Time

	// now is swapped out by tests.
	now func() time.Time
}

// NewDetector creates a detector recognizing the given applications.
// Nil apps selects DefaultApps; zero ttl selects DefaultCacheTTL.
func NewDetector(apps []string, ttl time.Duration) *Detector {
	if apps == nil {
		apps = DefaultApps
	}
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	d := &Detector{
		apps:     make(map[string]bool, len(apps)),
		ttl:      ttl,
		procRoot: "/proc",
		now:      time.Now,
	}
	for _, app := range apps {
		d.apps[app] = true
	}
	d.scan = d.scanProcList
	return d
}

// SetApps replaces the recognized application set. The cache is
// invalidated so the next query rescans.
func (d *Detector) SetApps(apps []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.apps = make(map[string]bool, len(apps))
	for _, app := range apps {
		d.apps[app] = true
	}
	d.scannedAt = time.Time{}
}

// RunningApp returns the name of a recognized running application, or
// false when none is. Answers from cache within the TTL.
func (d *Detector) RunningApp() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.scannedAt.IsZero() && d.now().Sub(d.scannedAt) < d.ttl {
		return d.cachedApp, d.cachedFound
	}

	d.cachedApp, d.cachedFound = d.scan()
	d.scannedAt = d.now()
	return d.cachedApp, d.cachedFound
}

// scanProcList walks /proc comparing each process's comm name against
// the recognized set.
func (d *Detector) scanProcList() (string, bool) {
	entries, err := os.ReadDir(d.procRoot)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if _, err := strconv.Atoi(entry.Name()); err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(d.procRoot, entry.Name(), "comm"))
		if err != nil {
			continue
		}
		name := strings.TrimSpace(string(data))
		if d.apps[name] {
			return name, true
		}
	}
	return "", false
}
