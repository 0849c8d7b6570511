// Command lumen-probe is a one-shot hardware probe: it enumerates the
// connected displays, binds a transport for each external one, and
// dumps the reachable VCP state.
//
// Usage:
//
//	lumen-probe [flags]
//
// Flags:
//
//	-drm <dir>     DRM sysfs root (default /sys/class/drm)
//	-trace <file>  write a CBOR event trace of all bus traffic
//	-features      also read contrast and power mode
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lumen-hal/lumen-go/pkg/backlight"
	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/log"
	"github.com/lumen-hal/lumen-go/pkg/registry"
	"github.com/lumen-hal/lumen-go/pkg/transport"
	"github.com/lumen-hal/lumen-go/pkg/vcp"
)

func main() {
	drmRoot := flag.String("drm", display.DefaultDRMPath, "DRM sysfs root")
	traceFile := flag.String("trace", "", "write CBOR event trace to file")
	features := flag.Bool("features", false, "also read contrast and power mode")
	flag.Parse()

	if err := run(*drmRoot, *traceFile, *features); err != nil {
		fmt.Fprintf(os.Stderr, "lumen-probe: %v\n", err)
		os.Exit(1)
	}
}

func run(drmRoot, traceFile string, features bool) error {
	var logger log.Logger = log.NoopLogger{}
	if traceFile != "" {
		fl, err := log.NewFileLogger(traceFile)
		if err != nil {
			return err
		}
		defer fl.Close()
		logger = fl
	}

	enum := display.NewSysfsEnumeratorAt(drmRoot)
	displays, err := enum.Displays()
	if err != nil {
		return err
	}
	if len(displays) == 0 {
		return display.ErrNoDisplays
	}

	reg := registry.NewRegistry(registry.DefaultFactories(logger), logger)
	defer reg.Close()

	for _, info := range displays {
		probeDisplay(reg, info, features)
	}
	return nil
}

func probeDisplay(reg *registry.Registry, info display.Info, features bool) {
	kind := "external"
	if info.IsBuiltIn {
		kind = "built-in"
	}
	fmt.Printf("%s (%s, id %d)\n", info.Connector, kind, info.ID)
	if info.Frame.W > 0 {
		fmt.Printf("  mode:       %dx%d\n", info.Frame.W, info.Frame.H)
	}

	if info.IsBuiltIn {
		dev, err := backlight.Discover()
		if err != nil {
			fmt.Printf("  backlight:  unavailable (%v)\n", err)
			return
		}
		v, err := dev.Read()
		if err != nil {
			fmt.Printf("  backlight:  %s, read failed (%v)\n", dev.Name(), err)
			return
		}
		fmt.Printf("  backlight:  %s, max %d\n", dev.Name(), dev.Max())
		fmt.Printf("  brightness: %.1f%%\n", v*100)
		return
	}

	tr, ok := reg.Transport(info)
	if !ok {
		fmt.Println("  transport:  none (overlay fallback only)")
		return
	}
	fmt.Printf("  transport:  %s\n", tr.Name())

	if v, ok := tr.Read(); ok {
		fmt.Printf("  brightness: %.1f%%\n", v*100)
	} else {
		fmt.Println("  brightness: read failed")
	}

	if !features {
		return
	}
	i2c, ok := tr.(*transport.I2CTransport)
	if !ok {
		return
	}
	for _, code := range []vcp.Code{vcp.CodeContrast, vcp.CodePowerMode} {
		f, err := i2c.ReadFeature(code)
		if err != nil {
			fmt.Printf("  %-11s read failed (%v)\n", label(code), err)
			continue
		}
		fmt.Printf("  %-11s %d/%d\n", label(code), f.Current, f.Max)
	}
}

func label(code vcp.Code) string {
	switch code {
	case vcp.CodeContrast:
		return "contrast:"
	case vcp.CodePowerMode:
		return "power:"
	default:
		return code.String() + ":"
	}
}
