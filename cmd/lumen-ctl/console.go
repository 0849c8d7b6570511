package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/log"
	"github.com/lumen-hal/lumen-go/pkg/service"
)

// console runs the interactive command loop until EOF or quit.
func console(svc *service.BrightnessService, resolver *display.Resolver, simulate bool) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lumen> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("create readline: %w", err)
	}
	defer rl.Close()

	out := rl.Stdout()

	// Published changes show up between prompts.
	svc.OnChange(func(st service.State) {
		fmt.Fprintf(out, "\r[brightness %.1f%% on display %d]\n", st.Value*100, st.DisplayID)
	})

	banner := "lumen brightness console"
	if simulate {
		banner += " (simulated hardware)"
	}
	fmt.Fprintln(out, banner)
	printHelp(out)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}

		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help", "?":
			printHelp(out)
		case "state":
			printState(out, svc)
		case "get":
			cmdGet(out, svc, fields[1:])
		case "set":
			cmdSet(out, svc, fields[1:])
		case "up":
			cmdStep(out, svc.Increase, fields[1:])
		case "down":
			cmdStep(out, svc.Decrease, fields[1:])
		case "mode":
			cmdMode(out, resolver, fields[1:])
		case "refresh":
			svc.Refresh(nil)
			printState(out, svc)
		case "reinit":
			if svc.AttemptReinitIfNeeded() {
				fmt.Fprintln(out, "re-initialized")
			} else {
				fmt.Fprintln(out, "re-init not available")
			}
		case "trace":
			cmdTrace(out, fields[1:])
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(out, "unknown command %q (try help)\n", fields[0])
		}
	}
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `commands:
  state              show published state
  get                read the resolved display's brightness
  set <0..100>       set brightness percent
  up [divisor]       increase by one step (divisor slows it down)
  down [divisor]     decrease by one step
  mode <builtin|active>
  refresh            reconcile published state from hardware
  reinit             retry initialization (grace window only)
  trace <file>       dump a CBOR event trace
  quit
`)
}

func printState(out io.Writer, svc *service.BrightnessService) {
	st := svc.State()
	fmt.Fprintf(out, "supported:  %v\n", st.Supported)
	fmt.Fprintf(out, "brightness: %.1f%%\n", st.Value*100)
	fmt.Fprintf(out, "display:    %d\n", st.DisplayID)
	if !st.LastChanged.IsZero() {
		fmt.Fprintf(out, "changed:    %s\n", st.LastChanged.Format("15:04:05.000"))
	}
}

func cmdGet(out io.Writer, svc *service.BrightnessService, args []string) {
	svc.Refresh(nil)
	fmt.Fprintf(out, "%.1f%%\n", svc.State().Value*100)
}

func cmdSet(out io.Writer, svc *service.BrightnessService, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: set <0..100>")
		return
	}
	percent, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(out, "bad value %q\n", args[0])
		return
	}
	if !svc.SetAbsolute(percent/100, nil) {
		fmt.Fprintln(out, "set failed")
	}
}

func cmdStep(out io.Writer, step func(float64, *display.ID) bool, args []string) {
	divisor := 1.0
	if len(args) == 1 {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			fmt.Fprintf(out, "bad divisor %q\n", args[0])
			return
		}
		divisor = v
	}
	if !step(divisor, nil) {
		fmt.Fprintln(out, "step failed")
	}
}

func cmdMode(out io.Writer, resolver *display.Resolver, args []string) {
	if len(args) != 1 {
		fmt.Fprintf(out, "mode: %s\n", resolver.Mode())
		return
	}
	switch args[0] {
	case "builtin":
		resolver.SetMode(display.ModeBuiltin)
	case "active":
		resolver.SetMode(display.ModeActive)
	default:
		fmt.Fprintln(out, "usage: mode <builtin|active>")
	}
}

// cmdTrace prints the events of a CBOR trace file.
func cmdTrace(out io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: trace <file>")
		return
	}
	reader, err := log.NewReader(args[0])
	if err != nil {
		fmt.Fprintf(out, "open trace: %v\n", err)
		return
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err != nil {
			break
		}
		count++
		printEvent(out, event)
	}
	fmt.Fprintf(out, "%d events\n", count)
}

func printEvent(out io.Writer, event log.Event) {
	ts := event.Timestamp.Format("15:04:05.000")
	switch {
	case event.Frame != nil:
		fmt.Fprintf(out, "%s %-3s %-9s display=%d frame=%x\n",
			ts, event.Direction, event.Transport, event.DisplayID, event.Frame.Data)
	case event.Sample != nil:
		cached := ""
		if event.Sample.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(out, "%s %-3s %-9s display=%d value=%.3f%s\n",
			ts, event.Direction, event.Transport, event.DisplayID, event.Sample.Value, cached)
	case event.StateChange != nil:
		fmt.Fprintf(out, "%s %s %s -> %s (%s)\n",
			ts, event.StateChange.Entity, event.StateChange.OldState,
			event.StateChange.NewState, event.StateChange.Reason)
	case event.Error != nil:
		fmt.Fprintf(out, "%s ERROR %s: %s (%s)\n",
			ts, event.Error.Layer, event.Error.Message, event.Error.Context)
	}
}
