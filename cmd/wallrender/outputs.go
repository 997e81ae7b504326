package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/1broseidon/wallrender/internal/ipc"
	"github.com/1broseidon/wallrender/internal/platform"
	"github.com/1broseidon/wallrender/internal/x11"
)

func runOutputs(args []string) int {
	fs := flag.NewFlagSet("outputs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print JSON even when stdout is a terminal")
	display := fs.String("display", "", "X display to query (default: $DISPLAY)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: wallrender outputs [--json] [--display DISPLAY]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List RandR outputs. Names are valid --screen-root values.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "outputs takes no arguments")
		fs.Usage()
		return 2
	}

	env, err := x11.ResolveDisplay(*display)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := env.Apply(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	outputs, err := platform.DiscoverOutputs(env.Display)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	infos := outputInfos(outputs)

	if *asJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(infos); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	printOutputTable(os.Stdout, infos)
	return 0
}

// printOutputTable writes one aligned row per output.
func printOutputTable(w io.Writer, infos []ipc.OutputInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "no outputs found")
		return
	}

	nameWidth := len("NAME")
	for _, info := range infos {
		if len(info.Name) > nameWidth {
			nameWidth = len(info.Name)
		}
	}

	fmt.Fprintf(w, "%-*s  %-12s  %s\n", nameWidth, "NAME", "STATE", "GEOMETRY")
	for _, info := range infos {
		state := "disconnected"
		if info.Connected {
			state = "connected"
		}
		geometry := "-"
		if info.HasGeometry {
			geometry = fmt.Sprintf("%dx%d+%d+%d", info.Width, info.Height, info.X, info.Y)
		}
		fmt.Fprintf(w, "%-*s  %-12s  %s\n", nameWidth, info.Name, state, geometry)
	}
}
