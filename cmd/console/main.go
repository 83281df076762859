package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"

	"golang.org/x/term"

	"stackcpu/pkg/compiler"
	"stackcpu/pkg/cpu"
	"stackcpu/pkg/peripherals"
	"stackcpu/pkg/utils"
)

const (
	stepsPerSlice = 10000
	ctrlC         = 0x03
)

// crlfWriter turns \n into \r\n while the terminal is in raw mode.
type crlfWriter struct{ w io.Writer }

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// startKeyReader forwards raw stdin bytes to the console until stdin closes.
// Ctrl-C sets stop instead of reaching the program.
func startKeyReader(console *peripherals.TextConsole, stop *atomic.Bool) {
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				b := buf[0]
				switch b {
				case ctrlC:
					stop.Store(true)
					return
				case '\r':
					b = '\n'
				case 0x7F:
					b = 0x08
				}
				console.Feed(b)
			}
			if err != nil {
				return
			}
		}
	}()
}

func main() {
	luaPath := flag.String("lua", "", "Lua script implementing the GPIO ports instead of the console")
	maxSteps := flag.Int("max-steps", 0, "stop after this many instructions (0 = no limit)")
	showAsm := flag.Bool("show-asm", false, "print the assembled words before running")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: console [-lua script] [-max-steps n] [-show-asm] source.asm")
		os.Exit(2)
	}

	fullPath, err := utils.AbsPath(flag.Arg(0))
	if err != nil {
		log.Fatalf("Bad path: %v", err)
	}
	sourceBytes, err := os.ReadFile(fullPath)
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	words, _, err := compiler.Compile(string(sourceBytes), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *showAsm {
		for i, w := range words {
			fmt.Printf("%04X  %04X\n", i, w)
		}
	}

	vm, err := cpu.NewMachine(words)
	if err != nil {
		log.Fatal(err)
	}

	var stop atomic.Bool
	var out io.Writer = os.Stdout
	fd := int(os.Stdin.Fd())

	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			log.Fatalf("Failed to set raw mode: %v", err)
		}
		defer term.Restore(fd, oldState)
		out = crlfWriter{os.Stdout}
	}

	console := peripherals.NewTextConsole(out, nil)
	var gpio cpu.GPIO = console
	if *luaPath != "" {
		script, err := peripherals.LoadLuaGPIO(*luaPath)
		if err != nil {
			log.Fatal(err)
		}
		defer script.Close()
		gpio = script
	}

	if term.IsTerminal(fd) {
		startKeyReader(console, &stop)
	} else {
		input, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("Failed to read stdin: %v", err)
		}
		console.Feed(input...)
	}

	steps := 0
	for !stop.Load() {
		n := stepsPerSlice
		if *maxSteps > 0 && *maxSteps-steps < n {
			n = *maxSteps - steps
		}
		if n <= 0 {
			fmt.Fprintf(out, "\nstep limit reached\n")
			break
		}
		halted, err := vm.RunFor(gpio, n)
		steps += n
		if err != nil {
			console.Flush()
			fmt.Fprintf(out, "\n%v\n%s", err, vm.DumpState())
			break
		}
		if halted {
			break
		}
	}
	console.Flush()
	if script, ok := gpio.(*peripherals.LuaGPIO); ok && script.Err() != nil {
		fmt.Fprintf(out, "lua: %v\n", script.Err())
	}
}
