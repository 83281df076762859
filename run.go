//go:build !js

package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"stackcpu/pkg/cpu"
	"stackcpu/pkg/peripherals"
)

var (
	runBinary   bool
	runSnapshot string
	runResume   string
	runMaxSteps int
	runLua      string
	runDump     bool
)

// ErrStepLimit is returned when --max-steps runs out before HALT.
var ErrStepLimit = errors.New("step limit reached before halt")

var runCmd = &cobra.Command{
	Use:   "run file",
	Short: "Run a program on the emulator",
	Long: `Run assembles (or loads, with --bin) a program and executes it until HALT.
GPIO port A is a text console on stdout unless --lua supplies a script that
handles the ports. --snapshot writes the final machine state, including the
console's unfinished line and input queue, to a file that --resume can
continue from.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		words, sourceMap, err := loadProgram(args[0], runBinary, cfg)
		if err != nil {
			return err
		}

		vm, err := cpu.NewMachine(words)
		if err != nil {
			return err
		}

		var gpio cpu.GPIO
		var devices []cpu.Device
		var script *peripherals.LuaGPIO
		console := peripherals.NewTextConsole(os.Stdout, nil)
		if runLua != "" {
			script, err = peripherals.LoadLuaGPIO(runLua)
			if err != nil {
				return err
			}
			defer script.Close()
			gpio = script
		} else {
			gpio = console
			devices = append(devices, console)
		}

		if runResume != "" {
			if err := vm.RestoreFromFile(runResume, devices...); err != nil {
				return fmt.Errorf("resume from %q: %w", runResume, err)
			}
		}

		runErr := execute(vm, gpio, runMaxSteps)
		if runErr == nil && script != nil {
			runErr = script.Err()
		}

		if err := finishRun(vm, console, runSnapshot, devices...); err != nil {
			log.Printf("failed to write snapshot %q: %v", runSnapshot, err)
		}
		if runDump {
			fmt.Fprint(os.Stderr, vm.DumpState())
		}
		if runErr != nil {
			return describeFault(runErr, sourceMap)
		}
		fmt.Fprintf(os.Stderr, "halted after %d cycles (EP=0x%04X)\n", vm.Cycles, vm.EP)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runBinary, "bin", false, "treat the input as an assembled binary")
	runCmd.Flags().StringVar(&runSnapshot, "snapshot", "", "write the final machine state to this file")
	runCmd.Flags().StringVar(&runResume, "resume", "", "restore machine state from a snapshot before running")
	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", 0, "stop after this many instructions (0 = no limit)")
	runCmd.Flags().StringVar(&runLua, "lua", "", "Lua script implementing the GPIO ports")
	runCmd.Flags().BoolVar(&runDump, "dump", false, "print the machine registers when done")
	rootCmd.AddCommand(runCmd)
}

// execute runs vm until HALT, the first fault, or maxSteps instructions when
// maxSteps is positive.
func execute(vm *cpu.Machine, gpio cpu.GPIO, maxSteps int) error {
	if vm.Halted {
		return nil
	}
	if maxSteps <= 0 {
		return vm.Run(gpio)
	}
	halted, err := vm.RunFor(gpio, maxSteps)
	if err != nil {
		return err
	}
	if !halted {
		return fmt.Errorf("%w (%d steps)", ErrStepLimit, maxSteps)
	}
	return nil
}

// finishRun writes the snapshot, when path is set, and flushes the console.
// A machine that has not halted keeps its unterminated console line in the
// snapshot instead of printing it, so --resume continues the same line.
func finishRun(vm *cpu.Machine, console *peripherals.TextConsole, path string, devices ...cpu.Device) error {
	if path == "" || vm.Halted {
		console.Flush()
	}
	if path == "" {
		return nil
	}
	if err := vm.HibernateToFile(path, devices...); err != nil {
		console.Flush()
		return err
	}
	return nil
}

// describeFault adds the source line of the faulting instruction when a
// source map is available.
func describeFault(err error, sourceMap map[uint16]int) error {
	var ee *cpu.ExecutionError
	if !errors.As(err, &ee) || sourceMap == nil {
		return err
	}
	if line, ok := sourceMap[ee.Address]; ok {
		return fmt.Errorf("%w (source line %d)", err, line)
	}
	return err
}
