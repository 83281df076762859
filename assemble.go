//go:build !js

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stackcpu/pkg/asm"
)

var (
	assembleOut    string
	assembleFormat string
)

var assembleCmd = &cobra.Command{
	Use:   "assemble sourceFile",
	Short: "Assemble a source file into machine words",
	Long: `Assemble compiles one source file. The bin format writes each 16-bit word
little-endian; the dec format writes the words as a comma separated decimal
list. All errors found are reported before giving up.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		words, _, err := loadProgram(args[0], false, cfg)
		if err != nil {
			return err
		}

		out := assembleOut
		switch assembleFormat {
		case "bin":
			if out == "" {
				out = defaultOutputPath(args[0], ".bin")
			}
			err = asm.WriteBinary(out, words)
		case "dec":
			if out == "" {
				out = defaultOutputPath(args[0], ".txt")
			}
			err = os.WriteFile(out, []byte(asm.FormatDecList(words)+"\n"), 0o644)
		default:
			return fmt.Errorf("unknown format %q (want bin or dec)", assembleFormat)
		}
		if err != nil {
			return fmt.Errorf("failed to write %q: %w", out, err)
		}

		fmt.Printf("assembled %d words -> %s\n", len(words), out)
		return nil
	},
}

var disasmBinary bool

var disasmCmd = &cobra.Command{
	Use:   "disasm file",
	Short: "Print the machine words of a program with their decoded form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		words, _, err := loadProgram(args[0], disasmBinary, cfg)
		if err != nil {
			return err
		}
		fmt.Print(asm.Disassemble(words, cfg))
		return nil
	},
}

func init() {
	assembleCmd.Flags().StringVarP(&assembleOut, "out", "o", "", "output path (default: input with .bin or .txt extension)")
	assembleCmd.Flags().StringVar(&assembleFormat, "format", "bin", "output format: bin or dec")
	rootCmd.AddCommand(assembleCmd)

	disasmCmd.Flags().BoolVar(&disasmBinary, "bin", false, "treat the input as an assembled binary")
	rootCmd.AddCommand(disasmCmd)
}
