//go:build !js

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stackcpu/pkg/asm"
	"stackcpu/pkg/compiler"
	"stackcpu/pkg/utils"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "stackcpu",
	Short: "Assembler and emulator for an 8-bit stack machine",
	Long: `stackcpu assembles programs for a small 8/16-bit stack machine and runs
them on an emulator. Sources are lines of "opcode operand...;" instructions
mixed with @macro(arg); calls and # comments. The instruction word tables
can be replaced with --config.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "assembler word table (JSON); defaults to the built-in table")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*asm.Config, error) {
	if configPath == "" {
		return asm.DefaultConfig(), nil
	}
	return asm.LoadConfig(configPath)
}

// loadProgram assembles a source file, or decodes it when asBinary is set or
// the file has a .bin extension. The source map is nil for binaries.
func loadProgram(path string, asBinary bool, cfg *asm.Config) ([]uint16, map[uint16]int, error) {
	fullPath, err := utils.AbsPath(path)
	if err != nil {
		return nil, nil, err
	}
	if asBinary || strings.EqualFold(filepath.Ext(fullPath), ".bin") {
		words, err := asm.ReadBinary(fullPath)
		return words, nil, err
	}
	source, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read input file %q: %w", path, err)
	}
	return compiler.Compile(string(source), cfg)
}

func defaultOutputPath(inPath, ext string) string {
	old := filepath.Ext(inPath)
	if old == "" {
		return inPath + ext
	}
	return strings.TrimSuffix(inPath, old) + ext
}
