package asm

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed default_config.json
var defaultConfigJSON []byte

// Context selects which table of the assembler config a mnemonic is looked up in.
type Context int

const (
	OpcodeContext Context = iota
	AluOpcodeContext
	ToBusContext   // components that drive the bus (move sources)
	FromBusContext // components that latch the bus (move/write destinations)
)

func (c Context) String() string {
	switch c {
	case OpcodeContext:
		return "opcode"
	case AluOpcodeContext:
		return "ALU opcode"
	case ToBusContext:
		return "to-bus address"
	case FromBusContext:
		return "from-bus address"
	}
	return fmt.Sprintf("Context(%d)", int(c))
}

// AssemblyWord names one 4-bit id in the instruction set.
type AssemblyWord struct {
	ID   uint8  `json:"id_"`
	Name string `json:"name"`
}

// Config holds the mnemonic tables used to encode and decode instructions.
type Config struct {
	Opcodes    []AssemblyWord `json:"opcodes"`
	AluOpcodes []AssemblyWord `json:"alu_opcodes"`
	ToBus      []AssemblyWord `json:"to_bus"`
	FromBus    []AssemblyWord `json:"from_bus"`
}

// DefaultConfig returns the instruction set the emulator implements.
func DefaultConfig() *Config {
	cfg, err := ParseConfig(defaultConfigJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded assembler config: %v", err))
	}
	return cfg
}

// LoadConfig reads and validates a JSON config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes and validates a JSON config.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal assembler config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every id fits in 4 bits and that no table repeats a
// name or an id.
func (c *Config) Validate() error {
	for _, ctx := range []Context{OpcodeContext, AluOpcodeContext, ToBusContext, FromBusContext} {
		names := make(map[string]bool)
		ids := make(map[uint8]bool)
		for _, w := range c.table(ctx) {
			if w.ID > 0x0F {
				return fmt.Errorf("%s %q: id %d does not fit in 4 bits", ctx, w.Name, w.ID)
			}
			key := strings.ToLower(w.Name)
			if key == "" {
				return fmt.Errorf("%s id %d: empty name", ctx, w.ID)
			}
			if names[key] {
				return fmt.Errorf("duplicate %s name %q", ctx, w.Name)
			}
			if ids[w.ID] {
				return fmt.Errorf("duplicate %s id %d", ctx, w.ID)
			}
			names[key] = true
			ids[w.ID] = true
		}
	}
	return nil
}

func (c *Config) table(ctx Context) []AssemblyWord {
	switch ctx {
	case OpcodeContext:
		return c.Opcodes
	case AluOpcodeContext:
		return c.AluOpcodes
	case ToBusContext:
		return c.ToBus
	case FromBusContext:
		return c.FromBus
	}
	return nil
}

// Lookup finds a mnemonic in the given table, ignoring case.
func (c *Config) Lookup(ctx Context, name string) (AssemblyWord, bool) {
	for _, w := range c.table(ctx) {
		if strings.EqualFold(w.Name, name) {
			return w, true
		}
	}
	return AssemblyWord{}, false
}

// Name returns the mnemonic registered for id in the given table.
func (c *Config) Name(ctx Context, id uint8) (string, bool) {
	for _, w := range c.table(ctx) {
		if w.ID == id {
			return w.Name, true
		}
	}
	return "", false
}
