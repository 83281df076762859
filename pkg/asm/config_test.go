package asm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stackcpu/pkg/cpu"
)

// The embedded tables and the emulator's dispatch constants must agree.
func TestDefaultConfig_MatchesMachine(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		ctx  Context
		name string
		id   uint8
	}{
		{OpcodeContext, "move", cpu.OpMOVE},
		{OpcodeContext, "write", cpu.OpWRITE},
		{OpcodeContext, "goto", cpu.OpGOTO},
		{OpcodeContext, "goto-if", cpu.OpGOTOIF},
		{OpcodeContext, "halt", cpu.OpHALT},
		{OpcodeContext, "call", cpu.OpCALL},
		{OpcodeContext, "return", cpu.OpRETURN},

		{AluOpcodeContext, "add", cpu.AluAdd},
		{AluOpcodeContext, "add-carry", cpu.AluAddCarry},
		{AluOpcodeContext, "not", cpu.AluNot},
		{AluOpcodeContext, "or", cpu.AluOr},
		{AluOpcodeContext, "and", cpu.AluAnd},
		{AluOpcodeContext, "xnor", cpu.AluXnor},
		{AluOpcodeContext, "shift-left", cpu.AluShiftLeft},
		{AluOpcodeContext, "eq", cpu.AluEq},
		{AluOpcodeContext, "pass-a", cpu.AluPassA},
		{AluOpcodeContext, "pass-b", cpu.AluPassB},

		{ToBusContext, "stack-pop", cpu.SrcStackPop},
		{ToBusContext, "stack-no-pop", cpu.SrcStackNoPop},
		{ToBusContext, "alu", cpu.SrcALU},
		{ToBusContext, "control-unit", cpu.SrcControlUnit},
		{ToBusContext, "stack-offset-read", cpu.SrcStackOffsetRead},
		{ToBusContext, "gpram", cpu.SrcGPRAM},
		{ToBusContext, "gpram-inc-addr", cpu.SrcGPRAMIncAddr},
		{ToBusContext, "gpram-addr-a", cpu.SrcGPRAMAddrA},
		{ToBusContext, "gpram-addr-b", cpu.SrcGPRAMAddrB},
		{ToBusContext, "gpio-read-a", cpu.SrcGPIOReadA},
		{ToBusContext, "gpio-read-b", cpu.SrcGPIOReadB},
		{ToBusContext, "clock-a", cpu.SrcClockA},
		{ToBusContext, "clock-b", cpu.SrcClockB},

		{FromBusContext, "none", cpu.DstNone},
		{FromBusContext, "stack-push", cpu.DstStackPush},
		{FromBusContext, "alu-a", cpu.DstALUA},
		{FromBusContext, "alu-b", cpu.DstALUB},
		{FromBusContext, "alu-c", cpu.DstALUC},
		{FromBusContext, "goto-a", cpu.DstGotoA},
		{FromBusContext, "goto-b", cpu.DstGotoB},
		{FromBusContext, "goto-decider", cpu.DstGotoDecider},
		{FromBusContext, "gpram", cpu.DstGPRAM},
		{FromBusContext, "gpram-inc-addr", cpu.DstGPRAMIncAddr},
		{FromBusContext, "gpram-addr-a", cpu.DstGPRAMAddrA},
		{FromBusContext, "gpram-addr-b", cpu.DstGPRAMAddrB},
		{FromBusContext, "gpio-write-a", cpu.DstGPIOWriteA},
		{FromBusContext, "gpio-write-b", cpu.DstGPIOWriteB},
		{FromBusContext, "stack-offset", cpu.DstStackOffset},
		{FromBusContext, "stack-offset-write", cpu.DstStackOffsetWrite},
	}
	for _, tc := range tests {
		got, ok := cfg.Lookup(tc.ctx, tc.name)
		if !ok {
			t.Errorf("%s %q missing from default config", tc.ctx, tc.name)
			continue
		}
		if got.ID != tc.id {
			t.Errorf("%s %q: config id %d, machine id %d", tc.ctx, tc.name, got.ID, tc.id)
		}
	}
	counts := map[Context]int{}
	for _, tc := range tests {
		counts[tc.ctx]++
	}
	for _, ctx := range []Context{OpcodeContext, AluOpcodeContext, ToBusContext, FromBusContext} {
		if n := len(cfg.table(ctx)); n != counts[ctx] {
			t.Errorf("%s table has %d entries; test covers %d", ctx, n, counts[ctx])
		}
	}
}

func TestConfig_Lookup(t *testing.T) {
	cfg := DefaultConfig()
	if w, ok := cfg.Lookup(ToBusContext, "Stack-Pop"); !ok || w.Name != "stack-pop" {
		t.Errorf("case-insensitive lookup failed: %+v %v", w, ok)
	}
	if _, ok := cfg.Lookup(FromBusContext, "stack-pop"); ok {
		t.Error("stack-pop must not resolve as a destination")
	}
	if name, ok := cfg.Name(AluOpcodeContext, 7); !ok || name != "eq" {
		t.Errorf("Name(alu, 7) = %q, %v", name, ok)
	}
	if _, ok := cfg.Name(AluOpcodeContext, 15); ok {
		t.Error("alu id 15 is unassigned")
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"bad json", `{`, "unmarshal"},
		{"id too wide", `{"opcodes": [{"id_": 16, "name": "big"}]}`, "does not fit in 4 bits"},
		{"empty name", `{"to_bus": [{"id_": 1, "name": ""}]}`, "empty name"},
		{"duplicate name", `{"from_bus": [{"id_": 1, "name": "x"}, {"id_": 2, "name": "X"}]}`, "duplicate"},
		{"duplicate id", `{"alu_opcodes": [{"id_": 1, "name": "x"}, {"id_": 1, "name": "y"}]}`, "duplicate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.json))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("ParseConfig() error = %v; want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, defaultConfigJSON, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.FromBus) != 16 {
		t.Errorf("loaded %d destinations; want 16", len(cfg.FromBus))
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"opcodes": [{"id_": 99, "name": "x"}]}`), 0o644)
	if _, err := LoadConfig(bad); err == nil || !strings.Contains(err.Error(), bad) {
		t.Errorf("expected error naming %s, got %v", bad, err)
	}
}
