package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/ebiten/v2"

	"stackcpu/pkg/compiler"
	"stackcpu/pkg/cpu"
	"stackcpu/pkg/peripherals"
	"stackcpu/pkg/utils"
)

// startTone plays tone through the default audio device.
func startTone(tone *peripherals.Tone) (*oto.Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   peripherals.ToneSampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	player := ctx.NewPlayer(tone)
	player.Play()
	return player, nil
}

func main() {
	stepsPerFrame := flag.Int("ipf", 100, "instructions executed per frame")
	snapshot := flag.String("snapshot", "stackcpu.snapshot", "snapshot file used by F5/F9")
	withTone := flag.Bool("tone", false, "play port A writes as a square wave; port A is also the display address latch, so the pitch follows every address write")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: desktop [-ipf n] [-snapshot path] [-tone] source.asm")
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
	vm, err := cpu.NewMachine(words)
	if err != nil {
		log.Fatal(err)
	}

	display := peripherals.NewDisplay()
	var gpio cpu.GPIO = display
	var extra []cpu.Device
	// The display decodes both output ports, so the tone shares port A with
	// the address latch.
	if *withTone {
		tone := peripherals.NewTone()
		player, err := startTone(tone)
		if err != nil {
			log.Printf("audio disabled: %v", err)
		} else {
			defer player.Close()
			gpio = peripherals.NewTee(display, tone)
			extra = append(extra, tone)
		}
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Stack machine emulator")

	game := NewGame(vm, display, gpio, *stepsPerFrame, *snapshot, extra...)
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
