package main

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"stackcpu/pkg/asm"
	"stackcpu/pkg/cpu"
	"stackcpu/pkg/peripherals"
)

const (
	pixelSize    = 15
	statusHeight = 56
	screenWidth  = peripherals.DisplayWidth * pixelSize
	screenHeight = peripherals.DisplayHeight*pixelSize + statusHeight
)

// inputKeys map onto bits 0..4 of the GPIO input mask.
var inputKeys = []ebiten.Key{
	ebiten.KeySpace,
	ebiten.KeyArrowLeft,
	ebiten.KeyArrowRight,
	ebiten.KeyA,
	ebiten.KeyD,
}

var (
	pixelOn    = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	pixelOff   = color.RGBA{0x10, 0x10, 0x18, 0xFF}
	statusText = color.RGBA{0xC0, 0xC0, 0xC0, 0xFF}
	faultText  = color.RGBA{0xFF, 0x50, 0x50, 0xFF}
)

type Game struct {
	vm      *cpu.Machine
	display *peripherals.Display
	gpio    cpu.GPIO
	devices []cpu.Device // saved with each snapshot
	cfg     *asm.Config

	stepsPerFrame int
	snapshotPath  string

	paused bool
	halted bool
	err    error
	notice string

	displayImg  *ebiten.Image // reused 32×32 canvas
	pixels      []byte
	drawnWrites uint64

	clipboardOnce sync.Once
	clipboardOK   bool
}

// NewGame drives vm through gpio, or the display alone when gpio is nil.
// Snapshots carry the display plus any extra devices.
func NewGame(vm *cpu.Machine, display *peripherals.Display, gpio cpu.GPIO, stepsPerFrame int, snapshotPath string, extra ...cpu.Device) *Game {
	if gpio == nil {
		gpio = display
	}
	return &Game{
		vm:            vm,
		display:       display,
		gpio:          gpio,
		devices:       append([]cpu.Device{display}, extra...),
		cfg:           asm.DefaultConfig(),
		stepsPerFrame: stepsPerFrame,
		snapshotPath:  snapshotPath,
	}
}

// keyMask sets bit i for every pressed inputKeys[i].
func keyMask(pressed func(ebiten.Key) bool) uint16 {
	var mask uint16
	for i, k := range inputKeys {
		if pressed(k) {
			mask |= 1 << i
		}
	}
	return mask
}

func (g *Game) Update() error {
	g.display.SetInput(keyMask(ebiten.IsKeyPressed))

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.paused = !g.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyS) && g.paused:
		g.advance(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		g.report(g.saveSnapshot(), "snapshot saved")
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		g.report(g.loadSnapshot(), "snapshot restored")
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.report(g.copyState(), "state copied")
	}

	if !g.paused {
		g.advance(g.stepsPerFrame)
	}
	return nil
}

// advance executes up to n instructions unless the machine already stopped.
func (g *Game) advance(n int) {
	if g.halted || g.err != nil {
		return
	}
	halted, err := g.vm.RunFor(g.gpio, n)
	g.halted = halted
	g.err = err
}

func (g *Game) report(err error, ok string) {
	if err != nil {
		g.notice = err.Error()
		return
	}
	g.notice = ok
}

func (g *Game) saveSnapshot() error {
	return g.vm.HibernateToFile(g.snapshotPath, g.devices...)
}

// loadSnapshot leaves the machine and its devices untouched when the
// archive does not restore completely.
func (g *Game) loadSnapshot() error {
	if err := g.vm.RestoreFromFile(g.snapshotPath, g.devices...); err != nil {
		return err
	}
	g.halted = g.vm.Halted
	g.err = nil
	return nil
}

func (g *Game) stateText() string {
	return g.vm.DumpState() + "\n" + g.display.String()
}

func (g *Game) copyState() error {
	g.clipboardOnce.Do(func() {
		g.clipboardOK = clipboard.Init() == nil
	})
	if !g.clipboardOK {
		return fmt.Errorf("clipboard unavailable")
	}
	clipboard.Write(clipboard.FmtText, []byte(g.stateText()))
	return nil
}

func (g *Game) status() (string, color.Color) {
	switch {
	case g.err != nil:
		return g.err.Error(), faultText
	case g.halted:
		return "Machine halted", statusText
	case g.paused:
		return "Paused (S to step, P to resume)", statusText
	}
	return "Running", statusText
}

// nextInstruction disassembles the word at EP.
func (g *Game) nextInstruction() string {
	if int(g.vm.EP) >= g.vm.ProgramSize {
		return "-"
	}
	return asm.Decode(g.vm.Program[g.vm.EP], g.cfg)
}

// framePixels renders the matrix when the display changed since the last
// call. The first call always renders.
func (g *Game) framePixels() ([]byte, bool) {
	writes := g.display.Writes()
	if g.pixels != nil && writes == g.drawnWrites {
		return g.pixels, false
	}
	g.pixels = g.display.RGBA(g.pixels, pixelOn, pixelOff)
	g.drawnWrites = writes
	return g.pixels, true
}

func (g *Game) drawMatrix(screen *ebiten.Image) {
	fresh := g.displayImg == nil
	if fresh {
		g.displayImg = ebiten.NewImage(peripherals.DisplayWidth, peripherals.DisplayHeight)
	}
	if pixels, changed := g.framePixels(); changed || fresh {
		g.displayImg.WritePixels(pixels)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(pixelSize, pixelSize)
	op.GeoM.Translate(0, statusHeight)
	screen.DrawImage(g.displayImg, op)
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.drawMatrix(screen)

	face := basicfont.Face7x13
	msg, c := g.status()
	text.Draw(screen, fmt.Sprintf("Input %016b  EP %04X  cycles %d", g.display.Input(), g.vm.EP, g.vm.Cycles), face, 6, 16, statusText)
	text.Draw(screen, msg, face, 6, 32, c)
	text.Draw(screen, "Next  "+g.nextInstruction(), face, 6, 48, statusText)
	if g.notice != "" {
		ebitenutil.DebugPrintAt(screen, g.notice, screenWidth-6*len(g.notice)-6, 2)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}
