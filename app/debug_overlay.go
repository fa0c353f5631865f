package app

import (
	"fmt"
	"image/color"
	"os"
	"runtime"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// DebugOverlay is the F3 performance readout. Sampling runs at most once per
// second so the overlay itself stays cheap.
type DebugOverlay struct {
	visible bool
	proc    *process.Process

	lastSample time.Time
	cpuPercent float64
	rssMB      float64
}

func NewDebugOverlay() *DebugOverlay {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}
	return &DebugOverlay{proc: proc}
}

func (d *DebugOverlay) Toggle() { d.visible = !d.visible }

func (d *DebugOverlay) Visible() bool { return d.visible }

func (d *DebugOverlay) Update() {
	if !d.visible || time.Since(d.lastSample) < time.Second {
		return
	}
	d.lastSample = time.Now()

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		d.cpuPercent = percents[0]
	}
	if d.proc != nil {
		if mem, err := d.proc.MemoryInfo(); err == nil && mem != nil {
			d.rssMB = float64(mem.RSS) / (1024 * 1024)
		}
	}
}

func (d *DebugOverlay) Draw(screen *ebiten.Image, vp *Viewport, territories, claims int) {
	if !d.visible {
		return
	}

	lines := []string{
		fmt.Sprintf("FPS %.0f  TPS %.0f", ebiten.ActualFPS(), ebiten.ActualTPS()),
		fmt.Sprintf("CPU %.1f%%  RSS %.1f MB", d.cpuPercent, d.rssMB),
		fmt.Sprintf("Goroutines %d", runtime.NumGoroutine()),
		fmt.Sprintf("Scale %.2f  Offset (%.0f, %.0f)", vp.Scale(), vp.offsetX, vp.offsetY),
		fmt.Sprintf("Territories %d  Claims %d", territories, claims),
	}

	const lineHeight = 16
	panelW := 260
	panelH := len(lines)*lineHeight + 12
	vector.DrawFilledRect(screen, 4, 4, float32(panelW), float32(panelH),
		color.RGBA{0, 0, 0, 180}, false)

	for i, line := range lines {
		text.Draw(screen, line, labelFace, 12, 20+i*lineHeight, color.RGBA{180, 255, 180, 255})
	}
}
