package ui

import (
	"strings"

	"github.com/charmbracelet/harmonica"

	"github.com/olivier-w/presto/internal/engine"
)

func renderProgressBar(ratio float64, width int) string {
	if width < 10 {
		width = 10
	}
	barWidth := width - 2
	ratio = min(max(ratio, 0), 1)
	filled := int(ratio * float64(barWidth))
	return strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
}

// progressBar eases the displayed position toward playback progress so
// coarse position ticks and seeks animate instead of jumping.
type progressBar struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
}

func newProgressBar() progressBar {
	return progressBar{spring: harmonica.NewSpring(harmonica.FPS(frameRate), 8.0, 1.0)}
}

func (p *progressBar) step(target float64) {
	p.pos, p.vel = p.spring.Update(p.pos, p.vel, min(max(target, 0), 1))
}

func (p *progressBar) reset(ratio float64) {
	p.pos, p.vel = ratio, 0
}

func (p progressBar) view(width int) string {
	return renderProgressBar(p.pos, width)
}

func statusIcon(s engine.Status) string {
	switch s {
	case engine.Playing:
		return "▶"
	case engine.Paused:
		return "❚❚"
	}
	return "■"
}

func loopIcon(m engine.LoopMode) string {
	switch m {
	case engine.LoopAll:
		return "[loop all]"
	case engine.LoopOne:
		return "[loop one]"
	}
	return ""
}

func shuffleIcon(on bool) string {
	if on {
		return "[shuffle]"
	}
	return ""
}
