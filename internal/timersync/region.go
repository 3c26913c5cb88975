package timersync

import (
	"fmt"
	"strings"

	"clipmark/internal/ocr"
	"clipmark/internal/services"
)

// Supported game identifiers.
const (
	GameApex     = "apex"
	GameValorant = "valorant"
)

// Games lists the games with a known timer location.
func Games() []string {
	return []string{GameApex, GameValorant}
}

// Region returns the timer area for game in a width x height frame.
func Region(game string, width, height int) (ocr.Region, error) {
	if width <= 0 || height <= 0 {
		return ocr.Region{}, services.Wrap(services.ErrValidation, "timersync", "region", fmt.Sprintf("invalid frame size %dx%d", width, height), nil)
	}
	switch normalizeGame(game) {
	case GameApex:
		// Below the minimap: left quarter, bottom quarter.
		top := height * 75 / 100
		return ocr.Region{Left: 0, Top: top, Width: width * 25 / 100, Height: height - top}, nil
	case GameValorant:
		const timerWidth, timerHeight = 100, 40
		left := max(0, width/2-timerWidth/2)
		top := height * 92 / 100
		return ocr.Region{
			Left:   left,
			Top:    top,
			Width:  min(timerWidth, width-left),
			Height: min(timerHeight, height-top),
		}, nil
	default:
		return ocr.Region{}, services.Wrap(services.ErrValidation, "timersync", "region",
			fmt.Sprintf("unsupported game %q (supported: %s)", game, strings.Join(Games(), ", ")), nil)
	}
}

func normalizeGame(game string) string {
	game = strings.ToLower(strings.TrimSpace(game))
	if game == "" {
		return GameApex
	}
	return game
}
