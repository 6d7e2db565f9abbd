/*
colors.go - Display colors for payees

PURPOSE:
  Assigns each payee a stable, distinct color keyed by their position in
  the household. Hues step around the wheel by the golden angle so any
  number of payees stays visually spread out; lightness is dropped for
  the yellow-green and cyan-blue bands where full-lightness colors fail
  contrast against white backgrounds.
*/
package export

import (
	"fmt"
	"math"

	"github.com/warp/cashflow-engine/schedule"
)

// goldenAngle in radians: 2*pi / (phi + 1), about 137.5 degrees.
var goldenAngle = 2 * math.Pi / (math.Phi + 1)

// PayeeColor returns the hex color for the payee at the given index.
func PayeeColor(index int) string {
	hue := math.Mod(float64(index)*goldenAngle, 2*math.Pi)
	degrees := math.Mod(hue*180/math.Pi, 360)

	lightness := 0.40
	switch {
	case degrees >= 40 && degrees <= 180:
		lightness = 0.28
	case degrees > 180 && degrees <= 250:
		lightness = 0.33
	}

	r, g, b := hslToRGB(degrees/360, 0.80, lightness)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// PayeeColors maps every payee to its color, keyed by listed order.
func PayeeColors(payees []schedule.Payee) map[string]string {
	colors := make(map[string]string, len(payees))
	for i, p := range payees {
		colors[p.Name] = PayeeColor(i)
	}
	return colors
}

// hslToRGB converts hue (0-1), saturation, and lightness to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b int) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h*6, 2)-1))
	m := l - c/2

	var rf, gf, bf float64
	switch {
	case h < 1.0/6:
		rf, gf, bf = c, x, 0
	case h < 2.0/6:
		rf, gf, bf = x, c, 0
	case h < 3.0/6:
		rf, gf, bf = 0, c, x
	case h < 4.0/6:
		rf, gf, bf = 0, x, c
	case h < 5.0/6:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}

	return int((rf + m) * 255), int((gf + m) * 255), int((bf + m) * 255)
}
