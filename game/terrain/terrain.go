// Package terrain provides the ground height field shared by spawn
// placement, collision Y-follow and loot drops.
package terrain

import "math"

// WaterLevel is the height below which a point counts as underwater.
const WaterLevel = -2.0

// Height returns the ground height at (x, z): broad hills, medium ridges
// and small bumps summed together.
func Height(x, z float64) float64 {
	broad := math.Sin(x*0.05) * math.Cos(z*0.05) * 6
	ridges := math.Sin(x*0.15+1.3) * math.Cos(z*0.12-0.7) * 2
	bumps := math.Sin(x*0.5) * math.Sin(z*0.5) * 0.4
	return broad + ridges + bumps
}

// Underwater reports whether the ground at (x, z) lies below water level.
func Underwater(x, z float64) bool {
	return Height(x, z) < WaterLevel
}

// GridSnap rounds v to the nearest multiple of step.
func GridSnap(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}
