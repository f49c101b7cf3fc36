// Package color derives stable display colors from catalog identifiers.
package color

import (
	"fmt"
	"hash/fnv"
)

// Saturation and lightness of generated colors. They stay readable on dark
// terminal backgrounds.
const (
	saturation = 0.55
	lightness  = 0.62
)

// For returns a hex color for key. The same key always maps to the same
// color.
func For(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	r, g, b := hslToRGB(float64(h.Sum32()%360), saturation, lightness)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// hslToRGB converts h in [0,360) and s, l in [0,1] to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}

	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	h /= 360

	return channel(p, q, h+1.0/3), channel(p, q, h), channel(p, q, h-1.0/3)
}

func channel(p, q, t float64) uint8 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
	}
	var v float64
	switch {
	case t < 1.0/6:
		v = p + (q-p)*6*t
	case t < 1.0/2:
		v = q
	case t < 2.0/3:
		v = p + (q-p)*(2.0/3-t)*6
	default:
		v = p
	}
	return uint8(v * 255)
}
