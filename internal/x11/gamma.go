package x11

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/randr"
)

// Fade configures the brightness ramp played around a mode switch.
type Fade struct {
	Enabled  bool
	Steps    int
	Duration time.Duration
}

type gammaRamp struct {
	red   []uint16
	green []uint16
	blue  []uint16
}

func (c *Connection) crtcGamma(crtc randr.Crtc) (gammaRamp, error) {
	reply, err := randr.GetCrtcGamma(c.XUtil.Conn(), crtc).Reply()
	if err != nil {
		return gammaRamp{}, fmt.Errorf("failed to get crtc %d gamma: %w", crtc, err)
	}
	return gammaRamp{red: reply.Red, green: reply.Green, blue: reply.Blue}, nil
}

func (c *Connection) setCrtcGamma(crtc randr.Crtc, ramp gammaRamp) error {
	return randr.SetCrtcGammaChecked(
		c.XUtil.Conn(),
		crtc,
		uint16(len(ramp.red)),
		ramp.red,
		ramp.green,
		ramp.blue,
	).Check()
}

// scaleRamp returns a copy of ramp with every entry multiplied by factor,
// clamped to [0,1].
func scaleRamp(ramp gammaRamp, factor float64) gammaRamp {
	if factor < 0 {
		factor = 0
	}
	if factor > 1 {
		factor = 1
	}
	scale := func(in []uint16) []uint16 {
		out := make([]uint16, len(in))
		for i, v := range in {
			out[i] = uint16(float64(v) * factor)
		}
		return out
	}
	return gammaRamp{red: scale(ramp.red), green: scale(ramp.green), blue: scale(ramp.blue)}
}

// fadeFactors returns the brightness factor for each step of a fade from
// `from` to `to`, excluding the starting value.
func fadeFactors(from, to float64, steps int) []float64 {
	if steps < 1 {
		steps = 1
	}
	out := make([]float64, steps)
	for i := 1; i <= steps; i++ {
		out[i-1] = from + (to-from)*float64(i)/float64(steps)
	}
	return out
}

// fade ramps the crtc from one brightness to another over f.Duration.
func (c *Connection) fade(crtc randr.Crtc, base gammaRamp, from, to float64, f Fade) error {
	factors := fadeFactors(from, to, f.Steps)
	delay := f.Duration / time.Duration(len(factors))
	for _, factor := range factors {
		if err := c.setCrtcGamma(crtc, scaleRamp(base, factor)); err != nil {
			return err
		}
		time.Sleep(delay)
	}
	return nil
}
