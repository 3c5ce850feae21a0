package particle

import "math"

// decays holds exponential drag factors precomputed once per frame.
type decays struct {
	trailXY float64
	sparkXY float64
}

func computeDecays(dt float64) decays {
	return decays{
		trailXY: math.Exp(-0.6 * dt),
		sparkXY: math.Exp(-2.8 * dt),
	}
}

// Update advances every particle by dt seconds and drops the expired ones.
func (ps *System) Update(dt float64) {
	if dt <= 0 {
		return
	}
	d := computeDecays(dt)

	for i := 0; i < len(ps.P); {
		p := &ps.P[i]

		p.Life += dt
		if p.Life >= p.MaxLife {
			ps.counts[p.Kind]--
			ps.P[i] = ps.P[len(ps.P)-1]
			ps.P = ps.P[:len(ps.P)-1]
			continue
		}
		// Skip delayed particles.
		if p.Life < 0 {
			i++
			continue
		}

		switch p.Kind {
		case Ambient:
			p.X += p.VX * dt
			p.Y += p.VY * dt
			// Wrap so the population never thins out at one edge.
			if p.X < -0.02 {
				p.X += 1.04
			}
			p.Y = math.Mod(p.Y+1, 1)
		case Trail:
			p.VX *= d.trailXY
			p.VY *= d.trailXY
			p.X += p.VX * dt
			p.Y += p.VY * dt
		case Spark:
			p.VX *= d.sparkXY
			p.VY *= d.sparkXY
			p.X += p.VX * dt
			p.Y += p.VY * dt
		}
		i++
	}
	if ps.ovrIdx > len(ps.P) {
		ps.ovrIdx = 0
	}
}
