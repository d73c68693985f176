package ahrs

import (
	"math"
	"testing"

	"github.com/relabs-tech/hmd_tracker/internal/geom"
)

func TestOffsetPassthroughBeforeTimeout(t *testing.T) {
	o := NewOffset(1000)

	// For the first stationary seconds the bias estimate must not move.
	in := geom.Vector3{X: 1}
	for i := 0; i < o.timeout; i++ {
		out := o.Update(in)
		if out != in {
			t.Fatalf("sample %d: output %+v, want %+v", i, out, in)
		}
	}
	if o.offset != (geom.Vector3{}) {
		t.Errorf("offset adapted before timeout: %+v", o.offset)
	}
}

func TestOffsetConvergesToBias(t *testing.T) {
	o := NewOffset(1000)
	bias := geom.Vector3{X: 1, Y: -0.5, Z: 0.25}

	// The cutoff is 0.02 Hz, a time constant of roughly 8 seconds. A few
	// minutes of stationary samples converge well within 1%.
	for i := 0; i < 120_000; i++ {
		o.Update(bias)
	}

	if math.Abs(o.offset.X-bias.X) > 0.01 ||
		math.Abs(o.offset.Y-bias.Y) > 0.01 ||
		math.Abs(o.offset.Z-bias.Z) > 0.01 {
		t.Errorf("offset = %+v, want near %+v", o.offset, bias)
	}

	out := o.Update(bias)
	if out.Norm() > 0.02 {
		t.Errorf("compensated output = %+v, want near zero", out)
	}
}

func TestOffsetMotionResetsTimer(t *testing.T) {
	o := NewOffset(1000)

	for i := 0; i < o.timeout-1; i++ {
		o.Update(geom.Vector3{X: 1})
	}
	// One sample above the 3 deg/s threshold restarts the stillness
	// timer; adaptation must not begin on the next quiet sample.
	o.Update(geom.Vector3{X: 10})
	if o.timer != 0 {
		t.Fatalf("timer = %d after motion, want 0", o.timer)
	}

	o.Update(geom.Vector3{X: 1})
	if o.offset != (geom.Vector3{}) {
		t.Errorf("offset adapted right after motion: %+v", o.offset)
	}
}

func TestOffsetDoesNotAdaptDuringMotion(t *testing.T) {
	o := NewOffset(1000)

	for i := 0; i < 50_000; i++ {
		o.Update(geom.Vector3{X: 45})
	}
	if o.offset != (geom.Vector3{}) {
		t.Errorf("offset adapted during motion: %+v", o.offset)
	}
}
