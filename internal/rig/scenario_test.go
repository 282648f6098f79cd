package rig_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/hydrorig/internal/config"
	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/rig"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func run(cfg *config.Config) (*dynamo.Trace, error) {
	s, _, err := rig.NewSimulator(cfg, quiet)
	Expect(err).NotTo(HaveOccurred())
	return s.Run(context.Background(), cfg.InitialState(), cfg.Sim())
}

var _ = Describe("reference scenario", func() {
	var trace *dynamo.Trace

	BeforeEach(func() {
		var err error
		trace, err = run(config.GetPreset("reference"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("covers two valve periods with one record per step", func() {
		Expect(trace.Records).To(HaveLen(401))
		last, ok := trace.Last()
		Expect(ok).To(BeTrue())
		Expect(last.Time).To(BeNumerically("~", 0.04, 1e-12))
		Expect(trace.Outputs).To(ContainElements(rig.OutFa, rig.OutFb))
	})

	It("keeps the tilt within the small-angle range", func() {
		for _, rec := range trace.Records {
			Expect(math.Abs(rec.State[rig.IdxTheta])).To(BeNumerically("<", 0.1))
		}
		Expect(trace.Warnings).To(BeEmpty())
	})

	It("tilts both ways", func() {
		theta := trace.Column(rig.IdxTheta)
		Expect(theta).To(ContainElement(BeNumerically(">", 0)))
		Expect(theta).To(ContainElement(BeNumerically("<", 0)))
	})

	It("moves the rod downward", func() {
		z := trace.Column(rig.IdxZ)
		n := len(z)
		Expect(z[n-1]).To(BeNumerically("<", 0))

		first, second := mean(z[:n/2]), mean(z[n/2:])
		Expect(second).To(BeNumerically("<", first))
	})

	It("keeps the pistons on the rod", func() {
		for _, s := range rig.Samples(trace) {
			Expect(s.ZA + s.ZB).To(BeNumerically("~", 2*s.Z, 1e-15))
			Expect(s.ZB - s.ZA).To(BeNumerically("~", s.Theta*1.5, 1e-15))
			Expect(s.ZDotA + s.ZDotB).To(BeNumerically("~", 2*s.ZDot, 1e-12))
		}
	})

	It("reports forces from the chamber pressures", func() {
		for _, s := range rig.Samples(trace) {
			Expect(s.Fa).To(BeNumerically(">=", 0))
			Expect(s.Fb).To(BeNumerically(">=", 0))
			Expect(s.Fa).To(BeNumerically("~", 1e-3*math.Max(s.PA, 0), 1e-9))
			Expect(s.AreaA + s.AreaB).To(BeNumerically("~", 1.2e-5, 1e-18))
		}
	})

	It("is deterministic", func() {
		again, err := run(config.GetPreset("reference"))
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Records).To(HaveLen(len(trace.Records)))
		for i := range trace.Records {
			Expect(again.Records[i].State).To(Equal(trace.Records[i].State))
			Expect(again.Records[i].Values).To(Equal(trace.Records[i].Values))
		}
	})

	It("agrees with the adaptive solver", func() {
		cfg := config.GetPreset("reference")
		cfg.Integrator = "rk45"
		adaptive, err := run(cfg)
		Expect(err).NotTo(HaveOccurred())

		a, _ := adaptive.Last()
		b, _ := trace.Last()
		Expect(a.Time).To(Equal(0.04))
		Expect(a.State[rig.IdxZ]).To(BeNumerically("~", b.State[rig.IdxZ], 1e-6))
		Expect(a.State[rig.IdxTheta]).To(BeNumerically("~", b.State[rig.IdxTheta], 1e-5))
	})
})

var _ = Describe("divergence", func() {
	It("reports an oversized step instead of a wrong answer", func() {
		cfg := config.GetPreset("reference")
		cfg.Dt = 10

		trace, err := run(cfg)
		Expect(errors.Is(err, dynamo.ErrNumericDivergence)).To(BeTrue())

		var serr *dynamo.SimulationError
		Expect(errors.As(err, &serr)).To(BeTrue())
		Expect(serr.Step).To(Equal(1))

		Expect(trace.Records).To(HaveLen(1))
		Expect(trace.Records[0].State).To(Equal(cfg.InitialState()))
	})

	It("rejects a rod tilted past the model range", func() {
		r, err := rig.FromConfig(config.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		x := make(dynamo.State, rig.StateDim)
		x[rig.IdxTheta] = -2
		Expect(r.Check(x, 0)).To(MatchError(rig.ErrTiltRange))
		x[rig.IdxTheta] = 0.3
		Expect(r.Check(x, 0)).To(Succeed())
	})
})

var _ = Describe("free fall", func() {
	It("accelerates uniformly under gravity without hydraulic force", func() {
		cfg := config.GetPreset("freefall")
		cfg.InitState.ZDot = 0.25

		trace, err := run(cfg)
		Expect(err).NotTo(HaveOccurred())

		g := cfg.ExternalForce() / cfg.M
		for _, rec := range trace.Records {
			t := rec.Time
			Expect(rec.State[rig.IdxZDot]).To(BeNumerically("~", 0.25+g*t, 1e-9))
			Expect(rec.State[rig.IdxZ]).To(BeNumerically("~", 0.25*t+0.5*g*t*t, 1e-9))
			Expect(rec.State[rig.IdxTheta]).To(BeZero())
		}
	})
})

var _ = Describe("symmetry", func() {
	It("keeps theta at rest when both valves match", func() {
		cfg := config.GetPreset("reference")
		cfg.Valve.Profile = config.ProfileConstant
		cfg.Valve.AreaA = 6e-6
		cfg.Valve.AreaB = 6e-6

		trace, err := run(cfg)
		Expect(err).NotTo(HaveOccurred())
		for _, s := range rig.Samples(trace) {
			Expect(s.Fa).To(Equal(s.Fb))
			Expect(s.Theta).To(BeZero())
			Expect(s.ThetaDot).To(BeZero())
		}
	})

	It("holds a non-zero initial tilt constant", func() {
		cfg := config.GetPreset("freefall")
		cfg.InitState.Theta = 0.05

		trace, err := run(cfg)
		Expect(err).NotTo(HaveOccurred())
		for _, rec := range trace.Records {
			Expect(rec.State[rig.IdxTheta]).To(Equal(0.05))
			Expect(rec.State[rig.IdxThetaDot]).To(BeZero())
		}
	})
})

var _ = Describe("warnings", func() {
	It("counts repeated small-angle warnings once", func() {
		cfg := config.GetPreset("freefall")
		cfg.InitState.Theta = 0.3
		cfg.InitState.ThetaDot = 0.1

		trace, err := run(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(trace.Warnings).To(HaveLen(1))
		Expect(trace.Warnings[0].Kind).To(Equal(dynamo.WarnSmallAngle))
		Expect(trace.WarningCounts["small_angle/rod"]).To(Equal(len(trace.Records)))
	})

	It("flags and recovers a cavitated chamber", func() {
		cfg := config.GetPreset("reference")
		cfg.InitState.PA = -2e5

		trace, err := run(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(trace.Warnings).NotTo(BeEmpty())
		Expect(trace.Warnings[0].Kind).To(Equal(dynamo.WarnPressureRange))
		Expect(trace.Warnings[0].Source).To(Equal("A"))

		last, _ := trace.Last()
		Expect(last.State[rig.IdxPA]).To(BeNumerically(">", 0))
	})
})

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
