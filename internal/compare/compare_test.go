package compare_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidlab/internal/compare"
	"github.com/san-kum/pidlab/internal/loop"
)

var _ = Describe("Run", func() {
	var (
		spec loop.Spec
		cfg  loop.Config
	)

	BeforeEach(func() {
		spec = loop.FirstOrderSpec(1, 0.5)
		cfg = loop.DefaultConfig()
	})

	It("rejects an empty candidate set", func() {
		_, err := compare.Run(spec, nil, cfg, compare.DefaultWeights())
		Expect(err).To(MatchError(loop.ErrEmptyInput))
	})

	It("scores a single candidate exactly one", func() {
		ranking, err := compare.Run(spec, []loop.Gains{{Kp: 2, Ki: 2}}, cfg, compare.DefaultWeights())
		Expect(err).NotTo(HaveOccurred())
		Expect(ranking).To(HaveLen(1))
		Expect(ranking[0].Score).To(Equal(1.0))
	})

	It("ranks a tuned controller above proportional-only and sluggish ones", func() {
		tuned := loop.Gains{Kp: 2, Ki: 2, Kd: 0.125}
		ponly := loop.Gains{Kp: 2}
		sluggish := loop.Gains{Kp: 0.2, Ki: 0.05}

		ranking, err := compare.Run(spec, []loop.Gains{ponly, tuned, sluggish}, cfg, compare.DefaultWeights())
		Expect(err).NotTo(HaveOccurred())
		Expect(ranking).To(HaveLen(3))

		Expect(ranking[0].Gains).To(Equal(tuned))
		Expect(ranking[2].Gains).To(Equal(sluggish))
		Expect(ranking[0].Score).To(BeNumerically(">", ranking[1].Score))
		Expect(ranking[1].Score).To(BeNumerically(">", ranking[2].Score))
	})

	It("carries the step metrics of each candidate", func() {
		ranking, err := compare.Run(spec, []loop.Gains{{Kp: 2}}, cfg, compare.DefaultWeights())
		Expect(err).NotTo(HaveOccurred())

		// Proportional-only on K/(tau*s+1) leaves the classic offset
		// setpoint/(1+Kp*K).
		Expect(ranking[0].Metrics.SteadyStateError).To(BeNumerically("~", 1.0/3, 0.02))
		Expect(ranking[0].Metrics.SettlingTime).To(Equal(cfg.Duration))
	})

	It("keeps identical candidates tied at score one", func() {
		g := loop.Gains{Kp: 2, Ki: 2, Kd: 0.125}
		ranking, err := compare.Run(spec, []loop.Gains{g, g}, cfg, compare.DefaultWeights())
		Expect(err).NotTo(HaveOccurred())
		Expect(ranking).To(HaveLen(2))
		Expect(ranking[0].Score).To(Equal(1.0))
		Expect(ranking[1].Score).To(Equal(1.0))
	})

	It("rejects weights that are negative or sum to zero", func() {
		_, err := compare.Run(spec, []loop.Gains{{Kp: 1}}, cfg, compare.Weights{Overshoot: -1})
		Expect(err).To(MatchError(loop.ErrValidation))

		_, err = compare.Run(spec, []loop.Gains{{Kp: 1}}, cfg, compare.Weights{})
		Expect(err).To(MatchError(loop.ErrValidation))
	})

	It("reports which candidate failed to simulate", func() {
		unstable := loop.HigherOrderSpec(1, []complex128{5}, nil)
		long := loop.Config{Duration: 150, Step: 0.05, Amplitude: 1}

		_, err := compare.Run(unstable, []loop.Gains{{Kp: 0.1}}, long, compare.DefaultWeights())
		Expect(err).To(MatchError(loop.ErrModel))
		Expect(err.Error()).To(ContainSubstring("candidate 0"))
	})

	It("reports which candidate carried invalid gains", func() {
		bad := loop.Gains{Kp: -1}
		_, err := compare.Run(spec, []loop.Gains{{Kp: 1}, bad}, cfg, compare.DefaultWeights())
		Expect(err).To(MatchError(loop.ErrValidation))
		Expect(err.Error()).To(ContainSubstring("candidate 1"))
	})
})
