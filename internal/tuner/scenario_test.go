package tuner

import (
	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gaintune/internal/control"
)

var _ = ginkgo.Describe("Engine", func() {
	var (
		f       *fakeTunable
		history *recordingHistory
		engine  *Engine
		cfg     Config
	)

	start := control.Gains{Kp: 0.01, Ki: 0.0005, Kd: 0}

	ginkgo.BeforeEach(func() {
		// Error stays at 10 for ticks 1-60 and is settled from tick 61.
		f = &fakeTunable{settle: settleAfter(60)}
		history = &recordingHistory{}
		cfg = DefaultConfig()
	})

	ginkgo.JustBeforeEach(func() {
		var err error
		engine, err = New(f, nil, history, cfg, WithLogger(quiet), WithClock(fixedClock))
		Expect(err).NotTo(HaveOccurred())
		Expect(engine.OnStart()).To(Succeed())
	})

	ginkgo.Context("with averaging over three repetitions", func() {
		ginkgo.It("completes each repetition at tick 100", func() {
			for i := 0; i < 99; i++ {
				Expect(engine.Tick()).To(Succeed())
			}
			Expect(engine.Snapshot().Tick).To(Equal(99))
			Expect(engine.Snapshot().WithinTolerance).To(Equal(39))

			Expect(engine.Tick()).To(Succeed())
			Expect(engine.TrialsCompleted()).To(Equal(1))
			Expect(engine.Snapshot().LastDuration).To(Equal(100))
			Expect(engine.Phase()).To(Equal(PhaseAwaitingReset))
		})

		ginkgo.It("accepts the start candidate and extrapolates with a zero delta", func() {
			Expect(runTrials(engine, 3)).To(Succeed())

			best, dur := engine.Best()
			Expect(best).To(Equal(start))
			Expect(dur).To(Equal(100.0))
			Expect(engine.Testing()).To(Equal(start))
			Expect(engine.Snapshot().Delta.IsZero()).To(BeTrue())
		})

		ginkgo.It("fast-fails the repeated candidate and starts probing", func() {
			Expect(runTrials(engine, 4)).To(Succeed())
			Expect(engine.Results()[3].Outcome).To(Equal(OutcomeRejected))

			best, dur := engine.Best()
			Expect(best).To(Equal(start))
			Expect(dur).To(Equal(100.0))
			Expect(engine.Snapshot().Delta).To(Equal(Delta{P: 0.005}))
			Expect(engine.Testing().Kp).To(BeNumerically("~", 0.015, 1e-12))
		})
	})

	ginkgo.Context("in immediate mode", func() {
		ginkgo.BeforeEach(func() {
			cfg.TrialsPerCandidate = 1
			cfg.MaxTrials = 4
		})

		ginkgo.It("flushes the history exactly once and goes inert", func() {
			for i := 0; i < 5_000; i++ {
				Expect(engine.Tick()).To(Succeed())
			}
			Expect(engine.Done()).To(BeTrue())
			Expect(history.trialWrites).To(Equal(1))
			Expect(history.trials).To(HaveLen(5))
			Expect(history.summaries).To(ConsistOf(Summary{Best: start, BestDuration: 100, Trials: 5}))

			Expect(engine.OnStop()).To(Succeed())
			Expect(history.summaries).To(HaveLen(2))
		})
	})

	ginkgo.Context("with a malformed override", func() {
		var ch *fakeChannel

		ginkgo.BeforeEach(func() {
			ch = &fakeChannel{}
		})

		ginkgo.JustBeforeEach(func() {
			engine.override = ch
			ch.value = "1,,2"
		})

		ginkgo.It("leaves nothing pending and reports on the channel", func() {
			Expect(engine.Tick()).To(Succeed())
			_, pending := engine.PendingOverride()
			Expect(pending).To(BeFalse())
			Expect(ch.value).To(HavePrefix("invalid values"))
		})
	})
})
