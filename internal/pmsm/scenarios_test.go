package pmsm_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pmsmsolve/internal/pmsm"
)

var _ = Describe("operating points of a small IPM motor", func() {
	var (
		motor *pmsm.MotorParameters
		cond  *pmsm.Condition
	)

	BeforeEach(func() {
		motor = pmsm.NewMotorParameters(0.5, 0.001, 0.002, 0.05, 4)
		cond = pmsm.NewCondition(motor, 24, 10)
	})

	Context("at 0.3 Nm and 200 rad/s", func() {
		It("stays below the voltage limit", func() {
			sol, status := pmsm.Solve(cond, 0.3, 200)

			Expect(status).To(Equal(pmsm.StatusOK))
			Expect(sol.FW).To(BeFalse())
			Expect(sol.VaCalc).To(BeNumerically("<", cond.VaLim))
		})

		It("lands within a percent of the id=0 current", func() {
			sol, _ := pmsm.Solve(cond, 0.3, 200)
			closedForm := 0.3 / (motor.PsiA * motor.Poles / 2)

			Expect(sol.IaRef).To(BeNumerically("~", closedForm, 0.01*closedForm))
			Expect(motor.Torque(sol.IdRef, sol.IqRef)).To(BeNumerically("~", 0.3, 0.3*pmsm.MTPAConvergenceThreshold))
		})
	})

	Context("when the back-emf exceeds the supply", func() {
		It("weakens the field until the voltage fits", func() {
			sol, status := pmsm.Solve(cond, 0.3, 500.0)

			Expect(status).To(Equal(pmsm.StatusOK))
			Expect(sol.FW).To(BeTrue())
			Expect(sol.IdRef).To(BeNumerically("<", 0))
			Expect(sol.VaCalc).To(BeNumerically("<=", cond.VaLim+0.01))
		})

		It("keeps the current inside the limit at 2000 rad/s", func() {
			sol, _ := pmsm.Solve(cond, 0.3, 2000)

			Expect(sol.FW).To(BeTrue())
			Expect(sol.CurrentAmplitude()).To(BeNumerically("<=", cond.IaLim+1e-9))
		})
	})

	Context("with a torque request beyond the current limit", func() {
		It("clamps to the current circle", func() {
			sol, status := pmsm.Solve(cond, 5, 600)

			Expect(status).To(Equal(pmsm.StatusOK))
			Expect(sol.CurrentLimited).To(BeTrue())
			Expect(sol.IaRef).To(BeNumerically("~", cond.IaLim, 1e-9))
		})
	})

	DescribeTable("flux weakening never exceeds the current limit",
		func(torque, speed float64) {
			sol, _ := pmsm.Solve(cond, torque, speed)
			if sol.FW {
				Expect(math.Hypot(sol.IdRef, sol.IqRef)).To(BeNumerically("<=", cond.IaLim+1e-9))
			}
		},
		Entry("light load", 0.3, 500.0),
		Entry("reverse light load", -0.3, 560.0),
		Entry("oscillating fixed point", 1.0, 400.0),
		Entry("overload", 5.0, 600.0),
		Entry("zero torque", 0.0, 600.0),
		Entry("very high speed", 5.0, 2000.0),
	)
})
