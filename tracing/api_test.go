package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/rvwalk/sim"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("Api", func() {
	var (
		mockCtrl *gomock.Controller
		domain   *MockNamedHookable
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		domain = NewMockNamedHookable(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("with hooks", func() {
		BeforeEach(func() {
			domain.EXPECT().NumHooks().Return(1).AnyTimes()
		})

		It("should panic if ID is not given", func() {
			domain.EXPECT().Name().Return("domain").AnyTimes()
			Expect(func() {
				StartTask("", "123", domain, "kind", "what", nil)
			}).Should(Panic())
		})

		It("should panic if domain's name is empty", func() {
			domain.EXPECT().Name().Return("").AnyTimes()
			Expect(func() {
				StartTask("id", "123", domain, "kind", "what", nil)
			}).Should(Panic())
		})

		It("should panic if kind is empty", func() {
			domain.EXPECT().Name().Return("domain").AnyTimes()
			Expect(func() {
				StartTask("id", "123", domain, "", "what", nil)
			}).Should(Panic())
		})

		It("should start a task located at the domain", func() {
			domain.EXPECT().Name().Return("domain").AnyTimes()
			domain.EXPECT().InvokeHook(gomock.Any()).Do(func(ctx sim.HookCtx) {
				task := ctx.Item.(Task)
				Expect(ctx.Pos).To(BeIdenticalTo(HookPosTaskStart))
				Expect(task.ID).To(Equal("id"))
				Expect(task.ParentID).To(Equal("123"))
				Expect(task.Where).To(Equal("domain"))
			})

			StartTask("id", "123", domain, "kind", "what", nil)
		})

		It("should add a step", func() {
			domain.EXPECT().InvokeHook(gomock.Any()).Do(func(ctx sim.HookCtx) {
				task := ctx.Item.(Task)
				Expect(ctx.Pos).To(BeIdenticalTo(HookPosTaskStep))
				Expect(task.Steps).To(HaveLen(1))
				Expect(task.Steps[0].What).To(Equal("pte_read"))
			})

			AddTaskStep("id", domain, "pte_read")
		})
	})

	It("should not invoke hooks when no hook is attached", func() {
		domain.EXPECT().NumHooks().Return(0).AnyTimes()

		StartTask("", "", domain, "", "", nil)
		AddTaskStep("id", domain, "step")
		EndTask("id", domain)
	})
})
