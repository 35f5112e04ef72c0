package ptw

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvwalk/mem/mem"
	"github.com/sarchlab/rvwalk/mem/vm"
	"github.com/sarchlab/rvwalk/mem/vm/tlb"
)

var _ = Describe("Two-stage walks", func() {
	var (
		guest  guestTables
		memory *fakeMem
		walker *Walker
		cache  *tlb.TLB
	)

	BeforeEach(func() {
		guest = newGuestTables()
		memory = newFakeMem(guest.storage)
		walker, cache = buildWalker(memory)
	})

	request := func(vaddr uint64, mode vm.AccessMode) *Request {
		return &Request{VAddr: vaddr, Size: 4, Mode: mode, Ctx: guest.ctx()}
	}

	mapGuestPage := func() {
		guest.mapData(0x10000, 0x20000, vm.PTERead|vm.PTEWrite)
		Expect(guest.guest.Map(0x1000, 0x10000, 0,
			vm.PTERead|vm.PTEWrite)).To(Succeed())
	}

	It("should read the first-stage root through the G-stage", func() {
		mapGuestPage()

		res, err := walker.StartFunctional(request(0x1234, vm.Read))

		Expect(err).NotTo(HaveOccurred())
		Expect(res.PAddr).To(Equal(uint64(0x20234)))

		// Three G-stage reads translate guest frame 0x2 first.
		Expect(memory.reads[3]).To(Equal(uint64(0x7000)))
		for _, addr := range memory.reads {
			Expect(addr >> vm.PageShift).NotTo(Equal(uint64(0x2)))
		}
	})

	It("should need at most fifteen reads", func() {
		mapGuestPage()

		res, err := walker.StartFunctional(request(0x1234, vm.Read))

		Expect(err).NotTo(HaveOccurred())
		Expect(res.NumReads).To(Equal(15))
		Expect(res.Entry.Type).To(Equal(vm.TwoStage))
		Expect(res.Entry.Virt).To(BeTrue())
		Expect(res.Entry.VMID).To(Equal(uint16(7)))
		Expect(res.Entry.ASID).To(Equal(uint16(3)))
	})

	It("should update every leaf once", func() {
		mapGuestPage()

		_, err := walker.StartAtomic(request(0x1234, vm.Write))

		Expect(err).NotTo(HaveOccurred())
		Expect(memory.writes).To(HaveLen(5))
		for _, addr := range memory.writes {
			Expect(memory.numWritesTo(addr)).To(Equal(1))
		}

		// The first-stage leaf lives in guest frame 0x4, at host frame 0x9.
		Expect(memory.pte(0x9008).A()).To(BeTrue())
		Expect(memory.pte(0x9008).D()).To(BeTrue())

		pte, _, _, ok := guest.gstage.Lookup(0x10000)
		Expect(ok).To(BeTrue())
		Expect(pte.A()).To(BeTrue())
		Expect(pte.D()).To(BeTrue())

		pte, _, _, ok = guest.gstage.Lookup(0x2000)
		Expect(ok).To(BeTrue())
		Expect(pte.A()).To(BeTrue())
		Expect(pte.D()).To(BeFalse())
	})

	It("should write a shared G-stage leaf once", func() {
		storage := mem.NewStorage(64 * mem.MB)
		gstage := vm.NewPageTable(storage, vm.NewBumpAllocator(0x100), true)
		Expect(gstage.Map(0, 0x40_0000, 1,
			vm.PTERead|vm.PTEWrite|vm.PTEUser)).To(Succeed())
		first := vm.NewPageTable(
			vm.GuestPhysMem{Host: storage, GStage: gstage},
			vm.NewBumpAllocator(0x2), false)
		Expect(first.Map(0x1000, 0x10000, 0, vm.PTERead)).To(Succeed())

		memory = newFakeMem(storage)
		walker, _ = buildWalker(memory)

		ctx := vm.Context{
			Priv:  vm.PrivS,
			Virt:  true,
			VSATP: vm.MakeSATP(vm.ModeSv39, 0, first.RootPPN()),
			HGATP: vm.MakeHGATP(vm.ModeSv39x4, 1, gstage.RootPPN()),
		}
		res, err := walker.StartAtomic(
			&Request{VAddr: 0x1000, Mode: vm.Read, Ctx: ctx})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.PAddr).To(Equal(uint64(0x41_0000)))
		Expect(res.Entry.LogBytes).To(Equal(uint(vm.PageShift)))
		Expect(memory.writes).To(HaveLen(2))
	})

	It("should report the guest physical address of a G-stage fault", func() {
		Expect(guest.guest.Map(0x1000, 0x10000, 0, vm.PTERead)).To(Succeed())

		_, err := walker.StartAtomic(request(0x1234, vm.Read))

		f := expectFault(err)
		Expect(f.Stage).To(Equal(vm.GStage))
		Expect(f.Cause).To(Equal(vm.CauseLoadGuestPageFault))
		Expect(f.Class).To(Equal(vm.FaultPermission))
		Expect(f.GPAddr).To(Equal(uint64(0x10234)))
		Expect(memory.writes).To(BeEmpty())
		Expect(cache.Entries()).To(BeEmpty())
	})

	It("should require the user bit on G-stage leaves", func() {
		Expect(guest.gstage.Map(0x10000, 0x20000, 0, vm.PTERead)).
			To(Succeed())
		Expect(guest.guest.Map(0x1000, 0x10000, 0, vm.PTERead)).To(Succeed())

		_, err := walker.StartFunctional(request(0x1000, vm.Read))

		Expect(errors.Is(err, vm.ErrGStageNotUser)).To(BeTrue())
		Expect(expectFault(err).Cause).To(Equal(vm.CauseLoadGuestPageFault))
	})

	It("should fill the TLB with a tagged entry", func() {
		mapGuestPage()

		_, err := walker.StartAtomic(request(0x1234, vm.Read))
		Expect(err).NotTo(HaveOccurred())

		res, err := walker.StartAtomic(request(0x1238, vm.Read))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.TLBHit).To(BeTrue())
		Expect(res.PAddr).To(Equal(uint64(0x20238)))

		vmid := uint16(7)
		Expect(cache.FlushGuest(&vmid)).To(Equal(1))

		res, err = walker.StartAtomic(request(0x1238, vm.Read))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.TLBHit).To(BeFalse())
	})

	Context("G-stage only", func() {
		gStageOnly := func(gpa uint64, mode vm.AccessMode) *Request {
			ctx := guest.ctx()
			ctx.VSATP = 0

			return &Request{VAddr: gpa, Mode: mode, Ctx: ctx}
		}

		It("should translate a guest physical address", func() {
			guest.mapData(0x10000, 0x20000, vm.PTERead|vm.PTEExec)

			res, err := walker.StartAtomic(gStageOnly(0x10234, vm.Execute))

			Expect(err).NotTo(HaveOccurred())
			Expect(res.PAddr).To(Equal(uint64(0x20234)))
			Expect(res.NumReads).To(Equal(3))
			Expect(res.Entry.Type).To(Equal(vm.GStageOnly))
			Expect(cache.Entries()).To(HaveLen(1))
		})

		It("should fault above the guest physical range", func() {
			_, err := walker.StartFunctional(gStageOnly(1<<41, vm.Write))

			f := expectFault(err)
			Expect(f.Class).To(Equal(vm.FaultAlignment))
			Expect(f.Cause).To(Equal(vm.CauseStoreGuestPageFault))
			Expect(memory.reads).To(BeEmpty())
		})
	})

	It("should match a one-stage walk under an identity G-stage", func() {
		storage := mem.NewStorage(64 * mem.MB)
		gstage := vm.NewPageTable(storage, vm.NewBumpAllocator(0x100), true)
		Expect(gstage.Map(0, 0, 2,
			vm.PTERead|vm.PTEWrite|vm.PTEExec|vm.PTEUser)).To(Succeed())
		first := vm.NewPageTable(storage, vm.NewBumpAllocator(1), false)
		Expect(first.Map(0x1000, 0x80000, 0,
			vm.PTERead|vm.PTEExec|vm.PTEUser)).To(Succeed())
		Expect(first.Map(0x20_0000, 0x60_0000, 1, vm.PTERead)).To(Succeed())

		walker, _ = buildWalker(newFakeMem(storage))
		native := vm.Context{
			Priv: vm.PrivU,
			SATP: vm.MakeSATP(vm.ModeSv39, 0, first.RootPPN()),
		}
		virtual := vm.Context{
			Priv:  vm.PrivU,
			Virt:  true,
			VSATP: native.SATP,
			HGATP: vm.MakeHGATP(vm.ModeSv39x4, 0, gstage.RootPPN()),
		}

		for _, vaddr := range []uint64{0x1abc, 0x2f_0008} {
			priv := vm.PrivU
			if vaddr >= 0x20_0000 {
				priv = vm.PrivS
			}
			native.Priv = priv
			virtual.Priv = priv

			one, err := walker.StartFunctional(
				&Request{VAddr: vaddr, Mode: vm.Read, Ctx: native})
			Expect(err).NotTo(HaveOccurred())

			two, err := walker.StartFunctional(
				&Request{VAddr: vaddr, Mode: vm.Read, Ctx: virtual})
			Expect(err).NotTo(HaveOccurred())

			Expect(two.PAddr).To(Equal(one.PAddr))

			onePTE, _ := one.Entry.FirstStagePTE()
			twoPTE, _ := two.Entry.FirstStagePTE()
			Expect(twoPTE.R()).To(Equal(onePTE.R()))
			Expect(twoPTE.W()).To(Equal(onePTE.W()))
			Expect(twoPTE.X()).To(Equal(onePTE.X()))
			Expect(twoPTE.U()).To(Equal(onePTE.U()))
		}
	})
})
