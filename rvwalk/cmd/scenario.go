package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/rvwalk/mem/mem"
	"github.com/sarchlab/rvwalk/mem/vm"
	"github.com/sarchlab/rvwalk/mem/vm/pmp"
)

// hexUint64 accepts JSON numbers and strings such as "0x1000".
type hexUint64 uint64

func (h *hexUint64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)

	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return fmt.Errorf("bad address %s: %w", data, err)
	}

	*h = hexUint64(v)

	return nil
}

// Table names of a mapping.
const (
	tableHost   = "host"
	tableGuest  = "guest"
	tableGStage = "gstage"
)

type mapping struct {
	Table string    `json:"table"`
	VAddr hexUint64 `json:"vaddr"`
	PAddr hexUint64 `json:"paddr"`
	Level int       `json:"level"`
	Flags string    `json:"flags"`
	Napot bool      `json:"napot"`
}

type rawEntry struct {
	Table string    `json:"table"`
	VAddr hexUint64 `json:"vaddr"`
	Level int       `json:"level"`
	PTE   hexUint64 `json:"pte"`
}

type region struct {
	Base   hexUint64 `json:"base"`
	Size   hexUint64 `json:"size"`
	Perm   string    `json:"perm"`
	Locked bool      `json:"locked"`
	IO     bool      `json:"io"`
}

type access struct {
	VAddr     hexUint64 `json:"vaddr"`
	Mode      string    `json:"mode"`
	Size      uint64    `json:"size"`
	ForceVirt bool      `json:"force_virt"`
	BypassTLB bool      `json:"bypass_tlb"`
	Squash    bool      `json:"squash"`
}

type csrs struct {
	Priv  string `json:"priv"`
	Virt  bool   `json:"virt"`
	ASID  uint16 `json:"asid"`
	VMID  uint16 `json:"vmid"`
	MXR   bool   `json:"mxr"`
	SUM   bool   `json:"sum"`
	MPRV  bool   `json:"mprv"`
	MPP   string `json:"mpp"`
	MPV   bool   `json:"mpv"`
	VSMXR bool   `json:"vsmxr"`
	VSSUM bool   `json:"vssum"`
	SPVP  bool   `json:"spvp"`
}

// scenario describes the page tables, registers and accesses of one run.
type scenario struct {
	MemoryMB      uint64     `json:"memory_mb"`
	TableBase     hexUint64  `json:"table_base"`
	GuestTableGPA hexUint64  `json:"guest_table_gpa"`
	CSRs          csrs       `json:"csrs"`
	Mappings      []mapping  `json:"mappings"`
	Entries       []rawEntry `json:"entries"`
	PMP           []region   `json:"pmp"`
	PMA           []region   `json:"pma"`
	Accesses      []access   `json:"accesses"`
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return parseScenario(data)
}

func parseScenario(data []byte) (*scenario, error) {
	s := &scenario{
		MemoryMB:      256,
		TableBase:     0x1000,
		GuestTableGPA: 0x1000,
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	if len(s.Accesses) == 0 {
		return nil, fmt.Errorf("scenario has no accesses")
	}

	return s, nil
}

func parsePriv(s string, def vm.PrivilegeMode) (vm.PrivilegeMode, error) {
	switch strings.ToUpper(s) {
	case "":
		return def, nil
	case "U":
		return vm.PrivU, nil
	case "S":
		return vm.PrivS, nil
	case "M":
		return vm.PrivM, nil
	}

	return def, fmt.Errorf("bad privilege %q", s)
}

func parseFlags(s string) (vm.PTE, error) {
	var f vm.PTE
	for _, c := range s {
		switch c {
		case 'r':
			f |= vm.PTERead
		case 'w':
			f |= vm.PTEWrite
		case 'x':
			f |= vm.PTEExec
		case 'u':
			f |= vm.PTEUser
		case 'g':
			f |= vm.PTEGlobal
		case 'a':
			f |= vm.PTEAccessed
		case 'd':
			f |= vm.PTEDirty
		case '-':
		default:
			return 0, fmt.Errorf("bad flags %q", s)
		}
	}

	return f, nil
}

// guestFrameAllocator hands out guest frames backed by host frames and maps
// them in the G-stage table as it goes.
type guestFrameAllocator struct {
	guest  *vm.BumpAllocator
	host   *vm.BumpAllocator
	gstage *vm.PageTable
}

func (a guestFrameAllocator) AllocFrames(n uint64) uint64 {
	gppn := a.guest.AllocFrames(n)
	hppn := a.host.AllocFrames(n)

	for i := uint64(0); i < n; i++ {
		err := a.gstage.Map(
			(gppn+i)<<vm.PageShift, (hppn+i)<<vm.PageShift, 0,
			vm.PTERead|vm.PTEWrite|vm.PTEUser)
		if err != nil {
			log.Panicf("cannot back guest frame %#x: %v", gppn+i, err)
		}
	}

	return gppn
}

// system is the memory image and registers a scenario describes.
type system struct {
	storage *mem.Storage
	regs    vm.CSRs
	pmp     *pmp.PMP
	pma     *pmp.PMA

	host   *vm.PageTable
	gstage *vm.PageTable
	guest  *vm.PageTable
}

func (s *scenario) build() (*system, error) {
	sys := &system{storage: mem.NewStorage(s.MemoryMB * mem.MB)}

	hostAlloc := vm.NewBumpAllocator(uint64(s.TableBase) >> vm.PageShift)
	needHost, needGuest := s.tablesNeeded()

	if needHost {
		sys.host = vm.NewPageTable(sys.storage, hostAlloc, false)
	}

	if needGuest {
		sys.gstage = vm.NewPageTable(sys.storage, hostAlloc, true)
		sys.guest = vm.NewPageTable(
			vm.GuestPhysMem{Host: sys.storage, GStage: sys.gstage},
			guestFrameAllocator{
				guest:  vm.NewBumpAllocator(uint64(s.GuestTableGPA) >> vm.PageShift),
				host:   hostAlloc,
				gstage: sys.gstage,
			},
			false)
	}

	if err := s.installMappings(sys); err != nil {
		return nil, err
	}

	if err := s.setRegisters(sys); err != nil {
		return nil, err
	}

	if err := s.setProtection(sys); err != nil {
		return nil, err
	}

	return sys, nil
}

func (s *scenario) tablesNeeded() (host, guest bool) {
	tables := make([]string, 0, len(s.Mappings)+len(s.Entries))
	for _, m := range s.Mappings {
		tables = append(tables, m.Table)
	}
	for _, e := range s.Entries {
		tables = append(tables, e.Table)
	}

	for _, t := range tables {
		switch t {
		case tableHost, "":
			host = true
		case tableGuest, tableGStage:
			guest = true
		}
	}

	return host, guest
}

func (sys *system) table(name string) (*vm.PageTable, error) {
	var t *vm.PageTable

	switch name {
	case tableHost, "":
		t = sys.host
	case tableGuest:
		t = sys.guest
	case tableGStage:
		t = sys.gstage
	default:
		return nil, fmt.Errorf("unknown table %q", name)
	}

	return t, nil
}

func (s *scenario) installMappings(sys *system) error {
	for _, m := range s.Mappings {
		t, err := sys.table(m.Table)
		if err != nil {
			return err
		}

		flags, err := parseFlags(m.Flags)
		if err != nil {
			return err
		}

		if m.Napot {
			err = t.MapNapot(uint64(m.VAddr), uint64(m.PAddr), flags)
		} else {
			err = t.Map(uint64(m.VAddr), uint64(m.PAddr), m.Level, flags)
		}

		if err != nil {
			return fmt.Errorf("mapping %#x in %s table: %w",
				uint64(m.VAddr), m.Table, err)
		}
	}

	for _, e := range s.Entries {
		t, err := sys.table(e.Table)
		if err != nil {
			return err
		}

		err = t.SetPTE(uint64(e.VAddr), e.Level, vm.PTE(e.PTE))
		if err != nil {
			return fmt.Errorf("entry %#x in %s table: %w",
				uint64(e.VAddr), e.Table, err)
		}
	}

	return nil
}

func (s *scenario) setRegisters(sys *system) error {
	priv, err := parsePriv(s.CSRs.Priv, vm.PrivS)
	if err != nil {
		return err
	}

	mpp, err := parsePriv(s.CSRs.MPP, vm.PrivU)
	if err != nil {
		return err
	}

	sys.regs = vm.CSRs{
		Priv:  priv,
		Virt:  s.CSRs.Virt,
		MXR:   s.CSRs.MXR,
		SUM:   s.CSRs.SUM,
		MPRV:  s.CSRs.MPRV,
		MPP:   mpp,
		MPV:   s.CSRs.MPV,
		VSMXR: s.CSRs.VSMXR,
		VSSUM: s.CSRs.VSSUM,
		SPVP:  s.CSRs.SPVP,
	}

	if sys.host != nil {
		sys.regs.SATP = vm.MakeSATP(vm.ModeSv39, s.CSRs.ASID, sys.host.RootPPN())
	}

	if sys.gstage != nil {
		sys.regs.HGATP = vm.MakeHGATP(
			vm.ModeSv39x4, s.CSRs.VMID, sys.gstage.RootPPN())
	}

	if sys.guest != nil && len(sys.guestMappings(s)) > 0 {
		sys.regs.VSATP = vm.MakeSATP(vm.ModeSv39, s.CSRs.ASID, sys.guest.RootPPN())
	}

	return nil
}

// guestMappings returns the mappings of the guest first-stage table. A
// scenario with only G-stage mappings leaves vsatp bare.
func (sys *system) guestMappings(s *scenario) []mapping {
	var guest []mapping
	for _, m := range s.Mappings {
		if m.Table == tableGuest {
			guest = append(guest, m)
		}
	}

	for _, e := range s.Entries {
		if e.Table == tableGuest {
			guest = append(guest, mapping{Table: e.Table, VAddr: e.VAddr})
		}
	}

	return guest
}

func (s *scenario) setProtection(sys *system) error {
	if len(s.PMP) > 0 {
		sys.pmp = pmp.NewPMP()
		for _, r := range s.PMP {
			perm, err := pmp.ParsePerm(r.Perm)
			if err != nil {
				return err
			}

			sys.pmp.AddRegion(pmp.Region{
				Base:   uint64(r.Base),
				Size:   uint64(r.Size),
				Perm:   perm,
				Locked: r.Locked,
			})
		}
	}

	if len(s.PMA) > 0 {
		sys.pma = pmp.NewPMA()
		for _, r := range s.PMA {
			perm, err := pmp.ParsePerm(r.Perm)
			if err != nil {
				return err
			}

			sys.pma.AddRange(pmp.Range{
				Base: uint64(r.Base),
				Size: uint64(r.Size),
				Perm: perm,
				IO:   r.IO,
			})
		}
	}

	return nil
}
