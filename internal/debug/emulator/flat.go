package emulator

import (
	"sort"
	"strconv"

	emuerrors "github.com/ngdevkit/emudbg/internal/errors"
)

// FlatConfig sizes a Flat machine.
type FlatConfig struct {
	// MemorySize is the number of addressable bytes, starting at address 0.
	MemorySize uint32
	// Registers is the number of 32-bit registers.
	Registers uint32
	// PCRegister is the register number holding the program counter.
	PCRegister uint32
	// InstructionWidth is the fixed number of bytes one Step advances the PC by.
	InstructionWidth uint32
	// Version is reported through API.
	Version string
}

// DefaultFlatConfig mirrors a 68000 layout: d0-d7, a0-a7, sr, pc.
var DefaultFlatConfig = FlatConfig{
	MemorySize:       1 << 20,
	Registers:        18,
	PCRegister:       17,
	InstructionWidth: 2,
	Version:          "1.0.0",
}

// Flat is a reference machine: a flat byte array, a register file and a
// software breakpoint set. It has no instruction semantics; Step only moves
// the program counter. Flat is not safe for concurrent use.
type Flat struct {
	cfg  FlatConfig
	mem  []byte
	regs []uint32
	bp   map[uint32]bool
}

// NewFlat creates a zeroed machine.
func NewFlat(cfg FlatConfig) (*Flat, error) {
	if cfg.MemorySize == 0 {
		return nil, emuerrors.InvalidConfig("memory_size", cfg.MemorySize, "flat machine needs memory")
	}
	if cfg.PCRegister >= cfg.Registers {
		return nil, emuerrors.InvalidConfig("pc_register", cfg.PCRegister,
			"outside a register file of "+strconv.Itoa(int(cfg.Registers)))
	}
	if cfg.InstructionWidth == 0 {
		cfg.InstructionWidth = 1
	}
	if cfg.Version == "" {
		cfg.Version = DefaultFlatConfig.Version
	}
	return &Flat{
		cfg:  cfg,
		mem:  make([]byte, cfg.MemorySize),
		regs: make([]uint32, cfg.Registers),
		bp:   make(map[uint32]bool),
	}, nil
}

// API implements Describer.
func (f *Flat) API() API { return API{Identifier: APIIdentifier, Version: f.cfg.Version} }

// FetchByte returns 0 for addresses past the end of memory.
func (f *Flat) FetchByte(addr uint32) uint8 {
	if addr >= uint32(len(f.mem)) {
		return 0
	}
	return f.mem[addr]
}

// StoreByte ignores writes past the end of memory.
func (f *Flat) StoreByte(addr uint32, value uint8) {
	if addr < uint32(len(f.mem)) {
		f.mem[addr] = value
	}
}

func (f *Flat) FetchRegister(num uint32) uint32 {
	if num >= uint32(len(f.regs)) {
		return 0
	}
	return f.regs[num]
}

func (f *Flat) StoreRegister(num uint32, value uint32) {
	if num < uint32(len(f.regs)) {
		f.regs[num] = value
	}
}

func (f *Flat) AddBreakpoint(addr uint32) { f.bp[addr] = true }
func (f *Flat) DelBreakpoint(addr uint32) { delete(f.bp, addr) }
func (f *Flat) ClearBreakpoints()         { f.bp = make(map[uint32]bool) }

// HasBreakpoint reports whether a software breakpoint is set at addr.
func (f *Flat) HasBreakpoint(addr uint32) bool { return f.bp[addr] }

// Breakpoints returns the breakpoint addresses in ascending order.
func (f *Flat) Breakpoints() []uint32 {
	out := make([]uint32, 0, len(f.bp))
	for a := range f.bp {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Load copies an image into memory at base.
func (f *Flat) Load(base uint32, image []byte) error {
	end := uint64(base) + uint64(len(image))
	if end > uint64(len(f.mem)) {
		return emuerrors.OutOfRange("image", base, len(image), len(f.mem))
	}
	copy(f.mem[base:], image)
	return nil
}

func (f *Flat) PC() uint32      { return f.regs[f.cfg.PCRegister] }
func (f *Flat) SetPC(pc uint32) { f.regs[f.cfg.PCRegister] = pc }

// Halted reports whether the program counter left memory.
func (f *Flat) Halted() bool { return f.PC() >= uint32(len(f.mem)) }

// Step advances the program counter by one instruction and returns it.
func (f *Flat) Step() uint32 {
	pc := f.PC() + f.cfg.InstructionWidth
	f.SetPC(pc)
	return pc
}
