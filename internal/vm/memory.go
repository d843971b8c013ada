package vm

// memory is the flat 4K address space. Address validation lives here so that
// opcode handlers never index raw memory with an unchecked address.
type memory [MemorySize]uint8

// readWord reads a big-endian instruction word.
func (m *memory) readWord(addr uint16) (uint16, error) {
	if err := m.checkRange(addr, InstructionSize); err != nil {
		return 0, err
	}
	return uint16(m[addr])<<8 | uint16(m[addr+1]), nil
}

// checkRange validates that addr..addr+n-1 lies inside the address space.
// Handlers that mutate a range call it before writing anything, so a failed
// step leaves memory untouched.
func (m *memory) checkRange(addr uint16, n uint16) error {
	if n == 0 {
		return nil
	}
	if addr >= MemorySize {
		return &OutOfBoundsError{Addr: addr}
	}
	if end := uint32(addr) + uint32(n) - 1; end >= MemorySize {
		return &OutOfBoundsError{Addr: uint16(end)}
	}
	return nil
}

func (m *memory) clear() {
	for i := range m {
		m[i] = 0
	}
}
