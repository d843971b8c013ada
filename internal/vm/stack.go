package vm

// stack holds subroutine return addresses. Overflow and underflow are fatal
// program errors, never silently clamped.
type stack struct {
	frames [StackSize]uint16
	sp     uint8
}

func (s *stack) push(addr uint16) error {
	if s.sp >= StackSize {
		return ErrStackOverflow
	}
	s.frames[s.sp] = addr
	s.sp++
	return nil
}

func (s *stack) pop() (uint16, error) {
	if s.sp == 0 {
		return 0, ErrStackUnderflow
	}
	s.sp--
	return s.frames[s.sp], nil
}

func (s *stack) depth() int {
	return int(s.sp)
}

func (s *stack) reset() {
	s.sp = 0
}
