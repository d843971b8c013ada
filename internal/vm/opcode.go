package vm

import "fmt"

// op enumerates the instruction families. decode maps every valid word onto
// exactly one of these, and handlers is total over them, so an unhandled
// opcode cannot slip through dispatch silently.
type op uint8

const (
	opSys op = iota // 0NNN - machine code routine, ignored
	opCls           // 00E0 - clear screen
	opRet           // 00EE - return from subroutine
	opJmp           // 1NNN - jump to NNN
	opCall          // 2NNN - call subroutine at NNN
	opSkipEqImm     // 3XNN - skip if VX == NN
	opSkipNeImm     // 4XNN - skip if VX != NN
	opSkipEqReg     // 5XY0 - skip if VX == VY
	opMovImm        // 6XNN - VX = NN
	opAddImm        // 7XNN - VX += NN, no carry
	opMovReg        // 8XY0 - VX = VY
	opOr            // 8XY1 - VX |= VY
	opAnd           // 8XY2 - VX &= VY
	opXor           // 8XY3 - VX ^= VY
	opAddReg        // 8XY4 - VX += VY, carry in VF
	opSub           // 8XY5 - VX -= VY, not-borrow in VF
	opShr           // 8XY6 - shift right, bit 0 in VF
	opRsb           // 8XY7 - VX = VY - VX, not-borrow in VF
	opShl           // 8XYE - shift left, bit 7 in VF
	opSkipNeReg     // 9XY0 - skip if VX != VY
	opMovIndex      // ANNN - I = NNN
	opJmpOffset     // BNNN - jump with register offset
	opRand          // CXNN - VX = random & NN
	opSprite        // DXYN - draw sprite, collision in VF
	opSkipKeyDown   // EX9E - skip if key VX pressed
	opSkipKeyUp     // EXA1 - skip if key VX not pressed
	opGetDelay      // FX07 - VX = delay timer
	opWaitKey       // FX0A - wait for key press into VX
	opSetDelay      // FX15 - delay timer = VX
	opSetSound      // FX18 - sound timer = VX
	opAddIndex      // FX1E - I += VX, range overflow in VF
	opFont          // FX29 - I = font sprite for VX
	opBCD           // FX33 - BCD of VX at I..I+2
	opStore         // FX55 - dump V0..VX at I
	opLoad          // FX65 - load V0..VX from I

	opCount
)

// instruction is a decoded opcode word with its operand fields extracted.
type instruction struct {
	op   op
	word uint16
	x    uint8  // second nibble, register index
	y    uint8  // third nibble, register index
	n    uint8  // low nibble
	nn   uint8  // low byte
	nnn  uint16 // low 12 bits, address
}

// decode classifies a raw instruction word. Words that match no encoding
// are reported as InvalidOpcodeError, never silently skipped.
func decode(word uint16) (instruction, error) {
	in := instruction{
		word: word,
		x:    uint8(word >> 8 & 0x0F),
		y:    uint8(word >> 4 & 0x0F),
		n:    uint8(word & 0x0F),
		nn:   uint8(word & 0xFF),
		nnn:  word & 0x0FFF,
	}

	switch word & 0xF000 {
	case 0x0000:
		switch word {
		case 0x00E0:
			in.op = opCls
		case 0x00EE:
			in.op = opRet
		default:
			in.op = opSys
		}

	case 0x1000:
		in.op = opJmp

	case 0x2000:
		in.op = opCall

	case 0x3000:
		in.op = opSkipEqImm

	case 0x4000:
		in.op = opSkipNeImm

	case 0x5000:
		if in.n != 0 {
			return instruction{}, &InvalidOpcodeError{Opcode: word}
		}
		in.op = opSkipEqReg

	case 0x6000:
		in.op = opMovImm

	case 0x7000:
		in.op = opAddImm

	case 0x8000:
		switch in.n {
		case 0x0:
			in.op = opMovReg
		case 0x1:
			in.op = opOr
		case 0x2:
			in.op = opAnd
		case 0x3:
			in.op = opXor
		case 0x4:
			in.op = opAddReg
		case 0x5:
			in.op = opSub
		case 0x6:
			in.op = opShr
		case 0x7:
			in.op = opRsb
		case 0xE:
			in.op = opShl
		default:
			return instruction{}, &InvalidOpcodeError{Opcode: word}
		}

	case 0x9000:
		if in.n != 0 {
			return instruction{}, &InvalidOpcodeError{Opcode: word}
		}
		in.op = opSkipNeReg

	case 0xA000:
		in.op = opMovIndex

	case 0xB000:
		in.op = opJmpOffset

	case 0xC000:
		in.op = opRand

	case 0xD000:
		in.op = opSprite

	case 0xE000:
		switch in.nn {
		case 0x9E:
			in.op = opSkipKeyDown
		case 0xA1:
			in.op = opSkipKeyUp
		default:
			return instruction{}, &InvalidOpcodeError{Opcode: word}
		}

	case 0xF000:
		switch in.nn {
		case 0x07:
			in.op = opGetDelay
		case 0x0A:
			in.op = opWaitKey
		case 0x15:
			in.op = opSetDelay
		case 0x18:
			in.op = opSetSound
		case 0x1E:
			in.op = opAddIndex
		case 0x29:
			in.op = opFont
		case 0x33:
			in.op = opBCD
		case 0x55:
			in.op = opStore
		case 0x65:
			in.op = opLoad
		default:
			return instruction{}, &InvalidOpcodeError{Opcode: word}
		}
	}

	return in, nil
}

// String renders the instruction as a mnemonic for debug logging.
func (in instruction) String() string {
	switch in.op {
	case opSys:
		return fmt.Sprintf("sys 0x%03x", in.nnn)
	case opCls:
		return "cls"
	case opRet:
		return "rts"
	case opJmp:
		return fmt.Sprintf("jmp 0x%03x", in.nnn)
	case opCall:
		return fmt.Sprintf("jsr 0x%03x", in.nnn)
	case opSkipEqImm:
		return fmt.Sprintf("skeq v%x, %d", in.x, in.nn)
	case opSkipNeImm:
		return fmt.Sprintf("skne v%x, %d", in.x, in.nn)
	case opSkipEqReg:
		return fmt.Sprintf("skeq v%x, v%x", in.x, in.y)
	case opMovImm:
		return fmt.Sprintf("mov v%x, %d", in.x, in.nn)
	case opAddImm:
		return fmt.Sprintf("add v%x, %d", in.x, in.nn)
	case opMovReg:
		return fmt.Sprintf("mov v%x, v%x", in.x, in.y)
	case opOr:
		return fmt.Sprintf("or v%x, v%x", in.x, in.y)
	case opAnd:
		return fmt.Sprintf("and v%x, v%x", in.x, in.y)
	case opXor:
		return fmt.Sprintf("xor v%x, v%x", in.x, in.y)
	case opAddReg:
		return fmt.Sprintf("add v%x, v%x", in.x, in.y)
	case opSub:
		return fmt.Sprintf("sub v%x, v%x", in.x, in.y)
	case opShr:
		return fmt.Sprintf("shr v%x", in.x)
	case opRsb:
		return fmt.Sprintf("rsb v%x, v%x", in.x, in.y)
	case opShl:
		return fmt.Sprintf("shl v%x", in.x)
	case opSkipNeReg:
		return fmt.Sprintf("skne v%x, v%x", in.x, in.y)
	case opMovIndex:
		return fmt.Sprintf("mvi 0x%03x", in.nnn)
	case opJmpOffset:
		return fmt.Sprintf("jmi 0x%03x", in.nnn)
	case opRand:
		return fmt.Sprintf("rand v%x, %d", in.x, in.nn)
	case opSprite:
		return fmt.Sprintf("sprite v%x, v%x, %d", in.x, in.y, in.n)
	case opSkipKeyDown:
		return fmt.Sprintf("skpr v%x", in.x)
	case opSkipKeyUp:
		return fmt.Sprintf("skup v%x", in.x)
	case opGetDelay:
		return fmt.Sprintf("gdelay v%x", in.x)
	case opWaitKey:
		return fmt.Sprintf("key v%x", in.x)
	case opSetDelay:
		return fmt.Sprintf("sdelay v%x", in.x)
	case opSetSound:
		return fmt.Sprintf("ssound v%x", in.x)
	case opAddIndex:
		return fmt.Sprintf("adi v%x", in.x)
	case opFont:
		return fmt.Sprintf("font v%x", in.x)
	case opBCD:
		return fmt.Sprintf("bcd v%x", in.x)
	case opStore:
		return fmt.Sprintf("str v0-v%x", in.x)
	case opLoad:
		return fmt.Sprintf("ldr v0-v%x", in.x)
	}
	return fmt.Sprintf("unknown 0x%04X", in.word)
}

// handlers maps every instruction family to its executor. Step pre-increments
// pc before dispatch, so skips add another InstructionSize and calls push the
// already-advanced pc as the return address. Handlers that can fail validate
// every address range before mutating anything.
var handlers = [opCount]func(vm *VM, in instruction) error{
	opSys: func(vm *VM, in instruction) error {
		// Host machine code call on the original hardware. Modern
		// interpreters ignore it.
		return nil
	},

	opCls: func(vm *VM, in instruction) error {
		vm.display.clear()
		vm.drawFlag = true
		return nil
	},

	opRet: func(vm *VM, in instruction) error {
		addr, err := vm.stack.pop()
		if err != nil {
			return err
		}
		vm.pc = addr
		return nil
	},

	opJmp: func(vm *VM, in instruction) error {
		vm.pc = in.nnn
		return nil
	},

	opCall: func(vm *VM, in instruction) error {
		if err := vm.stack.push(vm.pc); err != nil {
			return err
		}
		vm.pc = in.nnn
		return nil
	},

	opSkipEqImm: func(vm *VM, in instruction) error {
		if vm.registers[in.x] == in.nn {
			vm.pc += InstructionSize
		}
		return nil
	},

	opSkipNeImm: func(vm *VM, in instruction) error {
		if vm.registers[in.x] != in.nn {
			vm.pc += InstructionSize
		}
		return nil
	},

	opSkipEqReg: func(vm *VM, in instruction) error {
		if vm.registers[in.x] == vm.registers[in.y] {
			vm.pc += InstructionSize
		}
		return nil
	},

	opMovImm: func(vm *VM, in instruction) error {
		vm.registers[in.x] = in.nn
		return nil
	},

	opAddImm: func(vm *VM, in instruction) error {
		vm.registers[in.x] += in.nn
		return nil
	},

	opMovReg: func(vm *VM, in instruction) error {
		vm.registers[in.x] = vm.registers[in.y]
		return nil
	},

	opOr: func(vm *VM, in instruction) error {
		vm.registers[in.x] |= vm.registers[in.y]
		return nil
	},

	opAnd: func(vm *VM, in instruction) error {
		vm.registers[in.x] &= vm.registers[in.y]
		return nil
	},

	opXor: func(vm *VM, in instruction) error {
		vm.registers[in.x] ^= vm.registers[in.y]
		return nil
	},

	// Result and flag are both computed from the original operand values,
	// and VF is written last, so the opcode stays correct when X or Y is F.
	opAddReg: func(vm *VM, in instruction) error {
		x, y := vm.registers[in.x], vm.registers[in.y]
		sum := uint16(x) + uint16(y)

		vm.registers[in.x] = uint8(sum)
		if sum > 0xFF {
			vm.registers[0xF] = 1
		} else {
			vm.registers[0xF] = 0
		}
		return nil
	},

	opSub: func(vm *VM, in instruction) error {
		x, y := vm.registers[in.x], vm.registers[in.y]

		vm.registers[in.x] = x - y
		if y > x {
			vm.registers[0xF] = 0
		} else {
			vm.registers[0xF] = 1
		}
		return nil
	},

	opShr: func(vm *VM, in instruction) error {
		v := vm.registers[in.x]
		if !vm.cfg.ShiftQuirk {
			v = vm.registers[in.y]
		}

		vm.registers[in.x] = v >> 1
		vm.registers[0xF] = v & 0x01
		return nil
	},

	opRsb: func(vm *VM, in instruction) error {
		x, y := vm.registers[in.x], vm.registers[in.y]

		vm.registers[in.x] = y - x
		if x > y {
			vm.registers[0xF] = 0
		} else {
			vm.registers[0xF] = 1
		}
		return nil
	},

	opShl: func(vm *VM, in instruction) error {
		v := vm.registers[in.x]
		if !vm.cfg.ShiftQuirk {
			v = vm.registers[in.y]
		}

		vm.registers[in.x] = v << 1
		vm.registers[0xF] = v >> 7
		return nil
	},

	opSkipNeReg: func(vm *VM, in instruction) error {
		if vm.registers[in.x] != vm.registers[in.y] {
			vm.pc += InstructionSize
		}
		return nil
	},

	opMovIndex: func(vm *VM, in instruction) error {
		vm.index = in.nnn
		return nil
	},

	opJmpOffset: func(vm *VM, in instruction) error {
		offset := vm.registers[0]
		if vm.cfg.JumpQuirk {
			offset = vm.registers[in.x]
		}
		vm.pc = in.nnn + uint16(offset)
		return nil
	},

	opRand: func(vm *VM, in instruction) error {
		vm.registers[in.x] = vm.randByte() & in.nn
		return nil
	},

	opSprite: func(vm *VM, in instruction) error {
		if in.n == 0 {
			vm.registers[0xF] = 0
			vm.drawFlag = true
			return nil
		}

		if err := vm.mem.checkRange(vm.index, uint16(in.n)); err != nil {
			return err
		}

		sprite := vm.mem[vm.index : vm.index+uint16(in.n)]
		collision := vm.display.drawSprite(vm.registers[in.x], vm.registers[in.y], sprite, vm.cfg.ClipSprites)

		if collision {
			vm.registers[0xF] = 1
		} else {
			vm.registers[0xF] = 0
		}
		vm.drawFlag = true
		return nil
	},

	opSkipKeyDown: func(vm *VM, in instruction) error {
		if vm.keypad[vm.registers[in.x]&0x0F] {
			vm.pc += InstructionSize
		}
		return nil
	},

	opSkipKeyUp: func(vm *VM, in instruction) error {
		if !vm.keypad[vm.registers[in.x]&0x0F] {
			vm.pc += InstructionSize
		}
		return nil
	},

	opGetDelay: func(vm *VM, in instruction) error {
		vm.registers[in.x] = vm.delayTimer
		return nil
	},

	// The wait must not block: Step returns control to the driver every
	// cycle so input polling and rendering keep going. The machine flags
	// itself as awaiting and resolves the wait on a later Step.
	opWaitKey: func(vm *VM, in instruction) error {
		vm.awaitingKey = true
		vm.awaitingReg = in.x
		return nil
	},

	opSetDelay: func(vm *VM, in instruction) error {
		vm.delayTimer = vm.registers[in.x]
		return nil
	},

	opSetSound: func(vm *VM, in instruction) error {
		vm.soundTimer = vm.registers[in.x]
		return nil
	},

	opAddIndex: func(vm *VM, in instruction) error {
		sum := vm.index + uint16(vm.registers[in.x])
		if sum > 0x0FFF {
			vm.registers[0xF] = 1
		} else {
			vm.registers[0xF] = 0
		}
		vm.index = sum
		return nil
	},

	opFont: func(vm *VM, in instruction) error {
		vm.index = FontOffset + uint16(vm.registers[in.x]&0x0F)*FontHeight
		return nil
	},

	opBCD: func(vm *VM, in instruction) error {
		if err := vm.mem.checkRange(vm.index, 3); err != nil {
			return err
		}

		v := vm.registers[in.x]
		vm.mem[vm.index] = v / 100
		vm.mem[vm.index+1] = v / 10 % 10
		vm.mem[vm.index+2] = v % 10
		return nil
	},

	opStore: func(vm *VM, in instruction) error {
		n := uint16(in.x)
		if err := vm.mem.checkRange(vm.index, n+1); err != nil {
			return err
		}

		for i := uint16(0); i <= n; i++ {
			vm.mem[vm.index+i] = vm.registers[i]
		}

		if !vm.cfg.LoadStoreQuirk {
			vm.index += n + 1
		}
		return nil
	},

	opLoad: func(vm *VM, in instruction) error {
		n := uint16(in.x)
		if err := vm.mem.checkRange(vm.index, n+1); err != nil {
			return err
		}

		for i := uint16(0); i <= n; i++ {
			vm.registers[i] = vm.mem[vm.index+i]
		}

		if !vm.cfg.LoadStoreQuirk {
			vm.index += n + 1
		}
		return nil
	},
}
