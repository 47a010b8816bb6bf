package vm

import (
	"encoding/binary"

	"github.com/vladimirpotek/neo-vm/pkg/vm/opcode"
	"github.com/vladimirpotek/neo-vm/pkg/vm/scripthash"
	"github.com/vladimirpotek/neo-vm/pkg/vm/stackitem"
)

// Instruction is a single decoded bytecode instruction. The decoder
// populates whichever token fields the opcode actually uses; the rest are
// left at their zero value.
type Instruction struct {
	Opcode  opcode.Opcode
	Operand []byte

	TokenI8    int8
	TokenI8_1  int8
	TokenI32   int32
	TokenI32_1 int32
	TokenU8    uint8
	TokenU8_1  uint8
	TokenU16   uint16
	TokenU32   uint32

	// Size is the total on-wire byte length (opcode + operand).
	Size int
}

// Decoder decodes a single Instruction at a given offset in a script. It
// is the core's one external collaborator for turning raw bytes into
// instruction records; the engine consumes only this interface. h is the
// script's Hash160, precomputed and memoized by the caller (Context), so
// a caching Decoder can key on it without re-hashing on every step.
type Decoder interface {
	Decode(script []byte, offset int, h scripthash.Hash) (Instruction, error)
}

// DefaultDecoder is the straightforward, allocation-light Decoder used
// when no caching is configured. It ignores the script hash.
type DefaultDecoder struct{}

// Decode implements Decoder.
func (DefaultDecoder) Decode(script []byte, offset int, _ scripthash.Hash) (Instruction, error) {
	return decodeAt(script, offset)
}

func decodeAt(script []byte, offset int) (Instruction, error) {
	if offset < 0 {
		return Instruction{}, decodeErr("offset %d out of script bounds [0,%d]", offset, len(script))
	}
	if offset >= len(script) {
		// Scripts terminate without an explicit RET; synthesize one.
		return Instruction{Opcode: opcode.RET, Size: 1}, nil
	}

	op := opcode.Opcode(script[offset])
	if !opcode.IsValid(op) {
		return Instruction{}, decodeErr("unknown opcode 0x%02X at offset %d", script[offset], offset)
	}

	pos := offset + 1
	instr := Instruction{Opcode: op}

	if opcode.HasVariableOperand(op) {
		var n int
		switch op {
		case opcode.PUSHDATA1:
			if pos >= len(script) {
				return Instruction{}, decodeErr("truncated PUSHDATA1 length at offset %d", offset)
			}
			n = int(script[pos])
			pos++
		case opcode.PUSHDATA2:
			if pos+2 > len(script) {
				return Instruction{}, decodeErr("truncated PUSHDATA2 length at offset %d", offset)
			}
			n = int(binary.LittleEndian.Uint16(script[pos : pos+2]))
			pos += 2
		case opcode.PUSHDATA4:
			if pos+4 > len(script) {
				return Instruction{}, decodeErr("truncated PUSHDATA4 length at offset %d", offset)
			}
			u := binary.LittleEndian.Uint32(script[pos : pos+4])
			if u > stackitem.MaxSize {
				return Instruction{}, limitErr("PUSHDATA4 length %d exceeds MaxItemSize", u)
			}
			n = int(u)
			pos += 4
		}
		if pos+n > len(script) {
			return Instruction{}, decodeErr("truncated PUSHDATA payload at offset %d", offset)
		}
		instr.Operand = script[pos : pos+n]
		pos += n
		instr.Size = pos - offset
		return instr, nil
	}

	if size, ok := opcode.OperandSize(op); ok {
		if pos+size > len(script) {
			return Instruction{}, decodeErr("truncated operand for %s at offset %d", op, offset)
		}
		operand := script[pos : pos+size]
		instr.Operand = operand
		populateTokens(&instr, op, operand)
		pos += size
		instr.Size = pos - offset
		return instr, nil
	}

	if op <= opcode.PUSHINT256 {
		size := 1 << op
		if pos+size > len(script) {
			return Instruction{}, decodeErr("truncated PUSHINT operand at offset %d", offset)
		}
		instr.Operand = script[pos : pos+size]
		pos += size
		instr.Size = pos - offset
		return instr, nil
	}

	instr.Size = pos - offset
	return instr, nil
}

// populateTokens interprets a fixed-size operand into the token fields
// opcode handlers read, per its expected encoding.
func populateTokens(instr *Instruction, op opcode.Opcode, b []byte) {
	switch len(b) {
	case 1:
		instr.TokenI8 = int8(b[0])
		instr.TokenU8 = b[0]
	case 2:
		switch op {
		case opcode.INITSLOT:
			instr.TokenU8 = b[0]
			instr.TokenU8_1 = b[1]
		case opcode.TRY:
			instr.TokenI8 = int8(b[0])
			instr.TokenI8_1 = int8(b[1])
		case opcode.CALLT:
			instr.TokenU16 = binary.LittleEndian.Uint16(b)
		}
	case 4:
		switch op {
		case opcode.SYSCALL:
			instr.TokenU32 = binary.LittleEndian.Uint32(b)
		default:
			instr.TokenI32 = int32(binary.LittleEndian.Uint32(b))
		}
	case 8:
		instr.TokenI32 = int32(binary.LittleEndian.Uint32(b[0:4]))
		instr.TokenI32_1 = int32(binary.LittleEndian.Uint32(b[4:8]))
	}
}
