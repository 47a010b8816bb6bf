package vm

import (
	"math/big"

	"github.com/vladimirpotek/neo-vm/pkg/vm/opcode"
	"github.com/vladimirpotek/neo-vm/pkg/vm/stackitem"
)

func init() {
	dispatch[opcode.SIGN] = unaryInt(func(a *big.Int) (*big.Int, error) {
		return big.NewInt(int64(a.Sign())), nil
	})
	dispatch[opcode.ABS] = unaryInt(func(a *big.Int) (*big.Int, error) {
		return new(big.Int).Abs(a), nil
	})
	dispatch[opcode.NEGATE] = unaryInt(func(a *big.Int) (*big.Int, error) {
		return new(big.Int).Neg(a), nil
	})
	dispatch[opcode.INC] = unaryInt(func(a *big.Int) (*big.Int, error) {
		return new(big.Int).Add(a, big.NewInt(1)), nil
	})
	dispatch[opcode.DEC] = unaryInt(func(a *big.Int) (*big.Int, error) {
		return new(big.Int).Sub(a, big.NewInt(1)), nil
	})
	dispatch[opcode.SQRT] = unaryInt(func(a *big.Int) (*big.Int, error) {
		if a.Sign() < 0 {
			return nil, arithErr("SQRT of negative value")
		}
		return new(big.Int).Sqrt(a), nil
	})
	dispatch[opcode.NZ] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		a := es.Pop().BigInt()
		es.PushVal(a.Sign() != 0)
		return false, nil
	}
	dispatch[opcode.NOT] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		a := es.Pop().Bool()
		es.PushVal(!a)
		return false, nil
	}

	dispatch[opcode.ADD] = binaryInt(func(a, b *big.Int) (*big.Int, error) {
		return new(big.Int).Add(a, b), nil
	})
	dispatch[opcode.SUB] = binaryInt(func(a, b *big.Int) (*big.Int, error) {
		return new(big.Int).Sub(a, b), nil
	})
	dispatch[opcode.MUL] = binaryInt(func(a, b *big.Int) (*big.Int, error) {
		return new(big.Int).Mul(a, b), nil
	})
	dispatch[opcode.DIV] = binaryInt(func(a, b *big.Int) (*big.Int, error) {
		if b.Sign() == 0 {
			return nil, arithErr("division by zero")
		}
		q, _ := new(big.Int).QuoRem(a, b, new(big.Int))
		return q, nil
	})
	dispatch[opcode.MOD] = binaryInt(func(a, b *big.Int) (*big.Int, error) {
		if b.Sign() == 0 {
			return nil, arithErr("modulo by zero")
		}
		_, r := new(big.Int).QuoRem(a, b, new(big.Int))
		return r, nil
	})
	dispatch[opcode.POW] = binaryInt(func(a, b *big.Int) (*big.Int, error) {
		if b.Sign() < 0 {
			return nil, arithErr("negative exponent")
		}
		if !b.IsUint64() || b.Uint64() > uint64(stackitem.MaxBigIntegerSizeBits) {
			return nil, arithErr("exponent %s too large", b)
		}
		return new(big.Int).Exp(a, b, nil), nil
	})
	dispatch[opcode.MIN] = binaryInt(func(a, b *big.Int) (*big.Int, error) {
		if a.Cmp(b) <= 0 {
			return a, nil
		}
		return b, nil
	})
	dispatch[opcode.MAX] = binaryInt(func(a, b *big.Int) (*big.Int, error) {
		if a.Cmp(b) >= 0 {
			return a, nil
		}
		return b, nil
	})

	dispatch[opcode.MODMUL] = ternaryInt(func(a, b, m *big.Int) (*big.Int, error) {
		if m.Sign() == 0 {
			return nil, arithErr("MODMUL with zero modulus")
		}
		prod := new(big.Int).Mul(a, b)
		return prod.Mod(prod, m), nil
	})
	dispatch[opcode.MODPOW] = ternaryInt(func(a, b, m *big.Int) (*big.Int, error) {
		if m.Sign() == 0 {
			return nil, arithErr("MODPOW with zero modulus")
		}
		if b.Sign() < 0 {
			return nil, arithErr("MODPOW with negative exponent")
		}
		return new(big.Int).Exp(a, b, new(big.Int).Abs(m)), nil
	})

	dispatch[opcode.BOOLAND] = binaryBool(func(a, b bool) bool { return a && b })
	dispatch[opcode.BOOLOR] = binaryBool(func(a, b bool) bool { return a || b })

	dispatch[opcode.NUMEQUAL] = binaryCmp(func(c int) bool { return c == 0 })
	dispatch[opcode.NUMNOTEQUAL] = binaryCmp(func(c int) bool { return c != 0 })
	dispatch[opcode.LT] = binaryCmp(func(c int) bool { return c < 0 })
	dispatch[opcode.LE] = binaryCmp(func(c int) bool { return c <= 0 })
	dispatch[opcode.GT] = binaryCmp(func(c int) bool { return c > 0 })
	dispatch[opcode.GE] = binaryCmp(func(c int) bool { return c >= 0 })

	dispatch[opcode.WITHIN] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		b := es.Pop().BigInt()
		a := es.Pop().BigInt()
		x := es.Pop().BigInt()
		es.PushVal(x.Cmp(a) >= 0 && x.Cmp(b) < 0)
		return false, nil
	}
}

func pushChecked(es *Stack, v *big.Int) error {
	if err := stackitem.CheckIntegerSize(v); err != nil {
		return arithErr("%s", err)
	}
	es.PushItem(stackitem.NewBigInteger(v))
	return nil
}

func unaryInt(f func(a *big.Int) (*big.Int, error)) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		a := es.Pop().BigInt()
		v, err := f(a)
		if err != nil {
			return false, err
		}
		return false, pushChecked(es, v)
	}
}

func binaryInt(f func(a, b *big.Int) (*big.Int, error)) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		b := es.Pop().BigInt()
		a := es.Pop().BigInt()
		v, err := f(a, b)
		if err != nil {
			return false, err
		}
		return false, pushChecked(es, v)
	}
}

func ternaryInt(f func(a, b, m *big.Int) (*big.Int, error)) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		m := es.Pop().BigInt()
		b := es.Pop().BigInt()
		a := es.Pop().BigInt()
		v, err := f(a, b, m)
		if err != nil {
			return false, err
		}
		return false, pushChecked(es, v)
	}
}

func binaryBool(f func(a, b bool) bool) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		b := es.Pop().Bool()
		a := es.Pop().Bool()
		es.PushVal(f(a, b))
		return false, nil
	}
}

func binaryCmp(pred func(c int) bool) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		b := es.Pop().BigInt()
		a := es.Pop().BigInt()
		es.PushVal(pred(a.Cmp(b)))
		return false, nil
	}
}
