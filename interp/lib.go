package interp

// installStdLib seeds the root context with the standard arithmetic
// natives, called once from New the way the teacher's New runs
// initUniverse before any evaluation. Each operator exists twice: a
// prefix word (`add 1 2`) and an enfix symbol alias (`1 + 2`), sharing
// one native body — the pairing spec.md §8 scenario 1's `[1 + 2]`
// evaluation relies on.
func (interp *Interpreter) installStdLib() {
	binary := func(fn func(a, b Cell) (Cell, error)) *Action {
		return NewAction([]Parameter{
			{Sym: internSymbol("value1"), Class: ParamNormal, Typeset: NewTypeset(KindInteger, KindDecimal)},
			{Sym: internSymbol("value2"), Class: ParamNormal, Typeset: NewTypeset(KindInteger, KindDecimal)},
		}, Dispatcher{Kind: DispatchNative, NativeFn: func(f *InvokeFrame) (Cell, error) {
			return fn(f.Args[1], f.Args[2])
		}})
	}
	install := func(name, op string, fn func(a, b Cell) (Cell, error)) {
		prefix := binary(fn)
		interp.root.Put(internSymbol(name), prefix.archetype())
		enfix := binary(fn)
		enfix.Enfix = true
		interp.root.Put(internSymbol(op), enfix.archetype())
	}

	install("add", "+", func(a, b Cell) (Cell, error) {
		if a.Kind() == KindInteger && b.Kind() == KindInteger {
			return Integer(a.Int() + b.Int()), nil
		}
		return Decimal(numFloat(a) + numFloat(b)), nil
	})
	install("subtract", "-", func(a, b Cell) (Cell, error) {
		if a.Kind() == KindInteger && b.Kind() == KindInteger {
			return Integer(a.Int() - b.Int()), nil
		}
		return Decimal(numFloat(a) - numFloat(b)), nil
	})
	install("multiply", "*", func(a, b Cell) (Cell, error) {
		if a.Kind() == KindInteger && b.Kind() == KindInteger {
			return Integer(a.Int() * b.Int()), nil
		}
		return Decimal(numFloat(a) * numFloat(b)), nil
	})
	install("divide", "/", func(a, b Cell) (Cell, error) {
		if b.Kind() == KindInteger && b.Int() == 0 {
			return Cell{}, newError("math", "zero-divide", "attempt to divide by zero")
		}
		if a.Kind() == KindInteger && b.Kind() == KindInteger && a.Int()%b.Int() == 0 {
			return Integer(a.Int() / b.Int()), nil
		}
		if numFloat(b) == 0 {
			return Cell{}, newError("math", "zero-divide", "attempt to divide by zero")
		}
		return Decimal(numFloat(a) / numFloat(b)), nil
	})
}

func numFloat(c Cell) float64 {
	if c.Kind() == KindInteger {
		return float64(c.Int())
	}
	return c.Float()
}
