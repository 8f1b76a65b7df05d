package compiler

import (
	"strings"
	"testing"

	"ncc/bytecode"
)

func mustCompile(t *testing.T, src string) (*Context, bool) {
	t.Helper()
	var errout strings.Builder
	c := New("test.ncc", src, &errout)
	_, _, ok := c.Compile()
	if !ok {
		t.Logf("compile errors:\n%s", errout.String())
	}
	return c, ok
}

func TestCompileRejectsMissingMain(t *testing.T) {
	var errout strings.Builder
	c := New("test.ncc", "func f() { return 1; }", &errout)
	_, _, ok := c.Compile()
	if ok {
		t.Fatal("expected compile failure with no main")
	}
	if !strings.Contains(errout.String(), "no function named 'main'") {
		t.Fatalf("unexpected diagnostic: %s", errout.String())
	}
}

func TestCompileRejectsRedeclaredFunction(t *testing.T) {
	_, ok := mustCompile(t, `
		func f() { return 1; }
		func f() { return 2; }
		func main() { return 0; }
	`)
	if ok {
		t.Fatal("expected compile failure for redeclared function")
	}
}

func TestCompileRejectsRedeclaredGlobal(t *testing.T) {
	_, ok := mustCompile(t, `
		var x = 1;
		var x = 2;
		func main() { return 0; }
	`)
	if ok {
		t.Fatal("expected compile failure for redeclared global")
	}
}

func TestCompileRejectsUndefinedReference(t *testing.T) {
	_, ok := mustCompile(t, `func main() { print("{y}\n"); }`)
	if ok {
		t.Fatal("expected compile failure for undefined reference")
	}
}

func TestCompileRejectsArityMismatch(t *testing.T) {
	_, ok := mustCompile(t, `
		func add(a, b) { return a + b; }
		func main() { print("{add(1)}\n"); }
	`)
	if ok {
		t.Fatal("expected compile failure for arity mismatch")
	}
}

func TestCompileAcceptsEmptyFunctionBody(t *testing.T) {
	_, ok := mustCompile(t, `
		func noop() { }
		func main() { }
	`)
	if !ok {
		t.Fatal("an empty function body should be valid")
	}
}

func TestCompileAssignsParameterSlots(t *testing.T) {
	var errout strings.Builder
	c := New("test.ncc", `
		func add3(a, b, c) { return a + b + c; }
		func main() { return 0; }
	`, &errout)
	_, funcs, ok := c.Compile()
	if !ok {
		t.Fatalf("compile failed: %s", errout.String())
	}
	info, found := funcs.Lookup("add3")
	if !found || info.Arity != 3 {
		t.Fatalf("Lookup(add3) = %+v, %v", info, found)
	}

	// Body after ipush_bp: get_local a, get_local b, add, get_local c, add;
	// a, b, c live at -(2+arity) … -3.
	for _, want := range []struct {
		off  int
		slot int16
	}{{info.Addr + 1, -5}, {info.Addr + 4, -4}, {info.Addr + 8, -3}} {
		if op := bytecode.Opcode(c.chunk.Code[want.off]); op != bytecode.OpGetLocal {
			t.Fatalf("op at %d = %v, want get_local", want.off, op)
		}
		if got := c.chunk.ReadInt16(want.off + 1); got != want.slot {
			t.Errorf("slot at %d = %d, want %d", want.off, got, want.slot)
		}
	}
}

func TestCompileSelfRecursionAllowedForwardReferenceNot(t *testing.T) {
	if _, ok := mustCompile(t, `
		func fact(n) { if (n <= 1) { return 1; } return n * fact(n - 1); }
		func main() { return 0; }
	`); !ok {
		t.Fatal("self-recursive call should compile")
	}

	if _, ok := mustCompile(t, `
		func a() { return b(); }
		func b() { return 1; }
		func main() { return 0; }
	`); ok {
		t.Fatal("forward reference to a function declared later should fail to compile")
	}
}

func TestCompileReturnFoundIsMonotonicAcrossNestedBlocks(t *testing.T) {
	// A return buried in a nested if-block must still compile cleanly and
	// must not be treated as "no return seen" just because the function's
	// own last top-level statement is the if, not the return itself.
	c, ok := mustCompile(t, `
		func f(n) {
			if (n > 0) {
				return n;
			}
		}
		func main() { return 0; }
	`)
	if !ok {
		t.Fatal("a return nested inside an if-block should compile")
	}

	// f is compiled first, so its epilogue ends at the first ret. With no
	// implicit `return 0` appended, the instruction before ipop_bp is the
	// if statement's guard ipop, not store_ret_value.
	var ops []bytecode.Opcode
	for off := 0; off < len(c.chunk.Code); off += 1 + bytecode.Opcode(c.chunk.Code[off]).OperandBytes() {
		op := bytecode.Opcode(c.chunk.Code[off])
		ops = append(ops, op)
		if op == bytecode.OpRet {
			break
		}
	}
	if n := len(ops); n < 3 || ops[n-1] != bytecode.OpRet || ops[n-2] != bytecode.OpIPopBp || ops[n-3] == bytecode.OpStoreRetValue {
		t.Fatalf("f's instructions = %v, want no implicit return before ipop_bp", ops)
	}
}
