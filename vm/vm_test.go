package vm

import (
	"strings"
	"testing"

	"ncc/compiler"
)

// runSource compiles and executes src, returning stdout, stderr, and whether
// the program ran to completion without a compile or runtime error.
func runSource(t *testing.T, src, stdin string) (string, string, bool) {
	t.Helper()
	var errout strings.Builder
	c := compiler.New("test.ncc", src, &errout)
	chunk, funcs, ok := c.Compile()
	if !ok {
		return "", errout.String(), false
	}

	var stdout strings.Builder
	machine := New(chunk, "test.ncc", src, strings.NewReader(stdin), &stdout, &errout)
	ran := machine.Run(funcs.MainAddr)
	return stdout.String(), errout.String(), ran
}

// The following six cases are spec.md §8's end-to-end scenarios.

func TestEndToEndHelloWorld(t *testing.T) {
	out, errs, ok := runSource(t, `func main() { print("Hi\n"); }`, "")
	if !ok {
		t.Fatalf("run failed: %s", errs)
	}
	if out != "Hi\n" {
		t.Fatalf("stdout = %q, want %q", out, "Hi\n")
	}
}

func TestEndToEndArithmeticAndHole(t *testing.T) {
	out, errs, ok := runSource(t, `func main() { var x = 2 + 3 * 4; print("{x}\n"); }`, "")
	if !ok {
		t.Fatalf("run failed: %s", errs)
	}
	if out != "14\n" {
		t.Fatalf("stdout = %q, want %q", out, "14\n")
	}
}

func TestEndToEndRecursiveFactorial(t *testing.T) {
	src := `
		func fact(n) {
			if (n <= 1) { return 1; }
			return n * fact(n - 1);
		}
		func main() { print("{fact(5)}\n"); }
	`
	out, errs, ok := runSource(t, src, "")
	if !ok {
		t.Fatalf("run failed: %s", errs)
	}
	if out != "120\n" {
		t.Fatalf("stdout = %q, want %q", out, "120\n")
	}
}

func TestEndToEndForLoopAccumulator(t *testing.T) {
	src := `
		func main() {
			var s = 0;
			for (var i = 1; i <= 10; i = i + 1) {
				s = s + i;
			}
			print("{s}\n");
		}
	`
	out, errs, ok := runSource(t, src, "")
	if !ok {
		t.Fatalf("run failed: %s", errs)
	}
	if out != "55\n" {
		t.Fatalf("stdout = %q, want %q", out, "55\n")
	}
}

func TestEndToEndShortCircuitLogic(t *testing.T) {
	src := `func main() { var a = 1; var b = 2; print("{a == b || a < b}\n"); }`
	out, errs, ok := runSource(t, src, "")
	if !ok {
		t.Fatalf("run failed: %s", errs)
	}
	if out != "true\n" {
		t.Fatalf("stdout = %q, want %q", out, "true\n")
	}
}

func TestEndToEndRuntimeTypeErrorAborts(t *testing.T) {
	src := `func main() { print("{1 + 'a'}\n"); }`
	_, errs, ok := runSource(t, src, "")
	if ok {
		t.Fatal("expected a runtime error to abort execution")
	}
	if !strings.Contains(errs, "both operands have to be <integer> or <double>") {
		t.Fatalf("unexpected diagnostic: %s", errs)
	}
}

// Additional coverage beyond the six canonical scenarios.

func TestDivisionByZeroIsARuntimeErrorNotAPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("division by zero panicked: %v", r)
		}
	}()
	_, errs, ok := runSource(t, `func main() { var z = 0; print("{10 / z}\n"); }`, "")
	if ok {
		t.Fatal("expected division by zero to abort")
	}
	if !strings.Contains(errs, "division by zero") {
		t.Fatalf("unexpected diagnostic: %s", errs)
	}
}

func TestModuloByZeroIsARuntimeError(t *testing.T) {
	_, errs, ok := runSource(t, `func main() { var z = 0; print("{10 % z}\n"); }`, "")
	if ok {
		t.Fatal("expected modulo by zero to abort")
	}
	if !strings.Contains(errs, "division by zero") {
		t.Fatalf("unexpected diagnostic: %s", errs)
	}
}

func TestStringEqualityComparesByContent(t *testing.T) {
	src := `
		func main() {
			var same = "ab" == "ab";
			var diff = "ab" == "cd";
			print("{same}\n{diff}\n");
		}
	`
	out, errs, ok := runSource(t, src, "")
	if !ok {
		t.Fatalf("run failed: %s", errs)
	}
	if out != "true\nfalse\n" {
		t.Fatalf("stdout = %q, want %q", out, "true\nfalse\n")
	}
}

func TestDoubleEqualityIsExactDifference(t *testing.T) {
	src := `func main() { print("{1.5 == 1.5}\n"); }`
	out, errs, ok := runSource(t, src, "")
	if !ok {
		t.Fatalf("run failed: %s", errs)
	}
	if out != "true\n" {
		t.Fatalf("stdout = %q, want %q", out, "true\n")
	}
}

func TestEqualityAcrossDifferentTagsIsATypeError(t *testing.T) {
	src := `func main() { print("{1 == 'a'}\n"); }`
	_, errs, ok := runSource(t, src, "")
	if ok {
		t.Fatal("expected a runtime error comparing mismatched tags")
	}
	if !strings.Contains(errs, "operands have to be of same type") {
		t.Fatalf("unexpected diagnostic: %s", errs)
	}
}

func TestLocalsSurviveAcrossNestedBlockExit(t *testing.T) {
	src := `
		func main() {
			var x = 1;
			{
				var y = 2;
				x = x + y;
			}
			print("{x}\n");
		}
	`
	out, errs, ok := runSource(t, src, "")
	if !ok {
		t.Fatalf("run failed: %s", errs)
	}
	if out != "3\n" {
		t.Fatalf("stdout = %q, want %q", out, "3\n")
	}
}

func TestGetiReadsFromStdin(t *testing.T) {
	src := `func main() { var n = 0; geti(n); print("{n * 2}\n"); }`
	out, errs, ok := runSource(t, src, "21\n")
	if !ok {
		t.Fatalf("run failed: %s", errs)
	}
	if out != "42\n" {
		t.Fatalf("stdout = %q, want %q", out, "42\n")
	}
}

func TestPrintMultipleHolesInPushOrder(t *testing.T) {
	src := `func main() { var a = 1; var b = 2; var c = 3; print("{a}-{b}-{c}\n"); }`
	out, errs, ok := runSource(t, src, "")
	if !ok {
		t.Fatalf("run failed: %s", errs)
	}
	if out != "1-2-3\n" {
		t.Fatalf("stdout = %q, want %q", out, "1-2-3\n")
	}
}

func TestEscapedBraceIsLiteralNotAHole(t *testing.T) {
	src := `func main() { print("\{not a hole}\n"); }`
	out, errs, ok := runSource(t, src, "")
	if !ok {
		t.Fatalf("run failed: %s", errs)
	}
	if out != "{not a hole}\n" {
		t.Fatalf("stdout = %q, want %q", out, "{not a hole}\n")
	}
}
