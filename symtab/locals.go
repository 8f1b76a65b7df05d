package symtab

// localRecord is one entry of the scope-stacked local table (spec §3: "a
// scope-stacked vector of (name, length, slot, scope_depth) records" — the
// "length" field is redundant with Go's string length, so it is folded
// into name).
type localRecord struct {
	name  string
	slot  int
	depth int
}

// LocalTable tracks the locals (including negative-slot function
// arguments) in scope for the function currently being compiled. Entering
// a function resets the slot counter to 0; entering a block increments the
// scope depth; leaving a block pops every record at that depth (spec §3,
// §4.2 "{ … }").
type LocalTable struct {
	records  []localRecord
	nextSlot int
	depth    int
}

func NewLocalTable() *LocalTable {
	return &LocalTable{}
}

// EnterFunction resets the table for a new function body: no locals in
// scope, slot counter back to 0, depth back to 0 (spec §3).
func (t *LocalTable) EnterFunction() {
	t.records = t.records[:0]
	t.nextSlot = 0
	t.depth = 0
}

// EnterScope opens a new lexical block.
func (t *LocalTable) EnterScope() { t.depth++ }

// ExitScope closes the current lexical block and returns the number of
// locals declared in it, releasing their slots for reuse — the compiler
// must emit exactly that many `ipop` instructions so the runtime stack
// mirrors the compile-time local count (spec §3, §8 invariant).
func (t *LocalTable) ExitScope() (popped int) {
	i := len(t.records)
	for i > 0 && t.records[i-1].depth == t.depth {
		i--
		popped++
	}
	t.records = t.records[:i]
	t.nextSlot -= popped
	t.depth--
	return popped
}

// Declare adds a local at the current scope depth, consuming the next
// non-negative slot. ok is false if name is already declared at this exact
// depth (spec §4.3: redefinition within the same scope is an error);
// shadowing an outer scope's local is allowed.
func (t *LocalTable) Declare(name string) (slot int, ok bool) {
	for i := len(t.records) - 1; i >= 0 && t.records[i].depth == t.depth; i-- {
		if t.records[i].name == name {
			return 0, false
		}
	}
	slot = t.nextSlot
	t.nextSlot++
	t.records = append(t.records, localRecord{name: name, slot: slot, depth: t.depth})
	return slot, true
}

// DeclareArg registers a function parameter at its fixed negative slot
// (spec §3: arguments live at -(2+arity) … -3), without touching the
// non-negative local slot counter.
func (t *LocalTable) DeclareArg(name string, slot int) {
	t.records = append(t.records, localRecord{name: name, slot: slot, depth: t.depth})
}

// Lookup searches innermost-scope-first so inner locals shadow outer ones
// and, by extension, globals (the compiler checks LocalTable before
// GlobalTable — spec §4.2 "locals shadow globals").
func (t *LocalTable) Lookup(name string) (slot int, ok bool) {
	for i := len(t.records) - 1; i >= 0; i-- {
		if t.records[i].name == name {
			return t.records[i].slot, true
		}
	}
	return 0, false
}

// CurrentScopeCount returns how many locals are declared at the current
// scope depth without popping them — used by the function epilogue, which
// needs the same count ExitScope would produce for the function's
// outermost scope but must emit its `ipop`s after the epilogue's own
// bookkeeping (store_ret_value, exit-address back-patch) rather than via
// ExitScope itself.
func (t *LocalTable) CurrentScopeCount() int {
	count := 0
	for i := len(t.records) - 1; i >= 0 && t.records[i].depth == t.depth; i-- {
		count++
	}
	return count
}
