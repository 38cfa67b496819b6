package ram

// Statement is the sum type of spec.md §3.5's Statement variants.
type Statement interface {
	statement()
}

// Sequence runs Stmts in order.
type Sequence struct{ Stmts []Statement }

func (*Sequence) statement() {}

// Parallel runs Stmts concurrently (used e.g. for independent non-
// recursive SCCs or independent seed clauses).
type Parallel struct{ Stmts []Statement }

func (*Parallel) statement() {}

// Loop repeats Body until an Exit statement inside it signals true (spec.md
// §4.6 "loop(body) with exit(cond): repeat body until cond evaluates
// true").
type Loop struct{ Body Statement }

func (*Loop) statement() {}

// Exit signals the enclosing Loop to stop once Cond holds.
type Exit struct{ Cond Condition }

func (*Exit) statement() {}

// Query runs a single top-level Operation tree (one query = one nested
// search culminating in a Project or SubroutineReturn).
type Query struct{ Root Operation }

func (*Query) statement() {}

// Clear drops every tuple of Relation (relation.Purge).
type Clear struct{ Relation string }

func (*Clear) statement() {}

// Swap exchanges the storage of A and B (relation.Swap).
type Swap struct{ A, B string }

func (*Swap) statement() {}

// MergeExtend performs the eqrel transitive-reflexive-symmetric closure of
// Src against Tgt, then merges Src into Tgt (spec.md §4.4 step 3).
type MergeExtend struct{ Src, Tgt string }

func (*MergeExtend) statement() {}

// Merge inserts every tuple of Src into Tgt (the plain, non-eqrel "merge
// N_R into R" step of spec.md §4.4's fixpoint loop).
type Merge struct{ Src, Tgt string }

func (*Merge) statement() {}

// IODirection distinguishes an IO statement's role.
type IODirection int

const (
	IORead IODirection = iota
	IOWrite
	IOPrintsize
)

// IO performs a read or write against Relation using the named IO driver
// and Directives (spec.md §4.7, §6).
type IO struct {
	Relation   string
	Direction  IODirection
	Directives map[string]string
}

func (*IO) statement() {}

// LogTimer wraps Body, emitting a timed profiling event labeled Message
// when profiling is enabled (spec.md §4.6).
type LogTimer struct {
	Message string
	Body    Statement
}

func (*LogTimer) statement() {}

// DebugInfo sets the interpreter's "currently active debug message" for
// the duration of Body; read by the signal handler on a fatal signal
// (spec.md §4.6, §5, §7 kind (f)).
type DebugInfo struct {
	Message string
	Body    Statement
}

func (*DebugInfo) statement() {}

// Call invokes the subroutine named Name.
type Call struct{ Name string }

func (*Call) statement() {}

// RelationDef declares a relation computed by this program: its name,
// arity, and storage representation (spec.md §3.4 Representation),
// needed by the interpreter generator to create it eagerly (spec.md
// §4.5).
type RelationDef struct {
	Name           string
	Arity          int
	Representation int // mirrors ast.Representation
	// Provenance, when true, means this relation carries the two extra
	// trailing `__rule`/`__height` columns (SPEC_FULL.md §12); Arity
	// already includes them.
	Provenance bool
}

// Subroutine is a named, callable statement with a fixed argument count
// (read via SubroutineArgument) and return arity (written via
// SubroutineReturn), one per SCC stratum plus optional per-clause
// provenance-explain subroutines (spec.md §4.4).
type Subroutine struct {
	Name     string
	NumArgs  int
	Body     Statement
}

// Program is the whole translated RAM program: every computed relation,
// the main statement, and the named subroutines it calls (spec.md §3.5).
type Program struct {
	Relations   map[string]*RelationDef
	Main        Statement
	Subroutines map[string]*Subroutine
}

// NewProgram returns an empty RAM program.
func NewProgram() *Program {
	return &Program{
		Relations:   make(map[string]*RelationDef),
		Subroutines: make(map[string]*Subroutine),
	}
}
