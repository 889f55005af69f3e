package config

// SubjectInfo describes one entry of the fixed subject taxonomy shown in menus.
type SubjectInfo struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var subjectCatalog = []SubjectInfo{
	{Name: "Algorithms", Slug: "algorithms", Icon: "git-branch", Description: "Complexity, sorting, searching, graph and dynamic programming techniques."},
	{Name: "Computer Networks", Slug: "computer-networks", Icon: "network", Description: "Layered models, TCP/IP, routing, flow and congestion control."},
	{Name: "Computer Organization", Slug: "computer-organization", Icon: "cpu", Description: "Instruction sets, pipelining, memory hierarchy and I/O."},
	{Name: "Databases", Slug: "databases", Icon: "database", Description: "Relational model, SQL, normalization, transactions and indexing."},
	{Name: "Data Structures", Slug: "data-structures", Icon: "layers", Description: "Arrays, lists, trees, heaps, hashing and graphs."},
	{Name: "Digital Logic", Slug: "digital-logic", Icon: "toggle-left", Description: "Boolean algebra, combinational and sequential circuits."},
	{Name: "Discrete Mathematics", Slug: "discrete-mathematics", Icon: "sigma", Description: "Logic, sets, relations, combinatorics and graph theory."},
	{Name: "Operating Systems", Slug: "operating-systems", Icon: "monitor", Description: "Processes, scheduling, synchronization, memory and file systems."},
	{Name: "Theory of Computation", Slug: "theory-of-computation", Icon: "infinity", Description: "Automata, grammars, decidability and complexity classes."},
	{Name: "Compiler Design", Slug: "compiler-design", Icon: "code", Description: "Lexing, parsing, syntax-directed translation and code generation."},
}

// SubjectCatalog returns a copy of the static subject taxonomy.
func SubjectCatalog() []SubjectInfo {
	out := make([]SubjectInfo, len(subjectCatalog))
	copy(out, subjectCatalog)
	return out
}
