// Package axiom defines the record types produced by the extraction
// pipeline: axioms, hazards, effects, call edges, and per-file results.
package axiom

import "strings"

// Type classifies what kind of claim an axiom makes.
type Type string

const (
	Precondition  Type = "PRECONDITION"
	Postcondition Type = "POSTCONDITION"
	Invariant     Type = "INVARIANT"
	Exception     Type = "EXCEPTION"
	Effect        Type = "EFFECT"
	Constraint    Type = "CONSTRAINT"
	AntiPattern   Type = "ANTI_PATTERN"
	Complexity    Type = "COMPLEXITY"
)

// ParseType maps a spelled type name to a Type, case-insensitively.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToUpper(s))
	switch t {
	case Precondition, Postcondition, Invariant, Exception,
		Effect, Constraint, AntiPattern, Complexity:
		return t, true
	}
	return "", false
}

// Source tags how an axiom was obtained. Explicit axioms are backed by
// compiler-enforced attributes and always carry confidence 1.0; pattern
// axioms come from heuristics and always carry confidence below 1.0.
// Propagated and LLM are reserved for downstream tooling and never
// produced here.
type Source string

const (
	SourceExplicit   Source = "explicit"
	SourcePattern    Source = "pattern"
	SourcePropagated Source = "propagated"
	SourceLLM        Source = "llm"
)

// HazardKind classifies a syntactically risky operation.
type HazardKind string

const (
	HazardDivision     HazardKind = "division"
	HazardPointerDeref HazardKind = "pointer_deref"
	HazardArrayAccess  HazardKind = "array_access"
	HazardCast         HazardKind = "cast"
)

// Axiom is the universal output unit. The JSON field set is a stable
// consumer contract; do not rename fields.
type Axiom struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	FormalSpec string  `json:"formal_spec"`
	Function   string  `json:"function"`
	Signature  string  `json:"signature"`
	Header     string  `json:"header"`
	AxiomType  Type    `json:"axiom_type"`
	Confidence float64 `json:"confidence"`
	SourceType Source  `json:"source_type"`
	Line       int     `json:"line"`

	// Hazard linkage, present only on hazard-derived axioms. HasGuard is
	// a pointer so an explicit false still reaches the wire.
	HazardType      HazardKind `json:"hazard_type,omitempty"`
	HazardLine      int        `json:"hazard_line,omitempty"`
	HasGuard        *bool      `json:"has_guard,omitempty"`
	GuardExpression string     `json:"guard_expression,omitempty"`
}

// Bool returns a pointer to v for the optional wire fields.
func Bool(v bool) *bool { return &v }

// Guard records a conditional found on a path into a hazard.
type Guard struct {
	Found      bool
	Expression string
	Line       int
}

// Hazard is one syntactically risky operation site. Literal-safe sites
// (divide by a non-zero constant) are filtered at detection time and
// never materialized.
type Hazard struct {
	Kind       HazardKind
	Expression string // full enclosing expression, clamped to 100 chars
	Operand    string // the sub-expression whose runtime value decides safety
	Line       int
	Guard      Guard
}

// EffectKind classifies a detected side effect.
type EffectKind string

const (
	EffectParamModify     EffectKind = "param_modify"
	EffectMemberWrite     EffectKind = "member_write"
	EffectMemoryAlloc     EffectKind = "memory_alloc"
	EffectMemoryFree      EffectKind = "memory_free"
	EffectContainerModify EffectKind = "container_modify"
	EffectCallFrequency   EffectKind = "call_frequency"
)

// SideEffect is one detected side-effecting operation. CallFrequency
// effects aggregate every call site to one callee within a function.
type SideEffect struct {
	Kind       EffectKind
	Target     string // parameter, member, container, or callee name
	Expression string
	Line       int
	Confidence float64

	// Call-frequency aggregation fields.
	CallCount     int
	IsCached      bool // single call site whose result is stored
	OccursAtStart bool // every call site precedes the first loop line
}

// FunctionCall is one caller-to-callee edge in the global call graph.
// CalleePath and IsExternal are only populated when a SCIP index is
// supplied; without one the same-file resolver leaves them zero.
type FunctionCall struct {
	Caller          string   `json:"caller"`
	Callee          string   `json:"callee"`
	CalleeSignature string   `json:"callee_signature,omitempty"`
	Line            int      `json:"line"`
	Arguments       []string `json:"arguments,omitempty"`
	IsVirtual       bool     `json:"is_virtual"`
	CalleePath      string   `json:"callee_path,omitempty"`
	IsExternal      bool     `json:"is_external,omitempty"`
}

// FunctionInfo describes one function or method definition. Records are
// built per declaration, handed to the constraint extractor, and
// discarded; they are never retained across files.
type FunctionInfo struct {
	Name          string // qualified name, e.g. Foo::bar
	Signature     string
	Header        string // file the definition lives in
	Line          int
	EndLine       int
	IsNoexcept    bool
	IsNodiscard   bool
	IsDeprecated  bool
	IsConst       bool
	IsConstexpr   bool
	IsConsteval   bool
	IsDeleted     bool
	IsDefaulted   bool
	IsVirtual     bool
	RequiresText  string
	IsTemplate    bool
	TemplateArity int
	IsVariadic    bool
}

// ClassInfo describes one class or struct definition.
type ClassInfo struct {
	Name                 string
	Header               string
	Line                 int
	IsFinal              bool
	IsAbstract           bool
	HasVirtualDestructor bool
	IsTriviallyCopyable  bool
	VirtualMethods       []string
}

// EnumInfo describes one enum definition.
type EnumInfo struct {
	Name     string
	Header   string
	Line     int
	IsScoped bool
}

// StaticAssertInfo describes one static_assert declaration.
type StaticAssertInfo struct {
	Condition string
	Message   string
	Header    string
	Line      int
}

// ConceptInfo describes one C++20 concept definition.
type ConceptInfo struct {
	Name       string
	Expression string
	Header     string
	Line       int
}

// AliasInfo describes one `using X = T` alias declaration.
type AliasInfo struct {
	Name   string
	Target string
	Header string
	Line   int
}

// MacroInfo describes one preprocessor macro definition.
type MacroInfo struct {
	Name           string
	Parameters     []string
	Body           string
	IsFunctionLike bool
	Header         string
	Line           int
}

// ExtractionResult holds everything extracted from one source file.
// Errors are non-fatal: a file that fails to parse still yields a result
// carrying the error string, and the batch continues.
type ExtractionResult struct {
	File   string   `json:"file"`
	Axioms []Axiom  `json:"axioms"`
	Errors []string `json:"errors,omitempty"`
}

// SanitizeID rewrites a free-form name into an identifier-safe axiom ID
// fragment (call targets like "v.begin" become "v_begin").
func SanitizeID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Clamp truncates expression text for axiom payloads. Hazard expressions
// keep at most 100 chars and guard expressions 200; empty text becomes
// "<unknown>".
func Clamp(s string, max int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "<unknown>"
	}
	if len(s) > max {
		return s[:max]
	}
	return s
}
