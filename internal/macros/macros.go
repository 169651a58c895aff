// Package macros classifies preprocessor macro bodies with regex
// patterns and derives axioms from what they contain. Macro bodies are
// token soup, not parseable syntax, so everything here is textual.
package macros

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"axe/internal/axiom"
)

var (
	// Division: / not followed by / or * so comments stay out.
	divisionRe = regexp.MustCompile(`[^/]/[^/*]|%`)
	pointerRe  = regexp.MustCompile(`\*[a-zA-Z_]|&[a-zA-Z_]`)
	castRe     = regexp.MustCompile(`\([a-zA-Z_][a-zA-Z_0-9]*\s*\*?\s*\)`)
	callRe     = regexp.MustCompile(`\b([a-z_][a-zA-Z_0-9]*)\s*\(`)
	macroRefRe = regexp.MustCompile(`\b([A-Z_][A-Z_0-9]{2,})\b`)

	refCaptureRe = regexp.MustCompile(`\[&\]`)
	anyCaptureRe = regexp.MustCompile(`\[[&=]\]`)
	templateRe   = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z_0-9]*\s*<\s*([A-Z_][A-Z_0-9]*|[a-zA-Z_][a-zA-Z_0-9]*)\s*>`)
	returnRe     = regexp.MustCompile(`\breturn\b`)
	loopRe       = regexp.MustCompile(`\b(for|while)\s*\(`)
	localVarRe   = regexp.MustCompile(`\b(__[a-zA-Z_][a-zA-Z_0-9]*)\b`)
)

// callKeywords are control keywords that look like calls.
var callKeywords = map[string]bool{
	"if": true, "while": true, "for": true, "switch": true,
	"sizeof": true, "typeof": true, "alignof": true,
}

// Analysis is everything the body classifiers found in one macro.
type Analysis struct {
	HasDivision      bool
	HasPointerOps    bool
	HasCasts         bool
	FunctionCalls    []string
	ReferencedMacros []string

	HasLambdaCapture    bool
	HasReferenceCapture bool
	HasTemplateCall     bool
	TemplateParam       string
	HasReturn           bool
	IsIncomplete        bool
	HasLoop             bool
	LocalVars           []string
}

// Hazardous reports whether the macro body touches anything that can
// fail at expansion sites.
func (a Analysis) Hazardous() bool {
	return a.HasDivision || a.HasPointerOps || a.HasCasts || len(a.FunctionCalls) > 0
}

// Analyze runs every body classifier over one macro body.
func Analyze(body string) Analysis {
	a := Analysis{
		HasDivision:   divisionRe.MatchString(body),
		HasPointerOps: pointerRe.MatchString(body),
		HasCasts:      castRe.MatchString(body),

		HasReferenceCapture: refCaptureRe.MatchString(body),
		HasLambdaCapture:    anyCaptureRe.MatchString(body),
		HasReturn:           returnRe.MatchString(body),
		HasLoop:             loopRe.MatchString(body),
	}

	for _, m := range callRe.FindAllStringSubmatch(body, -1) {
		if !callKeywords[m[1]] {
			a.FunctionCalls = append(a.FunctionCalls, m[1])
		}
	}
	for _, m := range macroRefRe.FindAllStringSubmatch(body, -1) {
		a.ReferencedMacros = append(a.ReferencedMacros, m[1])
	}
	if m := templateRe.FindStringSubmatch(body); m != nil {
		a.HasTemplateCall = true
		a.TemplateParam = m[1]
	}
	for _, m := range localVarRe.FindAllStringSubmatch(body, -1) {
		a.LocalVars = append(a.LocalVars, m[1])
	}

	braces, parens := 0, 0
	for _, c := range body {
		switch c {
		case '{':
			braces++
		case '}':
			braces--
		case '(':
			parens++
		case ')':
			parens--
		}
	}
	a.IsIncomplete = body != "" && (braces > 0 || parens > 0)

	return a
}

// Signature spells the macro the way it was defined.
func Signature(m axiom.MacroInfo) string {
	sig := "#define " + m.Name
	if m.IsFunctionLike {
		sig += "(" + strings.Join(m.Parameters, ", ") + ")"
	}
	return sig
}

// Axioms analyzes one macro and emits its axiom set. Object-like macros
// with no recognized patterns yield nothing.
func Axioms(m axiom.MacroInfo) []axiom.Axiom {
	a := Analyze(m.Body)
	signature := Signature(m)
	var out []axiom.Axiom

	base := func(suffix string) axiom.Axiom {
		return axiom.Axiom{
			ID:        m.Name + "." + suffix,
			Function:  m.Name,
			Signature: signature,
			Header:    m.Header,
			Line:      m.Line,
		}
	}
	hazard := func(suffix string, kind axiom.HazardKind) axiom.Axiom {
		ax := base(suffix)
		ax.HazardType = kind
		ax.HazardLine = m.Line
		ax.HasGuard = axiom.Bool(false)
		return ax
	}

	if m.IsFunctionLike {
		ax := base("macro_definition")
		content := fmt.Sprintf("Macro %s is a function-like macro", m.Name)
		if len(m.Parameters) > 0 {
			content += " with parameters: " + strings.Join(m.Parameters, ", ")
		}
		if len(a.ReferencedMacros) > 0 {
			refs := a.ReferencedMacros
			if len(refs) > 3 {
				content += ". Expands to: " + strings.Join(refs[:3], ", ") + "..."
			} else {
				content += ". Expands to: " + strings.Join(refs, ", ")
			}
		}
		ax.Content = content
		ax.FormalSpec = fmt.Sprintf("is_function_like_macro(%s)", m.Name)
		ax.AxiomType = axiom.Constraint
		ax.Confidence = 1.0
		ax.SourceType = axiom.SourceExplicit
		out = append(out, ax)
	}

	if a.HasDivision {
		ax := hazard("precond.divisor_nonzero", axiom.HazardDivision)
		ax.Content = fmt.Sprintf("Divisor in macro %s must not be zero", m.Name)
		ax.FormalSpec = "divisor != 0"
		ax.AxiomType = axiom.Precondition
		ax.Confidence = 0.9
		ax.SourceType = axiom.SourcePattern
		out = append(out, ax)
	}

	if a.HasPointerOps {
		ax := hazard("precond.ptr_valid", axiom.HazardPointerDeref)
		ax.Content = fmt.Sprintf("Pointer arguments to macro %s must be valid", m.Name)
		ax.FormalSpec = "ptr != nullptr"
		ax.AxiomType = axiom.Precondition
		ax.Confidence = 0.85
		ax.SourceType = axiom.SourcePattern
		out = append(out, ax)
	}

	if a.HasCasts {
		ax := hazard("constraint.cast_safety", axiom.HazardCast)
		ax.Content = fmt.Sprintf("Type cast in macro %s requires compatible types", m.Name)
		ax.FormalSpec = "is_compatible(source_type, target_type)"
		ax.AxiomType = axiom.Constraint
		ax.Confidence = 0.8
		ax.SourceType = axiom.SourcePattern
		out = append(out, ax)
	}

	if a.HasReferenceCapture {
		ax := base("constraint.reference_capture")
		ax.Content = fmt.Sprintf("Variables used in %s are captured by reference ([&]), allowing modifications to affect the outer scope", m.Name)
		ax.FormalSpec = "capture_mode == by_reference"
		ax.AxiomType = axiom.Constraint
		ax.Confidence = 1.0
		ax.SourceType = axiom.SourceExplicit
		out = append(out, ax)

		anti := base("anti_pattern.dangling_reference")
		anti.Content = fmt.Sprintf("Passing temporary objects to %s may cause dangling references due to [&] capture", m.Name)
		anti.FormalSpec = "isTemporary(arg) -> undefined_behavior"
		anti.AxiomType = axiom.AntiPattern
		anti.Confidence = 0.9
		anti.SourceType = axiom.SourcePattern
		out = append(out, anti)
	}

	if a.HasTemplateCall && a.TemplateParam != "" {
		ax := base("complexity.template_instantiation")
		ax.Content = fmt.Sprintf("Each unique value of %s causes a separate template instantiation, increasing compile time and code size", a.TemplateParam)
		ax.FormalSpec = fmt.Sprintf("compile_time_cost proportional_to distinct_%s_values", a.TemplateParam)
		ax.AxiomType = axiom.Complexity
		ax.Confidence = 0.95
		ax.SourceType = axiom.SourcePattern
		out = append(out, ax)
	}

	if a.IsIncomplete {
		ax := base("constraint.requires_completion")
		ax.Content = fmt.Sprintf("Macro %s is syntactically incomplete and requires a companion macro or closing syntax", m.Name)
		ax.FormalSpec = fmt.Sprintf("requires_companion_macro(%s)", m.Name)
		ax.AxiomType = axiom.Constraint
		ax.Confidence = 1.0
		ax.SourceType = axiom.SourceExplicit
		out = append(out, ax)
	}

	if len(a.LocalVars) > 0 {
		vars := uniqueSorted(a.LocalVars)
		list := strings.Join(vars, ", ")
		ax := base("postcondition.local_vars_available")
		ax.Content = fmt.Sprintf("After %s expansion, the following identifiers are available in scope: %s", m.Name, list)
		ax.FormalSpec = fmt.Sprintf("in_scope({%s})", list)
		ax.AxiomType = axiom.Postcondition
		ax.Confidence = 0.95
		ax.SourceType = axiom.SourcePattern
		out = append(out, ax)
	}

	if a.HasLoop {
		ax := base("effect.iteration")
		ax.Content = fmt.Sprintf("Macro %s performs iteration over a range or condition", m.Name)
		ax.FormalSpec = "has_iteration_semantics"
		ax.AxiomType = axiom.Effect
		ax.Confidence = 0.9
		ax.SourceType = axiom.SourcePattern
		out = append(out, ax)
	}

	return out
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
