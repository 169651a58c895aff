package hazards

import (
	"axe/internal/axiom"
)

// Axioms turns the unguarded hazards of one function into precondition
// axioms. Guarded hazards are dropped: the code already checks.
func Axioms(fn axiom.FunctionInfo, hazards []axiom.Hazard) []axiom.Axiom {
	var axioms []axiom.Axiom
	for _, hz := range hazards {
		if hz.Guard.Found {
			continue
		}

		a := axiom.Axiom{
			Function:   fn.Name,
			Signature:  fn.Signature,
			Header:     fn.Header,
			AxiomType:  axiom.Precondition,
			Confidence: 0.95,
			SourceType: axiom.SourcePattern,
			Line:       hz.Line,
			HazardType: hz.Kind,
			HazardLine: hz.Line,
			HasGuard:   axiom.Bool(false),
		}

		switch hz.Kind {
		case axiom.HazardDivision:
			a.ID = fn.Name + ".precond.divisor_nonzero"
			a.Content = "Divisor " + hz.Operand + " must not be zero"
			a.FormalSpec = hz.Operand + " != 0"
		case axiom.HazardPointerDeref:
			a.ID = fn.Name + ".precond.ptr_valid"
			a.Content = "Pointer " + hz.Operand + " must not be null"
			a.FormalSpec = hz.Operand + " != nullptr"
		case axiom.HazardArrayAccess:
			a.ID = fn.Name + ".precond.bounds_check"
			a.Content = "Index must be within bounds for " + hz.Expression
			a.FormalSpec = "0 <= index && index < size"
		case axiom.HazardCast:
			a.ID = fn.Name + ".constraint.cast_safety"
			a.AxiomType = axiom.Constraint
			a.Content = "Type cast of " + hz.Operand + " requires compatible types"
			a.FormalSpec = "is_compatible(source_type, target_type)"
		default:
			continue
		}

		axioms = append(axioms, a)
	}
	return axioms
}
