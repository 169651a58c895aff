package effects

import (
	"fmt"

	"axe/internal/axiom"
)

// Axioms maps detected side effects onto axiom records.
func Axioms(fn axiom.FunctionInfo, effects []axiom.SideEffect) []axiom.Axiom {
	var out []axiom.Axiom
	for _, ef := range effects {
		ax := axiom.Axiom{
			Function:   fn.Name,
			Signature:  fn.Signature,
			Header:     fn.Header,
			AxiomType:  axiom.Effect,
			Confidence: ef.Confidence,
			SourceType: axiom.SourcePattern,
			Line:       ef.Line,
		}
		switch ef.Kind {
		case axiom.EffectParamModify:
			ax.ID = fn.Name + ".effect.modifies_" + ef.Target
			ax.Content = fmt.Sprintf("Modifies parameter %s", ef.Target)
			ax.FormalSpec = fmt.Sprintf("modifies(%s)", ef.Target)
		case axiom.EffectMemberWrite:
			ax.ID = fn.Name + ".effect.writes_" + ef.Target
			ax.Content = fmt.Sprintf("Writes to member %s", ef.Target)
			ax.FormalSpec = fmt.Sprintf("modifies(this.%s)", ef.Target)
		case axiom.EffectMemoryAlloc:
			ax.ID = fn.Name + ".effect.allocates"
			ax.Content = fmt.Sprintf("Allocates memory for %s", ef.Target)
			ax.FormalSpec = fmt.Sprintf("allocates(%s)", ef.Target)
		case axiom.EffectMemoryFree:
			ax.ID = fn.Name + ".effect.deallocates"
			ax.Content = fmt.Sprintf("Deallocates memory for %s", ef.Target)
			ax.FormalSpec = fmt.Sprintf("deallocates(%s)", ef.Target)
		case axiom.EffectContainerModify:
			ax.ID = fn.Name + ".effect.modifies_container"
			ax.Content = fmt.Sprintf("Modifies container %s", ef.Target)
			ax.FormalSpec = fmt.Sprintf("modifies(%s)", ef.Target)
		case axiom.EffectCallFrequency:
			ax.ID = fn.Name + ".effect.calls_" + axiom.SanitizeID(ef.Target)
			ax.Content = fmt.Sprintf("Calls %s %d time(s)", ef.Target, ef.CallCount)
			ax.FormalSpec = fmt.Sprintf("call_count(%s) == %d", ef.Target, ef.CallCount)
		default:
			continue
		}
		out = append(out, ax)
	}
	return out
}
