package ir

// EdgeKind is a SenItem's edge semantic (GLOSSARY: "Edge kind"). The four
// non-edge values (Static/Initial/Final/Combo) are the synthetic
// single-item sensitivities the Classifier dispatches on; the rest are real
// edge/change detectors SenExprBuilder translates (spec §4.3 table).
type EdgeKind uint8

const (
	EdgeIllegal EdgeKind = iota
	EdgeStatic           // single-item only: run once before anything else
	EdgeInitial          // single-item only: run once at simulation start
	EdgeFinal            // single-item only: run once at simulation end
	EdgeCombo            // single-item only: combinational, sensitive to "everything read"
	EdgeChanged
	EdgeHybrid
	EdgeBothEdge
	EdgePosedge
	EdgeNegedge
	EdgeEvent
	EdgeTrueLevel // used only for trigger-flag self-references (spec §4.3)
)

func (e EdgeKind) String() string {
	switch e {
	case EdgeIllegal:
		return "illegal"
	case EdgeStatic:
		return "static"
	case EdgeInitial:
		return "initial"
	case EdgeFinal:
		return "final"
	case EdgeCombo:
		return "combo"
	case EdgeChanged:
		return "changed"
	case EdgeHybrid:
		return "hybrid"
	case EdgeBothEdge:
		return "bothedge"
	case EdgePosedge:
		return "posedge"
	case EdgeNegedge:
		return "negedge"
	case EdgeEvent:
		return "event"
	case EdgeTrueLevel:
		return "truelevel"
	default:
		return "unknown"
	}
}

// SenItem is one sensitivity term: an edge kind and the sensed expression.
type SenItem struct {
	Edge EdgeKind
	Expr Expr
	Loc  SourceLoc
}

// Kind classifies a SenTree into one of the six mutually-exclusive buckets
// the Classifier dispatches on (spec §3 Invariants, §4.1).
type Kind uint8

const (
	KindStatic Kind = iota
	KindInitial
	KindFinal
	KindCombo
	KindClocked
	KindHybrid
)

func (k Kind) String() string {
	return [...]string{"static", "initial", "final", "combo", "clocked", "hybrid"}[k]
}

// SenTree is a disjunction of SenItems (GLOSSARY), classified once by the
// Classifier and possibly reclassified to KindHybrid by breakCycles.
type SenTree struct {
	Items []*SenItem
	kind  Kind
	// classified is false until the Classifier has looked at this tree;
	// used to assert the "classification is total" invariant.
	classified bool
}

func NewSenTree(items ...*SenItem) *SenTree {
	return &SenTree{Items: items}
}

func (t *SenTree) Kind() Kind       { return t.kind }
func (t *SenTree) SetKind(k Kind)   { t.kind, t.classified = k, true }
func (t *SenTree) Classified() bool { return t.classified }

func (t *SenTree) HasClocked() bool { return t.classified && t.kind == KindClocked }
func (t *SenTree) HasHybrid() bool  { return t.classified && t.kind == KindHybrid }
func (t *SenTree) HasCombo() bool   { return t.classified && t.kind == KindCombo }
func (t *SenTree) HasStatic() bool  { return t.classified && t.kind == KindStatic }
func (t *SenTree) HasInitial() bool { return t.classified && t.kind == KindInitial }
func (t *SenTree) HasFinal() bool   { return t.classified && t.kind == KindFinal }

// SingleItemKind inspects a not-yet-classified SenTree's single item (if
// there is exactly one) to determine which of the four synthetic classes it
// names, or EdgeIllegal if it doesn't match one of them. Used by the
// Classifier (spec §4.1) before it calls SetKind.
func (t *SenTree) SingleItemKind() (EdgeKind, bool) {
	if len(t.Items) != 1 {
		return EdgeIllegal, false
	}
	switch t.Items[0].Edge {
	case EdgeStatic, EdgeInitial, EdgeFinal, EdgeCombo:
		return t.Items[0].Edge, true
	default:
		return EdgeIllegal, false
	}
}

// TrueLevelSenTree builds a synthetic "@(trigger_vec.at(k) == true)"
// sensitivity the TriggerKit uses to redirect downstream logic (spec §4.4.4).
func TrueLevelSenTree(expr Expr) *SenTree {
	t := NewSenTree(&SenItem{Edge: EdgeTrueLevel, Expr: expr})
	t.SetKind(KindClocked) // trigger-flag sensitivities behave like clocked inputs to Order
	return t
}
