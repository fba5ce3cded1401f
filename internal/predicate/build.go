package predicate

// AndOf conjoins predicates, flattening nested Ands and dropping Trues.
// A single remaining predicate is returned as is.
func AndOf(preds ...Predicate) Predicate {
	var out []Predicate
	for _, p := range preds {
		switch v := p.(type) {
		case nil, True:
		case And:
			out = append(out, v.Predicates...)
		default:
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return True{}
	case 1:
		return out[0]
	default:
		return And{Predicates: out}
	}
}

// OrOf disjoins predicates. No predicates yields False.
func OrOf(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return False{}
	case 1:
		return preds[0]
	default:
		return Or{Predicates: append([]Predicate(nil), preds...)}
	}
}

// Negate wraps p in Not, collapsing a double negation.
func Negate(p Predicate) Predicate {
	if n, ok := p.(Not); ok {
		return n.Predicate
	}
	return Not{Predicate: p}
}
