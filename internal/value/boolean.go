package value

// Boolean is the two-valued logical variant.
type Boolean bool

func (b Boolean) Type() string  { return "boolean" }
func (b Boolean) Str() string   { if b { return "true" }; return "false" }
func (b Boolean) Repr() string  { return b.Str() }
func (b Boolean) Boolean() bool { return bool(b) }
func (b Boolean) Copy() Value   { return b }

func (b Boolean) Equal(other Value) (bool, error) {
	o, ok := other.(Boolean)
	if !ok {
		return false, NewTypeError("eq", other)
	}
	return b == o, nil
}

// Not returns the logical negation of b.
func (b Boolean) Not() Boolean { return !b }

// And returns the logical conjunction of b and other.
func (b Boolean) And(other Boolean) Boolean { return b && other }

// Or returns the logical disjunction of b and other.
func (b Boolean) Or(other Boolean) Boolean { return b || other }
