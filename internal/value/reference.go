package value

// refCell is the shared, ref-counted backing storage for a Reference.
// Unlike Pointer (which is process-tagged and expires), a Reference is a
// same-process alias: copying a Reference bumps the count, and the
// underlying Value is mutated in place through every alias.
type refCell struct {
	target Value
	count  int
}

// Reference is a ref-counted alias to a Value, used where register-copy
// semantics would be wrong, e.g. sharing a single Struct between registers
// so a mutation through one is visible through the others.
type Reference struct {
	cell *refCell
}

// NewReference wraps target in a freshly ref-counted cell.
func NewReference(target Value) Reference {
	return Reference{cell: &refCell{target: target, count: 1}}
}

func (r Reference) Type() string  { return "reference" }
func (r Reference) Boolean() bool { return r.cell != nil && r.cell.target.Boolean() }
func (r Reference) Str() string   { return r.cell.target.Str() }
func (r Reference) Repr() string  { return "&" + r.cell.target.Repr() }

// Copy aliases the same cell and bumps its reference count; it does not
// deep-copy the pointee, matching reference-value (not pointer-value)
// copy semantics.
func (r Reference) Copy() Value {
	r.cell.count++
	return r
}

// Deref returns the aliased Value.
func (r Reference) Deref() Value { return r.cell.target }

// Set replaces the aliased Value, visible through every alias of this cell.
func (r Reference) Set(v Value) { r.cell.target = v }

// Release decrements the reference count and reports whether it reached
// zero, at which point the cell is eligible for collection by the owning
// process.
func (r Reference) Release() bool {
	r.cell.count--
	return r.cell.count <= 0
}

// RefCount reports the current reference count, chiefly for diagnostics.
func (r Reference) RefCount() int { return r.cell.count }
