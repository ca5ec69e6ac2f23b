package value

// Struct maps Atom keys to Values, the named-field aggregate variant.
// Field order is insertion order, preserved for Repr and iteration, the same
// way original_source's struct dump order is insertion-stable.
type Struct struct {
	keys   []Atom
	fields map[Atom]Value
}

// NewStruct returns an empty Struct.
func NewStruct() *Struct {
	return &Struct{fields: make(map[Atom]Value)}
}

func (s *Struct) Type() string  { return "struct" }
func (s *Struct) Boolean() bool { return len(s.fields) > 0 }
func (s *Struct) Len() int      { return len(s.fields) }

func (s *Struct) Str() string  { return s.Repr() }
func (s *Struct) Repr() string {
	out := "{"
	for i, k := range s.keys {
		if i > 0 {
			out += ", "
		}
		out += k.Str() + ": " + s.fields[k].Repr()
	}
	return out + "}"
}

func (s *Struct) Copy() Value {
	cp := NewStruct()
	for _, k := range s.keys {
		cp.Set(k, s.fields[k].Copy())
	}
	return cp
}

// Get returns the field named by key.
func (s *Struct) Get(key Atom) (Value, error) {
	v, ok := s.fields[key]
	if !ok {
		return nil, NewException(TagIndexOutOfBounds, "no such struct field: "+string(key), key)
	}
	return v, nil
}

// Set assigns the field named by key, appending it to the key order if new.
func (s *Struct) Set(key Atom, val Value) {
	if _, exists := s.fields[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.fields[key] = val
}

// Remove deletes the field named by key.
func (s *Struct) Remove(key Atom) error {
	if _, ok := s.fields[key]; !ok {
		return NewException(TagIndexOutOfBounds, "no such struct field: "+string(key), key)
	}
	delete(s.fields, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return nil
}

// Keys returns the struct's Atom keys in insertion order.
func (s *Struct) Keys() []Atom {
	return append([]Atom(nil), s.keys...)
}

// Has reports whether key is present.
func (s *Struct) Has(key Atom) bool {
	_, ok := s.fields[key]
	return ok
}
