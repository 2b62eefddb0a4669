package binspec

import "github.com/Velocidex/ordereddict"

// View is the read surface handed to derive callbacks, conditional
// predicates and switch key functions. It exposes every value decoded so
// far, visible results and hidden stored fields alike. When a name exists
// in both, the visible result wins.
type View struct {
	result *ordereddict.Dict
	stored *ordereddict.Dict
}

// Get returns the value decoded so far under name.
func (v View) Get(name string) (any, bool) {
	if v.result != nil {
		if val, ok := v.result.Get(name); ok {
			return val, true
		}
	}
	if v.stored != nil {
		if val, ok := v.stored.Get(name); ok {
			return val, true
		}
	}
	return nil, false
}

// Has reports whether name has been decoded yet.
func (v View) Has(name string) bool {
	_, ok := v.Get(name)
	return ok
}

// Int returns the value under name coerced to int64. Missing or
// non-numeric values yield zero.
func (v View) Int(name string) int64 {
	val, _ := v.Get(name)
	switch x := val.(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	}
	return 0
}

// Float returns the value under name coerced to float64. Missing or
// non-numeric values yield zero.
func (v View) Float(name string) float64 {
	val, _ := v.Get(name)
	switch x := val.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	}
	return 0
}

// Bool returns the value under name, or false when missing or not a bool.
func (v View) Bool(name string) bool {
	val, _ := v.Get(name)
	b, ok := val.(bool)
	return ok && b
}

// Str returns the value under name, or the empty string when missing or
// not text.
func (v View) Str(name string) string {
	val, _ := v.Get(name)
	s, _ := val.(string)
	return s
}
