package diagram

// Conflicts reports whether candidate collides with any attribute in
// existing. The attribute whose ID equals candidate.ID is skipped, so an
// attribute being renamed or re-signatured is not compared with itself.
//
// Rules:
//   - two members with the same name collide when either is a field;
//   - two methods with the same name collide only when their ordered
//     parameter-type sequences are equal. Parameter names and return
//     types do not take part.
func Conflicts(existing []Attribute, candidate Attribute) bool {
	for _, a := range existing {
		if candidate.ID != 0 && a.ID == candidate.ID {
			continue
		}
		if a.Name != candidate.Name {
			continue
		}
		if a.Kind == FieldAttribute || candidate.Kind == FieldAttribute {
			return true
		}
		if sameSignature(a.Params, candidate.Params) {
			return true
		}
	}
	return false
}

func sameSignature(a, b []Parameter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type {
			return false
		}
	}
	return true
}
