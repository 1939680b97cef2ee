package document

// DeepMerge merges src into dst. Maps merge key by key, sequences merge via
// ListMerge and any other pairing is resolved by taking the value from src.
func DeepMerge(dst, src *Map) {
	for k, sv := range src.All() {
		dv, ok := dst.Get(k)
		if !ok {
			dst.Set(k, sv)
			continue
		}
		switch d := dv.(type) {
		case *Map:
			if s, ok := sv.(*Map); ok {
				DeepMerge(d, s)
				continue
			}
		case *Seq:
			if s, ok := sv.(*Seq); ok {
				ListMerge(d, s)
				continue
			}
		}
		dst.Set(k, sv)
	}
}

// ListMerge appends the items of src that dst does not already contain,
// keeping the order of both.
func ListMerge(dst, src *Seq) {
	if dst == src {
		return
	}
	for _, item := range src.items {
		if !dst.Contains(item) {
			dst.Append(item)
		}
	}
}
