package jobs

// view is one locally displayed list. Each fetch takes a generation from begin;
// commit drops a reply whose generation has been superseded by a newer fetch
// or a local edit. Callers hold Coordinator.mu.
type view[T any] struct {
	gen    uint64
	items  []T
	loaded bool
}

func (v *view[T]) begin() uint64 {
	v.gen++
	return v.gen
}

func (v *view[T]) commit(gen uint64, items []T) bool {
	if gen != v.gen {
		return false
	}
	v.items = append([]T(nil), items...)
	v.loaded = true
	return true
}

// edit applies fn to a copy of the current items and supersedes in-flight
// fetches. Slices handed out earlier are never written.
func (v *view[T]) edit(fn func([]T) []T) {
	v.gen++
	v.items = fn(append([]T(nil), v.items...))
}

func (v *view[T]) snapshot() []T {
	return append([]T(nil), v.items...)
}

func (v *view[T]) find(match func(T) bool) (T, bool) {
	for _, it := range v.items {
		if match(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func replace[T any](items []T, match func(T) bool, with T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		if match(it) {
			it = with
		}
		out[i] = it
	}
	return out
}
