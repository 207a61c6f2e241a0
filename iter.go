package pathmatcher

import "iter"

// Route describes a registration reachable by a lookup.
type Route struct {
	Method        string
	Template      string
	BodyFieldPath string
}

// Routes returns a range iterator over the registrations reachable by a lookup, in registration
// order. Registrations superseded with [ReplaceExisting], duplicates dropped by [KeepFirst] or
// [MarkAmbiguous], and the registrations [MarkAmbiguous] flagged as ambiguous are not included.
func (pm *PathMatcher[T]) Routes() iter.Seq2[Route, T] {
	return func(yield func(Route, T) bool) {
		for _, data := range pm.data {
			if !data.reachable() {
				continue
			}
			rte := Route{
				Method:        data.httpMethod,
				Template:      data.template,
				BodyFieldPath: data.bodyFieldPath,
			}
			if !yield(rte, data.method) {
				return
			}
		}
	}
}
