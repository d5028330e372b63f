package search

// Entry is one element of a hybrid transformation: either a domain object
// or the raw hit that had no backing object.
type Entry[T any] struct {
	object T
	raw    *Hit
}

// ObjectEntry wraps a transformed domain object.
func ObjectEntry[T any](obj T) Entry[T] {
	return Entry[T]{object: obj}
}

// RawEntry wraps a hit that could not be transformed.
func RawEntry[T any](hit Hit) Entry[T] {
	return Entry[T]{raw: &hit}
}

// Object returns the domain object, false for raw entries.
func (e Entry[T]) Object() (T, bool) {
	if e.raw != nil {
		var zero T
		return zero, false
	}
	return e.object, true
}

// Raw returns the placeholder hit, false for object entries.
func (e Entry[T]) Raw() (Hit, bool) {
	if e.raw == nil {
		return Hit{}, false
	}
	return *e.raw, true
}

// IsRaw reports whether the entry is a raw hit placeholder.
func (e Entry[T]) IsRaw() bool {
	return e.raw != nil
}
