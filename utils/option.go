package utils

// Option holds a value that may be absent
type Option[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Option[T] { return Option[T]{value: v, ok: true} }

func None[T any]() Option[T] { return Option[T]{} }

func (o Option[T]) Get() (T, bool) { return o.value, o.ok }

func (o Option[T]) IsSome() bool { return o.ok }

// MustGet panics when the value is absent
func (o Option[T]) MustGet() T {
	if !o.ok {
		panic("utils.Option: value is absent")
	}
	return o.value
}
