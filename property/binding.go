package property

type BindingResult uint8

const (
	// KeepBinding leaves the binding installed after the evaluation.
	KeepBinding BindingResult = iota
	// RemoveBinding turns the cell into a plain cell holding the value just
	// produced, dropping the binding and its dependencies.
	RemoveBinding
)

// Binding computes a cell's value from other cells. Evaluate receives the
// previously cached value.
type Binding[T any] interface {
	Evaluate(old T) (T, BindingResult)
}

type BindingFunc[T any] func(old T) (T, BindingResult)

// Disposer is implemented by bindings that hold graph resources of their own.
// Dispose is called once, when the binding is replaced or removed.
type Disposer interface {
	Dispose()
}

func (f BindingFunc[T]) Evaluate(old T) (T, BindingResult) {
	return f(old)
}

// binding is the installed form of a Binding. Two-way aliases intercept
// writes and re-bindings of the cell they are installed on and redirect them
// to the shared cell.
type binding[T any] struct {
	eval                func(old T) (T, BindingResult)
	interceptSet        func(v T) error
	interceptSetBinding func(nb *binding[T]) error
	common              *Cell[T]
	dispose             func()
}

func newBinding[T any](b Binding[T]) *binding[T] {
	nb := &binding[T]{eval: b.Evaluate}
	if d, ok := b.(Disposer); ok {
		nb.dispose = d.Dispose
	}
	return nb
}

func (b *binding[T]) release() {
	if b != nil && b.dispose != nil {
		dispose := b.dispose
		b.dispose = nil
		dispose()
	}
}
