package compute

import "fmt"

// Kind is the element type stored in a device buffer.
type Kind int

const (
	Int32 Kind = iota
	Float32
)

func (k Kind) String() string {
	switch k {
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Buffer is device-resident memory owned by a Queue's device.
type Buffer interface {
	Len() int
	Kind() Kind
	// Free releases the device memory. Freeing twice is a no-op.
	Free() error
}

// View addresses Length elements of Buffer starting at Offset.
type View struct {
	Buffer Buffer
	Offset int
	Length int
}

// Whole returns a view over the entire buffer.
func Whole(b Buffer) View {
	if b == nil {
		return View{}
	}
	return View{Buffer: b, Offset: 0, Length: b.Len()}
}

// Slice returns a view of length elements starting at off.
func Slice(b Buffer, off, length int) View {
	return View{Buffer: b, Offset: off, Length: length}
}

// Valid reports whether the view has a buffer and lies inside it.
func (v View) Valid() bool {
	if v.Buffer == nil || v.Offset < 0 || v.Length < 0 {
		return false
	}
	return v.Offset+v.Length <= v.Buffer.Len()
}

// Empty reports whether the view has no backing buffer.
func (v View) Empty() bool {
	return v.Buffer == nil
}

// Overlaps reports whether both views share at least one element.
func (v View) Overlaps(o View) bool {
	if v.Buffer == nil || o.Buffer == nil || v.Buffer != o.Buffer {
		return false
	}
	if v.Length == 0 || o.Length == 0 {
		return false
	}
	return v.Offset < o.Offset+o.Length && o.Offset < v.Offset+v.Length
}

// Same reports whether both views address exactly the same elements.
func (v View) Same(o View) bool {
	return v.Buffer != nil && v.Buffer == o.Buffer && v.Offset == o.Offset && v.Length == o.Length
}

func (v View) String() string {
	if v.Buffer == nil {
		return "view(nil)"
	}
	return fmt.Sprintf("view(%s[%d:%d])", v.Buffer.Kind(), v.Offset, v.Offset+v.Length)
}

// CheckView verifies that v is a valid view of kind k holding exactly n
// elements.
func CheckView(name string, v View, k Kind, n int) error {
	if v.Buffer == nil {
		return fmt.Errorf("%w: %s: missing buffer", ErrSizeMismatch, name)
	}
	if v.Buffer.Kind() != k {
		return fmt.Errorf("%w: %s: element kind %s, want %s", ErrSizeMismatch, name, v.Buffer.Kind(), k)
	}
	if !v.Valid() {
		return fmt.Errorf("%w: %s: %s out of range for buffer of %d", ErrSizeMismatch, name, v, v.Buffer.Len())
	}
	if v.Length != n {
		return fmt.Errorf("%w: %s: length %d, want %d", ErrSizeMismatch, name, v.Length, n)
	}
	return nil
}
