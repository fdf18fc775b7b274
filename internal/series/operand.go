package series

import "fmt"

// Field selects one price of a bar.
type Field int

const (
	FieldOpen Field = iota
	FieldHigh
	FieldLow
	FieldClose
)

// String returns the string representation of the Field.
func (f Field) String() string {
	switch f {
	case FieldOpen:
		return "open"
	case FieldHigh:
		return "high"
	case FieldLow:
		return "low"
	case FieldClose:
		return "close"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Operand is one side of a crossing comparison: either a bar field that moves
// with the cursor or a fixed scalar.
type Operand struct {
	field    Field
	value    float64
	isScalar bool
}

// FieldOperand returns an operand reading field f relative to the cursor.
func FieldOperand(f Field) Operand {
	return Operand{field: f}
}

// ScalarOperand returns a fixed-value operand.
func ScalarOperand(v float64) Operand {
	return Operand{value: v, isScalar: true}
}

// String returns the string representation of the Operand.
func (o Operand) String() string {
	if o.isScalar {
		return fmt.Sprintf("%g", o.value)
	}
	return o.field.String()
}

func (o Operand) at(c *Cursor, offset int) float64 {
	if o.isScalar {
		return o.value
	}
	return c.Field(o.field, offset)
}
