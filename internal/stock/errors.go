package stock

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRecipe means a production run was requested for a product with no
	// BOM entries.
	ErrNoRecipe = errors.New("no bill of materials defined for product")

	// ErrNotFound means a referenced product, material, customer or supplier
	// does not exist.
	ErrNotFound = errors.New("referenced record not found")
)

// EntityKind identifies which stock counter ran short.
type EntityKind string

const (
	KindRawMaterial EntityKind = "raw_material"
	KindProduct     EntityKind = "product"
)

// InsufficientStockError reports the first entity whose stock could not cover
// the requested operation. It is a business-rule rejection, never retried.
type InsufficientStockError struct {
	Kind      EntityKind
	ID        int
	Name      string
	Available float64
	Required  float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s %q: have %g, need %g",
		e.Kind, e.Name, e.Available, e.Required)
}

// IsInsufficientStock reports whether err is an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}
