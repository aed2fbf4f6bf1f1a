package domain

type MutationKind string

const (
	MutationSelect         MutationKind = "select"
	MutationDeselect       MutationKind = "deselect"
	MutationQuantityChange MutationKind = "quantityChange"
)

func (k MutationKind) Valid() bool {
	switch k {
	case MutationSelect, MutationDeselect, MutationQuantityChange:
		return true
	}
	return false
}

// Surface identifies a rendered view of a product.
type Surface string

const (
	SurfaceGrid  Surface = "grid"
	SurfaceModal Surface = "modal"
)

func (s Surface) Valid() bool {
	return s == SurfaceGrid || s == SurfaceModal
}

// Mutation is a UI-originated change to one product's selection. Value is
// the raw content of the originating surface's quantity input.
type Mutation struct {
	ProductID string       `json:"product_id"`
	Kind      MutationKind `json:"kind"`
	Value     string       `json:"value"`
	Surface   Surface      `json:"surface"`
}

// SurfaceState is what a surface must display for a product after a
// mutation.
type SurfaceState struct {
	Surface         Surface `json:"surface"`
	ProductID       string  `json:"product_id"`
	Checked         bool    `json:"checked"`
	QuantityEnabled bool    `json:"quantity_enabled"`
	Quantity        int     `json:"quantity"`
	ItemTotal       string  `json:"item_total"`
}

type SyncResult struct {
	ProductID string         `json:"product_id"`
	Applied   bool           `json:"applied"`
	Corrected bool           `json:"corrected"`
	Quantity  int            `json:"quantity"`
	Surfaces  []SurfaceState `json:"surfaces"`
	Total     string         `json:"grand_total"`
	Count     int            `json:"selected_count"`
}
