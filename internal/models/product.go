package models

import "math"

// Column headers of the listings CSV.
const (
	ColSeason           = "Temporada"
	ColPrice            = "Preço"
	ColRating           = "Nota"
	ColDiscount         = "Desconto"
	ColGender           = "Gênero"
	ColSoldQuantityCode = "Qtd_Vendidos_Cod"
	ColSoldQuantity     = "Qtd_Vendidos"
)

// RequiredColumns must all be present in the header for a load to succeed.
var RequiredColumns = []string{
	ColSeason,
	ColPrice,
	ColRating,
	ColDiscount,
	ColGender,
	ColSoldQuantityCode,
}

// Product is one listing. Numeric fields hold NaN when the source cell
// could not be read as a number.
type Product struct {
	Season           string
	Price            float64
	Rating           float64
	Discount         float64
	Gender           string
	SoldQuantityCode string
	SoldQuantity     float64
}

func (p Product) HasSoldQuantity() bool {
	return !math.IsNaN(p.SoldQuantity)
}
