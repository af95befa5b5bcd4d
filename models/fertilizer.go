package models

import (
	"gorm.io/gorm"
)

// Fertilizer is a catalog entry describing one product: its elemental
// composition as percentage-by-weight, pricing, and packaging. Entries are
// owned by a tenant; shared entries form the admin-curated base catalog
// visible to every tenant.
type Fertilizer struct {
	gorm.Model
	Name string `gorm:"not null;index:idx_fertilizers_owner_name,unique" json:"name"`
	Zone string `gorm:"type:varchar(16);default:green" json:"zone"`
	Type string `json:"type"`

	// Percentage-by-weight for each tracked element, all in [0,100].
	// A zero value means the element is not declared on the label.
	N  float64 `json:"n"`
	P  float64 `json:"p"`
	K  float64 `json:"k"`
	Ca float64 `json:"ca"`
	Mg float64 `json:"mg"`
	S  float64 `json:"s"`
	Fe float64 `json:"fe"`
	Mn float64 `json:"mn"`
	Zn float64 `json:"zn"`
	Cu float64 `json:"cu"`
	B  float64 `json:"b"`
	Mo float64 `json:"mo"`
	Cl float64 `json:"cl"`
	Na float64 `json:"na"`
	Si float64 `json:"si"`
	Ni float64 `json:"ni"`
	Co float64 `json:"co"`
	V  float64 `json:"v"`

	AminoAcid float64 `json:"amino_acid"`

	Price           float64 `json:"price"`
	PackageUnit     string  `json:"package_unit"`     // e.g. "20kg", "10L"
	RecommendedRate string  `json:"recommended_rate"` // e.g. "20g/m2", "5ml/m2"

	// Density (g/ml) and Concentration (%) only matter for liquids.
	Density       float64 `json:"density"`
	Concentration float64 `json:"concentration"`

	StockCount    int    `json:"stock_count"`
	LowStockAlert bool   `json:"low_stock_alert"`
	Description   string `gorm:"type:text" json:"description"`

	OwnerID uint  `gorm:"not null;index:idx_fertilizers_owner_name,unique" json:"owner_id"`
	Owner   *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Shared  bool  `gorm:"not null;default:false" json:"shared"`
}

// NutrientPercents returns the declared composition keyed by element symbol.
// Undeclared elements are present with a zero value.
func (f *Fertilizer) NutrientPercents() map[string]float64 {
	return map[string]float64{
		"N": f.N, "P": f.P, "K": f.K,
		"Ca": f.Ca, "Mg": f.Mg, "S": f.S,
		"Fe": f.Fe, "Mn": f.Mn, "Zn": f.Zn,
		"Cu": f.Cu, "B": f.B, "Mo": f.Mo,
		"Cl": f.Cl, "Na": f.Na, "Si": f.Si,
		"Ni": f.Ni, "Co": f.Co, "V": f.V,
	}
}
