package model

// BOMItem is one fabrication line item for an instrument build.
type BOMItem struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Material string `json:"material"`
	// Dimensions is the human-readable cut/stock specification.
	Dimensions string `json:"dimensions"`
	// Volume of material in cubic metres; zero for purchased hardware.
	Volume float64 `json:"volume"`
	// Mass in kilograms derived from the material density; zero when
	// Volume is zero.
	Mass float64 `json:"mass"`
}
