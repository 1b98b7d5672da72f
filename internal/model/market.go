package model

// Market is owned by the catalog; storefront profiles reference it by code.
type Market struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
