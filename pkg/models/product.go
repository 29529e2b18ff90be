package models

// Market identifies one regional storefront of the marketplace
type Market struct {
	Key      string `json:"key" yaml:"key"`
	Code     string `json:"code" yaml:"code"`
	Language string `json:"language" yaml:"language"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
}

// ProductRef represents a discovered product listing
// Identity is the URL; instances are immutable once produced by discovery
type ProductRef struct {
	URL         string `json:"url" validate:"required,url"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Rating      string `json:"rating"`
	ReviewCount string `json:"review_count"`
	Brand       string `json:"brand"`
	Market      string `json:"market"`
}
