// Package item defines the normalized product record handed to sinks.
package item

import "time"

// PriceData holds the current and original price of a product
type PriceData struct {
	Current  float64 `json:"current"`
	Original float64 `json:"original"`
	SaleTag  string  `json:"sale_tag"`
}

// Stock is the availability of a product in the resolved city
type Stock struct {
	InStock bool `json:"in_stock"`
	Count   int  `json:"count"`
}

// Assets are the media links of a product
type Assets struct {
	MainImage string   `json:"main_image"`
	SetImages []string `json:"set_images"`
	View360   []string `json:"view360"`
	Video     []string `json:"video"`
}

// Metadata carries the free-form description and passthrough attributes.
// The contry_code and gastronimics keys are spelled the way downstream
// consumers already read them.
type Metadata struct {
	Description  string `json:"description"`
	Subname      string `json:"subname"`
	VendorCode   int64  `json:"vendor_code"`
	CountryCode  string `json:"contry_code"`
	CountryName  string `json:"country_name"`
	Gastronomics []any  `json:"gastronimics"`
}

// Product is the output record, built once per product and never mutated afterwards
type Product struct {
	Timestamp     int64     `json:"timestamp"`
	RPC           string    `json:"RPC"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	MarketingTags []string  `json:"marketing_tags"`
	Brand         string    `json:"brand"`
	Section       []string  `json:"section"`
	PriceData     PriceData `json:"price_data"`
	Stock         Stock     `json:"stock"`
	Assets        Assets    `json:"assets"`
	Metadata      Metadata  `json:"metadata"`
	Variants      int       `json:"variants"`
}

// New returns a Product stamped with the current time
func New() Product {
	return Product{
		Timestamp: time.Now().Unix(),
		Variants:  1,
	}
}

// Key identifies the product across sinks
func (p Product) Key() string {
	return p.RPC
}
