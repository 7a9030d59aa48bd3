// Package catalog describes the JSON documents served by the alkoteka web API.
package catalog

import "github.com/google/uuid"

// Envelope fields shared by every API response.
type Envelope struct {
	Success bool `json:"success"`
}

// Meta is the pagination block of list responses
type Meta struct {
	From         int    `json:"from"`
	To           int    `json:"to"`
	PerPage      int    `json:"per_page"`
	CurrentPage  int    `json:"current_page"`
	HasMorePages bool   `json:"has_more_pages"`
	Total        int    `json:"total,omitempty"`
	Accented     []City `json:"accented,omitempty"`
}

// City is one entry of the city list
type City struct {
	UUID      uuid.UUID `json:"uuid"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Longitude string    `json:"longitude"`
	Latitude  string    `json:"latitude"`
	Accented  bool      `json:"accented"`
}

// CityResponse is returned by GET /city
type CityResponse struct {
	Envelope
	Meta    Meta   `json:"meta"`
	Results []City `json:"results"`
}

// FindCity returns the city whose name equals name exactly.
func (r CityResponse) FindCity(name string) (City, bool) {
	for _, c := range r.Results {
		if c.Name == name {
			return c, true
		}
	}
	return City{}, false
}

// ProductListResponse is one page of GET /product
type ProductListResponse struct {
	Envelope
	Meta    Meta             `json:"meta"`
	Results []ProductSummary `json:"results"`
}

// ProductSummary is a listing entry. Only Slug and ProductURL drive the traversal;
// the other fields are kept as plain values so one odd entry cannot spoil a page.
type ProductSummary struct {
	UUID          string  `json:"uuid"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	CategorySlug  string  `json:"category_slug"`
	Price         float64 `json:"price"`
	PrevPrice     float64 `json:"prev_price"`
	QuantityTotal int     `json:"quantity_total"`
	ImageURL      string  `json:"image_url"`
	ProductURL    string  `json:"product_url"`
	Available     bool    `json:"available"`
}

// ProductDetailResponse is returned by GET /product/{slug}
type ProductDetailResponse struct {
	Envelope
	Results ProductDetail `json:"results"`
}

// ProductDetail is the full product record.
//
// Price, PrevPrice and QuantityTotal are pointers so a missing field can be
// told apart from a zero value.
type ProductDetail struct {
	UUID              uuid.UUID          `json:"uuid"`
	VendorCode        int64              `json:"vendor_code"`
	CountryCode       string             `json:"country_code"`
	CountryName       string             `json:"country_name"`
	Name              string             `json:"name"`
	Subname           string             `json:"subname"`
	New               bool               `json:"new"`
	GiftPackage       bool               `json:"gift_package"`
	Price             *float64           `json:"price"`
	PrevPrice         *float64           `json:"prev_price"`
	OfflinePrice      float64            `json:"offline_price"`
	QuantityTotal     *int               `json:"quantity_total"`
	Quantity          int                `json:"quantity"`
	ImageURL          string             `json:"image_url"`
	Available         bool               `json:"available"`
	PriceDetails      []PriceDetail      `json:"price_details"`
	Category          *Category          `json:"category"`
	FilterLabels      []FilterLabel      `json:"filter_labels"`
	DescriptionBlocks []DescriptionBlock `json:"description_blocks"`
	Gastronomics      []any              `json:"gastronomics"`
	AvailabilityTitle string             `json:"availability_title"`
	Availability      *Availability      `json:"availability,omitempty"`
}

// PriceDetail is a promotional price line; Title is the marketing label
type PriceDetail struct {
	PrevPrice float64 `json:"prev_price"`
	Price     float64 `json:"price"`
	Title     string  `json:"title"`
}

// Category of a product with its optional parent
type Category struct {
	UUID   string  `json:"uuid"`
	Name   string  `json:"name"`
	Slug   string  `json:"slug"`
	Parent *Parent `json:"parent"`
}

// Parent category reference
type Parent struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// FilterLabel is a short attribute shown next to the product name (volume, strength...)
type FilterLabel struct {
	Title  string `json:"title"`
	Filter string `json:"filter"`
	Type   string `json:"type"`
	Value  string `json:"value,omitempty"`
}

// DescriptionBlock is one attribute of the product card.
// Range blocks carry Unit and Min/Max; list blocks carry Values.
type DescriptionBlock struct {
	Code   string             `json:"code"`
	Title  string             `json:"title"`
	Type   string             `json:"type"`
	Unit   string             `json:"unit"`
	Values []DescriptionValue `json:"values,omitempty"`
	Min    *float64           `json:"min,omitempty"`
	Max    *float64           `json:"max,omitempty"`
}

// DescriptionValue is a single value of a list block
type DescriptionValue struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Availability lists the stores holding the product
type Availability struct {
	Title  string  `json:"title"`
	Stores []Store `json:"stores"`
}

// Store is a shop with its local price and stock label
type Store struct {
	UUID     string  `json:"uuid"`
	Title    string  `json:"title"`
	Phone    string  `json:"phone"`
	Price    float64 `json:"price"`
	Quantity string  `json:"quantity"`
}

// BlockByCode returns the first description block with the given code.
func (d ProductDetail) BlockByCode(code string) (DescriptionBlock, bool) {
	for _, b := range d.DescriptionBlocks {
		if b.Code == code {
			return b, true
		}
	}
	return DescriptionBlock{}, false
}
