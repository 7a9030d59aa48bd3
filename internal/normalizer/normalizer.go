// Package normalizer maps catalog product details onto item.Product.
package normalizer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"sjsage522/alkotekaworker/internal/catalog"
	"sjsage522/alkotekaworker/internal/item"
	apperrors "sjsage522/alkotekaworker/pkg/errors"
)

const (
	provider = "normalizer"

	codeProducer = "proizvoditel"
	codeBrand    = "brend"

	saleTagFormat = "Скидка %d"
)

// Normalize builds the output item for one product detail. productURL is the
// public page of the product, which detail responses do not repeat.
//
// A detail missing any of uuid, name, price, prev_price or quantity_total
// yields a validation error and no item.
func Normalize(d catalog.ProductDetail, productURL string) (item.Product, error) {
	if err := validate(d); err != nil {
		return item.Product{}, err
	}

	price, prevPrice, qty := *d.Price, *d.PrevPrice, *d.QuantityTotal

	saleTag, err := SaleTag(price, prevPrice)
	if err != nil {
		return item.Product{}, err
	}

	p := item.New()
	p.RPC = d.UUID.String()
	p.URL = productURL
	p.Title = Title(d)
	p.MarketingTags = MarketingTags(d)
	p.Brand = Brand(d)
	p.Section = Section(d)
	p.PriceData = item.PriceData{
		Current:  price,
		Original: prevPrice,
		SaleTag:  saleTag,
	}
	p.Stock = item.Stock{
		InStock: qty > 0,
		Count:   qty,
	}
	p.Assets = item.Assets{
		MainImage: d.ImageURL,
		SetImages: []string{""},
		View360:   []string{""},
		Video:     []string{""},
	}
	p.Metadata = item.Metadata{
		Description:  Description(d),
		Subname:      d.Subname,
		VendorCode:   d.VendorCode,
		CountryCode:  d.CountryCode,
		CountryName:  d.CountryName,
		Gastronomics: d.Gastronomics,
	}
	if p.Metadata.Gastronomics == nil {
		p.Metadata.Gastronomics = []any{}
	}
	p.Variants = 1

	return p, nil
}

func validate(d catalog.ProductDetail) error {
	var missing []string
	if d.UUID == uuid.Nil {
		missing = append(missing, "uuid")
	}
	if d.Name == "" {
		missing = append(missing, "name")
	}
	if d.Price == nil {
		missing = append(missing, "price")
	}
	if d.PrevPrice == nil {
		missing = append(missing, "prev_price")
	}
	if d.QuantityTotal == nil {
		missing = append(missing, "quantity_total")
	}
	if len(missing) > 0 {
		return apperrors.NewValidation(provider, "missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}

// Title joins the product name with its filter label titles.
func Title(d catalog.ProductDetail) string {
	parts := make([]string, 0, len(d.FilterLabels)+1)
	parts = append(parts, d.Name)
	for _, l := range d.FilterLabels {
		if l.Title != "" {
			parts = append(parts, l.Title)
		}
	}
	return strings.Join(parts, ", ")
}

// MarketingTags returns the titles of the promotional price lines.
func MarketingTags(d catalog.ProductDetail) []string {
	tags := make([]string, 0, len(d.PriceDetails))
	for _, pd := range d.PriceDetails {
		if pd.Title != "" {
			tags = append(tags, pd.Title)
		}
	}
	return tags
}

// Brand prefers the producer block title and falls back to the first value
// of a brand block.
func Brand(d catalog.ProductDetail) string {
	if b, ok := d.BlockByCode(codeProducer); ok && b.Title != "" {
		return b.Title
	}
	for _, b := range d.DescriptionBlocks {
		if b.Code == codeBrand && len(b.Values) > 0 && b.Values[0].Name != "" {
			return b.Values[0].Name
		}
	}
	return ""
}

// Section is the category name followed by its parent name.
func Section(d catalog.ProductDetail) []string {
	section := []string{"", ""}
	if d.Category == nil {
		return section
	}
	section[0] = d.Category.Name
	if d.Category.Parent != nil {
		section[1] = d.Category.Parent.Name
	}
	return section
}

// SaleTag renders the discount label. The ratio is truncated to an integer
// before formatting, so any discount below 100% renders as "Скидка 0".
func SaleTag(price, prevPrice float64) (string, error) {
	if price == prevPrice {
		return "", nil
	}
	if prevPrice == 0 {
		return "", apperrors.NewValidation(provider,
			fmt.Sprintf("prev_price is zero while price is %v", price))
	}
	return fmt.Sprintf(saleTagFormat, int((prevPrice-price)/prevPrice)), nil
}

// Description renders range blocks as "{title} {min} {unit}" followed by
// list blocks as "{title}: {first value}", one per line.
func Description(d catalog.ProductDetail) string {
	var withUnit, withoutUnit []string
	for _, b := range d.DescriptionBlocks {
		if b.Unit != "" {
			fields := []string{b.Title}
			if b.Min != nil {
				fields = append(fields, strconv.FormatFloat(*b.Min, 'f', -1, 64))
			}
			fields = append(fields, b.Unit)
			withUnit = append(withUnit, strings.Join(fields, " "))
			continue
		}
		if len(b.Values) > 0 {
			withoutUnit = append(withoutUnit, b.Title+": "+b.Values[0].Name)
		}
	}
	return strings.Join(append(withUnit, withoutUnit...), "\n")
}
