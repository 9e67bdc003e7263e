package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Image references a stored product image. URL is what the browser loads;
// Key identifies the stored object within its backend.
type Image struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Backend     string `json:"backend"`
	Key         string `json:"key,omitempty"`
}

// Product represents an item in the store catalogue.
type Product struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	Name             string          `json:"name" db:"name"`
	Category         string          `json:"category" db:"category"`
	Description      string          `json:"description" db:"description"`
	Price            decimal.Decimal `json:"price" db:"price"`
	MRP              decimal.Decimal `json:"mrp" db:"mrp"`
	OfferPercentage  decimal.Decimal `json:"offerPercentage" db:"offer_percentage"`
	Sizes            []string        `json:"size" db:"sizes"`
	MainImage        *Image          `json:"mainImage,omitempty" db:"main_image"`
	AdditionalImages []Image         `json:"additionalImages" db:"additional_images"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}

// Images returns every image attached to the product, main image first.
func (p *Product) Images() []Image {
	images := make([]Image, 0, len(p.AdditionalImages)+1)
	if p.MainImage != nil {
		images = append(images, *p.MainImage)
	}
	return append(images, p.AdditionalImages...)
}

// HasSize reports whether size is one of the product's size labels.
// A product without sizes accepts any size, including none.
func (p *Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return true
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// ImageUpload is raw image data received from a client before it is stored.
type ImageUpload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ProductInput carries the fields of a product create request.
type ProductInput struct {
	Name             string
	Category         string
	Description      string
	Price            decimal.Decimal
	MRP              decimal.Decimal
	OfferPercentage  decimal.Decimal
	Sizes            []string
	MainImage        *ImageUpload
	AdditionalImages []ImageUpload
}

// ProductPatch carries a partial product update. Nil fields are left
// unchanged; non-nil fields are applied even when they hold a zero value.
type ProductPatch struct {
	Name             *string
	Category         *string
	Description      *string
	Price            *decimal.Decimal
	MRP              *decimal.Decimal
	OfferPercentage  *decimal.Decimal
	Sizes            *[]string
	MainImage        *ImageUpload
	AdditionalImages []ImageUpload
}

// Apply copies the present fields of the patch onto p. Images are handled
// by the caller because they need to go through an image store.
func (patch *ProductPatch) Apply(p *Product) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.MRP != nil {
		p.MRP = *patch.MRP
	}
	if patch.OfferPercentage != nil {
		p.OfferPercentage = *patch.OfferPercentage
	}
	if patch.Sizes != nil {
		p.Sizes = *patch.Sizes
	}
}
