package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"textile-store/internal/imagestore"
	"textile-store/internal/model"
	"textile-store/internal/pricing"

	"github.com/shopspring/decimal"
)

// productRequest is a product create or update request decoded from either
// JSON or a multipart form. Nil fields were absent from the request.
type productRequest struct {
	name             *string
	category         *string
	description      *string
	price            *decimal.Decimal
	mrp              *decimal.Decimal
	offerPercentage  *decimal.Decimal
	sizes            *[]string
	mainImage        *model.ImageUpload
	additionalImages []model.ImageUpload
}

// input converts the request for product creation. A missing offer
// percentage is worked out from MRP and price.
func (p *productRequest) input() *model.ProductInput {
	input := &model.ProductInput{
		MainImage:        p.mainImage,
		AdditionalImages: p.additionalImages,
	}
	if p.name != nil {
		input.Name = *p.name
	}
	if p.category != nil {
		input.Category = *p.category
	}
	if p.description != nil {
		input.Description = *p.description
	}
	if p.price != nil {
		input.Price = *p.price
	}
	if p.mrp != nil {
		input.MRP = *p.mrp
	}
	if p.sizes != nil {
		input.Sizes = *p.sizes
	}

	switch {
	case p.offerPercentage != nil:
		input.OfferPercentage = *p.offerPercentage
	case p.price != nil && p.mrp != nil:
		input.OfferPercentage = pricing.OfferPercentage(*p.mrp, *p.price)
	}
	return input
}

func (p *productRequest) patch() *model.ProductPatch {
	return &model.ProductPatch{
		Name:             p.name,
		Category:         p.category,
		Description:      p.description,
		Price:            p.price,
		MRP:              p.mrp,
		OfferPercentage:  p.offerPercentage,
		Sizes:            p.sizes,
		MainImage:        p.mainImage,
		AdditionalImages: p.additionalImages,
	}
}

// productJSON is the JSON form of a product request. Images arrive base64
// encoded, optionally as complete data URIs.
type productJSON struct {
	Name                 *string         `json:"name"`
	Category             *string         `json:"category"`
	Description          *string         `json:"description"`
	Price                json.RawMessage `json:"price"`
	MRP                  json.RawMessage `json:"mrp"`
	OfferPercentage      json.RawMessage `json:"offerPercentage"`
	Size                 json.RawMessage `json:"size"`
	MainImageData        string          `json:"mainImageData"`
	MainImageType        string          `json:"mainImageType"`
	AdditionalImagesData json.RawMessage `json:"additionalImagesData"`
	AdditionalImagesType json.RawMessage `json:"additionalImagesType"`
}

// parseProductRequest decodes a product request from r according to its
// content type.
func parseProductRequest(r *http.Request, maxImageBytes int64) (*productRequest, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		return parseProductForm(r, maxImageBytes)
	}
	return parseProductJSON(r)
}

func parseProductJSON(r *http.Request) (*productRequest, error) {
	var body productJSON
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}

	req := &productRequest{
		name:        body.Name,
		category:    body.Category,
		description: body.Description,
	}

	amounts := []struct {
		field string
		raw   json.RawMessage
		dst   **decimal.Decimal
	}{
		{"price", body.Price, &req.price},
		{"mrp", body.MRP, &req.mrp},
		{"offerPercentage", body.OfferPercentage, &req.offerPercentage},
	}
	for _, a := range amounts {
		value, err := parseAmountJSON(a.field, a.raw)
		if err != nil {
			return nil, err
		}
		*a.dst = value
	}

	sizes, err := parseSizesJSON(body.Size)
	if err != nil {
		return nil, err
	}
	req.sizes = sizes

	if strings.TrimSpace(body.MainImageData) != "" {
		upload, err := imagestore.DecodeUpload(body.MainImageData, body.MainImageType)
		if err != nil {
			return nil, err
		}
		req.mainImage = &upload
	}

	data, err := parseStringList("additionalImagesData", body.AdditionalImagesData)
	if err != nil {
		return nil, err
	}
	types, err := parseStringList("additionalImagesType", body.AdditionalImagesType)
	if err != nil {
		return nil, err
	}
	for i, payload := range data {
		if strings.TrimSpace(payload) == "" {
			continue
		}
		declared := ""
		if i < len(types) {
			declared = types[i]
		}
		upload, err := imagestore.DecodeUpload(payload, declared)
		if err != nil {
			return nil, err
		}
		req.additionalImages = append(req.additionalImages, upload)
	}

	return req, nil
}

// parseAmountJSON accepts a JSON number or a numeric string. Null and the
// empty string count as absent.
func parseAmountJSON(field string, raw json.RawMessage) (*decimal.Decimal, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" || text == `""` {
		return nil, nil
	}
	var value decimal.Decimal
	if err := value.UnmarshalJSON(raw); err != nil {
		return nil, model.InvalidField(field, "must be a number")
	}
	return &value, nil
}

// parseSizesJSON accepts an array of labels or a string holding either a
// JSON array or comma separated labels.
func parseSizesJSON(raw json.RawMessage) (*[]string, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return nil, nil
	}

	var sizes []string
	if err := json.Unmarshal(raw, &sizes); err == nil {
		return &sizes, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, model.InvalidField("size", "must be a list of sizes")
	}
	return parseSizesText(encoded)
}

func parseSizesText(text string) (*[]string, error) {
	text = strings.TrimSpace(text)
	sizes := []string{}
	switch {
	case text == "":
	case strings.HasPrefix(text, "["):
		if err := json.Unmarshal([]byte(text), &sizes); err != nil {
			return nil, model.InvalidField("size", "must be a list of sizes")
		}
	default:
		sizes = strings.Split(text, ",")
	}
	return &sizes, nil
}

// parseStringList accepts a JSON array of strings or a single string.
func parseStringList(field string, raw json.RawMessage) ([]string, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, model.InvalidField(field, "must be a string or a list of strings")
	}
	return []string{single}, nil
}

const maxFormMemory = 32 << 20

func parseProductForm(r *http.Request, maxImageBytes int64) (*productRequest, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, model.NewDomainError(model.ErrCodeInvalidForm, "Request body is too large")
		}
		return nil, model.NewDomainError(model.ErrCodeInvalidForm, "Request body is not a valid form")
	}
	form := r.MultipartForm

	req := &productRequest{
		name:        formText(form, "name"),
		category:    formText(form, "category"),
		description: formText(form, "description"),
	}

	amounts := []struct {
		field string
		dst   **decimal.Decimal
	}{
		{"price", &req.price},
		{"mrp", &req.mrp},
		{"offerPercentage", &req.offerPercentage},
	}
	for _, a := range amounts {
		text := formText(form, a.field)
		if text == nil || strings.TrimSpace(*text) == "" {
			continue
		}
		value, err := decimal.NewFromString(strings.TrimSpace(*text))
		if err != nil {
			return nil, model.InvalidField(a.field, "must be a number")
		}
		*a.dst = &value
	}

	if values, ok := form.Value["size"]; ok {
		if len(values) == 1 {
			sizes, err := parseSizesText(values[0])
			if err != nil {
				return nil, err
			}
			req.sizes = sizes
		} else {
			sizes := append([]string{}, values...)
			req.sizes = &sizes
		}
	}

	mains, err := readFormImages(form.File["mainImage"], maxImageBytes)
	if err != nil {
		return nil, err
	}
	if len(mains) > 0 {
		req.mainImage = &mains[0]
	}

	req.additionalImages, err = readFormImages(form.File["additionalImages"], maxImageBytes)
	if err != nil {
		return nil, err
	}

	return req, nil
}

func formText(form *multipart.Form, field string) *string {
	values, ok := form.Value[field]
	if !ok || len(values) == 0 {
		return nil
	}
	value := values[0]
	return &value
}

// readFormImages reads uploaded files, skipping the empty part browsers send
// for a file input left blank. At most maxImageBytes+1 bytes are read from
// each file so oversized images are still reported as such.
func readFormImages(headers []*multipart.FileHeader, maxImageBytes int64) ([]model.ImageUpload, error) {
	var uploads []model.ImageUpload
	for _, header := range headers {
		if header.Size == 0 && header.Filename == "" {
			continue
		}

		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded file: %w", err)
		}

		upload, err := imagestore.NewUpload(data, header.Header.Get("Content-Type"), header.Filename)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}
