package ddb

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/letmevibethatforyou/storefrontx"
	"github.com/shopspring/decimal"
)

// Record is one catalog item of the product table.
type Record struct {
	ID        string       `dynamodbav:"pk"`               // product ID
	IndexName string       `dynamodbav:"sk"`               // search index the product is mirrored to
	Object    *ProductItem `dynamodbav:"object,omitempty"` // nil on key-only images
}

// ProductItem is the stored product body. Field names follow the
// storefront backend's JSON.
type ProductItem struct {
	Name        string        `dynamodbav:"name"`
	Description string        `dynamodbav:"desc,omitempty"`
	Brand       string        `dynamodbav:"brand,omitempty"`
	Seller      string        `dynamodbav:"seller,omitempty"`
	Category    string        `dynamodbav:"category,omitempty"`
	Price       float64       `dynamodbav:"priceMoy"`
	Rating      float64       `dynamodbav:"noteMoy"`
	Pictures    []PictureItem `dynamodbav:"picture,omitempty"`
}

// PictureItem is a stored product picture.
type PictureItem struct {
	URL   string `dynamodbav:"url"`
	Title string `dynamodbav:"title,omitempty"`
}

// NewRecord builds the table item for p.
func NewRecord(indexName string, p storefrontx.Product) Record {
	item := &ProductItem{
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		Seller:      p.Seller,
		Category:    p.Category,
		Price:       p.Price.InexactFloat64(),
		Rating:      p.Rating,
	}
	for _, pic := range p.Pictures {
		item.Pictures = append(item.Pictures, PictureItem{URL: pic.URL, Title: pic.Title})
	}
	return Record{ID: p.ID, IndexName: indexName, Object: item}
}

// Product converts the record back into a catalog product.
// It returns the zero Product when the record has no body.
func (r Record) Product() storefrontx.Product {
	if r.Object == nil {
		return storefrontx.Product{}
	}
	o := r.Object
	p := storefrontx.Product{
		ID:          r.ID,
		Name:        o.Name,
		Description: o.Description,
		Brand:       o.Brand,
		Seller:      o.Seller,
		Category:    o.Category,
		Price:       decimal.NewFromFloat(o.Price),
		Rating:      o.Rating,
	}
	for _, pic := range o.Pictures {
		p.Pictures = append(p.Pictures, storefrontx.Picture{URL: pic.URL, Title: pic.Title})
	}
	return p
}

// MarshalRecord converts a Record into a DynamoDB item.
func MarshalRecord(r Record) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(r)
}

// UnmarshalRecord converts a DynamoDB NewImage (or Keys) into a Record.
func UnmarshalRecord(image map[string]types.AttributeValue) (Record, error) {
	var record Record
	if err := attributevalue.UnmarshalMap(image, &record); err != nil {
		return Record{}, err
	}
	return record, nil
}
