package models

import (
	"fmt"
	"time"
)

type Product struct {
	ID          int64     `json:"id" dynamodbav:"id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Description string    `json:"description" dynamodbav:"description"`
	Price       float64   `json:"price" dynamodbav:"price"`
	Discount    float64   `json:"discount" dynamodbav:"discount"`
	Inventory   int       `json:"inventory" dynamodbav:"inventory"`
	Status      string    `json:"status" dynamodbav:"status"`
	Category    string    `json:"category" dynamodbav:"category"`
	Type        string    `json:"type" dynamodbav:"type"`
	Tags        []string  `json:"tags,omitempty" dynamodbav:"tags,omitempty"`
	Images      []string  `json:"images,omitempty" dynamodbav:"images,omitempty"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func (p *Product) GetPK() string {
	return "PRODUCTS"
}

func (p *Product) GetSK() string {
	return ProductSK(p.ID)
}

func ProductSK(id int64) string {
	return fmt.Sprintf("PRODUCT#%012d", id)
}
