package models

import "time"

type Product struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	CostPrice    float64   `json:"cost_price"`
	SellingPrice float64   `json:"selling_price"`
	Stock        int       `json:"stock"`
	Images       []string  `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateProductRequest struct {
	Name         string   `json:"name" binding:"required"`
	Category     string   `json:"category" binding:"required"`
	CostPrice    float64  `json:"cost_price" binding:"gte=0"`
	SellingPrice float64  `json:"selling_price" binding:"required,gt=0"`
	Stock        int      `json:"stock" binding:"gte=0"`
	Images       []string `json:"images"`
}

type UpdateProductRequest struct {
	Name         string   `json:"name" binding:"required"`
	Category     string   `json:"category" binding:"required"`
	CostPrice    float64  `json:"cost_price" binding:"gte=0"`
	SellingPrice float64  `json:"selling_price" binding:"required,gt=0"`
	Images       []string `json:"images"`
}

type RestockRequest struct {
	Quantity int `json:"quantity"`
}
