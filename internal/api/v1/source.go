package v1

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is one record of the customers source.
type Customer struct {
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Postcode     string `json:"postcode"`
	LoyaltyCard  bool   `json:"loyalty_card"`
}

// Product is one record of the products source.
type Product struct {
	ProductID    string          `json:"product_id"`
	CoffeeType   string          `json:"coffee_type"`
	RoastType    string          `json:"roast_type"`
	Size         decimal.Decimal `json:"size"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	PricePer100g decimal.Decimal `json:"price_per_100g"`
	Profit       decimal.Decimal `json:"profit"`
}

// Order is one record of the orders source. It references a customer and a product.
type Order struct {
	OrderID    string    `json:"order_id"`
	OrderDate  time.Time `json:"order_date"`
	CustomerID string    `json:"customer_id"`
	ProductID  string    `json:"product_id"`
	Quantity   int64     `json:"quantity"`
}

// JoinFact builds the denormalized fact row for an order line.
// Referential integrity is the caller's job: c and p must be the records o points at.
func JoinFact(o Order, c Customer, p Product) FactRow {
	f := FactRow{
		OrderID:      o.OrderID,
		OrderDate:    o.OrderDate,
		Quantity:     o.Quantity,
		CustomerID:   c.CustomerID,
		CustomerName: c.CustomerName,
		Email:        c.Email,
		Address:      c.Address,
		City:         c.City,
		Country:      c.Country,
		Postcode:     c.Postcode,
		LoyaltyCard:  c.LoyaltyCard,
		ProductID:    p.ProductID,
		CoffeeType:   p.CoffeeType,
		RoastType:    p.RoastType,
		Size:         p.Size,
		UnitPrice:    p.UnitPrice,
		PricePer100g: p.PricePer100g,
		Profit:       p.Profit,
	}
	f.Normalize()
	return f
}
