// Package loader bulk-loads the customers, orders and products CSV files into the fact
// store. Every joined order goes through InsertFact, so the mart is maintained as it loads.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/beanmart/salesmart/internal/core/storage"
)

const (
	CustomersFile = "customers.csv"
	OrdersFile    = "orders.csv"
	ProductsFile  = "products.csv"
)

// ErrUnknownReference marks an order pointing at a customer or product that does not exist.
var ErrUnknownReference = errors.New("unknown reference")

// IDGenerator assigns ids to customers that arrive without one.
type IDGenerator func() string

// UUIDGenerator returns short upper-case ids derived from random UUIDs.
func UUIDGenerator() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// RowError is a rejected source row. Rejections never abort a load.
type RowError struct {
	File string
	Line int
	ID   string
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s:%d (%s): %v", e.File, e.Line, e.ID, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Result summarizes a load.
type Result struct {
	Customers int
	Products  int
	Orders    int
	Inserted  int
	Rejected  []RowError
}

// Loader joins the three sources into facts and inserts them.
type Loader struct {
	store storage.FactStore
	ids   IDGenerator
}

// New creates a loader. A nil ids uses UUIDGenerator.
func New(store storage.FactStore, ids IDGenerator) *Loader {
	if ids == nil {
		ids = UUIDGenerator
	}
	return &Loader{store: store, ids: ids}
}

// LoadDir loads customers.csv, products.csv and orders.csv from dir.
// It fails only when a file cannot be read or lacks a required column.
func (l *Loader) LoadDir(ctx context.Context, dir string) (*Result, error) {
	open := func(name string) (*os.File, error) {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		return f, nil
	}

	cf, err := open(CustomersFile)
	if err != nil {
		return nil, err
	}
	defer cf.Close()
	pf, err := open(ProductsFile)
	if err != nil {
		return nil, err
	}
	defer pf.Close()
	of, err := open(OrdersFile)
	if err != nil {
		return nil, err
	}
	defer of.Close()

	return l.Load(ctx, cf, pf, of)
}

// Load reads the three sources from readers.
func (l *Loader) Load(ctx context.Context, customers, products, orders io.Reader) (*Result, error) {
	res := &Result{}

	custs, rejected, err := ReadCustomers(customers, l.ids)
	if err != nil {
		return nil, err
	}
	res.Rejected = append(res.Rejected, rejected...)

	prods, rejected, err := ReadProducts(products)
	if err != nil {
		return nil, err
	}
	res.Rejected = append(res.Rejected, rejected...)

	ords, orderLines, rejected, err := readOrders(orders)
	if err != nil {
		return nil, err
	}
	res.Rejected = append(res.Rejected, rejected...)

	byCustomer := make(map[string]v1.Customer, len(custs))
	for _, c := range custs {
		byCustomer[c.CustomerID] = c
	}
	byProduct := make(map[string]v1.Product, len(prods))
	for _, p := range prods {
		byProduct[p.ProductID] = p
	}
	res.Customers = len(byCustomer)
	res.Products = len(byProduct)
	res.Orders = len(ords)

	for i, o := range ords {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		reject := func(err error) {
			res.Rejected = append(res.Rejected, RowError{File: OrdersFile, Line: orderLines[i], ID: o.OrderID, Err: err})
		}

		c, ok := byCustomer[o.CustomerID]
		if !ok {
			reject(fmt.Errorf("%w: customer %q", ErrUnknownReference, o.CustomerID))
			continue
		}
		p, ok := byProduct[o.ProductID]
		if !ok {
			reject(fmt.Errorf("%w: product %q", ErrUnknownReference, o.ProductID))
			continue
		}

		fact := v1.JoinFact(o, c, p)
		if err := l.store.InsertFact(ctx, &fact); err != nil {
			if errors.Is(err, storage.ErrDuplicate) || errors.Is(err, storage.ErrInvalidFact) {
				reject(err)
				continue
			}
			return res, fmt.Errorf("insert fact %s: %w", o.OrderID, err)
		}
		res.Inserted++
	}

	slog.Info("[Loader] Load complete",
		"customers", res.Customers,
		"products", res.Products,
		"orders", res.Orders,
		"inserted", res.Inserted,
		"rejected", len(res.Rejected))
	for _, r := range res.Rejected {
		slog.Warn("[Loader] Rejected row", "file", r.File, "line", r.Line, "id", r.ID, "error", r.Err)
	}
	return res, nil
}

// ReadCustomers parses the customers source. Rows without a customer id get one from ids;
// a repeated id keeps the first row.
func ReadCustomers(r io.Reader, ids IDGenerator) ([]v1.Customer, []RowError, error) {
	t, err := readTable(CustomersFile, r, "customer_id", "country")
	if err != nil {
		return nil, nil, err
	}

	var out []v1.Customer
	var rejected []RowError
	seen := make(map[string]bool, len(t.rows))
	for i, rec := range t.rows {
		c := v1.Customer{
			CustomerID:   t.get(rec, "customer_id"),
			CustomerName: t.get(rec, "customer_name"),
			Email:        t.get(rec, "email"),
			Phone:        t.get(rec, "phone"),
			Address:      t.get(rec, "address"),
			City:         t.get(rec, "city"),
			Country:      t.get(rec, "country"),
			Postcode:     t.get(rec, "postcode"),
			LoyaltyCard:  v1.ParseLoyalty(t.get(rec, "loyalty_card")),
		}
		if c.CustomerID == "" {
			c.CustomerID = ids()
		}
		if seen[c.CustomerID] {
			rejected = append(rejected, RowError{File: CustomersFile, Line: t.lines[i], ID: c.CustomerID, Err: errors.New("duplicate customer_id")})
			continue
		}
		seen[c.CustomerID] = true
		out = append(out, c)
	}
	return out, rejected, nil
}

// ReadProducts parses the products source. A repeated id keeps the first row.
func ReadProducts(r io.Reader) ([]v1.Product, []RowError, error) {
	t, err := readTable(ProductsFile, r, "product_id", "coffee_type", "unit_price")
	if err != nil {
		return nil, nil, err
	}

	var out []v1.Product
	var rejected []RowError
	seen := make(map[string]bool, len(t.rows))
	for i, rec := range t.rows {
		id := t.get(rec, "product_id")
		p, err := parseProduct(t, rec)
		if err == nil && seen[id] {
			err = errors.New("duplicate product_id")
		}
		if err != nil {
			rejected = append(rejected, RowError{File: ProductsFile, Line: t.lines[i], ID: id, Err: err})
			continue
		}
		seen[id] = true
		out = append(out, p)
	}
	return out, rejected, nil
}

func parseProduct(t *table, rec []string) (v1.Product, error) {
	p := v1.Product{
		ProductID:  t.get(rec, "product_id"),
		CoffeeType: t.get(rec, "coffee_type"),
		RoastType:  t.get(rec, "roast_type"),
	}
	if p.ProductID == "" {
		return p, errors.New("product_id is required")
	}

	var err error
	if p.Size, err = parseDecimal("size", t.get(rec, "size")); err != nil {
		return p, err
	}
	if p.UnitPrice, err = parseDecimal("unit_price", t.get(rec, "unit_price")); err != nil {
		return p, err
	}
	if p.PricePer100g, err = parseDecimal("price_per_100g", t.get(rec, "price_per_100g")); err != nil {
		return p, err
	}
	if p.Profit, err = parseDecimal("profit", t.get(rec, "profit")); err != nil {
		return p, err
	}
	if p.UnitPrice.IsNegative() {
		return p, fmt.Errorf("unit_price must be >= 0, got %s", p.UnitPrice)
	}
	return p, nil
}

// ReadOrders parses the orders source.
func ReadOrders(r io.Reader) ([]v1.Order, []RowError, error) {
	orders, _, rejected, err := readOrders(r)
	return orders, rejected, err
}

func readOrders(r io.Reader) ([]v1.Order, []int, []RowError, error) {
	t, err := readTable(OrdersFile, r, "order_id", "order_date", "customer_id", "product_id", "quantity")
	if err != nil {
		return nil, nil, nil, err
	}

	var out []v1.Order
	var lines []int
	var rejected []RowError
	for i, rec := range t.rows {
		o := v1.Order{
			OrderID:    t.get(rec, "order_id"),
			CustomerID: t.get(rec, "customer_id"),
			ProductID:  t.get(rec, "product_id"),
		}
		reject := func(err error) {
			rejected = append(rejected, RowError{File: OrdersFile, Line: t.lines[i], ID: o.OrderID, Err: err})
		}

		if o.OrderID == "" {
			reject(errors.New("order_id is required"))
			continue
		}
		if o.OrderDate, err = parseOrderDate(t.get(rec, "order_date")); err != nil {
			reject(err)
			continue
		}
		if o.Quantity, err = parseQuantity(t.get(rec, "quantity")); err != nil {
			reject(err)
			continue
		}
		out = append(out, o)
		lines = append(lines, t.lines[i])
	}
	return out, lines, rejected, nil
}
