/*
Package seed loads demo scenarios into a catalog and ledger.

PURPOSE:
  Provides pre-built scenarios that populate an empty store with realistic
  data for demos and manual testing. A scenario is a YAML document listing
  products to add and sales to register.

HOW SCENARIOS WORK:
  1. Each product is created with Catalog.AddProduct
  2. Each sale is registered with Ledger.RegisterSale, referencing a
     product of the same scenario by name
  3. Any rejected operation stops the load and is returned

  Scenarios never write to storage directly, so they obey every rule a
  client would: stock cannot go negative, sales are snapshots.

  Loading is additive. The ledger is append-only, so there is no reset;
  start from an empty store to get a clean demo.

FORMAT:
  name: demo
  description: Short text for listings
  products:
    - name: Widget
      quantity: 10
      price: "5.00"
  sales:
    - product: Widget
      quantity: 3

SEE ALSO:
  - scenarios/: Built-in scenarios embedded in the binary
  - api/scenarios.go: HTTP endpoints
*/
package seed

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/MrDieggo/controleEstoque-app/stock"
)

//go:embed scenarios/*.yaml
var builtin embed.FS

// =============================================================================
// SCENARIO FORMAT
// =============================================================================

type Scenario struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Products    []Product `yaml:"products" json:"products"`
	Sales       []Sale    `yaml:"sales" json:"sales"`
}

type Product struct {
	Name     string `yaml:"name" json:"name"`
	Quantity int    `yaml:"quantity" json:"quantity"`
	Price    string `yaml:"price" json:"price"`
}

type Sale struct {
	Product  string `yaml:"product" json:"product"`
	Quantity int    `yaml:"quantity" json:"quantity"`
}

// Parse parses and checks a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	if err := sc.check(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadFile loads and parses a YAML scenario from the given path.
func LoadFile(filename string) (*Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", filename, err)
	}
	return Parse(data)
}

// check catches references the catalog cannot: a sale for a product name
// that the scenario never creates.
func (sc *Scenario) check() error {
	if strings.TrimSpace(sc.Name) == "" {
		return fmt.Errorf("scenario has no name")
	}
	names := make(map[string]bool, len(sc.Products))
	for _, p := range sc.Products {
		if names[p.Name] {
			return fmt.Errorf("scenario %s: duplicate product %q", sc.Name, p.Name)
		}
		names[p.Name] = true
	}
	for i, s := range sc.Sales {
		if !names[s.Product] {
			return fmt.Errorf("scenario %s: sale %d references unknown product %q", sc.Name, i+1, s.Product)
		}
	}
	return nil
}

// =============================================================================
// BUILT-IN SCENARIOS
// =============================================================================

// Builtin returns the embedded scenarios sorted by name.
func Builtin() ([]*Scenario, error) {
	entries, err := builtin.ReadDir("scenarios")
	if err != nil {
		return nil, fmt.Errorf("failed to list built-in scenarios: %w", err)
	}
	var out []*Scenario
	for _, e := range entries {
		data, err := builtin.ReadFile(path.Join("scenarios", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		sc, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Lookup finds a built-in scenario by name.
func Lookup(name string) (*Scenario, error) {
	all, err := Builtin()
	if err != nil {
		return nil, err
	}
	for _, sc := range all {
		if sc.Name == name {
			return sc, nil
		}
	}
	return nil, fmt.Errorf("unknown scenario %q", name)
}

// Resolve treats ref as a built-in name first, then as a file path.
func Resolve(ref string) (*Scenario, error) {
	if sc, err := Lookup(ref); err == nil {
		return sc, nil
	}
	if strings.HasSuffix(ref, ".yaml") || strings.HasSuffix(ref, ".yml") {
		return LoadFile(ref)
	}
	return nil, fmt.Errorf("unknown scenario %q", ref)
}

// =============================================================================
// APPLY
// =============================================================================

// Catalog is the subset of *stock.Catalog used to seed products.
type Catalog interface {
	AddProduct(ctx context.Context, name string, quantity int, price decimal.Decimal) (stock.Product, error)
}

// Ledger is the subset of *stock.Ledger used to seed sales.
type Ledger interface {
	RegisterSale(ctx context.Context, productID stock.ProductID, quantity int) (stock.SaleRecord, error)
}

// Result counts what a scenario created.
type Result struct {
	Scenario string `json:"scenario"`
	Products int    `json:"products"`
	Sales    int    `json:"sales"`
}

// Apply adds the scenario's products then registers its sales in order.
// It stops at the first rejected operation; whatever was already committed
// stays, as with any other client.
func Apply(ctx context.Context, sc *Scenario, catalog Catalog, ledger Ledger) (Result, error) {
	res := Result{Scenario: sc.Name}
	ids := make(map[string]stock.ProductID, len(sc.Products))

	for _, p := range sc.Products {
		price, err := stock.ParsePrice(p.Price)
		if err != nil {
			return res, fmt.Errorf("product %q: %w", p.Name, err)
		}
		created, err := catalog.AddProduct(ctx, p.Name, p.Quantity, price)
		if err != nil {
			return res, fmt.Errorf("product %q: %w", p.Name, err)
		}
		ids[p.Name] = created.ID
		res.Products++
	}

	for _, s := range sc.Sales {
		if _, err := ledger.RegisterSale(ctx, ids[s.Product], s.Quantity); err != nil {
			return res, fmt.Errorf("sale of %d %q: %w", s.Quantity, s.Product, err)
		}
		res.Sales++
	}
	return res, nil
}
