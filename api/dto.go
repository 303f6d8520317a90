/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the stock package from the external API contract. Amounts are written as
  strings with two decimals ("15.00") so no client ever parses money as a
  float.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Products:  ProductDTO, CreateProductRequest, UpdateProductRequest
  Sales:     SaleDTO, CreateSaleRequest
  Reports:   SummaryDTO, RevenueReportDTO, ProductReportDTO, StockReportDTO
  Scenarios: ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done by the stock package, not in DTOs. DTOs are pure data
  carriers; the only parsing here is turning a price into a decimal.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrDieggo/controleEstoque-app/seed"
	"github.com/MrDieggo/controleEstoque-app/stock"
)

// =============================================================================
// PRODUCTS
// =============================================================================

// ProductDTO represents a catalog entry in API responses.
type ProductDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// CreateProductRequest is the body for POST /api/products.
type CreateProductRequest struct {
	Name     string     `json:"name"`
	Quantity int        `json:"quantity"`
	Price    PriceInput `json:"price"`
}

// UpdateProductRequest is the body for PATCH /api/products/{id}.
// Omitted fields are left unchanged.
type UpdateProductRequest struct {
	Name     *string     `json:"name,omitempty"`
	Quantity *int        `json:"quantity,omitempty"`
	Price    *PriceInput `json:"price,omitempty"`
}

// PriceInput accepts a price as a JSON string ("5.90", "5,90") or number.
type PriceInput string

func (p *PriceInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = PriceInput(n)
	return nil
}

// Decimal parses the price.
func (p PriceInput) Decimal() (decimal.Decimal, error) {
	return stock.ParsePrice(string(p))
}

// =============================================================================
// SALES
// =============================================================================

// SaleDTO represents a ledger record in API responses.
type SaleDTO struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	Total     string    `json:"total"`
	Date      time.Time `json:"date"`
}

// CreateSaleRequest is the body for POST /api/sales.
type CreateSaleRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateSaleResponse returns the record and the product's remaining stock.
type CreateSaleResponse struct {
	Sale      SaleDTO `json:"sale"`
	Remaining int     `json:"remaining"`
}

// =============================================================================
// REPORTS
// =============================================================================

// PeriodRevenueDTO is one bucket of a revenue series.
type PeriodRevenueDTO struct {
	Period  string `json:"period"`
	Revenue string `json:"revenue"`
}

// SummaryDTO is the dashboard view.
type SummaryDTO struct {
	TotalRevenue string                  `json:"total_revenue"`
	SaleCount    int                     `json:"sale_count"`
	UnitsSold    int                     `json:"units_sold"`
	TopProducts  []stock.ProductQuantity `json:"top_products"`
	TopPeriods   []PeriodRevenueDTO      `json:"top_periods"`
}

// RevenueReportDTO is revenue per period in chronological order.
type RevenueReportDTO struct {
	Period string             `json:"period"`
	Style  string             `json:"style,omitempty"`
	Locale string             `json:"locale,omitempty"`
	Total  string             `json:"total"`
	Series []PeriodRevenueDTO `json:"series"`
}

// ProductReportDTO is quantity sold per product name, best sellers first.
type ProductReportDTO struct {
	Products []stock.ProductQuantity `json:"products"`
}

// StockReportDTO lists current stock in catalog order.
type StockReportDTO struct {
	Products   []stock.StockLevel `json:"products"`
	TotalUnits int                `json:"total_units"`
	OutOfStock int                `json:"out_of_stock"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Products    int    `json:"products"`
	Sales       int    `json:"sales"`
}

// LoadScenarioRequest is the body for POST /api/scenarios/load.
type LoadScenarioRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toProductDTO(p stock.Product) ProductDTO {
	return ProductDTO{
		ID:       string(p.ID),
		Name:     p.Name,
		Quantity: p.Quantity,
		Price:    money(p.Price),
	}
}

func toProductDTOs(products []stock.Product) []ProductDTO {
	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	return dtos
}

func toSaleDTO(s stock.SaleRecord) SaleDTO {
	return SaleDTO{
		ID:        string(s.ID),
		ProductID: string(s.ProductID),
		Name:      s.Name,
		UnitPrice: money(s.UnitPrice),
		Quantity:  s.Quantity,
		Total:     money(s.Total),
		Date:      s.Date,
	}
}

func toSaleDTOs(sales []stock.SaleRecord) []SaleDTO {
	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = toSaleDTO(s)
	}
	return dtos
}

func toPeriodDTOs(series []stock.PeriodRevenue) []PeriodRevenueDTO {
	dtos := make([]PeriodRevenueDTO, len(series))
	for i, p := range series {
		dtos[i] = PeriodRevenueDTO{Period: p.Period, Revenue: money(p.Revenue)}
	}
	return dtos
}

func toScenarioDTO(sc *seed.Scenario) ScenarioDTO {
	return ScenarioDTO{
		Name:        sc.Name,
		Description: sc.Description,
		Products:    len(sc.Products),
		Sales:       len(sc.Sales),
	}
}
