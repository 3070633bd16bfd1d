package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/msomdec/storefront-api/internal/domain"
	"github.com/msomdec/storefront-api/internal/service"
)

// ProductHandler handles product catalogue HTTP requests.
type ProductHandler struct {
	products *service.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

func (req productRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid product id", domain.ErrInvalidInput)
	}
	return id, nil
}

// HandleList returns every product.
// GET /products
func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTOs(products))
}

// HandleGet returns one product.
// GET /products/{id}
func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// HandleCreate adds a product.
// POST /products
func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := readJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	p, err := h.products.Create(r.Context(), req.input())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

// HandleUpdate replaces the editable fields of a product.
// PUT /products/{id}
func (h *ProductHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req productRequest
	if err := readJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	p, err := h.products.Update(r.Context(), id, req.input())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// HandleDelete removes a product.
// DELETE /products/{id}
func (h *ProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
