package http

import (
	"net/http"

	"github.com/linktofunnel/storefront/internal/application"
	"github.com/linktofunnel/storefront/internal/contracts"
)

func (h *Handler) registerProduct(w http.ResponseWriter, r *http.Request) {
	var req contracts.RegisterProductRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "register_product", err)
		return
	}

	product, err := h.service.RegisterProduct(r.Context(), application.RegisterProductInput{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "register_product", err)
		return
	}

	writeSuccess(w, http.StatusCreated, contracts.RegisterProductResponse{
		ProductID:   product.ProductID,
		PaymentLink: product.PaymentLink,
		FileName:    product.FileName,
		CreatedAt:   product.CreatedAt,
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "list_products", err)
		return
	}
	writeSuccess(w, http.StatusOK, products)
}

func (h *Handler) paymentLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.LatestPaymentLink(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "payment_link", err)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.PaymentLinkResponse{PaymentLink: link})
}
