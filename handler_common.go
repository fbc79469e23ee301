package main

import (
	"errors"
	"net/http"
	"strconv"

	"packinv/internal/response"
	"packinv/internal/stock"
)

func jsonResp(w http.ResponseWriter, data interface{}) {
	response.JSON(w, data)
}

func jsonMeta(w http.ResponseWriter, data interface{}, total, page, limit int) {
	response.JSONMeta(w, data, total, page, limit)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	response.Err(w, msg, code)
}

func decodeBody(r *http.Request, v interface{}) error {
	return response.DecodeBody(r, v)
}

// parsePagination reads page/limit query params with sane bounds.
func parsePagination(r *http.Request) (page, limit, offset int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return page, limit, (page - 1) * limit
}

// writeStockError maps engine failures onto HTTP statuses: unknown references
// are 404, business-rule rejections (missing recipe, shortfall) are 409.
func writeStockError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stock.ErrNotFound):
		jsonErr(w, err.Error(), 404)
	case errors.Is(err, stock.ErrNoRecipe):
		jsonErr(w, err.Error(), 409)
	case stock.IsInsufficientStock(err):
		jsonErr(w, err.Error(), 409)
	default:
		jsonErr(w, "Transaction failed: "+err.Error(), 500)
	}
}

// pathID parses a numeric path segment.
func pathID(seg string) (int, bool) {
	id, err := strconv.Atoi(seg)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
