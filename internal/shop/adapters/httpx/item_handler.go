package httpx

import (
	"net/http"

	"github.com/jcmexdev/jpashop-orders/internal/shop/app"
)

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.FindItems(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]ItemDTO, len(items))
	for i, it := range items {
		out[i] = mapItemToDTO(it)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	item, err := req.toDomain()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	id, err := h.items.SaveItem(r.Context(), item)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req UpdateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	err = h.items.UpdateItem(r.Context(), id, app.UpdateItemParams{
		Name:          req.Name,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
