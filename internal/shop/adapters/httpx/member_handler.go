package httpx

import (
	"net/http"

	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.FindMembers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	data := mapMembers(members)
	writeJSON(w, http.StatusOK, Result[MemberDTO]{Count: len(data), Data: data})
}

func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	id, err := h.members.Join(r.Context(), &domain.Member{Name: req.Name, Address: req.Address})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req UpdateMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	m, err := h.members.Update(r.Context(), id, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateMemberResponse{ID: m.ID, Name: m.Name})
}
