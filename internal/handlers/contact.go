package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/contactbox/apiserver/internal/services"
	"github.com/contactbox/apiserver/internal/store"
	"github.com/contactbox/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	defaultLimit  = 10
	minLimit      = 10
	maxLimit      = 500
	minSearchText = 3
)

// ContactHandler provides HTTP handlers for contacts.
type ContactHandler struct {
	contactService *services.ContactService
}

// NewContactHandler constructs a handler with the provided service.
func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// ContactRouter registers contact routes on the given router.
func ContactRouter(r chi.Router, contactService *services.ContactService) {
	handler := NewContactHandler(contactService)

	r.Get("/", handler.ListContacts)
	r.Post("/", handler.CreateContact)
	r.Get("/search/{searchText}", handler.SearchContacts)
	r.Get("/birthdays/{days}", handler.Birthdays)
	r.Route("/{contactID}", func(r chi.Router) {
		r.Get("/", handler.GetContact)
		r.Put("/", handler.UpdateContact)
		r.Delete("/", handler.DeleteContact)
	})
}

func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contacts, err := h.contactService.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contacts")
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	id, err := parseContactID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contact, err := h.contactService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch contact")
		return
	}

	writeJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req ContactCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	contact, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.contactService.Create(r.Context(), contact)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create contact")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// UpdateContact applies a partial update: only fields present in the
// request body are changed.
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, err := parseContactID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var patch types.ContactPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.contactService.Update(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update contact")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteContact removes the contact. Deleting an absent contact is a
// silent no-op: DELETE stays idempotent.
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := parseContactID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.contactService.Delete(r.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to delete contact")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ContactHandler) SearchContacts(w http.ResponseWriter, r *http.Request) {
	text := chi.URLParam(r, "searchText")
	if utf8.RuneCountInString(text) < minSearchText {
		writeError(w, http.StatusBadRequest, "search text must be at least 3 characters long")
		return
	}

	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contacts, err := h.contactService.Search(r.Context(), text, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to search contacts")
		return
	}
	if len(contacts) == 0 {
		writeError(w, http.StatusNotFound, "no contacts found")
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) Birthdays(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(chi.URLParam(r, "days"))
	if err != nil || days <= 0 {
		writeError(w, http.StatusBadRequest, "days must be positive")
		return
	}

	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contacts, err := h.contactService.Birthdays(r.Context(), days, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch birthdays")
		return
	}
	if len(contacts) == 0 {
		writeError(w, http.StatusNotFound, "no contacts found")
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}

// ContactCreateRequest is the payload for creating a contact.
type ContactCreateRequest struct {
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Birthday  *types.Date `json:"birthday"`
	Note      *string     `json:"note"`
}

func (req ContactCreateRequest) validate() (types.Contact, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)

	if firstName == "" || lastName == "" || email == "" || phone == "" {
		return types.Contact{}, errors.New("missing required fields")
	}
	if req.Birthday == nil {
		return types.Contact{}, errors.New("birthday is required")
	}

	return types.Contact{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     phone,
		Birthday:  *req.Birthday,
		Note:      req.Note,
	}, nil
}

func parsePagination(r *http.Request) (limit, offset int, err error) {
	limit = defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < minLimit || limit > maxLimit {
			return 0, 0, errors.New("invalid limit")
		}
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("invalid offset")
		}
	}

	return limit, offset, nil
}

func parseContactID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "contactID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid contact id")
	}
	return id, nil
}
