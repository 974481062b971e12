package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"goldbook/internal/service"
)

// NewListUsersHandler returns GET /users handler. Admin accounts are excluded
// unless includeAdmins=true.
func NewListUsersHandler(directory *service.DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeAdmins, _ := strconv.ParseBool(r.URL.Query().Get("includeAdmins"))

		accounts, err := directory.ListAccounts(r.Context(), includeAdmins)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"users": accounts})
	}
}

// NewCreateUserHandler returns POST /users handler.
func NewCreateUserHandler(directory *service.DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input service.CreateAccountInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		account, err := directory.CreateAccount(r.Context(), input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, account)
	}
}

// NewDeleteUserHandler returns DELETE /users/{id} handler. History is retained.
func NewDeleteUserHandler(directory *service.DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "account id is required")
			return
		}

		if err := directory.DeleteAccount(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// NewUserTransactionsHandler returns GET /users/{id}/transactions handler.
func NewUserTransactionsHandler(directory *service.DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "account id is required")
			return
		}

		txs, err := directory.AccountTransactions(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
	}
}

type monthsPaidRequest struct {
	MonthsPaid int `json:"monthsPaid"`
}

// NewSetMonthsPaidHandler returns PUT /users/{id}/months-paid handler.
func NewSetMonthsPaidHandler(directory *service.DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "account id is required")
			return
		}

		var req monthsPaidRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if err := directory.SetMonthsPaid(r.Context(), id, req.MonthsPaid); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}
