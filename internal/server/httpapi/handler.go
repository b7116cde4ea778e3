package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/models"
	"github.com/dmitrijs2005/walletauth/internal/server/walletauth"
)

// AuthService is the part of walletauth.Service the handlers call.
type AuthService interface {
	IssueNonce(ctx context.Context) (string, error)
	Verify(ctx context.Context, req walletauth.VerifyRequest) (*walletauth.VerifyResult, error)
	ActiveUser(ctx context.Context, walletAddress string) (*models.User, error)
	CreateUser(ctx context.Context, data models.NewUserData) (*models.User, error)
	UpdateUser(ctx context.Context, walletAddress string, upd models.UserUpdate) (*models.User, error)
}

type Handler struct {
	svc    AuthService
	logger logging.Logger
}

func NewHandler(svc AuthService, logger logging.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type nonceResponse struct {
	Nonce string `json:"nonce"`
	Error string `json:"error,omitempty"`
}

type authFailure struct {
	Authenticated bool   `json:"authenticated"`
	Error         string `json:"error"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

type activeUserRequest struct {
	WalletAddress string `json:"wallet_address"`
}

// createUserRequest also accepts wallet_id, the field name used by older
// onboarding forms.
type createUserRequest struct {
	models.NewUserData
	WalletID string `json:"wallet_id,omitempty"`
}

type updateUserRequest struct {
	models.UserUpdate
	Address string `json:"address"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *Handler) IssueNonce(w http.ResponseWriter, r *http.Request) {
	nonce, err := h.svc.IssueNonce(r.Context())
	if err != nil {
		RespondJSON(w, r, nonceResponse{Error: "Failed to generate nonce"}, http.StatusInternalServerError)
		return
	}
	RespondJSON(w, r, nonceResponse{Nonce: nonce}, http.StatusOK)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req walletauth.VerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondJSON(w, r, authFailure{Error: "Invalid request body"}, http.StatusBadRequest)
		return
	}

	res, err := h.svc.Verify(r.Context(), req)
	switch {
	case err == nil:
		RespondJSON(w, r, res, http.StatusOK)
	case errors.Is(err, common.ErrorValidation):
		RespondJSON(w, r, authFailure{Error: "Nonce is required"}, http.StatusBadRequest)
	case errors.Is(err, common.ErrorUnauthorized):
		RespondJSON(w, r, authFailure{Error: "Authentication failed"}, http.StatusUnauthorized)
	case errors.Is(err, common.ErrorForbidden):
		RespondJSON(w, r, authFailure{Error: "Custom validation failed"}, http.StatusForbidden)
	default:
		RespondJSON(w, r, authFailure{Error: "Authentication verification failed"}, http.StatusInternalServerError)
	}
}

func (h *Handler) ActiveUser(w http.ResponseWriter, r *http.Request) {
	var req activeUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.svc.ActiveUser(r.Context(), req.WalletAddress)
	if err != nil {
		h.respondUserError(w, r, err)
		return
	}
	RespondJSON(w, r, userResponse{User: user}, http.StatusOK)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	data := req.NewUserData
	if data.WalletAddress == "" {
		data.WalletAddress = req.WalletID
	}

	user, err := h.svc.CreateUser(r.Context(), data)
	if err != nil {
		h.respondUserError(w, r, err)
		return
	}
	RespondJSON(w, r, userResponse{User: user}, http.StatusOK)
}

// UpdateUser takes the wallet from "address" and falls back to
// "wallet_address" in the body.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	address := req.Address
	if address == "" && req.WalletAddress != nil {
		address = *req.WalletAddress
	}

	user, err := h.svc.UpdateUser(r.Context(), address, req.UserUpdate)
	if err != nil {
		h.respondUserError(w, r, err)
		return
	}
	RespondJSON(w, r, userResponse{User: user}, http.StatusOK)
}

func (h *Handler) respondUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		RespondError(w, r, "User not found", http.StatusNotFound)
	case errors.Is(err, common.ErrorValidation):
		RespondError(w, r, err.Error(), http.StatusBadRequest)
	case errors.Is(err, common.ErrorAlreadyExists):
		RespondError(w, r, "User already exists", http.StatusConflict)
	default:
		logging.FromContext(r.Context(), h.logger).Error(r.Context(), "user request failed", "error", err)
		RespondError(w, r, "Internal server error", http.StatusInternalServerError)
	}
}
