package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/service"
)

const maxLogoBytes = 5 << 20

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Accounts.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.deps.Accounts.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(accounts))
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	settings, err := s.deps.Settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	account, err := s.deps.Accounts.CreateUser(r.Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Balance:  req.Balance,
	}, settings)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	var req adjustBalanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	balance, err := s.deps.Ledger.Adjust(r.Context(), id, string(req.Amount), service.Direction(req.Direction))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{AccountID: id, Balance: balance})
}

func (s *Server) handleToggleSuspend(w http.ResponseWriter, r *http.Request) {
	account, err := s.deps.Accounts.ToggleSuspend(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleSendNotice(w http.ResponseWriter, r *http.Request) {
	var req noticeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	account, err := s.deps.Accounts.SendNotice(r.Context(), chi.URLParam(r, "id"), req.Notice)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleListRecharges(w http.ResponseWriter, r *http.Request) {
	status := models.RechargeStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))
	list, err := s.deps.Recharges.List(r.Context(), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (s *Server) handleApproveRecharge(w http.ResponseWriter, r *http.Request) {
	req, err := s.deps.Recharges.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleRejectRecharge(w http.ResponseWriter, r *http.Request) {
	var body rejectRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := s.deps.Recharges.Reject(r.Context(), chi.URLParam(r, "id"), body.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleSearchPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := s.deps.Studio.Search(r.Context(), strings.TrimSpace(r.URL.Query().Get("user")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(photos))
}

func (s *Server) handleAdminSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	settings, err := s.deps.Settings.Update(r.Context(), service.SettingsInput{
		Notice:         req.Notice,
		Helpline:       req.Helpline,
		GenerationCost: req.GenerationCost,
		WelcomeBonus:   req.WelcomeBonus,
		AdminPIN:       req.AdminPIN,
		PaymentMethods: req.PaymentMethods,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleReplacePaymentMethods(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	settings, err := s.deps.Settings.ReplacePaymentMethods(r.Context(), req.PaymentMethods)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	position, err := parsePosition(chi.URLParam(r, "position"))
	if err != nil {
		s.writeError(w, r, &requestError{msg: "invalid position"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxLogoBytes+1<<20)
	if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
		s.writeError(w, r, &requestError{msg: "logo must be a multipart upload under 5 MB"})
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		s.writeError(w, r, &requestError{msg: "logo file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxLogoBytes+1))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(data) > maxLogoBytes {
		s.writeError(w, r, &requestError{msg: "logo must be under 5 MB"})
		return
	}

	settings, err := s.deps.Settings.UploadLogo(r.Context(), position, data, header.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func parsePosition(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("negative position")
	}
	return n, nil
}
