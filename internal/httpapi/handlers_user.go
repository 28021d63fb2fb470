package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/service"
)

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	settings, err := s.deps.Settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.deps.Accounts.SignUp(r.Context(), service.SignUpInput{Name: req.Name, Email: req.Email, Password: req.Password}, settings)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.deps.Accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleAdminSignIn(w http.ResponseWriter, r *http.Request) {
	var req adminSignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	settings, err := s.deps.Settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.deps.Accounts.AdminSignIn(r.Context(), req.Email, req.Password, req.PIN, settings)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handlePublicSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings.Public())
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalogResponse{
		Backgrounds: models.Palette,
		Wardrobe:    models.Wardrobe,
		Sizes:       models.SizePresets,
		CustomSize:  models.SizeCustomLabel,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, accountFrom(r.Context()))
}

func (s *Server) handleNoticeRead(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Accounts.MarkNoticeRead(r.Context(), accountFrom(r.Context()).ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNewSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": s.deps.Studio.NewSession()})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	size, err := models.ParseSize(req.Size, string(req.CustomWidth), string(req.CustomHeight))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", service.ErrInvalidInput, err))
		return
	}
	settings, err := s.deps.Settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.Studio.Generate(r.Context(), accountFrom(r.Context()), service.GenerationRequest{
		SessionID:   req.SessionID,
		SourceImage: req.Image,
		Options: models.GenerationOptions{
			Gender:     models.Gender(req.Gender),
			Size:       size,
			Background: req.Background,
			Clothing:   req.Clothing,
			FaceSmooth: req.FaceSmooth,
			LightFix:   req.LightFix,
			Brightness: req.Brightness,
			Fairness:   req.Fairness,
		},
	}, settings)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleHistory lists the caller's photos for one UTC calendar day, today by default.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			s.writeError(w, r, &requestError{msg: "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}
	photos, err := s.deps.Studio.History(r.Context(), accountFrom(r.Context()).ID, day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(photos))
}

func (s *Server) handleSubmitRecharge(w http.ResponseWriter, r *http.Request) {
	var req rechargeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	settings, err := s.deps.Settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.deps.Recharges.Submit(r.Context(), accountFrom(r.Context()), service.RechargeInput{
		Amount:       req.Amount,
		Method:       req.Method,
		SenderNumber: req.SenderNumber,
		TrxID:        req.TrxID,
	}, settings)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleMyRecharges(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Recharges.ListForAccount(r.Context(), accountFrom(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

// emptyIfNil keeps list endpoints returning [] instead of null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
