package profile

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/employee"
	"github.com/frahmantamala/employee-console/internal/transport"
	"github.com/frahmantamala/employee-console/pkg/logger"
)

type ServiceAPI interface {
	Get(ctx context.Context, sess *auth.Session) (*employee.CompleteDetails, error)
	Update(ctx context.Context, sess *auth.Session, dto UpdateDTO) (*employee.CompleteDetails, string, error)
	UpdateTravel(ctx context.Context, sess *auth.Session, dto TravelDTO) (*employee.CompleteDetails, string, error)
	ChangePassword(ctx context.Context, sess *auth.Session, dto ChangePasswordDTO) (string, error)
	UpdateProfilePicture(ctx context.Context, token, userID, url string) (*employee.User, string, error)
	PassportVisa(ctx context.Context, sess *auth.Session) (*employee.PassportVisa, error)
	Experience(ctx context.Context, sess *auth.Session) ([]employee.Experience, error)
	IdleDays(ctx context.Context, sess *auth.Session) (int, error)
	RequestPasswordReset(ctx context.Context, dto PasswordResetRequestDTO) (string, error)
	VerifyResetToken(ctx context.Context, dto VerifyResetTokenDTO) (bool, error)
	ResetPassword(ctx context.Context, dto ResetPasswordDTO) (string, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

type profileResponse struct {
	User    *employee.CompleteDetails `json:"user"`
	Message string                    `json:"message,omitempty"`
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*auth.Session, bool) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		h.HandleError(w, internal.ErrSessionNotFound)
		return nil, false
	}
	return sess, true
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	details, err := h.Service.Get(r.Context(), sess)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, profileResponse{User: details})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var dto UpdateDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, err)
		return
	}

	details, message, err := h.Service.Update(r.Context(), sess, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.Logger.Info("UpdateProfile: profile updated", "user_id", sess.User.ID)
	h.WriteJSON(w, http.StatusOK, profileResponse{User: details, Message: message})
}

func (h *Handler) UpdateTravel(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var dto TravelDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, err)
		return
	}

	details, message, err := h.Service.UpdateTravel(r.Context(), sess, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, profileResponse{User: details, Message: message})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var dto ChangePasswordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, err)
		return
	}

	message, err := h.Service.ChangePassword(r.Context(), sess, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: message})
}

func (h *Handler) UpdateProfilePicture(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var dto ProfilePictureDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, err)
		return
	}

	u, message, err := h.Service.UpdateProfilePicture(r.Context(), sess.UpstreamToken, sess.User.ID, dto.ProfilePictureURL)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": u, "message": message})
}

func (h *Handler) GetPassportVisa(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	pv, err := h.Service.PassportVisa(r.Context(), sess)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"passportVisa": pv})
}

func (h *Handler) GetExperience(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	exp, err := h.Service.Experience(r.Context(), sess)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"experience": exp})
}

func (h *Handler) GetIdleDays(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	days, err := h.Service.IdleDays(r.Context(), sess)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int{"totalIdleDays": days})
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var dto PasswordResetRequestDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, err)
		return
	}

	message, err := h.Service.RequestPasswordReset(r.Context(), dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: message})
}

func (h *Handler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	var dto VerifyResetTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, err)
		return
	}

	valid, err := h.Service.VerifyResetToken(r.Context(), dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var dto ResetPasswordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, err)
		return
	}

	message, err := h.Service.ResetPassword(r.Context(), dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: message})
}
