package handlers

import (
	"net/http"

	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/mediajenny/the-oracle/src/services"
	"github.com/mediajenny/the-oracle/src/utils"
)

const maxAuthBodyBytes = 64 << 10

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if !decodeJSONBody(w, r, maxAuthBodyBytes, &body) {
		return
	}

	user, err := h.userService.Register(r.Context(), body.Email, body.Name, body.Password)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, user, http.StatusCreated)
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSONBody(w, r, maxAuthBodyBytes, &credentials) {
		return
	}

	result, err := h.userService.Login(r.Context(), credentials.Email, credentials.Password, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *UserHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeJSONBody(w, r, maxAuthBodyBytes, &body) {
		return
	}
	if body.RefreshToken == "" {
		utils.SendJSONError(w, "Refresh token is required", http.StatusBadRequest)
		return
	}

	accessToken, err := h.userService.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, map[string]string{"access_token": accessToken}, http.StatusOK)
}

func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.Logout(r.Context(), accessTokenFromContext(r.Context())); err != nil {
		// The client drops its tokens either way.
		logger.FromContext(r.Context()).Error("Logout: failed to delete session", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, user, http.StatusOK)
}

func (h *UserHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeJSONBody(w, r, maxAuthBodyBytes, &body) {
		return
	}
	if body.CurrentPassword == "" || body.NewPassword == "" {
		utils.SendJSONError(w, "Current and new password are required", http.StatusBadRequest)
		return
	}

	err := h.userService.ChangePassword(r.Context(), userID, accessTokenFromContext(r.Context()), body.CurrentPassword, body.NewPassword)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, map[string]string{"message": "Password updated successfully"}, http.StatusOK)
}
