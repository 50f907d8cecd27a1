package handler

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	accountsdomain "susu-app-go/internal/domain/accounts"
	"susu-app-go/internal/transport/httpserver/middleware"
)

const maxUploadBytes = 10 << 20

type signupRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Password2        string `json:"password2"`
	FullName         string `json:"full_name"`
	DateOfBirth      string `json:"date_of_birth"`
	UserType         string `json:"user_type"`
	GhanaPostAddress string `json:"ghana_post_address"`
	MomoProvider     string `json:"momo_provider"`
	MomoNumber       string `json:"momo_number"`
	MomoName         string `json:"momo_name"`
}

type signupResponse struct {
	User    userResponse `json:"user"`
	Phone   string       `json:"phone"`
	OTPSent bool         `json:"otp_sent"`
	Message string       `json:"message"`
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type loginRequest struct {
	LoginField string `json:"login_field"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type sessionResponse struct {
	User   userResponse   `json:"user"`
	Tokens tokensResponse `json:"tokens"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type forgotPasswordRequest struct {
	LoginField string `json:"login_field"`
}

type forgotPasswordResponse struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type resetPasswordRequest struct {
	Phone     string `json:"phone"`
	Code      string `json:"code"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	input := accountsdomain.SignupInput{}

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_form", "invalid multipart form")
			return
		}
		req = signupRequest{
			Email:            r.FormValue("email"),
			Password:         r.FormValue("password"),
			Password2:        r.FormValue("password2"),
			FullName:         r.FormValue("full_name"),
			DateOfBirth:      r.FormValue("date_of_birth"),
			UserType:         r.FormValue("user_type"),
			GhanaPostAddress: r.FormValue("ghana_post_address"),
			MomoProvider:     r.FormValue("momo_provider"),
			MomoNumber:       r.FormValue("momo_number"),
			MomoName:         r.FormValue("momo_name"),
		}
		file, _, err := r.FormFile("profile_picture")
		switch {
		case err == nil:
			defer file.Close()
			input.ProfilePicture = file
		case !errors.Is(err, http.ErrMissingFile):
			writeError(w, http.StatusBadRequest, "invalid_form", "invalid profile_picture")
			return
		}
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	input.Email = strings.TrimSpace(req.Email)
	input.Password = req.Password
	input.Password2 = req.Password2
	input.FullName = strings.TrimSpace(req.FullName)
	input.DateOfBirth = strings.TrimSpace(req.DateOfBirth)
	input.UserType = accountsdomain.UserType(strings.TrimSpace(req.UserType))
	input.GhanaPostAddress = strings.TrimSpace(req.GhanaPostAddress)
	input.MomoProvider = accountsdomain.MomoProvider(strings.TrimSpace(req.MomoProvider))
	input.MomoNumber = strings.TrimSpace(req.MomoNumber)
	input.MomoName = strings.TrimSpace(req.MomoName)

	result, err := h.Accounts.Signup(r.Context(), input)
	if err != nil {
		h.fail(w, "auth.signup: signup failed", err, "email", input.Email)
		return
	}

	message := "account created, an otp has been sent to your momo number"
	if !result.OTPSent {
		message = "account created, request a new otp to verify your momo number"
	}
	writeJSON(w, http.StatusCreated, signupResponse{
		User:    toUserResponse(result.Account.User, result.Account.Profile),
		Phone:   result.Phone,
		OTPSent: result.OTPSent,
		Message: message,
	})
}

func (h *Handlers) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Phone == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "phone is required")
		return
	}

	note, err := h.Accounts.SendOTP(r.Context(), req.Phone)
	if err != nil {
		h.fail(w, "auth.send_otp: send failed", err, "phone", req.Phone)
		return
	}
	if note == "" {
		note = "otp sent"
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: note})
}

func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)
	req.Code = strings.TrimSpace(req.Code)
	if req.Phone == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "phone and code are required")
		return
	}

	user, err := h.Accounts.VerifyPhone(r.Context(), req.Phone, req.Code)
	if err != nil {
		h.fail(w, "auth.verify_otp: verify failed", err, "phone", req.Phone)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(*user, nil))
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.LoginField = strings.TrimSpace(req.LoginField)
	if req.LoginField == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "login_field and password are required")
		return
	}

	session, err := h.Accounts.Login(r.Context(), accountsdomain.LoginInput{
		LoginField: req.LoginField,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		h.fail(w, "auth.login: login failed", err, "login_field", req.LoginField)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		User:   toUserResponse(session.User, nil),
		Tokens: toTokensResponse(session.Tokens),
	})
}

func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	pair, err := h.Accounts.RefreshToken(r.Context(), strings.TrimSpace(req.Refresh))
	if err != nil {
		h.fail(w, "auth.refresh: refresh failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toTokensResponse(pair))
}

func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.LoginField = strings.TrimSpace(req.LoginField)
	if req.LoginField == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "login_field is required")
		return
	}

	phone, err := h.Accounts.ForgotPassword(r.Context(), req.LoginField)
	if err != nil {
		h.fail(w, "auth.forgot_password: otp request failed", err, "login_field", req.LoginField)
		return
	}
	writeJSON(w, http.StatusOK, forgotPasswordResponse{Phone: phone, Message: "an otp has been sent to your momo number"})
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)
	req.Code = strings.TrimSpace(req.Code)
	if req.Phone == "" || req.Code == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "phone, code and password are required")
		return
	}

	err := h.Accounts.ResetPassword(r.Context(), accountsdomain.ResetPasswordInput{
		Phone:     req.Phone,
		Code:      req.Code,
		Password:  req.Password,
		Password2: req.Password2,
	})
	if err != nil {
		h.fail(w, "auth.reset_password: reset failed", err, "phone", req.Phone)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	account, err := h.Accounts.Me(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "auth.me: load account failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(account.User, account.Profile))
}
