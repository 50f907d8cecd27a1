package accounts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"susu-app-go/internal/auth"
	"susu-app-go/internal/domain/notification"
	"susu-app-go/pkg/logger"
)

const (
	profileFolder         = "snappx/profiles/"
	profileTransformation = "c_limit,w_500,h_500/q_auto"
)

var ghanaPostPattern = regexp.MustCompile(`^[A-Z]{2}-\d{3}-\d{4}$`)

type OTPProvider interface {
	// Send returns a provider note when the send succeeded without issuing a
	// new code, e.g. because one is already active.
	Send(ctx context.Context, phone string) (string, error)
	Verify(ctx context.Context, phone, code string) (bool, error)
}

type Uploader interface {
	Upload(ctx context.Context, file io.Reader, folder, transformation string) (string, error)
}

type TokenIssuer interface {
	IssuePair(userID, email string, staff, remember bool) (auth.TokenPair, error)
	Refresh(refreshToken string) (auth.TokenPair, error)
}

type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type Service struct {
	repo     Repository
	hasher   Hasher
	tokens   TokenIssuer
	otp      OTPProvider
	uploader Uploader
	notifier notification.Sender
	log      logger.Logger
}

func NewService(repo Repository, hasher Hasher, tokens TokenIssuer, otp OTPProvider, uploader Uploader, notifier notification.Sender, log logger.Logger) *Service {
	if notifier == nil {
		notifier = notification.Noop{}
	}
	return &Service{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		otp:      otp,
		uploader: uploader,
		notifier: notifier,
		log:      log,
	}
}

// Signup creates an unverified user with its profile and sends a phone OTP
// once the account is committed. A failed OTP send leaves the account in
// place; the caller can resend.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)
	input.MomoName = strings.TrimSpace(input.MomoName)
	input.GhanaPostAddress = strings.ToUpper(strings.TrimSpace(input.GhanaPostAddress))

	dob, err := validateSignup(input)
	if err != nil {
		return nil, err
	}
	phone, err := NormalizePhone(input.MomoNumber)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}
	exists, err = s.repo.MomoNumberExists(ctx, phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrMomoNumberTaken
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		PhoneNumber:  phone,
		PasswordHash: hash,
	}
	profile := Profile{
		UserID:            user.ID,
		FullName:          input.FullName,
		DateOfBirth:       &dob,
		UserType:          input.UserType,
		GhanaPostAddress:  input.GhanaPostAddress,
		MomoProvider:      input.MomoProvider,
		MomoNumber:        phone,
		MomoName:          input.MomoName,
	}

	err = s.repo.Transaction(ctx, func(repo Repository) error {
		if err := repo.CreateUser(ctx, &user); err != nil {
			return err
		}
		return repo.CreateProfile(ctx, &profile)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("accounts: user signed up", "user_id", user.ID)

	if input.ProfilePicture != nil && s.uploader != nil {
		if url, ok := s.attachProfilePicture(ctx, user.ID, input.ProfilePicture); ok {
			profile.ProfilePictureURL = &url
		}
	}

	result := &SignupResult{
		Account: Account{User: user, Profile: &profile},
		Phone:   phone,
	}
	if _, err := s.otp.Send(ctx, phone); err != nil {
		s.log.InternalError("accounts: signup otp send failed", err, "user_id", user.ID)
	} else {
		result.OTPSent = true
	}
	return result, nil
}

// attachProfilePicture runs after the account commits, so a failed signup
// never leaves an uploaded photo behind. Failures only cost the photo.
func (s *Service) attachProfilePicture(ctx context.Context, userID string, file io.Reader) (string, bool) {
	url, err := s.uploader.Upload(ctx, file, profileFolder, profileTransformation)
	if err != nil {
		s.log.Warn("accounts: profile picture upload failed, continuing without photo", "err", err, "user_id", userID)
		return "", false
	}
	if err := s.repo.SetProfilePicture(ctx, userID, url); err != nil {
		s.log.InternalError("accounts: attach profile picture failed", err, "user_id", userID, "url", url)
		return "", false
	}
	return url, true
}

func validateSignup(input SignupInput) (time.Time, error) {
	required := []struct {
		name  string
		value string
	}{
		{"email", input.Email},
		{"password", input.Password},
		{"password2", input.Password2},
		{"full_name", input.FullName},
		{"date_of_birth", input.DateOfBirth},
		{"user_type", string(input.UserType)},
		{"ghana_post_address", input.GhanaPostAddress},
		{"momo_provider", string(input.MomoProvider)},
		{"momo_number", input.MomoNumber},
		{"momo_name", input.MomoName},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return time.Time{}, fmt.Errorf("%w: %s is required", ErrInvalidInput, field.name)
		}
	}

	if input.Password != input.Password2 {
		return time.Time{}, ErrPasswordsDiffer
	}
	if addr, err := mail.ParseAddress(input.Email); err != nil || addr.Address != input.Email {
		return time.Time{}, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if !input.UserType.Valid() {
		return time.Time{}, fmt.Errorf("%w: user_type must be student or worker", ErrInvalidInput)
	}
	if !input.MomoProvider.Valid() {
		return time.Time{}, fmt.Errorf("%w: momo_provider must be mtn, telecel or airteltigo", ErrInvalidInput)
	}
	if !ghanaPostPattern.MatchString(input.GhanaPostAddress) {
		return time.Time{}, fmt.Errorf("%w: ghana_post_address must look like GA-123-4567", ErrInvalidInput)
	}
	dob, err := time.Parse(time.DateOnly, strings.TrimSpace(input.DateOfBirth))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date_of_birth must be YYYY-MM-DD", ErrInvalidInput)
	}
	return dob, nil
}

// NormalizePhone converts local Ghanaian numbers (0XXXXXXXXX) and bare
// international numbers to E.164.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(cleaned, "+"):
		cleaned = cleaned[1:]
	case strings.HasPrefix(cleaned, "00"):
		cleaned = cleaned[2:]
	case strings.HasPrefix(cleaned, "0") && len(cleaned) == 10:
		cleaned = "233" + cleaned[1:]
	}
	if len(cleaned) < 10 || len(cleaned) > 15 {
		return "", fmt.Errorf("%w: phone number is not valid", ErrInvalidInput)
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: phone number is not valid", ErrInvalidInput)
		}
	}
	return "+" + cleaned, nil
}

func (s *Service) SendOTP(ctx context.Context, phone string) (string, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	note, err := s.otp.Send(ctx, normalized)
	if err != nil {
		s.log.InternalError("accounts: otp send failed", err, "phone", normalized)
		return "", ErrOTPSendFailed
	}
	return note, nil
}

// VerifyPhone checks the code with the provider and marks the owning account
// verified. A verified account is greeted once.
func (s *Service) VerifyPhone(ctx context.Context, phone, code string) (*User, error) {
	normalized, err := s.checkOTP(ctx, phone, code)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByPhone(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return user, nil
	}
	if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsVerified = true

	s.log.Info("accounts: phone verified", "user_id", user.ID)
	if ok := s.notifier.Notify(ctx, notification.Message{
		UserID:   user.ID,
		Template: notification.TemplateWelcome,
		Data:     map[string]any{"email": user.Email},
	}); !ok {
		s.log.Warn("accounts: notification dropped", "user_id", user.ID, "template", notification.TemplateWelcome)
	}
	return user, nil
}

func (s *Service) checkOTP(ctx context.Context, phone, code string) (string, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	ok, err := s.otp.Verify(ctx, normalized, code)
	if err != nil {
		s.log.InternalError("accounts: otp verify failed", err, "phone", normalized)
		return "", ErrInvalidOTP
	}
	if !ok {
		return "", ErrInvalidOTP
	}
	return normalized, nil
}

type Session struct {
	User   User
	Tokens auth.TokenPair
}

// Login accepts either an email address or a momo number.
func (s *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	user, err := s.lookup(ctx, input.LoginField)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInvalidInput) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, ErrNotVerified
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email, user.IsStaff, input.RememberMe)
	if err != nil {
		return nil, err
	}
	return &Session{User: *user, Tokens: pair}, nil
}

func (s *Service) lookup(ctx context.Context, loginField string) (*User, error) {
	field := strings.ToLower(strings.TrimSpace(loginField))
	if field == "" {
		return nil, fmt.Errorf("%w: login_field is required", ErrInvalidInput)
	}
	if strings.Contains(field, "@") {
		return s.repo.GetUserByEmail(ctx, field)
	}
	phone, err := NormalizePhone(field)
	if err != nil {
		return nil, err
	}
	return s.repo.GetUserByPhone(ctx, phone)
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return auth.TokenPair{}, auth.ErrMissingToken
	}
	return s.tokens.Refresh(refreshToken)
}

// ForgotPassword sends a reset code to the account's registered number and
// returns that number.
func (s *Service) ForgotPassword(ctx context.Context, loginField string) (string, error) {
	user, err := s.lookup(ctx, loginField)
	if err != nil {
		return "", err
	}
	if _, err := s.otp.Send(ctx, user.PhoneNumber); err != nil {
		s.log.InternalError("accounts: reset otp send failed", err, "user_id", user.ID)
		return "", ErrOTPSendFailed
	}
	return user.PhoneNumber, nil
}

func (s *Service) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if input.Password != input.Password2 {
		return ErrPasswordsDiffer
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	phone, err := s.checkOTP(ctx, input.Phone, input.Code)
	if err != nil {
		return err
	}
	user, err := s.repo.GetUserByPhone(ctx, phone)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	s.log.Info("accounts: password reset", "user_id", user.ID)
	return nil
}

func (s *Service) Me(ctx context.Context, userID string) (*Account, error) {
	return loadAccount(ctx, s.repo, userID)
}

func loadAccount(ctx context.Context, repo Repository, userID string) (*Account, error) {
	user, err := repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	account := Account{User: *user}

	profile, err := repo.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	account.Profile = profile
	return &account, nil
}

// Directory resolves notification contacts straight from the repository so
// the notification dispatcher does not depend on the Service.
type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

// Contact resolves the email and display name used for notifications.
func (d *Directory) Contact(ctx context.Context, userID string) (Contact, error) {
	account, err := loadAccount(ctx, d.repo, userID)
	if err != nil {
		return Contact{}, err
	}
	contact := Contact{
		UserID: account.User.ID,
		Email:  account.User.Email,
		Name:   account.User.Email,
		Phone:  account.User.PhoneNumber,
	}
	if account.Profile != nil && account.Profile.FullName != "" {
		contact.Name = account.Profile.FullName
	}
	return contact, nil
}
