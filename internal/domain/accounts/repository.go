package accounts

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(repo Repository) error) error
	CreateUser(ctx context.Context, user *User) error
	CreateProfile(ctx context.Context, profile *Profile) error
	GetUser(ctx context.Context, userID string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByPhone(ctx context.Context, phone string) (*User, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	MomoNumberExists(ctx context.Context, momoNumber string) (bool, error)
	MarkVerified(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetProfilePicture(ctx context.Context, userID, url string) error
}
