package accounts

import (
	"io"
	"time"
)

type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeWorker  UserType = "worker"
)

func (t UserType) Valid() bool {
	return t == UserTypeStudent || t == UserTypeWorker
}

type MomoProvider string

const (
	MomoMTN        MomoProvider = "mtn"
	MomoTelecel    MomoProvider = "telecel"
	MomoAirtelTigo MomoProvider = "airteltigo"
)

func (p MomoProvider) Valid() bool {
	switch p {
	case MomoMTN, MomoTelecel, MomoAirtelTigo:
		return true
	}
	return false
}

// User.PhoneNumber holds the normalized momo number; it is the number OTPs
// are sent to.
type User struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"not null;uniqueIndex"`
	PhoneNumber  string    `gorm:"not null;uniqueIndex"`
	PasswordHash string    `gorm:"not null"`
	IsVerified   bool      `gorm:"not null"`
	IsStaff      bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string { return "users" }

type Profile struct {
	UserID            string       `gorm:"type:uuid;primaryKey"`
	FullName          string       `gorm:"not null"`
	DateOfBirth       *time.Time   `gorm:"type:date"`
	UserType          UserType     `gorm:"type:varchar(16);not null"`
	GhanaPostAddress  string       `gorm:"type:varchar(16);not null"`
	ProfilePictureURL *string      `gorm:"column:profile_picture_url"`
	MomoProvider      MomoProvider `gorm:"type:varchar(16);not null"`
	MomoNumber        string       `gorm:"not null;uniqueIndex"`
	MomoName          string       `gorm:"not null"`
	CreatedAt         time.Time    `gorm:"autoCreateTime"`
	UpdatedAt         time.Time    `gorm:"autoUpdateTime"`
}

func (Profile) TableName() string { return "profiles" }

type Account struct {
	User    User
	Profile *Profile
}

type SignupInput struct {
	Email            string
	Password         string
	Password2        string
	FullName         string
	DateOfBirth      string
	UserType         UserType
	GhanaPostAddress string
	MomoProvider     MomoProvider
	MomoNumber       string
	MomoName         string
	ProfilePicture   io.Reader
}

type SignupResult struct {
	Account Account
	Phone   string
	OTPSent bool
}

type LoginInput struct {
	LoginField string
	Password   string
	RememberMe bool
}

type ResetPasswordInput struct {
	Phone     string
	Code      string
	Password  string
	Password2 string
}

// Contact is what the notification dispatcher needs to reach a user.
type Contact struct {
	UserID string
	Email  string
	Name   string
	Phone  string
}
