// Package auth covers credential verification, session state and the
// middlewares that gate authenticated and admin-only routes.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ozanberk/blogforum/internal/apperrors"
	"github.com/ozanberk/blogforum/internal/models"
)

// dummyHash is compared against when the username does not exist, so
// lookup misses and password misses take comparable time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("blogforum-timing-pad"), bcrypt.DefaultCost)

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies plaintext against a stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Authenticate looks up the user by exact username and verifies the
// password. Both failure modes collapse into the same opaque
// ErrInvalidCredentials; the response never says which field was wrong.
func Authenticate(db *gorm.DB, username, password string) (*models.User, error) {
	var user models.User
	err := db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(user.Password, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &user, nil
}
