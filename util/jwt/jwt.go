package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"libraryapi/model"
)

// Issue signs an HS256 token for a user. It backs the dev token helper and tests.
func Issue(secret string, userID int64, email string, role model.Role, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  string(role),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// PrincipalFromClaims reads sub, email and role off verified claims.
func PrincipalFromClaims(mc jwt.MapClaims) (model.Principal, error) {
	var id int64
	switch v := mc["sub"].(type) {
	case float64:
		id = int64(v)
	case int64:
		id = v
	default:
		return model.Principal{}, errors.New("sub missing in claims")
	}
	if id <= 0 {
		return model.Principal{}, errors.New("invalid sub")
	}

	email, _ := mc["email"].(string)
	role, _ := mc["role"].(string)
	return model.Principal{UserID: id, Email: email, Role: model.ParseRole(role)}, nil
}
