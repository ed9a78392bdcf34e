package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pitwatch/internal/logger"
	"pitwatch/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL    = time.Hour
	tokenIssuer = "pitwatch"
)

// fallbackSigningKey signs tokens when jwt.signing_key is empty. Anyone who
// has read this source can mint tokens for such an instance.
const fallbackSigningKey = "pitwatch-dev-signing-key"

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrSignUpClosed    = errors.New("sign-up is closed: an account already exists")
)

// AuthService signs the single operator in and out of the control API.
type AuthService struct {
	repo       repository.Authorization
	signingKey []byte
	log        *logger.Logger
	now        func() time.Time
}

func NewAuthService(repo repository.Authorization, signingKey string, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("auth")
	if signingKey == "" {
		log.Warnw("jwt_signing_key_missing",
			"hint", "set jwt.signing_key or PITWATCH_JWT_SIGNING_KEY; tokens are signed with a public development key")
		signingKey = fallbackSigningKey
	}
	return &AuthService{repo: repo, signingKey: []byte(signingKey), log: log, now: time.Now}
}

// SignUp creates the operator account. It fails with ErrSignUpClosed once
// one exists.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("invalid password: %w", err)
	}
	id, err := s.repo.CreateOperator(ctx, username, hash)
	if errors.Is(err, repository.ErrOperatorExists) {
		return 0, ErrSignUpClosed
	}
	if err != nil {
		return 0, err
	}
	s.log.Infow("operator_created", "username", username, "id", id)
	return id, nil
}

// Claims carries the operator identity. Subject holds the username.
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// GenerateToken checks the credentials and issues a token for the operator.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.Infow("operator_sign_in_rejected", "username", username)
		return "", ErrInvalidPassword
	}

	now := s.now()
	if err := s.repo.TouchLogin(ctx, u.ID, now); err != nil {
		s.log.Warnw("operator_touch_failed", "id", u.ID, "err", err)
	}
	return s.issueToken(Operator{ID: u.ID, Username: u.Username}, now)
}

// ParseToken validates a token issued by GenerateToken and returns its operator.
func (s *AuthService) ParseToken(accessToken string) (Operator, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(accessToken, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return Operator{}, err
	}
	if !token.Valid || claims.UserID <= 0 || claims.Subject == "" {
		return Operator{}, ErrInvalidToken
	}
	return Operator{ID: claims.UserID, Username: claims.Subject}, nil
}

func (s *AuthService) issueToken(op Operator, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   op.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		UserID: op.ID,
	})
	return token.SignedString(s.signingKey)
}

func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
