package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"dejair/internal/actors"
	"dejair/internal/shared/config"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrInvalidToken         = errors.New("invalid token")
)

type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	AdminLogin(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	ValidateToken(tokenString string) (*JWTClaims, error)
}

type service struct {
	repo   Repository
	config *config.Config
}

func NewService(repo Repository, cfg *config.Config) Service {
	return &service{
		repo:   repo,
		config: cfg,
	}
}

// Register creates a new client account. Admin accounts are provisioned out of
// band, never through the public API.
func (s *service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	exists, err := s.repo.ClientEmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAccountAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	client := &actors.Client{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Password:    string(hashedPassword),
	}

	if err := s.repo.CreateClient(ctx, client); err != nil {
		return nil, err
	}

	tokenPair, err := s.generateTokenPair(client.ID.String(), client.Email, string(actors.RoleClient), false)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Account: AccountResponse{
			ID:          client.ID.String(),
			Name:        client.Name,
			PhoneNumber: client.PhoneNumber,
			Email:       client.Email,
			Role:        string(actors.RoleClient),
			CreatedAt:   client.CreatedAt,
			UpdatedAt:   client.UpdatedAt,
		},
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	client, err := s.repo.GetClientByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(client.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokenPair, err := s.generateTokenPair(client.ID.String(), client.Email, string(actors.RoleClient), false)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Account: AccountResponse{
			ID:          client.ID.String(),
			Name:        client.Name,
			PhoneNumber: client.PhoneNumber,
			Email:       client.Email,
			Role:        string(actors.RoleClient),
			CreatedAt:   client.CreatedAt,
			UpdatedAt:   client.UpdatedAt,
		},
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

func (s *service) AdminLogin(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	admin, err := s.repo.GetAdminByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokenPair, err := s.generateTokenPair(admin.ID.String(), admin.Email, string(actors.RoleAdmin), admin.IsSuperadmin)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Account: AccountResponse{
			ID:          admin.ID.String(),
			Name:        admin.Name,
			PhoneNumber: admin.PhoneNumber,
			Email:       admin.Email,
			Role:        string(actors.RoleAdmin),
			CreatedAt:   admin.CreatedAt,
			UpdatedAt:   admin.UpdatedAt,
		},
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.validateToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims.Type != "refresh" {
		return nil, ErrInvalidToken
	}

	// Verify the account still exists for its role.
	switch claims.Role {
	case string(actors.RoleAdmin):
		if _, err := s.repo.GetAdminByID(ctx, claims.ActorID); err != nil {
			return nil, ErrAccountNotFound
		}
	default:
		if _, err := s.repo.GetClientByID(ctx, claims.ActorID); err != nil {
			return nil, ErrAccountNotFound
		}
	}

	return s.generateTokenPair(claims.ActorID, claims.Email, claims.Role, claims.IsSuperadmin)
}

func (s *service) ValidateToken(tokenString string) (*JWTClaims, error) {
	return s.validateToken(tokenString)
}

func (s *service) generateTokenPair(actorID, email, role string, superadmin bool) (*TokenPair, error) {
	now := time.Now()

	accessClaims := JWTClaims{
		ActorID:      actorID,
		Email:        email,
		Role:         role,
		IsSuperadmin: superadmin,
		Type:         "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWT.JWTExpiresIn)),
			Issuer:    "dejair",
			Subject:   actorID,
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(s.config.JWT.Secret))
	if err != nil {
		return nil, err
	}

	refreshClaims := JWTClaims{
		ActorID:      actorID,
		Email:        email,
		Role:         role,
		IsSuperadmin: superadmin,
		Type:         "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWT.RefreshExpiresIn)),
			Issuer:    "dejair",
			Subject:   actorID,
		},
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshTokenString, err := refreshToken.SignedString([]byte(s.config.JWT.Secret))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenString,
		ExpiresIn:    int64(s.config.JWT.JWTExpiresIn.Seconds()),
	}, nil
}

func (s *service) validateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.JWT.Secret), nil
	})

	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
