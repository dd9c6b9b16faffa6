package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"konnectia/internal/common"
	"konnectia/internal/models"
)

const (
	tokenTypeAccess     = "access"
	tokenTypeRefresh    = "refresh"
	tokenTypeActivation = "activation"
)

type Claims struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies signed bearer tokens. It keeps no state:
// tokens stay valid until they expire.
type TokenService interface {
	IssuePair(userID uuid.UUID) (models.TokenPair, error)
	ParseAccess(token string) (uuid.UUID, error)
	ParseRefresh(token string) (uuid.UUID, error)
	IssueActivation(userID uuid.UUID) (string, error)
	ParseActivation(token string) (uuid.UUID, error)
}

type TokenConfig struct {
	Secret        []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ActivationTTL time.Duration
}

type tokenService struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenService(cfg TokenConfig) TokenService {
	return &tokenService{cfg: cfg, now: time.Now}
}

func (s *tokenService) IssuePair(userID uuid.UUID) (models.TokenPair, error) {
	access, err := s.sign(userID, tokenTypeAccess, s.cfg.AccessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := s.sign(userID, tokenTypeRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *tokenService) ParseAccess(token string) (uuid.UUID, error) {
	return s.parse(token, tokenTypeAccess)
}

func (s *tokenService) ParseRefresh(token string) (uuid.UUID, error) {
	return s.parse(token, tokenTypeRefresh)
}

func (s *tokenService) IssueActivation(userID uuid.UUID) (string, error) {
	return s.sign(userID, tokenTypeActivation, s.cfg.ActivationTTL)
}

func (s *tokenService) ParseActivation(token string) (uuid.UUID, error) {
	return s.parse(token, tokenTypeActivation)
}

func (s *tokenService) sign(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		ID:   userID.String(),
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("could not sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *tokenService) parse(tokenString, tokenType string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.Type != tokenType {
		return uuid.Nil, fmt.Errorf("%w: expected %s token", common.ErrInvalidToken, tokenType)
	}

	userID, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, errors.Join(common.ErrInvalidToken, err)
	}
	return userID, nil
}
