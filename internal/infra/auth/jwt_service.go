package auth

import (
	"log/slog"
	"time"

	"atrium/config"
	"atrium/internal/domain/service"
	"atrium/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NewTokenConfig builds the process-wide token configuration from the auth section.
// A refresh lifetime that does not exceed the access lifetime is logged, not corrected.
func NewTokenConfig(cfg *config.Config, logger *slog.Logger) (service.TokenConfig, error) {
	if cfg.Auth == nil || cfg.Auth.JWTSecret == "" {
		return service.TokenConfig{}, errors.New("auth.jwtSecret must be provided")
	}

	tokenCfg := service.TokenConfig{
		Secret:     []byte(cfg.Auth.JWTSecret),
		AccessTTL:  cfg.Auth.AccessTTL(),
		RefreshTTL: cfg.Auth.RefreshTTL(),
	}

	if tokenCfg.RefreshTTL <= tokenCfg.AccessTTL {
		logger.Warn("Refresh token lifetime does not exceed access token lifetime",
			slog.Duration("access_ttl", tokenCfg.AccessTTL),
			slog.Duration("refresh_ttl", tokenCfg.RefreshTTL),
		)
	}

	return tokenCfg, nil
}

// jwtService is a concrete implementation of the TokenService interface using HS256 JWTs.
type jwtService struct {
	cfg    service.TokenConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg service.TokenConfig, logger *slog.Logger) (service.TokenService, error) {
	return newJWTService(cfg, logger, time.Now)
}

func newJWTService(cfg service.TokenConfig, logger *slog.Logger, now func() time.Time) (*jwtService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret must be provided")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	return &jwtService{cfg: cfg, logger: logger, now: now}, nil
}

// IssuePair signs both tokens against a single issuance instant. Identity
// fields that ValidateAccess would reject are refused up front.
func (s *jwtService) IssuePair(userID uuid.UUID, email, role string) (*service.TokenPair, error) {
	switch {
	case userID == uuid.Nil:
		return nil, errors.Wrap(service.ErrInternal, "issue token: user id is nil")
	case email == "":
		return nil, errors.Wrap(service.ErrInternal, "issue token: email is empty")
	case role == "":
		return nil, errors.Wrap(service.ErrInternal, "issue token: role is empty")
	}

	now := s.now().Truncate(time.Second)

	access := &service.AccessClaims{
		UserID:           userID,
		Email:            email,
		Role:             role,
		Kind:             service.TokenKindAccess,
		RegisteredClaims: s.registeredClaims(userID, now, s.cfg.AccessTTL),
	}
	refresh := &service.RefreshClaims{
		UserID:           userID,
		Kind:             service.TokenKindRefresh,
		RegisteredClaims: s.registeredClaims(userID, now, s.cfg.RefreshTTL),
	}

	accessToken, err := s.sign(access)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.sign(refresh)
	if err != nil {
		return nil, err
	}

	tokensIssued.WithLabelValues(service.TokenKindAccess).Inc()
	tokensIssued.WithLabelValues(service.TokenKindRefresh).Inc()

	return &service.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    service.TokenTypeBearer,
		ExpiresIn:    int64(s.cfg.AccessTTL / time.Second),
	}, nil
}

func (s *jwtService) ValidateAccess(token string) (*service.AccessClaims, error) {
	claims := &service.AccessClaims{}
	if err := s.parse(token, claims, service.TokenKindAccess); err != nil {
		return nil, err
	}

	return claims, nil
}

func (s *jwtService) ValidateRefresh(token string) (*service.RefreshClaims, error) {
	claims := &service.RefreshClaims{}
	if err := s.parse(token, claims, service.TokenKindRefresh); err != nil {
		return nil, err
	}

	return claims, nil
}

func (s *jwtService) AccessTTL() time.Duration {
	return s.cfg.AccessTTL
}

func (s *jwtService) RefreshTTL() time.Duration {
	return s.cfg.RefreshTTL
}

func (s *jwtService) registeredClaims(userID uuid.UUID, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   userID.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *jwtService) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", errors.Wrapf(service.ErrInternal, "sign token: %v", err)
	}

	return signed, nil
}

// parse verifies signature, expiry and claim shape. The cause is only logged;
// callers always receive ErrAuthentication.
func (s *jwtService) parse(token string, claims jwt.Claims, kind string) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)

	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	})
	if err == nil {
		return nil
	}

	reason := failureReason(err)
	tokenValidationFailures.WithLabelValues(kind, reason).Inc()
	s.logger.Debug("Token rejected",
		slog.String("kind", kind),
		slog.String("reason", reason),
		slog.Any("error", err),
	)

	return errors.WithStack(service.ErrAuthentication)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, service.ErrTokenKindMismatch):
		return "kind"
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return "issued_at"
	case errors.Is(err, service.ErrClaimMissing),
		errors.Is(err, service.ErrSubjectMismatch),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "claims"
	default:
		return "invalid"
	}
}
