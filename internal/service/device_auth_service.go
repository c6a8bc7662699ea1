package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gracepoint-labs/checkin-api/internal/models"
	appErrors "github.com/gracepoint-labs/checkin-api/pkg/errors"
)

type kioskRepository interface {
	Kiosk(ctx context.Context, id string) (*models.Kiosk, error)
}

// DeviceAuthConfig defines configuration for kiosk token issuance.
type DeviceAuthConfig struct {
	TokenSecret string
	TokenExpiry time.Duration
	Issuer      string
}

// DeviceAuthService authenticates kiosk devices and issues their tokens.
type DeviceAuthService struct {
	kiosks    kioskRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    DeviceAuthConfig
}

// NewDeviceAuthService constructs a DeviceAuthService instance.
func NewDeviceAuthService(kiosks kioskRepository, validate *validator.Validate, logger *zap.Logger, config DeviceAuthConfig) *DeviceAuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DeviceAuthService{kiosks: kiosks, validator: validate, logger: logger, config: config}
}

// Login authenticates a kiosk by device id and PIN and returns a signed token.
func (s *DeviceAuthService) Login(ctx context.Context, req models.KioskLoginRequest) (*models.KioskLoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	kiosk, err := s.kiosks.Kiosk(ctx, req.DeviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid device id or pin")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch kiosk")
	}

	if !kiosk.Active {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "kiosk is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(kiosk.PINHash), []byte(req.PIN)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid device id or pin")
	}

	token, issuedAt, err := s.generateToken(kiosk)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create device token")
	}

	s.logger.Info("kiosk authenticated", zap.String("kiosk_id", kiosk.ID), zap.String("campus_id", kiosk.CampusID))

	return &models.KioskLoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.TokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		Kiosk: models.KioskInfo{
			ID:       kiosk.ID,
			Name:     kiosk.Name,
			CampusID: kiosk.CampusID,
		},
	}, nil
}

// ValidateToken parses and validates a device token returning the claims.
func (s *DeviceAuthService) ValidateToken(tokenString string) (*models.KioskClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.KioskClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.KioskClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *DeviceAuthService) generateToken(kiosk *models.Kiosk) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.TokenExpiry)
	claims := &models.KioskClaims{
		KioskID:  kiosk.ID,
		CampusID: kiosk.CampusID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   kiosk.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}
