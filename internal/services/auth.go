package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/apperr"
	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/repos"
	"github.com/studyforge/studyforge-backend/internal/requestdata"
	"github.com/studyforge/studyforge-backend/internal/types"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterUser(ctx context.Context, email, password, fullName string) (*types.User, string, string, error)
	LoginUser(ctx context.Context, email, password string) (*types.User, string, string, error)
	RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
	LogoutUser(ctx context.Context, refreshToken string) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, email, password, fullName string) (*types.User, string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", "", apperr.Validation("a valid email is required")
	}
	if len(password) < 8 {
		return nil, "", "", apperr.Validation("password must be at least 8 characters")
	}

	exists, eErr := as.userRepo.EmailExists(ctx, nil, email)
	if eErr != nil {
		return nil, "", "", apperr.PersistenceFailed(fmt.Errorf("error checking email: %w", eErr))
	}
	if exists {
		return nil, "", "", apperr.Validation("an account with this email already exists")
	}

	hashed, hErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if hErr != nil {
		return nil, "", "", fmt.Errorf("failed to hash password: %w", hErr)
	}

	user := &types.User{
		ID:               uuid.New(),
		Email:            email,
		Password:         string(hashed),
		FullName:         fullName,
		SubscriptionPlan: types.PlanFree,
	}

	var accessToken, refreshToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, cErr := as.userRepo.Create(ctx, tx, []*types.User{user}); cErr != nil {
			return apperr.PersistenceFailed(fmt.Errorf("failed to create user: %w", cErr))
		}
		var issueErr error
		accessToken, refreshToken, issueErr = as.issueTokens(ctx, tx, user)
		return issueErr
	}); err != nil {
		return nil, "", "", err
	}
	return user, accessToken, refreshToken, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*types.User, string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	users, uErr := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if uErr != nil {
		return nil, "", "", apperr.PersistenceFailed(fmt.Errorf("error retrieving user by email: %w", uErr))
	}
	if len(users) == 0 {
		return nil, "", "", apperr.Unauthorized("invalid email or password")
	}

	user := users[0]
	if cErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cErr != nil {
		return nil, "", "", apperr.Unauthorized("invalid email or password")
	}

	var accessToken, refreshToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var issueErr error
		accessToken, refreshToken, issueErr = as.issueTokens(ctx, tx, user)
		return issueErr
	}); err != nil {
		return nil, "", "", err
	}
	return user, accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", apperr.Unauthorized("refresh token required")
	}

	var accessToken, newRefreshToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, ftErr := as.userTokenRepo.GetByToken(ctx, tx, refreshToken)
		if ftErr != nil {
			return apperr.PersistenceFailed(fmt.Errorf("error fetching refresh token: %w", ftErr))
		}
		if existing == nil {
			return apperr.Unauthorized("refresh token not recognized")
		}
		if existing.ExpiresAt.Before(time.Now()) {
			if dErr := as.userTokenRepo.DeleteByToken(ctx, tx, refreshToken); dErr != nil {
				as.log.Warn("Failed to delete expired refresh token", "error", dErr)
			}
			return apperr.Unauthorized("refresh token expired")
		}

		users, uErr := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existing.UserID})
		if uErr != nil {
			return apperr.PersistenceFailed(fmt.Errorf("failed to load user for refresh: %w", uErr))
		}
		if len(users) == 0 {
			return apperr.Unauthorized("no user found for the given refresh token")
		}

		var issueErr error
		accessToken, newRefreshToken, issueErr = as.issueTokens(ctx, tx, users[0])
		if issueErr != nil {
			return issueErr
		}
		// Rotation: the presented refresh token is single use.
		if dErr := as.userTokenRepo.DeleteByToken(ctx, tx, refreshToken); dErr != nil {
			return apperr.PersistenceFailed(fmt.Errorf("failed to remove old refresh token: %w", dErr))
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context, refreshToken string) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return apperr.Unauthorized("no request data found in context")
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if refreshToken != "" {
			if dErr := as.userTokenRepo.DeleteByToken(ctx, tx, refreshToken); dErr != nil {
				return apperr.PersistenceFailed(fmt.Errorf("error deleting user token: %w", dErr))
			}
			return nil
		}
		if dErr := as.userTokenRepo.DeleteByUserID(ctx, tx, rd.UserID); dErr != nil {
			return apperr.PersistenceFailed(fmt.Errorf("error deleting user tokens: %w", dErr))
		}
		return nil
	})
}

func (as *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (string, string, error) {
	accessToken, genErr := as.generateAccessToken(user)
	if genErr != nil {
		return "", "", fmt.Errorf("generate access token error: %w", genErr)
	}
	refreshToken := uuid.New().String()
	userToken := &types.UserToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(as.refreshTTL),
	}
	if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{userToken}); cErr != nil {
		return "", "", apperr.PersistenceFailed(fmt.Errorf("create user token error: %w", cErr))
	}
	return accessToken, refreshToken, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apperr.Unauthorized("missing token")
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, apperr.Unauthorized("failed to parse token: %v", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, apperr.Unauthorized("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apperr.Unauthorized("invalid user id in token")
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
