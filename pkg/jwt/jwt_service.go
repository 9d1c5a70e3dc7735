package jwt

import (
	"Smart-Picking/domain"
	"Smart-Picking/internal/utils"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v4"
)

const TokenTTL = 12 * time.Hour

type (
	JWTService interface {
		GenerateTokenOperator(sessionID, operatorID, operatorName string) (string, error)
		ValidateTokenOperator(token string) (*jwt.Token, error)
		GetSessionByToken(token string) (OperatorClaims, error)
	}

	OperatorClaims struct {
		SessionID    string `json:"session_id"`
		OperatorID   string `json:"operator_id"`
		OperatorName string `json:"operator_name"`
		Role         string `json:"role"`
		jwt.RegisteredClaims
	}

	jwtService struct {
		secretKey string
		issuer    string
		ttl       time.Duration
	}
)

func getSecretKey() string {
	secretKey := utils.GetConfig("JWT_SECRET")
	if secretKey == "" {
		log.Warn("JWT_SECRET is empty, tokens are signed with an empty key")
	}
	return secretKey
}

func NewJWTService() JWTService {
	return NewJWTServiceWithSecret(getSecretKey())
}

func NewJWTServiceWithSecret(secret string) JWTService {
	return &jwtService{
		secretKey: secret,
		issuer:    "SMART-PICKING",
		ttl:       TokenTTL,
	}
}

func (j *jwtService) GenerateTokenOperator(sessionID, operatorID, operatorName string) (string, error) {
	claims := OperatorClaims{
		SessionID:    sessionID,
		OperatorID:   operatorID,
		OperatorName: operatorName,
		Role:         domain.RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.ttl)),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

func (j *jwtService) parseToken(t_ *jwt.Token) (any, error) {
	if _, ok := t_.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t_.Header["alg"])
	}
	return []byte(j.secretKey), nil
}

func (j *jwtService) ValidateTokenOperator(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &OperatorClaims{}, j.parseToken)
}

func (j *jwtService) GetSessionByToken(token string) (OperatorClaims, error) {
	t_Token, err := j.ValidateTokenOperator(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return OperatorClaims{}, domain.ErrTokenExpired
		}
		return OperatorClaims{}, domain.ErrTokenInvalid
	}
	if !t_Token.Valid {
		return OperatorClaims{}, domain.ErrTokenInvalid
	}

	claims, ok := t_Token.Claims.(*OperatorClaims)
	if !ok || claims.SessionID == "" {
		return OperatorClaims{}, domain.ErrTokenInvalid
	}
	return *claims, nil
}
