package operator

import (
	"Smart-Picking/domain"
	"Smart-Picking/entities"
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	OperatorService interface {
		// Authenticate resolves an operator code to its identity. The password is checked
		// when the operator has one or when passwords are required.
		Authenticate(ctx context.Context, code, password string) (domain.Operator, error)
		CreateOperator(ctx context.Context, req domain.CreateOperatorRequest) (domain.Operator, error)
	}

	operatorService struct {
		operatorRepository OperatorRepository
		requirePassword    bool
	}
)

func NewOperatorService(operatorRepository OperatorRepository, requirePassword bool) OperatorService {
	return &operatorService{
		operatorRepository: operatorRepository,
		requirePassword:    requirePassword,
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *operatorService) Authenticate(ctx context.Context, code, password string) (domain.Operator, error) {
	code = normalizeCode(code)
	if code == "" {
		return domain.Operator{}, domain.ErrOperatorCodeEmpty
	}

	op, err := s.operatorRepository.GetOperatorByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Operator{}, domain.ErrOperatorNotFound
		}
		return domain.Operator{}, err
	}

	if op.PasswordHash != "" || s.requirePassword {
		if password == "" {
			return domain.Operator{}, domain.ErrPasswordRequired
		}
		if op.PasswordHash == "" {
			return domain.Operator{}, domain.ErrOperatorPassword
		}
		if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
			return domain.Operator{}, domain.ErrOperatorPassword
		}
	}

	return domain.Operator{
		ID:          op.Code,
		DisplayName: op.Name,
	}, nil
}

func (s *operatorService) CreateOperator(ctx context.Context, req domain.CreateOperatorRequest) (domain.Operator, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		return domain.Operator{}, domain.ErrOperatorCodeEmpty
	}

	op := &entities.Operator{
		ID:       uuid.New(),
		Code:     code,
		Name:     strings.TrimSpace(req.Name),
		IsActive: true,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return domain.Operator{}, err
		}
		op.PasswordHash = string(hash)
	}

	if err := s.operatorRepository.CreateOperator(ctx, op); err != nil {
		return domain.Operator{}, err
	}
	return domain.Operator{ID: op.Code, DisplayName: op.Name}, nil
}
