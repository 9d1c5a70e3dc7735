package operator

import (
	"Smart-Picking/entities"
	"context"
	"errors"

	"gorm.io/gorm"
)

type (
	OperatorRepository interface {
		GetOperatorByCode(ctx context.Context, code string) (*entities.Operator, error)
		CreateOperator(ctx context.Context, op *entities.Operator) error
	}

	operatorRepository struct {
		db *gorm.DB
	}
)

func NewOperatorRepository(db *gorm.DB) OperatorRepository {
	return &operatorRepository{
		db: db,
	}
}

func (r *operatorRepository) GetOperatorByCode(ctx context.Context, code string) (*entities.Operator, error) {
	var op entities.Operator
	if err := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", code, true).
		First(&op).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, err
	}
	return &op, nil
}

func (r *operatorRepository) CreateOperator(ctx context.Context, op *entities.Operator) error {
	return r.db.WithContext(ctx).Create(op).Error
}
