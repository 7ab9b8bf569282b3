package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/ticketflow/internal/domain/point"
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
)

// pointRepository 积分仓储实现(MySQL)
type pointRepository struct {
	db *gorm.DB
}

// NewPointRepository 创建积分仓储
func NewPointRepository(db *gorm.DB) point.Repository {
	return &pointRepository{db: db}
}

// FindByUserID 根据用户ID查找积分账户
func (r *pointRepository) FindByUserID(ctx context.Context, userID uint) (*point.Point, error) {
	var model PointModel
	err := getDB(ctx, r.db).Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, point.ErrPointNotFound
		}
		return nil, apperrors.Wrap(err, "查询积分账户失败")
	}

	return &point.Point{
		ID:        model.ID,
		UserID:    model.UserID,
		Amount:    model.Amount,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}, nil
}

// UpdateAmount 原子变更余额
// UPDATE points SET amount = amount + ? WHERE user_id = ? AND amount + ? >= 0
// 同一用户的并发扣减由InnoDB行锁串行化,余额不足的UPDATE不命中
func (r *pointRepository) UpdateAmount(ctx context.Context, userID uint, delta int64) error {
	db := getDB(ctx, r.db)
	result := db.Model(&PointModel{}).
		Where("user_id = ?", userID).
		Where("amount + ? >= 0", delta).
		Update("amount", gorm.Expr("amount + ?", delta))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新积分余额失败")
	}

	if result.RowsAffected == 0 {
		// 区分"账户不存在"和"余额不足"
		var model PointModel
		if err := db.Where("user_id = ?", userID).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return point.ErrPointNotFound
			}
			return apperrors.Wrap(err, "查询积分账户失败")
		}
		return point.ErrInsufficientPoints
	}

	return nil
}
