package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/ticketflow/internal/domain/stock"
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
	"github.com/xiebiao/ticketflow/pkg/metrics"
)

// stockRepository 票务库存仓储实现(MySQL)
// 设计说明:库存是竞争最激烈的资源,UpdateRemaining用单条条件UPDATE
// 依靠InnoDB行锁串行化并发变更,绝不先查后改
type stockRepository struct {
	db *gorm.DB
}

// NewStockRepository 创建库存仓储
func NewStockRepository(db *gorm.DB) stock.Repository {
	return &stockRepository{db: db}
}

// FindByEventID 根据活动ID查找库存
func (r *stockRepository) FindByEventID(ctx context.Context, eventID uint) (*stock.TicketStock, error) {
	var model TicketStockModel
	err := getDB(ctx, r.db).Where("event_id = ?", eventID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrStockNotFound
		}
		return nil, apperrors.Wrap(err, "查询票务库存失败")
	}

	return &stock.TicketStock{
		ID:        model.ID,
		EventID:   model.EventID,
		Remaining: model.Remaining,
		Total:     model.Total,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}, nil
}

// UpdateRemaining 原子变更剩余库存
// UPDATE ticket_stocks SET remaining = remaining + ? WHERE event_id = ? AND remaining + ? >= 0
// RowsAffected == 0 说明库存记录不存在或变更会导致负库存
func (r *stockRepository) UpdateRemaining(ctx context.Context, eventID uint, delta int) error {
	db := getDB(ctx, r.db)
	result := db.Model(&TicketStockModel{}).
		Where("event_id = ?", eventID).
		Where("remaining + ? >= 0", delta).
		Update("remaining", gorm.Expr("remaining + ?", delta))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新票务库存失败")
	}

	if result.RowsAffected == 0 {
		// 再查一次区分"记录不存在"和"库存不足"
		var model TicketStockModel
		if err := db.Where("event_id = ?", eventID).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return stock.ErrStockNotFound
			}
			return apperrors.Wrap(err, "查询票务库存失败")
		}
		// 记录存在,说明是输掉了并发竞争
		if metrics.StockConflictsTotal != nil {
			metrics.IncCounterVec(metrics.StockConflictsTotal, map[string]string{"phase": "commit"})
		}
		return stock.ErrOutOfStock
	}

	return nil
}
