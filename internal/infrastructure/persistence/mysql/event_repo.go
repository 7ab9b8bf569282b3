package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/ticketflow/internal/domain/event"
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
)

// eventRepository 活动仓储实现(MySQL,只读)
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建活动仓储
func NewEventRepository(db *gorm.DB) event.Repository {
	return &eventRepository{db: db}
}

// FindByID 根据ID查找活动
func (r *eventRepository) FindByID(ctx context.Context, id uint) (*event.Event, error) {
	var model EventModel
	err := getDB(ctx, r.db).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, event.ErrEventNotFound
		}
		return nil, apperrors.Wrap(err, "查询活动失败")
	}

	return &event.Event{
		ID:                  model.ID,
		Title:               model.Title,
		Price:               model.Price,
		RecruitmentStartAt:  model.RecruitmentStartAt,
		RecruitmentFinishAt: model.RecruitmentFinishAt,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}, nil
}
