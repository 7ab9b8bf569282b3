package mysql

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/ticketflow/internal/infrastructure/config"
	applogger "github.com/xiebiao/ticketflow/pkg/logger"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构（生产环境应改用版本化迁移脚本）
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	logLevel := gormlogger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = gormlogger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	applogger.L().Info("数据库连接成功", zap.String("dbname", cfg.Database.DBName))

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// AutoMigrate只创建表、添加字段,不会删除或修改现有字段
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&EventModel{},
		&TicketStockModel{},
		&CouponModel{},
		&UserCouponModel{},
		&PointModel{},
		&PointHistoryModel{},
		&PaymentModel{},
		&TicketModel{},
	)
}

// UserModel GORM用户模型
// 设计说明：
// 1. infrastructure层的数据模型,包含GORM tag;domain层实体不依赖GORM
// 2. Repository负责两者之间的转换
type UserModel struct {
	ID        uint           `gorm:"primaryKey"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Nickname  string         `gorm:"size:50;not null;comment:昵称"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// EventModel GORM活动模型
type EventModel struct {
	ID                  uint      `gorm:"primaryKey"`
	Title               string    `gorm:"size:200;not null;comment:活动名称"`
	Price               int64     `gorm:"not null;comment:票价(最小货币单位)"`
	RecruitmentStartAt  time.Time `gorm:"index;not null;comment:报名开始时间"`
	RecruitmentFinishAt time.Time `gorm:"index;not null;comment:报名结束时间"`
	CreatedAt           time.Time `gorm:"comment:创建时间"`
	UpdatedAt           time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (EventModel) TableName() string {
	return "events"
}

// TicketStockModel GORM票务库存模型
// 设计说明:每个活动一条,Remaining只通过原子条件UPDATE变更
type TicketStockModel struct {
	ID        uint      `gorm:"primaryKey"`
	EventID   uint      `gorm:"uniqueIndex;not null;comment:活动ID"`
	Remaining int       `gorm:"not null;comment:剩余库存"`
	Total     int       `gorm:"not null;comment:发售总量"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (TicketStockModel) TableName() string {
	return "ticket_stocks"
}

// CouponModel GORM优惠券模板模型
type CouponModel struct {
	ID             uint      `gorm:"primaryKey"`
	Code           string    `gorm:"uniqueIndex;size:32;not null;comment:券码"`
	DiscountAmount int64     `gorm:"not null;comment:折扣金额"`
	ExpiredAt      time.Time `gorm:"index;not null;comment:过期时间"`
	Count          int       `gorm:"default:0;comment:剩余可发放数量"`
	IsDeleted      bool      `gorm:"default:false;comment:软删除标记"`
	CreatedAt      time.Time `gorm:"comment:创建时间"`
	UpdatedAt      time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (CouponModel) TableName() string {
	return "coupons"
}

// UserCouponModel GORM用户优惠券模型
// 教学要点:
// 1. (UserID, CouponID)复合索引支撑"用户的某张券"查询
// 2. IsUsed通过条件UPDATE原子翻转,保证单次使用
type UserCouponModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index:idx_user_coupon;not null;comment:持有者用户ID"`
	CouponID  uint      `gorm:"index:idx_user_coupon;not null;comment:优惠券模板ID"`
	IsUsed    bool      `gorm:"default:false;comment:是否已使用"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (UserCouponModel) TableName() string {
	return "user_coupons"
}

// PointModel GORM积分账户模型
type PointModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"uniqueIndex;not null;comment:用户ID"`
	Amount    int64     `gorm:"not null;default:0;comment:积分余额"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (PointModel) TableName() string {
	return "points"
}

// PointHistoryModel GORM积分流水模型(追加写)
type PointHistoryModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null;comment:用户ID"`
	PaymentID uint      `gorm:"index;not null;comment:关联支付单ID"`
	Amount    int64     `gorm:"not null;comment:变更金额"`
	Type      int       `gorm:"type:tinyint;not null;comment:流水类型(1扣减2返还)"`
	CreatedAt time.Time `gorm:"index;comment:创建时间"`
}

// TableName 指定表名
func (PointHistoryModel) TableName() string {
	return "point_histories"
}

// PaymentModel GORM支付单模型
// 教学要点:
//  1. PartnerOrderID和TID都有唯一索引:前者是我方业务主键,
//     后者是网关回调的查询入口(受理前为空,用普通唯一索引需容忍空串,
//     故TID允许NULL,用指针映射)
//  2. 金额字段是创建时快照,落库后不随券模板/积分变化
type PaymentModel struct {
	ID               uint       `gorm:"primaryKey"`
	PartnerOrderID   string     `gorm:"uniqueIndex;size:32;not null;comment:业务单号"`
	TID              *string    `gorm:"column:tid;uniqueIndex;size:64;comment:网关交易号"`
	UserID           uint       `gorm:"index;not null;comment:购买用户ID"`
	EventID          uint       `gorm:"index;not null;comment:活动ID"`
	OriginalAmount   int64      `gorm:"not null;comment:原价快照"`
	DiscountedAmount int64      `gorm:"not null;comment:实付金额"`
	UserCouponID     *uint      `gorm:"comment:使用的用户优惠券ID"`
	CouponDiscount   int64      `gorm:"not null;default:0;comment:优惠券折扣快照"`
	PointAmount      int64      `gorm:"not null;default:0;comment:积分使用金额"`
	Status           int        `gorm:"index;type:tinyint;default:1;comment:支付状态(1已发起2已承认3已取消4已失败)"`
	CompensatedAt    *time.Time `gorm:"comment:对账补偿完成时间"`
	CreatedAt        time.Time  `gorm:"index;comment:创建时间"`
	UpdatedAt        time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (PaymentModel) TableName() string {
	return "payments"
}

// TicketModel GORM票模型
type TicketModel struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         uint      `gorm:"index;not null;comment:持票用户ID"`
	EventID        uint      `gorm:"index;not null;comment:活动ID"`
	PaymentID      uint      `gorm:"uniqueIndex;not null;comment:关联支付单ID"`
	OriginalAmount int64     `gorm:"not null;comment:购票时原价快照"`
	CreatedAt      time.Time `gorm:"comment:创建时间"`
}

// TableName 指定表名
func (TicketModel) TableName() string {
	return "tickets"
}
