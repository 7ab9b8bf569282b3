package mysql

import (
	"context"

	"gorm.io/gorm"
)

// TxManager 事务管理器
// 教学要点:
// 1. 封装GORM的Transaction方法
// 2. 通过context传递事务DB(避免全局变量)
// 3. 支持嵌套事务(GORM自动使用Savepoint)
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 执行事务
// fn内所有Repository操作在同一事务中;fn返回error时ROLLBACK,nil时COMMIT
//
// 发起支付就是典型用法:券标记使用、积分扣减、支付单创建、库存扣减、
// 网关Ready全部在一个fn中,网关失败时本地变更整体回滚:
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    if err := couponRepo.MarkUsed(ctx, ucID); err != nil {
//	        return err
//	    }
//	    if err := ledger.Deduct(ctx, userID, amount, paymentID); err != nil {
//	        return err
//	    }
//	    if err := stockMgr.Decrement(ctx, eventID); err != nil {
//	        return err // 自动回滚
//	    }
//	    _, err := gateway.Ready(ctx, order)
//	    return err // nil则提交,非nil则回滚
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 将事务DB注入Context,Repository的getDB从中提取
		txCtx := context.WithValue(ctx, "tx", tx)
		return fn(txCtx)
	})
}
