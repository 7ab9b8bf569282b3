package payment

import (
	"fmt"
	"math/rand"
	"time"
)

// GeneratePartnerOrderID 生成业务单号
// 设计原则:
// 1. 全局唯一(数据库唯一索引兜底)
// 2. 时间有序(便于分库分表)
// 3. 不可预测(防止恶意遍历)
//
// 格式:PAY + 时间戳(秒) + 6位随机数
// 示例:PAY1699248000123456
func GeneratePartnerOrderID() string {
	timestamp := time.Now().Unix()
	random := rand.Intn(1000000) // 6位随机数
	return fmt.Sprintf("PAY%d%06d", timestamp, random)
}
