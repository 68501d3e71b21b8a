package queue

import (
	"encoding/json"

	"github.com/magabit/ambassador/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskConversionNotify 转化成功通知任务
	TaskConversionNotify = constants.TaskConversionNotify
	// TaskTierChangeNotify 等级变更通知任务
	TaskTierChangeNotify = constants.TaskTierChangeNotify
)

// ConversionNotifyPayload 转化通知任务载荷
type ConversionNotifyPayload struct {
	AmbassadorUserID uint   `json:"ambassador_user_id"`
	EarningID        uint   `json:"earning_id"`
	OrderRef         string `json:"order_ref"`
	Amount           string `json:"amount"`
}

// TierChangeNotifyPayload 等级变更通知任务载荷
type TierChangeNotifyPayload struct {
	AmbassadorUserID uint   `json:"ambassador_user_id"`
	PreviousTier     string `json:"previous_tier"`
	CurrentTier      string `json:"current_tier"`
}

// NewConversionNotifyTask 创建转化通知任务
func NewConversionNotifyTask(payload ConversionNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConversionNotify, body), nil
}

// NewTierChangeNotifyTask 创建等级变更通知任务
func NewTierChangeNotifyTask(payload TierChangeNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTierChangeNotify, body), nil
}
