package worker

import (
	"context"
	"encoding/json"

	"github.com/magabit/ambassador/internal/logger"
	"github.com/magabit/ambassador/internal/provider"
	"github.com/magabit/ambassador/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskConversionNotify, c.handleConversionNotify)
	mux.HandleFunc(queue.TaskTierChangeNotify, c.handleTierChangeNotify)
}

func (c *Consumer) handleConversionNotify(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_conversion_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ConversionNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_conversion_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.AmbassadorUserID == 0 || payload.EarningID == 0 {
		logger.Debugw("worker_conversion_notify_skip_invalid_payload",
			"ambassador_user_id", payload.AmbassadorUserID,
			"earning_id", payload.EarningID,
		)
		return nil
	}

	earning, err := c.EarningRepo.GetByID(payload.EarningID)
	if err != nil {
		logger.Warnw("worker_conversion_notify_fetch_earning_failed", "earning_id", payload.EarningID, "error", err)
		return err
	}
	if earning == nil {
		logger.Debugw("worker_conversion_notify_skip_earning_not_found", "earning_id", payload.EarningID)
		return nil
	}
	user, err := c.UserRepo.GetByID(earning.AmbassadorUserID)
	if err != nil {
		logger.Warnw("worker_conversion_notify_fetch_user_failed",
			"ambassador_user_id", earning.AmbassadorUserID,
			"error", err,
		)
		return err
	}
	if user == nil {
		logger.Debugw("worker_conversion_notify_skip_user_not_found", "ambassador_user_id", earning.AmbassadorUserID)
		return nil
	}

	// 通知投递渠道（邮件/站内信）由外部系统承接，这里负责展开并记录投递事件。
	logger.Infow("conversion_notification_dispatched",
		"ambassador_user_id", earning.AmbassadorUserID,
		"ambassador_email", user.Email,
		"earning_id", earning.ID,
		"order_ref", earning.OrderRef,
		"amount", earning.Amount.String(),
	)
	return nil
}

func (c *Consumer) handleTierChangeNotify(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_tier_change_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.TierChangeNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_tier_change_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.AmbassadorUserID == 0 || payload.CurrentTier == "" {
		logger.Debugw("worker_tier_change_notify_skip_invalid_payload",
			"ambassador_user_id", payload.AmbassadorUserID,
			"current_tier", payload.CurrentTier,
		)
		return nil
	}

	user, err := c.UserRepo.GetByID(payload.AmbassadorUserID)
	if err != nil {
		logger.Warnw("worker_tier_change_notify_fetch_user_failed",
			"ambassador_user_id", payload.AmbassadorUserID,
			"error", err,
		)
		return err
	}
	if user == nil {
		logger.Debugw("worker_tier_change_notify_skip_user_not_found", "ambassador_user_id", payload.AmbassadorUserID)
		return nil
	}

	logger.Infow("tier_change_notification_dispatched",
		"ambassador_user_id", payload.AmbassadorUserID,
		"ambassador_email", user.Email,
		"previous_tier", payload.PreviousTier,
		"current_tier", payload.CurrentTier,
	)
	return nil
}
