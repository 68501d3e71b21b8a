package worker

import (
	"context"
	"testing"

	"github.com/magabit/ambassador/internal/queue"

	"github.com/hibiken/asynq"
)

func TestHandleConversionNotifyInvalidJSON(t *testing.T) {
	c := NewConsumer(nil)
	task := asynq.NewTask(queue.TaskConversionNotify, []byte("{not json"))
	if err := c.handleConversionNotify(context.Background(), task); err == nil {
		t.Fatalf("expected error for invalid payload json")
	}
}

func TestHandleConversionNotifySkipsEmptyPayload(t *testing.T) {
	c := NewConsumer(nil)
	task, err := queue.NewConversionNotifyTask(queue.ConversionNotifyPayload{})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	// 载荷缺少主键时直接忽略，不应触发重试
	if err := c.handleConversionNotify(context.Background(), task); err != nil {
		t.Fatalf("expected nil for empty payload, got %v", err)
	}
}

func TestHandleTierChangeNotifySkipsEmptyPayload(t *testing.T) {
	c := NewConsumer(nil)
	task, err := queue.NewTierChangeNotifyTask(queue.TierChangeNotifyPayload{})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := c.handleTierChangeNotify(context.Background(), task); err != nil {
		t.Fatalf("expected nil for empty payload, got %v", err)
	}
}

func TestHandleTierChangeNotifyInvalidJSON(t *testing.T) {
	c := NewConsumer(nil)
	task := asynq.NewTask(queue.TaskTierChangeNotify, []byte("]["))
	if err := c.handleTierChangeNotify(context.Background(), task); err == nil {
		t.Fatalf("expected error for invalid payload json")
	}
}

func TestRegisterNilMux(t *testing.T) {
	c := NewConsumer(nil)
	// 空 mux 注册应当安全返回
	c.Register(nil)
}
