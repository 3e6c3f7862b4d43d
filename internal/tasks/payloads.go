// Package tasks 定义 API 与 worker 之间的 asynq 任务。
package tasks

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeResumePreview 在每次保存简历后入队，生成缩略图。
const TypeResumePreview = "resume:preview"

// ResumePreviewPayload 只携带简历 id，worker 自行读取最新内容。
type ResumePreviewPayload struct {
	ResumeID      uint   `json:"resume_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func NewResumePreviewTask(resumeID uint, correlationID string) (*asynq.Task, error) {
	if resumeID == 0 {
		return nil, errors.New("resume preview task: resume id is required")
	}
	payload, err := json.Marshal(ResumePreviewPayload{ResumeID: resumeID, CorrelationID: correlationID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeResumePreview, payload), nil
}

// ParseResumePreview decodes the payload of a TypeResumePreview task.
func ParseResumePreview(t *asynq.Task) (ResumePreviewPayload, error) {
	var p ResumePreviewPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	if p.ResumeID == 0 {
		return p, fmt.Errorf("decode %s payload: missing resume_id", t.Type())
	}
	return p, nil
}
