package tasks

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumePreviewTask(t *testing.T) {
	task, err := NewResumePreviewTask(12, "corr-1")
	require.NoError(t, err)
	assert.Equal(t, TypeResumePreview, task.Type())

	p, err := ParseResumePreview(task)
	require.NoError(t, err)
	assert.Equal(t, ResumePreviewPayload{ResumeID: 12, CorrelationID: "corr-1"}, p)

	_, err = NewResumePreviewTask(0, "")
	assert.Error(t, err)
}

func TestParseResumePreview_Rejects(t *testing.T) {
	for _, raw := range []string{"not json", `{}`, `{"resume_id":0}`} {
		_, err := ParseResumePreview(asynq.NewTask(TypeResumePreview, []byte(raw)))
		assert.Error(t, err, raw)
	}
}
