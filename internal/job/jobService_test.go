package job

import (
	"testing"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJobService_Defaults(t *testing.T) {
	svc := InitJobService(ServiceConfig{})

	require.NotNil(t, svc.JobChannel)
	require.NotNil(t, svc.DispatcherChannel)
	require.NotNil(t, svc.JobStore)
	assert.Equal(t, config.BufferLimit, cap(svc.JobChannel))
	assert.Equal(t, 1, cap(svc.DispatcherChannel))
}

func TestInitJobService_KeepsGivenChannels(t *testing.T) {
	jobs := make(chan jobModel.Job, 3)
	svc := InitJobService(ServiceConfig{JobChannel: jobs, BufferLimit: 50})

	assert.Equal(t, 3, cap(svc.JobChannel))
}

func TestQueueDepth(t *testing.T) {
	svc := InitJobService(ServiceConfig{BufferLimit: 5})
	assert.Equal(t, 0, svc.QueueDepth())

	svc.JobChannel <- jobModel.Job{Id: "a"}
	svc.JobChannel <- jobModel.Job{Id: "b"}
	assert.Equal(t, 2, svc.QueueDepth())
}
