package tests

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.temporal.io/sdk/client"
)

type TemporalClientMock struct {
	client.Client
	mock.Mock
}

func (m *TemporalClientMock) ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error) {
	argsOut := m.Called(ctx, options, workflow, args)
	run, _ := argsOut.Get(0).(client.WorkflowRun)
	return run, argsOut.Error(1)
}

type FakeWorkflowRun struct {
	mock.Mock
	client.WorkflowRun
}

func (w *FakeWorkflowRun) GetID() string {
	return w.Called().String(0)
}

func (w *FakeWorkflowRun) GetRunID() string {
	return w.Called().String(0)
}
