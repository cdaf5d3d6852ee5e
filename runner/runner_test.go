package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgate/config"
)

// MockCollaborator for testing the runner in isolation
type MockCollaborator struct {
	mock.Mock
}

func (m *MockCollaborator) Run(ctx context.Context, inst config.Instance, message string, contextData map[string]any) ([]Turn, error) {
	args := m.Called(ctx, inst, message, contextData)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Turn), args.Error(1)
}

func testInstance() config.Instance {
	return config.Instance{
		Raw:      map[string]any{"name": "Test Agent", "system_message": "You are helpful."},
		FilePath: "/agents/chat/assistant.json",
	}
}

func TestRunner_InvokeReturnsLastTurn(t *testing.T) {
	collab := &MockCollaborator{}
	collab.On("Run", mock.Anything, mock.Anything, "hi", mock.Anything).Return([]Turn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "first thought"},
		{Role: "assistant", Content: "final answer"},
	}, nil)

	r := New(collab)

	result, err := r.Invoke(context.Background(), testInstance(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "final answer", result.Response)

	collab.AssertExpectations(t)
}

func TestRunner_EmptyTurnsYieldPlaceholder(t *testing.T) {
	collab := &MockCollaborator{}
	collab.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]Turn{}, nil)

	r := New(collab)

	result, err := r.Invoke(context.Background(), testInstance(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, NoResponseText, result.Response)
}

func TestRunner_ContextIsEchoedBack(t *testing.T) {
	collab := &MockCollaborator{}
	collab.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]Turn{
		{Role: "assistant", Content: "ok"},
	}, nil)

	r := New(collab)

	contextData := map[string]any{"user_id": "123"}
	result, err := r.Invoke(context.Background(), testInstance(), "hi", contextData)
	require.NoError(t, err)
	assert.Equal(t, contextData, result.Context)
}

func TestRunner_CollaboratorErrorsAreWrapped(t *testing.T) {
	boom := errors.New("backend exploded")

	collab := &MockCollaborator{}
	collab.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)

	r := New(collab)

	_, err := r.Invoke(context.Background(), testInstance(), "hi", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvocation)
	assert.ErrorIs(t, err, boom, "the underlying error must stay reachable")
}

func TestCollaboratorFunc_Adapts(t *testing.T) {
	called := false
	f := CollaboratorFunc(func(ctx context.Context, inst config.Instance, message string, contextData map[string]any) ([]Turn, error) {
		called = true
		return []Turn{{Role: "assistant", Content: "via func"}}, nil
	})

	r := New(f)

	result, err := r.Invoke(context.Background(), testInstance(), "hi", nil)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "via func", result.Response)
}
