package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockClientForTest creates a new mock ClientInterface for testing
func NewMockClientForTest(t *testing.T) *MockClientInterface {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockClientInterface(ctrl)
}
