package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"smart-home-assistant/internal/application"
)

func TestMultiNotifier_DeliversToAll(t *testing.T) {
	first, second := &mockNotifier{}, &mockNotifier{}
	boom := errors.New("push service down")
	first.On("Notify", mock.Anything, "🔌 All devices turned off").Return(boom).Once()
	second.On("Notify", mock.Anything, "🔌 All devices turned off").Return(nil).Once()

	err := application.MultiNotifier{first, second}.Notify(context.Background(), "🔌 All devices turned off")

	assert.ErrorIs(t, err, boom)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestMultiNotifier_Empty(t *testing.T) {
	assert.NoError(t, application.MultiNotifier{}.Notify(context.Background(), "hello"))
}
