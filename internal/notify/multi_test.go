package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/promoter/internal/mocks"
	"github.com/zjrosen/promoter/internal/notify"
	"github.com/zjrosen/promoter/internal/testutil"
)

func TestMulti_ContinuesAfterFailure(t *testing.T) {
	failing := mocks.NewMockNotifier(t)
	failing.EXPECT().Notify(mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	recorder := &testutil.RecordingNotifier{}

	m := notify.NewMulti(
		notify.Named{Name: "email", Notifier: failing},
		notify.Named{Name: "history", Notifier: recorder},
		notify.Named{Name: "unset"},
	)
	err := m.Notify(context.Background(), partialReport())

	require.Error(t, err)
	require.Contains(t, err.Error(), "email: smtp down")
	require.Len(t, recorder.Reports(), 1)
	require.Equal(t, 2, m.Len())
}

func TestMulti_AllSucceed(t *testing.T) {
	a, b := &testutil.RecordingNotifier{}, &testutil.RecordingNotifier{}

	err := notify.NewMulti(notify.Named{Name: "a", Notifier: a}, notify.Named{Name: "b", Notifier: b}).
		Notify(context.Background(), partialReport())

	require.NoError(t, err)
	require.Len(t, a.Reports(), 1)
	require.Len(t, b.Reports(), 1)
}

func TestMulti_Empty(t *testing.T) {
	require.NoError(t, notify.NewMulti().Notify(context.Background(), partialReport()))
}
