package source_test

import (
	"context"
	"errors"
	"testing"

	"stocksync/core/recovery"
	"stocksync/core/storage/mocks"
	"stocksync/feature/stock/source"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQuarantineMover(t *testing.T) {
	perr := &recovery.ParseError{Input: "reports/broken.xlsx", Err: errors.New("bad header")}

	t.Run("MovesReportFile", func(t *testing.T) {
		client := &mocks.Client{}
		client.On("CopyObject", mock.Anything,
			minio.CopyDestOptions{Bucket: "stock-reports", Object: "quarantine/broken.xlsx"},
			minio.CopySrcOptions{Bucket: "stock-reports", Object: "reports/broken.xlsx"},
		).Return(minio.UploadInfo{}, nil)
		client.On("RemoveObject", mock.Anything, "stock-reports", "reports/broken.xlsx", mock.Anything).
			Return(nil)

		m := source.NewQuarantineMover(client, "stock-reports", "quarantine/", nil)
		err := m.Quarantine(context.Background(), "report", perr)

		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("CopyFailureSurfaces", func(t *testing.T) {
		client := &mocks.Client{}
		client.On("CopyObject", mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, assert.AnError)

		m := source.NewQuarantineMover(client, "stock-reports", "quarantine/", nil)
		err := m.Quarantine(context.Background(), "report", perr)

		assert.Error(t, err)
		client.AssertNotCalled(t, "RemoveObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NonReportSourceOnlyLogs", func(t *testing.T) {
		client := &mocks.Client{}

		m := source.NewQuarantineMover(client, "stock-reports", "quarantine/", nil)
		err := m.Quarantine(context.Background(), "api",
			&recovery.ParseError{Input: "http://api/v1/stock", Err: errors.New("bad json")})

		require.NoError(t, err)
		client.AssertNotCalled(t, "CopyObject", mock.Anything, mock.Anything, mock.Anything)
	})
}
