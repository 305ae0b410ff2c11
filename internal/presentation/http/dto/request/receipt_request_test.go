package request

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/foodbridge-api/internal/domain/enum"
	"github.com/sangkips/foodbridge-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListReceiptsQueryToFilterParams(t *testing.T) {
	id := uuid.New()
	q := &ListReceiptsQuery{Page: 2, PerPage: 500, Type: "batch", BatchID: "b-1", OrderID: id.String()}

	params, err := q.ToFilterParams()
	require.NoError(t, err)
	assert.Equal(t, 2, params.Pagination.Page)
	assert.Equal(t, 100, params.Pagination.PerPage)
	require.NotNil(t, params.Type)
	assert.Equal(t, enum.ReceiptTypeBatch, *params.Type)
	assert.Equal(t, "b-1", params.BatchID)
	assert.Equal(t, id, *params.OrderID)
}

func TestListReceiptsQueryInvalid(t *testing.T) {
	q := &ListReceiptsQuery{Type: "weekly", OrderID: "nope"}

	_, err := q.ToFilterParams()
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Code)
	assert.Len(t, appErr.Errors, 2)
}
