package enum

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReceiptType(t *testing.T) {
	rt, err := ParseReceiptType("batch")
	require.NoError(t, err)
	assert.Equal(t, ReceiptTypeBatch, rt)

	_, err = ParseReceiptType("monthly")
	assert.Error(t, err)
}

func TestReceiptTypeJSON(t *testing.T) {
	data, err := json.Marshal(ReceiptTypeIndividual)
	require.NoError(t, err)
	assert.Equal(t, `"individual"`, string(data))

	var rt ReceiptType
	require.NoError(t, json.Unmarshal([]byte(`"batch"`), &rt))
	assert.Equal(t, ReceiptTypeBatch, rt)

	assert.Error(t, json.Unmarshal([]byte(`"weekly"`), &rt))
}

func TestReceiptTypeScan(t *testing.T) {
	var rt ReceiptType
	require.NoError(t, rt.Scan([]byte("batch")))
	assert.Equal(t, ReceiptTypeBatch, rt)

	require.NoError(t, rt.Scan(nil))
	assert.Equal(t, ReceiptTypeIndividual, rt)

	assert.Error(t, rt.Scan(42))
}
