package request

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *d)

	d, err = ParseDate("2024-05-01T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), *d)

	d, err = ParseDate("  ")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate("01/05/2024")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestUpdateMedia_ToPatch(t *testing.T) {
	var body UpdateMedia
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Provincials","date":null}`), &body))

	patch, err := body.ToPatch()
	require.NoError(t, err)

	assert.True(t, patch.Name.Set)
	assert.Equal(t, "Provincials", patch.Name.Value)
	assert.True(t, patch.Date.Set)
	assert.True(t, patch.Date.Null)
	assert.False(t, patch.Category.Set)

	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-03-14"}`), &body))
	patch, err = body.ToPatch()
	require.NoError(t, err)
	assert.False(t, patch.Date.Null)
	assert.Equal(t, 14, patch.Date.Value.Day())

	var blank UpdateMedia
	require.NoError(t, json.Unmarshal([]byte(`{"date":""}`), &blank))
	patch, err = blank.ToPatch()
	require.NoError(t, err)
	assert.True(t, patch.Date.Null)
}
