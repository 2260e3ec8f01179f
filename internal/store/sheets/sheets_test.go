package sheets

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnName(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, columnName(tt.col))
		})
	}
}

func TestCellRange(t *testing.T) {
	assert.Equal(t, "'Matches'!A1", cellRange("Matches", 0, 0))
	assert.Equal(t, "'Weekly Matches'!F3", cellRange("Weekly Matches", 2, 5))
	assert.Equal(t, "'Bob''s Sheet'!B2", cellRange("Bob's Sheet", 1, 1))
	assert.Equal(t, "'Leaderboard'!2:1000000", dataRange("Leaderboard"))
}

func TestRowConversion(t *testing.T) {
	values := [][]interface{}{{"Team Name", "Rating"}, {"Alpha", float64(825)}, {}}
	assert.Equal(t, [][]string{{"Team Name", "Rating"}, {"Alpha", "825"}, {}}, toRows(values))

	assert.Equal(t, [][]interface{}{{"a", "b"}}, fromRows([][]string{{"a", "b"}}))
}

func TestDeleteRowRequestSendsZeroSheetID(t *testing.T) {
	data, err := json.Marshal(deleteRowRequest(0, 3))
	require.NoError(t, err)

	var got map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, float64(0), got["range"]["sheetId"])
	assert.Equal(t, "ROWS", got["range"]["dimension"])
	assert.Equal(t, float64(3), got["range"]["startIndex"])
	assert.Equal(t, float64(4), got["range"]["endIndex"])
}
