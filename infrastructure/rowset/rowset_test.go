package rowset_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garmentflow/infrastructure/rowset"
	"garmentflow/infrastructure/testutil"
)

func TestKeyOf_JoinsPONoAndDesignNo(t *testing.T) {
	row := rowset.WorkItem{PONo: "12", DesignNo: "D-7"}
	assert.Equal(t, "12|D-7", rowset.KeyOf(row))
	assert.Equal(t, "12|D-7", row.Key())
}

func TestKeyOf_SeparatorInDataCollides(t *testing.T) {
	a := rowset.WorkItem{PONo: "1|A", DesignNo: "B"}
	b := rowset.WorkItem{PONo: "1", DesignNo: "A|B"}
	assert.Equal(t, rowset.KeyOf(a), rowset.KeyOf(b))
}

func TestWorkItem_DecodesLooselyTypedFields(t *testing.T) {
	var row rowset.WorkItem
	err := json.Unmarshal([]byte(`{
		"poNo": 4,
		"designNo": "D-1",
		"piece": "10",
		"mtr": 60,
		"takka": null,
		"sentToBleach": true,
		"pdfDownloaded": "true",
		"remark": "rush"
	}`), &row)
	require.NoError(t, err)

	assert.Equal(t, rowset.Text("4"), row.PONo)
	assert.Equal(t, int64(10), row.Pieces())
	assert.Equal(t, int64(60), row.Mtr.Int())
	assert.Equal(t, rowset.Text(""), row.Takka)
	assert.True(t, row.IsSentTo("Bleach"))
	assert.True(t, row.PDFDownloaded)
	assert.Contains(t, row.Extra, "remark")
}

func TestWorkItem_EncodeKeepsUnknownFieldsAndFlags(t *testing.T) {
	row := rowset.WorkItem{
		PONo:     "4",
		DesignNo: "D-1",
		Piece:    "10",
		Extra:    map[string]json.RawMessage{"remark": json.RawMessage(`"rush"`)},
	}
	row.MarkSentTo("Bleach")

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"poNo":"4","designNo":"D-1","piece":"10","remark":"rush","sentToBleach":true}`, string(data))
}

func TestWorkItem_PiecesFallbackPrecedence(t *testing.T) {
	assert.Equal(t, int64(5), rowset.WorkItem{Piece: "5", Qty: "8", Quantity: "9"}.Pieces())
	assert.Equal(t, int64(8), rowset.WorkItem{Qty: "8", Quantity: "9"}.Pieces())
	assert.Equal(t, int64(9), rowset.WorkItem{Quantity: "9"}.Pieces())
	assert.Equal(t, int64(0), rowset.WorkItem{}.Pieces())
	assert.Equal(t, int64(0), rowset.WorkItem{Piece: "abc"}.Pieces())

	assert.Equal(t, rowset.Text("8"), rowset.WorkItem{Piece: " ", Qty: "8"}.PieceText())
	assert.Equal(t, rowset.Text(""), rowset.WorkItem{}.PieceText())
}

func TestWorkItem_ClientFallback(t *testing.T) {
	assert.Equal(t, "Shree", rowset.WorkItem{ClientName: "Shree", PartyName: "Other"}.Client())
	assert.Equal(t, "Other", rowset.WorkItem{PartyName: "Other"}.Client())
}

func TestRemoveAndAvailable(t *testing.T) {
	rows := []rowset.WorkItem{
		{PONo: "1", DesignNo: "A"},
		{PONo: "2", DesignNo: "B", PDFDownloaded: true},
		{PONo: "3", DesignNo: "C"},
	}

	rest, removed, ok := rowset.Remove(rows, "3|C")
	require.True(t, ok)
	assert.Equal(t, rowset.Text("3"), removed.PONo)
	assert.Len(t, rest, 2)
	assert.Len(t, rows, 3, "input slice is not modified")

	_, _, ok = rowset.Remove(rows, "9|Z")
	assert.False(t, ok)

	available := rowset.Available(rows)
	require.Len(t, available, 2)
	for _, row := range available {
		assert.False(t, row.PDFDownloaded)
	}
}

func TestStoreRepository_LoadReplaceAll(t *testing.T) {
	env := testutil.NewEnv(t)
	repo := rowset.NewStoreRepository(env.Store)
	ctx := context.Background()

	rows, err := repo.Load(ctx, "ACME", "jecard:color_pending")
	require.NoError(t, err)
	assert.Empty(t, rows)

	want := []rowset.WorkItem{
		{PONo: "1", DesignNo: "A", Piece: "10"},
		{PONo: "2", DesignNo: "B", Piece: "4"},
	}
	require.NoError(t, repo.ReplaceAll(ctx, "ACME", "jecard:color_pending", want))

	rows, err = repo.Load(ctx, "ACME", "jecard:color_pending")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1|A", rows[0].Key())
	assert.Equal(t, "2|B", rows[1].Key())

	require.NoError(t, repo.ReplaceAll(ctx, "ACME", "jecard:color_pending", nil))
	rows, err = repo.Load(ctx, "ACME", "jecard:color_pending")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
