package challan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garmentflow/infrastructure/challan"
	"garmentflow/infrastructure/counter"
	"garmentflow/infrastructure/pipeline"
	"garmentflow/infrastructure/rowset"
	"garmentflow/infrastructure/testutil"
)

const (
	tenant   = "ACME"
	doneSlot = "bleach:white_done"
)

type fixture struct {
	repo    *rowset.StoreRepository
	builder *challan.Builder
	dir     string
}

func newFixture(t *testing.T, dir, fallback string) fixture {
	t.Helper()
	env := testutil.NewEnv(t)
	repo := rowset.NewStoreRepository(env.Store)
	counters := counter.New(env.Store, counter.NewMemory())
	b := challan.NewBuilder(repo, pipeline.Default(), counters, dir, fallback, testutil.QuietLogger())
	require.NoError(t, repo.ReplaceAll(context.Background(), tenant, doneSlot, []rowset.WorkItem{
		{PONo: "1", DesignNo: "D-1", ClientName: "Shree Textiles", ChalanNo: "C-7", Date: "2026-10-03", Piece: "10", Mtr: "70", Takka: "2"},
		{PONo: "2", DesignNo: "D-2", ClientName: "Other Client", ChalanNo: "C-8", Piece: "5", Mtr: "30"},
		{PONo: "3", DesignNo: "D-3", ClientName: "Shree Textiles", Piece: "n/a", Mtr: "12"},
	}))
	return fixture{repo: repo, builder: b, dir: dir}
}

func TestBuild_TotalsHeaderAndFile(t *testing.T) {
	f := newFixture(t, t.TempDir(), "")
	ctx := context.Background()

	doc, err := f.builder.Build(ctx, tenant, "white", pipeline.Bleach, []string{"1|D-1", "2|D-2", "3|D-3"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), doc.ChallanNo)
	assert.Equal(t, "challan_bleach_1.pdf", doc.Filename)
	assert.Equal(t, filepath.Join(f.dir, doc.Filename), doc.Path)
	assert.True(t, doc.Totals.Piece.Equal(decimal.NewFromInt(15)))
	assert.True(t, doc.Totals.Mtr.Equal(decimal.NewFromInt(112)))
	assert.True(t, doc.Totals.Takka.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "Shree Textiles", doc.Header.ClientName)
	assert.Equal(t, "C-7", doc.Header.ChalanNo)
	assert.Equal(t, "2026-10-03", doc.Header.Date)
	assert.Len(t, doc.Lines, challan.LineSlots)

	onDisk, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, doc.PDF, onDisk)

	next, err := f.builder.Build(ctx, tenant, "white", pipeline.Bleach, []string{"1|D-1"})
	assert.ErrorIs(t, err, challan.ErrNoRowsSelected)
	assert.Zero(t, next.ChallanNo)
}

func TestBuild_ZeroSelectionIsRejected(t *testing.T) {
	f := newFixture(t, t.TempDir(), "")
	_, err := f.builder.Build(context.Background(), tenant, "white", pipeline.Bleach, nil)
	assert.ErrorIs(t, err, challan.ErrNoRowsSelected)

	_, err = f.builder.Build(context.Background(), tenant, "white", pipeline.Bleach, []string{"9|none"})
	assert.ErrorIs(t, err, challan.ErrNoRowsSelected)
}

func TestBuild_DownloadedRowsLeaveAvailableList(t *testing.T) {
	f := newFixture(t, t.TempDir(), "")
	ctx := context.Background()

	_, err := f.builder.Build(ctx, tenant, "white", pipeline.Bleach, []string{"2|D-2"})
	require.NoError(t, err)

	avail, err := f.builder.Available(ctx, tenant, "white", pipeline.Bleach)
	require.NoError(t, err)
	var keys []string
	for _, row := range avail {
		keys = append(keys, row.Key())
	}
	assert.Equal(t, []string{"1|D-1", "3|D-3"}, keys)

	// Rows stay in done; only the flag changes.
	all, err := f.repo.Load(ctx, tenant, doneSlot)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.True(t, all[1].PDFDownloaded)

	doc, err := f.builder.Build(ctx, tenant, "white", pipeline.Bleach, []string{"1|D-1"})
	require.NoError(t, err)
	assert.Equal(t, "challan_bleach_2.pdf", doc.Filename)
}

func TestBuild_FallsBackWhenChallanDirUnusable(t *testing.T) {
	base := t.TempDir()
	blocked := filepath.Join(base, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("not a dir"), 0o644))
	fallback := filepath.Join(base, "data", "challans")

	f := newFixture(t, blocked, fallback)
	doc, err := f.builder.Build(context.Background(), tenant, "white", pipeline.Bleach, []string{"1|D-1"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fallback, "challan_bleach_1.pdf"), doc.Path)
}

func TestBuild_SaveFailureMarksNothing(t *testing.T) {
	base := t.TempDir()
	blocked := filepath.Join(base, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	f := newFixture(t, blocked, filepath.Join(blocked, "nested"))
	ctx := context.Background()
	_, err := f.builder.Build(ctx, tenant, "white", pipeline.Bleach, []string{"1|D-1", "2|D-2"})
	require.ErrorIs(t, err, challan.ErrSave)

	avail, err := f.builder.Available(ctx, tenant, "white", pipeline.Bleach)
	require.NoError(t, err)
	assert.Len(t, avail, 3)
}

func TestBuild_LinePiecesMatchTotalWhenOnlyQtyIsSet(t *testing.T) {
	f := newFixture(t, t.TempDir(), "")
	ctx := context.Background()
	require.NoError(t, f.repo.ReplaceAll(ctx, tenant, doneSlot, []rowset.WorkItem{
		{PONo: "9", DesignNo: "D-9", ClientName: "Shree Textiles", Qty: "4", Mtr: "24"},
		{PONo: "10", DesignNo: "D-10", ClientName: "Shree Textiles", Quantity: "3", Mtr: "18"},
		{PONo: "11", DesignNo: "D-11", ClientName: "Shree Textiles", Piece: "2", Qty: "9", Mtr: "12"},
	}))

	doc, err := f.builder.Build(ctx, tenant, "white", pipeline.Bleach, []string{"9|D-9", "10|D-10", "11|D-11"})
	require.NoError(t, err)

	assert.Equal(t, "4", doc.Lines[0].Piece)
	assert.Equal(t, "3", doc.Lines[1].Piece)
	assert.Equal(t, "2", doc.Lines[2].Piece)

	sum := decimal.Zero
	for _, line := range doc.Lines {
		if !line.Blank {
			sum = sum.Add(decimal.RequireFromString(line.Piece))
		}
	}
	assert.True(t, doc.Totals.Piece.Equal(sum), "total %s, lines %s", doc.Totals.Piece, sum)
	assert.True(t, doc.Totals.Piece.Equal(decimal.NewFromInt(9)))
}

func TestNextNumber_FollowsIssuedChallans(t *testing.T) {
	f := newFixture(t, t.TempDir(), "")
	ctx := context.Background()

	n, err := f.builder.NextNumber(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	doc, err := f.builder.Build(ctx, tenant, "white", pipeline.Bleach, []string{"1|D-1"})
	require.NoError(t, err)

	n, err = f.builder.NextNumber(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, doc.ChallanNo+1, n)
}
