package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garmentflow/infrastructure/pipeline"
	"garmentflow/infrastructure/rowset"
	"garmentflow/infrastructure/testutil"
	"garmentflow/infrastructure/workflow"
)

const tenant = "ACME"

func newService(t *testing.T) (*workflow.Service, rowset.Repository) {
	t.Helper()
	env := testutil.NewEnv(t)
	repo := rowset.NewStoreRepository(env.Store)
	return workflow.NewService(repo, pipeline.Default()), repo
}

func startOrders(t *testing.T, svc *workflow.Service, pipelineName string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := svc.StartOrder(context.Background(), tenant, pipelineName, workflow.OrderLine{
			PONo:        int64(i),
			DesignNo:    fmt.Sprintf("D-%d", i),
			PartyName:   "Shree Textiles",
			OrderDate:   "2026-10-01",
			Quantity:    100,
			MatchingNos: []string{"M1", " M2 ", ""},
			BlouseType:  "with",
		})
		require.NoError(t, err)
	}
}

func TestStartOrder_AppendsToFirstStagePending(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	startOrders(t, svc, "color", 1)

	rows, err := svc.Rows(ctx, tenant, "color", pipeline.Jecard, pipeline.Pending)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1|D-1", rows[0].Key())
	assert.Equal(t, rowset.Text("M1,M2"), rows[0].MatchingNo)
	assert.Equal(t, rowset.Text("700"), rows[0].Mtr)
	assert.Equal(t, rowset.Text("Shree Textiles"), rows[0].ClientName)

	_, err = svc.StartOrder(ctx, tenant, "color", workflow.OrderLine{PONo: 1, DesignNo: "D-1", PartyName: "X", Quantity: 5})
	assert.ErrorIs(t, err, workflow.ErrAlreadyStarted)
}

func TestComplete_PreservesTotals(t *testing.T) {
	for n := 0; n <= 5; n++ {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			svc, _ := newService(t)
			ctx := context.Background()
			startOrders(t, svc, "white", 5)

			before, err := svc.Rows(ctx, tenant, "white", pipeline.Jecard, pipeline.Pending)
			require.NoError(t, err)
			doneBefore, err := svc.Rows(ctx, tenant, "white", pipeline.Jecard, pipeline.Done)
			require.NoError(t, err)

			for i := 0; i < n; i++ {
				_, err := svc.Complete(ctx, tenant, "white", pipeline.Jecard, before[i].Key(), workflow.Enrichment{ChalanNo: "C-9"})
				require.NoError(t, err)
			}

			after, err := svc.Rows(ctx, tenant, "white", pipeline.Jecard, pipeline.Pending)
			require.NoError(t, err)
			doneAfter, err := svc.Rows(ctx, tenant, "white", pipeline.Jecard, pipeline.Done)
			require.NoError(t, err)
			assert.Equal(t, len(before), len(after)+n)
			assert.Equal(t, len(doneBefore)+n, len(doneAfter))
		})
	}
}

func TestComplete_EnrichesAndValidatesPiece(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	startOrders(t, svc, "color", 1)

	_, err := svc.Complete(ctx, tenant, "color", pipeline.Jecard, "1|D-1", workflow.Enrichment{Piece: "101"})
	assert.ErrorIs(t, err, workflow.ErrPieceExceedsQuantity)

	_, err = svc.Complete(ctx, tenant, "color", pipeline.Jecard, "1|D-1", workflow.Enrichment{Piece: "ten"})
	assert.ErrorIs(t, err, workflow.ErrInvalidPiece)

	// Rejected input must leave the row where it was.
	pending, err := svc.Rows(ctx, tenant, "color", pipeline.Jecard, pipeline.Pending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	tr, err := svc.Complete(ctx, tenant, "color", pipeline.Jecard, "1|D-1", workflow.Enrichment{
		ClientName: "Raj Prints",
		ChalanNo:   "C-17",
		Piece:      "40",
		Date:       "2026-10-02",
	})
	require.NoError(t, err)
	assert.Empty(t, tr.Source)
	require.Len(t, tr.Destination, 1)
	row := tr.Destination[0]
	assert.Equal(t, rowset.Text("Raj Prints"), row.ClientName)
	assert.Equal(t, rowset.Text("C-17"), row.ChalanNo)
	assert.Equal(t, rowset.Text("40"), row.Piece)
	assert.Equal(t, rowset.Text("280"), row.Mtr)
	assert.Equal(t, rowset.Text("2026-10-02"), row.Date)

	_, err = svc.Complete(ctx, tenant, "color", pipeline.Jecard, "1|D-1", workflow.Enrichment{})
	assert.ErrorIs(t, err, workflow.ErrRowNotFound)
}

func TestForward_MarksSourceAndAppendsNarrowRow(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	startOrders(t, svc, "white", 1)
	_, err := svc.Complete(ctx, tenant, "white", pipeline.Jecard, "1|D-1", workflow.Enrichment{ChalanNo: "C-1", Piece: "50"})
	require.NoError(t, err)

	tr, err := svc.Forward(ctx, tenant, "white", pipeline.Jecard, "1|D-1", workflow.Enrichment{})
	require.NoError(t, err)
	assert.Equal(t, "jecard:white_done", tr.SourceSlot)
	assert.Equal(t, "butta:white_pending", tr.DestinationSlot)
	require.Len(t, tr.Source, 1)
	assert.True(t, tr.Source[0].IsSentTo(string(pipeline.ButtaCutting)))

	require.Len(t, tr.Destination, 1)
	got := tr.Destination[0]
	assert.Equal(t, rowset.Text("1"), got.PONo)
	assert.Equal(t, rowset.Text("D-1"), got.DesignNo)
	assert.Equal(t, rowset.Text("Shree Textiles"), got.ClientName)
	assert.Equal(t, rowset.Text("C-1"), got.ChalanNo)
	assert.Equal(t, rowset.Text("50"), got.Piece)
	assert.Equal(t, rowset.Text("350"), got.Mtr)
	assert.Empty(t, got.MatchingNo)
	assert.Empty(t, got.BlouseType)
	assert.Empty(t, got.Quantity)

	_, err = svc.Forward(ctx, tenant, "white", pipeline.Jecard, "1|D-1", workflow.Enrichment{})
	assert.ErrorIs(t, err, workflow.ErrAlreadySent)

	// The forwarded piece count becomes the new limit, and the blouse factor is kept.
	tr, err = svc.Complete(ctx, tenant, "white", pipeline.ButtaCutting, "1|D-1", workflow.Enrichment{Piece: "51"})
	assert.ErrorIs(t, err, workflow.ErrPieceExceedsQuantity)
	tr, err = svc.Complete(ctx, tenant, "white", pipeline.ButtaCutting, "1|D-1", workflow.Enrichment{Piece: "10"})
	require.NoError(t, err)
	assert.Equal(t, rowset.Text("70"), tr.Row.Mtr)
}

func TestForward_IntoTerminalStageLandsInDone(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	require.NoError(t, repo.ReplaceAll(ctx, tenant, "finish:garment_done", []rowset.WorkItem{
		{PONo: "4", DesignNo: "G-1", ClientName: "Om", Piece: "12", Mtr: "72"},
	}))

	tr, err := svc.Forward(ctx, tenant, "garment", pipeline.Finish, "4|G-1", workflow.Enrichment{Date: "2026-10-05"})
	require.NoError(t, err)
	assert.Equal(t, "delivery:garment_done", tr.DestinationSlot)
	require.Len(t, tr.Destination, 1)
	assert.Equal(t, rowset.Text("2026-10-05"), tr.Destination[0].Date)

	_, err = svc.Forward(ctx, tenant, "garment", pipeline.Delivery, "4|G-1", workflow.Enrichment{})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestComplete_StageOutsidePipeline(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Complete(context.Background(), tenant, "white", pipeline.Cotting, "1|D-1", workflow.Enrichment{})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

// failingRepo fails the nth ReplaceAll call.
type failingRepo struct {
	rowset.Repository
	failOn int
	calls  int
}

var errWrite = errors.New("write failed")

func (r *failingRepo) ReplaceAll(ctx context.Context, tenantID, slot string, rows []rowset.WorkItem) error {
	r.calls++
	if r.calls == r.failOn {
		return errWrite
	}
	return r.Repository.ReplaceAll(ctx, tenantID, slot, rows)
}

func TestComplete_SecondWriteFailureIsNotRolledBack(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	base := rowset.NewStoreRepository(env.Store)
	require.NoError(t, base.ReplaceAll(ctx, tenant, "jecard:color_pending", []rowset.WorkItem{
		{PONo: "1", DesignNo: "D-1", PartyName: "Shree", Quantity: "10"},
	}))

	repo := &failingRepo{Repository: base, failOn: 2}
	svc := workflow.NewService(repo, pipeline.Default())
	_, err := svc.Complete(ctx, tenant, "color", pipeline.Jecard, "1|D-1", workflow.Enrichment{})
	require.ErrorIs(t, err, errWrite)

	pending, err := base.Load(ctx, tenant, "jecard:color_pending")
	require.NoError(t, err)
	done, err := base.Load(ctx, tenant, "jecard:color_done")
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Empty(t, done)
}

func TestForward_SecondWriteFailureLeavesFlagSet(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	base := rowset.NewStoreRepository(env.Store)
	require.NoError(t, base.ReplaceAll(ctx, tenant, "bleach:white_done", []rowset.WorkItem{
		{PONo: "2", DesignNo: "D-2", ClientName: "Shree", Piece: "8", Mtr: "48"},
	}))

	repo := &failingRepo{Repository: base, failOn: 2}
	svc := workflow.NewService(repo, pipeline.Default())
	_, err := svc.Forward(ctx, tenant, "white", pipeline.Bleach, "2|D-2", workflow.Enrichment{})
	require.ErrorIs(t, err, errWrite)

	done, err := base.Load(ctx, tenant, "bleach:white_done")
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.True(t, done[0].IsSentTo(string(pipeline.Finish)))
	next, err := base.Load(ctx, tenant, "finish:white_pending")
	require.NoError(t, err)
	assert.Empty(t, next)
}

func TestComplete_DefaultsDateToToday(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	startOrders(t, svc, "garment", 1)
	tr, err := svc.Complete(ctx, tenant, "garment", pipeline.Jecard, "1|D-1", workflow.Enrichment{})
	require.NoError(t, err)
	assert.Equal(t, rowset.Text(time.Now().Format(workflow.DateLayout)), tr.Row.Date)
}
