package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/submit"
)

type submitFunc func(ctx context.Context, p domain.Payload) (domain.Receipt, error)

func (f submitFunc) Submit(ctx context.Context, p domain.Payload) (domain.Receipt, error) {
	return f(ctx, p)
}

func testSteps() []domain.Step {
	return []domain.Step{
		{ID: "BOM", Name: "BOM Check"},
		{ID: "T1", Name: "T1 Check"},
	}
}

func accepting(sheets ...string) submitFunc {
	return func(context.Context, domain.Payload) (domain.Receipt, error) {
		return domain.Receipt{SubmissionID: "id-1", SheetsCreated: sheets}, nil
	}
}

func mustDispatch(t *testing.T, c *Controller, actions ...domain.Action) Snapshot {
	t.Helper()
	var snap Snapshot
	for _, a := range actions {
		var err error
		snap, err = c.Dispatch(a)
		require.NoError(t, err, a.Name())
	}
	return snap
}

func toReview(t *testing.T, c *Controller) {
	t.Helper()
	mustDispatch(t, c,
		domain.SetOperator{Operator: "Jane"},
		domain.AddWorkOrder{Raw: "WO-1"},
		domain.AddWorkOrder{Raw: "WO-2"},
		domain.StartChecklist{},
		domain.Next{},
		domain.Next{},
	)
}

func TestController_Dispatch(t *testing.T) {
	t.Run("starts on an empty start screen", func(t *testing.T) {
		c := New(testSteps(), nil)
		snap := c.Snapshot()

		assert.Equal(t, domain.ScreenStart, snap.Session.Screen)
		assert.False(t, snap.CanStart)
		assert.Len(t, snap.Session.Answers, 2)
	})

	t.Run("derives wizard state", func(t *testing.T) {
		c := New(testSteps(), nil)
		snap := mustDispatch(t, c,
			domain.SetOperator{Operator: "Jane"},
			domain.AddWorkOrder{Raw: "WO-1"},
			domain.AddWorkOrder{Raw: "WO-2"},
		)
		assert.True(t, snap.CanStart)

		snap = mustDispatch(t, c, domain.StartChecklist{})
		require.NotNil(t, snap.CurrentStep)
		assert.Equal(t, "BOM", snap.CurrentStep.ID)
		assert.True(t, snap.AllSelected)
		assert.Equal(t, 2, snap.SelectedCount)
		assert.False(t, snap.IsLastStep)

		snap = mustDispatch(t, c, domain.SetSelectAll{Checked: false})
		assert.True(t, snap.NoneSelected)
		assert.Equal(t, 2, snap.Summary[0].FailCount)
	})

	t.Run("rejected action leaves state untouched", func(t *testing.T) {
		c := New(testSteps(), nil)
		before := c.Snapshot()

		snap, err := c.Dispatch(domain.Next{})
		assert.ErrorIs(t, err, domain.ErrWrongScreen)
		assert.Equal(t, before, snap)

		_, err = c.Dispatch(domain.StartChecklist{})
		assert.ErrorIs(t, err, domain.ErrCannotStart)
	})

	t.Run("snapshots are isolated from later changes", func(t *testing.T) {
		c := New(testSteps(), nil)
		snap := mustDispatch(t, c, domain.AddWorkOrder{Raw: "WO-1"})
		mustDispatch(t, c, domain.AddWorkOrder{Raw: "WO-2"})

		assert.Equal(t, []string{"WO-1"}, snap.Session.WorkOrders.List())
	})
}

func TestController_Submit(t *testing.T) {
	t.Run("success moves to done", func(t *testing.T) {
		var got domain.Payload
		c := New(testSteps(), submitFunc(func(_ context.Context, p domain.Payload) (domain.Receipt, error) {
			got = p
			return domain.Receipt{SheetsCreated: []string{"a", "b"}}, nil
		}))
		toReview(t, c)

		snap, err := c.Submit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.ScreenDone, snap.Session.Screen)
		require.NotNil(t, snap.Session.Receipt)
		assert.Equal(t, 2, snap.Session.Receipt.Count())
		assert.False(t, snap.Submitting)

		assert.Equal(t, "Jane", got.Operator)
		assert.Equal(t, []string{"WO-1", "WO-2"}, got.WorkOrders)
		assert.Len(t, got.Answers, 2)
	})

	t.Run("failure stays on review with message", func(t *testing.T) {
		c := New(testSteps(), submitFunc(func(context.Context, domain.Payload) (domain.Receipt, error) {
			return domain.Receipt{}, &submit.Error{StatusCode: 200, Message: "Sheet locked"}
		}))
		toReview(t, c)

		snap, err := c.Submit(context.Background())
		assert.ErrorIs(t, err, ErrSubmitFailed)
		var subErr *submit.Error
		assert.ErrorAs(t, err, &subErr)
		assert.Equal(t, domain.ScreenReview, snap.Session.Screen)
		assert.Equal(t, "Submit failed: Sheet locked", snap.Session.SubmitError)
	})

	t.Run("retry clears previous failure", func(t *testing.T) {
		calls := 0
		c := New(testSteps(), submitFunc(func(context.Context, domain.Payload) (domain.Receipt, error) {
			calls++
			if calls == 1 {
				return domain.Receipt{}, errors.New("network down")
			}
			return domain.Receipt{}, nil
		}))
		toReview(t, c)

		_, err := c.Submit(context.Background())
		require.Error(t, err)

		snap, err := c.Submit(context.Background())
		require.NoError(t, err)
		assert.Empty(t, snap.Session.SubmitError)
		assert.Equal(t, domain.ScreenDone, snap.Session.Screen)
	})

	t.Run("missing submitter fails without an endpoint", func(t *testing.T) {
		c := New(testSteps(), nil)
		toReview(t, c)

		_, err := c.Submit(context.Background())
		assert.ErrorIs(t, err, submit.ErrNoEndpoint)
	})

	t.Run("only available on review", func(t *testing.T) {
		c := New(testSteps(), accepting())

		_, err := c.Submit(context.Background())
		assert.ErrorIs(t, err, domain.ErrWrongScreen)
	})

	t.Run("blocks changes while in flight", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		c := New(testSteps(), submitFunc(func(context.Context, domain.Payload) (domain.Receipt, error) {
			close(entered)
			<-release
			return domain.Receipt{}, nil
		}))
		toReview(t, c)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Submit(context.Background())
		}()

		select {
		case <-entered:
		case <-time.After(2 * time.Second):
			t.Fatal("submitter was not called")
		}

		assert.True(t, c.Snapshot().Submitting)
		_, err := c.Dispatch(domain.Back{})
		assert.ErrorIs(t, err, ErrSubmitInFlight)
		_, err = c.Submit(context.Background())
		assert.ErrorIs(t, err, ErrSubmitInFlight)

		close(release)
		wg.Wait()
		assert.Equal(t, domain.ScreenDone, c.Snapshot().Session.Screen)
	})
}

func TestController_ReplaceSteps(t *testing.T) {
	replacement := []domain.Step{{ID: "X", Name: "X Check"}}

	t.Run("applies immediately on start", func(t *testing.T) {
		c := New(testSteps(), nil)
		mustDispatch(t, c, domain.SetOperator{Operator: "Jane"}, domain.AddWorkOrder{Raw: "WO-1"})

		assert.True(t, c.ReplaceSteps(replacement))

		snap := c.Snapshot()
		assert.Equal(t, replacement, snap.Session.Steps)
		assert.Len(t, snap.Session.Answers, 1)
		assert.False(t, snap.PendingSteps)
		assert.Equal(t, "Jane", snap.Session.Operator)
		assert.Equal(t, []string{"WO-1"}, snap.Session.WorkOrders.List())
	})

	t.Run("held until the session returns to start", func(t *testing.T) {
		c := New(testSteps(), nil)
		mustDispatch(t, c,
			domain.SetOperator{Operator: "Jane"},
			domain.AddWorkOrder{Raw: "WO-1"},
			domain.StartChecklist{},
			domain.Next{},
		)

		assert.False(t, c.ReplaceSteps(replacement))
		snap := c.Snapshot()
		assert.True(t, snap.PendingSteps)
		assert.Len(t, snap.Session.Steps, 2)

		snap = mustDispatch(t, c, domain.Back{})
		assert.Len(t, snap.Session.Steps, 2, "still inside the wizard")

		snap = mustDispatch(t, c, domain.Back{})
		assert.Equal(t, domain.ScreenStart, snap.Session.Screen)
		assert.Equal(t, replacement, snap.Session.Steps)
		assert.False(t, snap.PendingSteps)
	})

	t.Run("applied after reset", func(t *testing.T) {
		c := New(testSteps(), accepting())
		toReview(t, c)
		_, err := c.Submit(context.Background())
		require.NoError(t, err)

		c.ReplaceSteps(replacement)
		snap := mustDispatch(t, c, domain.Reset{})
		assert.Equal(t, replacement, snap.Session.Steps)
	})
}

func TestController_Subscribe(t *testing.T) {
	c := New(testSteps(), nil)

	var screens []domain.Screen
	unsubscribe := c.Subscribe(func(s Snapshot) {
		screens = append(screens, s.Session.Screen)
	})

	mustDispatch(t, c, domain.SetOperator{Operator: "Jane"})
	_, _ = c.Dispatch(domain.Next{})
	assert.Len(t, screens, 1, "rejected actions do not notify")

	unsubscribe()
	mustDispatch(t, c, domain.AddWorkOrder{Raw: "WO-1"})
	assert.Len(t, screens, 1)
}
