package alerts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devicehub/internal/bus"
	"devicehub/internal/db"
	"devicehub/internal/errs"
	"devicehub/internal/models"
)

type fakeAlertStore struct {
	mu        sync.Mutex
	alerts    map[string]*models.Alert
	insertErr error
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{alerts: make(map[string]*models.Alert)}
}

func (s *fakeAlertStore) InsertAlert(_ context.Context, a *models.Alert) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.alerts[a.AccountID+"/"+a.AlertID] = &cp
	return nil
}

func (s *fakeAlertStore) GetAlert(_ context.Context, accountID, alertID string) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[accountID+"/"+alertID]
	if !ok {
		return nil, db.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (s *fakeAlertStore) ListAlerts(_ context.Context, accountID string) ([]models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Alert
	for _, a := range s.alerts {
		if a.AccountID == accountID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeAlertStore) UpdateAlertStatus(_ context.Context, accountID, alertID string, status models.AlertStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[accountID+"/"+alertID]
	if !ok {
		return db.ErrNoRows
	}
	a.Status = status
	return nil
}

func (s *fakeAlertStore) AppendAlertComments(_ context.Context, accountID, alertID string, comments []models.AlertComment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[accountID+"/"+alertID]
	if !ok {
		return db.ErrNoRows
	}
	a.Comments = append(a.Comments, comments...)
	return nil
}

func (s *fakeAlertStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

type fakeRuleLookup struct {
	rules map[string]*models.Rule
}

func (l *fakeRuleLookup) Get(_ context.Context, accountID, externalID string) (*models.Rule, error) {
	r, ok := l.rules[accountID+"/"+externalID]
	if !ok {
		return nil, errs.NewNotFound(errs.CodeRuleNotFound, externalID)
	}
	return r, nil
}

type fakeEnqueuer struct {
	mu       sync.Mutex
	enqueued []string
	err      error
}

func (q *fakeEnqueuer) EnqueueActuationResolve(_, _, alertID string) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, alertID)
	return nil
}

func testRule(accountID, externalID string) *models.Rule {
	return &models.Rule{
		AccountID:       accountID,
		ExternalID:      externalID,
		Name:            "high temperature",
		Priority:        "High",
		Status:          models.RuleStatusActive,
		ResetType:       models.ResetManual,
		NaturalLanguage: "temperature > 30",
	}
}

func newTestService(store *fakeAlertStore, rules *fakeRuleLookup, queue *fakeEnqueuer) (*Service, *bus.Bus) {
	b := bus.New()
	return NewService(store, rules, queue, b, zap.NewNop()), b
}

func triggerItem(ruleID string) TriggerItem {
	return TriggerItem{
		AccountID: "acct",
		RuleID:    ruleID,
		DeviceID:  "device-1",
		Conditions: []TriggerCondition{
			{Condition: "temperature > 30", Components: []string{"comp-1"}},
		},
		Timestamp: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
	}
}

func TestTrigger_MaterializesAlert(t *testing.T) {
	store := newFakeAlertStore()
	rules := &fakeRuleLookup{rules: map[string]*models.Rule{"acct/rule-1": testRule("acct", "rule-1")}}
	queue := &fakeEnqueuer{}
	svc, b := newTestService(store, rules, queue)
	events := b.SubscribeAlerts(1)

	results := svc.Trigger(context.Background(), []TriggerItem{triggerItem("rule-1")})

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.NotEmpty(t, results[0].AlertID)

	alert, err := svc.Get(context.Background(), "acct", results[0].AlertID)
	require.NoError(t, err)
	assert.Equal(t, "rule-1", alert.RuleID)
	assert.Equal(t, "high temperature", alert.RuleName)
	assert.Equal(t, "temperature > 30", alert.NaturalLangAlert)
	assert.Equal(t, models.AlertStatusOpen, alert.Status)
	assert.Equal(t, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC), alert.Triggered)
	require.Len(t, alert.Conditions, 1)
	assert.Equal(t, 1, alert.Conditions[0].Sequence)

	assert.Equal(t, []string{results[0].AlertID}, queue.enqueued)

	select {
	case ev := <-events:
		assert.Equal(t, results[0].AlertID, ev.Alert.AlertID)
	default:
		t.Fatal("expected an AlertRaised event")
	}
}

func TestTrigger_ItemsAreIndependent(t *testing.T) {
	store := newFakeAlertStore()
	rules := &fakeRuleLookup{rules: map[string]*models.Rule{
		"acct/rule-1": testRule("acct", "rule-1"),
		"acct/rule-3": testRule("acct", "rule-3"),
	}}
	svc, _ := newTestService(store, rules, &fakeEnqueuer{})

	results := svc.Trigger(context.Background(), []TriggerItem{
		triggerItem("rule-1"),
		triggerItem("rule-2"), // unknown rule
		triggerItem("rule-3"),
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.True(t, errs.IsNotFound(results[1].Err))
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 2, store.count(), "failing item must not block its siblings")
}

func TestTrigger_LargeBatchKeepsResultOrder(t *testing.T) {
	store := newFakeAlertStore()
	rules := &fakeRuleLookup{rules: make(map[string]*models.Rule)}
	for i := 0; i < 20; i += 2 {
		id := fmt.Sprintf("rule-%d", i)
		rules.rules["acct/"+id] = testRule("acct", id)
	}
	svc, _ := newTestService(store, rules, &fakeEnqueuer{})

	items := make([]TriggerItem, 20)
	for i := range items {
		items[i] = triggerItem(fmt.Sprintf("rule-%d", i))
	}

	results := svc.Trigger(context.Background(), items)

	require.Len(t, results, 20)
	for i, res := range results {
		assert.Equal(t, fmt.Sprintf("rule-%d", i), res.RuleID, "result %d must report its own item", i)
		if i%2 == 0 {
			assert.NoError(t, res.Err)
			assert.NotEmpty(t, res.AlertID)
		} else {
			assert.True(t, errs.IsNotFound(res.Err))
		}
	}
	assert.Equal(t, 10, store.count())
}

func TestTrigger_InsertFailure(t *testing.T) {
	store := newFakeAlertStore()
	store.insertErr = errors.New("connection reset")
	rules := &fakeRuleLookup{rules: map[string]*models.Rule{"acct/rule-1": testRule("acct", "rule-1")}}
	queue := &fakeEnqueuer{}
	svc, _ := newTestService(store, rules, queue)

	results := svc.Trigger(context.Background(), []TriggerItem{triggerItem("rule-1")})

	require.Len(t, results, 1)
	var serr *errs.SavingError
	require.ErrorAs(t, results[0].Err, &serr)
	assert.Equal(t, errs.CodeAlertSaving, serr.Code)
	assert.Empty(t, queue.enqueued, "no actuation for an uncommitted alert")
}

func TestTrigger_EnqueueFailureDoesNotFailItem(t *testing.T) {
	store := newFakeAlertStore()
	rules := &fakeRuleLookup{rules: map[string]*models.Rule{"acct/rule-1": testRule("acct", "rule-1")}}
	svc, _ := newTestService(store, rules, &fakeEnqueuer{err: errors.New("redis down")})

	results := svc.Trigger(context.Background(), []TriggerItem{triggerItem("rule-1")})

	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err, "the alert is committed; downstream actuation is best-effort")
	assert.NotEmpty(t, results[0].AlertID)
}

func TestReset_ClosesAlert(t *testing.T) {
	store := newFakeAlertStore()
	rules := &fakeRuleLookup{rules: map[string]*models.Rule{"acct/rule-1": testRule("acct", "rule-1")}}
	svc, _ := newTestService(store, rules, &fakeEnqueuer{})
	results := svc.Trigger(context.Background(), []TriggerItem{triggerItem("rule-1")})
	require.NoError(t, results[0].Err)

	require.NoError(t, svc.Reset(context.Background(), "acct", results[0].AlertID))

	alert, err := svc.Get(context.Background(), "acct", results[0].AlertID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusClosed, alert.Status)
}

func TestReset_MissingAlert(t *testing.T) {
	svc, _ := newTestService(newFakeAlertStore(), &fakeRuleLookup{}, &fakeEnqueuer{})

	err := svc.Reset(context.Background(), "acct", "ghost")

	assert.True(t, errs.IsNotFound(err))
}

func TestBulkReset_PerItemOutcomes(t *testing.T) {
	store := newFakeAlertStore()
	rules := &fakeRuleLookup{rules: map[string]*models.Rule{"acct/rule-1": testRule("acct", "rule-1")}}
	svc, _ := newTestService(store, rules, &fakeEnqueuer{})
	results := svc.Trigger(context.Background(), []TriggerItem{triggerItem("rule-1")})
	require.NoError(t, results[0].Err)

	reset := svc.BulkReset(context.Background(), "acct", []string{results[0].AlertID, "ghost"})

	require.Len(t, reset, 2)
	assert.NoError(t, reset[0].Err)
	assert.True(t, errs.IsNotFound(reset[1].Err))
}

func TestChangeStatus_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(newFakeAlertStore(), &fakeRuleLookup{}, &fakeEnqueuer{})

	err := svc.ChangeStatus(context.Background(), "acct", "alert-1", "snoozed")

	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, errs.CodeAlertInvalidStatus, verr.Violations[0].Code)
}

func TestAddComments_StampsMissingTimestamps(t *testing.T) {
	store := newFakeAlertStore()
	rules := &fakeRuleLookup{rules: map[string]*models.Rule{"acct/rule-1": testRule("acct", "rule-1")}}
	svc, _ := newTestService(store, rules, &fakeEnqueuer{})
	results := svc.Trigger(context.Background(), []TriggerItem{triggerItem("rule-1")})
	require.NoError(t, results[0].Err)

	stamped := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	err := svc.AddComments(context.Background(), "acct", results[0].AlertID, []models.AlertComment{
		{User: "alice", Text: "checked on site", Timestamp: stamped},
		{User: "bob", Text: "acknowledged"},
	})
	require.NoError(t, err)

	alert, err := svc.Get(context.Background(), "acct", results[0].AlertID)
	require.NoError(t, err)
	require.Len(t, alert.Comments, 2)
	assert.Equal(t, stamped, alert.Comments[0].Timestamp)
	assert.False(t, alert.Comments[1].Timestamp.IsZero())
}
