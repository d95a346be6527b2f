package actuation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devicehub/internal/models"
)

// newResolverFixture wires a resolver over the dispatcher fixture with a
// complex command spanning all three devices. dev-3 has no connection
// binding, so its command is expected to drop out of resolution.
func newResolverFixture(t *testing.T) (*fixture, *Resolver) {
	t.Helper()
	f := newFixture()
	require.NoError(t, f.complex.InsertComplexCommand(context.Background(), &models.ComplexCommand{
		ID:        "cc-1",
		AccountID: "acct",
		Name:      "all lights on",
		Commands: []models.ComponentCommand{
			brightnessCommand("comp-1", "100"),
			brightnessCommand("comp-2", "100"),
			brightnessCommand("comp-3", "100"),
		},
	}))
	r := NewResolver(f.complex, f.devices, f.bindings, f.dispatcher, zap.NewNop())
	return f, r
}

func actuationRule(targets ...string) *models.Rule {
	return &models.Rule{
		AccountID:  "acct",
		ExternalID: "rule-1",
		Name:       "evening scene",
		Actions:    []models.Action{{Type: models.ActionActuation, Target: targets}},
	}
}

func TestResolve_SkipsDeviceWithoutBinding(t *testing.T) {
	_, r := newResolverFixture(t)
	rule := actuationRule("all lights on")

	msgs := r.Resolve(context.Background(), rule)

	require.Len(t, msgs, 2, "the unbound device drops out, the rest resolve")
	assert.Equal(t, "dev-1", msgs[0].Content.DeviceID)
	assert.Equal(t, models.TransportMQTT, msgs[0].Transport)
	assert.Equal(t, "dev-2", msgs[1].Content.DeviceID)
	assert.Equal(t, models.TransportWS, msgs[1].Transport)

	assert.Equal(t, msgs, rule.Actions[0].Messages)
}

func TestResolve_SkipsUnknownComplexCommand(t *testing.T) {
	_, r := newResolverFixture(t)
	rule := actuationRule("ghost", "all lights on")

	msgs := r.Resolve(context.Background(), rule)

	assert.Len(t, msgs, 2, "an unresolvable target never blocks its siblings")
}

func TestResolve_IgnoresNonActuationActions(t *testing.T) {
	_, r := newResolverFixture(t)
	rule := actuationRule("all lights on")
	rule.Actions = append([]models.Action{{Type: "email", Target: []string{"ops@example.com"}}}, rule.Actions...)

	msgs := r.Resolve(context.Background(), rule)

	assert.Len(t, msgs, 2)
	assert.Empty(t, rule.Actions[0].Messages)
}

func TestResolve_SkipsOnBindingLookupFailure(t *testing.T) {
	f, r := newResolverFixture(t)
	f.bindings.err = errors.New("redis down")

	msgs := r.Resolve(context.Background(), actuationRule("all lights on"))

	assert.Empty(t, msgs, "resolution skips, it never falls back on the rule path")
}

func TestResolveAndDispatch_PublishesAndAudits(t *testing.T) {
	f, r := newResolverFixture(t)

	n := r.ResolveAndDispatch(context.Background(), actuationRule("all lights on"))

	assert.Equal(t, 2, n)
	assert.Len(t, f.publisher.published, 2)
	assert.Len(t, f.actuations.records, 2)
}

func TestResolveAndDispatch_SendFailureSkipsAudit(t *testing.T) {
	f, r := newResolverFixture(t)
	f.publisher.err = errors.New("broker unreachable")

	n := r.ResolveAndDispatch(context.Background(), actuationRule("all lights on"))

	assert.Equal(t, 2, n, "the count reports resolution, not delivery")
	assert.Empty(t, f.actuations.records)
}
