package actuation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devicehub/internal/bus"
	"devicehub/internal/db"
	"devicehub/internal/errs"
	"devicehub/internal/models"
)

type fakeComplexStore struct {
	commands map[string]*models.ComplexCommand
}

func newFakeComplexStore() *fakeComplexStore {
	return &fakeComplexStore{commands: make(map[string]*models.ComplexCommand)}
}

func (s *fakeComplexStore) GetComplexCommand(_ context.Context, accountID, name string) (*models.ComplexCommand, error) {
	cc, ok := s.commands[accountID+"/"+name]
	if !ok {
		return nil, db.ErrNoRows
	}
	return cc, nil
}

func (s *fakeComplexStore) InsertComplexCommand(_ context.Context, cc *models.ComplexCommand) error {
	s.commands[cc.AccountID+"/"+cc.Name] = cc
	return nil
}

func (s *fakeComplexStore) UpdateComplexCommand(_ context.Context, cc *models.ComplexCommand) error {
	if _, ok := s.commands[cc.AccountID+"/"+cc.Name]; !ok {
		return db.ErrNoRows
	}
	s.commands[cc.AccountID+"/"+cc.Name] = cc
	return nil
}

func (s *fakeComplexStore) DeleteComplexCommand(_ context.Context, accountID, name string) error {
	if _, ok := s.commands[accountID+"/"+name]; !ok {
		return db.ErrNoRows
	}
	delete(s.commands, accountID+"/"+name)
	return nil
}

func (s *fakeComplexStore) ListComplexCommands(_ context.Context, accountID string) ([]models.ComplexCommand, error) {
	var out []models.ComplexCommand
	for _, cc := range s.commands {
		if cc.AccountID == accountID {
			out = append(out, *cc)
		}
	}
	return out, nil
}

type fakeDeviceStore struct {
	devices []models.Device
	catalog map[string]*models.CatalogComponent
}

func (s *fakeDeviceStore) GetDeviceByComponent(_ context.Context, accountID, componentID string) (*models.Device, error) {
	for i := range s.devices {
		if s.devices[i].AccountID != accountID {
			continue
		}
		for _, c := range s.devices[i].Components {
			if c.ID == componentID {
				return &s.devices[i], nil
			}
		}
	}
	return nil, db.ErrNoRows
}

func (s *fakeDeviceStore) FindCatalogComponent(_ context.Context, _, catalogID string) (*models.CatalogComponent, error) {
	cat, ok := s.catalog[catalogID]
	if !ok {
		return nil, db.ErrNoRows
	}
	return cat, nil
}

type fakeActuationStore struct {
	records   []models.Actuation
	insertErr error
}

func (s *fakeActuationStore) InsertActuation(_ context.Context, a *models.Actuation) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.records = append(s.records, *a)
	return nil
}

func (s *fakeActuationStore) ListActuations(_ context.Context, accountID, deviceID string, _ int) ([]models.Actuation, error) {
	var out []models.Actuation
	for _, a := range s.records {
		if a.AccountID == accountID && (deviceID == "" || a.DeviceID == deviceID) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeBindings struct {
	bindings map[string]*models.ConnectionBinding
	err      error
}

func (b *fakeBindings) Latest(_ context.Context, deviceID string) (*models.ConnectionBinding, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.bindings[deviceID], nil
}

type fakePublisher struct {
	published []models.ActuationMessage
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, msg models.ActuationMessage) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

// fixture is the dispatcher wired over three devices on one actuator
// catalog entry. dev-1 is bound to mqtt, dev-2 to ws, dev-3 has no
// connection binding at all.
type fixture struct {
	complex    *fakeComplexStore
	devices    *fakeDeviceStore
	bindings   *fakeBindings
	actuations *fakeActuationStore
	publisher  *fakePublisher
	bus        *bus.Bus
	dispatcher *Dispatcher
}

func newFixture() *fixture {
	f := &fixture{
		complex: newFakeComplexStore(),
		devices: &fakeDeviceStore{
			devices: []models.Device{
				{ID: "dev-1", GatewayID: "gw-1", AccountID: "acct", Name: "hall light",
					Components: []models.DeviceComponent{{ID: "comp-1", Name: "dimmer", Type: "light", CatalogID: "cat-light"}}},
				{ID: "dev-2", GatewayID: "gw-1", AccountID: "acct", Name: "porch light",
					Components: []models.DeviceComponent{{ID: "comp-2", Name: "dimmer", Type: "light", CatalogID: "cat-light"}}},
				{ID: "dev-3", GatewayID: "gw-2", AccountID: "acct", Name: "cellar light",
					Components: []models.DeviceComponent{{ID: "comp-3", Name: "dimmer", Type: "light", CatalogID: "cat-light"}}},
			},
			catalog: map[string]*models.CatalogComponent{
				"cat-light": {ID: "cat-light", AccountID: "acct", Type: "light", Actuator: &models.Actuator{
					CommandString: "set",
					Parameters: []models.ActuatorParameter{
						{Name: "brightness", Values: "0-100"},
						{Name: "power", Values: "on,off"},
					},
				}},
			},
		},
		bindings: &fakeBindings{bindings: map[string]*models.ConnectionBinding{
			"dev-1": {DeviceID: "dev-1", Transport: models.TransportMQTT, Broker: "tcp://broker:1883"},
			"dev-2": {DeviceID: "dev-2", Transport: models.TransportWS},
		}},
		actuations: &fakeActuationStore{},
		publisher:  &fakePublisher{},
		bus:        bus.New(),
	}
	f.dispatcher = NewDispatcher(f.complex, f.devices, f.bindings, f.actuations, f.publisher, f.bus, zap.NewNop())
	return f
}

func brightnessCommand(componentID, value string) models.ComponentCommand {
	return models.ComponentCommand{
		ComponentID: componentID,
		Parameters:  []models.Parameter{{Name: "brightness", Value: value}},
	}
}

func TestCommand_DispatchesAndPersists(t *testing.T) {
	f := newFixture()
	events := f.bus.SubscribeCommands(1)

	err := f.dispatcher.Command(context.Background(), "acct",
		[]models.ComponentCommand{brightnessCommand("comp-1", "50")}, nil)

	require.NoError(t, err)
	require.Len(t, f.publisher.published, 1)
	msg := f.publisher.published[0]
	assert.Equal(t, models.MessageTypeCommand, msg.Type)
	assert.Equal(t, models.TransportMQTT, msg.Transport)
	assert.Equal(t, "dev-1", msg.Content.DeviceID)
	assert.Equal(t, "gw-1", msg.Content.GatewayID)
	assert.Equal(t, "set", msg.Content.Command)

	require.Len(t, f.actuations.records, 1)
	assert.Equal(t, "dev-1", f.actuations.records[0].DeviceID)
	assert.Equal(t, "acct", f.actuations.records[0].AccountID)

	select {
	case ev := <-events:
		assert.Equal(t, "acct", ev.AccountID)
		assert.Len(t, ev.Messages, 1)
	default:
		t.Fatal("expected a CommandIssued event")
	}
}

func TestCommand_UsesBindingTransport(t *testing.T) {
	f := newFixture()

	err := f.dispatcher.Command(context.Background(), "acct",
		[]models.ComponentCommand{brightnessCommand("comp-2", "50")}, nil)

	require.NoError(t, err)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, models.TransportWS, f.publisher.published[0].Transport)
}

func TestCommand_NoBindingFallsBackToMQTT(t *testing.T) {
	f := newFixture()

	err := f.dispatcher.Command(context.Background(), "acct",
		[]models.ComponentCommand{brightnessCommand("comp-3", "50")}, nil)

	require.NoError(t, err)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, models.TransportMQTT, f.publisher.published[0].Transport)
}

func TestCommand_FailFastOnInvalidParameter(t *testing.T) {
	f := newFixture()

	err := f.dispatcher.Command(context.Background(), "acct", []models.ComponentCommand{
		brightnessCommand("comp-1", "50"),
		brightnessCommand("comp-2", "150"), // outside "0-100"
		brightnessCommand("comp-3", "75"),
	}, nil)

	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, errs.CodeCommandInvalidValue, verr.Violations[0].Code)
	assert.Empty(t, f.publisher.published, "no message leaves an invalid batch")
	assert.Empty(t, f.actuations.records, "no audit record for an invalid batch")
}

func TestCommand_FailFastOnUnknownParameter(t *testing.T) {
	f := newFixture()

	err := f.dispatcher.Command(context.Background(), "acct", []models.ComponentCommand{{
		ComponentID: "comp-1",
		Parameters:  []models.Parameter{{Name: "volume", Value: "5"}},
	}}, nil)

	assert.True(t, errs.IsValidation(err))
	assert.Empty(t, f.publisher.published)
}

func TestCommand_UnknownComponentFailsBatch(t *testing.T) {
	f := newFixture()

	err := f.dispatcher.Command(context.Background(), "acct", []models.ComponentCommand{
		brightnessCommand("comp-1", "50"),
		brightnessCommand("comp-missing", "50"),
	}, nil)

	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, errs.CodeComponentNotFound, nf.Code)
	assert.Empty(t, f.publisher.published)
}

func TestCommand_ExpandsComplexCommands(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.complex.InsertComplexCommand(context.Background(), &models.ComplexCommand{
		ID:        "cc-1",
		AccountID: "acct",
		Name:      "evening",
		Commands: []models.ComponentCommand{
			brightnessCommand("comp-1", "30"),
			brightnessCommand("comp-2", "30"),
		},
	}))

	err := f.dispatcher.Command(context.Background(), "acct", nil, []string{"evening"})

	require.NoError(t, err)
	assert.Len(t, f.publisher.published, 2)
	assert.Len(t, f.actuations.records, 2)
}

func TestCommand_UnknownComplexCommand(t *testing.T) {
	f := newFixture()

	err := f.dispatcher.Command(context.Background(), "acct",
		[]models.ComponentCommand{brightnessCommand("comp-1", "50")}, []string{"ghost"})

	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, errs.CodeComplexNotFound, nf.Code)
	assert.Empty(t, f.publisher.published)
}

func TestCommand_PublishFailureSkipsAudit(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker unreachable")

	err := f.dispatcher.Command(context.Background(), "acct",
		[]models.ComponentCommand{brightnessCommand("comp-1", "50")}, nil)

	assert.NoError(t, err, "publish is fire-and-forget")
	assert.Empty(t, f.actuations.records, "no audit record for an unsent message")
}

func TestCommand_PersistFailureReportedAfterDispatch(t *testing.T) {
	f := newFixture()
	f.actuations.insertErr = errors.New("disk full")

	err := f.dispatcher.Command(context.Background(), "acct", []models.ComponentCommand{
		brightnessCommand("comp-1", "50"),
		brightnessCommand("comp-2", "50"),
	}, nil)

	var serr *errs.SavingError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, errs.CodeActuationSaving, serr.Code)
	assert.Len(t, f.publisher.published, 2, "dispatch continues past an audit failure")
}

func TestHistory_FiltersByDevice(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.dispatcher.Command(context.Background(), "acct", []models.ComponentCommand{
		brightnessCommand("comp-1", "50"),
		brightnessCommand("comp-2", "50"),
	}, nil))

	history, err := f.dispatcher.History(context.Background(), "acct", "dev-1", 100)

	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "dev-1", history[0].DeviceID)
}
