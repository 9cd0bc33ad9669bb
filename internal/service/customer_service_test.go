package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketnet/internal/events"
	"marketnet/internal/models"
	"marketnet/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegister_ProvisionsCustomerThroughBus(t *testing.T) {
	st := &mockStore{}
	bus := events.NewBus()

	var customerEvents []models.Event
	bus.Subscribe(models.EventTypeCustomerCreated, "recorder", func(ctx context.Context, e models.Event) error {
		customerEvents = append(customerEvents, e)
		return nil
	})
	provisioner := NewProvisioner(st, bus, models.MembershipSilver)
	bus.Subscribe(models.EventTypeIdentityCreated, "provision_customer", provisioner.HandleIdentityCreated)

	st.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.User).ID = 12 }).
		Return(nil)
	st.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(c *models.Customer) bool {
		return c.UserID == 12 && c.Membership == models.MembershipSilver
	})).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Customer).ID = 30 }).
		Return(nil)

	user, err := NewIdentityService(st, bus).Register(context.Background(),
		RegisterInput{Username: "ana", Email: "Ana@Example.com"})
	require.NoError(t, err)

	assert.Equal(t, int64(12), user.ID)
	assert.Equal(t, "ana@example.com", user.Email)
	require.Len(t, customerEvents, 1)
	assert.Equal(t, int64(30), customerEvents[0].(*models.CustomerCreatedEvent).Customer.ID)
	st.AssertExpectations(t)
}

func TestRegister_ProvisioningFailureDoesNotFailRegistration(t *testing.T) {
	st := &mockStore{}
	bus := events.NewBus()
	bus.Subscribe(models.EventTypeIdentityCreated, "provision_customer",
		NewProvisioner(st, bus, models.MembershipSilver).HandleIdentityCreated)

	st.On("CreateUser", mock.Anything, mock.Anything).Return(nil)
	st.On("CreateCustomer", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := NewIdentityService(st, bus).Register(context.Background(),
		RegisterInput{Username: "ben", Email: "ben@example.com"})
	assert.NoError(t, err)
}

func TestRegister_Duplicate(t *testing.T) {
	st := &mockStore{}
	bus := &recordingBus{}
	st.On("CreateUser", mock.Anything, mock.Anything).Return(store.ErrDuplicate)

	_, err := NewIdentityService(st, bus).Register(context.Background(),
		RegisterInput{Username: "ana", Email: "ana@example.com"})
	assert.True(t, IsConflict(err))
	assert.Empty(t, bus.published())
}

func TestProvisioner_ExistingProfileIsIgnored(t *testing.T) {
	st := &mockStore{}
	bus := &recordingBus{}
	st.On("CreateCustomer", mock.Anything, mock.Anything).Return(store.ErrDuplicate)

	err := NewProvisioner(st, bus, models.MembershipSilver).HandleIdentityCreated(context.Background(),
		&models.IdentityCreatedEvent{BaseEvent: models.NewBaseEvent(models.EventTypeIdentityCreated), User: models.User{ID: 1}})
	assert.NoError(t, err)
	assert.Empty(t, bus.published())
}

func TestMe_CreatesMissingProfile(t *testing.T) {
	st := &mockStore{}
	st.On("GetCustomerByUserID", mock.Anything, int64(5)).Return(nil, store.ErrNotFound)
	st.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(c *models.Customer) bool {
		return c.UserID == 5 && c.Membership == models.MembershipGolden
	})).Return(nil)

	customer, err := NewCustomerService(st, models.MembershipGolden).Me(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), customer.UserID)
}

func TestUpdateMe(t *testing.T) {
	t.Run("rejects unknown membership", func(t *testing.T) {
		st := &mockStore{}
		_, err := NewCustomerService(st, models.MembershipSilver).UpdateMe(context.Background(), 5,
			CustomerInput{Membership: "P"})
		assert.True(t, IsValidation(err))
	})

	t.Run("rejects future birth date", func(t *testing.T) {
		st := &mockStore{}
		future := time.Now().Add(48 * time.Hour)
		_, err := NewCustomerService(st, models.MembershipSilver).UpdateMe(context.Background(), 5,
			CustomerInput{Membership: models.MembershipBronze, BirthDate: &future})
		assert.True(t, IsValidation(err))
	})

	t.Run("updates profile", func(t *testing.T) {
		st := &mockStore{}
		st.On("GetCustomerByUserID", mock.Anything, int64(5)).
			Return(&models.Customer{ID: 2, UserID: 5, Membership: models.MembershipSilver}, nil)
		st.On("UpdateCustomer", mock.Anything, mock.Anything).Return(nil)

		customer, err := NewCustomerService(st, models.MembershipSilver).UpdateMe(context.Background(), 5,
			CustomerInput{Membership: models.MembershipGolden, Phone: " 555-0100 "})
		require.NoError(t, err)
		assert.Equal(t, models.MembershipGolden, customer.Membership)
		assert.Equal(t, "555-0100", customer.Phone)
	})
}

func TestDeleteCustomer_WithOrders(t *testing.T) {
	st := &mockStore{}
	st.On("DeleteCustomer", mock.Anything, int64(2)).Return(store.ErrHasDependents)

	err := NewCustomerService(st, models.MembershipSilver).Delete(context.Background(), 2)
	assert.True(t, IsConflict(err))
}
