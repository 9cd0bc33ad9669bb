package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketnet/internal/models"
	"marketnet/internal/store"
	"marketnet/internal/util"

	"go.uber.org/zap"
)

// Caller is the authenticated identity behind a request
type Caller struct {
	UserID  int64
	IsStaff bool
}

// CustomerStore is the persistence identities and customers need
type CustomerStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	GetCustomerByUserID(ctx context.Context, userID int64) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	UpdateCustomer(ctx context.Context, c *models.Customer) error
	DeleteCustomer(ctx context.Context, id int64) error
}

// RegisterInput is a new identity
type RegisterInput struct {
	Username  string `json:"username" binding:"required,max=150"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CustomerInput is the editable part of a customer profile
type CustomerInput struct {
	Membership string     `json:"membership"`
	Phone      string     `json:"phone"`
	BirthDate  *time.Time `json:"birth_date"`
}

// IdentityService registers and resolves identities
type IdentityService struct {
	store  CustomerStore
	bus    Publisher
	logger *zap.Logger
}

// NewIdentityService creates a new identity service
func NewIdentityService(store CustomerStore, bus Publisher) *IdentityService {
	return &IdentityService{store: store, bus: bus, logger: util.GetLogger()}
}

// Register creates an identity and announces it once it is committed
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "IdentityService.Register")
	defer span.End()

	user := &models.User{
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if user.Username == "" {
		return nil, invalid("username", "must not be blank")
	}

	err := s.store.CreateUser(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, conflict("username or email already registered")
	}
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("Identity registered", zap.Int64("user_id", user.ID))
	s.bus.Publish(ctx, &models.IdentityCreatedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeIdentityCreated),
		User:      *user,
	})
	return user, nil
}

// Authenticate resolves a caller id to an identity
func (s *IdentityService) Authenticate(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

// Provisioner creates the customer profile for every new identity
type Provisioner struct {
	store      CustomerStore
	bus        Publisher
	membership string
	logger     *zap.Logger
}

// NewProvisioner creates a provisioner that assigns the given membership
func NewProvisioner(store CustomerStore, bus Publisher, membership string) *Provisioner {
	return &Provisioner{store: store, bus: bus, membership: membership, logger: util.GetLogger()}
}

// HandleIdentityCreated is subscribed to IDENTITY_CREATED. An identity that
// already has a profile is left alone.
func (p *Provisioner) HandleIdentityCreated(ctx context.Context, event models.Event) error {
	created, ok := event.(*models.IdentityCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	customer := &models.Customer{UserID: created.User.ID, Membership: p.membership}
	err := p.store.CreateCustomer(ctx, customer)
	if errors.Is(err, store.ErrDuplicate) {
		p.logger.Info("Customer already provisioned", zap.Int64("user_id", created.User.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to provision customer for user %d: %w", created.User.ID, err)
	}

	util.CustomersProvisionedTotal.Inc()
	p.logger.Info("Customer provisioned",
		zap.Int64("user_id", created.User.ID),
		zap.Int64("customer_id", customer.ID))

	p.bus.Publish(ctx, &models.CustomerCreatedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeCustomerCreated),
		Customer:  *customer,
	})
	return nil
}

// CustomerService manages customer profiles
type CustomerService struct {
	store      CustomerStore
	membership string
	logger     *zap.Logger
}

// NewCustomerService creates a customer service. membership is used when
// a missing profile is created on demand.
func NewCustomerService(store CustomerStore, membership string) *CustomerService {
	return &CustomerService{store: store, membership: membership, logger: util.GetLogger()}
}

// Me returns the caller's profile, creating it when provisioning missed it
func (s *CustomerService) Me(ctx context.Context, userID int64) (*models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.Me")
	defer span.End()

	customer, err := s.store.GetCustomerByUserID(ctx, userID)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	customer = &models.Customer{UserID: userID, Membership: s.membership}
	err = s.store.CreateCustomer(ctx, customer)
	if errors.Is(err, store.ErrDuplicate) {
		return s.store.GetCustomerByUserID(ctx, userID)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("Customer created on demand", zap.Int64("user_id", userID))
	return customer, nil
}

// UpdateMe replaces the caller's editable profile fields
func (s *CustomerService) UpdateMe(ctx context.Context, userID int64, in CustomerInput) (*models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.UpdateMe")
	defer span.End()

	if in.Membership == "" {
		in.Membership = s.membership
	}
	if !models.ValidMembership(in.Membership) {
		return nil, invalid("membership", fmt.Sprintf("%q is not a membership tier", in.Membership))
	}
	if in.BirthDate != nil && in.BirthDate.After(time.Now()) {
		return nil, invalid("birth_date", "must be in the past")
	}

	customer, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	customer.Membership = in.Membership
	customer.Phone = strings.TrimSpace(in.Phone)
	customer.BirthDate = in.BirthDate
	if err := s.store.UpdateCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (s *CustomerService) List(ctx context.Context) ([]models.Customer, error) {
	return s.store.ListCustomers(ctx)
}

func (s *CustomerService) Get(ctx context.Context, id int64) (*models.Customer, error) {
	customer, err := s.store.GetCustomer(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return customer, err
}

// Delete removes a customer that has never ordered
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	err := s.store.DeleteCustomer(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrHasDependents):
		return conflict("customer cannot be deleted because they have orders")
	}
	return err
}
