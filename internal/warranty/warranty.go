// Package warranty activates warranties against uploaded customer orders and
// files claims against active warranties.
package warranty

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nconklindev/warrantor/internal/columns"
	"github.com/nconklindev/warrantor/internal/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DateLayout is the format of every date this package writes.
const DateLayout = "2006-01-02"

// PeriodMonths is how long a warranty lasts after activation.
const PeriodMonths = 6

const (
	StatusActive  = "Active"
	StatusPending = "Pending"
)

var (
	ErrOrderNotFound    = errors.New("order not found in customer data")
	ErrAlreadyActivated = errors.New("warranty already activated for this order")
	ErrNoWarranty       = errors.New("no active warranty for this order")
	ErrWarrantyExpired  = errors.New("warranty has expired")
	ErrEmptyProblem     = errors.New("problem description is required")
)

// Store is the part of the record store the service needs.
type Store interface {
	Read(c types.Collection) ([]types.Record, error)
	Write(c types.Collection, records []types.Record) error
}

// ExpiryDate returns the last day a warranty activated at activated covers:
// the same day PeriodMonths later, or the last day of that month when it is
// shorter.
func ExpiryDate(activated time.Time) time.Time {
	y, m, d := activated.Date()
	first := time.Date(y, m+PeriodMonths, 1, 0, 0, 0, 0, activated.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	h, mm, sec := activated.Clock()
	return time.Date(first.Year(), first.Month(), d, h, mm, sec, activated.Nanosecond(), activated.Location())
}

type Service struct {
	store  Store
	logger *zap.Logger
	newID  func() string
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, newID: uuid.NewString}
}

// Activate issues a warranty for the customer order orderID, starting at at.
func (s *Service) Activate(orderID string, at time.Time) (types.Record, error) {
	orderID = strings.TrimSpace(orderID)

	customers, err := s.store.Read(types.CollectionCustomer)
	if err != nil {
		return nil, err
	}
	customer, ok := findByOrder(customers, orderID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	warranties, err := s.store.Read(types.CollectionWarranty)
	if err != nil {
		return nil, err
	}
	if _, ok := findByOrder(warranties, orderID); ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyActivated, orderID)
	}

	w := Issue(customer, at, s.newID())
	if err := s.store.Write(types.CollectionWarranty, append(warranties, w)); err != nil {
		return nil, err
	}

	s.logger.Info("Warranty activated",
		zap.String("order", orderID),
		zap.String("warranty", w["Warranty ID"]),
		zap.String("expires", w["Expiry Date"]))
	return w, nil
}

// SubmitClaim files a claim against the warranty of orderID. Claims are only
// accepted up to and including the expiry date.
func (s *Service) SubmitClaim(orderID, problem string, at time.Time) (types.Record, error) {
	orderID = strings.TrimSpace(orderID)
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return nil, ErrEmptyProblem
	}

	warranties, err := s.store.Read(types.CollectionWarranty)
	if err != nil {
		return nil, err
	}
	w, ok := findByOrder(warranties, orderID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoWarranty, orderID)
	}

	expiry, err := time.Parse(DateLayout, w["Expiry Date"])
	if err != nil {
		return nil, fmt.Errorf("warranty %s has an unreadable expiry date: %w", w["Warranty ID"], err)
	}
	if day(at).After(expiry) {
		return nil, fmt.Errorf("%w: expired on %s", ErrWarrantyExpired, w["Expiry Date"])
	}

	claims, err := s.store.Read(types.CollectionClaim)
	if err != nil {
		return nil, err
	}

	claim := types.Record{
		"Claim ID":            s.newID(),
		"Warranty ID":         w["Warranty ID"],
		"Order ID":            w["Order ID"],
		"Customer Name":       w["Customer Name"],
		"Email":               w["Email"],
		"Product Name":        w["Product Name"],
		"Problem Description": problem,
		"Claim Date":          at.Format(DateLayout),
		"Status":              StatusPending,
	}
	if err := s.store.Write(types.CollectionClaim, append(claims, claim)); err != nil {
		return nil, err
	}

	s.logger.Info("Claim submitted",
		zap.String("order", orderID),
		zap.String("claim", claim["Claim ID"]))
	return claim, nil
}

// Issue builds the warranty record for a customer order.
func Issue(customer types.Record, at time.Time, id string) types.Record {
	field := func(label string) string {
		v, _ := columns.Lookup(customer, label)
		return strings.TrimSpace(v)
	}

	return types.Record{
		"Warranty ID":     id,
		"Order ID":        field("Order ID"),
		"Customer Name":   field("Customer Name"),
		"Email":           field("Email"),
		"Phone":           field("Phone"),
		"Product Name":    field("Product Name"),
		"Product Model":   field("Product Model"),
		"Purchase Date":   field("Purchase Date"),
		"Activation Date": at.Format(DateLayout),
		"Expiry Date":     ExpiryDate(day(at)).Format(DateLayout),
		"Status":          StatusActive,
	}
}

func findByOrder(records []types.Record, orderID string) (types.Record, bool) {
	if orderID == "" {
		return nil, false
	}
	for _, r := range records {
		if v, ok := columns.Lookup(r, "Order ID"); ok && strings.TrimSpace(v) == orderID {
			return r, true
		}
	}
	return nil, false
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
