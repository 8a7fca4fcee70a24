package application

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dfigueredo/PosAdmin/internal/catalog"
	"github.com/dfigueredo/PosAdmin/internal/customer"
	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
)

// ProductCatalog is the slice of the catalog service checkout needs.
type ProductCatalog interface {
	GetByID(id string) (*catalog.Product, error)
	DecrementForSale(productID string, quantity int) error
	AdjustStock(id string, delta int) (*catalog.Product, error)
}

// CustomerDirectory resolves checkout customers.
type CustomerDirectory interface {
	GetByID(id string) (*customer.Customer, error)
	WalkIn() (*customer.Customer, error)
}

// RateSource supplies the single exchange rate applied to a whole checkout.
type RateSource interface {
	CurrentValue() float64
}

// MethodCatalog supplies the payment method catalog to the ledger.
type MethodCatalog interface {
	GetByID(id string) (*domain.PaymentMethod, error)
	MethodsByID() (map[string]domain.PaymentMethod, error)
}

// DrawerRecorder writes drawer movements for completed sales.
type DrawerRecorder interface {
	RecordSale(sale *domain.Sale) error
}

// SessionView is the snapshot of a checkout session returned to the UI
// after every mutation.
type SessionView struct {
	ID             string                 `json:"id"`
	CashierID      string                 `json:"cashier_id"`
	Stage          string                 `json:"stage"`
	Cart           domain.Cart            `json:"cart"`
	CustomerID     string                 `json:"customer_id,omitempty"`
	Payments       []domain.Payment       `json:"payments"`
	ChangePayments []domain.ChangePayment `json:"change_payments"`
	Rate           float64                `json:"rate"`
	Snapshot       domain.Snapshot        `json:"snapshot"`
	CanComplete    bool                   `json:"can_complete"`
}

// CheckoutService owns the in-memory checkout sessions. All session state is
// guarded by one mutex: a session has a single writer and every snapshot is
// computed against a consistent read of the payment lists.
type CheckoutService struct {
	mu        sync.Mutex
	sessions  map[string]*domain.Session
	byCashier map[string]string

	products  ProductCatalog
	customers CustomerDirectory
	methods   MethodCatalog
	rates     RateSource
	sales     domain.SaleRepository
	drawer    DrawerRecorder
}

func NewCheckoutService(
	products ProductCatalog,
	customers CustomerDirectory,
	methods MethodCatalog,
	rates RateSource,
	sales domain.SaleRepository,
	drawer DrawerRecorder,
) *CheckoutService {
	return &CheckoutService{
		sessions:  make(map[string]*domain.Session),
		byCashier: make(map[string]string),
		products:  products,
		customers: customers,
		methods:   methods,
		rates:     rates,
		sales:     sales,
		drawer:    drawer,
	}
}

// StartSession returns the cashier's active session, creating one when none
// exists. Each cashier owns at most one checkout at a time.
func (s *CheckoutService) StartSession(cashierID string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID, ok := s.byCashier[cashierID]; ok {
		if session, ok := s.sessions[sessionID]; ok {
			return s.view(session)
		}
	}

	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		CashierID: cashierID,
		Stage:     domain.StageProductSelection,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[session.ID] = session
	s.byCashier[cashierID] = session.ID
	return s.view(session)
}

func (s *CheckoutService) GetSession(sessionID string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(session)
}

// AddProduct adds quantity units of a product to the cart, snapshotting the
// current catalog price into the line.
func (s *CheckoutService) AddProduct(sessionID, productID string, quantity int) (*SessionView, error) {
	if quantity < 1 {
		return nil, posErrors.NewFieldValidationError("quantity", "must be at least 1")
	}

	product, err := s.products.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, catalog.ErrProductDeactivated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != domain.StageProductSelection {
		return nil, domain.ErrWrongStage
	}

	inCart := 0
	for _, line := range session.Cart.Lines {
		if line.ProductID == productID {
			inCart = line.Quantity
		}
	}
	if inCart+quantity > product.Stock {
		return nil, catalog.ErrInsufficientStock
	}

	session.Cart.Upsert(domain.CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  quantity,
	})
	session.UpdatedAt = time.Now()
	return s.view(session)
}

// SetLineQuantity replaces a cart line's quantity; below 1 removes the line.
func (s *CheckoutService) SetLineQuantity(sessionID, productID string, quantity int) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != domain.StageProductSelection {
		return nil, domain.ErrWrongStage
	}

	session.Cart.SetQuantity(productID, quantity)
	session.UpdatedAt = time.Now()
	return s.view(session)
}

// SelectCustomer binds a customer to the session. An empty ID selects the
// walk-in default.
func (s *CheckoutService) SelectCustomer(sessionID, customerID string) (*SessionView, error) {
	var resolved *customer.Customer
	var err error
	if strings.TrimSpace(customerID) == "" {
		resolved, err = s.customers.WalkIn()
	} else {
		resolved, err = s.customers.GetByID(customerID)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != domain.StageCustomerSelection {
		return nil, domain.ErrWrongStage
	}

	session.CustomerID = resolved.ID
	session.UpdatedAt = time.Now()
	return s.view(session)
}

func (s *CheckoutService) AddPayment(sessionID, methodID string, amount domain.Cents) (*SessionView, error) {
	if amount <= 0 {
		return nil, posErrors.ErrInvalidAmount
	}
	if _, err := s.methods.GetByID(methodID); err != nil {
		return nil, posErrors.ErrUnknownPaymentMethod
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != domain.StagePayment {
		return nil, domain.ErrWrongStage
	}

	session.Payments = append(session.Payments, domain.Payment{MethodID: methodID, Amount: amount})
	session.UpdatedAt = time.Now()
	return s.view(session)
}

func (s *CheckoutService) RemovePayment(sessionID string, index int) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != domain.StagePayment {
		return nil, domain.ErrWrongStage
	}
	if index < 0 || index >= len(session.Payments) {
		return nil, posErrors.NewFieldValidationError("index", "payment does not exist")
	}

	session.Payments = append(session.Payments[:index], session.Payments[index+1:]...)
	session.UpdatedAt = time.Now()
	return s.view(session)
}

// AddChangePayment records change handed back to the customer. The method
// must be change-capable and the normalized amount may not exceed the change
// still owed: over-disbursing change is rejected, not clamped.
func (s *CheckoutService) AddChangePayment(sessionID, methodID string, amount domain.Cents) (*SessionView, error) {
	if amount <= 0 {
		return nil, posErrors.ErrInvalidAmount
	}

	method, err := s.methods.GetByID(methodID)
	if err != nil {
		return nil, posErrors.ErrUnknownPaymentMethod
	}
	if !method.GivesChange {
		return nil, posErrors.ErrMethodGivesNoChange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != domain.StagePayment {
		return nil, domain.ErrWrongStage
	}

	rate := s.rates.CurrentValue()
	normalized, err := domain.NormalizeToReference(amount, method.Currency, rate)
	if err != nil {
		return nil, posErrors.NewValidationError("No exchange rate available to normalize the change amount")
	}

	snap, err := s.snapshot(session)
	if err != nil {
		return nil, err
	}
	if normalized > snap.RemainingChange {
		return nil, posErrors.ErrChangeExceedsOwed
	}

	session.ChangePayments = append(session.ChangePayments, domain.ChangePayment{MethodID: methodID, Amount: amount})
	session.UpdatedAt = time.Now()
	return s.view(session)
}

func (s *CheckoutService) RemoveChangePayment(sessionID string, index int) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != domain.StagePayment {
		return nil, domain.ErrWrongStage
	}
	if index < 0 || index >= len(session.ChangePayments) {
		return nil, posErrors.NewFieldValidationError("index", "change payment does not exist")
	}

	session.ChangePayments = append(session.ChangePayments[:index], session.ChangePayments[index+1:]...)
	session.UpdatedAt = time.Now()
	return s.view(session)
}

// Advance moves the session one stage forward. Advancing out of the payment
// stage completes the sale.
func (s *CheckoutService) Advance(sessionID string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}

	if session.Stage == domain.StagePayment {
		view, _, err := s.complete(session)
		return view, err
	}

	snap, err := s.snapshot(session)
	if err != nil {
		return nil, err
	}
	if err := session.Advance(snap); err != nil {
		return nil, err
	}
	return s.view(session)
}

func (s *CheckoutService) Back(sessionID string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Back(); err != nil {
		return nil, err
	}
	return s.view(session)
}

// Complete finalizes the sale: persists it, adjusts stock, records drawer
// movements and discards the session.
func (s *CheckoutService) Complete(sessionID string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != domain.StagePayment {
		return nil, domain.ErrWrongStage
	}
	_, sale, err := s.complete(session)
	return sale, err
}

func (s *CheckoutService) complete(session *domain.Session) (*SessionView, *domain.Sale, error) {
	snap, err := s.snapshot(session)
	if err != nil {
		return nil, nil, err
	}
	if err := session.Advance(snap); err != nil {
		return nil, nil, err
	}

	rate := s.rates.CurrentValue()
	methods, err := s.methods.MethodsByID()
	if err != nil {
		return nil, nil, err
	}

	sale, err := buildSale(session, snap, rate, methods)
	if err != nil {
		return nil, nil, err
	}

	restoreStock := func(items []domain.SaleItem) {
		for _, done := range items {
			if _, restoreErr := s.products.AdjustStock(done.ProductID, done.Quantity); restoreErr != nil {
				log.Printf("Could not restore stock for product %s: %v", done.ProductID, restoreErr)
			}
		}
	}

	var decremented []domain.SaleItem
	for _, item := range sale.Items {
		if err := s.products.DecrementForSale(item.ProductID, item.Quantity); err != nil {
			restoreStock(decremented)
			session.Stage = domain.StagePayment
			return nil, nil, err
		}
		decremented = append(decremented, item)
	}

	if err := s.sales.Save(sale); err != nil {
		restoreStock(decremented)
		session.Stage = domain.StagePayment
		return nil, nil, err
	}

	if err := s.drawer.RecordSale(sale); err != nil {
		log.Printf("Could not record drawer movements for sale %s: %v", sale.Number, err)
	}

	view, err := s.view(session)
	if err != nil {
		return nil, nil, err
	}

	delete(s.sessions, session.ID)
	delete(s.byCashier, session.CashierID)
	return view, sale, nil
}

func buildSale(session *domain.Session, snap domain.Snapshot, rate float64, methods map[string]domain.PaymentMethod) (*domain.Sale, error) {
	toSalePayments := func(methodID string, amount domain.Cents) (domain.SalePayment, error) {
		method, ok := methods[methodID]
		if !ok {
			return domain.SalePayment{}, posErrors.ErrUnknownPaymentMethod
		}
		reference, err := domain.NormalizeToReference(amount, method.Currency, rate)
		if err != nil {
			return domain.SalePayment{}, err
		}
		return domain.SalePayment{
			MethodID:   method.ID,
			MethodName: method.Name,
			Currency:   method.Currency,
			Amount:     amount,
			Reference:  reference,
		}, nil
	}

	sale := &domain.Sale{
		ID:          uuid.NewString(),
		Number:      fmt.Sprintf("V-%s", strings.ToUpper(uuid.NewString()[:8])),
		CashierID:   session.CashierID,
		CustomerID:  session.CustomerID,
		Rate:        rate,
		Subtotal:    snap.Subtotal,
		TotalPaid:   snap.TotalPaid,
		ChangeGiven: snap.TotalChangeGiven,
		CreatedAt:   time.Now(),
	}

	for _, line := range session.Cart.Lines {
		sale.Items = append(sale.Items, domain.SaleItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: line.Total(),
		})
	}
	for _, p := range session.Payments {
		sp, err := toSalePayments(p.MethodID, p.Amount)
		if err != nil {
			return nil, err
		}
		sale.Payments = append(sale.Payments, sp)
	}
	for _, cp := range session.ChangePayments {
		sp, err := toSalePayments(cp.MethodID, cp.Amount)
		if err != nil {
			return nil, err
		}
		sale.ChangePayments = append(sale.ChangePayments, sp)
	}
	return sale, nil
}

// Cancel discards a session and everything entered into it.
func (s *CheckoutService) Cancel(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.find(sessionID)
	if err != nil {
		return err
	}

	delete(s.sessions, session.ID)
	delete(s.byCashier, session.CashierID)
	return nil
}

// CleanupStale drops sessions idle for longer than maxAge. Called by the
// scheduler.
func (s *CheckoutService) CleanupStale(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for id, session := range s.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.byCashier, session.CashierID)
			removed++
		}
	}
	return removed
}

func (s *CheckoutService) find(sessionID string) (*domain.Session, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *CheckoutService) snapshot(session *domain.Session) (domain.Snapshot, error) {
	methods, err := s.methods.MethodsByID()
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.ComputeSnapshot(domain.LedgerInput{
		Lines:          session.Cart.Lines,
		Rate:           s.rates.CurrentValue(),
		Methods:        methods,
		Payments:       session.Payments,
		ChangePayments: session.ChangePayments,
	}), nil
}

func (s *CheckoutService) view(session *domain.Session) (*SessionView, error) {
	snap, err := s.snapshot(session)
	if err != nil {
		return nil, err
	}

	payments := session.Payments
	if payments == nil {
		payments = []domain.Payment{}
	}
	changePayments := session.ChangePayments
	if changePayments == nil {
		changePayments = []domain.ChangePayment{}
	}

	return &SessionView{
		ID:             session.ID,
		CashierID:      session.CashierID,
		Stage:          session.Stage.String(),
		Cart:           session.Cart,
		CustomerID:     session.CustomerID,
		Payments:       payments,
		ChangePayments: changePayments,
		Rate:           s.rates.CurrentValue(),
		Snapshot:       snap,
		CanComplete:    snap.CanComplete(),
	}, nil
}
