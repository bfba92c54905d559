package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/drme990/manasik-v2-sub001/models"
	"github.com/drme990/manasik-v2-sub001/repository"
	"github.com/drme990/manasik-v2-sub001/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errStoreDown = errors.New("connection refused")

var testLogger = zap.NewNop()

// --- Coupon repository ---

type mockCouponRepo struct {
	mu          sync.Mutex
	coupons     map[string]*models.Coupon
	redemptions map[string]*models.CouponRedemption
	findErr     error
	countErr    error
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{
		coupons:     make(map[string]*models.Coupon),
		redemptions: make(map[string]*models.CouponRedemption),
	}
}

func (m *mockCouponRepo) add(c *models.Coupon) *models.Coupon {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Status == "" {
		c.Status = models.CouponStatusActive
	}
	m.coupons[strings.ToUpper(c.Code)] = c
	return c
}

func (m *mockCouponRepo) Create(_ context.Context, c *models.Coupon) error {
	if _, ok := m.coupons[strings.ToUpper(c.Code)]; ok {
		return repository.ErrDuplicate
	}
	m.add(c)
	return nil
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	c, ok := m.coupons[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (m *mockCouponRepo) FindAll(_ context.Context, _, _ int) ([]models.Coupon, int64, error) {
	var out []models.Coupon
	for _, c := range m.coupons {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (m *mockCouponRepo) UpdateStatus(_ context.Context, code string, status models.CouponStatus) error {
	c, ok := m.coupons[strings.ToUpper(code)]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = status
	return nil
}

// Redeem mirrors the conditional update: increment only while active and below max_uses.
func (m *mockCouponRepo) Redeem(_ context.Context, r *models.CouponRedemption) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.redemptions[r.OrderID]; ok {
		return nil, repository.ErrAlreadyRedeemed
	}
	var target *models.Coupon
	for _, c := range m.coupons {
		if c.ID == r.CouponID {
			target = c
		}
	}
	if target == nil || target.Status != models.CouponStatusActive ||
		(target.MaxUses != nil && target.UsedCount >= *target.MaxUses) {
		return nil, repository.ErrUsageLimitReached
	}
	target.UsedCount++
	m.redemptions[r.OrderID] = r
	cp := *target
	return &cp, nil
}

func (m *mockCouponRepo) CountUserRedemptions(_ context.Context, couponID primitive.ObjectID, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	var n int64
	for _, r := range m.redemptions {
		if r.CouponID == couponID && r.UserID == userID {
			n++
		}
	}
	return n, nil
}

// --- Activities ---

type fakeActivities struct {
	mu       sync.Mutex
	recorded []models.Activity
}

func (f *fakeActivities) Record(_ context.Context, a models.Activity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, a)
}

func (f *fakeActivities) ListActivities(_ context.Context, _, _ int) ([]models.Activity, int64, *services.ServiceError) {
	return f.recorded, int64(len(f.recorded)), nil
}

func (f *fakeActivities) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, a := range f.recorded {
		out = append(out, a.Action)
	}
	return out
}

// --- SNS ---

type mockSNSPublisher struct {
	mu        sync.Mutex
	published [][]byte
	err       error
}

func (m *mockSNSPublisher) Publish(_ context.Context, _ string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, message)
	return nil
}

// --- Currency ---

type fakeProvider struct {
	rates map[string]map[string]float64
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) FetchRates(_ context.Context, base string) (map[string]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rates[base], nil
}

type fakeCache struct {
	tables map[string]*models.ExchangeRateTable
	err    error
}

func newFakeCache() *fakeCache {
	return &fakeCache{tables: make(map[string]*models.ExchangeRateTable)}
}

func (f *fakeCache) Get(_ context.Context, base string) (*models.ExchangeRateTable, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tables[base]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return t, nil
}

func (f *fakeCache) Set(_ context.Context, t *models.ExchangeRateTable, _ time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.tables[t.Base] = t
	return nil
}

type fakeRateStore struct {
	tables map[string]*models.ExchangeRateTable
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{tables: make(map[string]*models.ExchangeRateTable)}
}

func (f *fakeRateStore) Save(_ context.Context, t *models.ExchangeRateTable) error {
	f.tables[t.Base] = t
	return nil
}

func (f *fakeRateStore) FindByBase(_ context.Context, base string) (*models.ExchangeRateTable, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tables[base]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

// --- Orders and referrals ---

type mockOrderRepo struct {
	orders  map[int64]*models.Order
	findErr error
}

func newMockOrderRepo(orders ...*models.Order) *mockOrderRepo {
	m := &mockOrderRepo{orders: make(map[int64]*models.Order)}
	for _, o := range orders {
		m.orders[o.PaymobOrderID] = o
	}
	return m
}

func (m *mockOrderRepo) FindByPaymobOrderID(_ context.Context, id int64) (*models.Order, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) MarkPaid(_ context.Context, id, txID int64, paidAt time.Time) (bool, error) {
	o, ok := m.orders[id]
	if !ok || o.Status != models.OrderStatusPending {
		return false, nil
	}
	o.Status = models.OrderStatusPaid
	o.TransactionID = txID
	o.PaidAt = &paidAt
	return true, nil
}

func (m *mockOrderRepo) MarkFailed(_ context.Context, id, txID int64) (bool, error) {
	o, ok := m.orders[id]
	if !ok || o.Status != models.OrderStatusPending {
		return false, nil
	}
	o.Status = models.OrderStatusFailed
	o.TransactionID = txID
	return true, nil
}

type mockReferralRepo struct {
	referrals map[string]*models.Referral
	findErr   error
}

func newMockReferralRepo(referrals ...*models.Referral) *mockReferralRepo {
	m := &mockReferralRepo{referrals: make(map[string]*models.Referral)}
	for _, r := range referrals {
		m.referrals[r.ReferralID] = r
	}
	return m
}

func (m *mockReferralRepo) Create(_ context.Context, r *models.Referral) error {
	if _, ok := m.referrals[r.ReferralID]; ok {
		return repository.ErrDuplicate
	}
	m.referrals[r.ReferralID] = r
	return nil
}

func (m *mockReferralRepo) FindByReferralID(_ context.Context, id string) (*models.Referral, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	r, ok := m.referrals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

func (m *mockReferralRepo) FindAll(_ context.Context, _, _ int) ([]models.Referral, int64, error) {
	var out []models.Referral
	for _, r := range m.referrals {
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

// --- Helpers ---

func intPtr(v int) *int              { return &v }
func floatPtr(v float64) *float64    { return &v }
func timePtr(t time.Time) *time.Time { return &t }
