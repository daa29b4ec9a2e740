package flow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/boma/quote-engine/cache"
	"github.com/boma/quote-engine/motor"
	"github.com/boma/quote-engine/pricing"
	"github.com/boma/quote-engine/upstream"
)

// DebounceInterval is the trailing delay between the last form edit and
// the authoritative premium calculation.
const DebounceInterval = 400 * time.Millisecond

// PricingService is the slice of the pricing service the controller uses.
type PricingService interface {
	CalculatePremium(ctx context.Context, productType string, inputs motor.Fields) (*motor.PricingResult, error)
	CompareUnderwritersBySubcategory(ctx context.Context, subcategoryCode string, inputs motor.Fields) ([]pricing.ComparisonRecord, error)
	Underwriters(ctx context.Context, categoryCode, subcategoryCode string) ([]motor.Underwriter, error)
	SubmitQuotation(ctx context.Context, payload any) (*upstream.QuotationAck, error)
}

var _ PricingService = (*pricing.Service)(nil)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns one quotation journey: the state, the debounced premium
// calculation, and the underwriter/comparison caches. Safe for concurrent
// use.
type Controller struct {
	mu    sync.Mutex
	state State

	svc   PricingService
	cache cache.Store

	now      func() time.Time
	debounce time.Duration
	timer    *time.Timer

	// calcGen makes the premium calculation last-request-wins: a result is
	// committed only if no newer calculation started after it.
	calcGen    uint64
	calcCancel context.CancelFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the controller's time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithDebounceInterval replaces the 400ms default.
func WithDebounceInterval(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// NewController creates a journey controller over the given pricing
// service and cache store.
func NewController(svc PricingService, store cache.Store, opts ...Option) *Controller {
	c := &Controller{
		state:    NewState(),
		svc:      svc,
		cache:    store,
		now:      time.Now,
		debounce: DebounceInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies an action through the reducer and returns the new state.
func (c *Controller) Dispatch(action Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, action)
	return c.state
}

// =============================================================================
// DEBOUNCED PREMIUM CALCULATION
// =============================================================================

// RequestPremiumCalculation schedules a premium calculation after the
// debounce interval. Consecutive calls within the interval collapse into
// one trailing calculation. Invalid inputs populate the validation result
// and nothing is scheduled.
func (c *Controller) RequestPremiumCalculation() {
	c.mu.Lock()
	productType := c.state.ProductType
	inputs := c.state.VehicleDetails.Merge(c.state.PricingInputs)
	c.mu.Unlock()

	if errs := motor.ValidatePricingInputs(productType, inputs); !motor.IsFormValid(errs) {
		c.Dispatch(SetValidation{Validation: errs})
		return
	}
	c.Dispatch(SetValidation{Validation: nil})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.CalculatePremiumNow(context.Background())
	})
}

// CalculatePremiumNow runs the premium calculation immediately. A newer
// calculation started while this one was in flight wins: the stale result
// is discarded, never committed.
func (c *Controller) CalculatePremiumNow(ctx context.Context) {
	c.mu.Lock()
	c.calcGen++
	gen := c.calcGen
	if c.calcCancel != nil {
		c.calcCancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.calcCancel = cancel

	productType := c.state.ProductType
	inputs := c.state.VehicleDetails.Merge(c.state.PricingInputs)

	loading := c.state.Loading
	loading.Pricing = true
	c.state = Reduce(c.state, SetLoading{Loading: loading})
	c.mu.Unlock()

	result, err := c.svc.CalculatePremium(ctx, productType, inputs)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.calcGen {
		// A newer calculation superseded this one.
		return
	}

	loading = c.state.Loading
	loading.Pricing = false
	c.state = Reduce(c.state, SetLoading{Loading: loading})

	if err != nil {
		errs := c.state.Errors
		errs.Pricing = err.Error()
		c.state = Reduce(c.state, SetErrors{Errors: errs})
		return
	}

	errs := c.state.Errors
	errs.Pricing = ""
	c.state = Reduce(c.state, SetErrors{Errors: errs})
	c.state = Reduce(c.state, SetCalculatedPremium{Result: result})
}

// =============================================================================
// UNDERWRITER LOADING
// =============================================================================

// LoadUnderwriters returns the underwriter panel for the current category
// and subcategory. A fresh cache entry is served immediately and refreshed
// in the background; a stale or missing entry forces a synchronous fetch.
// On failure the generic fallback entry is served, or an empty list; the
// error lands in state, never in the return.
func (c *Controller) LoadUnderwriters(ctx context.Context) []motor.Underwriter {
	c.mu.Lock()
	categoryCode := c.state.SelectedCategory
	subcategoryCode := c.state.SelectedSubcategory
	c.mu.Unlock()

	key := cache.UnderwritersKey(categoryCode, subcategoryCode)

	if entry, ok, err := c.cache.Get(ctx, key); err == nil && ok && entry.Fresh(cache.UnderwritersTTL, c.now()) {
		var uws []motor.Underwriter
		if err := json.Unmarshal(entry.Data, &uws); err == nil {
			c.Dispatch(SetUnderwriters{Underwriters: uws})
			go c.refreshUnderwriters(categoryCode, subcategoryCode, key)
			return uws
		}
	}

	uws, err := c.fetchAndCacheUnderwriters(ctx, categoryCode, subcategoryCode, key)
	if err == nil {
		c.Dispatch(SetUnderwriters{Underwriters: uws})
		return uws
	}

	log.Printf("[Flow] Underwriter fetch failed, using fallback: %v", err)
	c.setGeneralError(err.Error())

	if entry, ok, ferr := c.cache.Get(ctx, cache.UnderwritersFallbackKey); ferr == nil && ok {
		var fallback []motor.Underwriter
		if err := json.Unmarshal(entry.Data, &fallback); err == nil {
			c.Dispatch(SetUnderwriters{Underwriters: fallback})
			return fallback
		}
	}

	c.Dispatch(SetUnderwriters{Underwriters: nil})
	return nil
}

// refreshUnderwriters re-fetches a served-from-cache panel so the next
// read is current. Failures are logged only; the user already has a list.
func (c *Controller) refreshUnderwriters(categoryCode, subcategoryCode, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	uws, err := c.fetchAndCacheUnderwriters(ctx, categoryCode, subcategoryCode, key)
	if err != nil {
		log.Printf("[Flow] Background underwriter refresh failed: %v", err)
		return
	}
	c.Dispatch(SetUnderwriters{Underwriters: uws})
}

func (c *Controller) fetchAndCacheUnderwriters(ctx context.Context, categoryCode, subcategoryCode, key string) ([]motor.Underwriter, error) {
	uws, err := c.svc.Underwriters(ctx, categoryCode, subcategoryCode)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(uws); err == nil {
		entry := cache.Entry{Data: data, Timestamp: c.now()}
		if err := c.cache.Set(ctx, key, entry); err != nil {
			log.Printf("[Flow] Cache write failed for %s: %v", key, err)
		}
		if err := c.cache.Set(ctx, cache.UnderwritersFallbackKey, entry); err != nil {
			log.Printf("[Flow] Cache write failed for %s: %v", cache.UnderwritersFallbackKey, err)
		}
	}
	return uws, nil
}

// =============================================================================
// COMPARISON
// =============================================================================

// comparisonCacheEntry is the persisted comparison payload. The hash pins
// the cached records to the exact inputs that produced them.
type comparisonCacheEntry struct {
	Hash    string                     `json:"hash"`
	Records []pricing.ComparisonRecord `json:"records"`
}

// ComparePricing compares underwriters for the current subcategory. A
// fresh cached comparison for identical inputs short-circuits the network.
// Failures land in Errors.Comparison and are returned; there is no retry.
func (c *Controller) ComparePricing(ctx context.Context) ([]pricing.ComparisonRecord, error) {
	c.mu.Lock()
	subcategoryCode := c.state.SelectedSubcategory
	productType := c.state.ProductType
	category := c.state.SelectedCategory
	inputs := c.state.VehicleDetails.Merge(c.state.PricingInputs)
	inputs["product_type"] = productType
	c.mu.Unlock()

	hash := comparisonHash(productType, category, subcategoryCode, inputs)
	key := cache.ComparisonKey(subcategoryCode)

	if entry, ok, err := c.cache.Get(ctx, key); err == nil && ok && entry.Fresh(cache.ComparisonTTL, c.now()) {
		var cached comparisonCacheEntry
		if err := json.Unmarshal(entry.Data, &cached); err == nil && cached.Hash == hash {
			c.Dispatch(SetPricingComparison{Records: cached.Records})
			return cached.Records, nil
		}
	}

	records, err := c.svc.CompareUnderwritersBySubcategory(ctx, subcategoryCode, inputs)
	if err != nil {
		c.mu.Lock()
		errs := c.state.Errors
		errs.Comparison = err.Error()
		c.state = Reduce(c.state, SetErrors{Errors: errs})
		c.mu.Unlock()
		return nil, err
	}

	c.Dispatch(SetPricingComparison{Records: records})

	if data, err := json.Marshal(comparisonCacheEntry{Hash: hash, Records: records}); err == nil {
		if err := c.cache.Set(ctx, key, cache.Entry{Data: data, Timestamp: c.now()}); err != nil {
			log.Printf("[Flow] Cache write failed for %s: %v", key, err)
		}
	}
	return records, nil
}

// comparisonHash fingerprints the inputs a comparison depends on.
func comparisonHash(productType, categoryCode, subcategoryCode string, inputs motor.Fields) string {
	fingerprint := struct {
		ProductType  string `json:"product_type"`
		Category     string `json:"category"`
		Subcategory  string `json:"subcategory"`
		Registration any    `json:"registration"`
		SumInsured   any    `json:"sum_insured"`
		Tonnage      any    `json:"tonnage"`
		Capacity     any    `json:"capacity"`
	}{
		ProductType: productType,
		Category:    categoryCode,
		Subcategory: subcategoryCode,
	}
	fingerprint.Registration = inputs["vehicle_registration"]
	fingerprint.SumInsured = firstField(inputs, "sum_insured", "sumInsured", "vehicle_value")
	fingerprint.Tonnage = inputs["tonnage"]
	fingerprint.Capacity = firstField(inputs, "passengers", "passengerCapacity", "passenger_count")

	data, _ := json.Marshal(fingerprint)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func firstField(inputs motor.Fields, keys ...string) any {
	for _, k := range keys {
		if v, ok := inputs[k]; ok {
			return v
		}
	}
	return nil
}

// =============================================================================
// SUBMISSION
// =============================================================================

// QuotationPayload is the composed submission document.
type QuotationPayload struct {
	Category        string                        `json:"category,omitempty"`
	SubcategoryCode string                        `json:"subcategory_code,omitempty"`
	ProductType     string                        `json:"product_type,omitempty"`
	VehicleDetails  motor.Fields                  `json:"vehicle_details"`
	PricingInputs   motor.Fields                  `json:"pricing_inputs"`
	ClientDetails   motor.Fields                  `json:"client_details"`
	Underwriter     *motor.Underwriter            `json:"underwriter,omitempty"`
	Premium         *motor.PricingResult          `json:"premium,omitempty"`
	Addons          *motor.TotalAddonsCalculation `json:"addons,omitempty"`
}

// SubmitQuotation composes the journey into a quotation payload and
// forwards it upstream. The failure, if any, lands in Errors.Submit as
// well as the return.
func (c *Controller) SubmitQuotation(ctx context.Context) (*upstream.QuotationAck, error) {
	c.mu.Lock()
	payload := QuotationPayload{
		Category:        c.state.SelectedCategory,
		SubcategoryCode: c.state.SelectedSubcategory,
		ProductType:     c.state.ProductType,
		VehicleDetails:  c.state.VehicleDetails.Clone(),
		PricingInputs:   c.state.PricingInputs.Clone(),
		ClientDetails:   c.state.ClientDetails.Clone(),
		Underwriter:     c.state.SelectedUnderwriter,
		Premium:         c.state.CalculatedPremium,
		Addons:          c.state.AddonTotals,
	}
	loading := c.state.Loading
	loading.Submit = true
	c.state = Reduce(c.state, SetLoading{Loading: loading})
	c.mu.Unlock()

	ack, err := c.svc.SubmitQuotation(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	loading = c.state.Loading
	loading.Submit = false
	c.state = Reduce(c.state, SetLoading{Loading: loading})

	errs := c.state.Errors
	if err != nil {
		errs.Submit = err.Error()
		c.state = Reduce(c.state, SetErrors{Errors: errs})
		return nil, err
	}
	errs.Submit = ""
	c.state = Reduce(c.state, SetErrors{Errors: errs})
	return ack, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Controller) setGeneralError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	errs := c.state.Errors
	errs.General = msg
	c.state = Reduce(c.state, SetErrors{Errors: errs})
}

// Close stops the debounce timer and cancels any in-flight calculation.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.calcCancel != nil {
		c.calcCancel()
	}
}
