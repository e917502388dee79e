package checkout

import (
	"errors"
	"sync"

	"zatix-checkout/models"
)

var (
	ErrNoMethodSelected = errors.New("checkout: no payment method selected")
	ErrUnknownMethod    = errors.New("checkout: unknown payment method")
	ErrPickerBusy       = errors.New("checkout: method picker is busy")
)

// MethodPicker captures a single choice from the server-supplied payment
// catalog. It performs no computation: the chosen method and the
// untouched line items are handed to the next stage as-is.
type MethodPicker struct {
	mu sync.Mutex

	groups   []models.PaymentMethodGroup
	items    []models.LimitCheckItem
	selected *models.PaymentMethod
	busy     bool
}

func NewMethodPicker(catalog *models.PaymentMethodsResponse, items []models.LimitCheckItem) *MethodPicker {
	var groups []models.PaymentMethodGroup
	if catalog != nil {
		groups = catalog.Groups
	}
	return &MethodPicker{groups: groups, items: items}
}

// Groups exposes the catalog for rendering.
func (p *MethodPicker) Groups() []models.PaymentMethodGroup {
	return p.groups
}

// Select picks a method by code.
func (p *MethodPicker) Select(code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, group := range p.groups {
		for _, method := range group.Methods {
			if method.Code == code {
				m := method
				p.selected = &m
				return nil
			}
		}
	}
	return ErrUnknownMethod
}

// Selected returns the current choice, if any.
func (p *MethodPicker) Selected() (models.PaymentMethod, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == nil {
		return models.PaymentMethod{}, false
	}
	return *p.selected, true
}

// SetBusy mirrors the parent-supplied loading flag: while set, Proceed
// is refused.
func (p *MethodPicker) SetBusy(busy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy = busy
}

// Proceed hands the chosen method plus the original items to the next
// stage. It errors until a method is chosen and while busy.
func (p *MethodPicker) Proceed() (models.PaymentMethod, []models.LimitCheckItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.busy {
		return models.PaymentMethod{}, nil, ErrPickerBusy
	}
	if p.selected == nil {
		return models.PaymentMethod{}, nil, ErrNoMethodSelected
	}
	return *p.selected, p.items, nil
}
