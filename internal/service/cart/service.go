package cart

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

type Service struct {
	repo        cartRepo
	productRepo productRepo
}

type cartRepo interface {
	Create(ctx context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, websiteID, id string) (*domain.Cart, error)
	GetActiveByCustomer(ctx context.Context, websiteID, customerID string) (*domain.Cart, error)
	GetActiveByAnonymous(ctx context.Context, websiteID, anonymousID string) (*domain.Cart, error)
	AssignCustomerToAnonymous(ctx context.Context, websiteID, anonymousID, customerID string) (*domain.Cart, error)
	AddLineItem(ctx context.Context, cartID string, product domain.Product, quantity int, snapshot map[string]interface{}) error
	ChangeLineItemQuantity(ctx context.Context, cartID, lineItemID string, quantity int) error
	RemoveLineItem(ctx context.Context, cartID, lineItemID string) error
	Clear(ctx context.Context, cartID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, websiteID, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, websiteID, sku string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, productRepo productRepo) *Service {
	return &Service{repo: repo, productRepo: productRepo}
}

type CreateInput struct {
	Currency string `json:"currency"`
}

type UpdateInput struct {
	Actions []UpdateAction `json:"actions"`
}

type UpdateAction struct {
	Action     string `json:"action"`
	SKU        string `json:"sku,omitempty"`
	ProductID  string `json:"productId,omitempty"`
	LineItemID string `json:"lineItemId,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
}

// Create opens a new active cart for the owner.
func (s *Service) Create(ctx context.Context, websiteID string, owner domain.Owner, in CreateInput) (*domain.Cart, error) {
	if strings.TrimSpace(in.Currency) == "" {
		return nil, errors.New("currency required")
	}
	if owner.IsZero() {
		return nil, domain.ErrNotFound
	}
	input := cartrepo.CreateCartInput{WebsiteID: websiteID, Currency: strings.ToUpper(in.Currency)}
	if owner.IsCustomer() {
		input.CustomerID = &owner.CustomerID
	} else {
		input.AnonymousID = &owner.AnonymousID
	}
	return s.repo.Create(ctx, input)
}

// Active returns the owner's active cart.
func (s *Service) Active(ctx context.Context, websiteID string, owner domain.Owner) (*domain.Cart, error) {
	switch {
	case owner.IsCustomer():
		return s.repo.GetActiveByCustomer(ctx, websiteID, owner.CustomerID)
	case owner.AnonymousID != "":
		return s.repo.GetActiveByAnonymous(ctx, websiteID, owner.AnonymousID)
	default:
		return nil, domain.ErrNotFound
	}
}

// Clear empties the cart after an order has been placed from it.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	return s.repo.Clear(ctx, cartID)
}

// MergeAnonymous hands the guest cart over to a customer who just signed in.
// When the customer already has an active cart the guest lines are added to
// it and the guest cart is emptied.
func (s *Service) MergeAnonymous(ctx context.Context, websiteID, anonymousID, customerID string) (*domain.Cart, error) {
	guest, err := s.repo.GetActiveByAnonymous(ctx, websiteID, anonymousID)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.GetActiveByCustomer(ctx, websiteID, customerID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.repo.AssignCustomerToAnonymous(ctx, websiteID, anonymousID, customerID)
	}
	if err != nil {
		return nil, err
	}
	for _, line := range guest.Lines {
		product, err := s.productRepo.GetByID(ctx, websiteID, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if err := s.repo.AddLineItem(ctx, existing.ID, *product, line.Quantity, snapshotFromProduct(*product)); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Clear(ctx, guest.ID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, websiteID, existing.ID)
}

// Update applies cart actions for the owner. Carts of other owners are
// reported as not found.
func (s *Service) Update(ctx context.Context, websiteID string, owner domain.Owner, cartID string, in UpdateInput) (*domain.Cart, error) {
	if len(in.Actions) == 0 {
		return nil, errors.New("actions required")
	}
	cart, err := s.repo.GetByID(ctx, websiteID, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.OwnedBy(owner) {
		return nil, domain.ErrNotFound
	}

	for _, action := range in.Actions {
		switch strings.ToLower(strings.TrimSpace(action.Action)) {
		case "addlineitem":
			if action.Quantity <= 0 {
				return nil, errors.New("quantity must be positive")
			}
			product, err := s.lookupProduct(ctx, websiteID, action)
			if err != nil {
				return nil, err
			}
			if err := s.repo.AddLineItem(ctx, cartID, *product, action.Quantity, snapshotFromProduct(*product)); err != nil {
				return nil, err
			}
		case "changelineitemquantity":
			lineID := strings.TrimSpace(action.LineItemID)
			if lineID == "" {
				return nil, errors.New("lineItemId required")
			}
			if action.Quantity <= 0 {
				return nil, errors.New("quantity must be positive")
			}
			if err := s.repo.ChangeLineItemQuantity(ctx, cartID, lineID, action.Quantity); err != nil {
				return nil, err
			}
		case "removelineitem":
			lineID := strings.TrimSpace(action.LineItemID)
			if lineID == "" {
				return nil, errors.New("lineItemId required")
			}
			if err := s.repo.RemoveLineItem(ctx, cartID, lineID); err != nil {
				return nil, err
			}
		default:
			return nil, errors.New("unsupported action")
		}
	}

	return s.repo.GetByID(ctx, websiteID, cartID)
}

func (s *Service) lookupProduct(ctx context.Context, websiteID string, action UpdateAction) (*domain.Product, error) {
	if s.productRepo == nil {
		return nil, errors.New("product repository unavailable")
	}
	var (
		product *domain.Product
		err     error
	)
	switch {
	case strings.TrimSpace(action.ProductID) != "":
		product, err = s.productRepo.GetByID(ctx, websiteID, strings.TrimSpace(action.ProductID))
	case strings.TrimSpace(action.SKU) != "":
		product, err = s.productRepo.GetBySKU(ctx, websiteID, strings.TrimSpace(action.SKU))
	default:
		return nil, errors.New("sku or productId required")
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, err
	}
	return product, nil
}

func snapshotFromProduct(p domain.Product) map[string]interface{} {
	slug := strings.TrimSpace(p.Key)
	if slug == "" {
		slug = strings.ReplaceAll(strings.ToLower(p.Name), " ", "-")
	}
	snap := map[string]interface{}{
		"productKey":  p.Key,
		"productName": p.Name,
		"sku":         p.SKU,
		"productSlug": slug,
		"priceCents":  p.PriceCents,
		"currency":    p.Currency,
	}
	if images := p.Images(); len(images) > 0 {
		snap["images"] = images
	}
	return snap
}
