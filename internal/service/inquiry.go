package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"quartz-storefront/internal/core/errs"
	"quartz-storefront/internal/domain"
	"quartz-storefront/pkg/utils"
	"quartz-storefront/pkg/validate"
)

type InquiryService struct {
	contacts  domain.ContactRepository
	enquiries domain.EnquiryRepository
	prods     domain.ProductRepository
	cats      domain.CategoryRepository
	log       *zap.Logger
}

func NewInquiryService(
	contacts domain.ContactRepository,
	enquiries domain.EnquiryRepository,
	prods domain.ProductRepository,
	cats domain.CategoryRepository,
	log *zap.Logger,
) *InquiryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &InquiryService{contacts: contacts, enquiries: enquiries, prods: prods, cats: cats, log: log}
}

type ContactInput struct {
	Name             string `json:"name" binding:"required,max=191"`
	OrganizationName string `json:"organizationName" binding:"required,max=191"`
	Email            string `json:"email" binding:"required,email,max=191"`
	ContactNumber    string `json:"contactNumber" binding:"required,phone"`
	Message          string `json:"message" binding:"required,max=5000"`
}

type EnquiryInput struct {
	Name      string  `json:"name" binding:"required,max=191"`
	Email     string  `json:"email" binding:"required,email,max=191"`
	Company   *string `json:"company" binding:"omitempty,max=191"`
	Message   string  `json:"message" binding:"required,max=5000"`
	ProductID string  `json:"productId" binding:"required,max=32"`
}

type InquiryListInput struct {
	domain.Page
	Search string `form:"search" binding:"max=100"`
}

type EnquiryProduct struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Slug       string              `json:"slug"`
	CategoryID string              `json:"categoryId"`
	Category   *domain.CategoryRef `json:"category"`
}

type EnquiryRow struct {
	domain.Enquiry
	Product *EnquiryProduct `json:"product"`
}

func (s *InquiryService) storeErr(op string, err error) error {
	out := errs.FromStore(err, "")
	if errs.Is(out, errs.UpstreamFailure) {
		s.log.Error("inquiry store call failed", zap.String("op", op), zap.Error(err))
	}
	return out
}

func (s *InquiryService) CreateContact(ctx context.Context, in ContactInput) (*domain.Contact, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c := &domain.Contact{
		ID:               utils.NewID(),
		Name:             strings.TrimSpace(in.Name),
		OrganizationName: strings.TrimSpace(in.OrganizationName),
		Email:            strings.ToLower(strings.TrimSpace(in.Email)),
		ContactNumber:    in.ContactNumber,
		Message:          strings.TrimSpace(in.Message),
	}
	if err := s.contacts.Create(ctx, c); err != nil {
		return nil, s.storeErr("create contact", err)
	}
	return c, nil
}

// CreateEnquiry requires the referenced product to exist at creation time.
func (s *InquiryService) CreateEnquiry(ctx context.Context, in EnquiryInput) (*domain.Enquiry, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.prods.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, s.storeErr("find product", err)
	}
	if p == nil {
		return nil, errs.NotFoundf(msgProductNotFound)
	}
	pid := p.ID
	e := &domain.Enquiry{
		ID:        utils.NewID(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Company:   trimmed(in.Company),
		Message:   strings.TrimSpace(in.Message),
		ProductID: &pid,
	}
	if e.Company != nil && *e.Company == "" {
		e.Company = nil
	}
	if err := s.enquiries.Create(ctx, e); err != nil {
		return nil, s.storeErr("create enquiry", err)
	}
	return e, nil
}

func (s *InquiryService) ListContacts(ctx context.Context, in InquiryListInput) (domain.List[domain.Contact], error) {
	if err := validate.Struct(in); err != nil {
		return domain.List[domain.Contact]{}, err
	}
	in.Page = in.Page.Normalize(10)
	items, total, err := s.contacts.List(ctx, domain.ListFilter{Search: in.Search, Offset: in.Page.Offset(), Limit: in.Limit})
	if err != nil {
		return domain.List[domain.Contact]{}, s.storeErr("list contacts", err)
	}
	return domain.NewList(items, in.Page, total), nil
}

// ListEnquiries joins each row with its product and the product's category.
// Rows whose product was deleted carry a nil product.
func (s *InquiryService) ListEnquiries(ctx context.Context, in InquiryListInput) (domain.List[EnquiryRow], error) {
	if err := validate.Struct(in); err != nil {
		return domain.List[EnquiryRow]{}, err
	}
	in.Page = in.Page.Normalize(10)
	items, total, err := s.enquiries.List(ctx, domain.ListFilter{Search: in.Search, Offset: in.Page.Offset(), Limit: in.Limit})
	if err != nil {
		return domain.List[EnquiryRow]{}, s.storeErr("list enquiries", err)
	}
	rows, err := s.joinProducts(ctx, items)
	if err != nil {
		return domain.List[EnquiryRow]{}, err
	}
	return domain.NewList(rows, in.Page, total), nil
}

// Recent returns the newest contacts and enquiries for the dashboard.
func (s *InquiryService) Recent(ctx context.Context, n int) ([]domain.Contact, []EnquiryRow, error) {
	contacts, _, err := s.contacts.List(ctx, domain.ListFilter{Limit: n})
	if err != nil {
		return nil, nil, s.storeErr("recent contacts", err)
	}
	enquiries, _, err := s.enquiries.List(ctx, domain.ListFilter{Limit: n})
	if err != nil {
		return nil, nil, s.storeErr("recent enquiries", err)
	}
	rows, err := s.joinProducts(ctx, enquiries)
	if err != nil {
		return nil, nil, err
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	return contacts, rows, nil
}

func (s *InquiryService) joinProducts(ctx context.Context, items []domain.Enquiry) ([]EnquiryRow, error) {
	pids := ids(items, func(e *domain.Enquiry) string {
		if e.ProductID == nil {
			return ""
		}
		return *e.ProductID
	})
	products, err := s.prods.FindByIDs(ctx, pids)
	if err != nil {
		return nil, s.storeErr("find enquiry products", err)
	}
	cats, err := s.cats.FindByIDs(ctx, ids(products, prodCategoryID))
	if err != nil {
		return nil, s.storeErr("find enquiry categories", err)
	}
	refs := refsByID(cats)
	byID := make(map[string]*EnquiryProduct, len(products))
	for _, p := range products {
		ep := &EnquiryProduct{ID: p.ID, Title: p.Title, Slug: p.Slug, CategoryID: p.CategoryID}
		if ref, ok := refs[p.CategoryID]; ok {
			ep.Category = &ref
		}
		byID[p.ID] = ep
	}
	rows := make([]EnquiryRow, 0, len(items))
	for _, e := range items {
		row := EnquiryRow{Enquiry: e}
		if e.ProductID != nil {
			row.Product = byID[*e.ProductID]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *InquiryService) DeleteContact(ctx context.Context, id string) error {
	c, err := s.contacts.FindByID(ctx, id)
	if err != nil {
		return s.storeErr("find contact", err)
	}
	if c == nil {
		return errs.NotFoundf("contact not found")
	}
	if err := s.contacts.Delete(ctx, id); err != nil {
		return s.storeErr("delete contact", err)
	}
	return nil
}

func (s *InquiryService) DeleteEnquiry(ctx context.Context, id string) error {
	e, err := s.enquiries.FindByID(ctx, id)
	if err != nil {
		return s.storeErr("find enquiry", err)
	}
	if e == nil {
		return errs.NotFoundf("enquiry not found")
	}
	if err := s.enquiries.Delete(ctx, id); err != nil {
		return s.storeErr("delete enquiry", err)
	}
	return nil
}
