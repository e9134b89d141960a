package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"quartz-storefront/internal/core/errs"
	"quartz-storefront/internal/domain"
)

const recentItems = 5

type Totals struct {
	Products   int64 `json:"products"`
	Categories int64 `json:"categories"`
	Enquiries  int64 `json:"enquiries"`
	Contacts   int64 `json:"contacts"`
}

type Dashboard struct {
	Totals          Totals           `json:"totals"`
	RecentEnquiries []EnquiryRow     `json:"recentEnquiries"`
	RecentContacts  []domain.Contact `json:"recentContacts"`
}

type DashboardService struct {
	cats      domain.CategoryRepository
	prods     domain.ProductRepository
	contacts  domain.ContactRepository
	enquiries domain.EnquiryRepository
	inquiries *InquiryService
}

func NewDashboardService(
	cats domain.CategoryRepository,
	prods domain.ProductRepository,
	contacts domain.ContactRepository,
	enquiries domain.EnquiryRepository,
	inquiries *InquiryService,
) *DashboardService {
	return &DashboardService{cats: cats, prods: prods, contacts: contacts, enquiries: enquiries, inquiries: inquiries}
}

func (s *DashboardService) Load(ctx context.Context) (*Dashboard, error) {
	var (
		d Dashboard
		g errgroup.Group
	)
	g.Go(func() (err error) { d.Totals.Products, err = s.prods.Count(ctx); return })
	g.Go(func() (err error) { d.Totals.Categories, err = s.cats.Count(ctx); return })
	g.Go(func() (err error) { d.Totals.Enquiries, err = s.enquiries.Count(ctx); return })
	g.Go(func() (err error) { d.Totals.Contacts, err = s.contacts.Count(ctx); return })
	g.Go(func() (err error) {
		d.RecentContacts, d.RecentEnquiries, err = s.inquiries.Recent(ctx, recentItems)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, errs.FromStore(err, "")
	}
	return &d, nil
}
