package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quartz-storefront/internal/domain"
	"quartz-storefront/internal/service"
	httpez "quartz-storefront/internal/transport/http/ez"
	mdw "quartz-storefront/internal/transport/http/middleware"
)

type InquiryHandler struct {
	svc    Inquiries
	submit []gin.HandlerFunc
	log    *zap.Logger
}

// NewInquiryHandler wires the public submission routes behind submit, which
// is normally a per-IP limiter.
func NewInquiryHandler(svc Inquiries, l *zap.Logger, submit ...gin.HandlerFunc) *InquiryHandler {
	return &InquiryHandler{svc: svc, submit: submit, log: l}
}

func (h *InquiryHandler) Priority() int { return 20 }

func (h *InquiryHandler) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g, h.log)

	httpez.RegisterAction(ez, httpez.Action[service.ContactInput, *domain.Contact]{
		Method: http.MethodPost, Path: "/contacts", Binder: httpez.BindJSON, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.ContactInput) (*domain.Contact, error) {
			out, err := h.svc.CreateContact(c.Request.Context(), *in)
			if err == nil {
				mdw.Submissions.WithLabelValues("contact").Inc()
			}
			return out, err
		},
	}, h.submit...)
	httpez.RegisterAction(ez, httpez.Action[service.EnquiryInput, *domain.Enquiry]{
		Method: http.MethodPost, Path: "/enquiries", Binder: httpez.BindJSON, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.EnquiryInput) (*domain.Enquiry, error) {
			out, err := h.svc.CreateEnquiry(c.Request.Context(), *in)
			if err == nil {
				mdw.Submissions.WithLabelValues("enquiry").Inc()
			}
			return out, err
		},
	}, h.submit...)
}

func (h *InquiryHandler) MountAdmin(g *gin.RouterGroup) {
	ez := httpez.New(g, h.log)

	httpez.RegisterAction(ez, httpez.Action[service.InquiryListInput, domain.List[domain.Contact]]{
		Method: http.MethodGet, Path: "/contacts", Binder: httpez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *service.InquiryListInput) (domain.List[domain.Contact], error) {
			return h.svc.ListContacts(c.Request.Context(), *in)
		},
	})
	httpez.RegisterAction(ez, httpez.Action[none, deleted]{
		Method: http.MethodDelete, Path: "/contacts/:id", Binder: httpez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *none) (deleted, error) {
			id := c.Param("id")
			return deleted{ID: id}, h.svc.DeleteContact(c.Request.Context(), id)
		},
	})
	httpez.RegisterAction(ez, httpez.Action[service.InquiryListInput, domain.List[service.EnquiryRow]]{
		Method: http.MethodGet, Path: "/enquiries", Binder: httpez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *service.InquiryListInput) (domain.List[service.EnquiryRow], error) {
			return h.svc.ListEnquiries(c.Request.Context(), *in)
		},
	})
	httpez.RegisterAction(ez, httpez.Action[none, deleted]{
		Method: http.MethodDelete, Path: "/enquiries/:id", Binder: httpez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *none) (deleted, error) {
			id := c.Param("id")
			return deleted{ID: id}, h.svc.DeleteEnquiry(c.Request.Context(), id)
		},
	})
}
