package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/geniustaku/docuflow-backend/api/middleware"
	"github.com/geniustaku/docuflow-backend/api/responses"
	"github.com/geniustaku/docuflow-backend/api/validators"
	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/internal/invoices"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
	"github.com/geniustaku/docuflow-backend/pkg/logger"
)

// InvoiceService describes the invoice methods used by the HTTP controllers.
type InvoiceService interface {
	Create(ctx context.Context, actor audit.Actor, input invoices.CreateInput) (*models.Invoice, error)
	Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input invoices.UpdateInput) (*models.Invoice, error)
	Cancel(ctx context.Context, actor audit.Actor, id uuid.UUID) (*models.Invoice, error)
	Get(ctx context.Context, ref string, companyID *uuid.UUID) (*invoices.Detail, error)
	List(ctx context.Context, params invoices.ListQuery) ([]models.Invoice, error)
}

type invoiceItemRequest struct {
	Description string `json:"description" validate:"required"`
	Quantity    string `json:"quantity" validate:"required"`
	UnitPrice   string `json:"unit_price" validate:"required"`
	SortOrder   int    `json:"sort_order"`
}

type invoiceCreateRequest struct {
	CompanyID          string               `json:"company_id" validate:"required"`
	BillingPeriodStart string               `json:"billing_period_start" validate:"required"`
	BillingPeriodEnd   string               `json:"billing_period_end" validate:"required"`
	IssueDate          string               `json:"issue_date"`
	DueDate            string               `json:"due_date"`
	VATRate            *string              `json:"vat_rate"`
	Items              []invoiceItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes              *string              `json:"notes"`
	Terms              *string              `json:"terms"`
}

type invoiceUpdateRequest struct {
	Status  *string              `json:"status"`
	DueDate *string              `json:"due_date"`
	Notes   *string              `json:"notes"`
	Terms   *string              `json:"terms"`
	VATRate *string              `json:"vat_rate"`
	Items   []invoiceItemRequest `json:"items"`
}

type invoiceItemResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Amount      string `json:"amount"`
	SortOrder   int    `json:"sort_order"`
}

type invoicePaymentResponse struct {
	ID          string  `json:"id"`
	PaymentCode string  `json:"payment_code"`
	Amount      string  `json:"amount"`
	Currency    string  `json:"currency"`
	Reference   string  `json:"reference"`
	Status      string  `json:"status"`
	Channel     *string `json:"channel,omitempty"`
	ProcessedAt *string `json:"processed_at,omitempty"`
}

type invoiceResponse struct {
	ID                 string                   `json:"id"`
	InvoiceNumber      string                   `json:"invoice_number"`
	CompanyID          string                   `json:"company_id"`
	BillingPeriodStart string                   `json:"billing_period_start"`
	BillingPeriodEnd   string                   `json:"billing_period_end"`
	IssueDate          string                   `json:"issue_date"`
	DueDate            string                   `json:"due_date"`
	Subtotal           string                   `json:"subtotal"`
	VATRate            string                   `json:"vat_rate"`
	VATAmount          string                   `json:"vat_amount"`
	TotalAmount        string                   `json:"total_amount"`
	AmountPaid         string                   `json:"amount_paid"`
	BalanceDue         string                   `json:"balance_due"`
	Status             string                   `json:"status"`
	PaymentDate        *string                  `json:"payment_date,omitempty"`
	PaymentReference   *string                  `json:"payment_reference,omitempty"`
	Notes              *string                  `json:"notes,omitempty"`
	Terms              *string                  `json:"terms,omitempty"`
	CanPay             *bool                    `json:"can_pay,omitempty"`
	Items              []invoiceItemResponse    `json:"items,omitempty"`
	Payments           []invoicePaymentResponse `json:"payments,omitempty"`
}

func toInvoiceResponse(invoice *models.Invoice, canPay *bool) invoiceResponse {
	resp := invoiceResponse{
		ID:                 invoice.ID.String(),
		InvoiceNumber:      invoice.InvoiceNumber,
		CompanyID:          invoice.CompanyID.String(),
		BillingPeriodStart: invoice.BillingPeriodStart.UTC().Format(timeFormat),
		BillingPeriodEnd:   invoice.BillingPeriodEnd.UTC().Format(timeFormat),
		IssueDate:          invoice.IssueDate.UTC().Format(timeFormat),
		DueDate:            invoice.DueDate.UTC().Format(timeFormat),
		Subtotal:           invoice.Subtotal.StringFixed(2),
		VATRate:            invoice.VATRate.String(),
		VATAmount:          invoice.VATAmount.StringFixed(2),
		TotalAmount:        invoice.TotalAmount.StringFixed(2),
		AmountPaid:         invoice.AmountPaid.StringFixed(2),
		BalanceDue:         invoice.BalanceDue.StringFixed(2),
		Status:             invoices.DisplayStatus(invoice, time.Now()).String(),
		PaymentReference:   invoice.PaymentReference,
		Notes:              invoice.Notes,
		Terms:              invoice.Terms,
		CanPay:             canPay,
	}
	if invoice.PaymentDate != nil {
		formatted := invoice.PaymentDate.UTC().Format(timeFormat)
		resp.PaymentDate = &formatted
	}
	for i := range invoice.Items {
		item := &invoice.Items[i]
		resp.Items = append(resp.Items, invoiceItemResponse{
			ID:          item.ID.String(),
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Amount:      item.Amount.StringFixed(2),
			SortOrder:   item.SortOrder,
		})
	}
	for i := range invoice.Payments {
		payment := &invoice.Payments[i]
		p := invoicePaymentResponse{
			ID:          payment.ID.String(),
			PaymentCode: payment.PaymentCode,
			Amount:      payment.Amount.StringFixed(2),
			Currency:    payment.Currency,
			Reference:   payment.Reference,
			Status:      payment.Status.String(),
			Channel:     payment.Channel,
		}
		if payment.ProcessedAt != nil {
			formatted := payment.ProcessedAt.UTC().Format(timeFormat)
			p.ProcessedAt = &formatted
		}
		resp.Payments = append(resp.Payments, p)
	}
	return resp
}

func parseItems(reqs []invoiceItemRequest) ([]invoices.ItemInput, error) {
	items := make([]invoices.ItemInput, 0, len(reqs))
	for _, req := range reqs {
		quantity, err := decimal.NewFromString(req.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line item quantity")
		}
		unitPrice, err := decimal.NewFromString(req.UnitPrice)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line item unit price")
		}
		items = append(items, invoices.ItemInput{
			Description: strings.TrimSpace(req.Description),
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			SortOrder:   req.SortOrder,
		})
	}
	return items, nil
}

func parseDate(value, field string) (time.Time, error) {
	parsed, err := time.Parse(timeFormat, value)
	if err != nil {
		// date-only input is common from admin tooling
		parsed, err = time.Parse("2006-01-02", value)
		if err != nil {
			return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
		}
	}
	return parsed, nil
}

func AdminInvoiceCreate(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req invoiceCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		companyID, err := uuid.Parse(req.CompanyID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company id"))
			return
		}

		input := invoices.CreateInput{
			CompanyID: companyID,
			Notes:     req.Notes,
			Terms:     req.Terms,
		}

		if input.BillingPeriodStart, err = parseDate(req.BillingPeriodStart, "billing period start"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if input.BillingPeriodEnd, err = parseDate(req.BillingPeriodEnd, "billing period end"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if req.IssueDate != "" {
			if input.IssueDate, err = parseDate(req.IssueDate, "issue date"); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		if req.DueDate != "" {
			if input.DueDate, err = parseDate(req.DueDate, "due date"); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		if req.VATRate != nil {
			rate, err := decimal.NewFromString(*req.VATRate)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vat rate"))
				return
			}
			input.VATRate = &rate
		}
		if input.Items, err = parseItems(req.Items); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if userID, parseErr := uuid.Parse(middleware.UserIDFromContext(ctx)); parseErr == nil {
			input.CreatedBy = &userID
		}

		invoice, err := svc.Create(ctx, actorFromContext(ctx), input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toInvoiceResponse(invoice, nil))
	}
}

func AdminInvoiceList(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var params invoices.ListQuery
		if companyParam := strings.TrimSpace(r.URL.Query().Get("company_id")); companyParam != "" {
			companyID, err := uuid.Parse(companyParam)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company id"))
				return
			}
			params.CompanyID = &companyID
		}
		if statusParam := strings.TrimSpace(r.URL.Query().Get("status")); statusParam != "" {
			status, err := enums.ParseInvoiceStatus(statusParam)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = &status
		}

		list, err := svc.List(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]invoiceResponse, 0, len(list))
		for i := range list {
			out = append(out, toInvoiceResponse(&list[i], nil))
		}
		responses.WriteSuccess(w, map[string]any{"invoices": out})
	}
}

func AdminInvoiceGet(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		detail, err := svc.Get(ctx, chi.URLParam(r, "id"), nil)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		resp := toInvoiceResponse(detail.Invoice, &detail.CanPay)
		resp.Status = detail.DisplayStatus.String()
		responses.WriteSuccess(w, resp)
	}
}

func AdminInvoiceUpdate(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice id"))
			return
		}

		var req invoiceUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := invoices.UpdateInput{
			Notes: req.Notes,
			Terms: req.Terms,
		}
		if req.Status != nil {
			status, err := enums.ParseInvoiceStatus(*req.Status)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}
		if req.DueDate != nil {
			dueDate, err := parseDate(*req.DueDate, "due date")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.DueDate = &dueDate
		}
		if req.VATRate != nil {
			rate, err := decimal.NewFromString(*req.VATRate)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vat rate"))
				return
			}
			input.VATRate = &rate
		}
		if req.Items != nil {
			items, err := parseItems(req.Items)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.Items = items
		}

		invoice, err := svc.Update(ctx, actorFromContext(ctx), id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toInvoiceResponse(invoice, nil))
	}
}

func AdminInvoiceCancel(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice id"))
			return
		}

		invoice, err := svc.Cancel(ctx, actorFromContext(ctx), id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toInvoiceResponse(invoice, nil))
	}
}

// TenantInvoiceList returns the authenticated company's invoices.
func TenantInvoiceList(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		companyID := middleware.CompanyIDFromContext(ctx)
		if companyID == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "company scope required"))
			return
		}

		params := invoices.ListQuery{CompanyID: companyID}
		if statusParam := strings.TrimSpace(r.URL.Query().Get("status")); statusParam != "" {
			status, err := enums.ParseInvoiceStatus(statusParam)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = &status
		}

		list, err := svc.List(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]invoiceResponse, 0, len(list))
		for i := range list {
			out = append(out, toInvoiceResponse(&list[i], nil))
		}
		responses.WriteSuccess(w, map[string]any{"invoices": out})
	}
}

// TenantInvoiceGet returns one of the authenticated company's invoices with
// the can_pay flag the billing UI keys off.
func TenantInvoiceGet(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		companyID := middleware.CompanyIDFromContext(ctx)
		if companyID == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "company scope required"))
			return
		}

		detail, err := svc.Get(ctx, chi.URLParam(r, "id"), companyID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		resp := toInvoiceResponse(detail.Invoice, &detail.CanPay)
		resp.Status = detail.DisplayStatus.String()
		responses.WriteSuccess(w, resp)
	}
}
