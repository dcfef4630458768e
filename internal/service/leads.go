package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aniladanir/lead-finder-service/internal/domain"
	"github.com/aniladanir/lead-finder-service/internal/provider"
	leadRepo "github.com/aniladanir/lead-finder-service/internal/repository/lead"
	"github.com/aniladanir/retry"
	"github.com/google/uuid"
)

// defaultWebhookAttempts applies when no attempt limit is given. The retrier
// treats a zero limit as unlimited, so a limit is always passed.
const defaultWebhookAttempts = 3

type LeadManager interface {
	Import(ctx context.Context, req domain.ImportRequest) (*domain.ImportResult, error)
	List(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error)
	UpdateStatus(ctx context.Context, id int, status domain.LeadStatus) (*domain.Lead, error)
	Receipt(ctx context.Context, importID string) (*domain.ImportReceipt, error)
}

type leadService struct {
	leadRepo   leadRepo.Repository
	webhookURL string
	retrier    *retry.Retrier
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLeadService creates the lead service. Imports are forwarded to webhookURL
// when it is set. A maxRetryOnFail below one means a single attempt.
func NewLeadService(leadRepo leadRepo.Repository, logger *slog.Logger, webhookURL string, maxRetryOnFail *int, webhookTimeout time.Duration) (LeadManager, error) {
	// initialize retrier
	attempts := defaultWebhookAttempts
	if maxRetryOnFail != nil {
		attempts = max(*maxRetryOnFail, 1)
	}
	retrier, err := retry.New(retry.WithMaxAttemps(attempts))
	if err != nil {
		return nil, fmt.Errorf("encountered error when initializing retrier: %w", err)
	}

	return &leadService{
		leadRepo:   leadRepo,
		webhookURL: webhookURL,
		retrier:    retrier,
		logger:     logger,
		httpClient: &http.Client{
			Timeout: webhookTimeout,
		},
	}, nil
}

// Import stores the results as leads and forwards the batch to the lead webhook.
// A webhook failure does not roll back stored leads.
func (s *leadService) Import(ctx context.Context, req domain.ImportRequest) (*domain.ImportResult, error) {
	if err := validateImport(req); err != nil {
		return nil, err
	}

	importID := uuid.NewString()

	// stored rows carry the status kept for leads imported before
	leads, err := s.leadRepo.UpsertLeads(ctx, leadsFromResults(req, importID))
	if err != nil {
		return nil, fmt.Errorf("failed to store leads: %w", err)
	}

	importLogger := s.logger.With(slog.String("importId", importID), slog.String("source", req.Source))
	importLogger.Info("leads imported", "count", len(leads))

	result := &domain.ImportResult{
		ImportID: importID,
		Imported: len(leads),
	}

	if s.webhookURL == "" {
		return result, nil
	}

	result.Dispatched = s.dispatch(ctx, importLogger, domain.WebhookPayload{
		ImportID: importID,
		Source:   req.Source,
		Leads:    leads,
	})

	if result.Dispatched {
		receipt := domain.ImportReceipt{
			ImportID:   importID,
			Source:     req.Source,
			Count:      len(leads),
			AcceptedAt: time.Now().UTC(),
		}
		if err := s.leadRepo.CacheReceipt(ctx, receipt); err != nil {
			importLogger.Error("failed to save import receipt", "error", err.Error())
		}
	}

	return result, nil
}

func (s *leadService) List(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: "is not a known lead status"}
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, &domain.ValidationError{Field: "limit", Reason: "and offset must not be negative"}
	}
	return s.leadRepo.ListLeads(ctx, filter)
}

func (s *leadService) UpdateStatus(ctx context.Context, id int, status domain.LeadStatus) (*domain.Lead, error) {
	if !status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: "is not a known lead status"}
	}
	return s.leadRepo.UpdateStatus(ctx, id, status)
}

func (s *leadService) Receipt(ctx context.Context, importID string) (*domain.ImportReceipt, error) {
	if err := uuid.Validate(importID); err != nil {
		return nil, domain.ErrImportNotFound
	}
	return s.leadRepo.GetReceipt(ctx, importID)
}

// dispatch posts the payload to the lead webhook, retrying on transport
// errors and 5XX responses. It reports whether the webhook accepted it.
func (s *leadService) dispatch(ctx context.Context, logger *slog.Logger, payload domain.WebhookPayload) bool {
	var accepted bool

	retryFunc := func(attempt int) (terminate bool) {
		retryLogger := logger.With(slog.Int("attempt", attempt))

		resp, err := s.doWebhookRequest(ctx, payload)
		if err != nil {
			retryLogger.Error("failed to send request", "error", err.Error())
			return false
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			// 5XX status code indicates server error, try retry
			retryLogger.Error("response indicates error",
				"requestId", resp.Header.Get("X-Request-ID"),
				"statusCode", resp.StatusCode)
			return false
		} else if resp.StatusCode >= http.StatusBadRequest {
			// 4XX indicates client error, no need to retry
			retryLogger.Error("response indicates error",
				"requestId", resp.Header.Get("X-Request-ID"),
				"statusCode", resp.StatusCode)
			return true
		}

		retryLogger.Info("import batch is successfuly dispatched", "requestId", resp.Header.Get("X-Request-ID"))
		accepted = true
		return true
	}

	<-s.retrier.Retry(ctx, retryFunc, true)

	return accepted
}

func (s *leadService) doWebhookRequest(ctx context.Context, payload domain.WebhookPayload) (*http.Response, error) {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("X-Request-ID", uuid.NewString())

	return s.httpClient.Do(req)
}

func validateImport(req domain.ImportRequest) error {
	if !provider.Known(req.Source) {
		return &domain.ValidationError{Field: "source", Reason: "is not a known search source"}
	}
	if len(req.Results) == 0 {
		return &domain.ValidationError{Field: "results", Reason: "must not be empty"}
	}
	for i, r := range req.Results {
		if r.ID == "" {
			return &domain.ValidationError{Field: fmt.Sprintf("results[%d].id", i), Reason: "is required"}
		}
		if r.Name == "" {
			return &domain.ValidationError{Field: fmt.Sprintf("results[%d].name", i), Reason: "is required"}
		}
	}
	return nil
}

// leadsFromResults maps results to leads of the request source. A result
// repeated in the batch keeps its last occurrence, since an upsert statement
// cannot touch the same row twice.
func leadsFromResults(req domain.ImportRequest, importID string) []domain.Lead {
	index := make(map[string]int, len(req.Results))
	leads := make([]domain.Lead, 0, len(req.Results))
	for _, r := range req.Results {
		r.Source = req.Source
		lead := domain.NewLeadFromResult(r, importID)
		if i, ok := index[r.ID]; ok {
			leads[i] = lead
			continue
		}
		index[r.ID] = len(leads)
		leads = append(leads, lead)
	}
	return leads
}
