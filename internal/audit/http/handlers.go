// Package audithttp serves the audit timeline to admin tooling.
package audithttp

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/listora/listora/internal/audit"
	"github.com/listora/listora/internal/platform/httpx"
	"github.com/listora/listora/internal/role"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	exportLimit     = 5000
)

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
}

// Handler exposes the audit timeline over HTTP.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	guard   role.Middleware
}

// NewHandler constructs an audit handler.
func NewHandler(logger *slog.Logger, service TimelineService, guard role.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	// Identical filter windows from concurrent dashboards collapse into
	// a single Redis walk.
	value, err, _ := singleflightTimeline(r.Context(), filterKey(filters), func(ctx context.Context) (interface{}, error) {
		return h.service.Timeline(ctx, filters)
	})
	if err != nil {
		h.handleServerError(w, "load audit timeline", err)
		return
	}
	result := value.(audit.Result)

	httpx.JSON(w, http.StatusOK, timelineResponse{
		Events: eventsPayload(result.Events),
		Paging: result.Paging,
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	filters.Page = 1
	filters.PageSize = maxPageSize

	var rows []audit.Event
	for len(rows) < exportLimit {
		result, err := h.service.Timeline(r.Context(), filters)
		if err != nil {
			h.handleServerError(w, "export audit timeline", err)
			return
		}
		rows = append(rows, result.Events...)
		if !result.Paging.HasNext {
			break
		}
		filters.Page = result.Paging.NextPage
	}

	csvBytes, err := writeCSV(rows)
	if err != nil {
		h.handleServerError(w, "encode csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-timeline.csv"`)
	if _, err := w.Write(csvBytes); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

type timelineResponse struct {
	Events []eventPayload   `json:"events"`
	Paging audit.PagingInfo `json:"paging"`
}

type eventPayload struct {
	Action       string            `json:"action"`
	ResourceType string            `json:"resourceType"`
	ResourceID   string            `json:"resourceId"`
	UserID       string            `json:"userId,omitempty"`
	TenantID     string            `json:"tenantId"`
	Details      map[string]string `json:"details,omitempty"`
	Success      bool              `json:"success"`
	At           time.Time         `json:"at"`
}

func eventsPayload(events []audit.Event) []eventPayload {
	out := make([]eventPayload, len(events))
	for i, e := range events {
		out[i] = eventPayload{
			Action:       string(e.Action),
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			UserID:       e.UserID,
			TenantID:     e.TenantID,
			Details:      e.Details,
			Success:      e.Success,
			At:           e.At,
		}
	}
	return out
}

func parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()

	page := 1
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return audit.TimelineFilters{}, fmt.Errorf("invalid page %q", v)
		}
		page = parsed
	}
	pageSize := defaultPageSize
	if v := strings.TrimSpace(q.Get("page_size")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return audit.TimelineFilters{}, fmt.Errorf("invalid page_size %q", v)
		}
		if parsed > maxPageSize {
			parsed = maxPageSize
		}
		pageSize = parsed
	}

	return audit.TimelineFilters{
		TenantID: strings.TrimSpace(q.Get("tenantId")),
		UserID:   strings.TrimSpace(q.Get("userId")),
		Action:   strings.TrimSpace(q.Get("action")),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func filterKey(filters audit.TimelineFilters) string {
	return strings.Join([]string{
		"timeline",
		filters.TenantID,
		filters.UserID,
		filters.Action,
		strconv.Itoa(filters.Page),
		strconv.Itoa(filters.PageSize),
	}, "|")
}

func writeCSV(rows []audit.Event) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"at", "action", "resource_type", "resource_id", "user_id", "tenant_id", "success", "details"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.At.UTC().Format(time.RFC3339),
			string(row.Action),
			row.ResourceType,
			row.ResourceID,
			row.UserID,
			row.TenantID,
			strconv.FormatBool(row.Success),
			detailsField(row.Details),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func detailsField(details map[string]string) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+details[k])
	}
	return strings.Join(parts, ";")
}

func (h *Handler) handleServerError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
