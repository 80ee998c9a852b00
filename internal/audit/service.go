package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

// TimelineFilters narrows the timeline query.
type TimelineFilters struct {
	TenantID string
	UserID   string
	Action   string
	Page     int
	PageSize int
}

// PagingInfo describes the window returned by Timeline.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// Result wraps timeline rows with paging metadata.
type Result struct {
	Events []Event
	Paging PagingInfo
}

// Service reads the audit log back for the admin timeline.
type Service struct {
	client *redis.Client
	logger *slog.Logger
}

// NewService constructs an audit read service.
func NewService(client *redis.Client, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logger}
}

// Timeline returns a page of events, newest first. Filters are applied
// after the fact, so pages are walked until the window fills or the log
// is exhausted.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.client == nil {
		return Result{}, fmt.Errorf("audit: client not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	skip := (page - 1) * pageSize

	var matched []Event
	const batch = 200
	for offset := int64(0); ; offset += batch {
		raw, err := s.client.LRange(ctx, EventsKey, offset, offset+batch-1).Result()
		if err != nil {
			return Result{}, fmt.Errorf("audit: read timeline: %w", err)
		}
		if len(raw) == 0 {
			break
		}
		for _, item := range raw {
			var event Event
			if err := json.Unmarshal([]byte(item), &event); err != nil {
				if s.logger != nil {
					s.logger.Warn("skip malformed audit record", slog.Any("error", err))
				}
				continue
			}
			if !matches(event, filters) {
				continue
			}
			matched = append(matched, event)
			// One extra row probes for a next page.
			if len(matched) > skip+pageSize {
				break
			}
		}
		if len(matched) > skip+pageSize || len(raw) < batch {
			break
		}
	}

	if skip >= len(matched) {
		return Result{Paging: PagingInfo{Page: page, PageSize: pageSize}}, nil
	}
	window := matched[skip:]
	hasNext := len(window) > pageSize
	if hasNext {
		window = window[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Events: window, Paging: paging}, nil
}

func matches(event Event, filters TimelineFilters) bool {
	if v := strings.TrimSpace(filters.TenantID); v != "" && event.TenantID != v {
		return false
	}
	if v := strings.TrimSpace(filters.UserID); v != "" && event.UserID != v {
		return false
	}
	if v := strings.TrimSpace(filters.Action); v != "" && string(event.Action) != v {
		return false
	}
	return true
}
