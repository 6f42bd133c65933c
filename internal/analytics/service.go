// Package analytics answers the dashboard's pageview and statistics queries
// from the Google Analytics Data API and Cloud Monitoring, behind a
// read-through TTL cache.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"go.uber.org/zap"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	pageviewsTTL  = 30 * time.Minute
	statisticsTTL = 2 * time.Minute
)

// PageviewsReport lists page paths with their view counts.
type PageviewsReport struct {
	Days  int              `json:"days"`
	Total int64            `json:"total"`
	Pages map[string]int64 `json:"pages"`
}

// Statistics is the dashboard's service-health snapshot.
type Statistics struct {
	RequestsLastHour int64     `json:"requestsLastHour"`
	SampledAt        time.Time `json:"sampledAt"`
}

type Service struct {
	ga         *analyticsdata.Service
	metrics    *monitoring.MetricClient
	propertyID string
	projectID  string
	cache      Cache
	log        *zap.Logger
}

func New(ga *analyticsdata.Service, metrics *monitoring.MetricClient, propertyID, projectID string, cache Cache, log *zap.Logger) *Service {
	return &Service{
		ga:         ga,
		metrics:    metrics,
		propertyID: propertyID,
		projectID:  projectID,
		cache:      cache,
		log:        log,
	}
}

// Pageviews reports per-path pageviews over the trailing window, cached for
// 30 minutes.
func (s *Service) Pageviews(ctx context.Context, days int) (*PageviewsReport, error) {
	if days <= 0 {
		days = 30
	}
	key := fmt.Sprintf("analytics:pageviews:%d", days)
	raw, err := Fetch(ctx, s.cache, key, pageviewsTTL, func(ctx context.Context) ([]byte, error) {
		report, err := s.runPageviewsReport(ctx, days)
		if err != nil {
			return nil, err
		}
		return json.Marshal(report)
	})
	if err != nil {
		return nil, err
	}
	var report PageviewsReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *Service) runPageviewsReport(ctx context.Context, days int) (*PageviewsReport, error) {
	req := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{
			{StartDate: fmt.Sprintf("%ddaysAgo", days), EndDate: "today"},
		},
		Dimensions: []*analyticsdata.Dimension{{Name: "pagePath"}},
		Metrics:    []*analyticsdata.Metric{{Name: "screenPageViews"}},
	}
	resp, err := s.ga.Properties.RunReport("properties/"+s.propertyID, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("running analytics report: %w", err)
	}
	report := &PageviewsReport{Days: days, Pages: map[string]int64{}}
	for _, row := range resp.Rows {
		if len(row.DimensionValues) == 0 || len(row.MetricValues) == 0 {
			continue
		}
		count, _ := strconv.ParseInt(row.MetricValues[0].Value, 10, 64)
		report.Pages[row.DimensionValues[0].Value] = count
		report.Total += count
	}
	return report, nil
}

// Statistics reports the request count of the trailing hour from Cloud
// Monitoring, cached for 2 minutes.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	raw, err := Fetch(ctx, s.cache, "analytics:statistics", statisticsTTL, func(ctx context.Context) ([]byte, error) {
		stats, err := s.queryStatistics(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(stats)
	})
	if err != nil {
		return nil, err
	}
	var stats Statistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Service) queryStatistics(ctx context.Context) (*Statistics, error) {
	now := time.Now()
	it := s.metrics.ListTimeSeries(ctx, &monitoringpb.ListTimeSeriesRequest{
		Name:   "projects/" + s.projectID,
		Filter: `metric.type="run.googleapis.com/request_count"`,
		Interval: &monitoringpb.TimeInterval{
			StartTime: timestamppb.New(now.Add(-time.Hour)),
			EndTime:   timestamppb.New(now),
		},
	})
	stats := &Statistics{SampledAt: now}
	for {
		series, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("querying monitoring: %w", err)
		}
		for _, point := range series.Points {
			stats.RequestsLastHour += point.Value.GetInt64Value()
		}
	}
	return stats, nil
}
