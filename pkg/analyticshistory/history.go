// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package analyticshistory tracks fairshare values over time for an
// association: the sequence of values a walk cycle assigns it across
// successive update runs, summarized into interval snapshots, aggregate
// statistics, a linear trend, and deviation-based anomalies.
package analyticshistory

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Sample is one walk cycle's fairshare result for an association.
type Sample struct {
	Timestamp time.Time
	Fairshare float64
	Usage     uint64
}

// Options controls how a history is built from samples.
type Options struct {
	StartTime     *time.Time
	EndTime       *time.Time
	Interval      string // "hourly" | "daily" | "weekly"; empty auto-selects
	IncludeTrends bool
}

// Snapshot is one interval's averaged fairshare/usage.
type Snapshot struct {
	Timestamp time.Time
	Fairshare float64
	Usage     float64
}

// Statistics aggregates a history's fairshare samples.
type Statistics struct {
	Average float64
	Peak    float64
	Min     float64
	StdDev  float64
}

// TrendInfo is a linear-regression summary of a metric over time.
type TrendInfo struct {
	Direction  string // "increasing" | "decreasing" | "stable"
	Slope      float64
	Confidence float64
	ChangeRate float64
}

// Anomaly flags a snapshot whose fairshare deviated sharply from the mean.
type Anomaly struct {
	Timestamp   time.Time
	Type        string // "spike" | "drop"
	Severity    string // "low" | "medium" | "high" | "critical"
	Value       float64
	Expected    float64
	Deviation   float64
	Description string
}

// History is the full result of tracking one association's fairshare over
// time.
type History struct {
	UserID    string
	Bank      string
	StartTime time.Time
	EndTime   time.Time

	TimeSeriesData []Snapshot
	Statistics     Statistics
	Trend          *TrendInfo
	Anomalies      []Anomaly
}

// Tracker builds History values from raw samples.
type Tracker struct{}

// NewTracker creates a fairshare history tracker.
func NewTracker() *Tracker { return &Tracker{} }

// Build computes a History from an association's fairshare samples across
// successive walk cycles.
func (t *Tracker) Build(userID, bank string, samples []Sample, opts *Options) (*History, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no fairshare samples provided")
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].Timestamp.Before(samples[j].Timestamp) })

	filtered := t.filterByTimeRange(samples, opts)
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no samples found in specified time range")
	}

	snapshots := t.intervalSnapshots(filtered, t.interval(filtered, opts))
	stats := t.statistics(filtered)

	var trend *TrendInfo
	if opts == nil || opts.IncludeTrends {
		trend = t.trend(snapshots)
	}

	anomalies := t.anomalies(snapshots, stats)

	return &History{
		UserID:         userID,
		Bank:           bank,
		StartTime:      filtered[0].Timestamp,
		EndTime:        filtered[len(filtered)-1].Timestamp,
		TimeSeriesData: snapshots,
		Statistics:     stats,
		Trend:          trend,
		Anomalies:      anomalies,
	}, nil
}

func (t *Tracker) filterByTimeRange(samples []Sample, opts *Options) []Sample {
	if opts == nil || (opts.StartTime == nil && opts.EndTime == nil) {
		return samples
	}
	var out []Sample
	for _, s := range samples {
		if opts.StartTime != nil && s.Timestamp.Before(*opts.StartTime) {
			continue
		}
		if opts.EndTime != nil && s.Timestamp.After(*opts.EndTime) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (t *Tracker) interval(samples []Sample, opts *Options) time.Duration {
	if opts != nil {
		switch opts.Interval {
		case "hourly":
			return time.Hour
		case "daily":
			return 24 * time.Hour
		case "weekly":
			return 7 * 24 * time.Hour
		}
	}
	if len(samples) < 2 {
		return time.Hour
	}
	duration := samples[len(samples)-1].Timestamp.Sub(samples[0].Timestamp)
	switch {
	case duration <= 24*time.Hour:
		return time.Hour
	case duration <= 7*24*time.Hour:
		return 6 * time.Hour
	case duration <= 30*24*time.Hour:
		return 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

func (t *Tracker) intervalSnapshots(samples []Sample, interval time.Duration) []Snapshot {
	if len(samples) == 0 {
		return nil
	}

	var groups [][]Sample
	var current []Sample
	currentBucket := samples[0].Timestamp.Truncate(interval)

	for _, s := range samples {
		bucket := s.Timestamp.Truncate(interval)
		if bucket.After(currentBucket) {
			if len(current) > 0 {
				groups = append(groups, current)
			}
			current = []Sample{s}
			currentBucket = bucket
		} else {
			current = append(current, s)
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	snapshots := make([]Snapshot, 0, len(groups))
	for _, g := range groups {
		var fsSum, usageSum float64
		for _, s := range g {
			fsSum += s.Fairshare
			usageSum += float64(s.Usage)
		}
		n := float64(len(g))
		snapshots = append(snapshots, Snapshot{
			Timestamp: g[0].Timestamp,
			Fairshare: fsSum / n,
			Usage:     usageSum / n,
		})
	}
	return snapshots
}

func (t *Tracker) statistics(samples []Sample) Statistics {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Fairshare
	}
	return Statistics{
		Average: mean(values),
		Peak:    maxOf(values),
		Min:     minOf(values),
		StdDev:  stdDev(values),
	}
}

func (t *Tracker) trend(snapshots []Snapshot) *TrendInfo {
	if len(snapshots) < 2 {
		return nil
	}

	base := snapshots[0].Timestamp
	x := make([]float64, len(snapshots))
	y := make([]float64, len(snapshots))
	for i, s := range snapshots {
		x[i] = s.Timestamp.Sub(base).Hours()
		y[i] = s.Fairshare
	}
	return calculateTrend(x, y)
}

func calculateTrend(x, y []float64) *TrendInfo {
	if len(x) != len(y) || len(x) < 2 {
		return &TrendInfo{Direction: "stable"}
	}

	n := float64(len(x))
	var sumX, sumY, sumXY, sumX2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
	}

	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return &TrendInfo{Direction: "stable"}
	}
	slope := (n*sumXY - sumX*sumY) / denominator

	yMean := sumY / n
	var ssTotal, ssResidual float64
	for i := range y {
		predicted := slope*x[i] + (sumY-slope*sumX)/n
		ssTotal += (y[i] - yMean) * (y[i] - yMean)
		ssResidual += (y[i] - predicted) * (y[i] - predicted)
	}
	confidence := 0.0
	if ssTotal > 0 {
		confidence = 1.0 - (ssResidual / ssTotal)
	}

	direction := "stable"
	changeRate := 0.0
	if math.Abs(slope) > 0.0001 {
		if slope > 0 {
			direction = "increasing"
		} else {
			direction = "decreasing"
		}
		if y[0] != 0 {
			changeRate = (slope / y[0]) * 100
		}
	}

	return &TrendInfo{
		Direction:  direction,
		Slope:      slope,
		Confidence: math.Max(0, confidence),
		ChangeRate: changeRate,
	}
}

func (t *Tracker) anomalies(snapshots []Snapshot, stats Statistics) []Anomaly {
	threshold := stats.StdDev * 2
	out := make([]Anomaly, 0)
	if threshold <= 0 {
		return out
	}
	for _, s := range snapshots {
		dev := math.Abs(s.Fairshare - stats.Average)
		if dev <= threshold {
			continue
		}
		anomalyType := "drop"
		if s.Fairshare > stats.Average {
			anomalyType = "spike"
		}
		out = append(out, Anomaly{
			Timestamp:   s.Timestamp,
			Type:        anomalyType,
			Severity:    severity(dev, threshold),
			Value:       s.Fairshare,
			Expected:    stats.Average,
			Deviation:   safeRatio(dev, stats.Average) * 100,
			Description: fmt.Sprintf("fairshare %.4f (expected %.4f)", s.Fairshare, stats.Average),
		})
	}
	return out
}

func severity(deviation, threshold float64) string {
	ratio := deviation / threshold
	switch {
	case ratio >= 3:
		return "critical"
	case ratio >= 2:
		return "high"
	case ratio >= 1.5:
		return "medium"
	default:
		return "low"
	}
}

func safeRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values {
		if v < m {
			m = v
		}
	}
	return m
}

func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var variance float64
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
