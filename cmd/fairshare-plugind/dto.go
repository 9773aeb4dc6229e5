// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"time"

	"github.com/jontk/fairshare/internal/priority"
	"github.com/jontk/fairshare/pkg/analyticshistory"
)

// The wire DTOs below exist because priority.Model's types don't marshal
// cleanly as-is: AssociationKey is a struct and can't be a JSON map key, and
// the allowed-queue/project sets are map[string]struct{} rather than the
// arrays a JSON RPC client would send. Translating at the transport
// boundary keeps internal/priority's in-memory shapes untouched.

type bankDTO struct {
	Name     string  `json:"name"`
	Priority float64 `json:"priority"`
}

type queueDTO struct {
	Name             string  `json:"name"`
	Priority         float64 `json:"priority"`
	MaxRunningJobs   int     `json:"max_running_jobs"`
	MaxNodesPerAssoc int     `json:"max_nodes_per_assoc"`
	MinNodesPerJob   int     `json:"min_nodes_per_job"`
	MaxNodesPerJob   int     `json:"max_nodes_per_job"`
	MaxTimePerJob    int     `json:"max_time_per_job"`
}

type associationDTO struct {
	UserID          string   `json:"userid"`
	Bank            string   `json:"bank"`
	Fairshare       float64  `json:"fairshare"`
	MaxRunJobs      int      `json:"max_run_jobs"`
	MaxActiveJobs   int      `json:"max_active_jobs"`
	MaxNodes        int      `json:"max_nodes"`
	MaxCores        int      `json:"max_cores"`
	MaxComputeHours float64  `json:"max_compute_hours"`
	Queues          []string `json:"queues,omitempty"`
	QueueFactor     float64  `json:"queue_factor"`
	Projects        []string `json:"projects,omitempty"`
	DefProject      string   `json:"def_project,omitempty"`
	Active          bool     `json:"active"`
}

type updateRequest struct {
	Banks        []bankDTO        `json:"banks"`
	Queues       []queueDTO       `json:"queues"`
	Associations []associationDTO `json:"associations"`
	DefaultBank  map[string]string `json:"default_bank"`
}

func toUpdateData(req updateRequest) priority.UpdateData {
	banks := make([]priority.Bank, len(req.Banks))
	for i, b := range req.Banks {
		banks[i] = priority.Bank{Name: b.Name, Priority: b.Priority}
	}

	queues := make([]priority.Queue, len(req.Queues))
	for i, q := range req.Queues {
		queues[i] = priority.Queue{
			Name:             q.Name,
			Priority:         q.Priority,
			MaxRunningJobs:   q.MaxRunningJobs,
			MaxNodesPerAssoc: q.MaxNodesPerAssoc,
			MinNodesPerJob:   q.MinNodesPerJob,
			MaxNodesPerJob:   q.MaxNodesPerJob,
			MaxTimePerJob:    q.MaxTimePerJob,
		}
	}

	assocs := make([]priority.Association, len(req.Associations))
	for i, a := range req.Associations {
		assocs[i] = priority.Association{
			UserID:          a.UserID,
			Bank:            a.Bank,
			Fairshare:       a.Fairshare,
			MaxRunJobs:      a.MaxRunJobs,
			MaxActiveJobs:   a.MaxActiveJobs,
			MaxNodes:        a.MaxNodes,
			MaxCores:        a.MaxCores,
			MaxComputeHours: a.MaxComputeHours,
			Queues:          toSet(a.Queues),
			QueueFactor:     a.QueueFactor,
			Projects:        toSet(a.Projects),
			DefProject:      a.DefProject,
			Active:          a.Active,
		}
	}

	return priority.UpdateData{Banks: banks, Queues: queues, Associations: assocs, DefaultBank: req.DefaultBank}
}

func toSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

type associationSnapshot struct {
	UserID    string  `json:"userid"`
	Bank      string  `json:"bank"`
	Fairshare float64 `json:"fairshare"`
	Active    bool    `json:"active"`
}

type querySnapshot struct {
	Loaded       bool                  `json:"loaded"`
	Banks        []bankDTO             `json:"banks"`
	Queues       []queueDTO            `json:"queues"`
	Associations []associationSnapshot `json:"associations"`
}

func toQuerySnapshot(snap priority.ModelSnapshot) querySnapshot {
	out := querySnapshot{Loaded: snap.Loaded}
	for _, b := range snap.Banks {
		out.Banks = append(out.Banks, bankDTO{Name: b.Name, Priority: b.Priority})
	}
	for _, q := range snap.Queues {
		out.Queues = append(out.Queues, queueDTO{
			Name: q.Name, Priority: q.Priority, MaxRunningJobs: q.MaxRunningJobs,
			MaxNodesPerAssoc: q.MaxNodesPerAssoc, MinNodesPerJob: q.MinNodesPerJob,
			MaxNodesPerJob: q.MaxNodesPerJob, MaxTimePerJob: q.MaxTimePerJob,
		})
	}
	for key, a := range snap.Associations {
		out.Associations = append(out.Associations, associationSnapshot{
			UserID: key.UserID, Bank: key.Bank, Fairshare: a.Fairshare, Active: a.Active,
		})
	}
	return out
}

type jobDependRequest struct {
	UserID   string `json:"userid"`
	Bank     string `json:"bank"`
	Nnodes   int    `json:"nnodes"`
	Nslots   int    `json:"nslots"`
	SlotSize int    `json:"slot_size"`
}

type jobRunRequest struct {
	UserID string `json:"userid"`
	Bank   string `json:"bank"`
	TRun   int64  `json:"t_run"`
}

type jobInactiveRequest struct {
	UserID string `json:"userid"`
	Bank   string `json:"bank"`
}

type jobValidateRequest struct {
	UserID  string `json:"userid"`
	Bank    string `json:"bank"`
	Queue   string `json:"queue"`
	Project string `json:"project"`
}

type jobNewRequest struct {
	UserID string `json:"userid"`
	Bank   string `json:"bank"`
	Queue  string `json:"queue"`
}

type jobPriorityRequest struct {
	UserID    string  `json:"userid"`
	Bank      string  `json:"bank"`
	Fairshare float64 `json:"fairshare"`
}

type priorityResponse struct {
	JobID    string `json:"job_id"`
	Priority int64  `json:"priority"`
}

// sampleDTO is one walk cycle's recorded fairshare value for an
// association, as submitted by a caller that persists samples across
// update runs (the daemon itself keeps no long-running history).
type sampleDTO struct {
	Timestamp time.Time `json:"timestamp"`
	Fairshare float64   `json:"fairshare"`
	Usage     uint64    `json:"usage"`
}

type historyRequest struct {
	Samples       []sampleDTO `json:"samples"`
	Interval      string      `json:"interval,omitempty"`
	IncludeTrends *bool       `json:"include_trends,omitempty"`
}

func (req historyRequest) toSamples() []analyticshistory.Sample {
	out := make([]analyticshistory.Sample, len(req.Samples))
	for i, s := range req.Samples {
		out[i] = analyticshistory.Sample{Timestamp: s.Timestamp, Fairshare: s.Fairshare, Usage: s.Usage}
	}
	return out
}

func (req historyRequest) toOptions() *analyticshistory.Options {
	opts := &analyticshistory.Options{Interval: req.Interval, IncludeTrends: true}
	if req.IncludeTrends != nil {
		opts.IncludeTrends = *req.IncludeTrends
	}
	return opts
}

type snapshotDTO struct {
	Timestamp time.Time `json:"timestamp"`
	Fairshare float64   `json:"fairshare"`
	Usage     float64   `json:"usage"`
}

type trendDTO struct {
	Direction  string  `json:"direction"`
	Slope      float64 `json:"slope"`
	Confidence float64 `json:"confidence"`
	ChangeRate float64 `json:"change_rate"`
}

type anomalyDTO struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Value       float64   `json:"value"`
	Expected    float64   `json:"expected"`
	Deviation   float64   `json:"deviation"`
	Description string    `json:"description"`
}

type statisticsDTO struct {
	Average float64 `json:"average"`
	Peak    float64 `json:"peak"`
	Min     float64 `json:"min"`
	StdDev  float64 `json:"std_dev"`
}

type historyResponse struct {
	UserID         string        `json:"userid"`
	Bank           string        `json:"bank"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	TimeSeriesData []snapshotDTO `json:"time_series_data"`
	Statistics     statisticsDTO `json:"statistics"`
	Trend          *trendDTO     `json:"trend,omitempty"`
	Anomalies      []anomalyDTO  `json:"anomalies"`
}

func toHistoryResponse(h *analyticshistory.History) historyResponse {
	resp := historyResponse{
		UserID:     h.UserID,
		Bank:       h.Bank,
		StartTime:  h.StartTime,
		EndTime:    h.EndTime,
		Statistics: statisticsDTO{Average: h.Statistics.Average, Peak: h.Statistics.Peak, Min: h.Statistics.Min, StdDev: h.Statistics.StdDev},
		TimeSeriesData: make([]snapshotDTO, len(h.TimeSeriesData)),
		Anomalies:      make([]anomalyDTO, len(h.Anomalies)),
	}
	for i, s := range h.TimeSeriesData {
		resp.TimeSeriesData[i] = snapshotDTO{Timestamp: s.Timestamp, Fairshare: s.Fairshare, Usage: s.Usage}
	}
	for i, a := range h.Anomalies {
		resp.Anomalies[i] = anomalyDTO{
			Timestamp: a.Timestamp, Type: a.Type, Severity: a.Severity,
			Value: a.Value, Expected: a.Expected, Deviation: a.Deviation, Description: a.Description,
		}
	}
	if h.Trend != nil {
		resp.Trend = &trendDTO{Direction: h.Trend.Direction, Slope: h.Trend.Slope, Confidence: h.Trend.Confidence, ChangeRate: h.Trend.ChangeRate}
	}
	return resp
}
