// Package autoscaler is the control loop: it orchestrates periodic
// observation of cluster telemetry, rule evaluation, and safe topology
// mutation through the underlying control-plane client.
package autoscaler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atlasfleet/autoscaler/pkg/atlasclient"
	"github.com/atlasfleet/autoscaler/pkg/config"
	"github.com/atlasfleet/autoscaler/pkg/log"
	"github.com/atlasfleet/autoscaler/pkg/metrics"
	"github.com/atlasfleet/autoscaler/pkg/metricstore"
	"github.com/atlasfleet/autoscaler/pkg/planner"
	"github.com/atlasfleet/autoscaler/pkg/rules"
	"github.com/atlasfleet/autoscaler/pkg/topology"
	"github.com/rs/zerolog"
)

const (
	clusterWorkerPoolSize = 8
	shutdownGrace         = 30 * time.Second
	measurementPeriod     = "PT10M"
	fineGranularity       = "PT10S"
	coarseGranularity     = "PT1M"
)

var shardConfigPrefix = "SHARD_CONFIG"
var shardMongosType = "SHARD_MONGOS"

// Scheduler is the daemon's single control-loop worker. Ticks do not
// overlap: the next tick is scheduled only after the previous one
// completes.
type Scheduler struct {
	client *atlasclient.Client
	store  *metricstore.Store
	cfg    config.AutoscalerConfig

	lastAction *lastActionMap
	status     *statusHolder
	running    atomic.Bool

	logger zerolog.Logger
}

// NewScheduler builds a Scheduler against an already-configured client.
func NewScheduler(client *atlasclient.Client, store *metricstore.Store, cfg config.AutoscalerConfig) *Scheduler {
	return &Scheduler{
		client:     client,
		store:      store,
		cfg:        cfg,
		lastAction: newLastActionMap(),
		status:     newStatusHolder(),
		logger:     log.WithComponent("autoscaler"),
	}
}

// Status returns the most recently published status record.
func (s *Scheduler) Status() Status {
	return s.status.Get()
}

// Run drives the tick loop until ctx is cancelled. If a tick exceeds the
// monitoring interval, the next tick is skipped and a warning logged rather
// than allowing ticks to overlap.
func (s *Scheduler) Run(ctx context.Context) error {
	s.running.Store(true)
	defer s.running.Store(false)

	ticker := time.NewTicker(s.cfg.MonitoringInterval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.cfg.MonitoringInterval).Msg("autoscaler control loop started")
	metrics.RegisterComponent("scheduler", true, "running")

	var tickInFlight atomic.Bool

	for {
		select {
		case <-ticker.C:
			if !tickInFlight.CompareAndSwap(false, true) {
				metrics.TicksSkippedTotal.Inc()
				s.logger.Warn().Msg("previous tick still running; skipping this tick")
				continue
			}

			tickStart := time.Now()
			tickCtx, cancel := context.WithTimeout(ctx, s.cfg.MonitoringInterval)
			s.runTick(tickCtx)
			cancel()
			tickInFlight.Store(false)

			if elapsed := time.Since(tickStart); elapsed >= s.cfg.MonitoringInterval {
				select {
				case <-ticker.C:
				default:
				}
				metrics.TicksSkippedTotal.Inc()
				s.logger.Warn().Dur("elapsed", elapsed).Msg("tick exceeded monitoring interval; skipping next tick")
			}

		case <-ctx.Done():
			s.logger.Info().Msg("shutdown signal received, waiting for in-flight work")
			waitCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			for tickInFlight.Load() {
				select {
				case <-waitCtx.Done():
					s.logger.Warn().Msg("shutdown grace period exceeded, exiting with tick still in flight")
					return ctx.Err()
				case <-time.After(100 * time.Millisecond):
				}
			}
			return ctx.Err()
		}
	}
}

// RunCleanup drives the hourly metric-store eviction sweep until ctx is
// cancelled.
func (s *Scheduler) RunCleanup(ctx context.Context) error {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			timer := metrics.NewTimer()
			s.store.EvictOlderThan(time.Now().Add(-time.Hour))
			timer.ObserveDuration(metrics.CleanupDuration)
			metrics.MetricStorePoints.Set(float64(s.store.PointCount()))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.TickDuration)

	projects, err := s.client.ListProjects(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list projects")
		metrics.RegisterComponent("atlasclient", false, err.Error())
		return
	}
	metrics.RegisterComponent("atlasclient", true, "reachable")

	var clustersMonitored int32
	var recentScaleActions int32
	var wg sync.WaitGroup
	sem := make(chan struct{}, clusterWorkerPoolSize)

	for _, project := range projects {
		if !s.cfg.IncludesProject(project.Name) {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		clusters, err := s.client.ListClusters(ctx, project.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("project", project.Name).Msg("failed to list clusters")
			continue
		}

		for _, cluster := range clusters {
			if ctx.Err() != nil {
				break
			}

			wg.Add(1)
			sem <- struct{}{}
			go func(project atlasclient.Project, cluster atlasclient.ClusterSummary) {
				defer wg.Done()
				defer func() { <-sem }()

				acted, err := s.tickCluster(ctx, project, cluster)
				if err != nil {
					s.logger.Error().Err(err).
						Str("project", project.Name).
						Str("cluster", cluster.Name).
						Msg("tick failed for cluster")
					return
				}
				atomic.AddInt32(&clustersMonitored, 1)
				if acted {
					atomic.AddInt32(&recentScaleActions, 1)
				}
			}(project, cluster)
		}
	}

	wg.Wait()

	metrics.ClustersMonitored.Set(float64(clustersMonitored))
	s.status.Set(Status{
		Running:            s.running.Load(),
		ClustersMonitored:  int(clustersMonitored),
		RecentScaleActions: int(recentScaleActions),
		LastUpdate:         time.Now(),
	})
}

// tickCluster runs the full monitor+decide+act sequence for one cluster.
// Returns true if a scale action (dry-run or committed) was taken.
func (s *Scheduler) tickCluster(ctx context.Context, project atlasclient.Project, summary atlasclient.ClusterSummary) (bool, error) {
	clusterKey := project.Name + "/" + summary.Name
	logger := log.WithClusterKey(clusterKey)

	doc, err := s.client.GetCluster(ctx, project.ID, summary.Name)
	if err != nil {
		return false, fmt.Errorf("get cluster: %w", err)
	}

	if doc.StateName != "IDLE" {
		logger.Info().Str("state", doc.StateName).Msg("skip: cluster not idle")
		return false, nil
	}

	hostnames, err := topology.ExtractHostnames(doc.ConnectionStrings.Standard)
	if err != nil {
		logger.Warn().Err(err).Msg("skip: cannot extract hostnames from connection string")
		return false, nil
	}
	hostSet := make(map[string]struct{}, len(hostnames))
	for _, h := range hostnames {
		hostSet[h] = struct{}{}
	}

	processes, err := s.client.ListProcesses(ctx, project.ID)
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}

	relevant := filterClusterProcesses(processes, hostSet)
	if len(relevant) == 0 {
		logger.Warn().Msg("skip: no matching processes for cluster")
		return false, nil
	}

	metricNames := uniqueMetricNames(s.cfg.Rules)
	for _, proc := range relevant {
		hostAndPort := fmt.Sprintf("%s:%d", proc.Hostname, proc.Port)
		if err := s.ingestMeasurements(ctx, project.ID, clusterKey, hostAndPort, metricNames); err != nil {
			logger.Warn().Err(err).Str("host", hostAndPort).Msg("failed to fetch measurements")
		}
	}

	current, err := topology.ParseClusterDescription(doc)
	if err != nil {
		return false, fmt.Errorf("parse topology: %w", err)
	}

	for _, rule := range s.cfg.Rules {
		if last, ok := s.lastAction.Get(clusterKey); ok {
			if remaining := rule.Cooldown - time.Since(last); remaining > 0 {
				logger.Warn().Str("rule", rule.Name).Dur("remaining", remaining).Msg("skip: cooldown active")
				continue
			}
		}

		points := s.store.Recent(clusterKey, rule.MetricName)
		verdict := rules.Evaluate(points, rule, time.Now())
		metrics.RuleEvaluationsTotal.WithLabelValues(strings.ToLower(string(verdict))).Inc()
		if verdict == rules.NoTrigger {
			continue
		}

		plan, err := planner.Build(current, rule, planner.Policy{
			ScaleAllShardsInUnison: s.cfg.ScaleAllShardsInUnison,
			AllowPerShardScaling:   s.cfg.AllowPerShardScaling,
		})
		if err != nil {
			logger.Error().Err(err).Str("rule", rule.Name).Msg("suppressing action: invalid projected topology")
			metrics.ScaleActionsSuppressedTotal.WithLabelValues("validation").Inc()
			continue
		}
		for _, w := range plan.Warnings {
			logger.Warn().Str("rule", rule.Name).Msg(w)
		}

		if !plan.Changed {
			logger.Info().Str("rule", rule.Name).Msg("no-op: target topology equals current (ladder boundary)")
			metrics.ScaleActionsSuppressedTotal.WithLabelValues("no_change").Inc()
			continue
		}

		changes := diffTopology(current, plan.Target)

		if s.cfg.DryRun {
			for _, c := range changes {
				logger.Warn().Str("rule", rule.Name).Str("change", c.String()).Msg("dry-run: would scale")
			}
			return true, nil
		}

		// Re-verify IDLE immediately before commit to close the race window
		// between observation and mutation.
		fresh, err := s.client.GetCluster(ctx, project.ID, summary.Name)
		if err != nil {
			return false, fmt.Errorf("re-verify cluster state: %w", err)
		}
		if fresh.StateName != "IDLE" {
			metrics.ScaleActionsSuppressedTotal.WithLabelValues("conflict").Inc()
			return false, &atlasclient.ConflictError{ClusterName: summary.Name, StateName: fresh.StateName}
		}

		if err := s.client.PatchCluster(ctx, project.ID, summary.Name, plan.Payload); err != nil {
			return false, fmt.Errorf("patch cluster: %w", err)
		}

		s.lastAction.Set(clusterKey, time.Now())
		direction := strings.ToLower(string(rule.Direction))
		nodeType := strings.ToLower(string(rule.NodeType))
		metrics.ScaleActionsTotal.WithLabelValues(direction, nodeType).Inc()

		for _, c := range changes {
			logger.Info().Str("rule", rule.Name).Str("change", c.String()).Msg("committed scale action")
		}
		return true, nil
	}

	return false, nil
}

func (s *Scheduler) ingestMeasurements(ctx context.Context, projectID, clusterKey, hostAndPort string, metricNames []string) error {
	resp, err := s.client.ProcessMeasurements(ctx, projectID, hostAndPort, metricNames, coarseGranularity, measurementPeriod)
	if err != nil {
		return err
	}

	if measurementsEmpty(resp) {
		metrics.GranularityFallbackTotal.Inc()
		resp, err = s.client.ProcessMeasurements(ctx, projectID, hostAndPort, metricNames, fineGranularity, measurementPeriod)
		if err != nil {
			return err
		}
	}

	hostname := hostAndPort
	if idx := strings.LastIndex(hostAndPort, ":"); idx >= 0 {
		hostname = hostAndPort[:idx]
	}

	for _, m := range resp.Measurements {
		for _, dp := range m.DataPoints {
			if dp.Value == nil {
				continue
			}
			ts, err := time.Parse(time.RFC3339, dp.Timestamp)
			if err != nil {
				continue
			}
			value := *dp.Value
			if strings.Contains(m.Name, "NORMALIZED") {
				value = metricstore.NormalizedCPUToPercent(value)
			}
			s.store.Append(clusterKey, m.Name, metricstore.Point{
				Hostname:  hostname,
				Timestamp: ts,
				Value:     value,
			})
		}
	}
	return nil
}

func measurementsEmpty(resp atlasclient.MeasurementsResponse) bool {
	for _, m := range resp.Measurements {
		if len(m.DataPoints) > 0 {
			return false
		}
	}
	return true
}

func filterClusterProcesses(processes []atlasclient.Process, hostSet map[string]struct{}) []atlasclient.Process {
	var out []atlasclient.Process
	for _, p := range processes {
		if _, ok := hostSet[p.UserAlias]; !ok {
			continue
		}
		if strings.HasPrefix(p.TypeName, shardConfigPrefix) {
			continue
		}
		if p.TypeName == shardMongosType {
			continue
		}
		out = append(out, p)
	}
	return out
}

func uniqueMetricNames(ruleSet []rules.Rule) []string {
	seen := make(map[string]struct{}, len(ruleSet))
	var names []string
	for _, r := range ruleSet {
		if _, ok := seen[r.MetricName]; ok {
			continue
		}
		seen[r.MetricName] = struct{}{}
		names = append(names, r.MetricName)
	}
	return names
}
