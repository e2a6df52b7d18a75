package atlasclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/atlasfleet/autoscaler/pkg/topology"
)

// Project is one entry from the list-projects endpoint.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClusterSummary is one entry from the list-clusters endpoint.
type ClusterSummary struct {
	Name      string `json:"name"`
	StateName string `json:"stateName"`
}

// Process is one entry from the list-processes endpoint.
type Process struct {
	Hostname  string `json:"hostname"`
	Port      int    `json:"port"`
	UserAlias string `json:"userAlias"`
	TypeName  string `json:"typeName"`
}

// MeasurementsResponse mirrors the process-measurements endpoint response.
type MeasurementsResponse struct {
	Measurements []Measurement `json:"measurements"`
}

// Measurement is one metric's data points from a measurements response.
type Measurement struct {
	Name       string           `json:"name"`
	Units      string           `json:"units"`
	DataPoints []MeasurementPoint `json:"dataPoints"`
}

// MeasurementPoint is one raw (timestamp, value) reading; value is nil when
// Atlas has no data for that timestamp.
type MeasurementPoint struct {
	Timestamp string   `json:"timestamp"`
	Value     *float64 `json:"value"`
}

// ListProjects returns every project (Atlas calls these "groups").
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	return listResults[Project](ctx, c, c.baseURLV2, AcceptV2, func(pageNum, perPage int) string {
		return fmt.Sprintf("/groups?pageNum=%d&itemsPerPage=%d", pageNum, perPage)
	})
}

// ListClusters returns every cluster in projectID.
func (c *Client) ListClusters(ctx context.Context, projectID string) ([]ClusterSummary, error) {
	return listResults[ClusterSummary](ctx, c, c.baseURLV2, AcceptV2, func(pageNum, perPage int) string {
		return fmt.Sprintf("/groups/%s/clusters?pageNum=%d&itemsPerPage=%d", projectID, pageNum, perPage)
	})
}

// GetCluster fetches the full description of one cluster.
func (c *Client) GetCluster(ctx context.Context, projectID, clusterName string) (topology.ClusterDescription, error) {
	var doc topology.ClusterDescription
	path := fmt.Sprintf("/groups/%s/clusters/%s", projectID, url.PathEscape(clusterName))
	err := c.getJSON(ctx, c.baseURLV2, path, AcceptV2, &doc)
	return doc, err
}

// PatchCluster commits a topology mutation. The caller is responsible for
// re-verifying the cluster is still IDLE immediately before calling this
// (the scheduler raises ConflictError itself when it is not); a rejection
// by the control plane surfaces through the normal status translation, as
// an unexpected-status error for a 409.
func (c *Client) PatchCluster(ctx context.Context, projectID, clusterName string, payload topology.PatchPayload) error {
	path := fmt.Sprintf("/groups/%s/clusters/%s", projectID, url.PathEscape(clusterName))
	return c.patchJSON(ctx, c.baseURLV2, path, payload, AcceptV2, nil)
}

// ListProcesses returns every process in projectID.
func (c *Client) ListProcesses(ctx context.Context, projectID string) ([]Process, error) {
	return listResults[Process](ctx, c, c.baseURLV2, AcceptV2, func(pageNum, perPage int) string {
		return fmt.Sprintf("/groups/%s/processes?pageNum=%d&itemsPerPage=%d", projectID, pageNum, perPage)
	})
}

// ProcessMeasurements fetches recent measurements for metricNames at the
// given granularity (ISO-8601 duration, e.g. "PT1M") over the last period
// (ISO-8601 duration, e.g. "PT10M").
func (c *Client) ProcessMeasurements(ctx context.Context, projectID, hostAndPort string, metricNames []string, granularity, period string) (MeasurementsResponse, error) {
	var resp MeasurementsResponse
	q := url.Values{}
	q.Set("granularity", granularity)
	q.Set("period", period)
	for _, m := range metricNames {
		q.Add("m", m)
	}
	path := fmt.Sprintf("/groups/%s/processes/%s/measurements?%s", projectID, url.PathEscape(hostAndPort), q.Encode())
	err := c.getJSON(ctx, c.baseURLV2, path, AcceptV2, &resp)
	return resp, err
}

// DiskMeasurements fetches disk-partition measurements via the v1.0 API
// surface, which is not yet on the versioned v2 media type.
func (c *Client) DiskMeasurements(ctx context.Context, projectID, hostAndPort, partition string, metricNames []string, granularity, period string) (MeasurementsResponse, error) {
	var resp MeasurementsResponse
	q := url.Values{}
	q.Set("granularity", granularity)
	q.Set("period", period)
	for _, m := range metricNames {
		q.Add("m", m)
	}
	path := fmt.Sprintf("/groups/%s/processes/%s/disks/%s/measurements?%s", projectID, url.PathEscape(hostAndPort), url.PathEscape(partition), q.Encode())
	err := c.getJSON(ctx, c.baseURLV1, path, AcceptV1, &resp)
	return resp, err
}
