package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/platform/obs"
	"route-optimizer/internal/ports"
)

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// Matrix retrieves the full many-to-many distance and duration matrix for points
// from the OpenRouteService matrix endpoint. Row i, column j is points[i] -> points[j].
func (c *Client) Matrix(
	ctx context.Context,
	points []domain.Coordinates,
) (_ [][]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "ors.Matrix")(&err)

	if len(points) == 0 {
		return [][]ports.DistanceResult{}, nil
	}
	if len(points) == 1 {
		return [][]ports.DistanceResult{{{}}}, nil
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", c.baseURL, c.profile)

	locations := make([][]float64, 0, len(points))
	for _, p := range points {
		locations = append(locations, p.CoordsToList())
	}

	payload, err := json.Marshal(matrixRequest{
		Locations: locations,
		Metrics:   []string{"distance", "duration"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	n := len(points)
	if len(mr.Distances) != n || len(mr.Durations) != n {
		return nil, fmt.Errorf(
			"expected %d source rows; got distances=%d durations=%d",
			n, len(mr.Distances), len(mr.Durations),
		)
	}

	out := make([][]ports.DistanceResult, n)
	for i := range n {
		if len(mr.Distances[i]) != n || len(mr.Durations[i]) != n {
			return nil, errors.New("matrix row lengths do not match locations")
		}

		out[i] = make([]ports.DistanceResult, n)
		for j := range n {
			metersPtr := mr.Distances[i][j]
			secondsPtr := mr.Durations[i][j]
			if metersPtr == nil || secondsPtr == nil {
				return nil, fmt.Errorf("matrix returned invalid metrics for %s -> %s", points[i].Key(), points[j].Key())
			}

			// ORS returns float metrics; round to nearest integer for cache consistency.
			out[i][j] = ports.DistanceResult{
				DistanceMeters:  int(math.Round(*metersPtr)),
				DurationSeconds: int(math.Round(*secondsPtr)),
			}
		}
	}

	return out, nil
}
