package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OSRMRouter performs route lookups against an OSRM HTTP server.
type OSRMRouter struct {
	Endpoint string
	Client   *http.Client
}

// NewOSRMRouter creates an OSRM router with the given request timeout.
func NewOSRMRouter(endpoint string, timeout time.Duration) *OSRMRouter {
	return &OSRMRouter{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Client:   &http.Client{Timeout: timeout},
	}
}

// Route queries /route/v1/driving between the two points.
func (o *OSRMRouter) Route(ctx context.Context, from, to Point) (Route, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=false",
		o.Endpoint, from.Lng, from.Lat, to.Lng, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Route{}, &ExternalServiceError{Service: "osrm", Err: err}
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		return Route{}, &ExternalServiceError{Service: "osrm", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Route{}, &ExternalServiceError{Service: "osrm", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var out struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Route{}, &ExternalServiceError{Service: "osrm", Err: err}
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return Route{}, &ExternalServiceError{Service: "osrm", Err: fmt.Errorf("%w: code %q", ErrNoResult, out.Code)}
	}

	return Route{
		DistanceKm:      out.Routes[0].Distance / 1000,
		DurationSeconds: out.Routes[0].Duration,
	}, nil
}
