package incidents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"veritas/internal/outcome"
	"veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/circuit"
)

// HTTPSink forwards escalations to the incident management service. The
// service dedupes on decision_id and reports whether this call created the
// incident, so retried escalations stay idempotent end to end.
//
// A circuit breaker fails escalations fast while the incident service is
// down, letting one probe through per probeInterval attempts so the
// circuit can close again once the service recovers.
type HTTPSink struct {
	baseURL      string
	client       *http.Client
	breaker      *circuit.Breaker
	openAttempts atomic.Int64
}

const probeInterval = 5

func NewHTTPSink(baseURL string) *HTTPSink {
	return &HTTPSink{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		breaker: circuit.New("incident-sink"),
	}
}

type createIncidentRequest struct {
	DecisionID string `json:"decision_id"`
	Severity   string `json:"severity"`
	Source     string `json:"source"`
}

type createIncidentResponse struct {
	IncidentID domain.IncidentID `json:"incident_id"`
	Created    bool              `json:"created"`
}

func (s *HTTPSink) CreateIncident(ctx context.Context, decisionID domain.DecisionID, severity outcome.HarmSeverity) (domain.IncidentID, bool, error) {
	if s.breaker.IsOpen() && s.openAttempts.Add(1)%probeInterval != 0 {
		return domain.IncidentID{}, false, dErrors.New(dErrors.CodeInternal, "incident sink unavailable")
	}

	id, created, err := s.createIncident(ctx, decisionID, severity)
	if err != nil {
		s.breaker.RecordFailure()
		return domain.IncidentID{}, false, err
	}
	s.breaker.RecordSuccess()
	return id, created, nil
}

func (s *HTTPSink) createIncident(ctx context.Context, decisionID domain.DecisionID, severity outcome.HarmSeverity) (domain.IncidentID, bool, error) {
	body, err := json.Marshal(createIncidentRequest{
		DecisionID: decisionID.String(),
		Severity:   string(severity),
		Source:     "decision-ledger",
	})
	if err != nil {
		return domain.IncidentID{}, false, fmt.Errorf("marshal incident request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/incidents", bytes.NewReader(body))
	if err != nil {
		return domain.IncidentID{}, false, fmt.Errorf("build incident request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.IncidentID{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "call incident sink")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	default:
		return domain.IncidentID{}, false, dErrors.Newf(dErrors.CodeInternal, "incident sink returned status %d", resp.StatusCode)
	}

	var out createIncidentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.IncidentID{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "decode incident response")
	}
	return out.IncidentID, out.Created, nil
}
