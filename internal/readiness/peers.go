package readiness

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nakamura-yasu/fabric-1/internal/session"
)

const peersPath = "/network/peers"

// PeerClient queries a peer node's discovery endpoint. The systems under test
// run with self-signed certificates, so TLS verification is off.
type PeerClient struct {
	http     *http.Client
	restPort int
	logger   zerolog.Logger
}

func NewPeerClient(restPort int, logger zerolog.Logger) *PeerClient {
	return &PeerClient{
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		restPort: restPort,
		logger:   logger,
	}
}

// PeerList fetches the peer's reported membership. An unreachable endpoint or
// non-OK status is soft: (nil, false, nil). A response that parses but lacks
// the peers field is a hard error.
func (c *PeerClient) PeerList(ctx context.Context, rec session.ContainerRecord) ([]json.RawMessage, bool, error) {
	url := fmt.Sprintf("http://%s:%d%s", rec.IPAddress, c.restPort, peersPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("building peer list request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("peer", rec.Name).Msg("Peer endpoint unreachable")
		return nil, false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().Str("peer", rec.Name).Int("status", resp.StatusCode).Msg("Peer endpoint not OK")
		return nil, false, nil
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, fmt.Errorf("decoding peer list from %s: %w", rec.Name, err)
	}
	raw, ok := body["peers"]
	if !ok {
		return nil, false, NewMissingFieldError("peers", rec.Name)
	}
	var peers []json.RawMessage
	if err := json.Unmarshal(raw, &peers); err != nil {
		return nil, false, fmt.Errorf("decoding peers array from %s: %w", rec.Name, err)
	}
	return peers, true, nil
}

// Checker compares a peer's reported membership against the expected count.
type Checker struct {
	client *PeerClient
	logger zerolog.Logger
}

func NewChecker(client *PeerClient, logger zerolog.Logger) *Checker {
	return &Checker{client: client, logger: logger}
}

// PeerConverged reports whether the peer's reported list has exactly expected
// entries. Only cardinality is compared, not identities.
func (c *Checker) PeerConverged(ctx context.Context, rec session.ContainerRecord, expected int) (bool, error) {
	peers, present, err := c.client.PeerList(ctx, rec)
	if err != nil {
		return false, err
	}
	if !present {
		return false, nil
	}
	if len(peers) != expected {
		c.logger.Debug().Str("peer", rec.Name).Int("expected", expected).Int("got", len(peers)).Msg("Peer not converged")
		return false, nil
	}
	return true, nil
}
