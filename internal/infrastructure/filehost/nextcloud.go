// Package filehost provides the client for the external file host that
// serves whitepaper assets through shareable links.
package filehost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
)

// ShareLink is a remote shareable link minted on the file host.
type ShareLink struct {
	RemoteToken string
	RemoteURL   string
}

// Client defines the narrow interface the core needs from the file host.
// Authentication and host specifics live entirely behind it.
type Client interface {
	CreateShareLink(ctx context.Context, filePath string, expiresAt time.Time) (*ShareLink, error)
	DeleteShareLink(ctx context.Context, remoteToken string) error
}

// NextCloudClient talks to the NextCloud OCS file-sharing API.
type NextCloudClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *logging.ChanneledLogger
}

// NewNextCloudClient creates a file host client with a bounded request timeout.
func NewNextCloudClient(baseURL, username, password string, timeout time.Duration, logger *logging.ChanneledLogger) *NextCloudClient {
	return &NextCloudClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

const sharesEndpoint = "/ocs/v2.php/apps/files_sharing/api/v1/shares"

type ocsShareResponse struct {
	OCS struct {
		Meta struct {
			StatusCode int    `json:"statuscode"`
			Message    string `json:"message"`
		} `json:"meta"`
		Data struct {
			ID  json.Number `json:"id"`
			URL string      `json:"url"`
		} `json:"data"`
	} `json:"ocs"`
}

// CreateShareLink mints a public share link for the file, expiring on the
// given date.
func (c *NextCloudClient) CreateShareLink(ctx context.Context, filePath string, expiresAt time.Time) (*ShareLink, error) {
	form := url.Values{}
	form.Set("path", filePath)
	form.Set("shareType", "3") // public link
	form.Set("expireDate", expiresAt.UTC().Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+sharesEndpoint+"?format=json", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: "filehost", Op: "createShareLink", Err: err}
	}
	c.prepareRequest(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Link().Error("File host share creation failed", "error", err.Error(), "path", filePath)
		return nil, &domain.ExternalServiceError{Service: "filehost", Op: "createShareLink", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		c.logger.Link().Error("File host share creation rejected", "status", resp.StatusCode, "path", filePath)
		return nil, &domain.ExternalServiceError{Service: "filehost", Op: "createShareLink", Err: err}
	}

	var parsed ocsShareResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return nil, &domain.ExternalServiceError{Service: "filehost", Op: "createShareLink", Err: err}
	}

	c.logger.Link().Debug("File host share created", "path", filePath, "duration", time.Since(start))
	return &ShareLink{
		RemoteToken: parsed.OCS.Data.ID.String(),
		RemoteURL:   parsed.OCS.Data.URL,
	}, nil
}

// DeleteShareLink removes a previously minted share link. A missing remote
// share is treated as success since the end state is identical.
func (c *NextCloudClient) DeleteShareLink(ctx context.Context, remoteToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+sharesEndpoint+"/"+url.PathEscape(remoteToken)+"?format=json", nil)
	if err != nil {
		return &domain.ExternalServiceError{Service: "filehost", Op: "deleteShareLink", Err: err}
	}
	c.prepareRequest(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Sweep().Error("File host share deletion failed", "error", err.Error(), "remoteToken", remoteToken)
		return &domain.ExternalServiceError{Service: "filehost", Op: "deleteShareLink", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		c.logger.Sweep().Error("File host share deletion rejected", "status", resp.StatusCode, "remoteToken", remoteToken)
		return &domain.ExternalServiceError{Service: "filehost", Op: "deleteShareLink", Err: err}
	}

	return nil
}

func (c *NextCloudClient) prepareRequest(req *http.Request) {
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("OCS-APIRequest", "true")
	req.Header.Set("Accept", "application/json")
}
