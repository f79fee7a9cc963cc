package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// SiteSlots are the raw ion and coefficient entries of one site.
// Coefficients[i] belongs to Ions[i]; a blank coefficient is recorded as
// missing.
type SiteSlots struct {
	Ions         []string `json:"ions"`
	Coefficients []string `json:"coefficients,omitempty"`
}

// CompositionForm is the body of POST /api/v1/compositions.
type CompositionForm struct {
	A              SiteSlots `json:"a"`
	B              SiteSlots `json:"b"`
	C              SiteSlots `json:"c"`
	BandGap        string    `json:"band_gap,omitempty"`
	Dimensionality string    `json:"dimensionality,omitempty"`
	Additives      []string  `json:"additives,omitempty"`
	Folder         string    `json:"folder,omitempty"`
	FileName       string    `json:"file_name,omitempty"`
}

// CompositionResult is a built document and, after Compose, where it was
// written.
type CompositionResult struct {
	RequestID           string              `json:"request_id"`
	Family              string              `json:"family"`
	Formula             string              `json:"formula"`
	Location            string              `json:"location,omitempty"`
	FileName            string              `json:"file_name,omitempty"`
	Unmatched           map[string][]string `json:"unmatched,omitempty"`
	IonCount            int                 `json:"ion_count"`
	KnownDimensionality bool                `json:"known_dimensionality"`
	Document            ptypes.Document     `json:"document"`
}

// Liveness is the body of /healthz.
type Liveness struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Compose builds and writes a document.  It is never retried.
func (c *Client) Compose(ctx context.Context, form *CompositionForm) (*CompositionResult, error) {
	if form == nil {
		return nil, errors.InvalidParam("form is required")
	}
	var res CompositionResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/compositions", form, &res, false); err != nil {
		return nil, err
	}
	return &res, nil
}

// Render builds a document without writing it.
func (c *Client) Render(ctx context.Context, form *CompositionForm) (*CompositionResult, error) {
	if form == nil {
		return nil, errors.InvalidParam("form is required")
	}
	var res CompositionResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/compositions?dry_run=true", form, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListIons returns the ion suggestions of site ("A", "B" or "C").
func (c *Client) ListIons(ctx context.Context, site string) ([]string, error) {
	if site == "" {
		return nil, errors.New(errors.ErrCodeInvalidSite, "site is required")
	}
	var res struct {
		Site string   `json:"site"`
		Ions []string `json:"ions"`
	}
	if err := c.get(ctx, "/api/v1/ions/"+url.PathEscape(site), &res); err != nil {
		return nil, err
	}
	return res.Ions, nil
}

// Dimensionalities returns the known dimensionality labels.
func (c *Client) Dimensionalities(ctx context.Context) ([]string, error) {
	var res struct {
		Dimensionalities []string `json:"dimensionalities"`
	}
	if err := c.get(ctx, "/api/v1/dimensionalities", &res); err != nil {
		return nil, err
	}
	return res.Dimensionalities, nil
}

// Schema returns the JSON schema documents are validated against.
func (c *Client) Schema(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/api/v1/schema", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Health calls the liveness probe.
func (c *Client) Health(ctx context.Context) (*Liveness, error) {
	var res Liveness
	if err := c.get(ctx, "/healthz", &res); err != nil {
		return nil, err
	}
	return &res, nil
}
