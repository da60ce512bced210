// Package gateway is the client for the job/auth backend. It turns
// orchestrator intents into HTTP calls and normalises the responses into
// model types. It keeps no state beyond its transport.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/rsilvagit/go-empleo/internal/errors"
	"github.com/rsilvagit/go-empleo/internal/httpclient"
	"github.com/rsilvagit/go-empleo/internal/model"
	"github.com/rsilvagit/go-empleo/internal/telemetry"
)

var tracer = telemetry.GetTracer("go-empleo/gateway")

const defaultScanLimit = 1000

type Options struct {
	// LookupFallback makes FetchJobByID scan the bulk listing when the
	// dedicated lookup route answers 404 or 405.
	LookupFallback bool
	ScanLimit      int
}

type Client struct {
	http   *httpclient.Client
	logger *zap.Logger
	opts   Options
}

func New(hc *httpclient.Client, opts Options, logger *zap.Logger) *Client {
	if opts.ScanLimit <= 0 {
		opts.ScanLimit = defaultScanLimit
	}
	return &Client{http: hc, logger: logger, opts: opts}
}

// ─── Auth ──────────────────────────────────────────────────────────────────

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, email, password string) (model.Credentials, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	var creds model.Credentials
	err := c.http.JSON(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &creds)
	if err != nil {
		span.RecordError(err)
		return model.Credentials{}, authError(err)
	}
	if creds.Token == "" {
		return model.Credentials{}, errors.Protocol("login response without token", nil)
	}
	c.logger.Info("logged in", zap.String("token_type", creds.TokenType))
	return creds, nil
}

func (c *Client) Register(ctx context.Context, data model.RegisterData) (model.Credentials, error) {
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()

	var creds model.Credentials
	if err := c.http.JSON(ctx, http.MethodPost, "/auth/register", nil, data, &creds); err != nil {
		span.RecordError(err)
		return model.Credentials{}, authError(err)
	}
	if creds.Token == "" {
		return model.Credentials{}, errors.Protocol("register response without token", nil)
	}
	c.logger.Info("registered account")
	return creds, nil
}

func authError(err error) error {
	switch status := errors.StatusCode(err); status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Unauthorized(status, "invalid credentials")
	}
	return err
}

// ─── Search methods ────────────────────────────────────────────────────────

type searchMethodsResponse struct {
	Methods     map[string]model.SearchMethod `json:"methods"`
	Recommended string                        `json:"recommended"`
}

// FetchSearchMethods returns the ranking strategies the server supports.
func (c *Client) FetchSearchMethods(ctx context.Context) (model.SearchMethods, error) {
	ctx, span := tracer.Start(ctx, "FetchSearchMethods")
	defer span.End()

	var resp searchMethodsResponse
	if err := c.http.JSON(ctx, http.MethodGet, "/model/search-methods", nil, nil, &resp); err != nil {
		span.RecordError(err)
		return model.SearchMethods{}, err
	}
	if len(resp.Methods) == 0 {
		span.SetStatus(codes.Error, "missing methods")
		return model.SearchMethods{}, errors.Protocol("search methods response without methods map", nil)
	}

	methods := model.SearchMethods{
		Methods:     make(map[string]model.SearchMethod, len(resp.Methods)),
		Recommended: resp.Recommended,
	}
	for id, m := range resp.Methods {
		m.ID = id
		methods.Methods[id] = m
	}

	switch {
	case methods.Recommended == "":
		if _, ok := methods.Methods[model.DefaultSearchMethod]; ok {
			methods.Recommended = model.DefaultSearchMethod
		} else {
			methods.Recommended = methods.IDs()[0]
		}
	default:
		if _, ok := methods.Methods[methods.Recommended]; !ok {
			return model.SearchMethods{}, errors.Protocol(
				fmt.Sprintf("recommended method %q is not among the advertised methods", methods.Recommended), nil)
		}
	}

	c.logger.Debug("fetched search methods",
		zap.Int("count", len(methods.Methods)),
		zap.String("recommended", methods.Recommended))
	return methods, nil
}

// ─── Ranked search ─────────────────────────────────────────────────────────

type recommendRequest struct {
	Query  string `json:"query"`
	TopN   int    `json:"top_n"`
	Method string `json:"method"`
}

type recommendResponse struct {
	Success         *bool               `json:"success"`
	Query           string              `json:"query"`
	Method          string              `json:"method"`
	TotalResults    int                 `json:"total_results"`
	Recommendations *[]model.JobPosting `json:"recommendations"`
}

// FetchRankedJobs runs a ranked search. Every returned posting carries
// both rank and similarity score, ordered by rank.
func (c *Client) FetchRankedJobs(ctx context.Context, query string, topN int, method string) (model.RankedPage, error) {
	ctx, span := tracer.Start(ctx, "FetchRankedJobs")
	defer span.End()
	span.SetAttributes(telemetry.Query(query), telemetry.Method(method), telemetry.TopN(topN))

	if strings.TrimSpace(query) == "" {
		return model.RankedPage{}, errors.InvalidInput("ranked search needs a non-empty query", nil)
	}
	if topN < 1 {
		return model.RankedPage{}, errors.InvalidInput(fmt.Sprintf("top_n must be positive, got %d", topN), nil)
	}

	var resp recommendResponse
	body := recommendRequest{Query: query, TopN: topN, Method: method}
	if err := c.http.JSON(ctx, http.MethodPost, "/model/recommend", nil, body, &resp); err != nil {
		span.RecordError(err)
		return model.RankedPage{}, err
	}
	if resp.Success != nil && !*resp.Success {
		return model.RankedPage{}, errors.Protocol("recommendation response reports failure", nil)
	}
	if resp.Recommendations == nil {
		return model.RankedPage{}, errors.Protocol("recommendation response without recommendations", nil)
	}

	jobs := make([]model.JobPosting, 0, len(*resp.Recommendations))
	for _, j := range *resp.Recommendations {
		if !j.Ranked() {
			return model.RankedPage{}, errors.Protocol(fmt.Sprintf("recommendation %s lacks rank or similarity_score", j.ID), nil)
		}
		j = normalize(j)
		if err := j.Validate(); err != nil {
			return model.RankedPage{}, errors.Protocol("invalid recommendation", err)
		}
		jobs = append(jobs, j)
	}
	sort.SliceStable(jobs, func(a, b int) bool { return *jobs[a].Rank < *jobs[b].Rank })
	span.SetAttributes(telemetry.Results(len(jobs)))

	total := resp.TotalResults
	if total < len(jobs) {
		total = len(jobs)
	}
	c.logger.Debug("ranked search done",
		zap.String("method", method),
		zap.Int("returned", len(jobs)),
		zap.Int("total", total))

	return model.RankedPage{Query: query, Method: method, Total: total, Jobs: jobs}, nil
}

// ─── Bulk listing ──────────────────────────────────────────────────────────

type jobsResponse struct {
	Total int                 `json:"total"`
	Skip  int                 `json:"skip"`
	Limit int                 `json:"limit"`
	Jobs  *[]model.JobPosting `json:"jobs"`
}

// FetchAllJobs returns one page of the bulk listing in server order.
// Rank and similarity score never appear on bulk postings.
func (c *Client) FetchAllJobs(ctx context.Context, offset, limit int) (model.ListPage, error) {
	ctx, span := tracer.Start(ctx, "FetchAllJobs")
	defer span.End()
	span.SetAttributes(telemetry.Page(offset, limit)...)

	if offset < 0 || limit < 1 {
		return model.ListPage{}, errors.InvalidInput(fmt.Sprintf("invalid page skip=%d limit=%d", offset, limit), nil)
	}

	query := url.Values{}
	query.Set("skip", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	var resp jobsResponse
	if err := c.http.JSON(ctx, http.MethodGet, "/model/jobs", query, nil, &resp); err != nil {
		span.RecordError(err)
		return model.ListPage{}, err
	}
	if resp.Jobs == nil {
		return model.ListPage{}, errors.Protocol("jobs response without jobs", nil)
	}

	jobs := make([]model.JobPosting, 0, len(*resp.Jobs))
	for _, j := range *resp.Jobs {
		j = normalize(j.Unranked())
		if err := j.Validate(); err != nil {
			return model.ListPage{}, errors.Protocol("invalid job", err)
		}
		jobs = append(jobs, j)
	}

	span.SetAttributes(telemetry.Results(len(jobs)))
	c.logger.Debug("fetched jobs page",
		zap.Int("skip", resp.Skip),
		zap.Int("limit", resp.Limit),
		zap.Int("returned", len(jobs)),
		zap.Int("total", resp.Total))

	return model.ListPage{Total: resp.Total, Skip: resp.Skip, Limit: resp.Limit, Jobs: jobs}, nil
}

// ─── Lookup ────────────────────────────────────────────────────────────────

// FetchJobByID looks a posting up by identifier. It fails with NOT_FOUND
// when the backend does not know the id.
func (c *Client) FetchJobByID(ctx context.Context, id model.JobID) (model.JobPosting, error) {
	ctx, span := tracer.Start(ctx, "FetchJobByID")
	defer span.End()
	span.SetAttributes(telemetry.JobID(id.String()))

	if id == "" {
		return model.JobPosting{}, errors.InvalidInput("empty job id", nil)
	}

	var job model.JobPosting
	err := c.http.JSON(ctx, http.MethodGet, "/model/jobs/"+url.PathEscape(id.String()), nil, nil, &job)
	if err == nil {
		if job.ID == "" {
			job.ID = id
		}
		return normalize(job.Unranked()), nil
	}

	status := errors.StatusCode(err)
	if status != http.StatusNotFound && status != http.StatusMethodNotAllowed {
		span.RecordError(err)
		return model.JobPosting{}, err
	}
	if !c.opts.LookupFallback {
		return model.JobPosting{}, errors.NotFound(fmt.Sprintf("job %s not found", id), nil)
	}

	span.SetAttributes(telemetry.LookupFallback())
	c.logger.Debug("direct lookup unavailable, scanning listing",
		zap.String("id", id.String()),
		zap.Int("status_code", status),
		zap.Int("scan_limit", c.opts.ScanLimit))

	page, err := c.FetchAllJobs(ctx, 0, c.opts.ScanLimit)
	if err != nil {
		return model.JobPosting{}, err
	}
	for _, j := range page.Jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return model.JobPosting{}, errors.NotFound(fmt.Sprintf("job %s not found", id), nil)
}

// ─── Applications ──────────────────────────────────────────────────────────

type applicationRequest struct {
	JobID model.JobID `json:"job_id"`
}

// SubmitApplication applies to a job. It is not idempotent: calling it
// twice may create two applications.
func (c *Client) SubmitApplication(ctx context.Context, id model.JobID) (model.Acknowledgement, error) {
	ctx, span := tracer.Start(ctx, "SubmitApplication")
	defer span.End()
	span.SetAttributes(telemetry.JobID(id.String()))

	if err := c.http.JSON(ctx, http.MethodPost, "/applications", nil, applicationRequest{JobID: id}, nil); err != nil {
		span.RecordError(err)
		c.logger.Warn("application failed", zap.String("id", id.String()), zap.Error(err))
		return model.Acknowledgement{}, err
	}

	c.logger.Info("application submitted", zap.String("id", id.String()))
	return model.Acknowledgement{JobID: id, Applied: true, Message: "Aplicación enviada correctamente"}, nil
}

func normalize(j model.JobPosting) model.JobPosting {
	j.Title = strings.TrimSpace(j.Title)
	j.Company = strings.TrimSpace(j.Company)
	j.Location = strings.TrimSpace(j.Location)
	return j
}
