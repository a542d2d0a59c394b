package web

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spacesedan/reviewflow/internal/clients"
	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/spacesedan/reviewflow/internal/processing"
	"github.com/spacesedan/reviewflow/internal/sentiment"
)

// requestForm binds the same fields from a form post, a query string or a
// JSON body.
type requestForm struct {
	Query        string `form:"q" query:"q" json:"query"`
	Count        int    `form:"count" query:"count" json:"count"`
	Start        int    `form:"start" query:"start" json:"start"`
	Sort         string `form:"sort" query:"sort" json:"sort"`
	Limit        int    `form:"limit" query:"limit" json:"limit"`
	ForceRefresh bool   `form:"force" query:"force" json:"force_refresh"`
}

type itemView struct {
	models.SearchResultItem
	Sentiment sentiment.Score `json:"sentiment"`
}

type analysisView struct {
	Positive      template.HTML
	Negative      template.HTML
	Summary       template.HTML
	AnalyzedCount int
	AnalyzedAt    string
	Cached        bool
}

type pageData struct {
	Query    string
	Count    int
	Sort     string
	MinCount int
	MaxCount int
	Creds    CredentialStatus

	Notice string
	Error  string

	Total         int
	Items         []itemView
	Tally         sentiment.Tally
	Analysis      *analysisView
	StaleAnalysis bool
}

func (s *Server) bindForm(c echo.Context) (requestForm, error) {
	var f requestForm
	if err := c.Bind(&f); err != nil {
		return f, echo.NewHTTPError(http.StatusBadRequest, "invalid request").SetInternal(err)
	}
	if f.Count <= 0 {
		f.Count = s.opts.DefaultCount
	}
	if !models.SortMode(f.Sort).Valid() {
		f.Sort = string(s.opts.DefaultSort)
	}
	return f, nil
}

func (s *Server) newPage(f requestForm) *pageData {
	return &pageData{
		Query:    f.Query,
		Count:    f.Count,
		Sort:     f.Sort,
		MinCount: clients.MIN_DISPLAY,
		MaxCount: clients.MAX_DISPLAY,
		Creds:    s.opts.Credentials,
	}
}

func (p *pageData) setItems(items []models.SearchResultItem) {
	scores, tally := sentiment.ScoreItems(items)
	p.Items = make([]itemView, len(items))
	for i, item := range items {
		p.Items[i] = itemView{SearchResultItem: item, Sentiment: scores[i]}
	}
	p.Tally = tally
}

func (p *pageData) setAnalysis(r *models.AnalysisResult, cached bool) {
	if r == nil {
		return
	}
	view := &analysisView{
		Positive:      renderMarkdown(r.Positive),
		Negative:      renderMarkdown(r.Negative),
		Summary:       renderMarkdown(r.Summary),
		AnalyzedCount: r.AnalyzedCount,
		Cached:        cached,
	}
	if !r.AnalyzedAt.IsZero() {
		view.AnalyzedAt = r.AnalyzedAt.Local().Format("2006-01-02 15:04")
	}
	p.Analysis = view
}

// fillFromStore shows whatever is stored for the page's query.
func (s *Server) fillFromStore(c echo.Context, page *pageData) {
	if strings.TrimSpace(page.Query) == "" {
		return
	}
	snap, err := s.pipeline.Snapshot(c.Request().Context(), page.Query, clients.MAX_DISPLAY)
	if err != nil {
		if page.Error == "" {
			page.Error = processing.UserMessage(err)
		}
		return
	}
	if page.Items == nil {
		page.setItems(snap.Items)
	}
	if page.Analysis == nil && snap.Analysis != nil {
		page.setAnalysis(snap.Analysis, true)
	}
}

func (s *Server) render(c echo.Context, page *pageData) error {
	return c.Render(http.StatusOK, "index.html", page)
}

func (s *Server) index(c echo.Context) error {
	f, err := s.bindForm(c)
	if err != nil {
		return err
	}
	page := s.newPage(f)
	s.fillFromStore(c, page)
	return s.render(c, page)
}

func (s *Server) search(c echo.Context) error {
	f, err := s.bindForm(c)
	if err != nil {
		return err
	}
	page := s.newPage(f)

	out, err := s.pipeline.Search(c.Request().Context(), processing.SearchRequest{
		Query: f.Query,
		Count: f.Count,
		Start: f.Start,
		Sort:  models.SortMode(f.Sort),
	})
	if err != nil {
		page.Error = processing.UserMessage(err)
		s.fillFromStore(c, page)
		return s.render(c, page)
	}

	page.Total = out.Total
	page.setItems(out.Items)
	page.StaleAnalysis = out.HasPriorAnalysis
	page.Notice = "Stored " + strconv.Itoa(out.Stored) + " posts."
	s.fillFromStore(c, page)
	return s.render(c, page)
}

func (s *Server) analyze(c echo.Context) error {
	f, err := s.bindForm(c)
	if err != nil {
		return err
	}
	page := s.newPage(f)

	out, err := s.pipeline.Analyze(c.Request().Context(), processing.AnalyzeRequest{
		Query:        f.Query,
		Limit:        f.Count,
		ForceRefresh: f.ForceRefresh,
	})
	if err != nil {
		page.Error = processing.UserMessage(err)
	} else {
		page.setAnalysis(out.Result, out.Cached)
	}
	s.fillFromStore(c, page)
	return s.render(c, page)
}

func (s *Server) reset(c echo.Context) error {
	f, err := s.bindForm(c)
	if err != nil {
		return err
	}
	page := s.newPage(f)
	if err := s.pipeline.Reset(c.Request().Context()); err != nil {
		page.Error = processing.UserMessage(err)
	} else {
		page.Notice = "The database has been reset."
	}
	return s.render(c, page)
}

type searchResponse struct {
	Query            string     `json:"query"`
	Total            int        `json:"total"`
	Stored           int        `json:"stored"`
	HasPriorAnalysis bool       `json:"has_prior_analysis"`
	Items            []itemView `json:"items"`
}

type analyzeResponse struct {
	Query  string                 `json:"query"`
	Cached bool                   `json:"cached"`
	Result *models.AnalysisResult `json:"result"`
}

type resultsResponse struct {
	Query string          `json:"query"`
	State string          `json:"state"`
	Items []itemView      `json:"items"`
	Tally sentiment.Tally `json:"tally"`
}

func (s *Server) apiSearch(c echo.Context) error {
	f, err := s.bindForm(c)
	if err != nil {
		return err
	}
	out, err := s.pipeline.Search(c.Request().Context(), processing.SearchRequest{
		Query: f.Query,
		Count: f.Count,
		Start: f.Start,
		Sort:  models.SortMode(f.Sort),
	})
	if err != nil {
		return apiError(err)
	}

	page := &pageData{}
	page.setItems(out.Items)
	return c.JSON(http.StatusOK, searchResponse{
		Query:            out.Query,
		Total:            out.Total,
		Stored:           out.Stored,
		HasPriorAnalysis: out.HasPriorAnalysis,
		Items:            page.Items,
	})
}

func (s *Server) apiAnalyze(c echo.Context) error {
	f, err := s.bindForm(c)
	if err != nil {
		return err
	}
	limit := f.Limit
	if limit <= 0 {
		limit = f.Count
	}
	out, err := s.pipeline.Analyze(c.Request().Context(), processing.AnalyzeRequest{
		Query:        f.Query,
		Limit:        limit,
		ForceRefresh: f.ForceRefresh,
	})
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, analyzeResponse{Query: out.Query, Cached: out.Cached, Result: out.Result})
}

func (s *Server) apiResults(c echo.Context) error {
	f, err := s.bindForm(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(f.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, processing.UserMessage(processing.ErrEmptyQuery))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = clients.MAX_DISPLAY
	}
	snap, err := s.pipeline.Snapshot(c.Request().Context(), f.Query, limit)
	if err != nil {
		return apiError(err)
	}

	page := &pageData{}
	page.setItems(snap.Items)
	return c.JSON(http.StatusOK, resultsResponse{
		Query: snap.Query,
		State: snap.State.String(),
		Items: page.Items,
		Tally: page.Tally,
	})
}

func (s *Server) apiAnalysis(c echo.Context) error {
	f, err := s.bindForm(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(f.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, processing.UserMessage(processing.ErrEmptyQuery))
	}
	snap, err := s.pipeline.Snapshot(c.Request().Context(), f.Query, 1)
	if err != nil {
		return apiError(err)
	}
	if snap.Analysis == nil {
		return echo.NewHTTPError(http.StatusNotFound, "This product has not been analyzed yet.")
	}
	return c.JSON(http.StatusOK, analyzeResponse{Query: snap.Query, Cached: true, Result: snap.Analysis})
}
