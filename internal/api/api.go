// Package api exposes the dispatcher's commands and queries over HTTP so
// the out-of-scope surfaces (web front end, chat bot) can drive the core.
// Every route translates JSON in and out of one dispatcher send.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rensai-hq/rensai-release-tracker/internal/catalog"
	"github.com/rensai-hq/rensai-release-tracker/internal/dispatch"
	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
	"github.com/rensai-hq/rensai-release-tracker/internal/logger"
	"github.com/rensai-hq/rensai-release-tracker/internal/scrape"
)

const requestTimeout = 60 * time.Second

// NewRouter builds the HTTP surface over the given dispatcher.
func NewRouter(d *dispatch.Dispatcher, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}
	ctrl := &controller{dispatcher: d, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/media", ctrl.addMedia)
		r.Get("/media", ctrl.listMedia)
		r.Get("/media/{mediaID}", ctrl.mediaByID)
		r.Post("/media/{name}/targets", ctrl.addTarget)

		r.Post("/scrape", ctrl.runScrape)

		r.Get("/websites", ctrl.listWebsites)

		r.Post("/subscriptions", ctrl.subscribe)
		r.Delete("/subscriptions", ctrl.unsubscribe)
		r.Get("/subscribers/{externalID}/subscriptions", ctrl.subscriptionsOf)
	})

	return r
}

type controller struct {
	dispatcher *dispatch.Dispatcher
	log        logger.Logger
}

type errorBody struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// statusOf maps the closed failure taxonomy onto HTTP statuses. Unknown
// codes land on 500 so a new code cannot silently leak a success status.
func statusOf(code domain.ErrorCode) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeScrapeTargetExists, domain.CodeScrapeTargetReferencesOtherMedia:
		return http.StatusConflict
	case domain.CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case domain.CodeScrapeFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (c *controller) reject(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	c.writeError(w, statusOf(code), code, err.Error())
}

func (c *controller) writeError(w http.ResponseWriter, status int, code domain.ErrorCode, message string) {
	c.writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

func (c *controller) writeJSON(w http.ResponseWriter, status int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		c.log.ErrorObj("response encoding failed", "api_encode_error", map[string]any{
			"error": err.Error(),
		})
		http.Error(w, `{"error":{"code":"internal","message":"response encoding failed"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}

// decode reads the request body into v. A body that does not parse is
// reported as a 400 and the handler must return.
func (c *controller) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			c.writeError(w, http.StatusBadRequest, domain.CodeInvariantViolation, "request body is required")
			return false
		}
		c.writeError(w, http.StatusBadRequest, domain.CodeInvariantViolation, "decode request body: "+err.Error())
		return false
	}
	return true
}

func (c *controller) addMedia(w http.ResponseWriter, r *http.Request) {
	var req scrape.AddMedia
	if !c.decode(w, r, &req) {
		return
	}
	ack, err := dispatch.Send[scrape.AddMedia, scrape.MediaAck](r.Context(), c.dispatcher, req)
	if err != nil {
		c.reject(w, err)
		return
	}
	c.writeJSON(w, http.StatusCreated, ack)
}

func (c *controller) addTarget(w http.ResponseWriter, r *http.Request) {
	var req scrape.AddScrapeTarget
	if !c.decode(w, r, &req) {
		return
	}
	req.MediaName = chi.URLParam(r, "name")

	ack, err := dispatch.Send[scrape.AddScrapeTarget, scrape.TargetAck](r.Context(), c.dispatcher, req)
	if err != nil {
		c.reject(w, err)
		return
	}
	c.writeJSON(w, http.StatusCreated, ack)
}

func (c *controller) runScrape(w http.ResponseWriter, r *http.Request) {
	report, err := dispatch.Send[scrape.ScrapeNewReleases, scrape.CycleReport](r.Context(), c.dispatcher, scrape.ScrapeNewReleases{})
	if err != nil {
		c.reject(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, report)
}

func (c *controller) mediaByID(w http.ResponseWriter, r *http.Request) {
	req := catalog.MediaQuery{MediaID: domain.MediaID(chi.URLParam(r, "mediaID"))}

	details, err := dispatch.Send[catalog.MediaQuery, catalog.MediaDetails](r.Context(), c.dispatcher, req)
	if err != nil {
		c.reject(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, details)
}

func (c *controller) listMedia(w http.ResponseWriter, r *http.Request) {
	page, ok := c.queryInt(w, r, "page", 0)
	if !ok {
		return
	}
	size, ok := c.queryInt(w, r, "size", 0)
	if !ok {
		return
	}

	listing, err := dispatch.Send[catalog.AvailableMediaQuery, catalog.AvailableMedia](r.Context(), c.dispatcher, catalog.AvailableMediaQuery{
		PageIndex: page,
		PageSize:  size,
	})
	if err != nil {
		c.reject(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, listing)
}

func (c *controller) listWebsites(w http.ResponseWriter, r *http.Request) {
	sites, err := dispatch.Send[catalog.AvailableWebsitesQuery, catalog.AvailableWebsites](r.Context(), c.dispatcher, catalog.AvailableWebsitesQuery{})
	if err != nil {
		c.reject(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, sites)
}

func (c *controller) subscribe(w http.ResponseWriter, r *http.Request) {
	var req catalog.SubscribeMedia
	if !c.decode(w, r, &req) {
		return
	}
	ack, err := dispatch.Send[catalog.SubscribeMedia, catalog.SubscribeAck](r.Context(), c.dispatcher, req)
	if err != nil {
		c.reject(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, ack)
}

func (c *controller) unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req catalog.UnsubscribeMedia
	if !c.decode(w, r, &req) {
		return
	}
	ack, err := dispatch.Send[catalog.UnsubscribeMedia, catalog.UnsubscribeAck](r.Context(), c.dispatcher, req)
	if err != nil {
		c.reject(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, ack)
}

func (c *controller) subscriptionsOf(w http.ResponseWriter, r *http.Request) {
	req := catalog.MediaSubscriptionsQuery{ExternalID: chi.URLParam(r, "externalID")}

	subs, err := dispatch.Send[catalog.MediaSubscriptionsQuery, catalog.MediaSubscriptions](r.Context(), c.dispatcher, req)
	if err != nil {
		c.reject(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, subs)
}

// queryInt parses an optional integer query parameter, rejecting the
// request with a 400 when the value does not parse.
func (c *controller) queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.writeError(w, http.StatusBadRequest, domain.CodeInvariantViolation, name+" must be an integer")
		return 0, false
	}
	return v, true
}
