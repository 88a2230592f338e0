package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/emicklei/go-restful/v3"

	"agentdesk/internal/capture"
	"agentdesk/internal/clients"
	"agentdesk/internal/computer"
	"agentdesk/internal/logger"
	"agentdesk/internal/rtc"
	"agentdesk/internal/types"
	"agentdesk/internal/worker"
)

// Describer reports the display. *computer.Computer implements it.
type Describer interface {
	Options() computer.Descriptor
}

// Artifacts resolves screenshot ids to files. *capture.Capturer implements it.
type Artifacts interface {
	Lookup(id string) (string, error)
}

// Signaler answers WebRTC offers. *rtc.Peers implements it.
type Signaler interface {
	Answer(ctx context.Context, offer string) (string, error)
}

// OfferParams carries a base64 encoded session description.
type OfferParams struct {
	SDP string `json:"sdp" description:"base64 encoded JSON session description"`
}

// APIError is the body of every non-2xx JSON response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Handler serves the computer REST API.
type Handler struct {
	queue     Submitter
	display   Describer
	artifacts Artifacts
	signaler  Signaler
	log       *logger.Logger
}

// NewHandler wires the REST handler. signaler may be nil, which disables
// the rtc/offer route.
func NewHandler(q Submitter, d Describer, a Artifacts, s Signaler, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.New()
	}
	return &Handler{queue: q, display: d, artifacts: a, signaler: s, log: log}
}

// RegisterRoutes registers the computer routes to the WebService
func RegisterRoutes(ws *restful.WebService, h *Handler) {
	ws.Route(ws.GET("/computer/options").To(h.GetOptions).
		Doc("describe the controlled display").
		Returns(http.StatusOK, "OK", computer.Descriptor{}))

	ws.Route(ws.POST("/computer/actions").To(h.PostAction).
		Doc("perform one action").
		Reads(types.ActionMessage{}).
		Returns(http.StatusOK, "OK", types.ResultMessage{}).
		Returns(http.StatusBadRequest, "Bad Request", types.ResultMessage{}).
		Returns(http.StatusInternalServerError, "Internal Server Error", types.ResultMessage{}).
		Returns(http.StatusServiceUnavailable, "Service Unavailable", types.ResultMessage{}))

	ws.Route(ws.GET("/computer/screenshots/{id}").To(h.GetScreenshot).
		Doc("download a persisted screenshot").
		Param(ws.PathParameter("id", "artifact id").DataType("string")).
		Produces("image/png").
		Returns(http.StatusOK, "PNG image", nil).
		Returns(http.StatusNotFound, "Not Found", APIError{}))

	if h.signaler != nil {
		ws.Route(ws.POST("/computer/rtc/offer").To(h.PostOffer).
			Doc("open a WebRTC data channel for actions").
			Reads(OfferParams{}).
			Returns(http.StatusOK, "OK", OfferParams{}).
			Returns(http.StatusBadRequest, "Bad Request", APIError{}))
	}
}

func (h *Handler) GetOptions(req *restful.Request, resp *restful.Response) {
	resp.WriteAsJson(h.display.Options())
}

func (h *Handler) PostAction(req *restful.Request, resp *restful.Response) {
	var msg types.ActionMessage
	if err := req.ReadEntity(&msg); err != nil {
		resp.WriteHeaderAndJson(http.StatusBadRequest,
			types.ResultMessage{Error: fmt.Sprintf("invalid body: %v", err), ErrorKind: "bad_message"},
			restful.MIME_JSON)
		return
	}

	res, err := h.queue.Submit(req.Request.Context(), msg.Request())
	out := types.NewResultMessage(msg.ID, res, err)
	if err != nil {
		h.log.Debug("action %s failed: %v", msg.Action, err)
		resp.WriteHeaderAndJson(statusFor(err), out, restful.MIME_JSON)
		return
	}
	resp.WriteAsJson(out)
}

func (h *Handler) GetScreenshot(req *restful.Request, resp *restful.Response) {
	id := req.PathParameter("id")
	path, err := h.artifacts.Lookup(id)
	if err != nil {
		if errors.Is(err, capture.ErrNotFound) {
			writeError(resp, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Screenshot not found: %s", id))
			return
		}
		writeError(resp, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	resp.Header().Set("Content-Type", "image/png")
	http.ServeFile(resp.ResponseWriter, req.Request, path)
}

func (h *Handler) PostOffer(req *restful.Request, resp *restful.Response) {
	var params OfferParams
	if err := req.ReadEntity(&params); err != nil || strings.TrimSpace(params.SDP) == "" {
		writeError(resp, http.StatusBadRequest, "INVALID_REQUEST", "sdp is required")
		return
	}
	answer, err := h.signaler.Answer(req.Request.Context(), params.SDP)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, rtc.ErrBadOffer) {
			status = http.StatusBadRequest
		}
		writeError(resp, status, "RTC_ERROR", err.Error())
		return
	}
	resp.WriteAsJson(OfferParams{SDP: answer})
}

// statusFor maps a dispatch error to an HTTP status.
func statusFor(err error) int {
	switch {
	case computer.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, worker.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(resp *restful.Response, status int, code, message string) {
	resp.WriteHeaderAndJson(status, APIError{Code: code, Message: message}, restful.MIME_JSON)
}

// NewContainer builds the HTTP surface: the REST API under /api/v1, the
// websocket endpoint and a health check.
func NewContainer(h *Handler, mgr *clients.Manager, log *logger.Logger) *restful.Container {
	container := restful.NewContainer()

	ws := new(restful.WebService)
	ws.Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)
	RegisterRoutes(ws, h)
	container.Add(ws)

	for _, route := range ws.Routes() {
		log.Debug("route %s %s: %s", route.Method, route.Path, route.Doc)
	}

	container.Handle("/ws", HandleWS(mgr, h.queue, log))
	container.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))

	cors := restful.CrossOriginResourceSharing{
		AllowedHeaders: []string{"Content-Type", "Accept"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedDomains: []string{"*"},
		Container:      container,
	}
	container.Filter(cors.Filter)

	container.Filter(func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		url := req.Request.URL.Path
		if req.Request.URL.RawQuery != "" {
			url += "?" + req.Request.URL.RawQuery
		}
		log.Info("%s %s %s", req.Request.Method, url, req.Request.Proto)
		chain.ProcessFilter(req, resp)
		log.Debug("Response status: %d", resp.StatusCode())
	})

	return container
}
