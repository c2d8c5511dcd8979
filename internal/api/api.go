// Package api serves a Storer of Requests over HTTP and repeats stored
// Requests through a Fetcher.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	replayr "github.com/HRemonen/Replayr"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// maxRecordSize bounds the body of POST /requests.
const maxRecordSize = 10 << 20

// Api is an http.Handler exposing the stored Requests.
type Api struct {
	store   replayr.Storer
	fetcher *replayr.Fetcher
	router  *mux.Router
	logger  logrus.FieldLogger
}

// Result is the body of a POST /repeat/{request_id} response.
type Result struct {
	StatusCode int              `json:"status_code"`
	Headers    []replayr.Header `json:"headers"`
	Body       string           `json:"body"`
	Request    replayr.Request  `json:"request"`
}

type apiError struct {
	Error string `json:"error"`
}

// New returns an Api over store. Repeated Requests are sent with fetcher.
func New(store replayr.Storer, fetcher *replayr.Fetcher, logger logrus.FieldLogger) *Api {
	router := mux.NewRouter()

	api := &Api{
		store:   store,
		fetcher: fetcher,
		router:  router,
		logger:  logger,
	}

	router.HandleFunc("/requests", api.GetAllRequests).Methods(http.MethodGet)
	router.HandleFunc("/requests", api.CreateRequest).Methods(http.MethodPost)
	router.HandleFunc("/requests/{request_id:[0-9]+}", api.GetRequest).Methods(http.MethodGet)
	router.HandleFunc("/requests/{request_id:[0-9]+}", api.DeleteRequest).Methods(http.MethodDelete)
	router.HandleFunc("/repeat/{request_id:[0-9]+}", api.RepeatRequest).Methods(http.MethodPost)

	return api
}

func (api *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.router.ServeHTTP(w, r)
}

func (api *Api) GetAllRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := api.store.List(r.Context())
	if err != nil {
		api.fail(w, http.StatusInternalServerError, err)
		return
	}

	api.write(w, http.StatusOK, reqs)
}

func (api *Api) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		api.fail(w, http.StatusNotFound, err)
		return
	}

	req, err := api.store.Get(r.Context(), id)
	if err != nil {
		api.fail(w, statusFor(err), err)
		return
	}

	api.write(w, http.StatusOK, req)
}

// CreateRequest stores the Request in the body. An id of 0 is replaced with
// the store's next id.
func (api *Api) CreateRequest(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxRecordSize))
	if err != nil {
		api.fail(w, http.StatusBadRequest, err)
		return
	}

	var req replayr.Request
	if err := json.Unmarshal(b, &req); err != nil {
		api.fail(w, http.StatusBadRequest, err)
		return
	}

	if req.ID() == 0 {
		id, err := api.store.NextID(r.Context())
		if err != nil {
			api.fail(w, http.StatusInternalServerError, err)
			return
		}
		req = req.WithID(id)
	}

	if err := api.store.Put(r.Context(), req); err != nil {
		api.fail(w, statusFor(err), err)
		return
	}

	api.write(w, http.StatusCreated, req)
}

func (api *Api) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		api.fail(w, http.StatusNotFound, err)
		return
	}

	if err := api.store.Delete(r.Context(), id); err != nil {
		api.fail(w, statusFor(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RepeatRequest sends the stored Request and returns what came back.
func (api *Api) RepeatRequest(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		api.fail(w, http.StatusNotFound, err)
		return
	}

	req, err := api.store.Get(r.Context(), id)
	if err != nil {
		api.fail(w, statusFor(err), err)
		return
	}

	res, err := api.fetcher.Send(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		api.fail(w, status, err)
		return
	}

	api.write(w, http.StatusOK, Result{
		StatusCode: res.StatusCode,
		Headers:    res.Headers,
		Body:       string(res.Body),
		Request:    res.Request,
	})
}

func requestID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["request_id"], 10, 64)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, replayr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, replayr.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, replayr.ErrInvalidMethod),
		errors.Is(err, replayr.ErrEmptyURL),
		errors.Is(err, replayr.ErrEmptyHeaderKey),
		errors.Is(err, replayr.ErrInvalidHeader),
		errors.Is(err, replayr.ErrRelativeURL),
		errors.Is(err, replayr.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, replayr.ErrForbiddenURL),
		errors.Is(err, replayr.ErrRobotsDisallowed):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (api *Api) write(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		api.logger.WithError(err).Error("error encoding response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(b); err != nil {
		api.logger.WithError(err).Warn("error writing response")
	}
}

func (api *Api) fail(w http.ResponseWriter, status int, err error) {
	api.logger.WithError(err).WithField("status", status).Debug("request failed")
	api.write(w, status, apiError{Error: err.Error()})
}
