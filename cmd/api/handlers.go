package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/safar/go-sql-shop/internal/database"
	"github.com/safar/go-sql-shop/internal/models"
	"github.com/safar/go-sql-shop/internal/service"
	"github.com/safar/go-sql-shop/internal/store"
)

const requestIDHeader = "X-Request-ID"

type server struct {
	db         *sql.DB
	members    *service.MemberService
	items      *service.ItemService
	orders     *service.OrderService
	log        *log.Entry
	maxRetries int
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /members", s.handleJoinMember)
	mux.HandleFunc("GET /members", s.handleListMembers)
	mux.HandleFunc("GET /members/{id}", s.handleGetMember)
	mux.HandleFunc("GET /members/{id}/orders", s.handleMemberOrders)

	mux.HandleFunc("POST /items", s.handleCreateItem)
	mux.HandleFunc("GET /items", s.handleListItems)
	mux.HandleFunc("GET /items/{id}", s.handleGetItem)
	mux.HandleFunc("PUT /items/{id}", s.handleUpdateItem)

	mux.HandleFunc("POST /orders", s.handlePlaceOrder)
	mux.HandleFunc("GET /orders", s.handleSearchOrders)
	mux.HandleFunc("GET /orders/{id}", s.handleGetOrder)
	mux.HandleFunc("POST /orders/{id}/cancel", s.handleCancelOrder)
	mux.HandleFunc("POST /orders/{id}/delivery/complete", s.handleCompleteDelivery)

	mux.HandleFunc("GET /api/orders", s.handleFetchOrders)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.withRequestID(mux)
}

// withRequestID tags every request with an id, reusing the caller's one
// when present, and logs the request once it completes.
func (s *server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.WithFields(log.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Debug("request handled")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handleHealth reports unhealthy while the database does not answer a ping.
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"message": err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (s *server) handleJoinMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string         `json:"name"`
		Address models.Address `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := s.members.Join(r.Context(), req.Name, req.Address)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	result, err := s.members.FindMembers(r.Context(), page, pageSize)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	member, err := s.members.FindMember(r.Context(), id)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, member)
}

func (s *server) handleMemberOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	orders, err := s.orders.MemberOrders(r.Context(), id)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

type itemRequest struct {
	Kind     models.ItemKind `json:"kind"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Author   string          `json:"author"`
	ISBN     string          `json:"isbn"`
	Artist   string          `json:"artist"`
	Etc      string          `json:"etc"`
	Director string          `json:"director"`
	Actor    string          `json:"actor"`
}

func (req itemRequest) item() (*models.Item, error) {
	switch req.Kind {
	case models.ItemKindBook:
		return models.NewBook(req.Name, req.Price, req.Stock, req.Author, req.ISBN), nil
	case models.ItemKindAlbum:
		return models.NewAlbum(req.Name, req.Price, req.Stock, req.Artist, req.Etc), nil
	case models.ItemKindMovie:
		return models.NewMovie(req.Name, req.Price, req.Stock, req.Director, req.Actor), nil
	}
	return nil, models.ErrInvalidItemKind
}

func (s *server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := req.item()
	if err != nil {
		s.respondErr(w, err)
		return
	}

	if _, err := s.items.SaveItem(r.Context(), item); err != nil {
		s.respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

func (s *server) handleListItems(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	result, err := s.items.FindItems(r.Context(), page, pageSize)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := s.items.FindItem(r.Context(), id)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

func (s *server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
		Stock int             `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.items.UpdateItem(r.Context(), id, req.Name, req.Price, req.Stock); err != nil {
		s.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID int64 `json:"member_id"`
		Items    []struct {
			ItemID int64 `json:"item_id"`
			Count  int   `json:"count"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	placeReq := service.PlaceOrderRequest{MemberID: req.MemberID}
	for _, item := range req.Items {
		placeReq.Lines = append(placeReq.Lines, service.LineRequest{ItemID: item.ItemID, Count: item.Count})
	}

	var orderID int64
	err := s.retry(r.Context(), func() error {
		var err error
		orderID, err = s.orders.PlaceOrderLines(r.Context(), placeReq)
		return err
	})
	if err != nil {
		s.respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]int64{"id": orderID})
}

func (s *server) handleSearchOrders(w http.ResponseWriter, r *http.Request) {
	search := store.OrderSearch{
		Status:     models.OrderStatus(r.URL.Query().Get("status")),
		MemberName: r.URL.Query().Get("name"),
	}
	if search.Status != "" && search.Status != models.OrderStatusOrder && search.Status != models.OrderStatusCancel {
		respondError(w, http.StatusBadRequest, "Invalid order status")
		return
	}

	orders, err := s.orders.SearchOrders(r.Context(), search)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

func (s *server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	order, err := s.orders.GetOrder(r.Context(), id)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (s *server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := s.retry(r.Context(), func() error {
		return s.orders.CancelOrder(r.Context(), id)
	})
	if err != nil {
		s.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCompleteDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := s.retry(r.Context(), func() error {
		return s.orders.CompleteDelivery(r.Context(), id)
	})
	if err != nil {
		s.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleFetchOrders(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("strategy")
	if name == "" {
		name = string(service.StrategyDTO)
	}
	strategy, err := service.ParseStrategy(name)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := s.orders.FetchOrders(r.Context(), strategy, store.Page{Offset: offset, Limit: limit})
	if err != nil {
		s.respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *server) retry(ctx context.Context, fn func() error) error {
	return database.Retry(ctx, s.maxRetries, fn)
}

func (s *server) respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrIllegalOrderState),
		errors.Is(err, models.ErrDuplicateMember):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidCount),
		errors.Is(err, models.ErrInvalidPrice),
		errors.Is(err, models.ErrInvalidStock),
		errors.Is(err, models.ErrInvalidItemKind),
		errors.Is(err, models.ErrMemberNameRequired),
		errors.Is(err, service.ErrNoOrderLines),
		errors.Is(err, service.ErrUnknownStrategy):
		return http.StatusBadRequest
	case database.IsRetryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("encode JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
