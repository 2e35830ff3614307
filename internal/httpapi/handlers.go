// Package httpapi exposes the ledger over a thin JSON HTTP surface.
// Handlers decode requests, call the service layer, and map typed errors
// to status codes; no ledger rules live here.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/allocator"
	"github.com/splitledger/splitledger/internal/middleware"
	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/money"
	"github.com/splitledger/splitledger/internal/service"
	"github.com/splitledger/splitledger/internal/storage"
)

// Server holds the services the HTTP handlers delegate to.
type Server struct {
	expenses *service.ExpenseService
	groups   *service.GroupService
}

// New creates the HTTP API server.
func New(expenses *service.ExpenseService, groups *service.GroupService) *Server {
	return &Server{expenses: expenses, groups: groups}
}

// Register attaches all API routes to the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses/personal", s.handleListPersonalExpenses)
	mux.HandleFunc("GET /api/expenses/summary", s.handleSummary)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/groups", s.handleCreateGroup)
	mux.HandleFunc("GET /api/groups", s.handleListGroups)
	mux.HandleFunc("GET /api/groups/{id}", s.handleGetGroup)
	mux.HandleFunc("POST /api/groups/{id}/members", s.handleAddGroupMember)
	mux.HandleFunc("GET /api/groups/{id}/expenses", s.handleListGroupExpenses)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type splitInput struct {
	UserID     string          `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

type createExpenseRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	GroupID     string          `json:"group_id"`
	CategoryID  string          `json:"category_id"`
	SplitMode   string          `json:"split_mode"`
	Splits      []splitInput    `json:"splits"`
	Date        string          `json:"date"`
}

type obligationResponse struct {
	ID     string      `json:"id"`
	OwedBy string      `json:"owed_by"`
	Mode   string      `json:"split_mode"`
	Amount money.Money `json:"amount"`
}

type expenseResponse struct {
	ID          string               `json:"id"`
	Description string               `json:"description"`
	Amount      money.Money          `json:"amount"`
	Date        string               `json:"date"`
	PayerID     string               `json:"payer_id"`
	GroupID     string               `json:"group_id,omitempty"`
	CategoryID  string               `json:"category_id,omitempty"`
	Obligations []obligationResponse `json:"splits"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	resp := expenseResponse{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		Date:        e.Date.UTC().Format(time.RFC3339),
		PayerID:     e.PayerID,
		GroupID:     e.GroupID,
		CategoryID:  e.CategoryID,
	}
	for _, o := range e.Obligations {
		resp.Obligations = append(resp.Obligations, obligationResponse{
			ID:     o.ID,
			OwedBy: o.OwedBy,
			Mode:   string(o.Mode),
			Amount: o.Amount,
		})
	}
	return resp
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	mode := models.SplitMode(req.SplitMode)
	if req.SplitMode != "" && !mode.Valid() {
		writeError(w, fmt.Sprintf("unknown split mode %q", req.SplitMode), http.StatusBadRequest)
		return
	}
	draft := service.ExpenseDraft{
		PayerID:     userID,
		GroupID:     req.GroupID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Amount:      money.FromDecimal(req.Amount),
		Mode:        mode,
	}

	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, "invalid date, want RFC 3339 or YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		draft.Date = date
	}

	for _, in := range req.Splits {
		value := in.Amount
		if mode == models.SplitPercentage {
			value = in.Percentage
		}
		draft.Splits = append(draft.Splits, allocator.Participant{UserID: in.UserID, Value: value})
	}

	expense, err := s.expenses.CreateExpense(r.Context(), draft)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	expense, err := s.expenses.GetExpense(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleListPersonalExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	filter := storage.ExpenseFilter{CategoryID: r.URL.Query().Get("category_id")}
	var err error
	if filter.From, filter.To, err = parseDateRange(r); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	expenses, err := s.expenses.ListPersonalExpenses(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]expenseResponse, 0, len(expenses))
	for i := range expenses {
		resp = append(resp, toExpenseResponse(&expenses[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListGroupExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	expenses, err := s.expenses.ListGroupExpenses(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]expenseResponse, 0, len(expenses))
	for i := range expenses {
		resp = append(resp, toExpenseResponse(&expenses[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := s.expenses.Summarize(r.Context(), userID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"by_category":   summary.ByCategory,
		"uncategorized": summary.Uncategorized,
		"total":         summary.Total,
	})
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type categoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	category, err := s.expenses.CreateCategory(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	categories, err := s.expenses.ListCategories(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, categoryResponse{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	writeJSON(w, http.StatusOK, resp)
}

type createGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
}

type memberResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type groupResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Members     []memberResponse `json:"members"`
	CreatedAt   int64            `json:"created_at"`
}

func toGroupResponse(g *models.Group) groupResponse {
	resp := groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedAt:   g.CreatedAt,
	}
	for _, m := range g.Members {
		resp.Members = append(resp.Members, memberResponse{UserID: m.UserID, Role: m.Role})
	}
	return resp
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	group, err := s.groups.CreateGroup(r.Context(), userID, req.Name, req.Description, req.Members)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupResponse(group))
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	groups, err := s.groups.ListGroups(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]groupResponse, 0, len(groups))
	for i := range groups {
		resp = append(resp, toGroupResponse(&groups[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	group, err := s.groups.GetGroup(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleAddGroupMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req addMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}
	if req.UserID == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	if err := s.groups.AddMember(r.Context(), userID, r.PathValue("id"), req.UserID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"user_id": req.UserID})
}

// requireUser extracts the gateway-resolved caller ID, rejecting the
// request when it is absent.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, "authentication required", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return err
	}
	return nil
}

// parseDate accepts RFC 3339 timestamps or plain dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseDateRange(r *http.Request) (from, to time.Time, err error) {
	if s := r.URL.Query().Get("start_date"); s != "" {
		if from, err = parseDate(s); err != nil {
			return from, to, fmt.Errorf("invalid start_date %q", s)
		}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		if to, err = parseDate(s); err != nil {
			return from, to, fmt.Errorf("invalid end_date %q", s)
		}
	}
	return from, to, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps typed core errors to HTTP status codes:
// validation and allocation problems are 400, membership refusals 403,
// missing entities 404, anything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		mismatch    *allocator.SplitMismatchError
		participant *service.InvalidParticipantError
	)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, "not found", http.StatusNotFound)
	case errors.Is(err, service.ErrNotAMember),
		errors.Is(err, service.ErrNotAnAdmin):
		writeError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, allocator.ErrEmptyGroup),
		errors.Is(err, allocator.ErrUnknownMode),
		errors.Is(err, allocator.ErrNegativeShare),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrMissingDescription),
		errors.Is(err, service.ErrMissingName),
		errors.Is(err, service.ErrAlreadyMember),
		errors.As(err, &mismatch),
		errors.As(err, &participant):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		writeError(w, "internal server error", http.StatusInternalServerError)
	}
}
