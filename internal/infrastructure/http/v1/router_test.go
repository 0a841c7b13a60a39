package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/core/apperror"
	appctx "bookstore/internal/core/context"
	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/audit"
	"bookstore/internal/domain/catalog/book"
	"bookstore/internal/domain/inventory"
	"bookstore/internal/infrastructure/storage/postgres"
	"bookstore/pkg/logger"
)

type fakeValidator map[string]*appctx.UserContext

func (v fakeValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if u, ok := v[token]; ok {
		return u, nil
	}
	return nil, errors.New("bad token")
}

var (
	adminUser  = &appctx.UserContext{UserID: id.New().String(), FullName: "Ada Admin", Role: appctx.RoleAdmin}
	editorUser = &appctx.UserContext{UserID: id.New().String(), FullName: "Ed Editor", Role: appctx.RoleEditor}
	viewerUser = &appctx.UserContext{UserID: id.New().String(), FullName: "Vi Viewer", Role: appctx.RoleViewer}
)

type fakePool struct{ err error }

func (p fakePool) Ping(context.Context) error { return p.err }
func (fakePool) Stats() postgres.PoolStats { return postgres.PoolStats{MaxConns: 10} }

type fakeBooks struct {
	err       error
	lastActor inventory.Actor
	lastInput book.UpdateInventoryInput
	bulk      []book.BulkItem
	panicOn   string
}

func (f *fakeBooks) result(actor inventory.Actor, change inventory.Change) (*book.Result, error) {
	f.lastActor = actor
	if f.err != nil {
		return nil, f.err
	}
	m := inventory.NewMovement(change, time.Now())
	_ = m.Complete(time.Now())
	return &book.Result{
		Book:     &book.Book{ID: change.EntityID, Title: "Dune", Quantity: change.QuantityAfter, IsActive: true},
		Movement: m,
	}, nil
}

func (f *fakeBooks) Create(_ context.Context, actor inventory.Actor, in book.CreateInput) (*book.Result, error) {
	price := in.Price
	return f.result(actor, inventory.Change{
		EntityType: inventory.EntityBook, EntityID: id.New(), Actor: actor,
		QuantityAfter: in.Quantity, PriceBefore: types.MoneyPtr("0"), PriceAfter: &price,
		MovementType: inventory.MovementRegistration,
	})
}

func (f *fakeBooks) Get(_ context.Context, bookID id.ID) (*book.Book, error) {
	if f.panicOn == "get" {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &book.Book{ID: bookID, Title: "Dune"}, nil
}

func (f *fakeBooks) List(context.Context, book.ListFilter) ([]*book.Book, error) {
	return []*book.Book{}, f.err
}

func (f *fakeBooks) UpdateInventory(_ context.Context, actor inventory.Actor, bookID id.ID, in book.UpdateInventoryInput) (*book.Result, error) {
	f.lastInput = in
	return f.result(actor, inventory.Change{
		EntityType: inventory.EntityBook, EntityID: bookID, Actor: actor,
		QuantityBefore: in.ExpectedQuantity, QuantityAfter: *in.Quantity,
		MovementType: inventory.MovementStockAdjustment,
	})
}

func (f *fakeBooks) Deactivate(_ context.Context, actor inventory.Actor, bookID id.ID, expected int64, _ string) (*book.Result, error) {
	return f.result(actor, inventory.Change{
		EntityType: inventory.EntityBook, EntityID: bookID, Actor: actor,
		QuantityBefore: expected, MovementType: inventory.MovementDeactivation,
	})
}

func (f *fakeBooks) BulkAdjust(_ context.Context, actor inventory.Actor, items []book.BulkItem) ([]*inventory.Movement, error) {
	f.lastActor = actor
	f.bulk = items
	if f.err != nil {
		return nil, f.err
	}
	return []*inventory.Movement{}, nil
}

type fakeHistory struct{}

func (fakeHistory) GetEntityHistory(_ context.Context, entityType string, entityID id.ID, _ int) ([]postgres.AuditEntry, error) {
	return []postgres.AuditEntry{{ID: id.New(), EntityType: entityType, EntityID: entityID, Action: audit.ActionCreate}}, nil
}

type fakeMovements struct{}

func (fakeMovements) Get(_ context.Context, movementID id.ID) (*inventory.Movement, error) {
	return nil, apperror.NewNotFound("movement", movementID)
}

func (fakeMovements) List(context.Context, inventory.MovementFilter) ([]*inventory.Movement, error) {
	return []*inventory.Movement{}, nil
}

func newTestRouter(books *fakeBooks) *gin.Engine {
	return NewRouter(RouterConfig{
		Logger: logger.NewNop(),
		JWTValidator: fakeValidator{
			"admin":  adminUser,
			"editor": editorUser,
			"viewer": viewerUser,
		},
		Pool:      fakePool{},
		Books:     books,
		History:   fakeHistory{},
		Movements: fakeMovements{},
		AppName:   "bookstore",
		Version:   "test",
	})
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(&fakeBooks{})

	w, body := do(t, r, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, body = do(t, r, http.MethodGet, "/health/info", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bookstore", body["app"])
}

func TestRouter_ReadyReportsDatabaseFailure(t *testing.T) {
	r := NewRouter(RouterConfig{
		Logger:       logger.NewNop(),
		JWTValidator: fakeValidator{},
		Pool:         fakePool{err: errors.New("connection refused")},
	})

	w, body := do(t, r, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", body["status"])
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	r := newTestRouter(&fakeBooks{})

	w, body := do(t, r, http.MethodGet, "/api/v1/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, body["code"])

	w, _ = do(t, r, http.MethodGet, "/api/v1/books", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ViewerCannotWrite(t *testing.T) {
	r := newTestRouter(&fakeBooks{})

	w, body := do(t, r, http.MethodPost, "/api/v1/books", "viewer", map[string]any{
		"title": "Dune", "quantity": 3, "price": "9.99",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperror.CodeForbidden, body["code"])

	w, _ = do(t, r, http.MethodGet, "/api/v1/books", "viewer", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CreateBook(t *testing.T) {
	books := &fakeBooks{}
	r := newTestRouter(books)

	w, body := do(t, r, http.MethodPost, "/api/v1/books", "editor", map[string]any{
		"title": "Dune", "author": "Frank Herbert", "quantity": 3, "price": "9.99",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	movement := body["movement"].(map[string]any)
	assert.Equal(t, string(inventory.MovementRegistration), movement["movementType"])
	assert.Equal(t, string(inventory.StatusCompleted), movement["status"])
	assert.Equal(t, string(inventory.DirectionIncrease), movement["direction"])

	assert.Equal(t, editorUser.UserID, books.lastActor.UserID)
	assert.Equal(t, "Ed Editor", books.lastActor.FullName)
	assert.Equal(t, appctx.RoleEditor, books.lastActor.Role)
}

func TestRouter_CreateBook_InvalidBody(t *testing.T) {
	r := newTestRouter(&fakeBooks{})

	w, body := do(t, r, http.MethodPost, "/api/v1/books", "editor", map[string]any{"title": "Dune"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, body["code"])
}

func TestRouter_UpdateInventory(t *testing.T) {
	books := &fakeBooks{}
	r := newTestRouter(books)
	bookID := id.New()

	w, _ := do(t, r, http.MethodPatch, "/api/v1/books/"+bookID.String()+"/inventory", "editor", map[string]any{
		"expectedQuantity": 5, "quantity": 2, "notes": "shrinkage",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(5), books.lastInput.ExpectedQuantity)
	assert.Equal(t, int64(2), *books.lastInput.Quantity)
	assert.Equal(t, "shrinkage", books.lastInput.Notes)
}

func TestRouter_UpdateInventory_Conflict(t *testing.T) {
	bookID := id.New()
	books := &fakeBooks{
		err: apperror.NewConcurrentModification("BOOK", bookID).
			WithDetail("expected_quantity", 5).
			WithDetail("actual_quantity", 4),
	}
	r := newTestRouter(books)

	w, body := do(t, r, http.MethodPatch, "/api/v1/books/"+bookID.String()+"/inventory", "editor", map[string]any{
		"expectedQuantity": 5, "quantity": 2,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeConcurrentModification, body["code"])
	details := body["details"].(map[string]any)
	assert.EqualValues(t, 4, details["actual_quantity"])
	assert.Equal(t, true, details[apperror.DetailRetryable])
}

func TestRouter_DatabaseErrorHidesCause(t *testing.T) {
	books := &fakeBooks{err: apperror.NewDatabase(errors.New("relation books does not exist"), false)}
	r := newTestRouter(books)

	w, _ := do(t, r, http.MethodGet, "/api/v1/books/"+id.New().String(), "viewer", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation books")
}

func TestRouter_Deactivate(t *testing.T) {
	r := newTestRouter(&fakeBooks{})
	path := "/api/v1/books/" + id.New().String()

	w, body := do(t, r, http.MethodDelete, path, "editor", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "expectedQuantity is required")
	assert.Equal(t, apperror.CodeValidation, body["code"])

	w, body = do(t, r, http.MethodDelete, path+"?expectedQuantity=4", "editor", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	movement := body["movement"].(map[string]any)
	assert.Equal(t, string(inventory.MovementDeactivation), movement["movementType"])
}

func TestRouter_InvalidID(t *testing.T) {
	r := newTestRouter(&fakeBooks{})

	w, body := do(t, r, http.MethodGet, "/api/v1/books/not-an-id", "viewer", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, body["code"])
}

func TestRouter_History(t *testing.T) {
	r := newTestRouter(&fakeBooks{})

	w, body := do(t, r, http.MethodGet, "/api/v1/books/"+id.New().String()+"/history", "viewer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["items"], 1)
}

func TestRouter_Movements(t *testing.T) {
	r := newTestRouter(&fakeBooks{})

	w, _ := do(t, r, http.MethodGet, "/api/v1/inventory/movements?status=COMPLETED&movementType=PRICE_CHANGE", "viewer", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := do(t, r, http.MethodGet, "/api/v1/inventory/movements?status=DONE", "viewer", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, body["code"])

	w, _ = do(t, r, http.MethodGet, "/api/v1/inventory/movements?limit=10000", "viewer", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = do(t, r, http.MethodGet, "/api/v1/inventory/movements/"+id.New().String(), "viewer", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, body["code"])
}

func TestRouter_BulkAdjustAdminOnly(t *testing.T) {
	books := &fakeBooks{}
	r := newTestRouter(books)
	req := map[string]any{
		"items": []map[string]any{
			{"bookId": id.New().String(), "expectedQuantity": 1, "quantity": 2},
			{"bookId": id.New().String(), "expectedQuantity": 3, "price": "4.50"},
		},
	}

	w, _ := do(t, r, http.MethodPost, "/api/v1/inventory/bulk", "editor", req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/inventory/bulk", "admin", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, books.bulk, 2)
	assert.True(t, books.bulk[1].Price.Equal(types.MustMoney("4.50")))
}

func TestRouter_BulkAdjust_InvalidBookID(t *testing.T) {
	r := newTestRouter(&fakeBooks{})

	w, body := do(t, r, http.MethodPost, "/api/v1/inventory/bulk", "admin", map[string]any{
		"items": []map[string]any{{"bookId": "nope", "expectedQuantity": 1, "quantity": 2}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["message"], "items[0].bookId")
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	r := newTestRouter(&fakeBooks{panicOn: "get"})

	w, body := do(t, r, http.MethodGet, "/api/v1/books/"+id.New().String(), "viewer", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body["code"])
}
