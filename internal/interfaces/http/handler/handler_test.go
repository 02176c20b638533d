package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	attachmentapp "github.com/yunmao/backend/internal/application/attachment"
	purchaseapp "github.com/yunmao/backend/internal/application/purchase"
	saleapp "github.com/yunmao/backend/internal/application/sale"
	"github.com/yunmao/backend/internal/infrastructure/persistence"
	"github.com/yunmao/backend/internal/infrastructure/storage"
	"github.com/yunmao/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// envelope mirrors dto.Response with the payload left undecoded
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total    int64 `json:"total"`
		Page     int   `json:"page"`
		PageSize int   `json:"page_size"`
	} `json:"meta"`
}

// testAPI runs the handlers on the real services over an in-memory SQLite database
type testAPI struct {
	t        *testing.T
	engine   *gin.Engine
	tenantID uuid.UUID
	objects  *storage.MemoryObjectStorage
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zaptest.NewLogger(t)

	db, err := persistence.NewSQLiteDatabase(":memory:", persistence.WithLogger(log), persistence.WithLogLevel("silent"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	contractRepo := persistence.NewGormContractRepository(db.DB)
	orderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	lineRepo := persistence.NewGormInvoiceLineRepository(db.DB)
	attachmentRepo := persistence.NewGormAttachmentRepository(db.DB)
	objects := storage.NewMemoryObjectStorage()

	contractService := purchaseapp.NewContractService(contractRepo, nil, log)
	orderService := saleapp.NewOrderService(orderRepo, lineRepo, nil, log)
	lineService := saleapp.NewInvoiceLineService(lineRepo, orderRepo, attachmentRepo, nil, log)
	attachmentService := attachmentapp.NewAttachmentService(attachmentRepo, objects, nil, log)

	contracts := NewContractHandler(contractService)
	orders := NewSalesOrderHandler(orderService, lineService)
	lines := NewInvoiceLineHandler(lineService)
	attachments := NewAttachmentHandler(attachmentService, lineService)

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.TenantMiddleware(middleware.TenantConfig{}))
	api := engine.Group("/api/v1")

	api.POST("/contracts", contracts.Create)
	api.GET("/contracts", contracts.List)
	api.GET("/contracts/lookup", contracts.Lookup)
	api.GET("/contracts/:id", contracts.GetByID)
	api.PUT("/contracts/:id", contracts.Update)
	api.POST("/contracts/:id/duplicate", contracts.Duplicate)
	api.DELETE("/contracts/:id", contracts.Delete)

	api.POST("/sales-orders", orders.Create)
	api.GET("/sales-orders", orders.List)
	api.GET("/sales-orders/:id", orders.GetByID)
	api.DELETE("/sales-orders/:id", orders.Delete)
	api.GET("/sales-orders/:id/invoice-lines", orders.ListInvoiceLines)
	api.GET("/sales-orders/:id/invoice-summary", orders.InvoiceSummary)

	api.POST("/invoice-lines", lines.Create)
	api.GET("/invoice-lines", lines.List)
	api.GET("/invoice-lines/:id", lines.GetByID)
	api.PUT("/invoice-lines/:id", lines.Update)
	api.PATCH("/invoice-lines/:id/amounts", lines.SetAmounts)
	api.POST("/invoice-lines/:id/recompute", lines.RecomputeTotal)
	api.PUT("/invoice-lines/:id/attachments", lines.ReplaceAttachments)
	api.DELETE("/invoice-lines/:id/attachments/:attachment_id", lines.DetachAttachment)
	api.DELETE("/invoice-lines/:id", lines.Delete)

	api.POST("/attachments", attachments.Register)
	api.GET("/attachments/:id", attachments.GetByID)
	api.GET("/attachments/:id/invoice-lines", attachments.ListInvoiceLines)

	return &testAPI{t: t, engine: engine, tenantID: uuid.New(), objects: objects}
}

func (a *testAPI) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderTenantID, a.tenantID.String())
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// decode unmarshals the data payload of a successful response
func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (a *testAPI) createOrder(name string) saleapp.SalesOrderResponse {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/api/v1/sales-orders", map[string]any{"name": name, "partner_name": "Acme"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[saleapp.SalesOrderResponse](a.t, env)
}

func (a *testAPI) createLine(orderID uuid.UUID, value, tax float64, attachmentIDs ...uuid.UUID) saleapp.InvoiceLineResponse {
	a.t.Helper()
	body := map[string]any{
		"order_id":      orderID,
		"name":          "INV-001",
		"invoice_value": value,
		"invoice_tax":   tax,
	}
	if len(attachmentIDs) > 0 {
		body["attachment_ids"] = attachmentIDs
	}
	w, env := a.do(http.MethodPost, "/api/v1/invoice-lines", body)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[saleapp.InvoiceLineResponse](a.t, env)
}

func (a *testAPI) registerAttachment(key string) attachmentapp.AttachmentResponse {
	a.t.Helper()
	a.objects.Put(key)
	w, env := a.do(http.MethodPost, "/api/v1/attachments", map[string]any{
		"file_name":    "scan.pdf",
		"file_size":    2048,
		"content_type": "application/pdf",
		"storage_key":  key,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[attachmentapp.AttachmentResponse](a.t, env)
}
