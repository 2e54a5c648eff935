package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-stock-ledger/internal/auth"
	"go-stock-ledger/internal/database"
	"go-stock-ledger/internal/export"
	"go-stock-ledger/internal/ledger"
	"go-stock-ledger/internal/locker"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

type stubAssistant struct {
	reply string
	err   error
}

func (s stubAssistant) Ask(context.Context, string) (string, error) { return s.reply, s.err }

func newTestRouter(t *testing.T, assistant Assistant) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := database.OpenSQLite(":memory:", log)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	svc := ledger.NewService(db, locker.NewLocal(), log, ledger.WithPhoneRegion("US"))
	h := New(svc, db, log, assistant)

	r := gin.New()
	r.POST("/login", h.Login)
	r.POST("/register", h.Register)
	h.Routes(r, r)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body, err)
	}
	return out
}

func expect(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d: %s", w.Code, status, w.Body)
	}
}

type batchJSON struct {
	ID          string  `json:"id"`
	Quantity    int     `json:"quantity"`
	TotalAmount float64 `json:"totalAmount"`
	Exhausted   bool    `json:"exhausted"`
	PaymentType string  `json:"paymentType"`
}

type saleJSON struct {
	ID          string  `json:"id"`
	Profit      float64 `json:"profit"`
	PaymentType string  `json:"paymentType"`
}

type inventoryJSON struct {
	Category         string      `json:"category"`
	SubCategories    []string    `json:"subCategories"`
	AvailableStocks  int         `json:"availableStocks"`
	Purchases        []batchJSON `json:"purchases"`
	PurchasesHistory []batchJSON `json:"purchasesHistory"`
	Sales            []saleJSON  `json:"sales"`
	SalesHistory     []saleJSON  `json:"salesHistory"`
}

type capitalJSON struct {
	CapitalAmount float64 `json:"capitalAmount"`
	Transactions  []struct {
		TransactionType string  `json:"transactionType"`
		Amount          float64 `json:"amount"`
	} `json:"transactions"`
}

func seed(t *testing.T, r http.Handler) inventoryJSON {
	t.Helper()
	expect(t, do(t, r, http.MethodPost, "/capital", gin.H{"capitalAmount": 1000}), http.StatusCreated)
	w := do(t, r, http.MethodPut, "/purchase/Cables", gin.H{
		"subCategory": "Cat6", "product": "Patch cable", "quantity": 10, "costPerUnit": 5, "paymentType": "Cash",
	})
	expect(t, w, http.StatusOK)
	return decode[inventoryJSON](t, w)
}

func TestPurchaseAndSaleFlow(t *testing.T) {
	r := newTestRouter(t, nil)
	inv := seed(t, r)
	if inv.AvailableStocks != 10 || len(inv.Purchases) != 1 || inv.Purchases[0].TotalAmount != 50 {
		t.Fatalf("unexpected inventory after purchase %+v", inv)
	}
	batchID := inv.Purchases[0].ID

	w := do(t, r, http.MethodPut, "/sales/Cables/"+batchID, gin.H{
		"unitsSold": 10, "unitPrice": 8, "clientName": "Asha", "paymentType": "cash",
	})
	expect(t, w, http.StatusOK)
	inv = decode[inventoryJSON](t, w)
	if inv.AvailableStocks != 0 || !inv.Purchases[0].Exhausted || inv.Sales[0].Profit != 30 {
		t.Fatalf("unexpected inventory after sale %+v", inv)
	}

	w = do(t, r, http.MethodGet, "/capital", nil)
	expect(t, w, http.StatusOK)
	capital := decode[capitalJSON](t, w)
	if capital.CapitalAmount != 1030 || len(capital.Transactions) != 2 {
		t.Fatalf("unexpected capital %+v", capital)
	}
	if capital.Transactions[0].TransactionType != "Purchase" || capital.Transactions[0].Amount != 50 ||
		capital.Transactions[1].TransactionType != "Sale" || capital.Transactions[1].Amount != 80 {
		t.Fatalf("unexpected transaction log %+v", capital.Transactions)
	}

	// Fetching again is idempotent.
	first := do(t, r, http.MethodGet, "/inventory/Cables", nil).Body.String()
	second := do(t, r, http.MethodGet, "/inventory/Cables", nil).Body.String()
	if first != second {
		t.Fatalf("repeated reads differ:\n%s\n%s", first, second)
	}
}

func TestErrorStatuses(t *testing.T) {
	r := newTestRouter(t, nil)
	inv := seed(t, r)
	batchID := inv.Purchases[0].ID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"oversell", http.MethodPut, "/sales/Cables/" + batchID, gin.H{"unitsSold": 11, "unitPrice": 8, "paymentType": "Cash"}, http.StatusBadRequest},
		{"missing units", http.MethodPut, "/sales/Cables/" + batchID, gin.H{"unitPrice": 8, "paymentType": "Cash"}, http.StatusBadRequest},
		{"negative price", http.MethodPut, "/sales/Cables/" + batchID, gin.H{"unitsSold": 1, "unitPrice": -8, "paymentType": "Cash"}, http.StatusBadRequest},
		{"unknown batch", http.MethodPut, "/sales/Cables/nope", gin.H{"unitsSold": 1, "unitPrice": 8, "paymentType": "Cash"}, http.StatusNotFound},
		{"unknown category", http.MethodGet, "/inventory/Modems", nil, http.StatusNotFound},
		{"duplicate category", http.MethodPost, "/inventory", gin.H{"category": "Cables"}, http.StatusConflict},
		{"duplicate capital", http.MethodPost, "/capital", gin.H{"capitalAmount": 5}, http.StatusConflict},
		{"missing capital amount", http.MethodPut, "/capital", gin.H{}, http.StatusBadRequest},
		{"bad purchase payment", http.MethodPut, "/purchase/Cables", gin.H{"quantity": 1, "costPerUnit": 1, "paymentType": "IOU"}, http.StatusBadRequest},
		{"unknown vendor", http.MethodGet, "/vendor/ghost", nil, http.StatusNotFound},
		{"bad from date", http.MethodGet, "/capital/transactions?from=yesterday", nil, http.StatusBadRequest},
		{"bad period", http.MethodGet, "/reports/profit?period=decade", nil, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/vendor", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.body)
			expect(t, w, tt.want)
			if body := decode[map[string]any](t, w); body["message"] == "" || body["message"] == nil {
				t.Fatalf("error body must carry a message: %s", w.Body)
			}
		})
	}

	inv = decode[inventoryJSON](t, do(t, r, http.MethodGet, "/inventory/Cables", nil))
	if inv.AvailableStocks != 10 || inv.Purchases[0].Quantity != 10 || len(inv.SalesHistory) != 0 {
		t.Fatalf("rejected requests changed the ledger: %+v", inv)
	}
}

func TestCreateInventoryVariants(t *testing.T) {
	r := newTestRouter(t, nil)
	expect(t, do(t, r, http.MethodPost, "/capital", gin.H{"capitalAmount": 100}), http.StatusCreated)

	w := do(t, r, http.MethodPost, "/inventory", gin.H{"category": "Chargers", "subCategories": []string{"USB-C"}})
	expect(t, w, http.StatusCreated)
	if inv := decode[inventoryJSON](t, w); len(inv.SubCategories) != 1 || inv.AvailableStocks != 0 {
		t.Fatalf("unexpected new category %+v", inv)
	}

	w = do(t, r, http.MethodPost, "/inventory", gin.H{
		"category": "Adapters", "subCategory": "HDMI", "product": "HDMI to VGA", "quantity": 2, "costPerUnit": 7, "paymentType": "Bank",
	})
	expect(t, w, http.StatusCreated)
	if inv := decode[inventoryJSON](t, w); inv.AvailableStocks != 2 || len(inv.PurchasesHistory) != 1 {
		t.Fatalf("flat purchase form should post a purchase: %+v", inv)
	}

	w = do(t, r, http.MethodPut, "/inventory/Chargers/subcategories", gin.H{"subCategory": "Lightning"})
	expect(t, w, http.StatusOK)
	w = do(t, r, http.MethodGet, "/inventory/Chargers/subcategories", nil)
	expect(t, w, http.StatusOK)
	if subs := decode[map[string][]string](t, w)["subCategories"]; len(subs) != 2 {
		t.Fatalf("subCategories = %v", subs)
	}

	w = do(t, r, http.MethodGet, "/inventory", nil)
	expect(t, w, http.StatusOK)
	if list := decode[[]inventoryJSON](t, w); len(list) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(list))
	}

	expect(t, do(t, r, http.MethodDelete, "/inventory/Chargers", nil), http.StatusOK)
	expect(t, do(t, r, http.MethodGet, "/inventory/Chargers", nil), http.StatusNotFound)
}

func TestReversalsAndPaymentUpdates(t *testing.T) {
	r := newTestRouter(t, nil)
	inv := seed(t, r)
	batchID := inv.Purchases[0].ID

	inv = decode[inventoryJSON](t, do(t, r, http.MethodPut, "/sales/Cables/"+batchID, gin.H{"unitsSold": 6, "unitPrice": 8, "paymentType": "Unpaid"}))
	saleID := inv.Sales[0].ID

	w := do(t, r, http.MethodPut, "/sales/Cables/"+saleID+"/payment", gin.H{"paymentType": "Bank"})
	expect(t, w, http.StatusOK)
	if inv = decode[inventoryJSON](t, w); inv.Sales[0].PaymentType != "Bank" {
		t.Fatalf("sale payment not updated: %+v", inv.Sales)
	}

	w = do(t, r, http.MethodPut, "/inventory/Cables/purchases/"+batchID+"/payment", gin.H{"paymentType": "Unpaid"})
	expect(t, w, http.StatusOK)
	if inv = decode[inventoryJSON](t, w); inv.Purchases[0].PaymentType != "Unpaid" {
		t.Fatalf("purchase payment not updated: %+v", inv.Purchases)
	}
	w = do(t, r, http.MethodPut, "/inventory/PaymentUpdate/Cables/"+batchID, gin.H{"paymentType": "bank"})
	expect(t, w, http.StatusOK)
	if inv = decode[inventoryJSON](t, w); inv.Purchases[0].PaymentType != "Bank" {
		t.Fatalf("purchase payment not updated through PaymentUpdate: %+v", inv.Purchases)
	}
	expect(t, do(t, r, http.MethodPut, "/inventory/PaymentUpdate/Cables/missing", gin.H{"paymentType": "Cash"}), http.StatusNotFound)

	w = do(t, r, http.MethodDelete, "/sales/Cables", gin.H{"saleId": saleID})
	expect(t, w, http.StatusOK)
	if inv = decode[inventoryJSON](t, w); len(inv.Sales) != 0 || len(inv.SalesHistory) != 1 {
		t.Fatalf("sale delete by body: %+v", inv)
	}
	expect(t, do(t, r, http.MethodPut, "/deletesale/Cables/"+saleID, nil), http.StatusNotFound)

	w = do(t, r, http.MethodPut, "/purchase/Cables/"+batchID, nil)
	expect(t, w, http.StatusOK)
	inv = decode[inventoryJSON](t, w)
	if inv.AvailableStocks != 0 || len(inv.Purchases) != 0 || len(inv.PurchasesHistory) != 1 {
		t.Fatalf("purchase delete: %+v", inv)
	}

	w = do(t, r, http.MethodPatch, "/inventory-item-stocks/category/Cables", gin.H{"availableStocks": 3})
	expect(t, w, http.StatusOK)
	if inv = decode[inventoryJSON](t, w); inv.AvailableStocks != 3 {
		t.Fatalf("stock adjust: %+v", inv)
	}
	expect(t, do(t, r, http.MethodPatch, "/inventory-item-stocks/category/Cables", gin.H{"availableStocks": -1}), http.StatusBadRequest)
}

func TestVendorEndpoints(t *testing.T) {
	r := newTestRouter(t, nil)
	inv := seed(t, r)
	batchID := inv.Purchases[0].ID

	w := do(t, r, http.MethodPost, "/vendor", gin.H{"name": "Rahim Traders", "contact": "(650) 253-0000", "address": "12 Mall Road"})
	expect(t, w, http.StatusCreated)
	expect(t, do(t, r, http.MethodPost, "/vendor", gin.H{"name": "rahim traders", "contact": "(650) 253-0000"}), http.StatusConflict)
	expect(t, do(t, r, http.MethodPost, "/vendor", gin.H{"name": "Other", "contact": "12"}), http.StatusBadRequest)

	inv = decode[inventoryJSON](t, do(t, r, http.MethodPut, "/sales/Cables/"+batchID, gin.H{
		"unitsSold": 2, "unitPrice": 9, "paymentType": "Unpaid", "vendorName": "Rahim Traders",
	}))
	saleID := inv.Sales[0].ID

	type vendorJSON struct {
		Name    string `json:"name"`
		Contact string `json:"contact"`
		Records []struct {
			ID            string `json:"id"`
			PaymentStatus string `json:"paymentStatus"`
		} `json:"vendorRecords"`
	}
	w = do(t, r, http.MethodGet, "/vendor/Rahim%20Traders", nil)
	expect(t, w, http.StatusOK)
	v := decode[vendorJSON](t, w)
	if v.Contact != "+16502530000" || len(v.Records) != 1 || v.Records[0].ID != saleID {
		t.Fatalf("unexpected vendor %+v", v)
	}

	w = do(t, r, http.MethodPut, "/vendor/Rahim%20Traders/"+saleID, gin.H{"paymentStatus": "Cash"})
	expect(t, w, http.StatusOK)
	if v = decode[vendorJSON](t, w); v.Records[0].PaymentStatus != "Cash" {
		t.Fatalf("record status not updated %+v", v)
	}
	inv = decode[inventoryJSON](t, do(t, r, http.MethodGet, "/inventory/Cables", nil))
	if inv.Sales[0].PaymentType != "Cash" {
		t.Fatalf("category sale should follow the vendor record: %+v", inv.Sales)
	}

	w = do(t, r, http.MethodPut, "/vendor/Rahim%20Traders", gin.H{"address": "Shop 9"})
	expect(t, w, http.StatusOK)

	w = do(t, r, http.MethodGet, "/vendor", nil)
	expect(t, w, http.StatusOK)
	if list := decode[[]vendorJSON](t, w); len(list) != 1 {
		t.Fatalf("expected one vendor, got %d", len(list))
	}

	expect(t, do(t, r, http.MethodDelete, "/vendor/Rahim%20Traders", nil), http.StatusOK)
	expect(t, do(t, r, http.MethodGet, "/vendor/Rahim%20Traders", nil), http.StatusNotFound)
}

func TestTransactionsAndReports(t *testing.T) {
	r := newTestRouter(t, nil)
	inv := seed(t, r)
	batchID := inv.Purchases[0].ID
	expect(t, do(t, r, http.MethodPut, "/sales/Cables/"+batchID, gin.H{"unitsSold": 4, "unitPrice": 8, "paymentType": "Cash"}), http.StatusOK)

	w := do(t, r, http.MethodPost, "/capital/transaction", gin.H{"transactionType": "Sale", "amount": 12, "category": "Misc"})
	expect(t, w, http.StatusOK)
	if c := decode[capitalJSON](t, w); c.CapitalAmount != 982 || len(c.Transactions) != 3 {
		t.Fatalf("appended transaction should not move the balance: %+v", c)
	}

	w = do(t, r, http.MethodGet, "/capital/transactions?type=sale", nil)
	expect(t, w, http.StatusOK)
	if list := decode[[]map[string]any](t, w); len(list) != 2 {
		t.Fatalf("expected 2 sale transactions, got %d", len(list))
	}
	today := time.Now().UTC().Format(time.DateOnly)
	w = do(t, r, http.MethodGet, "/capital/transactions?from="+today+"&to="+today, nil)
	expect(t, w, http.StatusOK)
	if list := decode[[]map[string]any](t, w); len(list) != 3 {
		t.Fatalf("expected today's 3 transactions, got %d", len(list))
	}

	w = do(t, r, http.MethodGet, "/reports/profit?period=month", nil)
	expect(t, w, http.StatusOK)
	if p := decode[map[string]any](t, w); p["totalProfit"] != float64(12) || p["sales"] != float64(1) {
		t.Fatalf("unexpected profit report %v", p)
	}

	w = do(t, r, http.MethodGet, "/reports/balance-sheet?paymentType=cash", nil)
	expect(t, w, http.StatusOK)
	sheet := decode[map[string]any](t, w)
	if sheet["paymentType"] != "Cash" || sheet["purchaseAmount"] != float64(50) {
		t.Fatalf("unexpected balance sheet %v", sheet)
	}

	w = do(t, r, http.MethodGet, "/sales", nil)
	expect(t, w, http.StatusOK)
	if list := decode[[]map[string]any](t, w); len(list) != 1 {
		t.Fatalf("expected one sale, got %d", len(list))
	}

	w = do(t, r, http.MethodGet, "/reports/transactions/export", nil)
	expect(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != export.ContentType {
		t.Fatalf("Content-Type = %q", ct)
	}
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Transactions")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) < 4 || rows[1][1] != "Purchase" {
		t.Fatalf("unexpected workbook rows %v", rows)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	auth.Configure([]byte("handler-secret"), time.Hour)
	r := newTestRouter(t, nil)

	expect(t, do(t, r, http.MethodPost, "/register", gin.H{"username": "amina", "password": "s3cret-pass"}), http.StatusCreated)
	expect(t, do(t, r, http.MethodPost, "/register", gin.H{"username": "amina", "password": "another-pass"}), http.StatusConflict)
	expect(t, do(t, r, http.MethodPost, "/register", gin.H{"username": "bo", "password": "short"}), http.StatusBadRequest)
	expect(t, do(t, r, http.MethodPost, "/register", gin.H{"username": "omar", "password": "s3cret-pass", "role": "owner"}), http.StatusBadRequest)

	expect(t, do(t, r, http.MethodPost, "/login", gin.H{"username": "amina", "password": "wrong-pass"}), http.StatusUnauthorized)
	expect(t, do(t, r, http.MethodPost, "/login", gin.H{"username": "nobody", "password": "s3cret-pass"}), http.StatusUnauthorized)

	w := do(t, r, http.MethodPost, "/login", gin.H{"username": "amina", "password": "s3cret-pass"})
	expect(t, w, http.StatusOK)
	body := decode[map[string]string](t, w)
	if body["role"] != auth.RoleAdmin || body["username"] != "amina" {
		t.Fatalf("unexpected login response %v", body)
	}
	claims, err := auth.ValidateToken(body["token"])
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Username != "amina" || claims.Role != auth.RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestAskAI(t *testing.T) {
	r := newTestRouter(t, nil)
	expect(t, do(t, r, http.MethodPost, "/ask", gin.H{"message": "How much cash?"}), http.StatusServiceUnavailable)

	r = newTestRouter(t, stubAssistant{reply: "You have 1030."})
	expect(t, do(t, r, http.MethodPost, "/ask", gin.H{}), http.StatusBadRequest)
	w := do(t, r, http.MethodPost, "/ask", gin.H{"message": "How much cash?"})
	expect(t, w, http.StatusOK)
	if got := decode[map[string]string](t, w)["reply"]; got != "You have 1030." {
		t.Fatalf("reply = %q", got)
	}

	r = newTestRouter(t, stubAssistant{err: errors.New("quota exceeded")})
	expect(t, do(t, r, http.MethodPost, "/ask", gin.H{"message": "How much cash?"}), http.StatusBadGateway)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ledger.ErrValidation, http.StatusBadRequest},
		{ledger.ErrInsufficientStock, http.StatusBadRequest},
		{ledger.ErrNotFound, http.StatusNotFound},
		{ledger.ErrConflict, http.StatusConflict},
		{ledger.ErrPersistence, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
