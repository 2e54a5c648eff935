package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-stock-ledger/internal/ledger"
	"go-stock-ledger/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const (
	modelName    = "gemini-2.0-flash-001"
	maxToolTurns = 4
)

// Ledger is the read-only part of the ledger the assistant can see.
type Ledger interface {
	ListInventory(ctx context.Context) ([]models.InventoryRecord, error)
	GetCapital(ctx context.Context) (*models.CapitalLedger, error)
	ProfitForPeriod(ctx context.Context, period string) (*ledger.ProfitReport, error)
}

type Agent struct {
	apiKey string
	ledger Ledger
	log    *logrus.Logger
	now    func() time.Time
}

func NewAgent(apiKey string, l Ledger, log *logrus.Logger) *Agent {
	return &Agent{apiKey: apiKey, ledger: l, log: log, now: time.Now}
}

var tools = []*genai.Tool{
	{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "list_inventory",
				Description: "List every inventory category with its available stock and the batches still on sale (product, remaining quantity, cost per unit).",
			},
			{
				Name:        "get_capital",
				Description: "Get the current capital balance and the number of logged purchase and sale transactions.",
			},
			{
				Name:        "get_profit_report",
				Description: "Get total sales amount and profit for the current day, week, month or year.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"period": {Type: genai.TypeString, Enum: []string{"day", "week", "month", "year"}, Description: "Reporting period"},
					},
					Required: []string{"period"},
				},
			},
		},
	},
}

// Ask answers a question about the shop, letting the model call the
// ledger tools as often as it needs up to maxToolTurns.
func (a *Agent) Ask(ctx context.Context, message string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.Tools = tools

	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the bookkeeping assistant of a small shop.

	RULES:
	1. STOCK: for stock, products or purchase costs call 'list_inventory' and read the JSON.
	2. MONEY: for the cash balance call 'get_capital'.
	3. PROFIT: for sales or profit call 'get_profit_report' with the period the user means.
	4. You cannot change any record. Say so if asked.

	USER: %s`, a.now().Format("2006-01-02"), message)

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	for turn := 0; turn < maxToolTurns; turn++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return printResponse(resp), nil
		}

		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			out, err := a.callTool(ctx, call.Name, call.Args)
			if err != nil {
				a.log.WithFields(logrus.Fields{"tool": call.Name, "error": err.Error()}).Warn("assistant tool failed")
				out = map[string]any{"error": err.Error()}
			}
			parts = append(parts, genai.FunctionResponse{Name: call.Name, Response: out})
		}
		if resp, err = session.SendMessage(ctx, parts...); err != nil {
			return "", err
		}
	}
	return printResponse(resp), nil
}

var errUnknownTool = errors.New("unknown tool")

type batchLine struct {
	Product     string  `json:"product"`
	SubCategory string  `json:"subCategory"`
	Remaining   int     `json:"remaining"`
	CostPerUnit float64 `json:"costPerUnit"`
}

type stockLine struct {
	Category        string      `json:"category"`
	AvailableStocks int         `json:"availableStocks"`
	Batches         []batchLine `json:"batches"`
}

func (a *Agent) callTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "list_inventory":
		records, err := a.ledger.ListInventory(ctx)
		if err != nil {
			return nil, err
		}
		list := make([]stockLine, 0, len(records))
		for _, r := range records {
			c := stockLine{Category: r.Category, AvailableStocks: r.AvailableStocks, Batches: []batchLine{}}
			for _, b := range r.Document().Purchases {
				if b.Exhausted() {
					continue
				}
				c.Batches = append(c.Batches, batchLine{b.Product, b.SubCategory, b.Quantity, b.CostPerUnit.InexactFloat64()})
			}
			list = append(list, c)
		}
		return map[string]any{"inventory": list}, nil

	case "get_capital":
		capital, err := a.ledger.GetCapital(ctx)
		if err != nil {
			return nil, err
		}
		purchases, sales := 0, 0
		for _, t := range capital.Transactions {
			if t.TransactionType == models.TransactionSale {
				sales++
			} else {
				purchases++
			}
		}
		return map[string]any{
			"capitalAmount": capital.CapitalAmount.String(),
			"purchases":     purchases,
			"sales":         sales,
		}, nil

	case "get_profit_report":
		period, _ := args["period"].(string)
		if period == "" {
			period = "day"
		}
		report, err := a.ledger.ProfitForPeriod(ctx, period)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"period":      report.Period,
			"sales":       report.Sales,
			"unitsSold":   report.UnitsSold,
			"totalAmount": report.TotalAmount.String(),
			"totalProfit": report.TotalProfit.String(),
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", errUnknownTool, name)
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I could not find an answer."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I could not find an answer."
}
