package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"stock-ledger/internal/database"
	"stock-ledger/internal/notify"
	"stock-ledger/internal/outstanding"
	"stock-ledger/internal/services"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

const (
	modelName = "gemini-2.0-flash-001"

	// maxToolRounds bounds how many tool calls one question may chain.
	maxToolRounds = 5
)

var ErrUnknownTool = errors.New("unknown tool")

// tools are the functions the model may call, all backed by the services layer.
var tools = []*genai.Tool{
	{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "check_inventory",
				Description: "Get the full inventory list. Use this to find ANY product details like ID, Name, SKU, Cost, Selling price, Stock or Stock status.",
			},
			{
				Name:        "get_outstanding",
				Description: "List order lines still owed: purchase items not fully received and sale deliveries not fully delivered, with remaining quantity and money exposure.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"source": {Type: genai.TypeString, Description: "all, sales or purchase", Enum: []string{"all", "sales", "purchase"}},
						"sort":   {Type: genai.TypeString, Description: "Field to sort by, e.g. date, remaining, exposure"},
					},
				},
			},
			{
				Name:        "get_sales_report",
				Description: "Get sales revenue, order count, purchase spend and best sellers for a date range.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
						"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
					},
					Required: []string{"start_date", "end_date"},
				},
			},
			{
				Name:        "update_product_price",
				Description: "Update the selling price of a specific product using its ID",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"product_id": {Type: genai.TypeInteger, Description: "ID of the product"},
						"new_price":  {Type: genai.TypeNumber, Description: "New selling price"},
					},
					Required: []string{"product_id", "new_price"},
				},
			},
			{
				Name:        "create_product",
				Description: "Add a new product to the inventory. A SKU is generated automatically.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":          {Type: genai.TypeString, Description: "Name of the product"},
						"unit":          {Type: genai.TypeString, Description: "Unit of measure (pcs, kg, box...)"},
						"stock":         {Type: genai.TypeInteger, Description: "Initial stock count"},
						"cost_price":    {Type: genai.TypeNumber, Description: "Cost price"},
						"selling_price": {Type: genai.TypeNumber, Description: "Selling price"},
					},
					Required: []string{"name", "stock", "selling_price"},
				},
			},
		},
	},
}

// Agent answers inventory questions through Gemini function calling.
type Agent struct {
	db     *gorm.DB
	apiKey string
}

func NewAgent(db *gorm.DB, apiKey string) *Agent {
	return &Agent{db: db, apiKey: apiKey}
}

// Run sends one user message and resolves tool calls until the model replies with text.
func (a *Agent) Run(ctx context.Context, userMessage string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.Tools = tools
	session := model.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt(time.Now(), userMessage)))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		call, ok := firstCall(resp)
		if !ok {
			return replyText(resp), nil
		}

		result, err := dispatchTool(ctx, a.db, call)
		if err != nil {
			// Let the model explain the failure instead of aborting the chat
			zap.L().Warn("assistant tool failed", zap.String("tool", call.Name), zap.Error(err))
			result = map[string]any{"error": err.Error()}
		}

		resp, err = session.SendMessage(ctx, genai.FunctionResponse{Name: call.Name, Response: result})
		if err != nil {
			return "", err
		}
	}
	return replyText(resp), nil
}

func systemPrompt(now time.Time, userMessage string) string {
	return fmt.Sprintf(`SYSTEM: Today is %s. You are an inventory and order fulfillment assistant.

	RULES:
	1. UPDATE: If a user asks to update a product by NAME, you must NOT ask them for the ID. Instead:
	   - Call 'check_inventory' to find the ID.
	   - Call 'update_product_price' using that ID.

	2. READ: If a user asks for PRICE, COST, STOCK, SKU or DETAILS of a product, call 'check_inventory'
	   and answer from the JSON.

	3. OUTSTANDING: If the user asks what is still owed, pending deliveries or unreceived goods,
	   use 'get_outstanding'.

	4. SALES: If the user asks for sales/revenue/spend, use 'get_sales_report'.

	USER: %s`, now.Format("2006-01-02"), userMessage)
}

// dispatchTool executes one function call against the store.
func dispatchTool(ctx context.Context, db *gorm.DB, call genai.FunctionCall) (map[string]any, error) {
	switch call.Name {
	case "check_inventory":
		products, err := services.ListProducts(ctx, db)
		if err != nil {
			return nil, err
		}
		type simpleProduct struct {
			ID           uint            `json:"id"`
			Name         string          `json:"name"`
			SKU          string          `json:"sku"`
			Stock        int             `json:"stock"`
			StockStatus  string          `json:"stock_status"`
			CostPrice    decimal.Decimal `json:"cost_price"`
			SellingPrice decimal.Decimal `json:"selling_price"`
		}
		list := make([]simpleProduct, 0, len(products))
		for _, p := range products {
			list = append(list, simpleProduct{
				ID: p.ID, Name: p.Name, SKU: p.SKU, Stock: p.Stock,
				StockStatus: string(p.StockStatus), CostPrice: p.CostPrice, SellingPrice: p.SellingPrice,
			})
		}
		return map[string]any{"inventory": toJSON(list)}, nil

	case "get_outstanding":
		source, err := outstanding.ParseSource(stringArg(call.Args, "source"))
		if err != nil {
			return nil, err
		}
		q := outstanding.Query{Source: source, SortBy: stringArg(call.Args, "sort"), Desc: true}
		view, err := services.OutstandingView(ctx, db, q)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"entries": toJSON(view.Entries),
			"totals":  toJSON(view.Totals),
		}, nil

	case "get_sales_report":
		start, err1 := time.Parse("2006-01-02", stringArg(call.Args, "start_date"))
		end, err2 := time.Parse("2006-01-02", stringArg(call.Args, "end_date"))
		if err1 != nil || err2 != nil {
			return nil, errors.New("dates must be in YYYY-MM-DD format")
		}
		end = end.Add(24*time.Hour - time.Nanosecond)

		report, err := database.GetSalesReport(ctx, db, start, end)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"revenue":        report.TotalRevenue.String(),
			"sales_count":    report.TotalOrders,
			"purchase_spend": report.PurchaseSpend.String(),
			"purchase_count": report.Purchases,
			"top_selling":    toJSON(report.TopSelling),
		}, nil

	case "update_product_price":
		id, ok := numberArg(call.Args, "product_id")
		price, ok2 := numberArg(call.Args, "new_price")
		if !ok || !ok2 {
			return nil, errors.New("product_id and new_price are required numbers")
		}
		if id < 1 || id != math.Trunc(id) {
			return nil, fmt.Errorf("product_id must be a positive whole number (got %v)", id)
		}
		newPrice := decimal.NewFromFloat(price).Round(2)
		product, err := services.UpdateProduct(ctx, db, uint(id), services.ProductUpdate{SellingPrice: &newPrice})
		if err != nil {
			return nil, err
		}
		notify.Hub.Publish(notify.Event{Topic: notify.Products, ID: product.ID})
		return map[string]any{"status": "Success", "new_price": product.SellingPrice.String()}, nil

	case "create_product":
		stock, _ := numberArg(call.Args, "stock")
		cost, _ := numberArg(call.Args, "cost_price")
		price, _ := numberArg(call.Args, "selling_price")
		product, err := services.CreateProduct(ctx, db, services.ProductInput{
			Name:         stringArg(call.Args, "name"),
			Unit:         stringArg(call.Args, "unit"),
			Stock:        int(stock),
			CostPrice:    decimal.NewFromFloat(cost).Round(2),
			SellingPrice: decimal.NewFromFloat(price).Round(2),
		})
		if err != nil {
			return nil, err
		}
		notify.Hub.Publish(notify.Event{Topic: notify.Products, ID: product.ID})
		return map[string]any{"status": "created", "id": product.ID, "sku": product.SKU}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
}

func firstCall(resp *genai.GenerateContentResponse) (genai.FunctionCall, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return genai.FunctionCall{}, false
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			return call, true
		}
	}
	return genai.FunctionCall{}, false
}

func replyText(resp *genai.GenerateContentResponse) string {
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				return string(txt)
			}
		}
	}
	return "I completed the action."
}
