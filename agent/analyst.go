package agent

import (
	"context"
	"fmt"

	"github.com/etnz/performance"
	"github.com/etnz/performance/date"
	"github.com/etnz/performance/renderer"
	"github.com/etnz/performance/store"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// NewFacilitator creates the expert leading the conversation with the user.
func NewFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is here to understand how their portfolios perform: gains, losses, allocation
			and how their value evolved.

			Devise a plan of questions to ask to each expert and come up with the best response to the user's request.
			Answer in markdown.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader creates an expert grounded on Google Search for market news.
func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		Very well aware of all the financial products and institutions,
		about the latest news about the different funds or companies.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are a expert in Trading, you can search and find about anything related to
			financial institutions, companies, markets, funds etc. You Leverage Google Search to
			ground your assertions in a solid truth.
				`}}},
		},
	}
}

// NewAnalyst creates the expert reading portfolios and their performance reports.
func NewAnalyst(s store.Store, c *performance.Composer) *Expert {
	lib := Tools(s, c)
	return &Expert{
		Name: "Analyst",
		Description: `This is the Analyst. They know the user's portfolios, their holdings,
		and compute performance reports: realized and unrealized gains, allocation and the daily value.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are a financial analyst in charge of the user's portfolios.
				Use the available tools to list the portfolios and to compute their performance reports.
				Unrealized gains are valued at the current price, the daily value applies the
				current price to past positions: it is not a historical valuation, say so when relevant.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function
type Func struct {
	// Declare this function
	Decl *genai.FunctionDeclaration
	// Call this function
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

// Tools returns the functions exposing s and c to a model.
func Tools(s store.Store, c *performance.Composer) []Function {
	return []Function{listPortfolios(s), performanceReport(s, c)}
}

func listPortfolios(s store.Store) *Func {
	const name = "list_portfolios"
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        name,
			Description: "Lists the user's portfolios with their ID, name, creation date and holdings.",
			Parameters:  &genai.Schema{Type: genai.TypeObject},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			list, err := s.ListPortfolios(ctx)
			if err != nil {
				return errorResponse(id, name, err)
			}
			out := make([]map[string]any, 0, len(list))
			for _, p := range list {
				holdings, err := s.ListHoldings(ctx, p.ID)
				if err != nil {
					return errorResponse(id, name, err)
				}
				symbols := make([]string, 0, len(holdings))
				for _, h := range holdings {
					symbols = append(symbols, h.Symbol)
				}
				out = append(out, map[string]any{
					"id":          p.ID,
					"name":        p.Name,
					"createdDate": date.FromTime(p.CreatedDate).String(),
					"holdings":    symbols,
				})
			}
			return outputResponse(id, name, out)
		},
	}
}

func performanceReport(s store.Store, c *performance.Composer) *Func {
	const name = "performance_report"
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: name,
			Description: `Computes the performance report of a portfolio: total value, realized and unrealized gains,
			per holding details, allocation by symbol and the daily value over a window.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"portfolio": {
						Type:        genai.TypeString,
						Description: "The portfolio ID or name.",
					},
					"startDate": {
						Type:        genai.TypeString,
						Description: "First day of the window, YYYY-MM-DD. Defaults to the portfolio creation day.",
					},
					"endDate": {
						Type:        genai.TypeString,
						Description: "Last day of the window, YYYY-MM-DD. Defaults to today.",
					},
				},
				Required: []string{"portfolio"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "The markdown-formatted performance report.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			ref, ok := args["portfolio"].(string)
			if !ok {
				return errorResponse(id, name, fmt.Errorf("argument 'portfolio' is not a string as expected but %T", args["portfolio"]))
			}
			var w performance.Window
			var err error
			if w.Start, err = parseDate(args, "startDate"); err != nil {
				return errorResponse(id, name, err)
			}
			if w.End, err = parseDate(args, "endDate"); err != nil {
				return errorResponse(id, name, err)
			}
			p, err := store.FindPortfolio(ctx, s, ref)
			if err != nil {
				return errorResponse(id, name, err)
			}
			report, ok, err := c.Report(ctx, p.ID, w)
			if err != nil {
				return errorResponse(id, name, err)
			}
			if !ok {
				return errorResponse(id, name, fmt.Errorf("portfolio %q: %w", ref, performance.ErrNotFound))
			}
			return outputResponse(id, name, renderer.RenderPerformance(report, renderer.RenderOptions{}))
		},
	}
}

// parseDate returns the optional date argument key, zero when absent.
func parseDate(args map[string]any, key string) (date.Date, error) {
	v, ok := args[key]
	if !ok || v == "" {
		return date.Date{}, nil
	}
	s, ok := v.(string)
	if !ok {
		return date.Date{}, fmt.Errorf("argument '%s' is not a string as expected but %T", key, v)
	}
	d, err := date.Parse(s)
	if err != nil {
		return date.Date{}, fmt.Errorf("argument '%s' must be a YYYY-MM-DD date got %q", key, s)
	}
	return d, nil
}
