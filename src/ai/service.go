// Package ai wraps the generative model used for receipt scanning, spending
// insights and category suggestions. Every operation degrades to a fixed
// fallback when the model is unavailable or answers with something unusable.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"smartspend-server/src/models"
)

const (
	MaxInsights     = 3
	InsightFallback = "Could not generate insights at this moment."
)

var ErrDisabled = errors.New("ai is not configured")

type Service struct {
	gen Generator
}

// NewService returns a Service backed by gen. A nil gen disables the model and
// every call returns its fallback.
func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

func (s *Service) Enabled() bool {
	return s != nil && s.gen != nil
}

// ReceiptDraft is what a receipt scan proposes. Date is empty when the model
// could not read one.
type ReceiptDraft struct {
	Amount   decimal.Decimal `json:"amount"`
	Category models.Category `json:"category"`
	Date     string          `json:"date,omitempty"`
	Note     string          `json:"note"`
}

var receiptSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"amount":   {Type: genai.TypeNumber},
		"category": {Type: genai.TypeString},
		"date":     {Type: genai.TypeString},
		"note":     {Type: genai.TypeString},
	},
	Required: []string{"amount", "category"},
}

func (s *Service) AnalyzeReceipt(ctx context.Context, image []byte, mimeType string) (*ReceiptDraft, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	prompt := fmt.Sprintf("Analyze this receipt. Extract the total amount, the merchant name (put in note), the date, "+
		"and categorize it into one of these: %s. Return JSON with keys: amount (number), category (string), "+
		"date (ISO string), note (string).", categoryList())

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(prompt),
	}, genai.RoleUser)}

	text, err := s.gen.Generate(ctx, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   receiptSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing receipt: %w", err)
	}
	return parseReceipt(text)
}

func parseReceipt(text string) (*ReceiptDraft, error) {
	var raw struct {
		Amount   decimal.Decimal `json:"amount"`
		Category string          `json:"category"`
		Date     string          `json:"date"`
		Note     string          `json:"note"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decoding receipt: %w", err)
	}
	if !raw.Amount.IsPositive() {
		return nil, fmt.Errorf("receipt amount %s is not positive", raw.Amount)
	}

	draft := &ReceiptDraft{
		Amount:   raw.Amount,
		Category: expenseCategory(raw.Category),
		Note:     strings.TrimSpace(raw.Note),
	}
	if d, err := models.ParseCalendarDate(raw.Date); err == nil {
		draft.Date = d.Format("2006-01-02")
	}
	return draft, nil
}

var insightsSchema = &genai.Schema{
	Type:  genai.TypeArray,
	Items: &genai.Schema{Type: genai.TypeString},
}

// Insights returns up to MaxInsights short recommendations. A user without
// transactions gets none; a failed or malformed answer yields the fallback.
func (s *Service) Insights(ctx context.Context, txns []models.Transaction) []string {
	if len(txns) == 0 {
		return []string{}
	}
	if !s.Enabled() {
		return []string{InsightFallback}
	}

	var b strings.Builder
	b.WriteString("You are a financial advisor. Analyze these recent transactions:\n")
	for _, t := range txns {
		fmt.Fprintf(&b, "%s: %s %s (%s)\n", t.Date.Format("2006-01-02"), t.Type, t.Amount.StringFixed(2), t.Category)
	}
	fmt.Fprintf(&b, "\nProvide %d brief, actionable insights or savings recommendations. "+
		"Format the response as a simple JSON array of strings.", MaxInsights)

	text, err := s.gen.Generate(ctx, genai.Text(b.String()), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   insightsSchema,
	})
	if err != nil {
		log.Printf("ERROR: Failed to generate insights: %v", err)
		return []string{InsightFallback}
	}
	insights, err := parseInsights(text)
	if err != nil {
		log.Printf("ERROR: Discarding malformed insights response: %v", err)
		return []string{InsightFallback}
	}
	return insights
}

func parseInsights(text string) ([]string, error) {
	var raw []string
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}
	insights := make([]string, 0, MaxInsights)
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			insights = append(insights, s)
		}
		if len(insights) == MaxInsights {
			break
		}
	}
	if len(insights) == 0 {
		return nil, errEmptyResponse
	}
	return insights, nil
}

// SuggestCategory asks the model for the expense category of a note. Anything
// that is not a known expense category becomes Custom.
func (s *Service) SuggestCategory(ctx context.Context, note string, amount decimal.Decimal) models.Category {
	if !s.Enabled() || strings.TrimSpace(note) == "" {
		return models.CategoryCustom
	}
	prompt := fmt.Sprintf("Categorize a transaction described as %q with amount %s into one of: %s. Return only the category name.",
		note, amount.String(), categoryList())

	text, err := s.gen.Generate(ctx, genai.Text(prompt), nil)
	if err != nil {
		log.Printf("ERROR: Failed to suggest category: %v", err)
		return models.CategoryCustom
	}
	return expenseCategory(strings.Trim(strings.TrimSpace(text), `."'`))
}

func expenseCategory(s string) models.Category {
	c, err := models.ParseCategory(models.Expense, s)
	if err != nil {
		return models.CategoryCustom
	}
	return c
}

func categoryList() string {
	names := make([]string, len(models.ExpenseCategories))
	for i, c := range models.ExpenseCategories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
