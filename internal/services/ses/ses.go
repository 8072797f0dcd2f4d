// Package ses emails regime recommendations to assessed taxpayers via AWS SES.
package ses

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	appConfig "tax-credit-engine/internal/config"
	"tax-credit-engine/internal/models"
	"tax-credit-engine/internal/utils"
)

// SendAPI is the subset of the SES client the service uses.
type SendAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Service handles SES email operations
type Service struct {
	client    SendAPI
	fromEmail string
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// RecommendationParams contains data for a regime recommendation email.
type RecommendationParams struct {
	Name         string
	Email        string
	GrossIncome  float64
	Recommended  models.Regime
	OldTotal     float64
	NewTotal     float64
	Savings      float64
	DashboardURL string
}

// SendEmailResult contains the result of sending an email
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES service.
func NewService(ctx context.Context, appCfg *appConfig.Config) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(appCfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Service{
		client:    ses.NewFromConfig(cfg),
		fromEmail: appCfg.SESSenderEmail,
	}, nil
}

// NewWithClient creates a service around an existing client.
func NewWithClient(client SendAPI, fromEmail string) *Service {
	return &Service{client: client, fromEmail: fromEmail}
}

// SendEmail sends a basic email
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		utils.GetLogger().Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	messageID := aws.ToString(result.MessageId)
	utils.GetLogger().Info("Email sent successfully",
		zap.String("to", params.To),
		zap.String("messageId", messageID),
	)

	return &SendEmailResult{
		MessageID: messageID,
		SentAt:    time.Now(),
	}, nil
}

// SendRecommendation emails one taxpayer their regime recommendation.
func (s *Service) SendRecommendation(ctx context.Context, params RecommendationParams) (*SendEmailResult, error) {
	htmlBody, err := renderRecommendationHTML(params)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("%s, the %s regime saves you %s this year", params.Name, params.Recommended, formatRupees(params.Savings))
	if params.Savings == 0 {
		subject = fmt.Sprintf("%s, both tax regimes cost you the same this year", params.Name)
	}

	return s.SendEmail(ctx, EmailParams{
		To:       params.Email,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: renderRecommendationText(params),
	})
}

// SendBatchRecommendations sends recommendations to many taxpayers, collecting failures.
func (s *Service) SendBatchRecommendations(ctx context.Context, notifications []RecommendationParams) ([]SendEmailResult, []error) {
	results := make([]SendEmailResult, 0, len(notifications))
	errs := make([]error, 0)

	for _, n := range notifications {
		result, err := s.SendRecommendation(ctx, n)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to send to %s: %w", n.Email, err))
			continue
		}
		results = append(results, *result)
	}

	utils.GetLogger().Info("Batch recommendations sent",
		zap.Int("total", len(notifications)),
		zap.Int("success", len(results)),
		zap.Int("failed", len(errs)),
	)

	return results, errs
}

// BuildRecommendationParams creates email params from a stored assessment.
// The taxpayer ID stands in for the name when none is known.
func BuildRecommendationParams(a *models.Assessment, name, dashboardURL string) RecommendationParams {
	if strings.TrimSpace(name) == "" {
		name = a.TaxpayerID
	}
	return RecommendationParams{
		Name:         name,
		Email:        a.Email,
		GrossIncome:  a.GrossIncome,
		Recommended:  a.Recommended,
		OldTotal:     a.OldTotal,
		NewTotal:     a.NewTotal,
		Savings:      a.Savings,
		DashboardURL: dashboardURL,
	}
}

var recommendationTemplate = template.Must(template.New("recommendation").Funcs(template.FuncMap{
	"rupees": formatRupees,
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Segoe UI', Tahoma, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1f6f5c; color: white; padding: 24px; border-radius: 10px 10px 0 0; text-align: center; }
        .content { background: #f9f9f9; padding: 24px; border-radius: 0 0 10px 10px; }
        table { width: 100%; border-collapse: collapse; }
        td { padding: 8px; border-bottom: 1px solid #e5e5e5; }
        .pick { font-weight: bold; color: #1f6f5c; }
        .footer { text-align: center; margin-top: 24px; color: #999; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Your regime recommendation</h1>
        <p>Hi {{.Name}}, we compared both tax regimes on a gross income of {{rupees .GrossIncome}}.</p>
    </div>
    <div class="content">
        <table>
            <tr{{if eq .Recommended "old"}} class="pick"{{end}}><td>Old regime</td><td>{{rupees .OldTotal}}</td></tr>
            <tr{{if eq .Recommended "new"}} class="pick"{{end}}><td>New regime</td><td>{{rupees .NewTotal}}</td></tr>
        </table>
        <p>We recommend the <strong>{{.Recommended}}</strong> regime{{if .Savings}}, which saves you {{rupees .Savings}}{{end}}.</p>
        {{if .DashboardURL}}<p><a href="{{.DashboardURL}}">See the full breakdown</a></p>{{end}}
    </div>
    <div class="footer">
        <p>Figures include surcharge and 4% health and education cess.</p>
    </div>
</body>
</html>`))

func renderRecommendationHTML(params RecommendationParams) (string, error) {
	var buf bytes.Buffer
	if err := recommendationTemplate.Execute(&buf, params); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderRecommendationText(params RecommendationParams) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Hi %s,\n\n", params.Name)
	fmt.Fprintf(&buf, "We compared both tax regimes on a gross income of %s.\n\n", formatRupees(params.GrossIncome))
	fmt.Fprintf(&buf, "   Old regime: %s\n", formatRupees(params.OldTotal))
	fmt.Fprintf(&buf, "   New regime: %s\n\n", formatRupees(params.NewTotal))
	fmt.Fprintf(&buf, "Recommended: %s regime", params.Recommended)
	if params.Savings > 0 {
		fmt.Fprintf(&buf, " (saves %s)", formatRupees(params.Savings))
	}
	buf.WriteString("\n\n")

	if params.DashboardURL != "" {
		fmt.Fprintf(&buf, "Full breakdown: %s\n\n", params.DashboardURL)
	}

	buf.WriteString("Best regards,\nTax & Credit Engine\n")
	return buf.String()
}

// formatRupees renders an amount with Indian digit grouping, e.g. ₹12,34,567.50.
func formatRupees(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	s := fmt.Sprintf("%.2f", v)
	whole, frac := s[:len(s)-3], s[len(s)-2:]

	var grouped string
	if len(whole) <= 3 {
		grouped = whole
	} else {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		if head != "" {
			parts = append([]string{head}, parts...)
		}
		grouped = strings.Join(parts, ",") + "," + tail
	}

	out := "₹" + grouped
	if frac != "00" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
