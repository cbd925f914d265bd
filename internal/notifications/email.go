package notifications

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"inkwell/internal/content"
	"inkwell/internal/scoring"
)

const previewLength = 800

var approvalTemplate = template.Must(template.New("approval").Parse(`<html>
<head>
<style>
  body { font-family: Arial, sans-serif; max-width: 700px; margin: 0 auto; padding: 20px; }
  .header { background: #2c5282; color: white; padding: 20px; text-align: center; }
  .quality-badge { background: {{.BadgeColor}}; color: white; padding: 10px 20px; border-radius: 25px; font-size: 24px; font-weight: bold; display: inline-block; margin: 10px 0; }
  .metadata { background: #f7fafc; padding: 15px; margin: 20px 0; border-left: 4px solid #4299e1; }
  .quality-section { background: #fff5f5; padding: 15px; margin: 20px 0; border-left: 4px solid {{.BadgeColor}}; }
  .actions { text-align: center; margin: 30px 0; }
  .btn { display: inline-block; padding: 15px 30px; margin: 10px; text-decoration: none; border-radius: 5px; font-weight: bold; }
  .btn-approve { background: #48bb78; color: white; }
  .btn-decline { background: #f56565; color: white; }
  .images img { max-width: 200px; margin: 10px; border-radius: 8px; }
</style>
</head>
<body>
  <div class="header">
    <h1>New Article Ready for Review</h1>
    <div class="quality-badge">Quality Score: {{.Score}}/100</div>
    <p style="margin: 5px 0; font-size: 14px;">Decision: {{.Decision}}</p>
  </div>

  <h2>{{.Title}}</h2>

  <div class="quality-section">
    {{if .Strengths}}<p><strong>Strengths:</strong></p><ul>{{range .Strengths}}<li>{{.}}</li>{{end}}</ul>{{end}}
    {{if .Concerns}}<p><strong>Areas for improvement:</strong></p><ul>{{range .Concerns}}<li>{{.}}</li>{{end}}</ul>{{end}}
  </div>

  <div class="metadata">
    <p><strong>Word count:</strong> {{.WordCount}}</p>
    <p><strong>Reading time:</strong> {{.ReadingTime}} minutes</p>
    <p><strong>Keywords:</strong> {{.Keywords}}</p>
    <p><strong>Category:</strong> {{.Category}}</p>
  </div>

  <div class="content">
    <h3>Article preview</h3>
    <p>{{.Preview}}</p>
  </div>

  {{if .Images}}<div class="images">
    <h3>Images ({{len .Images}})</h3>
    {{range .Images}}<img src="{{.URL}}" alt="{{.Alt}}">{{end}}
  </div>{{end}}

  <div class="actions">
    <a href="{{.ApproveURL}}" class="btn btn-approve">APPROVE &amp; PUBLISH</a>
    <a href="{{.DeclineURL}}" class="btn btn-decline">DECLINE</a>
  </div>

  <p style="text-align: center; color: #666; font-size: 12px; margin-top: 40px;">
    Workflow: {{.WorkflowID}}
  </p>
</body>
</html>`))

type approvalEmailData struct {
	Title       string
	Score       int
	Decision    scoring.Decision
	BadgeColor  string
	Strengths   []string
	Concerns    []string
	WordCount   int
	ReadingTime int
	Keywords    string
	Category    string
	Preview     string
	Images      []content.Image
	ApproveURL  template.URL
	DeclineURL  template.URL
	WorkflowID  string
}

func renderApprovalEmail(publicURL string, req ApprovalRequest) (string, error) {
	data := approvalEmailData{
		Title:       req.Article.Title,
		Score:       req.Report.OverallScore,
		Decision:    req.Report.Decision,
		BadgeColor:  badgeColor(req.Report.Decision),
		Strengths:   req.Report.Strengths,
		Concerns:    req.Report.Concerns,
		WordCount:   req.Article.WordCount,
		ReadingTime: req.Article.ReadingTime,
		Keywords:    strings.Join(req.Article.SEO.Keywords, ", "),
		Category:    req.Category,
		Preview:     previewText(req.Article.Body),
		Images:      req.Article.Images,
		ApproveURL:  template.URL(redeemURL(publicURL, req.WorkflowID, req.Token, "approve")),
		DeclineURL:  template.URL(redeemURL(publicURL, req.WorkflowID, req.Token, "decline")),
		WorkflowID:  req.WorkflowID,
	}
	if len(data.Images) > 3 {
		data.Images = data.Images[:3]
	}

	var b strings.Builder
	if err := approvalTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func redeemURL(publicURL, workflowID, token, action string) string {
	params := url.Values{}
	params.Set("workflow_id", workflowID)
	params.Set("token", token)
	params.Set("action", action)
	return fmt.Sprintf("%s/api/approvals/redeem?%s", strings.TrimRight(publicURL, "/"), params.Encode())
}

func badgeColor(decision scoring.Decision) string {
	switch decision {
	case scoring.DecisionApproved:
		return "#48bb78"
	case scoring.DecisionNeedsRevision:
		return "#ed8936"
	default:
		return "#f56565"
	}
}

func previewText(body string) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= previewLength {
		return body
	}
	return string(runes[:previewLength]) + "..."
}
