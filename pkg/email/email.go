// Package email, fiyat listesi güncellendiğinde yöneticilere bildirim gönderir.
//
// Service katmanı Notifier interface'ine bağlıdır; Resend implementasyonu
// init sırasında RESEND_API_KEY, RESEND_FROM ve NOTIFY_EMAILS tanımlıysa kurulur.
package email

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/resend/resend-go/v3"

	"github.com/akinalp/pricelist/pkg/i18n"
)

// PriceListNotice, bir kaydın bildirimi için gereken bilgiler.
type PriceListNotice struct {
	UpdatedBy   string
	Rows        int
	HistoryName string
	SavedAt     time.Time
}

// Notifier, bildirim gönderen taraf.
type Notifier interface {
	NotifyPriceListUpdated(ctx context.Context, notice PriceListNotice) error
}

// emailClient, resend.Client.Emails'in kullandığımız kısmı; testte sahtesi verilir.
type emailClient interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type resendNotifier struct {
	emails     emailClient
	fromEmail  string
	recipients []string
	appURL     string
	lang       string
}

// NewResendNotifier, Resend API ile çalışan Notifier.
func NewResendNotifier(apiKey, fromEmail, appURL, lang string, recipients []string) Notifier {
	client := resend.NewClient(apiKey)
	return &resendNotifier{
		emails:     client.Emails,
		fromEmail:  fromEmail,
		recipients: recipients,
		appURL:     appURL,
		lang:       lang,
	}
}

func (n *resendNotifier) NotifyPriceListUpdated(ctx context.Context, notice PriceListNotice) error {
	if len(n.recipients) == 0 {
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    n.fromEmail,
		To:      n.recipients,
		Subject: i18n.NewLocalizer(n.lang).T("email.subject"),
		Html:    renderNotice(i18n.NewLocalizer(n.lang), notice, n.appURL),
	}

	if _, err := n.emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send price list notification: %w", err)
	}
	return nil
}

func renderNotice(loc *i18n.Localizer, notice PriceListNotice, appURL string) string {
	body := loc.TWithParams("email.body", map[string]string{
		"user": html.EscapeString(notice.UpdatedBy),
		"rows": strconv.Itoa(notice.Rows),
		"time": notice.SavedAt.Format("2006-01-02 15:04"),
	})
	history := loc.TWithParams("email.history", map[string]string{
		"name": html.EscapeString(notice.HistoryName),
	})

	link := ""
	if appURL != "" {
		link = fmt.Sprintf(`<p><a href="%s">%s</a></p>`, html.EscapeString(appURL), loc.T("email.open"))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family:Arial,Helvetica,sans-serif;color:#1f2937;">
  <h2>%s</h2>
  <p>%s</p>
  <p style="color:#6b7280;font-size:13px;">%s</p>
  %s
</body>
</html>`, loc.T("email.heading"), body, history, link)
}
