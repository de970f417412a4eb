package mailer

import (
	"fmt"
	"html/template"
	"strings"
)

// couponEmailTmpl is the fixed notification body: branding, the code shown
// prominently, redemption instructions and the single-use disclaimer.
var couponEmailTmpl = template.Must(template.New("coupon").Parse(`<div style="font-family: Arial, sans-serif; line-height: 1.6">
  <h2>Welcome to GoodLoop 🎉</h2>
  <p>Thanks for joining the pilot{{if .School}} at {{.School}}{{end}}!</p>
  <p>Your one-time discount code:</p>
  <div style="font-family: monospace; font-size: 22px; font-weight: 700; padding: 12px 16px; border: 2px dashed #222; display: inline-block; letter-spacing: 2px">{{.Code}}</div>
  <p style="margin-top: 16px">Show this at <b>Cluck N Sip</b> to redeem. The cashier will verify and mark it used.</p>
  <hr/>
  <p style="font-size: 12px; color: #666">Code is single-use and tied to your email. Please do not share publicly.</p>
</div>`))

type couponEmailData struct {
	Code   string
	School string
}

// renderCouponEmail renders the HTML body for an issued code
func renderCouponEmail(code, school string) (string, error) {
	var buf strings.Builder
	if err := couponEmailTmpl.Execute(&buf, couponEmailData{Code: code, School: school}); err != nil {
		return "", fmt.Errorf("failed to render coupon email: %w", err)
	}
	return buf.String(), nil
}
