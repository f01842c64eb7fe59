package emails

import (
	"fmt"
	"html"
	"time"
)

const (
	themePrimary  = "#0F766E"
	themeTextMain = "#1F2937"
	themeBgBody   = "#F3F4F6"
	themeWhite    = "#FFFFFF"
)

// EmailLayout wraps content in the Vitkara transactional layout.
func EmailLayout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Vitkara</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content-body p { margin: 0 0 20px 0; font-size: 16px; line-height: 1.6; }
    .content-body h1 { font-size: 22px; margin: 0 0 16px 0; }
    .otp-code { display: inline-block; letter-spacing: 8px; font-size: 32px; font-weight: 700; color: %s; padding: 12px 24px; border: 1px dashed %s; border-radius: 6px; }
  </style>
</head>
<body>
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0" style="background-color: %s;">
    <tr>
      <td align="center" style="padding: 32px 0;">
        <table role="presentation" width="560" cellspacing="0" cellpadding="0" style="background-color: %s; border-radius: 8px;">
          <tr><td class="content-body" style="padding: 40px;">%s</td></tr>
          <tr><td align="center" style="padding: 0 40px 32px 40px; font-size: 12px; color: #6B7280;">© %d Vitkara. Investing in the shops around you.</td></tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`,
		themeBgBody, themeTextMain, themePrimary, themePrimary,
		themeBgBody, themeWhite, contentHTML, time.Now().Year())
}

// EscapeHTML escapes HTML specials for safe interpolation.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

func otpContent(code string, ttl time.Duration) string {
	return fmt.Sprintf(`
    <h1>Your Vitkara sign-in code</h1>
    <p>Use the code below to finish signing in. It expires in %d minutes and can be used once.</p>
    <p style="text-align:center;"><span class="otp-code">%s</span></p>
    <p style="font-size: 14px; color: #6B7280;">If you did not request this code you can ignore this email.</p>
`, int(ttl.Minutes()), EscapeHTML(code))
}
