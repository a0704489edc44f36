package service

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"AreYouDead/internal/channel"
)

const (
	appName             = `"Are You Dead?"`
	lastCheckInLayout   = "Jan 02, 2006 at 3:04 PM"
	neverCheckedInText  = "Never"
	alertSubjectPattern = "Safety Alert: %s Missed Check-In"
)

// FormatLastCheckIn 告警中展示的最后打卡时间
func FormatLastCheckIn(lastCheckIn *time.Time, loc *time.Location) string {
	if lastCheckIn == nil {
		return neverCheckedInText
	}
	if loc == nil {
		loc = time.Local
	}
	return lastCheckIn.In(loc).Format(lastCheckInLayout)
}

// BuildAlertMessage 一次告警使用的全部文案，所有联系人、同类通道共用
func BuildAlertMessage(userName string, lastCheckIn *time.Time, loc *time.Location) channel.Message {
	last := FormatLastCheckIn(lastCheckIn, loc)
	return channel.Message{
		Text:     alertSMSText(userName, last),
		Subject:  fmt.Sprintf(alertSubjectPattern, userName),
		HTML:     alertEmailHTML(userName, last),
		Body:     alertEmailText(userName, last),
		UserName: userName,
	}
}

func alertSMSText(userName, last string) string {
	return fmt.Sprintf("SAFETY ALERT: %s has not checked in on the %s app. Last check-in: %s. Please try to contact them.",
		userName, appName, last)
}

func alertEmailText(userName, last string) string {
	return fmt.Sprintf(`SAFETY ALERT

%s has not checked in on the %s safety check-in app.

Last check-in: %s

This could indicate that they may need assistance. Please try to contact them to ensure they are safe.

---
This is an automated message from the %s safety check-in app.`, userName, appName, last, appName)
}

var alertHTML = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
.alert-box { background: #EE5A5A; color: white; padding: 30px; border-radius: 16px; text-align: center; margin-bottom: 24px; }
.info-card { background: #f8f9fa; border-radius: 12px; padding: 24px; margin-bottom: 24px; }
.info-row { display: flex; justify-content: space-between; padding: 12px 0; border-bottom: 1px solid #e9ecef; }
.action-text { background: #fff3cd; border-left: 4px solid #ffc107; padding: 16px; border-radius: 8px; color: #856404; }
.footer { text-align: center; color: #6c757d; font-size: 12px; padding-top: 24px; }
</style>
</head>
<body>
<div class="alert-box">
<h1>Safety Alert</h1>
<p>Missed Check-In Notification</p>
</div>
<div class="info-card">
<div class="info-row"><span>Person</span><strong>{{.UserName}}</strong></div>
<div class="info-row"><span>Last Check-In</span><strong>{{.LastCheckIn}}</strong></div>
<div class="info-row"><span>Status</span><strong style="color: #dc3545;">Overdue</strong></div>
</div>
<div class="action-text">
<p><strong>Action Required:</strong> {{.UserName}} has not checked in on the {{.App}} safety app.
This could indicate they may need assistance. Please try to contact them to ensure they are safe.</p>
</div>
<div class="footer">
<p>This is an automated message from the {{.App}} safety check-in app.</p>
<p>You are receiving this because you were listed as an emergency contact.</p>
</div>
</body>
</html>`))

func alertEmailHTML(userName, last string) string {
	var buf bytes.Buffer
	// 模板固定，执行失败只可能是写 buffer 出错
	_ = alertHTML.Execute(&buf, struct {
		UserName    string
		LastCheckIn string
		App         string
	}{userName, last, appName})
	return buf.String()
}
