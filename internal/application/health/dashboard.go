package health

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"time"

	"givehub-backend/internal/domain"
)

type dashboardDep struct {
	Name   string
	Up     bool
	PingMs string
}

type dashboardView struct {
	Status      string
	Healthy     bool
	Uptime      string
	GoVersion   string
	Platform    string
	HeapMB      string
	Traffic     TrafficInfo
	AvgMs       string
	LastRequest string
	Deps        []dashboardDep
	Market      *MarketplaceSnapshot
	Statuses    []string
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="30">
<title>GiveHub API status</title>
<style>
body{font-family:system-ui,sans-serif;background:#f6f7f9;color:#1f2937;margin:0;padding:32px}
main{max-width:880px;margin:0 auto}
h1{font-size:22px;margin:0 0 4px}
.sub{color:#6b7280;font-size:13px;margin-bottom:24px}
.pill{display:inline-block;padding:3px 10px;border-radius:999px;font-size:12px;font-weight:600}
.ok{background:#dcfce7;color:#166534}.bad{background:#fee2e2;color:#991b1b}
.grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(200px,1fr));gap:12px;margin-bottom:20px}
.card{background:#fff;border:1px solid #e5e7eb;border-radius:10px;padding:14px}
.card b{display:block;font-size:20px;margin-top:4px}
table{width:100%;border-collapse:collapse;background:#fff;border:1px solid #e5e7eb;border-radius:10px;margin-bottom:20px}
td,th{padding:8px 12px;border-bottom:1px solid #f0f1f3;text-align:left;font-size:14px}
th{color:#6b7280;font-weight:600}
a{color:#2563eb}
</style>
</head>
<body>
<main>
<h1>GiveHub API <span class="pill {{if .Healthy}}ok{{else}}bad{{end}}">{{.Status}}</span></h1>
<div class="sub">up {{.Uptime}} &middot; {{.GoVersion}} on {{.Platform}} &middot; heap {{.HeapMB}} MB</div>

<div class="grid">
<div class="card">Requests<b>{{.Traffic.TotalRequests}}</b></div>
<div class="card">Success rate<b>{{.Traffic.SuccessRate}}%</b></div>
<div class="card">Server errors<b>{{.Traffic.FailedCount}}</b></div>
<div class="card">Avg latency<b>{{.AvgMs}} ms</b></div>
</div>
<div class="sub">last request: {{.LastRequest}}</div>

<table>
<tr><th>Dependency</th><th>State</th><th>Ping</th></tr>
{{range .Deps}}<tr><td>{{.Name}}</td><td><span class="pill {{if .Up}}ok{{else}}bad{{end}}">{{if .Up}}up{{else}}down{{end}}</span></td><td>{{.PingMs}}</td></tr>
{{end}}</table>

{{with .Market}}
<table>
<tr><th colspan="2">Marketplace</th></tr>
<tr><td>Open requests</td><td>{{.OpenRequests}}</td></tr>
<tr><td>Quotations awaiting acceptance</td><td>{{.PendingQuotations}}</td></tr>
<tr><td>Donations recorded</td><td>{{.Donations}}</td></tr>
{{$by := .TransactionsByStatus}}{{range $.Statuses}}<tr><td>Transactions {{.}}</td><td>{{index $by .}}</td></tr>
{{end}}</table>
{{end}}

<div class="sub"><a href="/health/json">json</a> &middot; <a href="/health/errors">recent errors</a> &middot; <a href="/metrics">metrics</a></div>
</main>
</body>
</html>
`))

// RenderDashboardHTML renders the status page served at GET /. market may be nil when the
// lifecycle tables could not be read.
func RenderDashboardHTML(health CollectResult, market *MarketplaceSnapshot) (string, error) {
	v := dashboardView{
		Status:      health.Status,
		Healthy:     health.Status == "ok",
		Uptime:      (time.Duration(health.Runtime.UptimeSeconds) * time.Second).String(),
		GoVersion:   health.Runtime.GoVersion,
		Platform:    health.Runtime.Platform,
		HeapMB:      fmt.Sprint(health.Runtime.Memory.HeapUsed),
		Traffic:     health.Traffic,
		AvgMs:       fmt.Sprint(health.Traffic.AvgResponseTime),
		LastRequest: describeLastRequest(health.Traffic.LastRequest),
		Market:      market,
	}
	for name, dep := range health.Dependencies {
		d := dashboardDep{Name: name, Up: dep.Status == "connected" || dep.Status == "reachable", PingMs: "-"}
		if dep.PingMs != nil {
			d.PingMs = fmt.Sprintf("%v ms", derefPing(dep.PingMs))
		}
		v.Deps = append(v.Deps, d)
	}
	sort.Slice(v.Deps, func(i, j int) bool { return v.Deps[i].Name < v.Deps[j].Name })
	if market != nil {
		for _, s := range domain.AllTransactionStatuses() {
			v.Statuses = append(v.Statuses, s.String())
		}
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func describeLastRequest(raw interface{}) string {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%v %v -> %v from %v", m["method"], m["path"], m["status"], m["ip"])
}

func derefPing(p interface{}) interface{} {
	if v, ok := p.(*int64); ok && v != nil {
		return *v
	}
	return p
}
