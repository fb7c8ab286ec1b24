package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/pwm-led/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>PWM LED Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.bar { background: #eee; height: 12px; width: 150px; display: inline-block; vertical-align: middle; }
.bar span { background: #2a7; height: 12px; display: block; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>PWM LED Controller</h1>

<table>
<tr><th>Press speed</th><td>{{.Speed}} presses/second</td></tr>
<tr><th>Total presses</th><td>{{.Alternation.PressCount}}</td></tr>
<tr><th>Alternating presses</th><td>{{.Alternation.ValidCount}}</td></tr>
</table>

<table>
<tr><th>LED 1</th><td>{{index .Duty 0}}% <span class="bar"><span style="width: {{index .Duty 0}}%"></span></span></td></tr>
<tr><th>LED 2</th><td>{{index .Duty 1}}% <span class="bar"><span style="width: {{index .Duty 1}}%"></span></span></td></tr>
<tr><th>LED 3</th><td>{{index .Duty 2}}% <span class="bar"><span style="width: {{index .Duty 2}}%"></span></span></td></tr>
</table>

<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">
{{if .MQTTConnected}}connected{{else}}disconnected{{end}} ({{.Config.Broker}})</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/status">status</a> &middot; <a href="/speed">speed</a></p>
</body>
</html>
`

// renderHTML writes the status page. Errors are ignored: the connection
// is gone and there is nothing useful to do.
func renderHTML(w io.Writer, snap status.Snapshot) {
	_ = indexTmpl.Execute(w, snap)
}
