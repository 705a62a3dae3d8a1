package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/diskled/internal/status"
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
	"ms": func(v int64) string {
		if v == 0 {
			return "—"
		}
		return fmt.Sprintf("%dms", v)
	},
	"polarity": func(activeHigh bool) string {
		if activeHigh {
			return "active-high"
		}
		return "active-low"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>diskled</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>diskled</h1>

<table>
<tr><th>LED</th><td class="{{if eq .LED "ON"}}on{{else}}off{{end}}">{{.LED}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Blinks</th><td>{{.Counts.Blinks}}</td></tr>
<tr><th>Read events</th><td>{{.Counts.Reads}}</td></tr>
<tr><th>Write events</th><td>{{.Counts.Writes}}</td></tr>
{{if .Config.Broker}}<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}} ({{.Config.Broker}})</td></tr>{{end}}
</table>

<h2>Configuration</h2>
<table>
<tr><th>Device</th><td>{{.Config.Device}}</td></tr>
<tr><th>LED target</th><td>{{.Config.LED}}</td></tr>
<tr><th>Poll interval</th><td>{{ms .Config.PollMs}}</td></tr>
<tr><th>Hold</th><td>{{ms .Config.HoldMs}}</td></tr>
<tr><th>Read hold</th><td>{{ms .Config.ReadHoldMs}}</td></tr>
<tr><th>Write hold</th><td>{{ms .Config.WriteHoldMs}}</td></tr>
<tr><th>Polarity</th><td>{{polarity .Config.ActiveHigh}}</td></tr>
<tr><th>Filter</th><td>{{.Config.Filter}}</td></tr>
<tr><th>Mode</th><td>{{.Config.Mode}}</td></tr>
</table>

<p><a href="/index.json">index.json</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	if err := indexTmpl.Execute(w, snap); err != nil {
		log.Printf("render status page: %v", err)
	}
}
