package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/greenhouse-controller/internal/status"
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
	"pct": func(f float64) string {
		return fmt.Sprintf("%.0f%%", f*100)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="{{.Refresh}}">
<title>Greenhouse Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: #c00; font-weight: bold; }
.off { color: green; }
.fault { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Greenhouse Controller</h1>

<h2>Irrigation</h2>
<table>
{{if .HasCycle}}
<tr><th>Phase</th><td class="{{if .Last.Fallback}}fault{{else if .Last.Command.Pump}}on{{else}}off{{end}}">{{.Last.Phase}}</td></tr>
<tr><th>Pump</th><td>{{if .Last.Command.Pump}}ON{{else}}OFF{{end}}</td></tr>
{{if not .Last.Fallback}}<tr><th>Demand score</th><td>{{printf "%.3f" .Last.Score}}</td></tr>{{end}}
<tr><th>Last cycle</th><td>{{.Last.Time.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{else}}
<tr><th>Phase</th><td class="fault">UNKNOWN</td></tr>
{{end}}
</table>

{{if .HasCycle}}
<h2>Sensors</h2>
<table>
{{if .Last.Snapshot.Valid}}<tr><th>Temperature</th><td>{{printf "%.1f" .Last.Snapshot.TemperatureC}} °C</td></tr>
<tr><th>Humidity</th><td>{{printf "%.1f" .Last.Snapshot.HumidityPct}} %</td></tr>
{{else}}<tr><th>Climate sensor</th><td class="fault">unavailable</td></tr>{{end}}
<tr><th>Soil ADC</th><td>{{.Last.Snapshot.SoilRaw}}</td></tr>
<tr><th>Light ADC</th><td>{{.Last.Snapshot.LightRaw}}</td></tr>
</table>

{{if not .Last.Fallback}}
<h2>Factors</h2>
<table>
<tr><th>Soil dryness</th><td>{{pct .Last.Factors.Soil}}</td></tr>
<tr><th>Heat</th><td>{{pct .Last.Factors.Temp}}</td></tr>
<tr><th>Humidity</th><td>{{pct .Last.Factors.Humidity}}</td></tr>
<tr><th>Light</th><td>{{pct .Last.Factors.Light}}</td></tr>
<tr><th>Evaporation</th><td>{{pct .Last.Factors.Evaporation}}</td></tr>
</table>
{{end}}
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Cycle Counts</h2>
<table>
<tr><th>Cycles</th><td>{{.Counts.Cycles}}</td></tr>
<tr><th>Sensor failures</th><td>{{.Counts.SensorFailures}}</td></tr>
<tr><th>Pump starts</th><td>{{.Counts.PumpStarts}}</td></tr>
<tr><th>Pump stops</th><td>{{.Counts.PumpStops}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Model</th><td>{{.Config.Model}}</td></tr>
<tr><th>Policy</th><td>{{.Config.Policy}}</td></tr>
<tr><th>Interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>Retry delay</th><td>{{.Config.RetryDelayMs}}ms</td></tr>
<tr><th>Relay</th><td>{{if .Config.RelayActiveLow}}active-low{{else}}active-high{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	refresh := snap.Config.IntervalMs / 1000
	if refresh < 1 {
		refresh = 1
	}
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		Refresh int64
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Refresh:  refresh,
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
