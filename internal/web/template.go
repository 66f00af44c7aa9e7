package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/QuantumEF/aircond/internal/control"
	"github.com/QuantumEF/aircond/internal/status"
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
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"secs": func(d time.Duration) int64 {
		return int64(d.Truncate(time.Second).Seconds())
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Aircon Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Aircon Controller<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Sensor</h2>
<table>
<tr><th>Temperature</th><td id="temp">{{.Reading.Temperature}}&deg;C</td></tr>
<tr><th>Humidity</th><td id="humid">{{.Reading.Humidity}}%</td></tr>
<tr><th>Sensor</th><td class="{{if .SensorOK}}connected{{else}}disconnected{{end}}">{{if .SensorOK}}ok{{else}}no response{{end}}</td></tr>
</table>

<h2>Controller</h2>
<table>
<tr><th>State</th><td class="{{if .RelayOn}}on{{else}}off{{end}}">{{stateOrUnknown (printf "%s" .Controller.State.Kind)}}</td></tr>
<tr><th>Relay</th><td class="{{if .RelayOn}}on{{else}}off{{end}}">{{if .RelayOn}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Remaining</th><td>{{secs .Remaining}}s</td></tr>
<tr><th>Threshold</th><td>{{.Controller.Config.ThresholdTemperature}}&deg;C</td></tr>
<tr><th>Min runtime</th><td>{{secs .Controller.Config.MinimumRuntime}}s</td></tr>
<tr><th>Cooldown</th><td>{{secs .Controller.Config.CooldownTime}}s</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>TCP feed</th><td>{{.Config.FeedAddr}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Samples</th><td>{{.Counts.Samples}}</td></tr>
<tr><th>Checksum errors</th><td>{{.Counts.ChecksumErrors}}</td></tr>
<tr><th>No response</th><td>{{.Counts.NoResponse}}</td></tr>
<tr><th>Transitions</th><td>{{.Counts.Transitions}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sample</th><td>{{.Config.SampleMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var tempEl = document.getElementById("temp");
  var humidEl = document.getElementById("humid");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/live");

    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "disconnected");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      var parts = ev.data.trim().split(",");
      if (parts.length === 2) {
        tempEl.textContent = parts[0] + "°C";
        humidEl.textContent = parts[1] + "%";
      }
    };
  }

  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has method values the template cannot call with arguments;
	// precompute them.
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		Remaining time.Duration
		RelayOn   bool
	}{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		Remaining: snap.Controller.Remaining(snap.Now),
		RelayOn:   snap.Controller.State.Kind == control.StateRunning,
	}
	indexTmpl.Execute(w, data)
}
