package web

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"score-predictor/internal/common"
	"score-predictor/internal/schema"
)

type option struct {
	Value    string
	Selected bool
}

type fieldView struct {
	schema.Field
	Value   string
	Options []option
}

type pageData struct {
	Fields []fieldView
	Result *Result
	Gauges []Gauge
	Error  string
}

// newPageData fills the form from submitted values, falling back to the
// slider default for missing scores
func newPageData(values url.Values) pageData {
	data := pageData{Fields: make([]fieldView, 0, len(schema.Fields))}

	for _, f := range schema.Fields {
		fv := fieldView{Field: f, Value: values.Get(f.Key)}
		if f.Kind == schema.Categorical {
			for _, c := range f.Categories {
				fv.Options = append(fv.Options, option{Value: c, Selected: c == fv.Value})
			}
		} else if fv.Value == "" {
			fv.Value = strconv.Itoa(common.DefaultScore)
		}
		data.Fields = append(data.Fields, fv)
	}

	// placeholders for the live view until a result exists
	data.Gauges = []Gauge{
		NewGauge("gauge-"+common.ModelAdaBoost, titleFor(common.ModelAdaBoost), common.GaugeMin),
		NewGauge("gauge-"+common.ModelGradientBoost, titleFor(common.ModelGradientBoost), common.GaugeMin),
	}
	return data
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		log.Error().Err(err).Msg("Failed to render page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Student Score Predictor</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5; }
        .container { max-width: 900px; margin: 0 auto; }
        .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 20px; border-radius: 10px; margin-bottom: 20px; text-align: center; }
        .header h1 { margin: 0; font-size: 2em; }
        .card { background: white; border-radius: 10px; padding: 20px; margin-bottom: 20px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); }
        .card h3 { margin-top: 0; color: #333; border-bottom: 2px solid #eee; padding-bottom: 10px; }
        .field { display: flex; justify-content: space-between; align-items: center; padding: 8px 0; border-bottom: 1px solid #eee; }
        .field label { font-weight: 500; color: #666; }
        .field select, .field input { width: 50%; }
        .gauges { display: grid; grid-template-columns: repeat(auto-fit, minmax(260px, 1fr)); gap: 20px; }
        .gauge { text-align: center; }
        .gauge-value { font-size: 1.6em; font-weight: bold; }
        .summary { background: #e8f5e9; border-left: 4px solid #28a745; padding: 12px; border-radius: 4px; }
        .error { background: #fdecea; border-left: 4px solid #dc3545; padding: 12px; border-radius: 4px; color: #a71d2a; }
        .hidden { display: none; }
        button { background: #667eea; color: white; border: none; padding: 10px 20px; border-radius: 6px; font-size: 1em; cursor: pointer; margin-top: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Student Average Score Predictor</h1>
            <p>Get performance predictions using <b>AdaBoost</b> and <b>Gradient Boosting</b> techniques.</p>
        </div>

        <form class="card" id="predict-form" method="POST" action="/">
            <h3>Enter Student Details</h3>
            {{range .Fields}}
            <div class="field">
                <label for="{{.Key}}">{{.Label}}</label>
                {{if .Options}}
                <select id="{{.Key}}" name="{{.Key}}">
                    {{range .Options}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>{{end}}
                </select>
                {{else}}
                <input type="range" id="{{.Key}}" name="{{.Key}}" min="{{.Min}}" max="{{.Max}}" value="{{.Value}}" data-numeric="true">
                <output id="{{.Key}}-out">{{.Value}}</output>
                {{end}}
            </div>
            {{end}}
            <button type="submit">Predict Average Score</button>
        </form>

        <div class="error{{if not .Error}} hidden{{end}}" id="error">{{.Error}}</div>

        <div class="card{{if not .Result}} hidden{{end}}" id="results">
            <h3>Predicted Average Scores</h3>
            <div class="gauges">
                {{range .Gauges}}
                <div class="gauge" id="{{.ID}}">
                    <svg viewBox="0 0 200 120" width="100%">
                        {{range .Segments}}<path d="{{.Path}}" stroke="{{.Color}}" stroke-width="20" fill="none"/>{{end}}
                        <line class="needle" x1="100" y1="100" x2="{{.NeedleX}}" y2="{{.NeedleY}}" stroke="#000000" stroke-width="4" stroke-linecap="round"/>
                        <circle cx="100" cy="100" r="6" fill="#000000"/>
                        <text x="20" y="116" font-size="10" text-anchor="middle">0</text>
                        <text x="180" y="116" font-size="10" text-anchor="middle">100</text>
                    </svg>
                    <div>{{.Title}}</div>
                    <div class="gauge-value">{{.Display}}</div>
                </div>
                {{end}}
            </div>
            <p class="summary" id="summary">{{if .Result}}{{.Result.Summary}}{{end}}</p>
        </div>
    </div>

    <script>
        const form = document.getElementById('predict-form');
        let ws = null;
        let timer = null;

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onmessage = function(event) { render(JSON.parse(event.data)); };
            ws.onclose = function() { ws = null; setTimeout(connect, 2000); };
        }

        function record() {
            const out = {};
            for (const el of form.elements) {
                if (!el.name) continue;
                out[el.name] = el.dataset.numeric ? parseInt(el.value, 10) : el.value;
            }
            return out;
        }

        function send() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify(record()));
            }
        }

        function render(msg) {
            const errorBox = document.getElementById('error');
            if (msg.error) {
                errorBox.textContent = msg.error;
                errorBox.classList.remove('hidden');
                return;
            }
            errorBox.classList.add('hidden');

            for (const p of msg.result.predictions) {
                const gauge = document.getElementById('gauge-' + p.model);
                if (!gauge) continue;
                const needle = gauge.querySelector('.needle');
                needle.setAttribute('x2', p.needle_x);
                needle.setAttribute('y2', p.needle_y);
                gauge.querySelector('.gauge-value').textContent = p.value.toFixed(2);
            }
            document.getElementById('summary').textContent = msg.result.summary;
            document.getElementById('results').classList.remove('hidden');
        }

        form.addEventListener('input', function(event) {
            const out = document.getElementById(event.target.id + '-out');
            if (out) out.textContent = event.target.value;
            clearTimeout(timer);
            timer = setTimeout(send, 150);
        });

        connect();
    </script>
</body>
</html>
`))
