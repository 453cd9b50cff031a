package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Dashboard is the full page: sidebar, filter form and content.
func Dashboard(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &htmlWriter{w: w}

		out.raw("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
		out.raw("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n<title>")
		out.text(data.Title)
		out.raw(" | Sales Dashboard</title>\n")
		out.raw(headAssets)
		out.raw("</head>\n<body>\n<nav class=\"sidebar\">\n<h2>Sales Dashboard</h2>\n")

		for _, item := range data.Nav {
			out.raw("<a href=\"")
			out.text(item.Href)
			out.raw("\"")
			if item.Active {
				out.raw(" class=\"active\"")
			}
			out.raw(">")
			out.text(item.Label)
			out.raw("</a>\n")
		}

		out.raw("<div id=\"filters\" class=\"filters\" data-signals=\"")
		out.text(data.Signals)
		out.raw("\">\n")
		filterSelect(out, "State", "state", data.Lists.States, data.Selection.State)
		filterSelect(out, "Year", "year", data.Lists.Years, data.Selection.Year)
		filterSelect(out, "Category", "category", data.Lists.Categories, data.Selection.Category)
		out.raw("</div>\n</nav>\n<main>\n")
		if out.err != nil {
			return out.err
		}

		if err := Content(data.Content).Render(ctx, w); err != nil {
			return err
		}

		out.raw("\n</main>\n")
		out.raw(chartScript)
		out.raw("</body>\n</html>")
		return out.err
	})
}

// Content is the patchable page body.
func Content(data ContentData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &htmlWriter{w: w}

		out.raw("<div id=\"")
		out.text(data.ID)
		out.raw("\" data-page=\"")
		out.text(string(data.Page))
		out.raw("\">\n<h1>")
		out.text(data.Title)
		out.raw("</h1>\n")

		for _, card := range data.Cards {
			out.raw("<section class=\"cards\">\n")
			for _, item := range card.Items {
				out.raw("<div class=\"card\"><div class=\"label\">")
				out.text(item.Label)
				out.raw("</div><div class=\"value\">")
				out.text(item.Value)
				out.raw("</div></div>\n")
			}
			out.raw("</section>\n")
		}

		out.raw("<section class=\"charts\">\n")
		for _, chart := range data.Charts {
			out.raw("<div class=\"chart\" id=\"chart-")
			out.text(chart.Name)
			out.raw("\" data-kind=\"")
			out.text(string(chart.Kind))
			out.raw("\" data-spec=\"")
			out.text(chart.Spec)
			out.raw("\"></div>\n")
		}
		out.raw("</section>\n</div>")
		return out.err
	})
}

// filterSelect renders one labelled dropdown bound to a datastar signal. The
// option equal to selected is preselected.
func filterSelect(out *htmlWriter, label, signal string, options []string, selected string) {
	out.raw("<label>")
	out.text(label)
	out.raw("\n<select data-bind:")
	out.raw(signal)
	out.raw(" data-on:change=\"@post('/sse/filter')\">\n")
	for _, option := range options {
		out.raw("<option value=\"")
		out.text(option)
		out.raw("\"")
		if option == selected {
			out.raw(" selected")
		}
		out.raw(">")
		out.text(option)
		out.raw("</option>")
	}
	out.raw("\n</select></label>\n")
}

// htmlWriter keeps the first write error so markup can be emitted without
// checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// text writes s with HTML special characters escaped. The output is safe in
// element bodies and quoted attribute values.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

const headAssets = `<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"></script>
<script src="https://cdn.plot.ly/plotly-2.35.2.min.js"></script>
<style>
body{margin:0;display:flex;font-family:system-ui,sans-serif;background:#0f1729;color:#eee}
.sidebar{width:220px;min-height:100vh;background:#121212;padding:1.5rem 1rem;box-sizing:border-box}
.sidebar a{display:block;padding:.6rem .8rem;margin:.2rem 0;border-radius:6px;color:#ccc;text-decoration:none}
.sidebar a.active{background:#067fd6;color:#fff}
.filters label{display:block;margin-top:1rem;font-size:.85rem;color:#aaa}
.filters select{width:100%;padding:.4rem;margin-top:.3rem;background:#111;color:#eee;border:1px solid #333}
main{flex:1;padding:1.5rem}
.cards{display:flex;flex-wrap:wrap;gap:1rem;margin-bottom:1.5rem}
.card{background:#111;border-radius:8px;padding:1rem 1.5rem;min-width:180px}
.card .label{font-size:.85rem;color:#aaa}
.card .value{font-size:1.6rem;font-weight:600}
.charts{display:grid;grid-template-columns:repeat(auto-fit,minmax(460px,1fr));gap:1.5rem}
.chart{background:#111;border-radius:8px;min-height:420px}
</style>
`

const chartScript = `<script>
function drawCharts(root){
  root.querySelectorAll('.chart[data-spec]').forEach(function(el){
    var spec=JSON.parse(el.dataset.spec), kind=el.dataset.kind, traces=[];
    var layout={title:spec.title,template:'plotly_dark',paper_bgcolor:'#111',plot_bgcolor:'#111',font:{color:'#eee'},xaxis:{title:spec.x_label},yaxis:{title:spec.y_label}};
    if(kind==='bar'){traces=[{type:'bar',x:spec.horizontal?spec.values:spec.categories,y:spec.horizontal?spec.categories:spec.values,orientation:spec.horizontal?'h':'v',text:spec.text,marker:{color:spec.colors}}];}
    if(kind==='pie'){traces=[{type:'pie',labels:spec.labels,values:spec.values,hole:spec.hole,marker:{colors:spec.colors}}];}
    if(kind==='line'){layout.xaxis.categoryarray=spec.x;layout.xaxis.categoryorder='array';traces=(spec.series||[]).map(function(s){return{type:'scatter',mode:'lines+markers',name:s.name,line:{color:s.color},x:s.points.map(function(p){return p.x}),y:s.points.map(function(p){return p.y}),text:s.points.map(function(p){return p.text})}});}
    if(kind==='sunburst'){traces=[{type:'sunburst',ids:spec.ids,labels:spec.labels,parents:spec.parents,values:spec.values,branchvalues:'total'}];layout.sunburstcolorway=spec.colors;}
    Plotly.react(el,traces,layout,{displayModeBar:false,responsive:true});
  });
}
document.addEventListener('DOMContentLoaded',function(){
  drawCharts(document);
  new MutationObserver(function(){drawCharts(document)}).observe(document.querySelector('main'),{childList:true,subtree:true,attributes:true,attributeFilter:['data-spec']});
});
</script>
`
