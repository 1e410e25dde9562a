package exec

import (
	"context"
	"encoding/json"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/value"
	"github.com/nickheyer/crawlkit/internal/webview"
)

// execXpath evaluates an XPath expression the only way this stack can: by
// loading input's HTML into a real DOM via the Context's WebView
// collaborator and running document.evaluate there, since no XPath library
// is part of this stack's dependency graph. A rule with no webview attached
// cannot use this step kind; that is a configuration error, not a silent
// empty result.
func execXpath(goctx context.Context, xpath string, input value.Value, ctx *flowctx.Context) (value.Value, error) {
	wv := ctx.WebView()
	if wv == nil {
		return value.Null, crawlerr.Extraction("xpath step requires a webview collaborator; none configured")
	}
	html, ok := input.AsStr()
	if !ok {
		return value.Null, crawlerr.Extraction("xpath step requires html input")
	}

	htmlJSON, err := json.Marshal(html)
	if err != nil {
		return value.Null, crawlerr.Extraction("xpath: encode html: %v", err)
	}
	xpathJSON, err := json.Marshal(xpath)
	if err != nil {
		return value.Null, crawlerr.Extraction("xpath: encode expression: %v", err)
	}

	req := webview.Request{
		URL:          "about:blank",
		InjectScript: "document.open(); document.write(" + string(htmlJSON) + "); document.close();",
		FinishScript: xpathSnapshotScript(string(xpathJSON)),
	}

	resp, err := wv.Render(goctx, req)
	if err != nil {
		return value.Null, crawlerr.Extraction("xpath: webview render: %v", err)
	}
	if !resp.Success {
		return value.Null, crawlerr.Extraction("xpath: webview render failed: %s", resp.Error)
	}

	matches, ok := resp.ScriptResult.([]any)
	if !ok {
		return value.Array(nil), nil
	}
	items := make([]value.Value, 0, len(matches))
	for _, m := range matches {
		if s, ok := m.(string); ok {
			items = append(items, value.HTML(s))
		}
	}
	return value.Array(items), nil
}

// xpathSnapshotScript builds the DOM-side evaluator: every matched node's
// outerHTML for elements, textContent otherwise, in document order.
func xpathSnapshotScript(xpathJSONLiteral string) string {
	return `(function(){
  var out = [];
  var snap = document.evaluate(` + xpathJSONLiteral + `, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
  for (var i = 0; i < snap.snapshotLength; i++) {
    var node = snap.snapshotItem(i);
    out.push(node.nodeType === 1 ? node.outerHTML : node.textContent);
  }
  return out;
})()`
}
