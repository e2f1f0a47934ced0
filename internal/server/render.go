package server

import (
	"html/template"
	"net/http"
)

// chatViewerTmpl — страница-оверлей: опрашивает /chat-scrape и рисует
// сообщения. Подключается в OBS как browser source.
var chatViewerTmpl = template.Must(template.New("chat").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>chat</title>
<style>
  body { margin: 0; background: transparent; font-family: system-ui, sans-serif; color: #fff; }
  #chat { display: flex; flex-direction: column; gap: 4px; padding: 8px; }
  .msg { background: rgba(0,0,0,.55); border-radius: 6px; padding: 4px 8px; max-width: 480px; }
  .msg .user { font-weight: 600; color: #8be28b; margin-right: 6px; }
</style>
</head>
<body>
<div id="chat"></div>
<script>
  const mint = {{.Mint}};
  const intervalMs = {{.IntervalMs}};
  const maxMessages = {{.Max}};
  async function tick() {
    try {
      const resp = await fetch('/chat-scrape?mint=' + encodeURIComponent(mint) + '&max=' + maxMessages);
      const body = await resp.json();
      if (!body.ok) return;
      const chat = document.getElementById('chat');
      chat.innerHTML = '';
      for (const m of body.messages) {
        const div = document.createElement('div');
        div.className = 'msg';
        const user = document.createElement('span');
        user.className = 'user';
        user.textContent = m.username || '';
        const text = document.createElement('span');
        text.textContent = m.message || '';
        div.append(user, text);
        chat.append(div);
      }
    } catch (e) { /* апстрим моргнул, следующий тик повторит */ }
  }
  tick();
  setInterval(tick, intervalMs);
</script>
</body>
</html>`))

// handleRenderChat — GET /render/chat?mint=...: HTML-страница оверлея.
func (s *Server) handleRenderChat(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeError(w, http.StatusBadRequest, "mint query parameter is required")
		return
	}
	data := struct {
		Mint       string
		IntervalMs int
		Max        int
	}{
		Mint:       mint,
		IntervalMs: queryInt(r, "interval", 4000, minIntervalMs, maxIntervalMs),
		Max:        queryInt(r, "max", s.cfg.Chat.DefaultMax, minMax, maxMaxHTTP),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := chatViewerTmpl.Execute(w, data); err != nil {
		s.log.Debug("render chat viewer failed", "error", err)
	}
}
