package web

import "net/http"

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Glimpse Timeline</title>
    <style>
      body { font-family: sans-serif; margin: 16px; }
      .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(220px, 1fr)); gap: 12px; }
      .card { border: 1px solid #ccc; padding: 8px; border-radius: 6px; }
      img { max-width: 100%; }
      .controls { margin-bottom: 12px; display: flex; gap: 8px; }
    </style>
  </head>
  <body>
    <h1>Glimpse Timeline</h1>
    <div class="controls">
      <input id="searchBox" placeholder="Search title/app" />
      <button onclick="doSearch()">Search</button>
      <button onclick="loadCaptures()">Refresh</button>
      <button onclick="togglePause()" id="pauseBtn">Pause</button>
      <button onclick="eraseRecent()">Erase last 5 min</button>
    </div>
    <div id="status"></div>
    <div class="grid" id="grid"></div>
    <script>
      let paused = false;
      async function loadCaptures() {
        const res = await fetch('/api/captures?limit=40');
        render(await res.json());
      }
      async function doSearch() {
        const q = document.getElementById('searchBox').value;
        if (!q) return loadCaptures();
        const res = await fetch('/api/search?q=' + encodeURIComponent(q));
        render(await res.json());
      }
      async function togglePause() {
        paused = !paused;
        await fetch(paused ? '/api/control/pause' : '/api/control/resume', { method: 'POST' });
        document.getElementById('pauseBtn').innerText = paused ? 'Resume' : 'Pause';
      }
      async function eraseRecent() {
        const res = await fetch('/api/control/erase?minutes=5', { method: 'POST' });
        const data = await res.json();
        document.getElementById('status').innerText = 'Erased ' + data.deleted + ' captures';
        loadCaptures();
      }
      function render(list) {
        const grid = document.getElementById('grid');
        grid.innerHTML = '';
        for (const item of list || []) {
          const div = document.createElement('div');
          div.className = 'card';
          div.innerHTML =
            '<div>' + new Date(item.timestamp).toLocaleString() + '</div>' +
            '<div><strong>' + item.event_type + '</strong></div>' +
            '<div>' + (item.window_title || '') + '</div>' +
            '<img src="/api/captures/' + item.id + '/image" loading="lazy" />';
          grid.appendChild(div);
        }
        document.getElementById('status').innerText = (list || []).length + ' items';
      }
      loadCaptures();
    </script>
  </body>
</html>
`
