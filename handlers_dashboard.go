package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func serveDashboard(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, dashboardHTML)
}

const dashboardHTML = `<!doctype html>
<html lang="sr">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Bad Modems Dashboard</title>
  <style>
    :root {
      --bg: #f5f6fb;
      --ink: #1b1b1b;
      --muted: #6b6b6b;
      --card: #ffffff;
      --accent: #667eea;
      --accent-2: #764ba2;
      --border: #e2e4ef;
      --high: #ff3b30;
      --medium: #ff9500;
      --low: #34c759;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      font-family: "Segoe UI", "Helvetica Neue", Arial, sans-serif;
      color: var(--ink);
      background: linear-gradient(180deg, #f5f6fb 0%, #eceefa 60%, #f3f4fb 100%);
    }
    header {
      padding: 24px 32px;
      border-bottom: 1px solid var(--border);
      background: #fff;
      position: sticky;
      top: 0;
      z-index: 10;
    }
    h1 { margin: 0; font-size: 22px; letter-spacing: 0.5px; }
    .tabs {
      margin-top: 12px;
      display: flex;
      gap: 8px;
      flex-wrap: wrap;
    }
    .tab-btn {
      padding: 6px 12px;
      border-radius: 999px;
      border: 1px solid var(--border);
      background: #fff;
      cursor: pointer;
      font-size: 12px;
    }
    .tab-btn.active {
      background: var(--accent);
      border-color: var(--accent);
      color: #fff;
    }
    .layout {
      padding: 24px 32px 40px;
      display: grid;
      gap: 16px;
    }
    .upload {
      border: 2px dashed var(--border);
      border-radius: 10px;
      padding: 24px;
      text-align: center;
      background: #fff;
      cursor: pointer;
    }
    .upload.dragover { border-color: var(--accent); background: #f0f2ff; }
    .file-info { display: none; gap: 12px; align-items: center; justify-content: center; font-size: 13px; }
    .file-info.shown { display: flex; }
    .link-btn {
      padding: 4px 8px;
      border: 1px solid var(--border);
      border-radius: 6px;
      background: #fff;
      cursor: pointer;
      font-size: 11px;
    }
    .state { display: none; }
    .state.shown { display: block; }
    .spinner {
      width: 36px; height: 36px; margin: 24px auto;
      border: 4px solid var(--border); border-top-color: var(--accent);
      border-radius: 50%; animation: spin 1s linear infinite;
    }
    @keyframes spin { to { transform: rotate(360deg); } }
    .message {
      padding: 14px 16px;
      border-radius: 10px;
      border: 1px solid var(--border);
      background: #fff;
      font-size: 13px;
    }
    .message.error { border-color: var(--high); color: var(--high); }
    .notice { margin-top: 8px; color: var(--muted); font-size: 12px; }
    .cards {
      display: grid;
      gap: 12px;
      grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
    }
    .card {
      background: var(--card);
      border: 1px solid var(--border);
      border-radius: 10px;
      padding: 14px 16px;
      box-shadow: 0 4px 12px rgba(0,0,0,0.04);
    }
    .card .label { color: var(--muted); font-size: 12px; }
    .card .value { font-size: 22px; margin-top: 6px; }
    .bar { height: 6px; background: var(--border); border-radius: 3px; margin-top: 8px; }
    .bar span { display: block; height: 100%; border-radius: 3px; }
    .new-banner {
      display: none;
      padding: 10px 14px;
      border-radius: 10px;
      background: #e9fbe9;
      border: 1px solid #4cd964;
      font-size: 13px;
    }
    .new-banner.shown { display: block; }
    .grid {
      display: grid;
      gap: 16px;
      grid-template-columns: repeat(auto-fit, minmax(420px, 1fr));
    }
    .panel {
      background: var(--card);
      border: 1px solid var(--border);
      border-radius: 10px;
      padding: 12px 14px;
    }
    .panel h3 { margin: 0 0 8px 0; font-size: 14px; color: var(--muted); }
    .chart { height: 300px; }
    table {
      width: 100%;
      border-collapse: collapse;
      font-size: 12px;
    }
    thead th {
      text-align: left;
      padding: 8px 6px;
      border-bottom: 1px solid var(--border);
      color: var(--muted);
    }
    tbody td {
      padding: 8px 6px;
      border-bottom: 1px dashed var(--border);
    }
    tr.new-entry { background: #f1fdf1; }
    .badge { padding: 2px 6px; border-radius: 6px; color: #fff; font-size: 11px; }
    .badge.high { background: var(--high); }
    .badge.medium { background: var(--medium); }
    .badge.low { background: var(--low); }
    .badge.new { background: #4cd964; margin-left: 6px; }
    .muted { color: var(--muted); }
    @media (max-width: 720px) {
      header { padding: 18px; }
      .layout { padding: 18px; }
      .grid { grid-template-columns: 1fr; }
    }
  </style>
</head>
<body>
  <header>
    <h1>Bad Modems Dashboard</h1>
    <div class="tabs" id="cityTabs"></div>
  </header>

  <div class="layout">
    <div class="upload" id="uploadArea">
      <div id="uploadPrompt">Drop a CSV report here or click to choose one</div>
      <div class="file-info" id="fileInfo">
        <span id="fileName"></span>
        <button class="link-btn" id="clearFile">Remove</button>
      </div>
      <input type="file" id="fileInput" accept=".csv" hidden />
    </div>

    <div class="state" id="loadingState"><div class="spinner"></div></div>
    <div class="state" id="errorState"><div class="message error" id="errorText"></div></div>
    <div class="state" id="noDataState">
      <div class="message">No data available for this city. Upload a report to analyze it.</div>
      <div class="notice" id="noDataNotice"></div>
    </div>

    <div class="state" id="resultsState">
      <div class="cards">
        <div class="card">
          <div class="label">Network health</div>
          <div class="value" id="healthScore">-</div>
          <div class="muted" id="healthStatus"></div>
        </div>
        <div class="card"><div class="label">Total modems</div><div class="value" id="totalModems">-</div></div>
        <div class="card">
          <div class="label">Healthy</div><div class="value" id="healthyCount">-</div>
        </div>
        <div class="card">
          <div class="label">USP/DSP issues</div><div class="value" id="powerCount">-</div>
          <div class="bar"><span id="powerBar" style="background: var(--high)"></span></div>
        </div>
        <div class="card">
          <div class="label">DSS only</div><div class="value" id="dssOnlyCount">-</div>
          <div class="bar"><span id="dssBar" style="background: var(--medium)"></span></div>
        </div>
        <div class="card">
          <div class="label">All issues</div><div class="value" id="totalIssues">-</div>
          <div class="bar"><span id="totalBar" style="background: var(--accent-2)"></span></div>
        </div>
      </div>
      <p class="muted">Last updated: <span id="lastUpdated">-</span> &middot; <a id="exportLink" href="#">Export to Excel</a></p>
      <div class="new-banner" id="newBanner"></div>

      <div class="grid">
        <div class="panel"><h3>Top 10 AMP</h3><div class="chart" id="ampChart"></div></div>
        <div class="panel"><h3>Top 10 ON - USP/DSP</h3><div class="chart" id="onChart"></div></div>
        <div class="panel"><h3>Top 20 ON - DSS</h3><div class="chart" id="dssChart"></div></div>
        <div class="panel"><h3>Network health</h3><div class="chart" id="healthChart"></div></div>
      </div>

      <div class="panel">
        <h3>Top 10 AMP</h3>
        <table>
          <thead><tr><th>#</th><th>AMP</th><th>Code</th><th>Bad</th><th>USP</th><th>DSP</th></tr></thead>
          <tbody id="ampTable"></tbody>
        </table>
      </div>
      <div class="panel">
        <h3>Top 10 ON</h3>
        <table>
          <thead><tr><th>#</th><th>ON</th><th>Name</th><th>Bad</th><th>USP</th><th>DSP</th></tr></thead>
          <tbody id="onTable"></tbody>
        </table>
      </div>
      <div class="panel">
        <h3>Top 20 DSS</h3>
        <table>
          <thead><tr><th>#</th><th>ON</th><th>Name</th><th>Bad</th></tr></thead>
          <tbody id="dssTable"></tbody>
        </table>
      </div>
      <div class="panel">
        <h3>Health over the last 30 days</h3>
        <div class="chart" id="trendChart"></div>
      </div>
    </div>
  </div>

  <script src="https://cdn.jsdelivr.net/npm/echarts@5/dist/echarts.min.js"></script>
  <script>
    const els = {
      tabs: document.getElementById('cityTabs'),
      uploadArea: document.getElementById('uploadArea'),
      uploadPrompt: document.getElementById('uploadPrompt'),
      fileInfo: document.getElementById('fileInfo'),
      fileName: document.getElementById('fileName'),
      fileInput: document.getElementById('fileInput'),
      clearFile: document.getElementById('clearFile'),
      errorText: document.getElementById('errorText'),
      noDataNotice: document.getElementById('noDataNotice'),
      newBanner: document.getElementById('newBanner'),
      exportLink: document.getElementById('exportLink'),
      panels: {
        loading: document.getElementById('loadingState'),
        error: document.getElementById('errorState'),
        noData: document.getElementById('noDataState'),
        results: document.getElementById('resultsState')
      }
    };

    const state = { city: 'novi_sad', file: null, panel: 'idle', seq: 0, charts: {} };
    let trendChart = null;

    function escapeHTML(value) {
      return String(value == null ? '' : value).replace(/[&<>"']/g, ch => ({
        '&': '&amp;', '<': '&lt;', '>': '&gt;', '"': '&quot;', "'": '&#39;'
      })[ch]);
    }

    function showPanel(name, message) {
      state.panel = name;
      Object.keys(els.panels).forEach(key => {
        els.panels[key].classList.toggle('shown', key === name);
      });
      if (name === 'error') els.errorText.textContent = message || '';
      if (name === 'noData') els.noDataNotice.textContent = message || '';
    }

    function setFileInfo(name) {
      els.fileName.textContent = name || '';
      els.fileInfo.classList.toggle('shown', !!name);
      els.uploadPrompt.style.display = name ? 'none' : 'block';
    }

    function clearFile() {
      state.file = null;
      els.fileInput.value = '';
      setFileInfo('');
      if (state.panel === 'error') showPanel('idle');
    }

    function percentageClass(p) {
      if (p >= 50) return 'high';
      if (p >= 20) return 'medium';
      return 'low';
    }

    function round1(v) { return Math.round(v * 10) / 10; }

    function healthScore(healthy, total) {
      const score = total > 0 ? round1(healthy / total * 100) : 0;
      if (score >= 95) return { score, label: 'excellent', color: '#4cd964' };
      if (score >= 85) return { score, label: 'good', color: '#34c759' };
      if (score >= 70) return { score, label: 'warning', color: '#ffcc00' };
      return { score, label: 'critical', color: '#ff3b30' };
    }

    function formatUpdated(ts) {
      const d = new Date(ts);
      const pad = n => String(n).padStart(2, '0');
      return d.getDate() + '.' + (d.getMonth() + 1) + '.' + d.getFullYear() + ', ' +
        pad(d.getHours()) + ':' + pad(d.getMinutes()) + ':' + pad(d.getSeconds());
    }

    function beginRequest() {
      state.seq += 1;
      showPanel('loading');
      return state.seq;
    }

    async function fetchLatest(city) {
      const seq = beginRequest();
      let result = null;
      let failure = '';
      try {
        const res = await fetch('/get_latest/' + encodeURIComponent(city));
        if (res.status !== 404) {
          if (!res.ok) throw new Error('Request failed: ' + res.status);
          const body = await res.json();
          if (body.success) result = body; else failure = body.error || 'Server returned no usable result';
        }
      } catch (err) {
        failure = err.message;
      }
      if (seq !== state.seq) return;
      if (result) {
        renderResults(result);
      } else {
        if (failure) console.warn('loading latest results failed', failure);
        showPanel('noData', failure ? 'Could not load the latest results: ' + failure : '');
      }
    }

    async function uploadAndAnalyze(file, city) {
      const seq = beginRequest();
      const form = new FormData();
      form.append('file', file);
      form.append('city', city);
      let body = null;
      let failure = '';
      try {
        const res = await fetch('/upload', { method: 'POST', body: form });
        body = await res.json();
      } catch (err) {
        failure = 'Network error: ' + err.message;
      }
      if (seq !== state.seq) return;
      if (failure) {
        showPanel('error', failure);
      } else if (!body || !body.success) {
        showPanel('error', (body && body.error) || 'An error occurred while processing the file');
      } else {
        renderResults(body);
      }
    }

    function selectFile(file) {
      if (!file) return;
      if (!file.name.endsWith('.csv')) {
        state.seq += 1;
        showPanel('error', 'Please select a CSV file');
        return;
      }
      state.file = file;
      setFileInfo(file.name);
      uploadAndAnalyze(file, state.city);
    }

    function switchCity(city) {
      state.city = city;
      els.tabs.querySelectorAll('.tab-btn').forEach(btn => {
        btn.classList.toggle('active', btn.dataset.city === city);
      });
      clearFile();
      fetchLatest(city);
      loadTrend(city);
    }

    function badCell(bad, total, pct) {
      return bad + ' <span class="badge ' + percentageClass(pct) + '">' + pct + '%</span> od ' + total;
    }

    function nameCell(name, isNew) {
      return escapeHTML(name) + (isNew ? '<span class="badge new">NOVO</span>' : '');
    }

    function renderTable(id, rows, cells) {
      const body = document.getElementById(id);
      body.innerHTML = rows.map(r =>
        '<tr class="' + (r.is_new ? 'new-entry' : '') + '">' + cells(r).map(c => '<td>' + c + '</td>').join('') + '</tr>'
      ).join('');
    }

    function renderChart(key, elementId, option) {
      if (state.charts[key]) {
        state.charts[key].dispose();
        delete state.charts[key];
      }
      if (!option) return;
      const chart = echarts.init(document.getElementById(elementId));
      chart.setOption(option);
      state.charts[key] = chart;
    }

    function label(name, isNew) { return isNew ? 'NEW ' + name : name; }

    function barOption(labels, values, colors) {
      return {
        tooltip: { trigger: 'axis' },
        grid: { left: 40, right: 16, bottom: 80 },
        xAxis: { type: 'category', data: labels, axisLabel: { rotate: 45, color: '#6b6b6b' } },
        yAxis: { type: 'value', minInterval: 1, axisLabel: { color: '#6b6b6b' } },
        series: [{ type: 'bar', data: values.map((v, i) => ({ value: v, itemStyle: { color: colors[i] } })) }]
      };
    }

    function renderResults(result) {
      showPanel('results');
      const s = result.summary;
      const healthy = s.healthy_count > 0 ? s.healthy_count : Math.max(0, s.total_modems - s.usp_dsp_dss_count);
      const dssOnly = s.dss_only_count > 0 ? s.dss_only_count : Math.max(0, s.usp_dsp_dss_count - s.usp_dsp_count);
      const pct = n => s.total_modems > 0 ? round1(n / s.total_modems * 100) : 0;
      const health = healthScore(healthy, s.total_modems);

      document.getElementById('healthScore').textContent = health.score + '%';
      document.getElementById('healthScore').style.color = health.color;
      document.getElementById('healthStatus').textContent = health.label;
      document.getElementById('totalModems').textContent = s.total_modems;
      document.getElementById('healthyCount').textContent = healthy + ' (' + pct(healthy) + '%)';
      document.getElementById('powerCount').textContent = s.usp_dsp_count + ' (' + pct(s.usp_dsp_count) + '%)';
      document.getElementById('dssOnlyCount').textContent = dssOnly + ' (' + pct(dssOnly) + '%)';
      document.getElementById('totalIssues').textContent = s.usp_dsp_dss_count + ' (' + pct(s.usp_dsp_dss_count) + '%)';
      document.getElementById('powerBar').style.width = Math.min(pct(s.usp_dsp_count) * 5, 100) + '%';
      document.getElementById('dssBar').style.width = Math.min(pct(dssOnly) * 5, 100) + '%';
      document.getElementById('totalBar').style.width = Math.min(pct(s.usp_dsp_dss_count) * 5, 100) + '%';
      document.getElementById('lastUpdated').textContent = formatUpdated(result.timestamp);
      els.exportLink.href = '/export/' + encodeURIComponent(state.city) + '.xlsx';

      const n = result.new_entries_summary;
      const newTotal = n ? n.new_amp_count + n.new_on_count + n.new_dss_count : 0;
      els.newBanner.classList.toggle('shown', newTotal > 0);
      els.newBanner.textContent = newTotal > 0
        ? 'New since the previous upload: ' + n.new_amp_count + ' AMP, ' + n.new_on_count + ' ON, ' + n.new_dss_count + ' DSS'
        : '';

      const amp = result.top_10_amp || [];
      const on = result.top_10_on || [];
      const dss = result.top_20_dss || [];

      renderTable('ampTable', amp, r => [r.rank, nameCell(r.amp_name, r.is_new), escapeHTML(r.amp_code || 'N/A'),
        badCell(r.bad_count, r.total_count, r.percentage), r.usp_count, r.dsp_count]);
      renderTable('onTable', on, r => [r.rank, nameCell(r.on_node, r.is_new), escapeHTML(r.on_name),
        badCell(r.bad_count, r.total_count, r.percentage), r.usp_count, r.dsp_count]);
      renderTable('dssTable', dss, r => [r.rank, nameCell(r.on_node, r.is_new), escapeHTML(r.on_name),
        badCell(r.bad_count || r.dss_count, r.total_count, r.percentage)]);

      const palette = ['#667eea', '#764ba2', '#f5576c', '#f093fb', '#4facfe', '#00f2fe'];
      renderChart('amp', 'ampChart', amp.length ? barOption(
        amp.map(r => label(r.amp_code, r.is_new)), amp.map(r => r.bad_count),
        amp.map((r, i) => r.is_new ? '#4cd964' : palette[i % palette.length])) : null);
      renderChart('on', 'onChart', on.length ? {
        tooltip: { trigger: 'axis' },
        legend: { data: ['USP', 'DSP'] },
        grid: { left: 40, right: 16, bottom: 80 },
        xAxis: { type: 'category', data: on.map(r => label(r.on_node, r.is_new)), axisLabel: { rotate: 45, color: '#6b6b6b' } },
        yAxis: { type: 'value', minInterval: 1 },
        series: [
          { name: 'USP', type: 'bar', stack: 'power', data: on.map(r => r.usp_count), itemStyle: { color: '#667eea' } },
          { name: 'DSP', type: 'bar', stack: 'power', data: on.map(r => r.dsp_count), itemStyle: { color: '#f5576c' } }
        ]
      } : null);
      renderChart('dss', 'dssChart', dss.length ? barOption(
        dss.map(r => label(r.on_node, r.is_new)), dss.map(r => r.bad_count || r.dss_count),
        dss.map(r => r.is_new ? '#4cd964' : '#f093fb')) : null);
      renderChart('health', 'healthChart', s.total_modems > 0 ? {
        tooltip: { trigger: 'item' },
        series: [{
          type: 'pie', radius: ['45%', '70%'],
          data: [
            { name: 'Healthy', value: healthy, itemStyle: { color: '#34c759' } },
            { name: 'USP/DSP', value: s.usp_dsp_count, itemStyle: { color: '#ff3b30' } },
            { name: 'DSS only', value: dssOnly, itemStyle: { color: '#ffcc00' } }
          ].filter(d => d.value > 0)
        }]
      } : null);

      els.panels.results.scrollIntoView({ behavior: 'smooth', block: 'start' });
    }

    async function loadTrend(city) {
      try {
        const res = await fetch('/api/history/' + encodeURIComponent(city) + '/trend?metric=health&bucket=day');
        if (!res.ok) return;
        const body = await res.json();
        if (city !== state.city) return;
        const points = body.data || [];
        if (trendChart) {
          trendChart.dispose();
          trendChart = null;
        }
        if (!points.length) return;
        trendChart = echarts.init(document.getElementById('trendChart'));
        trendChart.setOption({
          tooltip: { trigger: 'axis' },
          xAxis: { type: 'category', data: points.map(p => p.bucket), axisLabel: { color: '#6b6b6b' } },
          yAxis: { type: 'value', min: 0, max: 100, axisLabel: { color: '#6b6b6b' } },
          series: [{ name: 'Health %', type: 'line', data: points.map(p => p.value), smooth: true, areaStyle: { opacity: 0.12 }, lineStyle: { color: '#34c759' } }]
        });
      } catch (err) {
        console.warn('loading trend failed', err);
      }
    }

    function connectLive() {
      const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
      const ws = new WebSocket(scheme + location.host + '/ws');
      ws.onmessage = ev => {
        try {
          const msg = JSON.parse(ev.data);
          if (msg.type === 'result_updated' && msg.city === state.city && state.panel !== 'loading') {
            fetchLatest(state.city);
            loadTrend(state.city);
          }
        } catch (err) {
          console.warn('bad live message', err);
        }
      };
      ws.onclose = () => setTimeout(connectLive, 5000);
    }

    async function initTabs() {
      let cities = [];
      let def = 'novi_sad';
      try {
        const res = await fetch('/api/cities');
        const body = await res.json();
        cities = body.cities || [];
        def = body.default || def;
      } catch (err) {
        console.warn('loading cities failed', err);
      }
      els.tabs.innerHTML = cities.map(c =>
        '<button class="tab-btn" data-city="' + escapeHTML(c.id) + '">' + escapeHTML(c.name) + '</button>'
      ).join('');
      els.tabs.querySelectorAll('.tab-btn').forEach(btn => {
        btn.addEventListener('click', () => switchCity(btn.dataset.city));
      });
      switchCity(def);
    }

    els.uploadArea.addEventListener('click', ev => {
      if (ev.target === els.clearFile) return;
      els.fileInput.click();
    });
    els.fileInput.addEventListener('change', () => selectFile(els.fileInput.files[0]));
    els.clearFile.addEventListener('click', ev => {
      ev.stopPropagation();
      clearFile();
    });
    els.uploadArea.addEventListener('dragover', ev => {
      ev.preventDefault();
      els.uploadArea.classList.add('dragover');
    });
    els.uploadArea.addEventListener('dragleave', () => els.uploadArea.classList.remove('dragover'));
    els.uploadArea.addEventListener('drop', ev => {
      ev.preventDefault();
      els.uploadArea.classList.remove('dragover');
      selectFile(ev.dataTransfer.files[0]);
    });
    window.addEventListener('resize', () => {
      Object.values(state.charts).forEach(c => c.resize());
      if (trendChart) trendChart.resize();
    });

    initTabs();
    connectLive();
  </script>
</body>
</html>`
